package navigation

import (
	"context"
	"math/rand"

	"wayfinder-backend/domain/core/entities"
)

// Policy wraps one provider and applies history exclusion plus the repeat
// filter to its candidates before picking a single next node. Manual,
// compass and echo policies take the first surviving candidate, so the
// provider's ordering is significant; the random policy picks uniformly
// from the survivors with its own RNG.
//
// A policy never mutates the shared history or repeat filter; that is the
// router's job after it accepts a candidate.
type Policy struct {
	provider *Provider
	rng      *rand.Rand
}

// NewPolicy creates a policy around the given provider.
func NewPolicy(provider *Provider, seed int64) *Policy {
	return &Policy{
		provider: provider,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Kind returns the wrapped provider's kind.
func (p *Policy) Kind() ProviderKind {
	return p.provider.Kind()
}

// SetSeed reseeds both the policy's pick RNG and the provider's RNG so a
// fixed preview seed reproduces the whole decision.
func (p *Policy) SetSeed(seed int64) {
	p.rng = rand.New(rand.NewSource(seed))
	p.provider.SetSeed(seed)
}

// Choose asks the provider for candidates, narrows them by history and the
// repeat filter, and returns the picked node (nil when none survive) plus
// the invocation trace. Provider infrastructure errors propagate untouched.
func (p *Policy) Choose(ctx context.Context, node *entities.Node, user *entities.User, scope string, history *History, filter *RepeatFilter, preview Preview) (*entities.Node, TransitionTrace, error) {
	trace := TransitionTrace{Policy: p.provider.Kind()}

	candidates, err := p.provider.GetTransitions(ctx, node, user, scope, preview)
	if err != nil {
		return nil, trace, err
	}

	trace.Candidates = make([]string, 0, len(candidates))
	remaining := make([]*entities.Node, 0, len(candidates))
	for _, c := range candidates {
		id := c.ID.String()
		trace.Candidates = append(trace.Candidates, id)
		if history.Contains(id) {
			trace.Filtered = append(trace.Filtered, id)
			trace.Reasons = append(trace.Reasons, FilterReasonHistory)
			continue
		}
		remaining = append(remaining, c)
	}

	allowed, repeats := filter.Filter(remaining)
	for _, id := range repeats {
		trace.Filtered = append(trace.Filtered, id)
		trace.Reasons = append(trace.Reasons, FilterReasonRepeat)
	}

	if len(allowed) == 0 {
		return nil, trace, nil
	}

	var next *entities.Node
	if p.provider.Kind() == ProviderRandom {
		next = allowed[p.rng.Intn(len(allowed))]
	} else {
		next = allowed[0]
	}
	trace.Selected = next.ID.String()
	return next, trace, nil
}
