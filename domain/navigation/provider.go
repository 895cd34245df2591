package navigation

import (
	"context"
	"fmt"
	"math/rand"

	"wayfinder-backend/domain/core/entities"
)

// ProviderKind is the closed set of transition signal sources. Dispatch is
// by switch rather than open-ended subclassing so the full set of behaviors
// is visible in one place.
type ProviderKind string

const (
	// ProviderManual serves editor-authored transitions.
	ProviderManual ProviderKind = "manual"
	// ProviderCompass serves embedding-similarity suggestions.
	ProviderCompass ProviderKind = "compass"
	// ProviderEcho serves collaborative-trail suggestions.
	ProviderEcho ProviderKind = "echo"
	// ProviderRandom serves a uniformly random exploration pick.
	ProviderRandom ProviderKind = "random"
)

// ParseProviderKind validates a policy name supplied by a caller.
func ParseProviderKind(s string) (ProviderKind, error) {
	switch ProviderKind(s) {
	case ProviderManual, ProviderCompass, ProviderEcho, ProviderRandom:
		return ProviderKind(s), nil
	}
	return "", fmt.Errorf("unknown provider kind %q", s)
}

// ManualSource supplies editor-authored candidates, already ordered by
// weight (descending) with newest-first tiebreak.
type ManualSource interface {
	ManualCandidates(ctx context.Context, node *entities.Node, user *entities.User, scope string, preview Preview) ([]*entities.Node, error)
}

// CompassSource supplies embedding-similarity candidates, best first.
type CompassSource interface {
	CompassCandidates(ctx context.Context, node *entities.Node, user *entities.User, limit int, preview Preview) ([]*entities.Node, error)
}

// EchoSource supplies candidates reached via recorded collaborative trails.
type EchoSource interface {
	EchoCandidates(ctx context.Context, node *entities.Node, user *entities.User, scope string, limit int, preview Preview) ([]*entities.Node, error)
}

// RandomSource supplies the pool of exploration-eligible nodes; the
// provider picks one of them uniformly.
type RandomSource interface {
	RandomCandidates(ctx context.Context, node *entities.Node, user *entities.User, scope string, preview Preview) ([]*entities.Node, error)
}

// Provider produces a raw ordered candidate list from one signal source.
// Returning no candidates is a normal outcome, never an error; errors are
// reserved for genuine infrastructure failure and propagate to the caller.
type Provider struct {
	kind    ProviderKind
	limit   int
	manual  ManualSource
	compass CompassSource
	echo    EchoSource
	random  RandomSource
	rng     *rand.Rand
}

// NewManualProvider creates a manual-transition provider.
func NewManualProvider(src ManualSource) *Provider {
	return &Provider{kind: ProviderManual, manual: src}
}

// NewCompassProvider creates a compass provider returning at most limit
// candidates per call.
func NewCompassProvider(src CompassSource, limit int) *Provider {
	return &Provider{kind: ProviderCompass, compass: src, limit: limit}
}

// NewEchoProvider creates an echo-trail provider with a result cap.
func NewEchoProvider(src EchoSource, limit int) *Provider {
	return &Provider{kind: ProviderEcho, echo: src, limit: limit}
}

// NewRandomProvider creates a random-exploration provider. The RNG is
// owned by the provider instance; SetSeed makes picks reproducible.
func NewRandomProvider(src RandomSource, seed int64) *Provider {
	return &Provider{kind: ProviderRandom, random: src, rng: rand.New(rand.NewSource(seed))}
}

// Kind returns the provider's signal source kind.
func (p *Provider) Kind() ProviderKind {
	return p.kind
}

// SetSeed reseeds the provider's RNG. Only the random provider consumes
// randomness; reseeding the others is a no-op.
func (p *Provider) SetSeed(seed int64) {
	if p.rng != nil {
		p.rng = rand.New(rand.NewSource(seed))
	}
}

// GetTransitions returns the ordered candidate list for the node.
func (p *Provider) GetTransitions(ctx context.Context, node *entities.Node, user *entities.User, scope string, preview Preview) ([]*entities.Node, error) {
	switch p.kind {
	case ProviderManual:
		return p.manual.ManualCandidates(ctx, node, user, scope, preview)
	case ProviderCompass:
		return p.compass.CompassCandidates(ctx, node, user, p.limit, preview)
	case ProviderEcho:
		return p.echo.EchoCandidates(ctx, node, user, scope, p.limit, preview)
	case ProviderRandom:
		pool, err := p.random.RandomCandidates(ctx, node, user, scope, preview)
		if err != nil {
			return nil, err
		}
		if len(pool) == 0 {
			return nil, nil
		}
		return []*entities.Node{pool[p.rng.Intn(len(pool))]}, nil
	}
	return nil, fmt.Errorf("unknown provider kind %q", p.kind)
}
