package navigation

import (
	"context"
	"time"

	"wayfinder-backend/domain/core/entities"
)

// Config carries the per-session knobs of a TransitionRouter.
type Config struct {
	// PolicyOrder is the default fallback chain.
	PolicyOrder []ProviderKind

	// NotRepeatLast sizes the hard-exclusion history window.
	NotRepeatLast int

	// Repeat filter parameters; see NewRepeatFilter.
	RepeatWindow    int
	RepeatThreshold float64
	RepeatDecay     float64
	MaxVisits       int
}

// DefaultConfig returns the routing defaults used when the host supplies
// nothing more specific.
func DefaultConfig() Config {
	return Config{
		PolicyOrder:     []ProviderKind{ProviderManual, ProviderCompass, ProviderEcho, ProviderRandom},
		NotRepeatLast:   5,
		RepeatWindow:    20,
		RepeatThreshold: 0.3,
		RepeatDecay:     0.5,
		MaxVisits:       3,
	}
}

// TransitionRouter orchestrates an ordered chain of policies over a
// per-session history window and repeat filter, under a caller-supplied
// budget. It is the sole writer of the history and filter; each instance
// belongs to exactly one navigation session and must not be shared across
// concurrent requests for that session without external serialization.
type TransitionRouter struct {
	policies map[ProviderKind]*Policy
	order    []ProviderKind
	history  *History
	filter   *RepeatFilter
	metrics  MetricsSink
}

// NewTransitionRouter creates a router over the given policies. A nil
// metrics sink is replaced with a no-op.
func NewTransitionRouter(cfg Config, policies []*Policy, metrics MetricsSink) *TransitionRouter {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	byKind := make(map[ProviderKind]*Policy, len(policies))
	for _, p := range policies {
		byKind[p.Kind()] = p
	}
	return &TransitionRouter{
		policies: byKind,
		order:    cfg.PolicyOrder,
		history:  NewHistory(cfg.NotRepeatLast),
		filter:   NewRepeatFilter(cfg.RepeatWindow, cfg.RepeatThreshold, cfg.RepeatDecay, cfg.MaxVisits),
		metrics:  metrics,
	}
}

// History exposes the live history window, oldest first.
func (r *TransitionRouter) History() []string {
	return r.history.Items()
}

// Route decides the next node from start for the user.
//
// mode, when non-empty, promotes that policy to the front of the chain.
// The budget's FallbackChain, when set and mode is empty, replaces the
// default order entirely. Budget ceilings are checked between policy
// invocations; provider infrastructure errors propagate uncaught.
func (r *TransitionRouter) Route(ctx context.Context, start *entities.Node, user *entities.User, budget Budget, mode ProviderKind, preview Preview) (*TransitionResult, error) {
	started := time.Now()

	if preview.Seed != nil {
		for _, p := range r.policies {
			p.SetSeed(*preview.Seed)
		}
	}

	history := r.history
	filter := r.filter
	if !preview.Live() {
		history = r.history.Clone()
		filter = r.filter.Clone()
	}

	history.Push(start.ID.String())
	filter.Update(start)

	scope := start.WorkspaceID
	order := r.resolveOrder(mode, budget)

	result := &TransitionResult{Trace: make([]TransitionTrace, 0, len(order))}
	invocations := 0
	filteredTotal := 0
	candidatesTotal := 0

	for i, kind := range order {
		policy, ok := r.policies[kind]
		if !ok {
			continue
		}

		next, trace, err := policy.Choose(ctx, start, user, scope, history, filter, preview)
		if err != nil {
			return nil, err
		}
		result.Trace = append(result.Trace, trace)
		invocations++
		candidatesTotal += len(trace.Candidates)
		filteredTotal += len(trace.Filtered)

		if budget.MaxTimeMS > 0 && time.Since(started).Milliseconds() > budget.MaxTimeMS {
			result.Reason = ReasonTimeout
			break
		}
		if (budget.MaxQueries > 0 && invocations > budget.MaxQueries) ||
			(budget.MaxFilters > 0 && filteredTotal > budget.MaxFilters) {
			result.Reason = ReasonBudgetExceeded
			break
		}

		if next != nil && !history.Contains(next.ID.String()) {
			if i > 0 {
				result.Metrics.FallbackUsed = true
			}
			history.Push(next.ID.String())
			filter.Update(next)
			result.Next = next
			break
		}
	}

	if result.Next == nil && result.Reason == ReasonNone {
		result.Reason = ReasonNoRoute
	}

	result.Metrics.ElapsedMS = time.Since(started).Milliseconds()
	result.Metrics.Queries = invocations
	result.Metrics.CandidatesTotal = candidatesTotal
	result.Metrics.FilteredTotal = filteredTotal
	if candidatesTotal > 0 {
		result.Metrics.RepeatRate = float64(filteredTotal) / float64(candidatesTotal)
	}
	result.Metrics.NoveltyRate = 1 - result.Metrics.RepeatRate
	result.Metrics.TagEntropy = filter.TagEntropy()

	r.metrics.ObserveRoute(scope, mode, result.Reason, result.Metrics)
	return result, nil
}

// resolveOrder determines the policy chain for one call: an explicit mode
// is tried first with the remaining configured policies as fallback; an
// explicit budget chain is used verbatim; otherwise the configured order.
func (r *TransitionRouter) resolveOrder(mode ProviderKind, budget Budget) []ProviderKind {
	if mode != "" {
		order := make([]ProviderKind, 0, len(r.order)+1)
		order = append(order, mode)
		for _, kind := range r.order {
			if kind != mode {
				order = append(order, kind)
			}
		}
		return order
	}
	if len(budget.FallbackChain) > 0 {
		return budget.FallbackChain
	}
	return r.order
}
