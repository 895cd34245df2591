package navigation

import "wayfinder-backend/domain/core/entities"

// NoRouteReason classifies why a routing call terminated without a node.
type NoRouteReason string

const (
	// ReasonNone marks a successful routing decision.
	ReasonNone NoRouteReason = ""
	// ReasonNoRoute means every policy was exhausted with no acceptable
	// candidate. This is a normal outcome, not a failure.
	ReasonNoRoute NoRouteReason = "NO_ROUTE"
	// ReasonTimeout means the elapsed-time budget was exceeded.
	ReasonTimeout NoRouteReason = "TIMEOUT"
	// ReasonBudgetExceeded means the query or filter ceiling was hit.
	ReasonBudgetExceeded NoRouteReason = "BUDGET_EXCEEDED"
)

// TransitionTrace records one policy invocation: everything the policy
// considered, everything it discarded and why, and what it picked.
type TransitionTrace struct {
	Policy     ProviderKind `json:"policy"`
	Candidates []string     `json:"candidates"`
	Filtered   []string     `json:"filtered"`
	Reasons    []string     `json:"reasons,omitempty"`
	Selected   string       `json:"selected,omitempty"`
}

// Filter reason groups used in TransitionTrace.Reasons. They are
// positional: Reasons[i] explains Filtered[i].
const (
	FilterReasonHistory = "history"
	FilterReasonRepeat  = "repeat"
)

// RouteMetrics is the per-call metrics bag emitted to the metrics sink
// and returned on the result for callers that want to log it.
type RouteMetrics struct {
	ElapsedMS       int64   `json:"elapsed_ms"`
	Queries         int     `json:"queries"`
	CandidatesTotal int     `json:"candidates_total"`
	FilteredTotal   int     `json:"filtered_total"`
	RepeatRate      float64 `json:"repeat_rate"`
	NoveltyRate     float64 `json:"novelty_rate"`
	TagEntropy      float64 `json:"tag_entropy"`
	FallbackUsed    bool    `json:"fallback_used"`
}

// TransitionResult is the terminal output of one Route call. Routing-domain
// outcomes (no route, timeout, budget) are carried in Reason; they are
// never surfaced as errors.
type TransitionResult struct {
	Next    *entities.Node    `json:"next,omitempty"`
	Reason  NoRouteReason     `json:"reason,omitempty"`
	Trace   []TransitionTrace `json:"trace"`
	Metrics RouteMetrics      `json:"metrics"`
}

// MetricsSink receives routing observations. Implementations live at the
// observability boundary; the router never blocks on them.
type MetricsSink interface {
	ObserveRoute(scope string, mode ProviderKind, reason NoRouteReason, metrics RouteMetrics)
}

// NopMetrics discards all observations.
type NopMetrics struct{}

// ObserveRoute implements MetricsSink.
func (NopMetrics) ObserveRoute(string, ProviderKind, NoRouteReason, RouteMetrics) {}
