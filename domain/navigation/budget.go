package navigation

// Budget bounds the work a single routing call may perform. Zero values
// mean "unlimited" so callers only set the ceilings they care about.
type Budget struct {
	// MaxTimeMS is a soft wall-clock deadline, checked between policy
	// invocations. A single slow provider call can still overrun it.
	MaxTimeMS int64

	// MaxQueries caps the number of policy invocations.
	MaxQueries int

	// MaxFilters caps the cumulative number of filtered-out candidates
	// across all policies.
	MaxFilters int

	// FallbackChain, when set, replaces the router's configured policy
	// order for this call.
	FallbackChain []ProviderKind
}
