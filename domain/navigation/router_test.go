package navigation

import (
	"context"
	"testing"
	"time"

	"wayfinder-backend/domain/core/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource implements all four provider source interfaces with a fixed
// candidate list.
type stubSource struct {
	nodes []*entities.Node
	delay time.Duration
	err   error
}

func (s *stubSource) serve() ([]*entities.Node, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.nodes, s.err
}

func (s *stubSource) ManualCandidates(ctx context.Context, node *entities.Node, user *entities.User, scope string, preview Preview) ([]*entities.Node, error) {
	return s.serve()
}

func (s *stubSource) CompassCandidates(ctx context.Context, node *entities.Node, user *entities.User, limit int, preview Preview) ([]*entities.Node, error) {
	return s.serve()
}

func (s *stubSource) EchoCandidates(ctx context.Context, node *entities.Node, user *entities.User, scope string, limit int, preview Preview) ([]*entities.Node, error) {
	return s.serve()
}

func (s *stubSource) RandomCandidates(ctx context.Context, node *entities.Node, user *entities.User, scope string, preview Preview) ([]*entities.Node, error) {
	return s.serve()
}

func newTestRouter(cfg Config, manual, compass, echo, random *stubSource) *TransitionRouter {
	policies := []*Policy{
		NewPolicy(NewManualProvider(manual), 1),
		NewPolicy(NewCompassProvider(compass, 5), 1),
		NewPolicy(NewEchoProvider(echo, 5), 1),
		NewPolicy(NewRandomProvider(random, 1), 1),
	}
	return NewTransitionRouter(cfg, policies, nil)
}

func testUser() *entities.User {
	return &entities.User{ID: "u1", WorkspaceID: "ws1"}
}

func empty() *stubSource { return &stubSource{} }

func TestRoute_ManualWinsWhenPresent(t *testing.T) {
	start := newTestNode("alpha", "beta")
	target := newTestNode()

	router := newTestRouter(DefaultConfig(),
		&stubSource{nodes: []*entities.Node{target}}, empty(), empty(), empty())

	result, err := router.Route(context.Background(), start, testUser(), Budget{}, "", Preview{})
	require.NoError(t, err)

	require.NotNil(t, result.Next)
	assert.True(t, result.Next.ID.Equals(target.ID))
	assert.Equal(t, ReasonNone, result.Reason)
	assert.False(t, result.Metrics.FallbackUsed)

	require.Len(t, result.Trace, 1)
	assert.Equal(t, ProviderManual, result.Trace[0].Policy)
	assert.Equal(t, target.ID.String(), result.Trace[0].Selected)

	// Both endpoints of the accepted transition are in the live history.
	assert.Equal(t, []string{start.ID.String(), target.ID.String()}, router.History())

	// Start's two distinct tags give a uniform two-symbol window.
	assert.InDelta(t, 1.0, result.Metrics.TagEntropy, 1e-9)
}

func TestRoute_FallsBackPastEmptyPolicies(t *testing.T) {
	start := newTestNode()
	target := newTestNode()

	router := newTestRouter(DefaultConfig(),
		empty(), &stubSource{nodes: []*entities.Node{target}}, empty(), empty())

	result, err := router.Route(context.Background(), start, testUser(), Budget{}, "", Preview{})
	require.NoError(t, err)

	require.NotNil(t, result.Next)
	assert.True(t, result.Next.ID.Equals(target.ID))
	assert.True(t, result.Metrics.FallbackUsed)
	require.Len(t, result.Trace, 2)
	assert.Equal(t, ProviderManual, result.Trace[0].Policy)
	assert.Equal(t, ProviderCompass, result.Trace[1].Policy)
}

func TestRoute_NoRouteWhenAllPoliciesEmpty(t *testing.T) {
	start := newTestNode()

	router := newTestRouter(DefaultConfig(), empty(), empty(), empty(), empty())

	result, err := router.Route(context.Background(), start, testUser(), Budget{}, "", Preview{})
	require.NoError(t, err)

	assert.Nil(t, result.Next)
	assert.Equal(t, ReasonNoRoute, result.Reason)
	assert.Len(t, result.Trace, 4)
	assert.Equal(t, 4, result.Metrics.Queries)
}

func TestRoute_StartNodeExcludedByHistory(t *testing.T) {
	start := newTestNode()
	target := newTestNode()

	// Manual suggests looping back to the start; compass has a fresh node.
	router := newTestRouter(DefaultConfig(),
		&stubSource{nodes: []*entities.Node{start}},
		&stubSource{nodes: []*entities.Node{target}},
		empty(), empty())

	result, err := router.Route(context.Background(), start, testUser(), Budget{}, "", Preview{})
	require.NoError(t, err)

	require.NotNil(t, result.Next)
	assert.True(t, result.Next.ID.Equals(target.ID))
	assert.Equal(t, []string{start.ID.String()}, result.Trace[0].Filtered)
	assert.Equal(t, []string{FilterReasonHistory}, result.Trace[0].Reasons)
}

func TestRoute_RepeatFilterBlocksExhaustedNode(t *testing.T) {
	start := newTestNode()
	target := newTestNode()

	cfg := DefaultConfig()
	cfg.NotRepeatLast = 1
	cfg.MaxVisits = 1

	router := newTestRouter(cfg,
		&stubSource{nodes: []*entities.Node{target}}, empty(), empty(), empty())

	first, err := router.Route(context.Background(), start, testUser(), Budget{}, "", Preview{})
	require.NoError(t, err)
	require.NotNil(t, first.Next)

	// target's visit count is exhausted; it fell out of the one-slot
	// history so the exclusion comes from the repeat filter.
	second, err := router.Route(context.Background(), start, testUser(), Budget{}, "", Preview{})
	require.NoError(t, err)
	assert.Nil(t, second.Next)
	assert.Equal(t, ReasonNoRoute, second.Reason)
	assert.Contains(t, second.Trace[0].Reasons, FilterReasonRepeat)
}

func TestRoute_QueryBudgetStopsChain(t *testing.T) {
	start := newTestNode()
	target := newTestNode()

	router := newTestRouter(DefaultConfig(),
		empty(), &stubSource{nodes: []*entities.Node{target}}, empty(), empty())

	// The budget check runs before acceptance, so compass's candidate is
	// found but discarded.
	result, err := router.Route(context.Background(), start, testUser(), Budget{MaxQueries: 1}, "", Preview{})
	require.NoError(t, err)

	assert.Nil(t, result.Next)
	assert.Equal(t, ReasonBudgetExceeded, result.Reason)
	assert.Equal(t, 2, result.Metrics.Queries)
}

func TestRoute_TimeBudgetStopsChain(t *testing.T) {
	start := newTestNode()
	target := newTestNode()

	router := newTestRouter(DefaultConfig(),
		&stubSource{nodes: []*entities.Node{target}, delay: 20 * time.Millisecond},
		empty(), empty(), empty())

	result, err := router.Route(context.Background(), start, testUser(), Budget{MaxTimeMS: 1}, "", Preview{})
	require.NoError(t, err)

	assert.Nil(t, result.Next)
	assert.Equal(t, ReasonTimeout, result.Reason)
}

func TestRoute_FallbackChainReplacesOrder(t *testing.T) {
	start := newTestNode()
	manualTarget := newTestNode()
	echoTarget := newTestNode()

	router := newTestRouter(DefaultConfig(),
		&stubSource{nodes: []*entities.Node{manualTarget}},
		empty(),
		&stubSource{nodes: []*entities.Node{echoTarget}},
		empty())

	budget := Budget{FallbackChain: []ProviderKind{ProviderEcho}}
	result, err := router.Route(context.Background(), start, testUser(), budget, "", Preview{})
	require.NoError(t, err)

	require.NotNil(t, result.Next)
	assert.True(t, result.Next.ID.Equals(echoTarget.ID))
	require.Len(t, result.Trace, 1)
	assert.Equal(t, ProviderEcho, result.Trace[0].Policy)
	assert.False(t, result.Metrics.FallbackUsed)
}

func TestRoute_ModePromotesPolicy(t *testing.T) {
	start := newTestNode()
	manualTarget := newTestNode()
	echoTarget := newTestNode()

	router := newTestRouter(DefaultConfig(),
		&stubSource{nodes: []*entities.Node{manualTarget}},
		empty(),
		&stubSource{nodes: []*entities.Node{echoTarget}},
		empty())

	result, err := router.Route(context.Background(), start, testUser(), Budget{}, ProviderEcho, Preview{})
	require.NoError(t, err)

	require.NotNil(t, result.Next)
	assert.True(t, result.Next.ID.Equals(echoTarget.ID))
	assert.Equal(t, ProviderEcho, result.Trace[0].Policy)
}

func TestRoute_ModeStillFallsBack(t *testing.T) {
	start := newTestNode()
	manualTarget := newTestNode()

	router := newTestRouter(DefaultConfig(),
		&stubSource{nodes: []*entities.Node{manualTarget}},
		empty(), empty(), empty())

	// Echo is empty, so the requested mode falls through to the rest of
	// the configured chain.
	result, err := router.Route(context.Background(), start, testUser(), Budget{}, ProviderEcho, Preview{})
	require.NoError(t, err)

	require.NotNil(t, result.Next)
	assert.True(t, result.Next.ID.Equals(manualTarget.ID))
	assert.True(t, result.Metrics.FallbackUsed)
}

func TestRoute_PreviewDoesNotMutateSession(t *testing.T) {
	start := newTestNode()
	target := newTestNode()

	router := newTestRouter(DefaultConfig(),
		&stubSource{nodes: []*entities.Node{target}}, empty(), empty(), empty())

	preview := Preview{Mode: PreviewReadOnly}
	result, err := router.Route(context.Background(), start, testUser(), Budget{}, "", preview)
	require.NoError(t, err)

	require.NotNil(t, result.Next)
	assert.Empty(t, router.History())

	// A live call afterwards behaves as if the preview never happened.
	live, err := router.Route(context.Background(), start, testUser(), Budget{}, "", Preview{})
	require.NoError(t, err)
	require.NotNil(t, live.Next)
	assert.True(t, live.Next.ID.Equals(target.ID))
}

func TestRoute_SeedMakesRandomDeterministic(t *testing.T) {
	start := newTestNode()
	pool := []*entities.Node{newTestNode(), newTestNode(), newTestNode(), newTestNode()}

	cfg := DefaultConfig()
	cfg.PolicyOrder = []ProviderKind{ProviderRandom}

	seed := int64(42)
	preview := Preview{Mode: PreviewReadOnly, Seed: &seed}

	build := func(initialSeed int64) *TransitionRouter {
		policies := []*Policy{
			NewPolicy(NewRandomProvider(&stubSource{nodes: pool}, initialSeed), initialSeed),
		}
		return NewTransitionRouter(cfg, policies, nil)
	}

	first, err := build(1).Route(context.Background(), start, testUser(), Budget{}, "", preview)
	require.NoError(t, err)
	second, err := build(999).Route(context.Background(), start, testUser(), Budget{}, "", preview)
	require.NoError(t, err)

	require.NotNil(t, first.Next)
	require.NotNil(t, second.Next)
	assert.True(t, first.Next.ID.Equals(second.Next.ID))
}

func TestRoute_MetricsRates(t *testing.T) {
	start := newTestNode()
	target := newTestNode()

	// Manual offers the start (filtered) and a fresh node (accepted):
	// one of two candidates filtered.
	router := newTestRouter(DefaultConfig(),
		&stubSource{nodes: []*entities.Node{start, target}}, empty(), empty(), empty())

	result, err := router.Route(context.Background(), start, testUser(), Budget{}, "", Preview{})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Metrics.CandidatesTotal)
	assert.Equal(t, 1, result.Metrics.FilteredTotal)
	assert.InDelta(t, 0.5, result.Metrics.RepeatRate, 1e-9)
	assert.InDelta(t, 0.5, result.Metrics.NoveltyRate, 1e-9)
}
