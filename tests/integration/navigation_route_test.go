package integration

import (
	"context"
	"testing"
	"time"

	"wayfinder-backend/application/services"
	"wayfinder-backend/domain/core/entities"
	"wayfinder-backend/domain/core/valueobjects"
	"wayfinder-backend/domain/navigation"
	domainservices "wayfinder-backend/domain/services"
	"wayfinder-backend/infrastructure/cache"
	"wayfinder-backend/infrastructure/embedding"
	"wayfinder-backend/infrastructure/messaging"
	"wayfinder-backend/infrastructure/persistence/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fixture wires the full navigation stack against in-memory adapters, the
// same shape the development container builds.
type fixture struct {
	repo  *memory.NodeRepository
	cache *cache.MemoryCache
	nav   *services.NavigationService
}

func newFixture(t *testing.T, defaults services.RoutingDefaults) *fixture {
	t.Helper()

	repo := memory.NewNodeRepository()
	memCache := cache.NewMemoryCache(1000, 4<<20, nil)
	access := domainservices.NewAccessPolicy()
	embedder := embedding.NewTextEmbedder()
	index := embedding.NewScanIndex(repo, nil)
	bus := messaging.NewLogBus(zap.NewNop())

	manual := services.NewTransitionsService(repo, access, nil)
	compass := services.NewCompassService(repo, access, memCache, index, embedder, services.DefaultCompassConfig(), nil)
	echo := services.NewEchoService(repo, access, nil)
	explore := services.NewExploreService(repo, access, nil)

	nav := services.NewNavigationService(repo, memCache, bus, nil,
		manual, compass, echo, explore, defaults, nil)

	return &fixture{repo: repo, cache: memCache, nav: nav}
}

func (f *fixture) seed(slug string) *entities.Node {
	node := &entities.Node{
		ID:            valueobjects.NewNodeID(),
		Slug:          slug,
		WorkspaceID:   "ws1",
		Title:         slug,
		Visible:       true,
		Public:        true,
		Recommendable: true,
	}
	f.repo.AddNode(node)
	return node
}

func TestNextNode_ManualRouteEndToEnd(t *testing.T) {
	f := newFixture(t, services.DefaultRoutingDefaults())
	start := f.seed("home")
	target := f.seed("getting-started")
	f.repo.AddManualTransition(start.ID, target.ID, 1.0, time.Now())

	user := &entities.User{ID: "u1", WorkspaceID: "ws1"}
	result, err := f.nav.NextNode(context.Background(), user, "ws1", "home", "", navigation.Budget{}, navigation.Preview{})
	require.NoError(t, err)

	require.NotNil(t, result.Next)
	assert.Equal(t, "getting-started", result.Next.Slug)
	require.NotEmpty(t, result.Trace)
	assert.Equal(t, navigation.ProviderManual, result.Trace[0].Policy)
}

func TestNextNode_UnknownSlug(t *testing.T) {
	f := newFixture(t, services.DefaultRoutingDefaults())
	user := &entities.User{ID: "u1", WorkspaceID: "ws1"}

	_, err := f.nav.NextNode(context.Background(), user, "ws1", "nope", "", navigation.Budget{}, navigation.Preview{})
	assert.Error(t, err)
}

func TestNextNode_SecondLiveCallIsMemoized(t *testing.T) {
	f := newFixture(t, services.DefaultRoutingDefaults())
	start := f.seed("home")
	target := f.seed("next-stop")
	f.repo.AddManualTransition(start.ID, target.ID, 1.0, time.Now())

	user := &entities.User{ID: "u1", WorkspaceID: "ws1"}
	ctx := context.Background()

	first, err := f.nav.NextNode(ctx, user, "ws1", "home", "", navigation.Budget{}, navigation.Preview{})
	require.NoError(t, err)
	require.NotNil(t, first.Next)

	// The memoized answer carries no trace; that distinguishes it from a
	// freshly routed one.
	second, err := f.nav.NextNode(ctx, user, "ws1", "home", "", navigation.Budget{}, navigation.Preview{})
	require.NoError(t, err)
	require.NotNil(t, second.Next)
	assert.True(t, first.Next.ID.Equals(second.Next.ID))
	assert.Empty(t, second.Trace)

	hits, _, _ := f.cache.Stats()
	assert.Positive(t, hits)
}

func TestNextNode_InvalidateUserForcesReroute(t *testing.T) {
	f := newFixture(t, services.DefaultRoutingDefaults())
	start := f.seed("home")
	target := f.seed("next-stop")
	f.repo.AddManualTransition(start.ID, target.ID, 1.0, time.Now())

	user := &entities.User{ID: "u1", WorkspaceID: "ws1"}
	ctx := context.Background()

	_, err := f.nav.NextNode(ctx, user, "ws1", "home", "", navigation.Budget{}, navigation.Preview{})
	require.NoError(t, err)

	require.NoError(t, f.nav.InvalidateUser(ctx, user.ID))

	keys, err := f.cache.Scan(ctx, "nav:u1:*")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestNextNode_PreviewLeavesSessionAndCacheUntouched(t *testing.T) {
	f := newFixture(t, services.DefaultRoutingDefaults())
	start := f.seed("home")
	target := f.seed("next-stop")
	f.repo.AddManualTransition(start.ID, target.ID, 1.0, time.Now())

	user := &entities.User{ID: "u1", WorkspaceID: "ws1"}
	ctx := context.Background()
	preview := navigation.Preview{Mode: navigation.PreviewReadOnly}

	result, err := f.nav.NextNode(ctx, user, "ws1", "home", "", navigation.Budget{}, preview)
	require.NoError(t, err)
	require.NotNil(t, result.Next)

	keys, err := f.cache.Scan(ctx, "nav:u1:*")
	require.NoError(t, err)
	assert.Empty(t, keys)

	// A later live call still sees the target as fresh: the preview did
	// not advance the session history.
	live, err := f.nav.NextNode(ctx, user, "ws1", "home", "", navigation.Budget{}, navigation.Preview{})
	require.NoError(t, err)
	require.NotNil(t, live.Next)
	assert.True(t, live.Next.ID.Equals(target.ID))
	assert.NotEmpty(t, live.Trace)
}

func TestNextNode_ModeRequestsEchoTrail(t *testing.T) {
	defaults := services.DefaultRoutingDefaults()
	defaults.ResultTTL = 0
	f := newFixture(t, defaults)

	start := f.seed("home")
	manualTarget := f.seed("manual-pick")
	echoTarget := f.seed("echo-pick")
	f.repo.AddManualTransition(start.ID, manualTarget.ID, 1.0, time.Now())
	f.repo.AddEchoTransition(start.ID, echoTarget.ID, 7)

	user := &entities.User{ID: "u1", WorkspaceID: "ws1"}
	result, err := f.nav.NextNode(context.Background(), user, "ws1", "home", navigation.ProviderEcho, navigation.Budget{}, navigation.Preview{})
	require.NoError(t, err)

	require.NotNil(t, result.Next)
	assert.True(t, result.Next.ID.Equals(echoTarget.ID))
	assert.Equal(t, navigation.ProviderEcho, result.Trace[0].Policy)
}

func TestNextNode_SessionHistoryCarriesAcrossCalls(t *testing.T) {
	defaults := services.DefaultRoutingDefaults()
	defaults.ResultTTL = 0
	f := newFixture(t, defaults)

	start := f.seed("home")
	only := f.seed("only-link")
	f.repo.AddManualTransition(start.ID, only.ID, 1.0, time.Now())

	user := &entities.User{ID: "u1", WorkspaceID: "ws1"}
	ctx := context.Background()

	first, err := f.nav.NextNode(ctx, user, "ws1", "home", "", navigation.Budget{}, navigation.Preview{})
	require.NoError(t, err)
	require.NotNil(t, first.Next)

	// The only reachable target is now in the session history, so the same
	// request yields no route instead of a loop.
	second, err := f.nav.NextNode(ctx, user, "ws1", "home", "", navigation.Budget{}, navigation.Preview{})
	require.NoError(t, err)
	assert.Nil(t, second.Next)
	assert.Equal(t, navigation.ReasonNoRoute, second.Reason)
}
