package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"wayfinder-backend/application/ports"
	"wayfinder-backend/domain/core/entities"
	"wayfinder-backend/domain/core/valueobjects"
	"wayfinder-backend/domain/events"
	"wayfinder-backend/domain/navigation"
	pkgerrors "wayfinder-backend/pkg/errors"

	"go.uber.org/zap"
)

// RoutingDefaults are the host-level routing knobs. They can be replaced
// at runtime via UpdateDefaults (the config watcher calls it); sessions
// created after the update pick up the new values.
type RoutingDefaults struct {
	Router       navigation.Config
	Budget       navigation.Budget
	CompassLimit int
	EchoLimit    int

	// ResultTTL bounds navigation-result memoization; zero disables it.
	ResultTTL time.Duration
}

// DefaultRoutingDefaults returns the production routing defaults.
func DefaultRoutingDefaults() RoutingDefaults {
	return RoutingDefaults{
		Router: navigation.DefaultConfig(),
		Budget: navigation.Budget{
			MaxTimeMS:  500,
			MaxQueries: 8,
			MaxFilters: 200,
		},
		CompassLimit: 5,
		EchoLimit:    10,
		ResultTTL:    30 * time.Second,
	}
}

// NavigationService is the entry point for "what does the user see next".
// It owns one TransitionRouter per (user, workspace) session, serializing
// access per session so the router's single-writer discipline holds, and
// memoizes non-preview results in the shared cache.
type NavigationService struct {
	nodes   ports.NodeReader
	cache   ports.Cache
	bus     ports.EventBus
	metrics navigation.MetricsSink

	manual  *TransitionsService
	compass *CompassService
	echo    *EchoService
	explore *ExploreService

	mu       sync.Mutex
	defaults RoutingDefaults
	sessions map[string]*routingSession

	logger *zap.Logger
}

type routingSession struct {
	mu     sync.Mutex
	router *navigation.TransitionRouter
}

// NewNavigationService wires the navigation entry point.
func NewNavigationService(
	nodes ports.NodeReader,
	cache ports.Cache,
	bus ports.EventBus,
	metrics navigation.MetricsSink,
	manual *TransitionsService,
	compass *CompassService,
	echo *EchoService,
	explore *ExploreService,
	defaults RoutingDefaults,
	logger *zap.Logger,
) *NavigationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = navigation.NopMetrics{}
	}
	return &NavigationService{
		nodes:    nodes,
		cache:    cache,
		bus:      bus,
		metrics:  metrics,
		manual:   manual,
		compass:  compass,
		echo:     echo,
		explore:  explore,
		defaults: defaults,
		sessions: make(map[string]*routingSession),
		logger:   logger,
	}
}

// memoizedResult is the cached shape of a routing decision.
type memoizedResult struct {
	NextID string `json:"next_id,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// NextNode routes from the node identified by slug. A zero-value budget is
// replaced with the configured default. Routing-domain outcomes come back
// on the result; only infrastructure failures are returned as errors.
func (s *NavigationService) NextNode(ctx context.Context, user *entities.User, scope, slug string, mode navigation.ProviderKind, budget navigation.Budget, preview navigation.Preview) (*navigation.TransitionResult, error) {
	start, err := s.nodes.GetBySlug(ctx, scope, slug)
	if err != nil {
		return nil, err
	}

	defaults := s.currentDefaults()
	if budgetEmpty(budget) {
		budget = defaults.Budget
	}

	cacheKey := fmt.Sprintf("nav:%s:%s:%s", user.ID, slug, mode)
	if preview.Live() && defaults.ResultTTL > 0 {
		if result, ok := s.fromCache(ctx, cacheKey, user, preview); ok {
			return result, nil
		}
	}

	session := s.session(user, scope, defaults)
	session.mu.Lock()
	result, err := session.router.Route(ctx, start, user, budget, mode, preview)
	session.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.publish(ctx, user, start, result, mode)

	if preview.Live() && defaults.ResultTTL > 0 {
		s.memoize(ctx, cacheKey, result, defaults.ResultTTL)
	}
	return result, nil
}

// InvalidateUser drops all memoized navigation results for a user, e.g.
// after their entitlements changed.
func (s *NavigationService) InvalidateUser(ctx context.Context, userID string) error {
	keys, err := s.cache.Scan(ctx, "nav:"+userID+":*")
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.cache.Delete(ctx, keys...)
}

// UpdateDefaults swaps the routing defaults. Existing sessions keep their
// router (history and filter state must survive a config reload); new
// sessions use the new configuration.
func (s *NavigationService) UpdateDefaults(defaults RoutingDefaults) {
	s.mu.Lock()
	s.defaults = defaults
	s.mu.Unlock()
	s.logger.Info("routing defaults updated",
		zap.Any("policyOrder", defaults.Router.PolicyOrder),
		zap.Int64("maxTimeMS", defaults.Budget.MaxTimeMS),
	)
}

func (s *NavigationService) currentDefaults() RoutingDefaults {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.defaults
}

// session returns the router session for (user, workspace), creating it
// on first use.
func (s *NavigationService) session(user *entities.User, scope string, defaults RoutingDefaults) *routingSession {
	key := user.ID + "|" + scope
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[key]; ok {
		return session
	}
	session := &routingSession{router: s.newRouter(defaults)}
	s.sessions[key] = session
	return session
}

// newRouter builds the policy chain for a fresh session. Each random
// policy/provider pair owns its RNG; the initial seed is time-based and is
// overridden per call when a preview seed is supplied.
func (s *NavigationService) newRouter(defaults RoutingDefaults) *navigation.TransitionRouter {
	seed := time.Now().UnixNano()
	policies := []*navigation.Policy{
		navigation.NewPolicy(navigation.NewManualProvider(s.manual), seed),
		navigation.NewPolicy(navigation.NewCompassProvider(s.compass, defaults.CompassLimit), seed),
		navigation.NewPolicy(navigation.NewEchoProvider(s.echo, defaults.EchoLimit), seed),
		navigation.NewPolicy(navigation.NewRandomProvider(s.explore, seed), seed),
	}
	return navigation.NewTransitionRouter(defaults.Router, policies, s.metrics)
}

// publish emits the routing outcome as a fire-and-forget event: failures
// are logged and never affect the result.
func (s *NavigationService) publish(ctx context.Context, user *entities.User, start *entities.Node, result *navigation.TransitionResult, mode navigation.ProviderKind) {
	if s.bus == nil {
		return
	}
	var event events.DomainEvent
	if result.Next != nil {
		policy := mode
		if len(result.Trace) > 0 {
			policy = result.Trace[len(result.Trace)-1].Policy
		}
		event = events.NewTransitionRouted(
			user.ID, start.WorkspaceID,
			start.ID.String(), result.Next.ID.String(),
			string(policy), result.Metrics.FallbackUsed, time.Now(),
		)
	} else {
		event = events.NewTransitionNoRoute(
			user.ID, start.WorkspaceID,
			start.ID.String(), string(result.Reason), time.Now(),
		)
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Warn("navigation event publish failed",
			zap.String("eventType", event.GetEventType()),
			zap.Error(err),
		)
	}
}

func (s *NavigationService) fromCache(ctx context.Context, key string, user *entities.User, preview navigation.Preview) (*navigation.TransitionResult, bool) {
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	var memo memoizedResult
	if err := json.Unmarshal([]byte(raw), &memo); err != nil {
		return nil, false
	}
	result := &navigation.TransitionResult{Reason: navigation.NoRouteReason(memo.Reason)}
	if memo.NextID != "" {
		id, err := valueobjects.NewNodeIDFromString(memo.NextID)
		if err != nil {
			return nil, false
		}
		node, err := s.nodes.GetByID(ctx, id)
		if err != nil || node == nil {
			if err != nil && !pkgerrors.IsNotFound(err) {
				s.logger.Warn("memoized node lookup failed", zap.String("key", key), zap.Error(err))
			}
			return nil, false
		}
		result.Next = node
	}
	return result, true
}

func (s *NavigationService) memoize(ctx context.Context, key string, result *navigation.TransitionResult, ttl time.Duration) {
	memo := memoizedResult{Reason: string(result.Reason)}
	if result.Next != nil {
		memo.NextID = result.Next.ID.String()
	}
	payload, err := json.Marshal(memo)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(payload), ttl); err != nil {
		s.logger.Warn("navigation result cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func budgetEmpty(b navigation.Budget) bool {
	return b.MaxTimeMS == 0 && b.MaxQueries == 0 && b.MaxFilters == 0 && len(b.FallbackChain) == 0
}
