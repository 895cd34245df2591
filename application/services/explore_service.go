package services

import (
	"context"

	"wayfinder-backend/application/ports"
	"wayfinder-backend/domain/core/entities"
	"wayfinder-backend/domain/navigation"

	"go.uber.org/zap"
)

// ExploreService feeds the random provider with the pool of
// exploration-eligible nodes; the provider itself makes the uniform pick.
type ExploreService struct {
	nodes  ports.NodeReader
	access ports.AccessPolicy
	logger *zap.Logger
}

// NewExploreService creates an exploration pool service.
func NewExploreService(nodes ports.NodeReader, access ports.AccessPolicy, logger *zap.Logger) *ExploreService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExploreService{nodes: nodes, access: access, logger: logger}
}

// RandomCandidates implements navigation.RandomSource: every navigable
// node in scope other than the current one that passes the access
// predicate, in deterministic (identifier) order so seeded picks
// reproduce.
func (s *ExploreService) RandomCandidates(ctx context.Context, node *entities.Node, user *entities.User, scope string, preview navigation.Preview) ([]*entities.Node, error) {
	pool, err := s.nodes.Recommendable(ctx, scope)
	if err != nil {
		return nil, err
	}

	eligible := make([]*entities.Node, 0, len(pool))
	for _, candidate := range pool {
		if candidate.ID.Equals(node.ID) {
			continue
		}
		if !s.access.HasAccess(candidate, user, preview) {
			continue
		}
		eligible = append(eligible, candidate)
	}

	s.logger.Debug("exploration pool fetched",
		zap.String("scope", scope),
		zap.Int("pool", len(pool)),
		zap.Int("eligible", len(eligible)),
	)
	return eligible, nil
}
