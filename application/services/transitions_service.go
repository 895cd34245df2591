package services

import (
	"context"
	"sort"

	"wayfinder-backend/application/ports"
	"wayfinder-backend/domain/core/entities"
	"wayfinder-backend/domain/navigation"

	"go.uber.org/zap"
)

// TransitionsService feeds the manual provider: it fetches editor-authored
// edges and orders them by weight (descending) with newest-first tiebreak,
// so the first candidate is the strongest editorial suggestion.
type TransitionsService struct {
	nodes  ports.NodeReader
	access ports.AccessPolicy
	logger *zap.Logger
}

// NewTransitionsService creates a manual transitions service.
func NewTransitionsService(nodes ports.NodeReader, access ports.AccessPolicy, logger *zap.Logger) *TransitionsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransitionsService{nodes: nodes, access: access, logger: logger}
}

// ManualCandidates implements navigation.ManualSource. The edge weight is
// copied onto each candidate so downstream consumers can see the ordering
// signal. Authoring order is preserved for equal weight and creation time
// via a stable sort.
func (s *TransitionsService) ManualCandidates(ctx context.Context, node *entities.Node, user *entities.User, scope string, preview navigation.Preview) ([]*entities.Node, error) {
	edges, err := s.nodes.ManualTransitions(ctx, scope, node.ID)
	if err != nil {
		return nil, err
	}

	eligible := make([]*entities.Transition, 0, len(edges))
	for _, edge := range edges {
		if edge.Target == nil {
			continue
		}
		if !s.access.HasAccess(edge.Target, user, preview) {
			continue
		}
		eligible = append(eligible, edge)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].Weight != eligible[j].Weight {
			return eligible[i].Weight > eligible[j].Weight
		}
		return eligible[i].CreatedAt.After(eligible[j].CreatedAt)
	})

	candidates := make([]*entities.Node, 0, len(eligible))
	for _, edge := range eligible {
		target := *edge.Target
		target.Weight = edge.Weight
		candidates = append(candidates, &target)
	}

	s.logger.Debug("manual transitions fetched",
		zap.String("nodeID", node.ID.String()),
		zap.Int("edges", len(edges)),
		zap.Int("eligible", len(candidates)),
	)
	return candidates, nil
}
