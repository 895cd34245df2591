package services

import (
	"context"

	"wayfinder-backend/application/ports"
	"wayfinder-backend/domain/core/entities"
	"wayfinder-backend/domain/navigation"

	"go.uber.org/zap"
)

// EchoService feeds the echo provider with nodes reached via recorded
// collaborative trails from the current node.
type EchoService struct {
	nodes  ports.NodeReader
	access ports.AccessPolicy
	logger *zap.Logger
}

// NewEchoService creates an echo trail service.
func NewEchoService(nodes ports.NodeReader, access ports.AccessPolicy, logger *zap.Logger) *EchoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EchoService{nodes: nodes, access: access, logger: logger}
}

// EchoCandidates implements navigation.EchoSource. Trail order (most
// traveled first) is preserved; the limit caps storage fan-out, access
// filtering happens after.
func (s *EchoService) EchoCandidates(ctx context.Context, node *entities.Node, user *entities.User, scope string, limit int, preview navigation.Preview) ([]*entities.Node, error) {
	trail, err := s.nodes.EchoTransitions(ctx, scope, node.ID, limit)
	if err != nil {
		return nil, err
	}

	candidates := make([]*entities.Node, 0, len(trail))
	for _, candidate := range trail {
		if candidate.ID.Equals(node.ID) {
			continue
		}
		if !s.access.HasAccess(candidate, user, preview) {
			continue
		}
		candidates = append(candidates, candidate)
	}

	s.logger.Debug("echo transitions fetched",
		zap.String("nodeID", node.ID.String()),
		zap.Int("trail", len(trail)),
		zap.Int("eligible", len(candidates)),
	)
	return candidates, nil
}
