// Package embedding provides the similarity-search adapters behind the
// EmbeddingIndex and Embedder ports.
package embedding

import (
	"context"
	"sort"

	"wayfinder-backend/application/ports"
	"wayfinder-backend/domain/navigation"

	"go.uber.org/zap"
)

// ScanIndex implements nearest-neighbor search by scanning every
// recommendable node with an embedding and ranking by cosine distance
// in-process. It is exact rather than approximate; adequate for workspaces
// up to a few tens of thousands of nodes.
type ScanIndex struct {
	nodes  ports.NodeReader
	logger *zap.Logger
}

// NewScanIndex creates a scanning index over the node reader.
func NewScanIndex(nodes ports.NodeReader, logger *zap.Logger) *ScanIndex {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScanIndex{nodes: nodes, logger: logger}
}

// Nearest returns the k nodes closest to the vector within the scope.
func (i *ScanIndex) Nearest(ctx context.Context, vector []float32, k int, scope string) ([]ports.ScoredNode, error) {
	pool, err := i.nodes.Recommendable(ctx, scope)
	if err != nil {
		return nil, err
	}

	scored := make([]ports.ScoredNode, 0, len(pool))
	for _, node := range pool {
		if len(node.Embedding) == 0 {
			continue
		}
		scored = append(scored, ports.ScoredNode{
			Node:     node,
			Distance: 1 - navigation.Cosine(vector, node.Embedding),
		})
	}
	sort.SliceStable(scored, func(a, b int) bool { return scored[a].Distance < scored[b].Distance })
	if len(scored) > k {
		scored = scored[:k]
	}

	i.logger.Debug("scan index query",
		zap.String("scope", scope),
		zap.Int("pool", len(pool)),
		zap.Int("returned", len(scored)),
	)
	return scored, nil
}
