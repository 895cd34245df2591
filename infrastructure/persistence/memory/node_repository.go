// Package memory provides the in-memory NodeReader adapter used for local
// development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"wayfinder-backend/domain/core/entities"
	"wayfinder-backend/domain/core/valueobjects"
	pkgerrors "wayfinder-backend/pkg/errors"
)

// NodeRepository is a thread-safe in-memory implementation of the
// NodeReader port, with seed helpers for wiring up fixtures.
type NodeRepository struct {
	mu      sync.RWMutex
	nodes   map[string]*entities.Node
	manual  map[string][]*entities.Transition
	echo    map[string][]echoEdge
	visited map[string]map[string]struct{}
}

type echoEdge struct {
	targetID string
	count    int
}

// NewNodeRepository creates an empty repository.
func NewNodeRepository() *NodeRepository {
	return &NodeRepository{
		nodes:   make(map[string]*entities.Node),
		manual:  make(map[string][]*entities.Transition),
		echo:    make(map[string][]echoEdge),
		visited: make(map[string]map[string]struct{}),
	}
}

// AddNode seeds a node.
func (r *NodeRepository) AddNode(node *entities.Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[node.ID.String()] = node
}

// AddManualTransition seeds an editor-authored edge. Edges are kept in
// authoring order.
func (r *NodeRepository) AddManualTransition(from valueobjects.NodeID, to valueobjects.NodeID, weight float64, createdAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manual[from.String()] = append(r.manual[from.String()], &entities.Transition{
		SourceID:  from,
		Target:    r.nodes[to.String()],
		Weight:    weight,
		CreatedAt: createdAt,
	})
}

// AddEchoTransition seeds a collaborative trail edge with a travel count.
func (r *NodeRepository) AddEchoTransition(from, to valueobjects.NodeID, count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.echo[from.String()] = append(r.echo[from.String()], echoEdge{targetID: to.String(), count: count})
}

// MarkVisited seeds a user's echo trail membership.
func (r *NodeRepository) MarkVisited(userID string, nodeID valueobjects.NodeID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.visited[userID] == nil {
		r.visited[userID] = make(map[string]struct{})
	}
	r.visited[userID][nodeID.String()] = struct{}{}
}

// GetByID implements ports.NodeReader.
func (r *NodeRepository) GetByID(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	node, ok := r.nodes[id.String()]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("node")
	}
	clone := *node
	return &clone, nil
}

// GetBySlug implements ports.NodeReader.
func (r *NodeRepository) GetBySlug(ctx context.Context, scope, slug string) (*entities.Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, node := range r.nodes {
		if node.WorkspaceID == scope && node.Slug == slug {
			clone := *node
			return &clone, nil
		}
	}
	return nil, pkgerrors.NewNotFoundError("node")
}

// ManualTransitions implements ports.NodeReader.
func (r *NodeRepository) ManualTransitions(ctx context.Context, scope string, from valueobjects.NodeID) ([]*entities.Transition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	edges := r.manual[from.String()]
	out := make([]*entities.Transition, 0, len(edges))
	for _, edge := range edges {
		if edge.Target == nil || edge.Target.WorkspaceID != scope {
			continue
		}
		target := *edge.Target
		out = append(out, &entities.Transition{
			SourceID:  edge.SourceID,
			Target:    &target,
			Weight:    edge.Weight,
			CreatedAt: edge.CreatedAt,
		})
	}
	return out, nil
}

// EchoTransitions implements ports.NodeReader: most traveled first.
func (r *NodeRepository) EchoTransitions(ctx context.Context, scope string, from valueobjects.NodeID, limit int) ([]*entities.Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	edges := append([]echoEdge(nil), r.echo[from.String()]...)
	sort.SliceStable(edges, func(i, j int) bool { return edges[i].count > edges[j].count })

	out := make([]*entities.Node, 0, len(edges))
	for _, edge := range edges {
		if limit > 0 && len(out) == limit {
			break
		}
		node, ok := r.nodes[edge.targetID]
		if !ok || node.WorkspaceID != scope {
			continue
		}
		clone := *node
		out = append(out, &clone)
	}
	return out, nil
}

// Recommendable implements ports.NodeReader: navigable nodes in identifier
// order so scans are deterministic.
func (r *NodeRepository) Recommendable(ctx context.Context, scope string) ([]*entities.Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entities.Node
	for _, node := range r.nodes {
		if node.WorkspaceID != scope || !node.IsNavigable() {
			continue
		}
		clone := *node
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

// VisitedByUser implements ports.NodeReader.
func (r *NodeRepository) VisitedByUser(ctx context.Context, userID string) (map[string]struct{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]struct{}, len(r.visited[userID]))
	for id := range r.visited[userID] {
		out[id] = struct{}{}
	}
	return out, nil
}

// SaveEmbedding implements ports.NodeReader.
func (r *NodeRepository) SaveEmbedding(ctx context.Context, id valueobjects.NodeID, vector []float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	node, ok := r.nodes[id.String()]
	if !ok {
		return pkgerrors.NewNotFoundError("node")
	}
	node.Embedding = append([]float32(nil), vector...)
	return nil
}
