package ports

import (
	"context"
	"time"

	"wayfinder-backend/domain/core/entities"
	"wayfinder-backend/domain/core/valueobjects"
	"wayfinder-backend/domain/events"
	"wayfinder-backend/domain/navigation"
)

// NodeReader is the node lookup/query port the navigation subsystem
// consumes. The router never writes nodes; the single write method exists
// so a freshly computed embedding can be persisted for reuse.
type NodeReader interface {
	// GetByID retrieves a node by its identifier.
	GetByID(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error)

	// GetBySlug retrieves a node by slug within a workspace scope.
	GetBySlug(ctx context.Context, scope, slug string) (*entities.Node, error)

	// ManualTransitions returns the editor-authored outgoing edges of a
	// node, in authoring order, with targets resolved.
	ManualTransitions(ctx context.Context, scope string, from valueobjects.NodeID) ([]*entities.Transition, error)

	// EchoTransitions returns nodes reached via recorded collaborative
	// trails from the given node, most traveled first, capped at limit.
	EchoTransitions(ctx context.Context, scope string, from valueobjects.NodeID, limit int) ([]*entities.Node, error)

	// Recommendable returns all visible, public, recommendable nodes in
	// the workspace, ordered by identifier for deterministic scans.
	Recommendable(ctx context.Context, scope string) ([]*entities.Node, error)

	// VisitedByUser returns the identifiers on the user's echo trail.
	VisitedByUser(ctx context.Context, userID string) (map[string]struct{}, error)

	// SaveEmbedding persists a computed embedding vector for a node.
	SaveEmbedding(ctx context.Context, id valueobjects.NodeID, vector []float32) error
}

// AccessPolicy is the user-access predicate port; see the domain service
// of the same name for the default implementation.
type AccessPolicy interface {
	HasAccess(node *entities.Node, user *entities.User, preview navigation.Preview) bool
}

// Cache is the key-value port used for compass memoization and
// navigation-result memoization. Implementations must be safe for
// concurrent readers; same-key writes are last-write-wins.
type Cache interface {
	// Get returns the value and whether the key was present and live.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores a value with a TTL.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes the given keys; missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Scan returns the live keys matching a glob-style pattern.
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// ScoredNode pairs a node with its vector distance from a query.
type ScoredNode struct {
	Node     *entities.Node
	Distance float64
}

// EmbeddingIndex is the similarity-search port. Nearest may return a nil
// slice with a nil error to signal "no index available, fall back to a
// full scan".
type EmbeddingIndex interface {
	Nearest(ctx context.Context, vector []float32, k int, scope string) ([]ScoredNode, error)
}

// Embedder computes an embedding vector for a node's content.
type Embedder interface {
	Embed(ctx context.Context, node *entities.Node) ([]float32, error)
}

// EventBus publishes navigation events. Publishing is fire-and-forget for
// callers: failures are logged, never surfaced into routing results.
type EventBus interface {
	Publish(ctx context.Context, event events.DomainEvent) error
}
