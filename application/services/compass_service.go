package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"wayfinder-backend/application/ports"
	"wayfinder-backend/domain/core/entities"
	"wayfinder-backend/domain/core/valueobjects"
	"wayfinder-backend/domain/navigation"
	pkgerrors "wayfinder-backend/pkg/errors"

	"go.uber.org/zap"
)

// Blended score weights: embedding similarity dominates, tag overlap and
// rarity keep suggestions on-theme without always chasing the popular
// neighborhood.
const (
	similarityWeight = 0.5
	overlapWeight    = 0.2
	rarityWeight     = 0.3

	// surpriseSimCeiling marks the "low similarity but thematically
	// related" band that feeds the surprise injection.
	surpriseSimCeiling = 0.3
)

// CompassConfig bounds the similarity search and result caching.
type CompassConfig struct {
	// TopKDB caps candidates fetched from the vector search.
	TopKDB int
	// TopKResult caps the final suggestion list regardless of the
	// caller's limit.
	TopKResult int
	// CacheTTL bounds staleness of memoized suggestion lists.
	CacheTTL time.Duration
}

// DefaultCompassConfig returns the production defaults.
func DefaultCompassConfig() CompassConfig {
	return CompassConfig{
		TopKDB:     50,
		TopKResult: 10,
		CacheTTL:   5 * time.Minute,
	}
}

// CompassService produces ranked "interesting next node" candidates from
// embedding cosine similarity blended with tag overlap and rarity, plus a
// controlled surprise injection. Results are cached per (user, node,
// limit) because the similarity search is the expensive part of routing.
type CompassService struct {
	nodes    ports.NodeReader
	access   ports.AccessPolicy
	cache    ports.Cache
	index    ports.EmbeddingIndex
	embedder ports.Embedder
	cfg      CompassConfig
	logger   *zap.Logger
}

// NewCompassService creates a compass service.
func NewCompassService(
	nodes ports.NodeReader,
	access ports.AccessPolicy,
	cache ports.Cache,
	index ports.EmbeddingIndex,
	embedder ports.Embedder,
	cfg CompassConfig,
	logger *zap.Logger,
) *CompassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompassService{
		nodes:    nodes,
		access:   access,
		cache:    cache,
		index:    index,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger,
	}
}

// CompassCandidates implements navigation.CompassSource.
func (s *CompassService) CompassCandidates(ctx context.Context, node *entities.Node, user *entities.User, limit int, preview navigation.Preview) ([]*entities.Node, error) {
	return s.GetCompassNodes(ctx, user, node, limit, preview)
}

// GetCompassNodes returns up to min(limit, TopKResult) suggested nodes.
//
// The cached candidate list may reference nodes no longer visible to the
// current user, so every cache hit is re-validated against the access
// predicate before use.
func (s *CompassService) GetCompassNodes(ctx context.Context, user *entities.User, node *entities.Node, limit int, preview navigation.Preview) ([]*entities.Node, error) {
	if err := s.ensureEmbedding(ctx, node); err != nil {
		return nil, err
	}

	resultCap := limit
	if resultCap > s.cfg.TopKResult {
		resultCap = s.cfg.TopKResult
	}
	if resultCap <= 0 {
		return nil, nil
	}

	key := s.cacheKey(user, node, limit)
	if cached, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		nodes, err := s.revalidate(ctx, cached, user, resultCap, preview)
		if err == nil {
			return nodes, nil
		}
		s.logger.Warn("compass cache entry unusable, recomputing",
			zap.String("key", key), zap.Error(err))
	}

	visited, err := s.nodes.VisitedByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.nearest(ctx, node)
	if err != nil {
		return nil, err
	}

	rng := s.newRNG(preview)
	type scored struct {
		node     *entities.Node
		sim      float64
		score    float64
		surprise bool
	}
	pool := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		if c.Node.ID.Equals(node.ID) {
			continue
		}
		if _, seen := visited[c.Node.ID.String()]; seen {
			continue
		}
		if !c.Node.IsNavigable() {
			continue
		}
		if !s.access.HasAccess(c.Node, user, preview) {
			continue
		}

		sim := 1 - c.Distance
		overlap := node.TagOverlap(c.Node)
		rarity := 1 / (1 + c.Node.PopularityScore)
		deviationBoost := 0.9 + rng.Float64()*0.2
		score := (sim*similarityWeight + float64(overlap)*overlapWeight + rarity*rarityWeight) * deviationBoost

		pool = append(pool, scored{
			node:     c.Node,
			sim:      sim,
			score:    score,
			surprise: overlap > 0 && sim < surpriseSimCeiling,
		})
	}

	sort.SliceStable(pool, func(i, j int) bool { return pool[i].score > pool[j].score })

	result := make([]*entities.Node, 0, resultCap)
	for _, sc := range pool {
		if len(result) == resultCap {
			break
		}
		result = append(result, sc.node)
	}

	var surprises []*entities.Node
	for _, sc := range pool {
		if sc.surprise {
			surprises = append(surprises, sc.node)
		}
	}
	result = spliceSurprise(result, surprises, resultCap, rng)

	if err := s.memoize(ctx, key, result); err != nil {
		s.logger.Warn("compass cache write failed", zap.String("key", key), zap.Error(err))
	}

	s.logger.Debug("compass candidates computed",
		zap.String("nodeID", node.ID.String()),
		zap.Int("pool", len(pool)),
		zap.Int("result", len(result)),
	)
	return result, nil
}

// ensureEmbedding computes and persists the node's embedding if missing.
func (s *CompassService) ensureEmbedding(ctx context.Context, node *entities.Node) error {
	if len(node.Embedding) > 0 {
		return nil
	}
	vector, err := s.embedder.Embed(ctx, node)
	if err != nil {
		return err
	}
	if err := s.nodes.SaveEmbedding(ctx, node.ID, vector); err != nil {
		return err
	}
	node.Embedding = vector
	return nil
}

// nearest fetches up to TopKDB candidates by vector distance, falling back
// to an in-process scan over recommendable nodes when the index declines.
func (s *CompassService) nearest(ctx context.Context, node *entities.Node) ([]ports.ScoredNode, error) {
	scored, err := s.index.Nearest(ctx, node.Embedding, s.cfg.TopKDB, node.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if scored != nil {
		return scored, nil
	}

	pool, err := s.nodes.Recommendable(ctx, node.WorkspaceID)
	if err != nil {
		return nil, err
	}
	scored = make([]ports.ScoredNode, 0, len(pool))
	for _, candidate := range pool {
		if len(candidate.Embedding) == 0 {
			continue
		}
		scored = append(scored, ports.ScoredNode{
			Node:     candidate,
			Distance: 1 - navigation.Cosine(node.Embedding, candidate.Embedding),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Distance < scored[j].Distance })
	if len(scored) > s.cfg.TopKDB {
		scored = scored[:s.cfg.TopKDB]
	}
	return scored, nil
}

// spliceSurprise inserts exactly one random surprise at a random position,
// dropping the tail element if the list would exceed maxLen. Surprises
// already in the list are left alone.
func spliceSurprise(result []*entities.Node, surprises []*entities.Node, maxLen int, rng *rand.Rand) []*entities.Node {
	if len(surprises) == 0 {
		return result
	}
	pick := surprises[rng.Intn(len(surprises))]
	for _, n := range result {
		if n.ID.Equals(pick.ID) {
			return result
		}
	}
	pos := rng.Intn(len(result) + 1)
	result = append(result, nil)
	copy(result[pos+1:], result[pos:])
	result[pos] = pick
	if len(result) > maxLen {
		result = result[:maxLen]
	}
	return result
}

// revalidate resolves a cached identifier list, dropping entries the
// current user can no longer see.
func (s *CompassService) revalidate(ctx context.Context, cached string, user *entities.User, maxLen int, preview navigation.Preview) ([]*entities.Node, error) {
	var ids []string
	if err := json.Unmarshal([]byte(cached), &ids); err != nil {
		return nil, err
	}
	nodes := make([]*entities.Node, 0, len(ids))
	for _, raw := range ids {
		if len(nodes) == maxLen {
			break
		}
		id, err := valueobjects.NewNodeIDFromString(raw)
		if err != nil {
			return nil, err
		}
		node, err := s.nodes.GetByID(ctx, id)
		if err != nil {
			if pkgerrors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if !s.access.HasAccess(node, user, preview) {
			continue
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func (s *CompassService) memoize(ctx context.Context, key string, nodes []*entities.Node) error {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID.String()
	}
	payload, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, string(payload), s.cfg.CacheTTL)
}

func (s *CompassService) cacheKey(user *entities.User, node *entities.Node, limit int) string {
	userKey := "anon"
	if user != nil && user.ID != "" {
		userKey = user.ID
	}
	return fmt.Sprintf("compass:%s:%s:%d", userKey, node.ID.String(), limit)
}

// newRNG builds the per-call jitter source, seeded from the preview when a
// seed is supplied so preview routing reproduces exactly.
func (s *CompassService) newRNG(preview navigation.Preview) *rand.Rand {
	if preview.Seed != nil {
		return rand.New(rand.NewSource(*preview.Seed))
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
