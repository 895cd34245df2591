package navigation

import (
	"math"

	"wayfinder-backend/domain/core/entities"
)

// RepeatFilter penalizes candidates that reuse recently seen tags or
// sources and hard-excludes nodes already visited too often this session.
// It lives for the duration of one navigation session and is never
// persisted.
type RepeatFilter struct {
	window    int
	threshold float64
	decay     float64
	maxVisits int

	tagHistory   []string
	tagCounts    map[string]int
	srcHistory   []string
	srcCounts    map[string]int
	visitCounts  map[string]int
}

// NewRepeatFilter creates a repeat filter.
//
// window sizes the tag/source sliding window; zero disables tag/source
// scoring entirely. threshold is the minimum acceptable score. decay is the
// per-repeat multiplicative penalty in (0,1]. maxVisits hard-excludes a
// node once its session visit count reaches it; zero means unlimited.
func NewRepeatFilter(window int, threshold, decay float64, maxVisits int) *RepeatFilter {
	return &RepeatFilter{
		window:      window,
		threshold:   threshold,
		decay:       decay,
		maxVisits:   maxVisits,
		tagCounts:   make(map[string]int),
		srcCounts:   make(map[string]int),
		visitCounts: make(map[string]int),
	}
}

// Update records a visit: bumps the node's visit count and pushes its tags
// and source into the sliding windows.
func (f *RepeatFilter) Update(node *entities.Node) {
	if node == nil {
		return
	}
	f.visitCounts[node.ID.String()]++
	if f.window <= 0 {
		return
	}
	for _, tag := range node.Tags {
		f.tagHistory, f.tagCounts = push(f.tagHistory, f.tagCounts, tag, f.window)
	}
	if node.Source != "" {
		f.srcHistory, f.srcCounts = push(f.srcHistory, f.srcCounts, node.Source, f.window)
	}
}

// push appends value to the window, evicting the oldest entry once over
// capacity. An evicted value's count is removed from the map when it
// reaches zero so the invariant sum(counts) == len(history) holds.
func push(history []string, counts map[string]int, value string, window int) ([]string, map[string]int) {
	history = append(history, value)
	counts[value]++
	if len(history) > window {
		oldest := history[0]
		history = history[1:]
		counts[oldest]--
		if counts[oldest] <= 0 {
			delete(counts, oldest)
		}
	}
	return history, counts
}

// score computes the node's repeat score: for each tag and for the source,
// the contribution is decay^count; the aggregate is the minimum across all
// contributions so the worst-case signal dominates. A node with no tags
// and no source scores 1.0.
func (f *RepeatFilter) score(node *entities.Node) float64 {
	score := 1.0
	for _, tag := range node.Tags {
		if c := math.Pow(f.decay, float64(f.tagCounts[tag])); c < score {
			score = c
		}
	}
	if node.Source != "" {
		if c := math.Pow(f.decay, float64(f.srcCounts[node.Source])); c < score {
			score = c
		}
	}
	return score
}

// Filter splits candidates into allowed and filtered, preserving input
// order. A candidate is filtered when its visit count has reached
// maxVisits, or when the window is enabled and its score falls below the
// threshold. Returns the allowed nodes and the filtered identifiers.
func (f *RepeatFilter) Filter(nodes []*entities.Node) ([]*entities.Node, []string) {
	allowed := make([]*entities.Node, 0, len(nodes))
	var filtered []string
	for _, node := range nodes {
		if f.maxVisits > 0 && f.visitCounts[node.ID.String()] >= f.maxVisits {
			filtered = append(filtered, node.ID.String())
			continue
		}
		if f.window > 0 && f.score(node) < f.threshold {
			filtered = append(filtered, node.ID.String())
			continue
		}
		allowed = append(allowed, node)
	}
	return allowed, filtered
}

// TagEntropy returns the Shannon entropy (bits) of the tag frequency
// distribution currently in the window. Zero when the window is empty or
// disabled.
func (f *RepeatFilter) TagEntropy() float64 {
	total := len(f.tagHistory)
	if total == 0 {
		return 0
	}
	entropy := 0.0
	for _, count := range f.tagCounts {
		p := float64(count) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// VisitCount returns how many times the node was visited this session.
func (f *RepeatFilter) VisitCount(id string) int {
	return f.visitCounts[id]
}

// Clone returns an independent copy for preview routing.
func (f *RepeatFilter) Clone() *RepeatFilter {
	c := NewRepeatFilter(f.window, f.threshold, f.decay, f.maxVisits)
	c.tagHistory = append([]string(nil), f.tagHistory...)
	c.srcHistory = append([]string(nil), f.srcHistory...)
	for k, v := range f.tagCounts {
		c.tagCounts[k] = v
	}
	for k, v := range f.srcCounts {
		c.srcCounts[k] = v
	}
	for k, v := range f.visitCounts {
		c.visitCounts[k] = v
	}
	return c
}
