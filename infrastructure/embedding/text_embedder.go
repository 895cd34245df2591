package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"wayfinder-backend/domain/core/entities"
)

// Dimensions of the feature-hash embedding space.
const embeddingDims = 64

// TextEmbedder is a deterministic feature-hashing embedder over a node's
// title and tags. It stands in for an external embedding model in local
// and test environments: identical content always maps to an identical
// unit vector, so similarity comparisons are stable.
type TextEmbedder struct{}

// NewTextEmbedder creates a feature-hash embedder.
func NewTextEmbedder() *TextEmbedder {
	return &TextEmbedder{}
}

// Embed implements ports.Embedder.
func (e *TextEmbedder) Embed(ctx context.Context, node *entities.Node) ([]float32, error) {
	vector := make([]float32, embeddingDims)
	for _, token := range tokenize(node) {
		h := fnv.New32a()
		h.Write([]byte(token))
		sum := h.Sum32()
		// Low bits pick the dimension, one higher bit picks the sign, so
		// unrelated tokens cancel rather than accumulate.
		dim := int(sum % embeddingDims)
		sign := float32(1)
		if sum&(1<<16) != 0 {
			sign = -1
		}
		vector[dim] += sign
	}
	return normalize(vector), nil
}

func tokenize(node *entities.Node) []string {
	var tokens []string
	for _, word := range strings.Fields(strings.ToLower(node.Title)) {
		word = strings.Trim(word, ".,;:!?\"'()[]")
		if len(word) >= 3 {
			tokens = append(tokens, word)
		}
	}
	for _, tag := range node.Tags {
		tokens = append(tokens, "tag:"+strings.ToLower(tag))
	}
	if node.Source != "" {
		tokens = append(tokens, "source:"+strings.ToLower(node.Source))
	}
	return tokens
}

func normalize(vector []float32) []float32 {
	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vector
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vector {
		vector[i] *= scale
	}
	return vector
}
