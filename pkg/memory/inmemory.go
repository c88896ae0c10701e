// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"math"
	"sort"
	"sync"
)

// InMemoryVectorStore is a brute-force cosine-similarity store. It backs
// tests and single-node deployments that do not run Qdrant.
type InMemoryVectorStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Point
}

// NewInMemoryVectorStore returns an empty store.
func NewInMemoryVectorStore() *InMemoryVectorStore {
	return &InMemoryVectorStore{collections: make(map[string]map[string]Point)}
}

// EnsureCollection creates the collection if missing. Vector size is not
// enforced here; mismatched vectors simply score zero.
func (s *InMemoryVectorStore) EnsureCollection(_ context.Context, name string, _ uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; !ok {
		s.collections[name] = make(map[string]Point)
	}
	return nil
}

// Upsert adds or replaces points keyed by document ID.
func (s *InMemoryVectorStore) Upsert(_ context.Context, collection string, points []Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll, ok := s.collections[collection]
	if !ok {
		coll = make(map[string]Point)
		s.collections[collection] = coll
	}
	for _, p := range points {
		coll[p.Document.ID] = p
	}
	return nil
}

// Search scans the collection and returns the top hits by cosine
// similarity, best first.
func (s *InMemoryVectorStore) Search(_ context.Context, collection string, vector []float32, limit int, scoreThreshold float32) ([]SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []SearchHit
	for _, p := range s.collections[collection] {
		score := cosine(vector, p.Vector)
		if score < scoreThreshold {
			continue
		}
		hits = append(hits, SearchHit{Document: p.Document, Score: score})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
