// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/maarifa/agentcore/pkg/errors"
	"github.com/maarifa/agentcore/pkg/intent"
)

// DefaultScoreThreshold drops hits too distant to be useful context.
const DefaultScoreThreshold = 0.35

// Retriever embeds queries and searches a single collection. Queries are
// normalized the same way as intent matching so Arabic orthographic
// variants retrieve identically.
type Retriever struct {
	store      VectorStore
	embedder   Embedder
	collection string
	threshold  float32
}

// NewRetriever wires a store and embedder to one collection.
func NewRetriever(store VectorStore, embedder Embedder, collection string) *Retriever {
	return &Retriever{
		store:      store,
		embedder:   embedder,
		collection: collection,
		threshold:  DefaultScoreThreshold,
	}
}

// Init ensures the backing collection exists. vectorSize must match the
// embedder's output dimension.
func (r *Retriever) Init(ctx context.Context, vectorSize uint64) error {
	return r.store.EnsureCollection(ctx, r.collection, vectorSize)
}

// Index embeds and stores documents. Documents without an ID get one.
func (r *Retriever) Index(ctx context.Context, docs []Document) error {
	points := make([]Point, 0, len(docs))
	for _, doc := range docs {
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}
		vec, err := r.embedder.Embed(ctx, intent.Normalize(doc.Text))
		if err != nil {
			return errors.Wrap(err).WithContext("document", doc.ID)
		}
		points = append(points, Point{Document: doc, Vector: vec})
	}
	return r.store.Upsert(ctx, r.collection, points)
}

// Retrieve returns the closest documents to the query, best first.
func (r *Retriever) Retrieve(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	vec, err := r.embedder.Embed(ctx, intent.Normalize(query))
	if err != nil {
		return nil, errors.Wrap(err)
	}
	return r.store.Search(ctx, r.collection, vec, limit, r.threshold)
}
