// SPDX-License-Identifier: Apache-2.0

// Package memory provides retrieval backends for course material and
// conversation history.
package memory

import "context"

// Document is one indexed chunk of course material.
type Document struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	CourseID string         `json:"course_id,omitempty"`
	Locale   string         `json:"locale,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Point pairs a document with its embedding vector.
type Point struct {
	Document Document
	Vector   []float32
}

// SearchHit is one scored retrieval result. Higher scores are closer.
type SearchHit struct {
	Document Document
	Score    float32
}

// VectorStore is a vector database holding embedded documents.
type VectorStore interface {
	// EnsureCollection creates the collection if it does not exist.
	EnsureCollection(ctx context.Context, name string, vectorSize uint64) error
	// Upsert adds or replaces points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error
	// Search returns the nearest documents to the query vector, best first.
	Search(ctx context.Context, collection string, vector []float32, limit int, scoreThreshold float32) ([]SearchHit, error)
}

// Embedder converts text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
