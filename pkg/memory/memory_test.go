// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"path/filepath"
	"testing"
)

func TestInMemoryVectorStoreRanking(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryVectorStore()
	if err := store.EnsureCollection(ctx, "courses", 3); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	points := []Point{
		{Document: Document{ID: "a", Text: "algebra basics"}, Vector: []float32{1, 0, 0}},
		{Document: Document{ID: "b", Text: "geometry intro"}, Vector: []float32{0, 1, 0}},
		{Document: Document{ID: "c", Text: "advanced algebra"}, Vector: []float32{0.9, 0.1, 0}},
	}
	if err := store.Upsert(ctx, "courses", points); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	hits, err := store.Search(ctx, "courses", []float32{1, 0, 0}, 2, 0.5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Document.ID != "a" || hits[1].Document.ID != "c" {
		t.Errorf("expected [a c], got [%s %s]", hits[0].Document.ID, hits[1].Document.ID)
	}
	if hits[0].Score < hits[1].Score {
		t.Errorf("hits must be ordered best first")
	}
}

func TestInMemoryVectorStoreThreshold(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryVectorStore()
	_ = store.Upsert(ctx, "courses", []Point{
		{Document: Document{ID: "far"}, Vector: []float32{0, 1, 0}},
	})

	hits, err := store.Search(ctx, "courses", []float32{1, 0, 0}, 10, 0.5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("orthogonal vector must fall below the threshold")
	}
}

func TestInMemoryVectorStoreUpsertReplaces(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryVectorStore()
	_ = store.Upsert(ctx, "courses", []Point{
		{Document: Document{ID: "a", Text: "old"}, Vector: []float32{1, 0}},
	})
	_ = store.Upsert(ctx, "courses", []Point{
		{Document: Document{ID: "a", Text: "new"}, Vector: []float32{1, 0}},
	})

	hits, _ := store.Search(ctx, "courses", []float32{1, 0}, 10, 0)
	if len(hits) != 1 {
		t.Fatalf("upsert must replace, got %d points", len(hits))
	}
	if hits[0].Document.Text != "new" {
		t.Errorf("expected replaced text, got %q", hits[0].Document.Text)
	}
}

type fixedEmbedder struct {
	vectors map[string][]float32
}

func (f *fixedEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

func TestRetrieverNormalizesQueries(t *testing.T) {
	ctx := context.Background()
	// Both spellings normalize to the same key, so they embed identically.
	emb := &fixedEmbedder{vectors: map[string][]float32{
		"الرياضيات": {1, 0, 0},
	}}
	r := NewRetriever(NewInMemoryVectorStore(), emb, "courses")
	if err := r.Index(ctx, []Document{{Text: "الرياضيات", CourseID: "math-101"}}); err != nil {
		t.Fatalf("index: %v", err)
	}

	for _, query := range []string{"الرياضيات", "الريَاضيات", "الريـاضيات"} {
		hits, err := r.Retrieve(ctx, query, 5)
		if err != nil {
			t.Fatalf("retrieve %q: %v", query, err)
		}
		if len(hits) != 1 || hits[0].Document.CourseID != "math-101" {
			t.Errorf("query %q: expected math-101, got %v", query, hits)
		}
	}
}

func TestRetrieverAssignsIDs(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryVectorStore()
	r := NewRetriever(store, &fixedEmbedder{}, "courses")
	if err := r.Index(ctx, []Document{{Text: "one"}, {Text: "two"}}); err != nil {
		t.Fatalf("index: %v", err)
	}
	hits, _ := store.Search(ctx, "courses", []float32{0, 0, 1}, 10, 0)
	if len(hits) != 2 {
		t.Fatalf("expected 2 points, got %d", len(hits))
	}
	for _, h := range hits {
		if h.Document.ID == "" {
			t.Errorf("documents must receive IDs at index time")
		}
	}
}

func TestInMemoryHistoryWindow(t *testing.T) {
	ctx := context.Background()
	h := NewInMemoryHistory()
	for _, content := range []string{"one", "two", "three"} {
		if err := h.Append(ctx, Turn{SessionID: "s1", Role: "user", Content: content}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	turns, err := h.Recent(ctx, "s1", 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(turns) != 2 || turns[0].Content != "two" || turns[1].Content != "three" {
		t.Errorf("expected last two turns in order, got %v", turns)
	}

	if err := h.Clear(ctx, "s1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	turns, _ = h.Recent(ctx, "s1", 0)
	if len(turns) != 0 {
		t.Errorf("clear must empty the session")
	}
}

func TestSQLiteHistoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	h, err := NewSQLiteHistory(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer h.Close()

	for _, content := range []string{"السلام عليكم", "وعليكم السلام", "سؤال"} {
		if err := h.Append(ctx, Turn{SessionID: "s1", Role: "user", Content: content}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	_ = h.Append(ctx, Turn{SessionID: "s2", Role: "user", Content: "other session"})

	turns, err := h.Recent(ctx, "s1", 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[1].Content != "سؤال" {
		t.Errorf("expected newest last, got %q", turns[1].Content)
	}

	if err := h.Clear(ctx, "s1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	turns, _ = h.Recent(ctx, "s1", 0)
	if len(turns) != 0 {
		t.Errorf("clear must only remove the target session")
	}
	turns, _ = h.Recent(ctx, "s2", 0)
	if len(turns) != 1 {
		t.Errorf("other sessions must survive a clear")
	}
}
