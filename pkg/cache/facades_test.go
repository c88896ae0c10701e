// SPDX-License-Identifier: Apache-2.0

package cache

import "testing"

func newTestStore() *Store {
	return NewStore(StoreConfig{})
}

func TestResponseCacheKeying(t *testing.T) {
	s := newTestStore()
	s.Response.Set("system", "hello", "answer")

	if v, ok := s.Response.Get("system", "hello"); !ok || v != "answer" {
		t.Fatalf("expected cached response")
	}
	if _, ok := s.Response.Get("system", "other"); ok {
		t.Errorf("different user message must miss")
	}
	if _, ok := s.Response.Get("other", "hello"); ok {
		t.Errorf("different system prompt must miss")
	}
}

func TestRetrievalCacheNormalizesQuery(t *testing.T) {
	s := newTestStore()
	s.Retrieval.Set("  What Is Algebra  ", []string{"doc1"})

	if _, ok := s.Retrieval.Get("what is algebra"); !ok {
		t.Errorf("cosmetic variants must share a cache line")
	}
	if _, ok := s.Retrieval.Get("what is geometry"); ok {
		t.Errorf("different query must miss")
	}
}

func TestToolResultCacheInvalidate(t *testing.T) {
	s := newTestStore()
	s.Tool.Set("summarize", map[string]any{"doc": "a"}, "r1")
	s.Tool.Set("summarize", map[string]any{"doc": "b"}, "r2")
	s.Tool.Set("translate", map[string]any{"doc": "a"}, "r3")

	if got := s.Tool.Invalidate("summarize"); got != 2 {
		t.Errorf("expected 2 invalidated entries, got %d", got)
	}
	if _, ok := s.Tool.Get("summarize", map[string]any{"doc": "a"}); ok {
		t.Errorf("invalidated tool must miss")
	}
	if _, ok := s.Tool.Get("translate", map[string]any{"doc": "a"}); ok == false {
		t.Errorf("other tools must be untouched")
	}
}

func TestToolResultCacheParamsOrder(t *testing.T) {
	s := newTestStore()
	s.Tool.Set("plan", map[string]any{"subject": "math", "days": 7}, "r")
	if _, ok := s.Tool.Get("plan", map[string]any{"days": 7, "subject": "math"}); !ok {
		t.Errorf("param order must not affect the key")
	}
}

func TestSessionCacheClear(t *testing.T) {
	s := newTestStore()
	s.Session.Set("sess-1", "draft", "x")
	s.Session.Set("sess-1", "topic", "y")
	s.Session.Set("sess-2", "draft", "z")

	if got := s.Session.ClearSession("sess-1"); got != 2 {
		t.Errorf("expected 2 cleared entries, got %d", got)
	}
	if _, ok := s.Session.Get("sess-1", "draft"); ok {
		t.Errorf("cleared session must miss")
	}
	if _, ok := s.Session.Get("sess-2", "draft"); !ok {
		t.Errorf("other sessions must be untouched")
	}
}

func TestNamespacesDoNotCrossContaminate(t *testing.T) {
	s := newTestStore()
	s.Session.Set("summarize", "k", "session value")
	s.Tool.Set("summarize", map[string]any{"k": 1}, "tool value")

	// Invalidating a tool must never touch session entries that happen to
	// share the same logical name.
	s.Tool.Invalidate("summarize")
	if _, ok := s.Session.Get("summarize", "k"); !ok {
		t.Errorf("session entries must survive tool invalidation")
	}
}
