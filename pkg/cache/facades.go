// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"strings"
	"time"
)

// Namespace prefixes keep the four logical caches from cross-contaminating
// on DeleteByPrefix or per-session clears.
const (
	nsResponse  = "resp"
	nsRetrieval = "retr"
	nsTool      = "tool"
	nsSession   = "sess"
)

// Store aggregates the four cache façades. It is constructed once at boot
// and passed by handle into every request-scoped context; it is never
// recreated during the process lifetime.
type Store struct {
	Response  *ResponseCache
	Retrieval *RetrievalCache
	Tool      *ToolResultCache
	Session   *SessionCache
}

// StoreConfig bounds each façade. Zero values keep the defaults.
type StoreConfig struct {
	ResponseCapacity  int
	RetrievalCapacity int
	ToolCapacity      int
	SessionCapacity   int
	ResponseTTL       time.Duration
	RetrievalTTL      time.Duration
	ToolTTL           time.Duration
	SessionTTL        time.Duration
}

// NewStore builds the process-wide cache store.
func NewStore(cfg StoreConfig) *Store {
	return &Store{
		Response:  &ResponseCache{c: New(WithCapacity(cfg.ResponseCapacity)), ttl: cfg.ResponseTTL},
		Retrieval: &RetrievalCache{c: New(WithCapacity(cfg.RetrievalCapacity)), ttl: cfg.RetrievalTTL},
		Tool:      &ToolResultCache{c: New(WithCapacity(cfg.ToolCapacity)), ttl: cfg.ToolTTL},
		Session:   &SessionCache{c: New(WithCapacity(cfg.SessionCapacity)), ttl: cfg.SessionTTL},
	}
}

// ResponseCache memoizes full LLM responses keyed by the (system prompt,
// user message) pair.
type ResponseCache struct {
	c   *Cache
	ttl time.Duration
}

// Key derives the cache key for a prompt pair.
func (rc *ResponseCache) Key(systemPrompt, userMessage string) string {
	return GenerateKey(nsResponse, map[string]any{
		"system": systemPrompt,
		"user":   userMessage,
	})
}

// Get returns a cached response for the prompt pair.
func (rc *ResponseCache) Get(systemPrompt, userMessage string) (any, bool) {
	return rc.c.Get(rc.Key(systemPrompt, userMessage))
}

// Set stores a response for the prompt pair.
func (rc *ResponseCache) Set(systemPrompt, userMessage string, response any) {
	rc.c.Set(rc.Key(systemPrompt, userMessage), response, rc.ttl)
}

// Stats exposes the underlying engine stats.
func (rc *ResponseCache) Stats() Stats { return rc.c.GetStats() }

// RetrievalCache memoizes retrieval results keyed by a normalized query so
// cosmetic variants share a cache line.
type RetrievalCache struct {
	c   *Cache
	ttl time.Duration
}

// NormalizeQuery trims and lowercases a query for keying.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Key derives the cache key for a query.
func (rc *RetrievalCache) Key(query string) string {
	return GenerateKey(nsRetrieval, map[string]any{"q": NormalizeQuery(query)})
}

// Get returns cached retrieval results for the query.
func (rc *RetrievalCache) Get(query string) (any, bool) {
	return rc.c.Get(rc.Key(query))
}

// Set stores retrieval results for the query.
func (rc *RetrievalCache) Set(query string, results any) {
	rc.c.Set(rc.Key(query), results, rc.ttl)
}

// Stats exposes the underlying engine stats.
func (rc *RetrievalCache) Stats() Stats { return rc.c.GetStats() }

// ToolResultCache memoizes capability results keyed by tool name and a
// params hash. Invalidate removes every entry for one tool regardless of
// params.
type ToolResultCache struct {
	c   *Cache
	ttl time.Duration
}

// Key derives the cache key for a tool invocation.
func (tc *ToolResultCache) Key(tool string, params map[string]any) string {
	return nsTool + ":" + tool + ":" + GenerateKey("p", params)
}

// Get returns a cached result for the invocation.
func (tc *ToolResultCache) Get(tool string, params map[string]any) (any, bool) {
	return tc.c.Get(tc.Key(tool, params))
}

// Set stores a result for the invocation.
func (tc *ToolResultCache) Set(tool string, params map[string]any, result any) {
	tc.c.Set(tc.Key(tool, params), result, tc.ttl)
}

// Invalidate removes all cached results for tool and returns the count.
func (tc *ToolResultCache) Invalidate(tool string) int {
	return tc.c.DeleteByPrefix(nsTool + ":" + tool + ":")
}

// Stats exposes the underlying engine stats.
func (tc *ToolResultCache) Stats() Stats { return tc.c.GetStats() }

// SessionCache holds per-session scratch values keyed by (session, subkey).
type SessionCache struct {
	c   *Cache
	ttl time.Duration
}

// Key derives the cache key for a session subkey.
func (sc *SessionCache) Key(sessionID, subkey string) string {
	return nsSession + ":" + sessionID + ":" + subkey
}

// Get returns the value stored under (sessionID, subkey).
func (sc *SessionCache) Get(sessionID, subkey string) (any, bool) {
	return sc.c.Get(sc.Key(sessionID, subkey))
}

// Set stores value under (sessionID, subkey).
func (sc *SessionCache) Set(sessionID, subkey string, value any) {
	sc.c.Set(sc.Key(sessionID, subkey), value, sc.ttl)
}

// ClearSession removes every entry for sessionID and returns the count.
func (sc *SessionCache) ClearSession(sessionID string) int {
	return sc.c.DeleteByPrefix(nsSession + ":" + sessionID + ":")
}

// Stats exposes the underlying engine stats.
func (sc *SessionCache) Stats() Stats { return sc.c.GetStats() }
