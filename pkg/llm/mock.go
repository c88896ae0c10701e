package llm

import (
	"context"
	"errors"
	"sync"
)

// MockProvider is a testing implementation of Provider.
type MockProvider struct {
	Response string
	Err      error
	ChatFunc func(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

func (m *MockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, req)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &ChatResponse{
		Content: m.Response,
		Usage: Usage{
			PromptTokens:     10,
			CompletionTokens: 10,
			TotalTokens:      20,
		},
	}, nil
}

// ScriptedMockProvider returns a pre-defined sequence of responses.
// Useful for testing multi-step plans deterministically.
type ScriptedMockProvider struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	CallCount int
}

// NewScriptedMockProvider creates a provider that pops responses in order.
func NewScriptedMockProvider(responses ...string) *ScriptedMockProvider {
	return &ScriptedMockProvider{Responses: responses}
}

// Chat pops the next scripted response or returns the configured error.
func (s *ScriptedMockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.CallCount++
	if s.Err != nil {
		return nil, s.Err
	}
	if len(s.Responses) == 0 {
		return nil, errors.New("scripted mock: no more responses available")
	}

	content := s.Responses[0]
	s.Responses = s.Responses[1:]
	return &ChatResponse{
		Content: content,
		Usage: Usage{
			PromptTokens:     10,
			CompletionTokens: 10,
			TotalTokens:      20,
		},
	}, nil
}

// ChatStream serves the next scripted response as a chunked stream.
func (s *ScriptedMockProvider) ChatStream(ctx context.Context, req ChatRequest) (Stream, error) {
	resp, err := s.Chat(ctx, req)
	if err != nil {
		return nil, err
	}
	return NewChunkStream(splitChunks(resp.Content, 8)), nil
}

func splitChunks(text string, size int) []string {
	runes := []rune(text)
	var chunks []string
	for len(runes) > 0 {
		n := size
		if n > len(runes) {
			n = len(runes)
		}
		chunks = append(chunks, string(runes[:n]))
		runes = runes[n:]
	}
	return chunks
}

// ChunkStream serves a fixed chunk list through the Stream contract.
type ChunkStream struct {
	mu     sync.Mutex
	chunks []string
	pos    int
}

// NewChunkStream wraps pre-split chunks as a Stream.
func NewChunkStream(chunks []string) *ChunkStream {
	return &ChunkStream{chunks: chunks}
}

// Next implements Stream.
func (cs *ChunkStream) Next(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", true, err
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.pos >= len(cs.chunks) {
		return "", true, nil
	}
	chunk := cs.chunks[cs.pos]
	cs.pos++
	return chunk, false, nil
}
