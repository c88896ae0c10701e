// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OllamaProvider talks to a local or remote Ollama server over its
// /api/chat endpoint.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

// OllamaOption configures an OllamaProvider.
type OllamaOption func(*OllamaProvider)

// WithOllamaHTTPClient overrides the default HTTP client.
func WithOllamaHTTPClient(c *http.Client) OllamaOption {
	return func(p *OllamaProvider) { p.client = c }
}

// NewOllama creates an Ollama-backed provider. model is used when the
// request does not name one.
func NewOllama(baseURL, model string, opts ...OllamaOption) *OllamaProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	p := &OllamaProvider{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type ollamaRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Tools    []Tool         `json:"tools,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
}

// ollamaEvent is both the non-streaming response body and one NDJSON
// line of a streaming response.
type ollamaEvent struct {
	Message         Message `json:"message"`
	Done            bool    `json:"done"`
	PromptEvalCount int     `json:"prompt_eval_count,omitempty"`
	EvalCount       int     `json:"eval_count,omitempty"`
}

func (p *OllamaProvider) buildRequest(req ChatRequest, stream bool) ollamaRequest {
	oReq := ollamaRequest{
		Model:    req.Model,
		Messages: req.Messages,
		Stream:   stream,
		Tools:    req.Tools,
	}
	if oReq.Model == "" {
		oReq.Model = p.model
	}
	if req.Temperature != 0 {
		oReq.Options = map[string]any{"temperature": req.Temperature}
	}
	return oReq
}

func (p *OllamaProvider) post(ctx context.Context, oReq ollamaRequest) (*http.Response, error) {
	body, err := json.Marshal(oReq)
	if err != nil {
		return nil, fmt.Errorf("marshal ollama request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama api call failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("ollama api returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return resp, nil
}

// Chat sends a blocking chat request and maps the response.
func (p *OllamaProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	resp, err := p.post(ctx, p.buildRequest(req, false))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var oResp ollamaEvent
	if err := json.NewDecoder(resp.Body).Decode(&oResp); err != nil {
		return nil, fmt.Errorf("decode ollama response: %w", err)
	}
	return &ChatResponse{
		Content: oResp.Message.Content,
		Usage: Usage{
			PromptTokens:     oResp.PromptEvalCount,
			CompletionTokens: oResp.EvalCount,
			TotalTokens:      oResp.PromptEvalCount + oResp.EvalCount,
		},
	}, nil
}

// ChatStream opens a streaming chat call. The returned Stream reads the
// NDJSON body lazily; callers must drain it or cancel ctx to release the
// connection.
func (p *OllamaProvider) ChatStream(ctx context.Context, req ChatRequest) (Stream, error) {
	resp, err := p.post(ctx, p.buildRequest(req, true))
	if err != nil {
		return nil, err
	}
	return &ollamaStream{body: resp.Body, reader: bufio.NewReader(resp.Body)}, nil
}

// ollamaStream pulls chunks off an NDJSON response body.
type ollamaStream struct {
	body   io.ReadCloser
	reader *bufio.Reader
	closed bool
}

func (s *ollamaStream) Next(ctx context.Context) (string, bool, error) {
	if s.closed {
		return "", true, nil
	}
	for {
		if err := ctx.Err(); err != nil {
			s.close()
			return "", true, err
		}
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			s.close()
			if err == io.EOF {
				return "", true, nil
			}
			return "", true, err
		}

		var event ollamaEvent
		if err := json.Unmarshal(line, &event); err != nil {
			continue // skip malformed lines
		}
		if event.Done {
			s.close()
			if event.Message.Content != "" {
				// Final event carried text; report done on the next call.
				return event.Message.Content, false, nil
			}
			return "", true, nil
		}
		if event.Message.Content != "" {
			return event.Message.Content, false, nil
		}
	}
}

func (s *ollamaStream) close() {
	if !s.closed {
		s.closed = true
		s.body.Close()
	}
}

var _ StreamingProvider = (*OllamaProvider)(nil)
