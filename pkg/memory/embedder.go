// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/maarifa/agentcore/pkg/errors"
)

// HTTPEmbedder calls an Ollama-compatible embeddings endpoint.
type HTTPEmbedder struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewHTTPEmbedder returns an embedder for the given endpoint and model.
func NewHTTPEmbedder(baseURL, model string) *HTTPEmbedder {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &HTTPEmbedder{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed converts text into a vector.
func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embeddingRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, errors.Newf(errors.CodeInternal, "memory: marshal embedding request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Newf(errors.CodeInternal, "memory: build embedding request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.CodeLLMUnavailable, "memory: embedding endpoint returned %d", resp.StatusCode)
	}

	var out embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Newf(errors.CodeInternal, "memory: decode embedding response: %v", err)
	}

	vec := make([]float32, len(out.Embedding))
	for i, v := range out.Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}
