// Package llm defines the provider contract for inference backends. The
// core treats the LLM as a capability backend; transport failures are
// classified by the error taxonomy at the call site.
package llm

import "context"

// Role represents the role of a message sender.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolType represents the type of tool.
type ToolType string

const (
	ToolTypeFunction ToolType = "function"
)

// FunctionDef defines a function tool.
type FunctionDef struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters"` // JSON Schema
}

// Tool represents a tool available to the LLM.
type Tool struct {
	Type     ToolType    `json:"type"`
	Function FunctionDef `json:"function"`
}

// Message is a single unit of communication.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest encapsulates the input for the LLM.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Tools       []Tool    `json:"tools,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// ChatResponse encapsulates the output from the LLM.
type ChatResponse struct {
	Content string `json:"content"`
	Usage   Usage  `json:"usage"`
}

// Usage tracks token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Provider defines the interface for interacting with LLM backends.
type Provider interface {
	// Chat sends a chat request and returns the full response. The call
	// honors ctx cancellation; a cancelled call returns ctx.Err.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Stream is the pull-based contract for streamable capabilities: the
// caller asks for the next chunk until done is reported. Implementations
// belong to the calling layer's transport; the core only produces them.
type Stream interface {
	// Next returns the next text chunk. done=true marks completion; chunk
	// is empty once done.
	Next(ctx context.Context) (chunk string, done bool, err error)
}

// StreamingProvider is implemented by providers that can stream.
type StreamingProvider interface {
	Provider
	// ChatStream opens a streaming chat call.
	ChatStream(ctx context.Context, req ChatRequest) (Stream, error)
}
