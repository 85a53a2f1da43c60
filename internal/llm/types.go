// Package llm provides the streaming chat client for the local model server.
package llm

import (
	"context"
	"time"
)

// Message represents a chat message for the LLM.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // For tool responses
}

// ToolCall represents a tool call from the model. Ollama does not assign
// call IDs on the wire; the client mints one when it is missing so tool
// responses can always be correlated.
type ToolCall struct {
	ID       string `json:"id,omitempty"`
	Function struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"` // Ollama returns object, not string
	} `json:"function"`
}

// ChatResponse is the response from the chat API. For streamed requests,
// Message.Content holds the full accumulated text and Message.ToolCalls
// holds every call observed during the turn.
type ChatResponse struct {
	Model     string  `json:"model"`
	CreatedAt string  `json:"created_at"`
	Message   Message `json:"message"`
	Done      bool    `json:"done"`

	// Usage stats (when done=true)
	TotalDuration   int64 `json:"total_duration,omitempty"`
	LoadDuration    int64 `json:"load_duration,omitempty"`
	PromptEvalCount int   `json:"prompt_eval_count,omitempty"`
	EvalCount       int   `json:"eval_count,omitempty"`
	EvalDuration    int64 `json:"eval_duration,omitempty"`
}

// Elapsed returns the total wall time reported by the server.
func (r *ChatResponse) Elapsed() time.Duration {
	return time.Duration(r.TotalDuration)
}

// StreamCallback is called for each streamed content fragment.
type StreamCallback func(fragment string)

// Client is the interface the conversation loop and summarizer consume.
type Client interface {
	// ChatStream sends a chat request. If callback is non-nil the request
	// streams and each content fragment is forwarded to it as it arrives.
	// The returned response carries the accumulated content and any tool
	// calls the model emitted during the turn.
	ChatStream(ctx context.Context, model string, messages []Message, tools []map[string]any, callback StreamCallback) (*ChatResponse, error)

	// Ping checks if the server is reachable.
	Ping(ctx context.Context) error
}
