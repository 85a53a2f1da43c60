package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hearthlabs/hearth/internal/config"
)

// DefaultBaseURL is the local Ollama endpoint.
const DefaultBaseURL = "http://localhost:11434"

// OllamaClient is a client for the Ollama chat API.
type OllamaClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewOllamaClient creates a new Ollama client. An empty baseURL selects
// the local server.
func NewOllamaClient(baseURL string, logger *slog.Logger) *OllamaClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OllamaClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Minute, // Large models with tools need time
		},
		logger: logger,
	}
}

// ChatRequest is the request format for the Ollama chat API.
type ChatRequest struct {
	Model    string           `json:"model"`
	Messages []Message        `json:"messages"`
	Stream   bool             `json:"stream"`
	Tools    []map[string]any `json:"tools,omitempty"`
}

// ChatStream sends a chat request. When callback is non-nil the request
// streams newline-delimited JSON and every content fragment is forwarded
// to the callback as it arrives.
func (c *OllamaClient) ChatStream(ctx context.Context, model string, messages []Message, tools []map[string]any, callback StreamCallback) (*ChatResponse, error) {
	stream := callback != nil

	req := ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   stream,
		Tools:    tools,
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	c.logger.Log(ctx, config.LevelTrace, "chat request", "payload", string(jsonData))

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/chat", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	var final *ChatResponse
	if stream {
		final, err = c.consumeStream(resp.Body, callback)
	} else {
		var single ChatResponse
		if derr := json.NewDecoder(resp.Body).Decode(&single); derr != nil {
			err = fmt.Errorf("decode response: %w", derr)
		} else {
			final = &single
		}
	}
	if err != nil {
		return nil, err
	}

	// Some models emit tool calls as JSON text instead of using the
	// native tool_calls field. Salvage those, validated against the
	// advertised tool names.
	if len(final.Message.ToolCalls) == 0 && final.Message.Content != "" {
		if parsed := parseTextToolCalls(final.Message.Content, extractToolNames(tools)); len(parsed) > 0 {
			final.Message.ToolCalls = parsed
			final.Message.Content = "" // Content was a tool call, not prose
		}
	}

	assignCallIDs(final.Message.ToolCalls)

	c.logger.Log(ctx, config.LevelTrace, "chat response",
		"content_len", len(final.Message.Content),
		"tool_calls", len(final.Message.ToolCalls),
	)
	return final, nil
}

// consumeStream reads newline-delimited JSON chunks, forwarding content
// fragments and collecting tool calls until the done chunk arrives.
func (c *OllamaClient) consumeStream(body io.Reader, callback StreamCallback) (*ChatResponse, error) {
	var final ChatResponse
	var content strings.Builder
	var calls []ToolCall
	decoder := json.NewDecoder(body)

	for {
		var chunk ChatResponse
		if err := decoder.Decode(&chunk); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("decode stream chunk: %w", err)
		}

		if chunk.Message.Content != "" {
			content.WriteString(chunk.Message.Content)
			callback(chunk.Message.Content)
		}

		if len(chunk.Message.ToolCalls) > 0 {
			calls = append(calls, chunk.Message.ToolCalls...)
		}

		if chunk.Done {
			final = chunk
			break
		}
	}

	final.Message.Content = content.String()
	final.Message.ToolCalls = calls
	return &final, nil
}

// assignCallIDs mints uuid v7 IDs for tool calls that arrived without one.
func assignCallIDs(calls []ToolCall) {
	for i := range calls {
		if calls[i].ID == "" {
			id, err := uuid.NewV7()
			if err != nil {
				id = uuid.New()
			}
			calls[i].ID = id.String()
		}
	}
}

// extractToolNames pulls tool names from the advertisement list.
func extractToolNames(tools []map[string]any) []string {
	if len(tools) == 0 {
		return nil
	}
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		fn, ok := t["function"].(map[string]any)
		if !ok {
			continue
		}
		if name, ok := fn["name"].(string); ok && name != "" {
			names = append(names, name)
		}
	}
	return names
}

// parseTextToolCalls attempts to extract tool calls from content text.
// Handled formats:
//   - Raw JSON object: {"name": "...", "arguments": {...}}
//   - JSON array: [{"name": "...", "arguments": {...}}]
//   - Tagged: <tool_call>...</tool_call>
//   - Concatenated objects: {...}{...} with optional trailing prose
//
// When validNames is non-empty, calls naming unknown tools are discarded.
func parseTextToolCalls(content string, validNames []string) []ToolCall {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	if strings.Contains(content, "<tool_call>") {
		start := strings.Index(content, "<tool_call>")
		end := strings.Index(content, "</tool_call>")
		if start != -1 && end > start {
			content = strings.TrimSpace(content[start+len("<tool_call>") : end])
		} else if start != -1 {
			// No closing tag, take rest of content
			content = strings.TrimSpace(content[start+len("<tool_call>"):])
		}
	}

	type rawCall struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}

	valid := func(name string) bool {
		if name == "" {
			return false
		}
		if len(validNames) == 0 {
			return true
		}
		for _, v := range validNames {
			if v == name {
				return true
			}
		}
		return false
	}

	toCall := func(rc rawCall) ToolCall {
		var tc ToolCall
		tc.Function.Name = rc.Name
		tc.Function.Arguments = rc.Arguments
		return tc
	}

	// Array of tool calls.
	var arr []rawCall
	if err := json.Unmarshal([]byte(content), &arr); err == nil && len(arr) > 0 {
		var result []ToolCall
		for _, rc := range arr {
			if valid(rc.Name) {
				result = append(result, toCall(rc))
			}
		}
		return result
	}

	// Single object, or concatenated objects with trailing prose.
	if strings.HasPrefix(content, "{") {
		var result []ToolCall
		decoder := json.NewDecoder(strings.NewReader(content))
		for {
			var rc rawCall
			if err := decoder.Decode(&rc); err != nil {
				break
			}
			if valid(rc.Name) {
				result = append(result, toCall(rc))
			}
		}
		return result
	}

	return nil
}

// Ping checks if the server is reachable.
func (c *OllamaClient) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error %d", resp.StatusCode)
	}

	return nil
}

// ListModels returns the names of models available on the server.
func (c *OllamaClient) ListModels(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	names := make([]string, len(result.Models))
	for i, m := range result.Models {
		names[i] = m.Name
	}
	return names, nil
}
