// Package agent implements the tool-calling conversation loop.
//
// One Agent owns one session's transcript. Each user turn streams the
// model's reply fragment by fragment to the caller, dispatches any tool
// calls the model requests, feeds the results back, and resubmits until
// the model answers without requesting tools.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hearthlabs/hearth/internal/llm"
	"github.com/hearthlabs/hearth/internal/tools"
)

// DefaultSystemPrompt is used when no system prompt is configured.
const DefaultSystemPrompt = "You are a helpful coding assistant operating in a terminal environment. " +
	"Output only plain text without markdown formatting, as your responses appear directly in the terminal. " +
	"Be concise but thorough, providing clear and practical advice with a friendly tone. " +
	"Don't use any asterisk characters in your responses."

// Agent is a streaming conversational assistant with tool support.
type Agent struct {
	client         llm.Client
	registry       *tools.Registry
	model          string
	systemPrompt   string
	contextSummary string
	messages       []llm.Message
	logger         *slog.Logger
}

// New creates an agent. A nil registry disables tools; empty systemPrompt
// selects [DefaultSystemPrompt].
func New(client llm.Client, registry *tools.Registry, model, systemPrompt string, logger *slog.Logger) *Agent {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		client:       client,
		registry:     registry,
		model:        model,
		systemPrompt: systemPrompt,
		logger:       logger,
	}
}

// SetContextSummary sets the workspace's persisted context summary. It is
// injected into the system message on every turn, clearly labeled.
func (a *Agent) SetContextSummary(summary string) {
	a.contextSummary = summary
}

// SetModel switches the model used for subsequent turns.
func (a *Agent) SetModel(model string) { a.model = model }

// Model returns the model in use.
func (a *Agent) Model() string { return a.model }

// Transcript returns the session transcript (without the synthesized
// system message, which is never part of it).
func (a *Agent) Transcript() []llm.Message {
	return a.messages
}

// LoadHistory replaces the transcript with persisted (user, assistant)
// pairs, oldest first. Called when entering a workspace.
func (a *Agent) LoadHistory(pairs [][2]string) {
	a.messages = a.messages[:0]
	for _, p := range pairs {
		a.messages = append(a.messages,
			llm.Message{Role: "user", Content: p[0]},
			llm.Message{Role: "assistant", Content: p[1]},
		)
	}
}

// systemMessage synthesizes the single system message for a request.
func (a *Agent) systemMessage() llm.Message {
	content := a.systemPrompt
	if a.contextSummary != "" {
		content += fmt.Sprintf("\n\n[Context Summary]: %s", a.contextSummary)
	}
	return llm.Message{Role: "system", Content: content}
}

// Chat handles one user turn. Fragments of the assistant's reply are
// forwarded to emit as they arrive. The returned string is the full
// concatenated reply for the turn (tool-resolution rounds included).
//
// Tool failures are fed back to the model as tool results and never end
// the turn; a backend failure emits a single "Error: ..." fragment and
// ends it. The user message appended at the start of the turn survives
// either way.
func (a *Agent) Chat(ctx context.Context, userInput string, emit func(string)) string {
	a.messages = append(a.messages, llm.Message{Role: "user", Content: userInput})

	var advertised []map[string]any
	if a.registry != nil {
		advertised = a.registry.List()
	}

	var reply strings.Builder
	forward := func(fragment string) {
		reply.WriteString(fragment)
		emit(fragment)
	}

	for round := 1; ; round++ {
		request := append([]llm.Message{a.systemMessage()}, a.messages...)

		a.logger.Debug("chat round",
			"round", round,
			"model", a.model,
			"messages", len(request),
		)

		resp, err := a.client.ChatStream(ctx, a.model, request, advertised, forward)
		if err != nil {
			a.logger.Error("chat stream failed", "round", round, "error", err)
			forward(fmt.Sprintf("Error: %v", err))
			return reply.String()
		}

		calls := resp.Message.ToolCalls
		if len(calls) == 0 {
			// Turn quiesced: record the final assistant reply.
			a.messages = append(a.messages, llm.Message{
				Role:    "assistant",
				Content: resp.Message.Content,
			})
			a.logger.Info("turn complete",
				"rounds", round,
				"reply_len", reply.Len(),
				"elapsed", resp.Elapsed(),
			)
			return reply.String()
		}

		a.handleToolCalls(calls)
	}
}

// handleToolCalls dispatches each call and appends its result to the
// transcript as a tool-role message. Dispatch error results are also
// echoed as assistant-role messages so they are visible as first-class
// turns, matching how the model sees its own failed attempts.
func (a *Agent) handleToolCalls(calls []llm.ToolCall) {
	for _, call := range calls {
		name := call.Function.Name
		a.logger.Info("executing tool", "tool", name, "args", call.Function.Arguments)

		// With no registry every requested tool is unknown; the model
		// still gets a tool result back so the turn can continue.
		result := fmt.Sprintf("Unknown tool: %s", name)
		if a.registry != nil {
			result = a.registry.Dispatch(name, call.Function.Arguments)
		}
		a.logger.Debug("tool result", "tool", name, "result", truncate(result, 500))

		if isDispatchError(result) {
			a.messages = append(a.messages, llm.Message{
				Role:    "assistant",
				Content: result,
			})
		}
		a.messages = append(a.messages, llm.Message{
			Role:       "tool",
			Content:    result,
			ToolCallID: call.ID,
		})
	}
}

// isDispatchError reports whether a dispatch result signals a missing
// argument or execution failure (as opposed to a tool's own domain
// error text, which stays a plain tool result).
func isDispatchError(result string) bool {
	return strings.HasPrefix(result, "Missing required argument") ||
		strings.HasPrefix(result, "Error executing")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
