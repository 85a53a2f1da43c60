// Package summarizer condenses conversation history into a context
// summary. The summary is injected into the system prompt on later
// turns, extending effective memory beyond the raw transcript.
package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hearthlabs/hearth/internal/llm"
)

const systemPrompt = "You are a helpful assistant that summarizes conversations."

const instruction = "Summarize the following conversation between a user and an assistant. " +
	"Focus on the main topics, decisions, and any important context. " +
	"Be concise and clear.\n\n"

// Summarizer makes one-shot, tool-free summary requests.
type Summarizer struct {
	client llm.Client
	model  string
	logger *slog.Logger
}

// New creates a summarizer using the given client and model.
func New(client llm.Client, model string, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{
		client: client,
		model:  model,
		logger: logger.With("component", "summarizer"),
	}
}

// Summarize condenses ordered (user, assistant) pairs into a short text.
// It never fails: backend errors come back as a bracketed error string
// the caller may display or skip persisting.
func (s *Summarizer) Summarize(ctx context.Context, pairs [][2]string) string {
	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: instruction + renderHistory(pairs)},
	}

	s.logger.Info("summarizing history", "pairs", len(pairs))
	start := time.Now()

	var out strings.Builder
	_, err := s.client.ChatStream(ctx, s.model, messages, nil, func(fragment string) {
		out.WriteString(fragment)
	})
	if err != nil {
		s.logger.Error("summarization failed", "error", err)
		return fmt.Sprintf("[Error summarizing history: %v]", err)
	}

	summary := strings.TrimSpace(out.String())
	s.logger.Info("summary complete",
		"elapsed", time.Since(start),
		"length", len(summary),
	)
	return summary
}

// renderHistory renders pairs as "User: ...\nAssistant: ..." blocks.
func renderHistory(pairs [][2]string) string {
	blocks := make([]string, 0, len(pairs))
	for _, p := range pairs {
		blocks = append(blocks, fmt.Sprintf("User: %s\nAssistant: %s", p[0], p[1]))
	}
	return strings.Join(blocks, "\n")
}
