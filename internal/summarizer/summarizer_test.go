package summarizer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hearthlabs/hearth/internal/llm"
)

type fakeClient struct {
	reply string
	err   error

	gotMessages []llm.Message
	gotTools    []map[string]any
}

func (c *fakeClient) ChatStream(ctx context.Context, model string, messages []llm.Message, tools []map[string]any, callback llm.StreamCallback) (*llm.ChatResponse, error) {
	c.gotMessages = messages
	c.gotTools = tools
	if c.err != nil {
		return nil, c.err
	}
	if callback != nil {
		callback(c.reply)
	}
	resp := &llm.ChatResponse{Done: true}
	resp.Message.Content = c.reply
	return resp, nil
}

func (c *fakeClient) Ping(ctx context.Context) error { return nil }

func TestSummarize(t *testing.T) {
	client := &fakeClient{reply: "  They discussed pouring and curing concrete.\n"}
	s := New(client, "qwen3:4b", nil)

	got := s.Summarize(context.Background(), [][2]string{
		{"How do I pour concrete?", "Prepare the site and build forms."},
		{"What about curing?", "Keep it moist for seven days."},
	})

	if got != "They discussed pouring and curing concrete." {
		t.Errorf("Summarize() = %q, want trimmed reply", got)
	}

	if len(client.gotMessages) != 2 {
		t.Fatalf("sent %d messages, want 2", len(client.gotMessages))
	}
	if client.gotMessages[0].Role != "system" {
		t.Errorf("first message role = %s", client.gotMessages[0].Role)
	}
	prompt := client.gotMessages[1].Content
	if !strings.Contains(prompt, "User: How do I pour concrete?\nAssistant: Prepare the site and build forms.") {
		t.Errorf("prompt missing first pair:\n%s", prompt)
	}
	if !strings.Contains(prompt, "User: What about curing?") {
		t.Errorf("prompt missing second pair:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Summarize the following conversation") {
		t.Errorf("prompt missing instruction:\n%s", prompt)
	}

	if client.gotTools != nil {
		t.Error("summarizer must not attach tools")
	}
}

func TestSummarize_BackendErrorBracketed(t *testing.T) {
	client := &fakeClient{err: errors.New("connection refused")}
	s := New(client, "qwen3:4b", nil)

	got := s.Summarize(context.Background(), [][2]string{{"hi", "hello"}})

	if !strings.HasPrefix(got, "[Error summarizing history:") || !strings.HasSuffix(got, "]") {
		t.Errorf("Summarize() = %q, want bracketed error", got)
	}
	if !strings.Contains(got, "connection refused") {
		t.Errorf("Summarize() = %q, want cause included", got)
	}
}

func TestSummarize_EmptyHistory(t *testing.T) {
	client := &fakeClient{reply: "Nothing was discussed."}
	s := New(client, "qwen3:4b", nil)

	got := s.Summarize(context.Background(), nil)
	if got != "Nothing was discussed." {
		t.Errorf("Summarize() = %q", got)
	}
}
