// Hearth is a local, private conversational coding assistant.
//
// It streams replies from an Ollama server, lets the model call a small
// set of math and file tools, and persists per-workspace conversation
// history plus a rolling context summary in SQLite. Configuration comes
// from a YAML file discovered automatically (see
// [config.DefaultSearchPaths]), HEARTH_* environment variables, and
// flags, in increasing order of precedence.
//
// Usage:
//
//	hearth [-config file] [-model name] [-server url] [-db path] [-log-level level]
//
// Inside the session, /help lists the workspace commands; exit or quit
// ends it.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/hearthlabs/hearth/internal/agent"
	"github.com/hearthlabs/hearth/internal/config"
	"github.com/hearthlabs/hearth/internal/llm"
	"github.com/hearthlabs/hearth/internal/store"
	"github.com/hearthlabs/hearth/internal/summarizer"
	"github.com/hearthlabs/hearth/internal/tools"
)

// newWorkspaceName is the placeholder name a fresh workspace carries
// until its first message renames it.
const newWorkspaceName = "New Chat"

// summaryRefreshThreshold is how many new pairs a workspace must gain in
// a session before leaving it triggers a context-summary refresh.
const summaryRefreshThreshold = 4

var (
	styleTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	styleDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	stylePrompt = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	styleError  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// main constructs the OS-level environment and delegates to run, keeping
// os.Exit and os.Args out of the application logic.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point. The flag surface is small enough that
// manual parsing beats flag.CommandLine's global state in tests.
func run(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	var configPath, model, server, dbPath, logLevel string

	for i := 0; i < len(args); i++ {
		flagVal := func(name string) (string, bool) {
			if strings.HasPrefix(args[i], name+"=") {
				return strings.TrimPrefix(args[i], name+"="), true
			}
			if args[i] == name && i+1 < len(args) {
				i++
				return args[i], true
			}
			return "", false
		}
		if v, ok := flagVal("-config"); ok {
			configPath = v
			continue
		}
		if v, ok := flagVal("-model"); ok {
			model = v
			continue
		}
		if v, ok := flagVal("-server"); ok {
			server = v
			continue
		}
		if v, ok := flagVal("-db"); ok {
			dbPath = v
			continue
		}
		if v, ok := flagVal("-log-level"); ok {
			logLevel = v
			continue
		}
		if args[i] == "-h" || args[i] == "-help" || args[i] == "--help" {
			printUsage(stdout)
			return nil
		}
		return fmt.Errorf("unknown argument: %s", args[i])
	}

	cfg := config.Default()
	found, err := config.FindConfig(configPath)
	if err != nil {
		return err
	}
	if found != "" {
		cfg, err = config.Load(found)
		if err != nil {
			return fmt.Errorf("load config %s: %w", found, err)
		}
	}
	cfg.ApplyEnv()
	if model != "" {
		cfg.Model = model
	}
	if server != "" {
		cfg.OllamaURL = server
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger, closeLog, err := setupLogging(cfg, stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer db.Close()

	client := llm.NewOllamaClient(cfg.OllamaURL, logger)
	registry := tools.NewRegistry()
	a := agent.New(client, registry, cfg.Model, cfg.SystemPrompt, logger)
	sum := summarizer.New(client, cfg.Model, logger)

	session := &session{
		stdout:   stdout,
		logger:   logger,
		db:       db,
		client:   client,
		agent:    a,
		sum:      sum,
		registry: registry,
	}

	if err := session.enterLatestWorkspace(ctx); err != nil {
		return err
	}

	session.printBanner(cfg)
	checkServer(ctx, client, stdout, cfg.OllamaURL)
	return session.repl(ctx)
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `hearth - local conversational coding assistant

  -config file      config file path (default: search hearth.yaml, ~/.config/hearth/, /etc/hearth/)
  -model name       model to use (default qwen3:4b)
  -server url       Ollama server URL (default http://localhost:11434)
  -db path          history database path (default hearth.sqlite)
  -log-level level  trace, debug, info, warn, error

Type /help inside the session for workspace commands.
`)
}

// setupLogging sends structured logs to the configured log file. Nothing
// goes to the terminal: it belongs to the conversation.
func setupLogging(cfg *config.Config, stderr io.Writer) (*slog.Logger, func(), error) {
	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	var w io.Writer = stderr
	closeLog := func() {}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeLog = func() { f.Close() }
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}))
	return logger, closeLog, nil
}

// session holds the live REPL state: the current workspace and how many
// pairs it has gained since it was entered.
type session struct {
	stdout   io.Writer
	logger   *slog.Logger
	db       *store.Store
	client   *llm.OllamaClient
	agent    *agent.Agent
	sum      *summarizer.Summarizer
	registry *tools.Registry

	workspace store.Workspace
	newPairs  int
}

// enterLatestWorkspace selects the most recent workspace, creating one
// when the store is empty, and loads its history and summary.
func (s *session) enterLatestWorkspace(ctx context.Context) error {
	workspaces, err := s.db.ListWorkspaces()
	if err != nil {
		return err
	}
	if len(workspaces) == 0 {
		if _, err := s.db.CreateWorkspace(newWorkspaceName); err != nil {
			return err
		}
		workspaces, err = s.db.ListWorkspaces()
		if err != nil {
			return err
		}
	}
	return s.enterWorkspace(ctx, workspaces[0])
}

// enterWorkspace switches the agent to a workspace, refreshing the
// summary of the one being left when it accumulated enough new turns.
func (s *session) enterWorkspace(ctx context.Context, w store.Workspace) error {
	if s.workspace.ID != 0 && s.workspace.ID != w.ID && s.newPairs >= summaryRefreshThreshold {
		s.refreshSummary(ctx, s.workspace.ID)
	}

	pairs, err := s.db.LoadHistory(w.ID)
	if err != nil {
		return err
	}
	history := make([][2]string, len(pairs))
	for i, p := range pairs {
		history[i] = [2]string{p.User, p.Assistant}
	}
	s.agent.LoadHistory(history)

	summary, _, ok, err := s.db.ContextSummary(w.ID)
	if err != nil {
		return err
	}
	if ok {
		s.agent.SetContextSummary(summary)
	} else {
		s.agent.SetContextSummary("")
	}

	s.workspace = w
	s.newPairs = 0
	s.logger.Info("entered workspace", "id", w.ID, "name", w.Name, "pairs", len(pairs))
	return nil
}

// refreshSummary recomputes and persists a workspace's context summary.
// A bracketed error result is shown but never persisted.
func (s *session) refreshSummary(ctx context.Context, workspaceID int64) {
	pairs, err := s.db.LoadHistory(workspaceID)
	if err != nil || len(pairs) == 0 {
		return
	}
	history := make([][2]string, len(pairs))
	for i, p := range pairs {
		history[i] = [2]string{p.User, p.Assistant}
	}

	summary := s.sum.Summarize(ctx, history)
	if strings.HasPrefix(summary, "[Error summarizing history:") {
		fmt.Fprintln(s.stdout, styleError.Render(summary))
		return
	}
	if err := s.db.SetContextSummary(workspaceID, summary); err != nil {
		s.logger.Error("persist summary failed", "error", err)
		return
	}
	if workspaceID == s.workspace.ID {
		s.agent.SetContextSummary(summary)
	}
	s.logger.Info("context summary refreshed", "workspace", workspaceID, "length", len(summary))
}

// checkServer warns when the model server cannot be reached at startup.
// The session still opens so workspace commands keep working offline.
func checkServer(ctx context.Context, client interface {
	Ping(context.Context) error
}, w io.Writer, serverURL string) {
	if err := client.Ping(ctx); err != nil {
		fmt.Fprintln(w, styleError.Render(
			fmt.Sprintf("Warning: cannot reach Ollama at %s (%v); replies will fail until it is running.", serverURL, err)))
		fmt.Fprintln(w)
	}
}

func (s *session) printBanner(cfg *config.Config) {
	fmt.Fprintln(s.stdout, styleTitle.Render("hearth — local AI code assistant"))
	fmt.Fprintln(s.stdout, styleDim.Render(fmt.Sprintf("model %s · server %s · workspace %q",
		cfg.Model, cfg.OllamaURL, s.workspace.Name)))
	fmt.Fprintln(s.stdout, styleDim.Render("Type 'exit' or 'quit' to end the conversation, /help for commands."))
	fmt.Fprintln(s.stdout)
}

// repl runs the line-based read/print loop until exit, EOF, or signal.
func (s *session) repl(ctx context.Context) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	for {
		if ctx.Err() != nil {
			fmt.Fprintln(s.stdout, "\nGoodbye!")
			return nil
		}

		input, err := line.Prompt(stylePrompt.Render("You: "))
		if err != nil {
			// Ctrl-C or Ctrl-D both end the session cleanly.
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(s.stdout, "\nGoodbye!")
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if lower := strings.ToLower(input); lower == "exit" || lower == "quit" {
			if s.newPairs >= summaryRefreshThreshold {
				s.refreshSummary(ctx, s.workspace.ID)
			}
			fmt.Fprintln(s.stdout, "Goodbye!")
			return nil
		}

		if strings.HasPrefix(input, "/") {
			if err := s.command(ctx, input); err != nil {
				fmt.Fprintln(s.stdout, styleError.Render(err.Error()))
			}
			continue
		}

		s.turn(ctx, input)
	}
}

// turn runs one conversation turn, streaming fragments as they arrive,
// and persists the completed pair.
func (s *session) turn(ctx context.Context, input string) {
	fmt.Fprint(s.stdout, "\nAssistant: ")
	reply := s.agent.Chat(ctx, input, func(fragment string) {
		fmt.Fprint(s.stdout, fragment)
	})
	fmt.Fprint(s.stdout, "\n\n")

	if err := s.db.AppendHistory(s.workspace.ID, input, reply); err != nil {
		s.logger.Error("append history failed", "error", err)
		return
	}
	s.newPairs++

	// A fresh workspace takes its name from the first message.
	if s.workspace.Name == newWorkspaceName {
		name := firstRunes(input, 40)
		if err := s.db.RenameWorkspace(s.workspace.ID, name); err == nil {
			s.workspace.Name = name
		}
	}
}

// command handles a /slash command.
func (s *session) command(ctx context.Context, input string) error {
	fields := strings.Fields(input)
	cmd, rest := fields[0], strings.TrimSpace(strings.TrimPrefix(input, fields[0]))

	switch cmd {
	case "/help":
		fmt.Fprint(s.stdout, `Commands:
  /workspaces        list workspaces
  /switch <id>       switch to a workspace
  /new [name]        create and enter a workspace
  /rename <name>     rename the current workspace
  /clear             clear the current workspace's history
  /delete <id>       delete a workspace and its history
  /summarize         refresh the context summary now
  /models            list models available on the server
  /help              this text
`)
		return nil

	case "/workspaces":
		workspaces, err := s.db.ListWorkspaces()
		if err != nil {
			return err
		}
		for _, w := range workspaces {
			marker := "  "
			if w.ID == s.workspace.ID {
				marker = "* "
			}
			fmt.Fprintf(s.stdout, "%s%d  %s  %s\n", marker, w.ID, w.Name,
				styleDim.Render(w.CreatedAt.Format("2006-01-02 15:04")))
		}
		return nil

	case "/switch":
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return fmt.Errorf("usage: /switch <id>")
		}
		workspaces, err := s.db.ListWorkspaces()
		if err != nil {
			return err
		}
		for _, w := range workspaces {
			if w.ID == id {
				if err := s.enterWorkspace(ctx, w); err != nil {
					return err
				}
				fmt.Fprintf(s.stdout, "Switched to workspace %d %q\n", w.ID, w.Name)
				return nil
			}
		}
		return fmt.Errorf("no workspace with id %d", id)

	case "/new":
		name := rest
		if name == "" {
			name = newWorkspaceName
		}
		id, err := s.db.CreateWorkspace(name)
		if err != nil {
			return err
		}
		if err := s.enterWorkspace(ctx, store.Workspace{ID: id, Name: name}); err != nil {
			return err
		}
		fmt.Fprintf(s.stdout, "Created workspace %d %q\n", id, name)
		return nil

	case "/rename":
		if rest == "" {
			return fmt.Errorf("usage: /rename <name>")
		}
		if err := s.db.RenameWorkspace(s.workspace.ID, rest); err != nil {
			return err
		}
		s.workspace.Name = rest
		fmt.Fprintf(s.stdout, "Renamed workspace to %q\n", rest)
		return nil

	case "/clear":
		if err := s.db.ClearHistory(s.workspace.ID); err != nil {
			return err
		}
		s.agent.LoadHistory(nil)
		s.newPairs = 0
		fmt.Fprintln(s.stdout, "History cleared.")
		return nil

	case "/delete":
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return fmt.Errorf("usage: /delete <id>")
		}
		if id == s.workspace.ID {
			return fmt.Errorf("cannot delete the active workspace; /switch away first")
		}
		if err := s.db.DeleteWorkspace(id); err != nil {
			return err
		}
		fmt.Fprintf(s.stdout, "Deleted workspace %d\n", id)
		return nil

	case "/summarize":
		s.refreshSummary(ctx, s.workspace.ID)
		summary, at, ok, err := s.db.ContextSummary(s.workspace.ID)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(s.stdout, "No summary available.")
			return nil
		}
		fmt.Fprintf(s.stdout, "Context summary (updated %s):\n%s\n",
			at.Format("2006-01-02 15:04"), summary)
		return nil

	case "/models":
		models, err := s.client.ListModels(ctx)
		if err != nil {
			return err
		}
		for _, m := range models {
			fmt.Fprintln(s.stdout, m)
		}
		return nil

	default:
		return fmt.Errorf("unknown command %s (try /help)", cmd)
	}
}

// firstRunes returns at most n runes of s, on a single line.
func firstRunes(s string, n int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
