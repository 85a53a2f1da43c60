package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hearth.yaml")

	content := `
model: qwen3:30b
ollama_url: http://gpu-box:11434
system_prompt: "You are terse."
db_path: ${HOME_DIR}/chat.sqlite
log_level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HOME_DIR", "/data")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Model != "qwen3:30b" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.OllamaURL != "http://gpu-box:11434" {
		t.Errorf("OllamaURL = %q", cfg.OllamaURL)
	}
	if cfg.DBPath != "/data/chat.sqlite" {
		t.Errorf("env expansion failed: DBPath = %q", cfg.DBPath)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	// Unset fields keep defaults.
	if cfg.LogFile != DefaultLogFile {
		t.Errorf("LogFile = %q, want default", cfg.LogFile)
	}
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hearth.yaml")
	if err := os.WriteFile(path, []byte("model: llama3.2:3b\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Model != "llama3.2:3b" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.OllamaURL != DefaultOllamaURL {
		t.Errorf("OllamaURL = %q, want default", cfg.OllamaURL)
	}
	if cfg.DBPath != DefaultDBPath {
		t.Errorf("DBPath = %q, want default", cfg.DBPath)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	t.Setenv("HEARTH_MODEL", "qwen2.5:72b")
	t.Setenv("HEARTH_DB", "/tmp/x.sqlite")

	cfg.ApplyEnv()

	if cfg.Model != "qwen2.5:72b" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.DBPath != "/tmp/x.sqlite" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.OllamaURL != DefaultOllamaURL {
		t.Errorf("untouched field changed: %q", cfg.OllamaURL)
	}
}

func TestFindConfig(t *testing.T) {
	// Explicit path must exist.
	if _, err := FindConfig("/definitely/not/here.yaml"); err == nil {
		t.Error("FindConfig() with missing explicit path should fail")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "c.yaml")
	if err := os.WriteFile(path, []byte("model: x\n"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := FindConfig(path)
	if err != nil || got != path {
		t.Errorf("FindConfig(%q) = %q, %v", path, got, err)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"info", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"trace", LevelTrace, false},
		{"debug", slog.LevelDebug, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"  debug  ", slog.LevelDebug, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLogLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLogLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestReplaceLogLevelNames(t *testing.T) {
	a := slog.Attr{Key: slog.LevelKey, Value: slog.AnyValue(LevelTrace)}
	got := ReplaceLogLevelNames(nil, a)
	if got.Value.String() != "TRACE" {
		t.Errorf("ReplaceLogLevelNames() = %q, want TRACE", got.Value.String())
	}

	// Other levels untouched.
	a = slog.Attr{Key: slog.LevelKey, Value: slog.AnyValue(slog.LevelInfo)}
	got = ReplaceLogLevelNames(nil, a)
	if got.Value.Any() != slog.LevelInfo {
		t.Errorf("ReplaceLogLevelNames() changed INFO: %v", got.Value)
	}
}
