package tools

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDispatch_Math(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name string
		tool string
		args map[string]any
		want string
	}{
		{"add", "add", map[string]any{"a": 2.0, "b": 3.0}, "Result: 5.0"},
		{"subtract", "subtract", map[string]any{"a": 5.0, "b": 3.0}, "Result: 2.0"},
		{"multiply", "multiply", map[string]any{"a": 9.0, "b": 8.0}, "Result: 72.0"},
		{"multiply fractional", "multiply", map[string]any{"a": 2.5, "b": 2.0}, "Result: 5.0"},
		{"divide", "divide", map[string]any{"a": 1.0, "b": 2.0}, "Result: 0.5"},
		{"divide by zero", "divide", map[string]any{"a": 1.0, "b": 0.0}, "Error: Division by zero"},
		{"sqrt", "sqrt", map[string]any{"x": 16.0}, "Result: 4.0"},
		{"sqrt negative", "sqrt", map[string]any{"x": -4.0}, "Error: Cannot take square root of negative number"},
		{"power", "power", map[string]any{"base": 2.0, "exponent": 10.0}, "Result: 1024.0"},
		{"string number coerced", "add", map[string]any{"a": "2", "b": 3.0}, "Result: 5.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Dispatch(tt.tool, tt.args)
			if got != tt.want {
				t.Errorf("Dispatch(%s, %v) = %q, want %q", tt.tool, tt.args, got, tt.want)
			}
		})
	}
}

func TestDispatch_UnknownTool(t *testing.T) {
	r := NewRegistry()
	got := r.Dispatch("nonexistent_tool", map[string]any{})
	if !strings.Contains(got, "Unknown tool") {
		t.Errorf("Dispatch(nonexistent_tool) = %q, want it to contain %q", got, "Unknown tool")
	}
}

func TestDispatch_MissingArgument(t *testing.T) {
	r := NewRegistry()

	got := r.Dispatch("add", map[string]any{"a": 1.0})
	if !strings.Contains(got, "'b'") || !strings.Contains(got, "'add'") {
		t.Errorf("missing-argument result should name the parameter and tool: %q", got)
	}
	if got != "Missing required argument 'b' for tool 'add'." {
		t.Errorf("Dispatch(add) = %q", got)
	}
}

func TestDispatch_MissingArgumentNoSideEffect(t *testing.T) {
	r := NewRegistry()
	path := filepath.Join(t.TempDir(), "should-not-exist.txt")

	got := r.Dispatch("edit_file", map[string]any{"path": path})
	if !strings.Contains(got, "Missing required argument 'new_text' for tool 'edit_file'") {
		t.Errorf("Dispatch(edit_file) = %q", got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("handler ran despite missing required argument: %s exists", path)
	}
}

func TestDispatch_ExecutionErrorRecovered(t *testing.T) {
	r := NewRegistry()

	got := r.Dispatch("add", map[string]any{"a": "not a number", "b": 1.0})
	if !strings.HasPrefix(got, "Error executing add:") {
		t.Errorf("Dispatch(add) = %q, want an %q result", got, "Error executing add:")
	}
}

func TestReadFile(t *testing.T) {
	r := NewRegistry()
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("hello\nworld"), 0644); err != nil {
		t.Fatal(err)
	}

	got := r.Dispatch("read_file", map[string]any{"path": path})
	want := "File contents of " + path + ":\nhello\nworld"
	if got != want {
		t.Errorf("read_file = %q, want %q", got, want)
	}

	got = r.Dispatch("read_file", map[string]any{"path": filepath.Join(dir, "missing.txt")})
	if !strings.HasPrefix(got, "File not found:") {
		t.Errorf("read_file missing = %q", got)
	}
}

func TestListFiles(t *testing.T) {
	r := NewRegistry()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "b.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "adir"), 0755); err != nil {
		t.Fatal(err)
	}

	got := r.Dispatch("list_files", map[string]any{"path": dir})
	want := "Contents of " + dir + ":\n[DIR]  adir/\n[FILE] b.txt"
	if got != want {
		t.Errorf("list_files = %q, want %q", got, want)
	}
}

func TestListFiles_EmptyAndMissing(t *testing.T) {
	r := NewRegistry()

	empty := t.TempDir()
	got := r.Dispatch("list_files", map[string]any{"path": empty})
	if !strings.Contains(got, "Empty directory") {
		t.Errorf("list_files empty dir = %q, want %q", got, "Empty directory")
	}

	got = r.Dispatch("list_files", map[string]any{"path": filepath.Join(empty, "nope")})
	if !strings.Contains(got, "Path not found") {
		t.Errorf("list_files missing = %q, want %q", got, "Path not found")
	}
}

func TestListFiles_DefaultsToCwd(t *testing.T) {
	r := NewRegistry()
	got := r.Dispatch("list_files", map[string]any{})
	if strings.Contains(got, "Missing required argument") {
		t.Errorf("list_files without path should default, got %q", got)
	}
	if !strings.HasPrefix(got, "Contents of .") && !strings.HasPrefix(got, "Empty directory") {
		t.Errorf("list_files default = %q", got)
	}
}

func TestEditFile_RoundTrip(t *testing.T) {
	r := NewRegistry()
	path := filepath.Join(t.TempDir(), "f.txt")

	got := r.Dispatch("edit_file", map[string]any{"path": path, "old_text": "", "new_text": "X"})
	if got != "Successfully created "+path {
		t.Fatalf("create = %q", got)
	}

	got = r.Dispatch("edit_file", map[string]any{"path": path, "old_text": "X", "new_text": "Y"})
	if got != "Successfully edited "+path {
		t.Fatalf("edit = %q", got)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "Y" {
		t.Errorf("file contents = %q, want %q", data, "Y")
	}
}

func TestEditFile_TextNotFoundLeavesFileUnchanged(t *testing.T) {
	r := NewRegistry()
	path := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(path, []byte("original"), 0644); err != nil {
		t.Fatal(err)
	}

	got := r.Dispatch("edit_file", map[string]any{"path": path, "old_text": "absent", "new_text": "new"})
	if got != "Text not found in file: absent" {
		t.Errorf("edit_file = %q", got)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "original" {
		t.Errorf("file changed on failed edit: %q", data)
	}
}

func TestEditFile_CreatesParentDirectories(t *testing.T) {
	r := NewRegistry()
	path := filepath.Join(t.TempDir(), "a", "b", "deep.txt")

	got := r.Dispatch("edit_file", map[string]any{"path": path, "old_text": "", "new_text": "deep"})
	if got != "Successfully created "+path {
		t.Fatalf("create = %q", got)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "deep" {
		t.Errorf("contents = %q", data)
	}
}

func TestEditFile_ReplacesAllOccurrences(t *testing.T) {
	r := NewRegistry()
	path := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(path, []byte("x repeat x"), 0644); err != nil {
		t.Fatal(err)
	}

	got := r.Dispatch("edit_file", map[string]any{"path": path, "old_text": "x", "new_text": "y"})
	if got != "Successfully edited "+path {
		t.Fatalf("edit = %q", got)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "y repeat y" {
		t.Errorf("contents = %q, want all occurrences replaced", data)
	}
}

func TestList_AdvertisementFormat(t *testing.T) {
	r := NewRegistry()
	ads := r.List()

	if len(ads) != 9 {
		t.Fatalf("List() returned %d tools, want 9", len(ads))
	}
	for _, ad := range ads {
		if ad["type"] != "function" {
			t.Errorf("advertisement type = %v", ad["type"])
		}
		fn, ok := ad["function"].(map[string]any)
		if !ok {
			t.Fatalf("missing function block: %v", ad)
		}
		name, _ := fn["name"].(string)
		if name == "" || fn["description"] == "" {
			t.Errorf("incomplete advertisement: %v", fn)
		}
		params, ok := fn["parameters"].(map[string]any)
		if !ok || params["type"] != "object" {
			t.Errorf("tool %s: bad parameter schema %v", name, fn["parameters"])
		}
	}
}

func TestFormatResult(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{72, "Result: 72.0"},
		{0.5, "Result: 0.5"},
		{-3, "Result: -3.0"},
		{0, "Result: 0.0"},
		{2.25, "Result: 2.25"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := formatResult(tt.v); got != tt.want {
				t.Errorf("formatResult(%v) = %q, want %q", tt.v, got, tt.want)
			}
		})
	}
}
