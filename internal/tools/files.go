package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

func (r *Registry) registerFiles() {
	r.register(&Tool{
		Name:        "read_file",
		Description: "Read the contents of a file at the specified path",
		Schema: objectSchema(map[string]any{
			"path": strSchema("The path to the file to read"),
		}, []string{"path"}),
		Params: []Param{{Name: "path", Required: true}},
		Handler: func(args map[string]any) string {
			return readFile(strArg(args, "path"))
		},
	})

	r.register(&Tool{
		Name:        "list_files",
		Description: "List all files and directories in the specified path",
		Schema: objectSchema(map[string]any{
			"path": strSchema("The directory path to list (defaults to current directory)"),
		}, nil),
		Params: []Param{{Name: "path"}},
		Handler: func(args map[string]any) string {
			path := "."
			if _, ok := args["path"]; ok {
				path = strArg(args, "path")
			}
			return listFiles(path)
		},
	})

	r.register(&Tool{
		Name:        "edit_file",
		Description: "Edit a file by replacing old_text with new_text. Creates the file if it doesn't exist.",
		Schema: objectSchema(map[string]any{
			"path":     strSchema("The path to the file to edit"),
			"old_text": strSchema("The text to search for and replace (leave empty to create new file)"),
			"new_text": strSchema("The text to replace old_text with"),
		}, []string{"path", "new_text"}),
		Params: []Param{
			{Name: "path", Required: true},
			{Name: "old_text"},
			{Name: "new_text", Required: true},
		},
		Handler: func(args map[string]any) string {
			oldText := ""
			if _, ok := args["old_text"]; ok {
				oldText = strArg(args, "old_text")
			}
			return editFile(strArg(args, "path"), oldText, strArg(args, "new_text"))
		},
	})
}

func readFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Sprintf("File not found: %s", path)
		}
		return fmt.Sprintf("Error reading file: %v", err)
	}
	return fmt.Sprintf("File contents of %s:\n%s", path, data)
}

func listFiles(path string) string {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Sprintf("Path not found: %s", path)
		}
		return fmt.Sprintf("Error listing files: %v", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	items := make([]string, 0, len(names))
	for _, name := range names {
		info, err := os.Stat(filepath.Join(path, name))
		if err == nil && info.IsDir() {
			items = append(items, fmt.Sprintf("[DIR]  %s/", name))
		} else {
			items = append(items, fmt.Sprintf("[FILE] %s", name))
		}
	}

	if len(items) == 0 {
		return fmt.Sprintf("Empty directory: %s", path)
	}
	return fmt.Sprintf("Contents of %s:\n%s", path, strings.Join(items, "\n"))
}

// editFile replaces oldText with newText in an existing file, or creates
// the file (with parent directories) when it does not exist or oldText
// is empty.
func editFile(path, oldText, newText string) string {
	if _, err := os.Stat(path); err == nil && oldText != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Sprintf("Error editing file: %v", err)
		}
		content := string(data)
		if !strings.Contains(content, oldText) {
			return fmt.Sprintf("Text not found in file: %s", oldText)
		}
		content = strings.ReplaceAll(content, oldText, newText)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return fmt.Sprintf("Error editing file: %v", err)
		}
		return fmt.Sprintf("Successfully edited %s", path)
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Sprintf("Error editing file: %v", err)
		}
	}
	if err := os.WriteFile(path, []byte(newText), 0644); err != nil {
		return fmt.Sprintf("Error editing file: %v", err)
	}
	return fmt.Sprintf("Successfully created %s", path)
}

// strArg coerces an argument to string, aborting the handler otherwise.
func strArg(args map[string]any, name string) string {
	if s, ok := args[name].(string); ok {
		return s
	}
	panic(fmt.Sprintf("argument '%s' is not a string", name))
}
