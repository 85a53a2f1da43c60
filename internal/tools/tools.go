// Package tools defines the tools available to the agent.
//
// The registry is built once at startup and read-only afterwards. Every
// tool failure — unknown name, missing argument, handler panic — is
// converted into a plain string result so it can be fed back to the
// model as conversational content. Dispatch never returns an error.
package tools

import (
	"fmt"
	"sort"
)

// Param declares one parameter a tool accepts. Required parameters are
// validated before the handler runs; optional ones are the handler's
// problem. Declaring these explicitly, rather than reflecting on the
// handler, keeps the advertised schema the single source of truth.
type Param struct {
	Name     string
	Required bool
}

// Tool represents a callable tool.
type Tool struct {
	Name        string
	Description string
	Schema      map[string]any // JSON-schema parameter object advertised to the model
	Params      []Param
	Handler     func(args map[string]any) string
}

// Registry holds available tools.
type Registry struct {
	tools map[string]*Tool
	names []string
}

// NewRegistry creates the registry with the built-in tool set.
func NewRegistry() *Registry {
	r := &Registry{tools: make(map[string]*Tool)}
	r.registerMath()
	r.registerFiles()
	sort.Strings(r.names)
	return r
}

func (r *Registry) register(t *Tool) {
	r.tools[t.Name] = t
	r.names = append(r.names, t.Name)
}

// Get retrieves a tool by name, or nil.
func (r *Registry) Get(name string) *Tool {
	return r.tools[name]
}

// Names returns all tool names, sorted.
func (r *Registry) Names() []string {
	return r.names
}

// List returns all tools in the chat API's function-calling format.
func (r *Registry) List() []map[string]any {
	result := make([]map[string]any, 0, len(r.names))
	for _, name := range r.names {
		t := r.tools[name]
		result = append(result, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  t.Schema,
			},
		})
	}
	return result
}

// Dispatch validates arguments against the tool's declared parameters and
// invokes its handler. All failures come back as result strings.
func (r *Registry) Dispatch(name string, args map[string]any) (result string) {
	tool := r.tools[name]
	if tool == nil {
		return fmt.Sprintf("Unknown tool: %s", name)
	}

	for _, p := range tool.Params {
		if !p.Required {
			continue
		}
		if _, ok := args[p.Name]; !ok {
			return fmt.Sprintf("Missing required argument '%s' for tool '%s'.", p.Name, name)
		}
	}

	defer func() {
		if rec := recover(); rec != nil {
			result = fmt.Sprintf("Error executing %s: %v", name, rec)
		}
	}()

	return tool.Handler(args)
}

// numSchema is the shared shape for a numeric parameter.
func numSchema(desc string) map[string]any {
	return map[string]any{"type": "number", "description": desc}
}

// strSchema is the shared shape for a string parameter.
func strSchema(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func objectSchema(properties map[string]any, required []string) map[string]any {
	if required == nil {
		required = []string{}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}
