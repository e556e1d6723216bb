package tool

import (
	"context"
	"strings"
)

// Arguments are the string-valued inputs of one invocation.
type Arguments map[string]string

// Get returns the trimmed value of name, "" when absent.
func (a Arguments) Get(name string) string {
	return strings.TrimSpace(a[name])
}

// ToolExecutor defines the runtime contract for executable tools.
// The returned value is a string or a float64.
type ToolExecutor interface {
	Execute(ctx context.Context, args Arguments) (any, error)
}

// ExecutorFunc adapts a plain function to ToolExecutor.
type ExecutorFunc func(ctx context.Context, args Arguments) (any, error)

func (f ExecutorFunc) Execute(ctx context.Context, args Arguments) (any, error) {
	return f(ctx, args)
}

// Param declares one named string argument.
type Param struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

// ToolDescriptor is a named, schema-described unit of computation.
type ToolDescriptor struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Params      []Param      `json:"parameters"`
	Executor    ToolExecutor `json:"-"`
}

// RequiredParams lists the names of the required parameters in declaration order.
func (d *ToolDescriptor) RequiredParams() []string {
	out := make([]string, 0, len(d.Params))
	for _, p := range d.Params {
		if p.Required {
			out = append(out, p.Name)
		}
	}
	return out
}

// InputSchema derives the JSON schema advertised to clients. Every parameter
// is a string; extra properties are tolerated and ignored.
func (d *ToolDescriptor) InputSchema() map[string]any {
	props := make(map[string]any, len(d.Params))
	for _, p := range d.Params {
		prop := map[string]any{"type": "string"}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		props[p.Name] = prop
	}

	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if req := d.RequiredParams(); len(req) > 0 {
		required := make([]any, len(req))
		for i, name := range req {
			required[i] = name
		}
		schema["required"] = required
	}
	return schema
}
