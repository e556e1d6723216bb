package tool

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDuplicateName     = errors.New("tool name already registered")
	ErrInvalidDescriptor = errors.New("invalid tool descriptor")
	ErrToolNotFound      = errors.New("tool not found")
	ErrMissingArgument   = errors.New("missing required argument")
)

// ToolRegistry maps tool names to descriptors. It is populated once at
// start-up and only read afterwards, so lookups need no locking.
type ToolRegistry struct {
	byName map[string]*ToolDescriptor
	order  []*ToolDescriptor
}

func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{byName: make(map[string]*ToolDescriptor)}
}

func (r *ToolRegistry) Register(d ToolDescriptor) error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" || d.Executor == nil {
		return fmt.Errorf("%w: name and executor are required", ErrInvalidDescriptor)
	}
	seen := make(map[string]struct{}, len(d.Params))
	for _, p := range d.Params {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: %s: parameter with empty name", ErrInvalidDescriptor, d.Name)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("%w: %s: duplicate parameter %q", ErrInvalidDescriptor, d.Name, p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	if _, exists := r.byName[d.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateName, d.Name)
	}

	d.Params = append([]Param(nil), d.Params...)
	r.byName[d.Name] = &d
	r.order = append(r.order, &d)
	return nil
}

func (r *ToolRegistry) Lookup(name string) (*ToolDescriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// List returns the descriptors in registration order.
func (r *ToolRegistry) List() []*ToolDescriptor {
	out := make([]*ToolDescriptor, len(r.order))
	copy(out, r.order)
	return out
}

// ValidateArguments checks args against the input schema of the named tool.
func (r *ToolRegistry) ValidateArguments(name string, args Arguments) error {
	d, ok := r.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return validateAgainstMinimalSchema(args, d.InputSchema())
}

// validateAgainstMinimalSchema enforces "required"; a blank value counts as
// missing. Arguments the schema does not list are ignored.
func validateAgainstMinimalSchema(input Arguments, schema map[string]any) error {
	for _, key := range extractStringSlice(schema["required"]) {
		if input.Get(key) == "" {
			return &MissingArgumentError{Name: key}
		}
	}
	return nil
}

func extractStringSlice(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		s, ok := item.(string)
		if ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
