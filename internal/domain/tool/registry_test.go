package tool

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type noopExecutor struct{}

func (noopExecutor) Execute(_ context.Context, _ Arguments) (any, error) {
	return "ok", nil
}

func TestToolRegistry_RegisterAndLookup(t *testing.T) {
	t.Parallel()

	r := NewToolRegistry()
	if err := r.Register(ToolDescriptor{Name: "compute_mean", Executor: noopExecutor{}}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	d, ok := r.Lookup("compute_mean")
	if !ok {
		t.Fatal("Lookup(compute_mean) = false; want true")
	}
	if d.Name != "compute_mean" {
		t.Errorf("Name = %q; want compute_mean", d.Name)
	}

	if _, ok := r.Lookup("compute_mode"); ok {
		t.Error("Lookup of an unregistered name must fail")
	}
}

func TestToolRegistry_Register_DuplicateName(t *testing.T) {
	t.Parallel()

	r := NewToolRegistry()
	if err := r.Register(ToolDescriptor{Name: "compute_mean", Executor: noopExecutor{}}); err != nil {
		t.Fatalf("first Register returned error: %v", err)
	}
	err := r.Register(ToolDescriptor{Name: " compute_mean ", Executor: noopExecutor{}})
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
	if got := len(r.List()); got != 1 {
		t.Errorf("List() has %d entries; want 1", got)
	}
}

func TestToolRegistry_Register_InvalidDescriptor(t *testing.T) {
	t.Parallel()

	cases := map[string]ToolDescriptor{
		"empty name":      {Name: "  ", Executor: noopExecutor{}},
		"nil executor":    {Name: "compute_mean"},
		"empty param":     {Name: "x", Executor: noopExecutor{}, Params: []Param{{Name: ""}}},
		"duplicate param": {Name: "y", Executor: noopExecutor{}, Params: []Param{{Name: "a"}, {Name: "a"}}},
	}
	for name, d := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if err := NewToolRegistry().Register(d); !errors.Is(err, ErrInvalidDescriptor) {
				t.Fatalf("expected ErrInvalidDescriptor, got %v", err)
			}
		})
	}
}

func TestToolRegistry_List_InsertionOrder(t *testing.T) {
	t.Parallel()

	r := NewToolRegistry()
	names := []string{"summarize_dataset", "compute_mean", "compute_median", "compute_std", "get_stock_price"}
	for _, n := range names {
		if err := r.Register(ToolDescriptor{Name: n, Executor: noopExecutor{}}); err != nil {
			t.Fatalf("Register(%s) error: %v", n, err)
		}
	}

	got := make([]string, 0, len(names))
	for _, d := range r.List() {
		got = append(got, d.Name)
	}
	if !reflect.DeepEqual(got, names) {
		t.Fatalf("List() = %v; want %v", got, names)
	}
}

func TestToolRegistry_ValidateArguments(t *testing.T) {
	t.Parallel()

	r := NewToolRegistry()
	err := r.Register(ToolDescriptor{
		Name:     "compute_mean",
		Params:   []Param{{Name: "column", Required: true}, {Name: "note"}},
		Executor: noopExecutor{},
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if err := r.ValidateArguments("compute_mean", Arguments{"column": "revenue"}); err != nil {
		t.Fatalf("valid arguments rejected: %v", err)
	}
	if err := r.ValidateArguments("compute_mean", Arguments{"column": "revenue", "extra": "1"}); err != nil {
		t.Fatalf("extra arguments must be ignored, got %v", err)
	}

	for _, args := range []Arguments{{}, {"column": ""}, {"column": "   "}, {"note": "x"}} {
		err := r.ValidateArguments("compute_mean", args)
		var missing *MissingArgumentError
		if !errors.As(err, &missing) || missing.Name != "column" {
			t.Errorf("ValidateArguments(%v) = %v; want MissingArgumentError{column}", args, err)
		}
		if !errors.Is(err, ErrMissingArgument) {
			t.Errorf("ValidateArguments(%v) does not wrap ErrMissingArgument", args)
		}
	}

	if err := r.ValidateArguments("nope", Arguments{}); !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
}

func TestValidateAgainstMinimalSchema_IgnoresUnlistedArguments(t *testing.T) {
	t.Parallel()

	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"symbol": map[string]any{"type": "string"}},
		"required":   []any{"symbol"},
	}

	if err := validateAgainstMinimalSchema(Arguments{"symbol": "IBM", "x": "1"}, schema); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	var missing *MissingArgumentError
	if err := validateAgainstMinimalSchema(Arguments{"x": "1"}, schema); !errors.As(err, &missing) || missing.Name != "symbol" {
		t.Fatalf("expected MissingArgumentError{symbol}, got %v", err)
	}
}

func TestToolDescriptor_InputSchema(t *testing.T) {
	t.Parallel()

	d := ToolDescriptor{
		Name:   "get_stock_price",
		Params: []Param{{Name: "symbol", Description: "Ticker", Required: true}, {Name: "interval"}},
	}
	schema := d.InputSchema()

	if schema["type"] != "object" {
		t.Errorf("type = %v; want object", schema["type"])
	}
	if got := extractStringSlice(schema["required"]); !reflect.DeepEqual(got, []string{"symbol"}) {
		t.Errorf("required = %v; want [symbol]", got)
	}
	props, ok := schema["properties"].(map[string]any)
	if !ok || len(props) != 2 {
		t.Fatalf("properties = %#v; want 2 entries", schema["properties"])
	}
	symbol, _ := props["symbol"].(map[string]any)
	if symbol["type"] != "string" || symbol["description"] != "Ticker" {
		t.Errorf("symbol property = %#v", symbol)
	}

	noParams := ToolDescriptor{Name: "summarize_dataset"}
	if _, has := noParams.InputSchema()["required"]; has {
		t.Error("a tool without required params must not advertise an empty required list")
	}
}
