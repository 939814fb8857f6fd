package builtins

import (
	"math"
	"strings"
	"testing"

	"github.com/xirelogy/go-mumei/internal/runtime"
	"github.com/xirelogy/go-mumei/internal/value"
)

func call(t *testing.T, name string, args ...value.Value) (value.Value, error) {
	t.Helper()
	spec, ok := runtime.LookupByName(name)
	if !ok {
		t.Fatalf("builtin %s is not registered", name)
	}
	return spec.Handler(nil, args)
}

func list(items ...value.Value) value.Value { return value.NewList(items) }

func TestBuiltinResults(t *testing.T) {
	n, s := value.Number, value.String
	tests := []struct {
		name string
		args []value.Value
		want string
	}{
		{"len", []value.Value{s("héllo")}, "5"},
		{"len", []value.Value{list(n(1), n(2))}, "2"},
		{"str", []value.Value{n(2.5)}, "2.5"},
		{"num", []value.Value{s(" 42 ")}, "42"},
		{"num", []value.Value{value.Bool(true)}, "1"},
		{"bool", []value.Value{s("")}, "false"},
		{"type", []value.Value{list()}, "list"},
		{"abs", []value.Value{n(-3)}, "3"},
		{"floor", []value.Value{n(2.7)}, "2"},
		{"ceil", []value.Value{n(2.1)}, "3"},
		{"round", []value.Value{n(2.5)}, "3"},
		{"sqrt", []value.Value{n(16)}, "4"},
		{"min", []value.Value{n(3), n(-1)}, "-1"},
		{"max", []value.Value{n(3), n(-1)}, "3"},
		{"upper", []value.Value{s("abc")}, "ABC"},
		{"lower", []value.Value{s("ABC")}, "abc"},
		{"join", []value.Value{list(s("a"), n(1)), s("-")}, "a-1"},
	}
	for _, tt := range tests {
		got, err := call(t, tt.name, tt.args...)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got.String() != tt.want {
			t.Fatalf("%s: expected %s, got %s", tt.name, tt.want, got.String())
		}
	}
}

func TestBuiltinErrors(t *testing.T) {
	n, s := value.Number, value.String
	tests := []struct {
		name string
		args []value.Value
		want string
	}{
		{"len", []value.Value{n(1)}, "has no length"},
		{"num", []value.Value{s("abc")}, "Cannot convert 'abc'"},
		{"sqrt", []value.Value{n(-1)}, "negative"},
		{"pop", []value.Value{list()}, "empty list"},
		{"upper", []value.Value{n(1)}, "Expected string"},
		{"range", []value.Value{n(0), n(1e9)}, "exceeds the limit"},
		{"range", []value.Value{n(-9e18), n(9e18)}, "exceeds the limit"},
		{"range", []value.Value{n(0), n(math.Inf(1))}, "exceeds the limit"},
		{"range", []value.Value{n(math.NaN()), n(1)}, "exceeds the limit"},
		{"range", []value.Value{n(1e19), n(1e19 + 1e6)}, "bounds must lie within"},
		{"assert", []value.Value{value.Bool(false), s("boom")}, "Assertion failed: boom"},
		{"assert", nil, "takes 2 arguments"},
	}
	for _, tt := range tests {
		_, err := call(t, tt.name, tt.args...)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Fatalf("%s: expected error containing %q, got %v", tt.name, tt.want, err)
		}
	}
}

func TestCollectionsMutateInPlace(t *testing.T) {
	l := list(value.Number(1))
	if _, err := call(t, "push", l, value.Number(2)); err != nil {
		t.Fatalf("push: %v", err)
	}
	last, err := call(t, "pop", l)
	if err != nil || last.Num != 2 || len(l.List.Items) != 1 {
		t.Fatalf("pop: %v %v, items %d", last, err, len(l.List.Items))
	}

	dup, _ := call(t, "copy", l)
	call(t, "push", dup, value.Number(9))
	if len(l.List.Items) != 1 || len(dup.List.Items) != 2 {
		t.Fatalf("copy should not alias the original")
	}

	r, _ := call(t, "range", value.Number(2), value.Number(5))
	if len(r.List.Items) != 3 || r.List.Items[0].Num != 2 || r.List.Items[2].Num != 4 {
		t.Fatalf("unexpected range %v", r)
	}

	empty, _ := call(t, "range", value.Number(5), value.Number(-9e18))
	if len(empty.List.Items) != 0 {
		t.Fatalf("descending range should be empty, got %v", empty)
	}

	parts, _ := call(t, "split", value.String("a,b,c"), value.String(","))
	if len(parts.List.Items) != 3 || parts.List.Items[1].Str != "b" {
		t.Fatalf("unexpected split %v", parts)
	}

	if _, ok := runtime.LookupByName("PI"); ok {
		t.Fatalf("PI is a constant, not a builtin function")
	}
	if !runtime.IsConstant("PI") || !runtime.IsConstant("E") {
		t.Fatalf("math constants are not registered")
	}
}
