package vm_test

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/xirelogy/go-mumei/internal/bytecode"
	"github.com/xirelogy/go-mumei/internal/compiler"
	"github.com/xirelogy/go-mumei/internal/parser"
	"github.com/xirelogy/go-mumei/internal/value"
	"github.com/xirelogy/go-mumei/internal/vm"
)

func compileSource(t *testing.T, src string) *bytecode.ByteCode {
	t.Helper()
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	bc, err := compiler.Compile(prog)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	return bc
}

func execute(t *testing.T, src string) (value.Value, error) {
	t.Helper()
	return vm.New().Execute(compileSource(t, src))
}

func mustExecute(t *testing.T, src string) value.Value {
	t.Helper()
	v, err := execute(t, src)
	if err != nil {
		t.Fatalf("vm error: %v\n%s", err, bytecode.String(compileSource(t, src)))
	}
	return v
}

func TestVMResults(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"precedence", "2 + 3 * 4", "14"},
		{"variables", "let x = 10\nx + 5", "15"},
		{"concat", `"Hello, " + "World!"`, "Hello, World!"},
		{"mixed concat", `"n=" + 4`, "n=4"},
		{"list index", "[1, 2, 3][1]", "2"},
		{"dict member", `{"x": 42}.x`, "42"},
		{"if", "if (true) { 1 } else { 2 }", "1"},
		{"if without else", "if (false) { 1 }", "null"},
		{"elif", "let n = 5\nif n < 3 { \"small\" } elif n < 10 { \"medium\" } else { \"large\" }", "medium"},
		{"and returns operand", `0 and "x"`, "0"},
		{"or returns operand", `"" or "fallback"`, "fallback"},
		{"ternary", "let a = 3\na > 2 ? \"big\" : \"small\"", "big"},
		{"slice", `"hello"[1:3]`, "el"},
		{"open slice", "[1, 2, 3][1:]", "[2, 3]"},
		{"floor div", "-7 // 2", "-4"},
		{"shift", "1 << 4", "16"},
		{"not", "not 0", "true"},
		{"compound", "let x = 2\nx **= 3\nx", "8"},
		{"compound index", "let xs = [1, 2]\nxs[1] *= 10\nxs", "[1, 20]"},
		{"compound member", "let d = {\"n\": 1}\nd.n += 4\nd.n", "5"},
		{"builtins", `join(split(upper("a,b"), ","), "-")`, "A-B"},
		{"constants", "floor(PI * 100)", "314"},
		{"empty program", "", "null"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mustExecute(t, tt.src).String(); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestVMLoops(t *testing.T) {
	src := `
let total = 0
for i in range(0, 10) {
  if i % 2 == 0 { continue }
  if i > 7 { break }
  total += i
}
total
`
	if got := mustExecute(t, src); got.Num != 16 {
		t.Fatalf("expected 16, got %s", got)
	}

	src = `
let i = 0
let seen = []
while true {
  i += 1
  if i == 2 { continue }
  if i > 4 { break }
  push(seen, i)
}
seen
`
	if got := mustExecute(t, src).String(); got != "[1, 3, 4]" {
		t.Fatalf("unexpected %q", got)
	}

	if got := mustExecute(t, `let out = ""
for ch in "abc" { out = ch + out }
out`).String(); got != "cba" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestVMFunctions(t *testing.T) {
	src := `
fun fib(n) {
  if n < 2 { return n }
  return fib(n - 1) + fib(n - 2)
}
fib(15)
`
	if got := mustExecute(t, src); got.Num != 610 {
		t.Fatalf("expected 610, got %s", got)
	}

	src = `
let n = "outer"
fun id(n) { n }
id(1)
n
`
	if got := mustExecute(t, src).String(); got != "outer" {
		t.Fatalf("parameter binding should be restored, got %q", got)
	}

	src = `
fun find(xs, target) {
  for x in xs {
    if x == target { return "found " + x }
  }
  return "missing"
}
find([1, 2, 3], 2) + "/" + find([], 1)
`
	if got := mustExecute(t, src).String(); got != "found 2/missing" {
		t.Fatalf("unexpected %q", got)
	}

	if got := mustExecute(t, "let double = fun (x) => x * 2\ndouble(21)"); got.Num != 42 {
		t.Fatalf("expected 42, got %s", got)
	}
}

func TestVMFlatGlobals(t *testing.T) {
	// Variables declared in a function body land in the global table.
	src := `
fun f() {
  let inner = 5
}
f()
inner
`
	if got := mustExecute(t, src); got.Num != 5 {
		t.Fatalf("expected 5, got %s", got)
	}
}

func TestVMRuntimeErrors(t *testing.T) {
	tests := []struct {
		src string
		msg string
	}{
		{"[1, 2][5]", "Index 5 out of range"},
		{"1 / 0", "Division by zero"},
		{"5 % 0", "Modulo by zero"},
		{"let x = 3\nx()", "Cannot call number"},
		{"fun f(a) { a }\nf()", "f() takes 1 argument, got 0"},
		{"len(1, 2)", "len() takes 1 argument, got 2"},
		{"undefinedName", "Variable 'undefinedName' is not defined"},
		{"missing = 1", "Variable 'missing' is not defined"},
		{"const K = 1\nK = 2", "Cannot assign to constant 'K'"},
		{"PI = 3", "Cannot assign to constant 'PI'"},
		{"assert 1 == 2, \"math is broken\"", "Assertion failed: math is broken"},
		{"-\"a\"", "Cannot negate string"},
		{"1 + null", "Cannot add number and null"},
	}
	for _, tt := range tests {
		_, err := execute(t, tt.src)
		if err == nil {
			t.Fatalf("%q: expected error", tt.src)
		}
		var rerr *vm.RuntimeError
		if !errors.As(err, &rerr) {
			t.Fatalf("%q: expected *vm.RuntimeError, got %T", tt.src, err)
		}
		if !strings.Contains(err.Error(), tt.msg) {
			t.Fatalf("%q: expected %q in %q", tt.src, tt.msg, err.Error())
		}
	}

	_, err := execute(t, "let a = 1\n\na / 0")
	var rerr *vm.RuntimeError
	if !errors.As(err, &rerr) || rerr.Line != 3 || rerr.Op != bytecode.OP_DIV {
		t.Fatalf("expected DIV failure on line 3, got %#v", err)
	}
	if !errors.Is(err, value.ErrDivisionByZero) {
		t.Fatalf("expected ErrDivisionByZero in chain")
	}
}

func TestVMStackErrors(t *testing.T) {
	bc := bytecode.New()
	bc.Emit(bytecode.OP_ADD, 0, 1)
	bc.Emit(bytecode.OP_HALT, 0, 1)
	if _, err := vm.New().Execute(bc); !errors.Is(err, vm.ErrStackUnderflow) {
		t.Fatalf("expected underflow, got %v", err)
	}

	bc = bytecode.New()
	one := bc.AddConstant(value.Number(1))
	for i := 0; i < 8; i++ {
		bc.Emit(bytecode.OP_CONST, one, 1)
	}
	bc.Emit(bytecode.OP_HALT, 0, 1)
	machine := vm.New()
	machine.SetMaxStack(4)
	if _, err := machine.Execute(bc); !errors.Is(err, vm.ErrStackOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
}

func TestVMCorruptBytecodePanics(t *testing.T) {
	bc := bytecode.New()
	bc.Emit(bytecode.OP_CONST, 7, 1)
	bc.Emit(bytecode.OP_HALT, 0, 1)
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic on bad constant index")
		}
	}()
	vm.New().Execute(bc)
}

func TestVMPrintAndTrace(t *testing.T) {
	var out bytes.Buffer
	machine := vm.New()
	machine.SetOutput(&out)
	var ops []byte
	maxDepth := 0
	machine.SetTraceHook(func(info vm.TraceInfo) {
		ops = append(ops, info.Op)
		if info.StackDepth > maxDepth {
			maxDepth = info.StackDepth
		}
	})
	v, err := machine.Execute(compileSource(t, "println(1 + 2)\nprint(\"x\")"))
	if err != nil {
		t.Fatalf("vm error: %v", err)
	}
	if out.String() != "3\nx" {
		t.Fatalf("unexpected output %q", out.String())
	}
	if v.Kind != value.KindNull {
		t.Fatalf("expected null result, got %s", v)
	}
	if len(ops) == 0 || ops[len(ops)-1] != bytecode.OP_HALT {
		t.Fatalf("trace should end with HALT, got %v", ops)
	}
	if maxDepth == 0 {
		t.Fatalf("trace should report stack depth")
	}
}

func TestVMInstructionLimit(t *testing.T) {
	machine := vm.New()
	machine.SetInstructionLimit(100)
	_, err := machine.Execute(compileSource(t, "while true { pass }"))
	if !errors.Is(err, vm.ErrInstructionLimit) {
		t.Fatalf("expected instruction limit, got %v", err)
	}
}

func TestVMGlobalsPersist(t *testing.T) {
	machine := vm.New()
	if _, err := machine.Execute(compileSource(t, "let counter = 1")); err != nil {
		t.Fatalf("first run: %v", err)
	}
	v, err := machine.Execute(compileSource(t, "counter += 1\ncounter"))
	if err != nil || v.Num != 2 {
		t.Fatalf("expected 2, got %v (%v)", v, err)
	}
	if names := machine.UserGlobals(); len(names) != 1 || names[0] != "counter" {
		t.Fatalf("unexpected user globals %v", names)
	}
}

func TestNumericFastPath(t *testing.T) {
	sources := []string{
		"2 + 3 * 4",
		"(1 + 2) ** 3 - 10 / 4",
		"-(7 % 3) * 2.5",
		"1 / 3 + 1 / 3",
	}
	for _, src := range sources {
		bc := compileSource(t, src)
		if !vm.IsNumericOnly(bc) {
			t.Fatalf("%q should be numeric-only", src)
		}
		general, err := vm.New().Execute(bc)
		if err != nil {
			t.Fatalf("%q: %v", src, err)
		}
		fast, err := vm.ExecuteNumericFast(bc, 0)
		if err != nil {
			t.Fatalf("%q: %v", src, err)
		}
		if math.Abs(fast-general.Num) > 1e-12 {
			t.Fatalf("%q: fast %v != general %v", src, fast, general.Num)
		}
	}

	for _, src := range []string{"let x = 1\nx + 1", "1 < 2", "7 // 2", "\"a\" + 1", "println(1)"} {
		bc := compileSource(t, src)
		if vm.IsNumericOnly(bc) {
			t.Fatalf("%q should not be numeric-only", src)
		}
		if _, err := vm.ExecuteNumericFast(bc, 0); !errors.Is(err, vm.ErrNotNumericOnly) {
			t.Fatalf("%q: expected ErrNotNumericOnly, got %v", src, err)
		}
	}

	_, err := vm.ExecuteNumericFast(compileSource(t, "1 / (2 - 2)"), 0)
	if !errors.Is(err, value.ErrDivisionByZero) {
		t.Fatalf("expected division by zero, got %v", err)
	}
}

func TestJIT(t *testing.T) {
	jit, err := vm.NewJIT(16, 0)
	if err != nil {
		t.Fatalf("new jit: %v", err)
	}
	defer jit.Close()

	bc := compileSource(t, "(2 + 3) * 4 - 2 ** 3")
	for i := 0; i < 2; i++ {
		got, err := jit.Run(bc)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if got != 12 {
			t.Fatalf("expected 12, got %v", got)
		}
	}
	stats := jit.Stats()
	if stats.Compiled < 1 || stats.Compiled+stats.Hits != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if jit.Key(bc) != jit.Key(bc.Clone()) {
		t.Fatalf("equal bytecode should hash equally")
	}
	if jit.Key(bc) == jit.Key(compileSource(t, "(2 + 3) * 4 - 2 ** 2")) {
		t.Fatalf("different constants should hash differently")
	}

	if _, err := jit.Compile(compileSource(t, "let x = 1")); !errors.Is(err, vm.ErrNotNumericOnly) {
		t.Fatalf("expected ErrNotNumericOnly, got %v", err)
	}

	routine, err := jit.Compile(compileSource(t, "1 % 0"))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, err := routine(); !errors.Is(err, value.ErrModuloByZero) {
		t.Fatalf("expected modulo by zero, got %v", err)
	}
}

func TestHostGlobals(t *testing.T) {
	machine := vm.New()
	machine.DefineGlobal("limit", value.Number(3))
	if _, err := machine.Execute(compileSource(t, "let doubled = limit * 2")); err != nil {
		t.Fatalf("execute: %v", err)
	}
	got, ok := machine.Global("doubled")
	if !ok || got.Num != 6 {
		t.Fatalf("expected doubled = 6, got %v (%v)", got, ok)
	}
	if _, ok := machine.Global("missing"); ok {
		t.Fatalf("missing global should not be found")
	}
}

func nested(depth int) string {
	return strings.Repeat("1 + (", depth) + "1" + strings.Repeat(")", depth)
}

func TestNumericStackLimit(t *testing.T) {
	const limit = 8
	jit, err := vm.NewJIT(16, limit)
	if err != nil {
		t.Fatalf("new jit: %v", err)
	}
	defer jit.Close()

	tests := []struct {
		src  string
		want error
	}{
		{nested(limit - 1), nil},
		{nested(limit), vm.ErrStackOverflow},
		{nested(limit * 4), vm.ErrStackOverflow},
		{"1 / 0 + " + nested(limit), value.ErrDivisionByZero},
	}
	for _, tt := range tests {
		bc := compileSource(t, tt.src)
		machine := vm.New()
		machine.SetMaxStack(limit)
		general, gerr := machine.Execute(bc)
		fast, ferr := vm.ExecuteNumericFast(bc, limit)
		lowered, jerr := jit.Run(bc)
		for name, err := range map[string]error{"vm": gerr, "fast": ferr, "jit": jerr} {
			if tt.want == nil && err != nil {
				t.Fatalf("%s %q: %v", name, tt.src, err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("%s %q: expected %v, got %v", name, tt.src, tt.want, err)
			}
		}
		if tt.want == nil && (fast != general.Num || lowered != general.Num) {
			t.Fatalf("%q: vm %v, fast %v, jit %v", tt.src, general.Num, fast, lowered)
		}
	}
}

func TestMaxFrames(t *testing.T) {
	bc := compileSource(t, "fun d(n) {\n  if n == 0 { return 0 }\n  return 1 + d(n - 1)\n}\nd(50)")
	machine := vm.New()
	machine.SetMaxFrames(20)
	if _, err := machine.Execute(bc); !errors.Is(err, vm.ErrStackOverflow) {
		t.Fatalf("expected call stack overflow, got %v", err)
	}
	machine.SetMaxFrames(100)
	got, err := machine.Execute(bc)
	if err != nil || got.Num != 50 {
		t.Fatalf("expected 50, got %v (%v)", got, err)
	}
}
