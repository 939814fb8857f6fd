package mumei

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oarkflow/log"

	"github.com/xirelogy/go-mumei/internal/compiler"
	"github.com/xirelogy/go-mumei/internal/config"
	"github.com/xirelogy/go-mumei/internal/interpreter"
	"github.com/xirelogy/go-mumei/internal/lexer"
	"github.com/xirelogy/go-mumei/internal/parser"
	"github.com/xirelogy/go-mumei/internal/token"
	"github.com/xirelogy/go-mumei/internal/value"
	"github.com/xirelogy/go-mumei/internal/vm"
)

var quiet = &log.Logger{Level: log.ErrorLevel, Writer: &log.IOWriter{Writer: io.Discard}}

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithLogger(quiet)}, opts...)
	e, err := New(opts...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func TestBackendsAgreeOnArithmetic(t *testing.T) {
	e := newEngine(t)
	sources := []string{
		"2 + 3 * 4",
		"(10 - 4) / 4",
		"2 ** 10 % 7",
		"-(3 * 3) + 0.5",
		"let x = 10\nx + 5",
	}
	for _, src := range sources {
		interpreted, err := e.Evaluate(src)
		if err != nil {
			t.Fatalf("%q: evaluate: %v", src, err)
		}
		h, err := e.CompileToBytecode(src)
		if err != nil {
			t.Fatalf("%q: compile: %v", src, err)
		}
		executed, err := e.ExecuteBytecode(h)
		if err != nil {
			t.Fatalf("%q: execute: %v", src, err)
		}
		if interpreted != executed {
			t.Fatalf("%q: interpreter %s, vm %s", src, interpreted, executed)
		}
	}
}

func TestEvaluate(t *testing.T) {
	var out bytes.Buffer
	e := newEngine(t, WithStdout(&out))
	got, err := e.Evaluate("println(\"hi\")\n[1, 2, 3][1]")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got != "2" || out.String() != "hi\n" {
		t.Fatalf("unexpected result %q / output %q", got, out.String())
	}

	_, err = e.Evaluate("const PI2 = 3.14\nPI2 = 2.0")
	if err == nil || !strings.Contains(err.Error(), "PI2") {
		t.Fatalf("expected constant error, got %v", err)
	}

	_, err = e.Evaluate("let = 1")
	var perr *parser.Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected parse error, got %T %v", err, err)
	}

	_, err = e.Evaluate("try { 1 } catch (e) { 2 }\nthrow \"x\"")
	var terr *interpreter.ThrowError
	if !errors.As(err, &terr) || terr.Value.Str != "x" {
		t.Fatalf("expected thrown value, got %v", err)
	}
}

func TestTokenizeAndFormat(t *testing.T) {
	e := newEngine(t)
	toks, err := e.Tokenize("let x = 1")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if toks[0].Type != token.Let || toks[len(toks)-1].Type != token.EOF {
		t.Fatalf("unexpected tokens %v", toks)
	}
	_, err = e.Tokenize("\"open")
	var lerr *lexer.Error
	if !errors.As(err, &lerr) {
		t.Fatalf("expected lex error, got %v", err)
	}

	text, err := e.FormatAST("1 + 2")
	if err != nil || text == "" {
		t.Fatalf("format: %q %v", text, err)
	}
}

func TestCompileAndExecute(t *testing.T) {
	var out bytes.Buffer
	e := newEngine(t, WithStdout(&out))
	h, err := e.CompileToBytecode("fun sq(n) { return n * n }\nprintln(sq(6))\nsq(7)")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	got, err := e.ExecuteBytecode(h)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got != "49" || out.String() != "36\n" {
		t.Fatalf("unexpected result %q / output %q", got, out.String())
	}

	listing, err := e.Disassemble(h)
	if err != nil || !strings.Contains(listing, "OP_CALL") {
		t.Fatalf("unexpected listing %q (%v)", listing, err)
	}

	if err := e.ReleaseBytecode(h); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := e.ExecuteBytecode(h); !errors.Is(err, ErrUnknownHandle) {
		t.Fatalf("expected ErrUnknownHandle, got %v", err)
	}

	_, err = e.CompileToBytecode("class A {\n  fun f() { 1 }\n}")
	var cerr *compiler.Error
	if !errors.As(err, &cerr) {
		t.Fatalf("expected compile error, got %v", err)
	}

	h, _ = e.CompileToBytecode("[1, 2][-1]")
	_, err = e.ExecuteBytecode(h)
	var rerr *vm.RuntimeError
	if !errors.As(err, &rerr) || !strings.Contains(err.Error(), "non-negative integer") {
		t.Fatalf("expected index error, got %v", err)
	}
}

func TestExecuteBytecodeFast(t *testing.T) {
	for _, jit := range []bool{true, false} {
		cfg := config.Default()
		cfg.JIT.Enabled = jit
		e := newEngine(t, WithConfig(cfg))

		h, _ := e.CompileToBytecode("(2 + 3) * 4")
		got, err := e.ExecuteBytecodeFast(h)
		if err != nil || got != 20 {
			t.Fatalf("jit=%v: expected 20, got %v (%v)", jit, got, err)
		}

		h, _ = e.CompileToBytecode("let x = 4\nx * 2")
		got, err = e.ExecuteBytecodeFast(h)
		if err != nil || got != 8 {
			t.Fatalf("jit=%v: fallback expected 8, got %v (%v)", jit, got, err)
		}

		h, _ = e.CompileToBytecode("\"text\"")
		if _, err := e.ExecuteBytecodeFast(h); err == nil {
			t.Fatalf("jit=%v: non-numeric result should fail", jit)
		}

		h, _ = e.CompileToBytecode("1 / 0")
		if _, err := e.ExecuteBytecodeFast(h); !errors.Is(err, value.ErrDivisionByZero) {
			t.Fatalf("jit=%v: expected division by zero, got %v", jit, err)
		}
	}
}

func TestCompileCacheStats(t *testing.T) {
	e := newEngine(t)
	for i := 0; i < 3; i++ {
		if _, err := e.CompileToBytecode("1 + 1"); err != nil {
			t.Fatalf("compile: %v", err)
		}
	}
	stats := e.CacheStats()
	if stats.Hits != 2 || stats.Misses != 1 || stats.Entries != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	e.ClearCache()
	if stats := e.CacheStats(); stats.Entries != 0 || stats.Hits != 0 {
		t.Fatalf("clear failed: %+v", stats)
	}

	cfg := config.Default()
	cfg.Cache.Enabled = false
	uncached := newEngine(t, WithConfig(cfg))
	uncached.CompileToBytecode("1 + 1")
	uncached.CompileToBytecode("1 + 1")
	if stats := uncached.CacheStats(); stats.Misses != 0 || stats.Hits != 0 {
		t.Fatalf("disabled cache should stay untouched: %+v", stats)
	}
}

func TestPersistentStore(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.StorePath = filepath.Join(t.TempDir(), "mumei.db")

	first := newEngine(t, WithConfig(cfg))
	if _, err := first.CompileToBytecode("2 * 21"); err != nil {
		t.Fatalf("compile: %v", err)
	}
	first.Close()

	second := newEngine(t, WithConfig(cfg))
	h, err := second.CompileToBytecode("2 * 21")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if stats := second.CacheStats(); stats.Hits != 1 || stats.Misses != 0 {
		t.Fatalf("expected a store hit, got %+v", stats)
	}
	if got, err := second.ExecuteBytecode(h); err != nil || got != "42" {
		t.Fatalf("expected 42, got %q (%v)", got, err)
	}
}

func TestSession(t *testing.T) {
	var out bytes.Buffer
	e := newEngine(t)
	s, err := e.NewSession(&out)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if _, err := s.Eval("let count = 1\nfun bump() { count += 1 }"); err != nil {
		t.Fatalf("eval: %v", err)
	}
	s.Eval("bump()")
	got, err := s.Eval("print(count)\ncount")
	if err != nil || got != "2" || out.String() != "2" {
		t.Fatalf("unexpected %q / %q (%v)", got, out.String(), err)
	}
	names := s.Names()
	if len(names) != 2 || names[0] != "bump" || names[1] != "count" {
		t.Fatalf("unexpected names %v", names)
	}
	if e.ID() == "" {
		t.Fatalf("engine id should be set")
	}
}

func TestConfiguredLimitsReachEveryBackend(t *testing.T) {
	cfg := config.Default()
	cfg.VM.MaxCallDepth = 5000
	cfg.VM.StackSize = 4096
	e := newEngine(t, WithConfig(cfg))

	src := "fun d(n) {\n  if n == 0 { return 0 }\n  return 1 + d(n - 1)\n}\nd(300)"
	interpreted, err := e.Evaluate(src)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	h, err := e.CompileToBytecode(src)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	executed, err := e.ExecuteBytecode(h)
	if err != nil || executed != interpreted || executed != "300" {
		t.Fatalf("interpreter %s, vm %s (%v)", interpreted, executed, err)
	}

	deep := strings.Repeat("1 + (", 1100) + "1" + strings.Repeat(")", 1100)
	for _, jit := range []bool{true, false} {
		for _, size := range []int{4096, 512} {
			cfg := config.Default()
			cfg.JIT.Enabled = jit
			cfg.VM.StackSize = size
			e := newEngine(t, WithConfig(cfg))
			h, err := e.CompileToBytecode(deep)
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			_, verr := e.ExecuteBytecode(h)
			fast, ferr := e.ExecuteBytecodeFast(h)
			if (verr == nil) != (ferr == nil) {
				t.Fatalf("jit=%v stack=%d: vm error %v, fast error %v", jit, size, verr, ferr)
			}
			if ferr == nil && fast != 1101 {
				t.Fatalf("jit=%v stack=%d: expected 1101, got %v", jit, size, fast)
			}
			if size == 512 && !errors.Is(ferr, vm.ErrStackOverflow) {
				t.Fatalf("jit=%v: expected stack overflow, got %v", jit, ferr)
			}
		}
	}
}

func TestCyclicAndOversizedValues(t *testing.T) {
	e := newEngine(t)
	src := "let l = [1]\npush(l, l)\nl"
	interpreted, err := e.Evaluate(src)
	if err != nil || interpreted != "[1, [...]]" {
		t.Fatalf("evaluate: %q (%v)", interpreted, err)
	}
	h, err := e.CompileToBytecode(src)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if executed, err := e.ExecuteBytecode(h); err != nil || executed != interpreted {
		t.Fatalf("execute: %q (%v)", executed, err)
	}

	if _, err := e.Evaluate("\"a\" * 10000000000000000000"); !errors.Is(err, value.ErrStringTooLong) {
		t.Fatalf("expected ErrStringTooLong, got %v", err)
	}
}
