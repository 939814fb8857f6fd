package cache

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/oarkflow/log"

	"github.com/xirelogy/go-mumei/internal/bytecode"
	"github.com/xirelogy/go-mumei/internal/compiler"
	"github.com/xirelogy/go-mumei/internal/parser"
)

var quiet = &log.Logger{Level: log.ErrorLevel, Writer: &log.IOWriter{Writer: io.Discard}}

func compileSource(src string) (*bytecode.ByteCode, error) {
	prog, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	return compiler.Compile(prog)
}

func TestCompileCacheMemoizes(t *testing.T) {
	c := NewCompileCache(WithLogger(quiet))
	calls := 0
	compile := func(src string) (*bytecode.ByteCode, error) {
		calls++
		return compileSource(src)
	}

	first, err := c.GetOrCompile("let x = 2\nx * 21", compile)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	second, err := c.GetOrCompile("let x = 2\nx * 21", compile)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one compilation, got %d", calls)
	}
	if !bytecode.Equal(first, second) {
		t.Fatalf("cached bytecode differs:\n%s\n%s", bytecode.String(first), bytecode.String(second))
	}
	if first == second {
		t.Fatalf("cache should hand out copies")
	}

	first.Instructions[0].Arg = 99
	third, _ := c.Get("let x = 2\nx * 21")
	if third.Instructions[0].Arg == 99 {
		t.Fatalf("mutating a returned copy changed the cache")
	}

	stats := c.Stats()
	if stats.Hits != 2 || stats.Misses != 1 || stats.Entries != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.HitRate < 0.66 || stats.HitRate > 0.67 {
		t.Fatalf("unexpected hit rate %v", stats.HitRate)
	}

	c.Clear()
	if stats := c.Stats(); stats != (Stats{}) {
		t.Fatalf("clear should reset stats, got %+v", stats)
	}
}

func TestCompileCacheSkipsErrors(t *testing.T) {
	c := NewCompileCache(WithLogger(quiet))
	if _, err := c.GetOrCompile("try { 1 } catch (e) { 2 }", compileSource); err == nil {
		t.Fatalf("expected compile error")
	}
	if stats := c.Stats(); stats.Entries != 0 {
		t.Fatalf("errors should not be cached, got %+v", stats)
	}
}

func TestHandles(t *testing.T) {
	h := NewHandles()
	bc, _ := compileSource("1 + 2")
	a := h.Register(bc)
	b := h.Register(bc)
	if a == b {
		t.Fatalf("handles should be distinct")
	}
	got, err := h.Lookup(a)
	if err != nil || got != bc {
		t.Fatalf("lookup: %v", err)
	}
	if err := h.Release(a); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := h.Lookup(a); !errors.Is(err, ErrUnknownHandle) {
		t.Fatalf("expected ErrUnknownHandle, got %v", err)
	}
	if err := h.Release(a); !errors.Is(err, ErrUnknownHandle) {
		t.Fatalf("double release should fail, got %v", err)
	}
	if h.Len() != 1 {
		t.Fatalf("expected 1 live handle, got %d", h.Len())
	}
}

func TestStoreBacksCompileCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "code", "mumei.db")
	store, err := OpenStore(path, quiet)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	src := "fun sq(n) { return n * n }\nsq(7)"
	warm := NewCompileCache(WithStore(store), WithLogger(quiet))
	want, err := warm.GetOrCompile(src, compileSource)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if n, err := store.Count(); err != nil || n != 1 {
		t.Fatalf("expected 1 stored program, got %d (%v)", n, err)
	}

	cold := NewCompileCache(WithStore(store), WithLogger(quiet))
	got, err := cold.GetOrCompile(src, func(string) (*bytecode.ByteCode, error) {
		t.Fatalf("store hit should not recompile")
		return nil, nil
	})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytecode.Equal(want, got) {
		t.Fatalf("stored bytecode differs")
	}
	if stats := cold.Stats(); stats.Hits != 1 || stats.Misses != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	if err := store.Purge(); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if _, ok, err := store.Load(Key(src)); ok || err != nil {
		t.Fatalf("purged program still loads (%v)", err)
	}
}
