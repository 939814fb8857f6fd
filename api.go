// Package mumei embeds the Mumei scripting language. An Engine tokenizes,
// parses and evaluates source with the tree-walking interpreter, or
// compiles it to bytecode and runs it on the stack VM.
package mumei

import (
	"bytes"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/oarkflow/log"
	"github.com/pkg/errors"

	"github.com/xirelogy/go-mumei/internal/ast"
	"github.com/xirelogy/go-mumei/internal/bytecode"
	"github.com/xirelogy/go-mumei/internal/cache"
	"github.com/xirelogy/go-mumei/internal/compiler"
	"github.com/xirelogy/go-mumei/internal/config"
	"github.com/xirelogy/go-mumei/internal/interpreter"
	"github.com/xirelogy/go-mumei/internal/lexer"
	"github.com/xirelogy/go-mumei/internal/parser"
	"github.com/xirelogy/go-mumei/internal/runtime"
	"github.com/xirelogy/go-mumei/internal/token"
	"github.com/xirelogy/go-mumei/internal/value"
	"github.com/xirelogy/go-mumei/internal/vm"
)

// Handle identifies bytecode compiled by an Engine.
type Handle = cache.Handle

// CacheStats reports compile cache effectiveness.
type CacheStats = cache.Stats

// ErrUnknownHandle is returned for handles an Engine never issued or has released.
var ErrUnknownHandle = cache.ErrUnknownHandle

// Engine owns the compile cache, the handle table and the JIT. It is safe
// for concurrent use; every evaluation gets its own interpreter or VM.
type Engine struct {
	id       uuid.UUID
	cfg      *config.Config
	logger   *log.Logger
	stdout   io.Writer
	stdin    io.Reader
	importer interpreter.Importer

	compiled *cache.CompileCache
	handles  *cache.Handles
	store    *cache.Store
	jit      *vm.JIT
}

type Option func(*Engine)

func WithConfig(cfg *config.Config) Option {
	return func(e *Engine) {
		if cfg != nil {
			e.cfg = cfg
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithStdout redirects print output of Evaluate and ExecuteBytecode.
func WithStdout(w io.Writer) Option {
	return func(e *Engine) { e.stdout = w }
}

func WithStdin(r io.Reader) Option {
	return func(e *Engine) { e.stdin = r }
}

// WithImporter resolves `import` statements for the interpreter. The
// importer is shared by concurrent evaluations and must tolerate that;
// interpreter.SourceImporter does.
func WithImporter(imp interpreter.Importer) Option {
	return func(e *Engine) { e.importer = imp }
}

// New builds an Engine. With a cache store path configured the store is
// opened here and closed by Close.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		id:      uuid.New(),
		cfg:     config.Default(),
		logger:  &log.DefaultLogger,
		stdout:  os.Stdout,
		stdin:   os.Stdin,
		handles: cache.NewHandles(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	cacheOpts := []cache.Option{cache.WithLogger(e.logger)}
	if e.cfg.Cache.Enabled && e.cfg.Cache.StorePath != "" {
		store, err := cache.OpenStore(e.cfg.Cache.StorePath, e.logger)
		if err != nil {
			return nil, errors.Wrap(err, "open bytecode store")
		}
		e.store = store
		cacheOpts = append(cacheOpts, cache.WithStore(store))
	}
	e.compiled = cache.NewCompileCache(cacheOpts...)

	if e.cfg.JIT.Enabled {
		jit, err := vm.NewJIT(e.cfg.JIT.MaxRoutines, e.cfg.VM.StackSize)
		if err != nil {
			e.Close()
			return nil, errors.Wrap(err, "create jit")
		}
		e.jit = jit
	}
	e.logger.Debug().Str("engine", e.id.String()).Bool("cache", e.cfg.Cache.Enabled).Bool("jit", e.cfg.JIT.Enabled).Msg("engine ready")
	return e, nil
}

// ID is a per-engine identifier for correlating log lines.
func (e *Engine) ID() string { return e.id.String() }

func (e *Engine) Config() *config.Config { return e.cfg }

func (e *Engine) Logger() *log.Logger { return e.logger }

// Close releases the JIT and the bytecode store.
func (e *Engine) Close() error {
	if e.jit != nil {
		e.jit.Close()
		e.jit = nil
	}
	if e.store != nil {
		err := e.store.Close()
		e.store = nil
		return errors.Wrap(err, "close bytecode store")
	}
	return nil
}

// Tokenize returns the token stream of source, ending with EOF.
func (e *Engine) Tokenize(source string) ([]token.Token, error) {
	return lexer.Tokenize(source)
}

// Parse returns the syntax tree of source.
func (e *Engine) Parse(source string) (*ast.Program, error) {
	return parser.Parse(source)
}

// FormatAST renders the syntax tree of source as an indented outline.
func (e *Engine) FormatAST(source string) (string, error) {
	prog, err := parser.Parse(source)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := ast.Fprint(&buf, prog); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Evaluate runs source on a fresh interpreter and returns the value of
// its last statement as text.
func (e *Engine) Evaluate(source string) (string, error) {
	return e.EvaluateWithOutput(source, e.stdout)
}

// EvaluateWithOutput is Evaluate with print output sent to stdout.
func (e *Engine) EvaluateWithOutput(source string, stdout io.Writer) (string, error) {
	prog, err := parser.Parse(source)
	if err != nil {
		return "", err
	}
	in, err := e.newInterpreter(stdout)
	if err != nil {
		return "", err
	}
	v, err := in.Run(prog)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

func (e *Engine) newInterpreter(stdout io.Writer) (*interpreter.Interpreter, error) {
	opts := []interpreter.Option{
		interpreter.WithStdout(stdout),
		interpreter.WithStdin(e.stdin),
		interpreter.WithMaxDepth(e.cfg.VM.MaxCallDepth),
	}
	if e.importer != nil {
		opts = append(opts, interpreter.WithImporter(e.importer))
	}
	return interpreter.New(opts...)
}

// Compile returns bytecode for source, consulting the compile cache when
// enabled. Each call returns a private copy.
func (e *Engine) Compile(source string) (*bytecode.ByteCode, error) {
	if !e.cfg.Cache.Enabled {
		return compileSource(source)
	}
	return e.compiled.GetOrCompile(source, compileSource)
}

func compileSource(source string) (*bytecode.ByteCode, error) {
	prog, err := parser.Parse(source)
	if err != nil {
		return nil, err
	}
	return compiler.Compile(prog)
}

// CompileToBytecode compiles source and registers the result under a new
// handle.
func (e *Engine) CompileToBytecode(source string) (Handle, error) {
	bc, err := e.Compile(source)
	if err != nil {
		return 0, err
	}
	return e.handles.Register(bc), nil
}

// ReleaseBytecode forgets a handle.
func (e *Engine) ReleaseBytecode(h Handle) error {
	return e.handles.Release(h)
}

func (e *Engine) lookup(h Handle) (*bytecode.ByteCode, error) {
	bc, err := e.handles.Lookup(h)
	if err != nil {
		return nil, errors.Wrapf(err, "handle %d", h)
	}
	return bc, nil
}

// ExecuteBytecode runs the bytecode behind h on a fresh VM and returns
// the result as text.
func (e *Engine) ExecuteBytecode(h Handle) (string, error) {
	return e.ExecuteBytecodeWithOutput(h, e.stdout)
}

func (e *Engine) ExecuteBytecodeWithOutput(h Handle, stdout io.Writer) (string, error) {
	bc, err := e.lookup(h)
	if err != nil {
		return "", err
	}
	v, err := e.newVM(stdout).Execute(bc)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

func (e *Engine) newVM(stdout io.Writer) *vm.VM {
	machine := vm.New()
	machine.SetOutput(stdout)
	machine.SetInput(e.stdin)
	machine.SetMaxStack(e.cfg.VM.StackSize)
	machine.SetMaxFrames(e.cfg.VM.MaxCallDepth)
	machine.SetInstructionLimit(e.cfg.VM.InstructionLimit)
	return machine
}

// ExecuteBytecodeFast runs numeric-only bytecode through the JIT (or the
// float stack when the JIT is disabled). Other bytecode falls back to the
// general VM, whose result must then be a number.
func (e *Engine) ExecuteBytecodeFast(h Handle) (float64, error) {
	bc, err := e.lookup(h)
	if err != nil {
		return 0, err
	}
	start := time.Now()
	var result float64
	if e.jit != nil {
		result, err = e.jit.Run(bc)
	} else {
		result, err = vm.ExecuteNumericFast(bc, e.cfg.VM.StackSize)
	}
	if !errors.Is(err, vm.ErrNotNumericOnly) {
		return result, err
	}

	e.logger.Debug().Uint64("handle", uint64(h)).Int("instructions", bc.Len()).Msg("not numeric-only, falling back to vm")
	v, err := e.newVM(e.stdout).Execute(bc)
	if err != nil {
		return 0, err
	}
	if v.Kind != value.KindNumber {
		return 0, errors.Errorf("result is %s, not a number", v.TypeName())
	}
	e.logger.Debug().Dur("duration", time.Since(start)).Msg("vm fallback finished")
	return v.Num, nil
}

// Disassemble lists the bytecode behind h.
func (e *Engine) Disassemble(h Handle) (string, error) {
	bc, err := e.lookup(h)
	if err != nil {
		return "", err
	}
	return bytecode.String(bc), nil
}

func (e *Engine) CacheStats() CacheStats { return e.compiled.Stats() }

func (e *Engine) ClearCache() { e.compiled.Clear() }

// JITStats reports routine compilations and cache hits; zero when the JIT
// is disabled.
func (e *Engine) JITStats() vm.JITStats {
	if e.jit == nil {
		return vm.JITStats{}
	}
	return e.jit.Stats()
}

// Session keeps one interpreter alive across evaluations, the way an
// interactive prompt does. A Session is not safe for concurrent use.
type Session struct {
	in *interpreter.Interpreter
}

// NewSession starts a session whose print output goes to stdout.
func (e *Engine) NewSession(stdout io.Writer) (*Session, error) {
	if stdout == nil {
		stdout = e.stdout
	}
	in, err := e.newInterpreter(stdout)
	if err != nil {
		return nil, err
	}
	return &Session{in: in}, nil
}

// Eval runs source against the session's global scope.
func (s *Session) Eval(source string) (string, error) {
	prog, err := parser.Parse(source)
	if err != nil {
		return "", err
	}
	v, err := s.in.Run(prog)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// Names lists the session's user-defined globals.
func (s *Session) Names() []string {
	var names []string
	for _, name := range s.in.Globals().Names() {
		if _, builtin := runtime.LookupByName(name); builtin || runtime.IsConstant(name) {
			continue
		}
		names = append(names, name)
	}
	return names
}
