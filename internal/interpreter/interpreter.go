// Package interpreter evaluates a parsed program directly over its syntax
// tree. Each function call gets a fresh scope parented at the closure it
// was defined in; blocks and loop iterations get their own scopes.
package interpreter

import (
	"bufio"
	"io"
	"os"

	"github.com/xirelogy/go-mumei/internal/ast"
	_ "github.com/xirelogy/go-mumei/internal/builtins"
	"github.com/xirelogy/go-mumei/internal/runtime"
	"github.com/xirelogy/go-mumei/internal/value"
)

const defaultMaxDepth = 1000

type completionKind int

const (
	normal completionKind = iota
	returned
	broke
	continued
)

// completion is the outcome of executing a statement. Errors travel
// separately as Go errors.
type completion struct {
	kind  completionKind
	value value.Value
}

func done(v value.Value) completion { return completion{kind: normal, value: v} }

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithStdout redirects print and println.
func WithStdout(w io.Writer) Option {
	return func(in *Interpreter) { in.stdout = w }
}

// WithStdin sets the stream read by input().
func WithStdin(r io.Reader) Option {
	return func(in *Interpreter) { in.stdin = bufio.NewReader(r) }
}

// WithImporter resolves import statements.
func WithImporter(imp Importer) Option {
	return func(in *Interpreter) { in.importer = imp }
}

// WithMaxDepth bounds nested function calls.
func WithMaxDepth(n int) Option {
	return func(in *Interpreter) { in.maxDepth = n }
}

// Interpreter holds the global scope of one execution. It is not safe for
// concurrent use.
type Interpreter struct {
	globals  *value.Environment
	env      *value.Environment
	stdout   io.Writer
	stdin    io.Reader
	importer Importer
	maxDepth int

	calls   []string        // names of active user functions
	yields  [][]value.Value // one collector per active generator call
	modules map[string]value.Value
}

// New creates an interpreter with the builtins installed in a fresh global
// scope.
func New(opts ...Option) (*Interpreter, error) {
	globals := value.NewEnvironment(nil)
	if err := runtime.Install(globals); err != nil {
		return nil, err
	}
	in := &Interpreter{
		globals:  globals,
		env:      globals,
		stdout:   os.Stdout,
		maxDepth: defaultMaxDepth,
		modules:  map[string]value.Value{},
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.stdin == nil {
		in.stdin = bufio.NewReader(os.Stdin)
	}
	return in, nil
}

func (in *Interpreter) Stdout() io.Writer { return in.stdout }
func (in *Interpreter) Stdin() io.Reader  { return in.stdin }

// Globals returns the global scope. Repeated Run calls share it.
func (in *Interpreter) Globals() *value.Environment { return in.globals }

// Run executes prog in the global scope and returns the value of its last
// statement.
func (in *Interpreter) Run(prog *ast.Program) (value.Value, error) {
	in.env = in.globals
	in.calls = in.calls[:0]
	in.yields = in.yields[:0]
	c, err := in.execStatements(prog.Statements, in.globals)
	if err != nil {
		return value.Null(), err
	}
	return c.value, nil
}

func (in *Interpreter) function() string {
	if len(in.calls) == 0 {
		return ""
	}
	return in.calls[len(in.calls)-1]
}
