package interpreter

import (
	"fmt"
	"strings"

	"github.com/xirelogy/go-mumei/internal/ast"
	"github.com/xirelogy/go-mumei/internal/parser"
	"github.com/xirelogy/go-mumei/internal/runtime"
	"github.com/xirelogy/go-mumei/internal/value"
)

// Importer resolves a module name to a dictionary of its exported
// bindings.
type Importer interface {
	Import(name string) (value.Value, error)
}

// ImporterFunc adapts a function to Importer.
type ImporterFunc func(name string) (value.Value, error)

func (f ImporterFunc) Import(name string) (value.Value, error) { return f(name) }

// SourceLoader returns the source text of a module.
type SourceLoader func(name string) (string, error)

// SourceImporter evaluates modules from source. Each module runs once in
// an interpreter of its own; its top-level bindings, minus the builtins,
// become the module dictionary. Import does not mutate s, so one importer
// may serve concurrent interpreters as long as Load is safe to share.
type SourceImporter struct {
	Load SourceLoader
	Opts []Option

	// parents lists the modules whose import led here, outermost first.
	parents []string
}

func (s *SourceImporter) Import(name string) (value.Value, error) {
	for _, p := range s.parents {
		if p == name {
			return value.Null(), fmt.Errorf("Circular import of module '%s'", name)
		}
	}

	src, err := s.Load(name)
	if err != nil {
		return value.Null(), fmt.Errorf("Module '%s' not found: %v", name, err)
	}
	prog, err := parser.Parse(src)
	if err != nil {
		return value.Null(), fmt.Errorf("Module '%s': %v", name, err)
	}
	nested := &SourceImporter{
		Load:    s.Load,
		Opts:    s.Opts,
		parents: append(s.parents[:len(s.parents):len(s.parents)], name),
	}
	opts := append([]Option{WithImporter(nested)}, s.Opts...)
	mod, err := New(opts...)
	if err != nil {
		return value.Null(), err
	}
	if _, err := mod.Run(prog); err != nil {
		return value.Null(), err
	}
	exports := value.NewDictStore()
	for _, n := range mod.globals.Names() {
		if _, builtin := runtime.LookupByName(n); builtin || runtime.IsConstant(n) {
			continue
		}
		v, _ := mod.globals.Get(n)
		exports.Set(n, v)
	}
	return value.NewDict(exports), nil
}

func (in *Interpreter) execImport(s *ast.ImportStmt) error {
	mod, ok := in.modules[s.Module]
	if !ok {
		if in.importer == nil {
			return in.errorf(s, "Module '%s' not found", s.Module)
		}
		var err error
		if mod, err = in.importer.Import(s.Module); err != nil {
			return in.wrap(s, err)
		}
		in.modules[s.Module] = mod
	}

	if len(s.Names) == 0 {
		name := s.Alias
		if name == "" {
			name = s.Module[strings.LastIndex(s.Module, ".")+1:]
		}
		return in.wrap(s, in.env.Define(name, mod))
	}
	for _, imp := range s.Names {
		v, err := value.Member(mod, imp.Name)
		if err != nil {
			return in.errorf(s, "Module '%s' has no member '%s'", s.Module, imp.Name)
		}
		name := imp.Alias
		if name == "" {
			name = imp.Name
		}
		if err := in.env.Define(name, v); err != nil {
			return in.wrap(s, err)
		}
	}
	return nil
}
