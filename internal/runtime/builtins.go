package runtime

import (
	"fmt"
	"sort"

	"github.com/xirelogy/go-mumei/internal/value"
)

// Spec describes a builtin function. Arity < 0 accepts any argument count.
type Spec struct {
	Name    string
	Arity   int
	Handler value.NativeFunc
}

var (
	byName    = map[string]Spec{}
	constants = map[string]value.Value{}
	natives   = map[string]value.Value{}
)

// Register installs a builtin function in the global table.
func Register(spec Spec) {
	if spec.Handler == nil {
		panic(fmt.Sprintf("builtin %s has nil handler", spec.Name))
	}
	if _, exists := byName[spec.Name]; exists {
		panic(fmt.Sprintf("builtin %s already registered", spec.Name))
	}
	if _, exists := constants[spec.Name]; exists {
		panic(fmt.Sprintf("builtin %s already registered as a constant", spec.Name))
	}
	byName[spec.Name] = spec
	natives[spec.Name] = value.NativeVal(spec.Name, spec.Arity, spec.Handler)
}

// RegisterConstant installs a named constant such as PI.
func RegisterConstant(name string, v value.Value) {
	if _, exists := constants[name]; exists {
		panic(fmt.Sprintf("constant %s already registered", name))
	}
	if _, exists := byName[name]; exists {
		panic(fmt.Sprintf("constant %s already registered as a builtin", name))
	}
	constants[name] = v
}

// LookupByName finds a builtin by its script-visible name.
func LookupByName(name string) (Spec, bool) {
	spec, ok := byName[name]
	return spec, ok
}

// All returns all registered builtins sorted by name.
func All() []Spec {
	out := make([]Spec, 0, len(byName))
	for _, spec := range byName {
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Install defines every builtin in env and every constant as a const
// binding. The native values are shared between installs, so identity
// comparisons between two environments hold.
func Install(env *value.Environment) error {
	for name, v := range natives {
		if err := env.Define(name, v); err != nil {
			return err
		}
	}
	for name, v := range constants {
		if err := env.DefineConst(name, v); err != nil {
			return err
		}
	}
	return nil
}

// Globals returns a fresh flat table of builtins and constants, the shape
// the VM uses for its global scope.
func Globals() map[string]value.Value {
	out := make(map[string]value.Value, len(natives)+len(constants))
	for name, v := range natives {
		out[name] = v
	}
	for name, v := range constants {
		out[name] = v
	}
	return out
}

// IsConstant reports whether name is a registered constant.
func IsConstant(name string) bool {
	_, ok := constants[name]
	return ok
}
