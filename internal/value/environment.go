package value

import (
	"fmt"
	"sort"
)

// UndefinedError reports a lookup or assignment of an unknown name.
type UndefinedError struct {
	Name string
}

func (e *UndefinedError) Error() string {
	return fmt.Sprintf("Variable '%s' is not defined", e.Name)
}

// ConstantError reports an assignment to a const binding.
type ConstantError struct {
	Name string
}

func (e *ConstantError) Error() string {
	return fmt.Sprintf("Cannot assign to constant '%s'", e.Name)
}

// Environment is one lexical scope. Scopes form a singly linked chain to
// the global scope.
type Environment struct {
	values map[string]Value
	consts map[string]bool
	parent *Environment
}

// NewEnvironment creates a scope whose parent is parent (nil for globals).
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		values: map[string]Value{},
		consts: map[string]bool{},
		parent: parent,
	}
}

func (e *Environment) Parent() *Environment { return e.parent }

// Define binds name in this scope, shadowing any outer binding. Redefining
// a local constant fails.
func (e *Environment) Define(name string, v Value) error {
	if e.consts[name] {
		return &ConstantError{Name: name}
	}
	e.values[name] = v
	return nil
}

// DefineConst binds name in this scope and marks it constant.
func (e *Environment) DefineConst(name string, v Value) error {
	if e.consts[name] {
		return &ConstantError{Name: name}
	}
	e.values[name] = v
	e.consts[name] = true
	return nil
}

// Get resolves name along the scope chain.
func (e *Environment) Get(name string) (Value, error) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.values[name]; ok {
			return v, nil
		}
	}
	return Null(), &UndefinedError{Name: name}
}

// Assign updates the nearest existing binding of name.
func (e *Environment) Assign(name string, v Value) error {
	for env := e; env != nil; env = env.parent {
		if _, ok := env.values[name]; ok {
			if env.consts[name] {
				return &ConstantError{Name: name}
			}
			env.values[name] = v
			return nil
		}
	}
	return &UndefinedError{Name: name}
}

// Has reports whether name resolves anywhere on the chain.
func (e *Environment) Has(name string) bool {
	_, err := e.Get(name)
	return err == nil
}

// HasLocal reports whether name is bound in this scope only.
func (e *Environment) HasLocal(name string) bool {
	_, ok := e.values[name]
	return ok
}

// IsConstant reports whether the nearest binding of name is constant.
func (e *Environment) IsConstant(name string) bool {
	for env := e; env != nil; env = env.parent {
		if _, ok := env.values[name]; ok {
			return env.consts[name]
		}
	}
	return false
}

// Names lists the names bound in this scope, sorted.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.values))
	for name := range e.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
