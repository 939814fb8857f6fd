package vm

import (
	"sort"

	"github.com/xirelogy/go-mumei/internal/runtime"
	"github.com/xirelogy/go-mumei/internal/value"
)

// Global returns the current binding of name.
func (vm *VM) Global(name string) (value.Value, bool) {
	v, ok := vm.globals[name]
	return v, ok
}

// DefineGlobal binds a value into the global table.
func (vm *VM) DefineGlobal(name string, v value.Value) {
	vm.globals[name] = v
}

// UserGlobals lists the names defined by executed programs, leaving out
// registered builtins and constants.
func (vm *VM) UserGlobals() []string {
	names := make([]string, 0, len(vm.globals))
	for name := range vm.globals {
		if _, builtin := runtime.LookupByName(name); builtin || runtime.IsConstant(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StackDepth reports the operand stack size after the last run.
func (vm *VM) StackDepth() int {
	return len(vm.stack)
}
