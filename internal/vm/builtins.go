package vm

import (
	_ "github.com/xirelogy/go-mumei/internal/builtins"
	"github.com/xirelogy/go-mumei/internal/runtime"
)

// installBuiltins seeds the global table with the registered natives and
// marks registered constants read-only.
func (vm *VM) installBuiltins() {
	for name, v := range runtime.Globals() {
		vm.globals[name] = v
		if runtime.IsConstant(name) {
			vm.consts[name] = true
		}
	}
}
