package vm

import "github.com/xirelogy/go-mumei/internal/value"

// binding remembers a global that a call shadowed with a parameter.
type binding struct {
	name    string
	value   value.Value
	defined bool
}

// frame is one active call. Parameters are bound as globals on entry and
// the previous bindings are put back on return, so recursion works on the
// flat global table.
type frame struct {
	fn       *value.Function
	returnPC int
	base     int
	saved    []binding
}

func (vm *VM) enter(fn *value.Function, args []value.Value, returnPC int) error {
	if len(args) != len(fn.Params) {
		plural := "s"
		if len(fn.Params) == 1 {
			plural = ""
		}
		return vm.errorf("%s() takes %d argument%s, got %d", fn.Name, len(fn.Params), plural, len(args))
	}
	if len(vm.frames) >= vm.maxFrames {
		return vm.newRuntimeError("call stack overflow", ErrStackOverflow)
	}
	fr := frame{fn: fn, returnPC: returnPC, base: len(vm.stack)}
	for i, name := range fn.Params {
		old, ok := vm.globals[name]
		fr.saved = append(fr.saved, binding{name: name, value: old, defined: ok})
		vm.globals[name] = args[i]
	}
	vm.frames = append(vm.frames, fr)
	return nil
}

// leave pops the current frame, restoring shadowed globals in reverse
// order, and returns the caller's program counter.
func (vm *VM) leave(result value.Value) int {
	fr := vm.frames[len(vm.frames)-1]
	vm.frames = vm.frames[:len(vm.frames)-1]
	for i := len(fr.saved) - 1; i >= 0; i-- {
		b := fr.saved[i]
		if b.defined {
			vm.globals[b.name] = b.value
		} else {
			delete(vm.globals, b.name)
		}
	}
	vm.stack = vm.stack[:fr.base]
	vm.stack = append(vm.stack, result)
	return fr.returnPC
}
