// Package vm executes compiled bytecode on an operand stack against one
// flat table of globals. Unlike the interpreter there are no nested
// scopes: a variable defined inside a function body or block is global.
package vm

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/xirelogy/go-mumei/internal/bytecode"
	"github.com/xirelogy/go-mumei/internal/token"
	"github.com/xirelogy/go-mumei/internal/value"
)

// VM is a simple stack-based bytecode interpreter.
type VM struct {
	stack     []value.Value
	frames    []frame
	globals   map[string]value.Value
	consts    map[string]bool
	maxStack  int
	maxFrames int
	traceHook TraceHook
	instLimit int
	instCount int

	code   *bytecode.ByteCode
	lastPC int

	stdout io.Writer
	stdin  *bufio.Reader
}

const (
	DefaultMaxStack  = 1024
	defaultMaxFrames = 256
)

// New constructs a VM whose globals hold the registered builtins.
func New() *VM {
	vm := &VM{
		stack:     make([]value.Value, 0, 256),
		frames:    make([]frame, 0, 16),
		globals:   make(map[string]value.Value),
		consts:    make(map[string]bool),
		maxStack:  DefaultMaxStack,
		maxFrames: defaultMaxFrames,
		lastPC:    -1,
		stdout:    os.Stdout,
		stdin:     bufio.NewReader(os.Stdin),
	}
	vm.installBuiltins()
	return vm
}

// SetTraceHook registers a callback for instruction-level tracing.
func (vm *VM) SetTraceHook(h TraceHook) {
	vm.traceHook = h
}

// SetInstructionLimit caps the number of instructions executed per run (0 for unlimited).
func (vm *VM) SetInstructionLimit(limit int) {
	if limit < 0 {
		limit = 0
	}
	vm.instLimit = limit
}

// SetMaxStack sets the operand stack capacity.
func (vm *VM) SetMaxStack(n int) {
	if n > 0 {
		vm.maxStack = n
	}
}

// SetMaxFrames sets how deep function calls may nest.
func (vm *VM) SetMaxFrames(n int) {
	if n > 0 {
		vm.maxFrames = n
	}
}

func (vm *VM) SetOutput(w io.Writer) { vm.stdout = w }

func (vm *VM) SetInput(r io.Reader) {
	if br, ok := r.(*bufio.Reader); ok {
		vm.stdin = br
		return
	}
	vm.stdin = bufio.NewReader(r)
}

func (vm *VM) Stdout() io.Writer { return vm.stdout }
func (vm *VM) Stdin() io.Reader  { return vm.stdin }

// ResetState clears transient execution state. Globals survive.
func (vm *VM) ResetState() {
	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]
	vm.instCount = 0
	vm.lastPC = -1
}

var binaryTokens = map[byte]token.Type{
	bytecode.OP_ADD:      token.Plus,
	bytecode.OP_SUB:      token.Minus,
	bytecode.OP_MUL:      token.Star,
	bytecode.OP_DIV:      token.Slash,
	bytecode.OP_MOD:      token.Percent,
	bytecode.OP_POW:      token.Power,
	bytecode.OP_FLOORDIV: token.FloorDiv,
	bytecode.OP_LT:       token.Less,
	bytecode.OP_LTE:      token.LessEqual,
	bytecode.OP_GT:       token.Greater,
	bytecode.OP_GTE:      token.GreaterEqual,
	bytecode.OP_SHL:      token.ShiftLeft,
	bytecode.OP_SHR:      token.ShiftRight,
}

// Execute runs bc from its entry point until OP_HALT and returns the top
// of the stack, or null when the stack is empty.
func (vm *VM) Execute(bc *bytecode.ByteCode) (value.Value, error) {
	vm.ResetState()
	vm.code = bc
	code := bc.Instructions
	pc := bc.Entry

	for {
		if pc < 0 || pc >= len(code) {
			corrupt(bc, "program counter %d outside instruction array", pc)
		}
		ins := code[pc]
		vm.lastPC = pc
		pc++
		vm.instCount++
		if vm.instLimit > 0 && vm.instCount > vm.instLimit {
			return value.Null(), vm.newRuntimeError(ErrInstructionLimit.Error(), ErrInstructionLimit)
		}
		vm.trace(vm.lastPC, ins.Op)

		var err error
		switch ins.Op {
		case bytecode.OP_CONST:
			err = vm.push(vm.constant(ins.Arg))
		case bytecode.OP_POP:
			_, err = vm.pop()
		case bytecode.OP_DUP:
			var v value.Value
			if v, err = vm.peek(0); err == nil {
				err = vm.push(v)
			}
		case bytecode.OP_DUP2:
			var a, b value.Value
			if a, err = vm.peek(1); err != nil {
				break
			}
			b, _ = vm.peek(0)
			if err = vm.push(a); err == nil {
				err = vm.push(b)
			}
		case bytecode.OP_ADD, bytecode.OP_SUB, bytecode.OP_MUL, bytecode.OP_DIV,
			bytecode.OP_MOD, bytecode.OP_POW, bytecode.OP_FLOORDIV,
			bytecode.OP_LT, bytecode.OP_LTE, bytecode.OP_GT, bytecode.OP_GTE,
			bytecode.OP_SHL, bytecode.OP_SHR:
			var a, b, res value.Value
			if a, b, err = vm.pop2(); err != nil {
				break
			}
			if res, err = binaryOp(ins.Op, a, b); err == nil {
				err = vm.push(res)
			}
		case bytecode.OP_EQ, bytecode.OP_NEQ:
			var a, b value.Value
			if a, b, err = vm.pop2(); err != nil {
				break
			}
			eq := value.Equal(a, b)
			err = vm.push(value.Bool(eq == (ins.Op == bytecode.OP_EQ)))
		case bytecode.OP_NEG:
			var v value.Value
			if v, err = vm.pop(); err != nil {
				break
			}
			if v.Kind == value.KindNumber {
				err = vm.push(value.Number(-v.Num))
				break
			}
			if v, err = value.Negate(v); err == nil {
				err = vm.push(v)
			}
		case bytecode.OP_NOT:
			var v value.Value
			if v, err = vm.pop(); err == nil {
				err = vm.push(value.Not(v))
			}
		case bytecode.OP_GET_GLOBAL:
			name := vm.name(ins.Arg)
			v, ok := vm.globals[name]
			if !ok {
				err = &value.UndefinedError{Name: name}
				break
			}
			err = vm.push(v)
		case bytecode.OP_SET_GLOBAL:
			name := vm.name(ins.Arg)
			var v value.Value
			if v, err = vm.pop(); err != nil {
				break
			}
			if _, ok := vm.globals[name]; !ok {
				err = &value.UndefinedError{Name: name}
				break
			}
			if vm.consts[name] {
				err = &value.ConstantError{Name: name}
				break
			}
			vm.globals[name] = v
		case bytecode.OP_DEFINE_GLOBAL, bytecode.OP_DEFINE_CONST:
			name := vm.name(ins.Arg)
			var v value.Value
			if v, err = vm.pop(); err != nil {
				break
			}
			if vm.consts[name] {
				err = &value.ConstantError{Name: name}
				break
			}
			vm.globals[name] = v
			if ins.Op == bytecode.OP_DEFINE_CONST {
				vm.consts[name] = true
			}
		case bytecode.OP_ARRAY:
			var items []value.Value
			if items, err = vm.popN(ins.Arg); err == nil {
				err = vm.push(value.NewList(items))
			}
		case bytecode.OP_OBJECT:
			var pairs []value.Value
			if pairs, err = vm.popN(2 * ins.Arg); err != nil {
				break
			}
			d := value.NewDictStore()
			for i := 0; i < len(pairs); i += 2 {
				d.Set(pairs[i].String(), pairs[i+1])
			}
			err = vm.push(value.NewDict(d))
		case bytecode.OP_INDEX_GET:
			var c, idx, v value.Value
			if c, idx, err = vm.pop2(); err != nil {
				break
			}
			if v, err = value.Index(c, idx); err == nil {
				err = vm.push(v)
			}
		case bytecode.OP_INDEX_SET:
			var args []value.Value
			if args, err = vm.popN(3); err != nil {
				break
			}
			if err = value.SetIndex(args[0], args[1], args[2]); err == nil {
				err = vm.push(args[2])
			}
		case bytecode.OP_GET_PROP:
			var obj, v value.Value
			if obj, err = vm.pop(); err != nil {
				break
			}
			if v, err = value.Member(obj, vm.name(ins.Arg)); err == nil {
				err = vm.push(v)
			}
		case bytecode.OP_SET_PROP:
			var obj, v value.Value
			if obj, v, err = vm.pop2(); err != nil {
				break
			}
			if err = value.SetMember(obj, vm.name(ins.Arg), v); err == nil {
				err = vm.push(v)
			}
		case bytecode.OP_SLICE:
			var args []value.Value
			if args, err = vm.popN(3); err != nil {
				break
			}
			var v value.Value
			if v, err = value.Slice(args[0], args[1], args[2]); err == nil {
				err = vm.push(v)
			}
		case bytecode.OP_JUMP:
			pc = ins.Arg
		case bytecode.OP_JUMP_IF_FALSE, bytecode.OP_JUMP_IF_TRUE:
			var cond value.Value
			if cond, err = vm.pop(); err != nil {
				break
			}
			if value.Truthy(cond) == (ins.Op == bytecode.OP_JUMP_IF_TRUE) {
				pc = ins.Arg
			}
		case bytecode.OP_CALL:
			pc, err = vm.call(ins.Arg, pc)
		case bytecode.OP_RETURN:
			result := value.Null()
			base := 0
			if n := len(vm.frames); n > 0 {
				base = vm.frames[n-1].base
			}
			if len(vm.stack) > base {
				result, _ = vm.pop()
			}
			if len(vm.frames) == 0 {
				return result, nil
			}
			pc = vm.leave(result)
		case bytecode.OP_PRINT:
			var v value.Value
			if v, err = vm.pop(); err != nil {
				break
			}
			if _, err = fmt.Fprintln(vm.stdout, v.String()); err == nil {
				err = vm.push(value.Null())
			}
		case bytecode.OP_HALT:
			if len(vm.stack) == 0 {
				return value.Null(), nil
			}
			return vm.stack[len(vm.stack)-1], nil
		case bytecode.OP_ITER_PREP:
			var v value.Value
			if v, err = vm.pop(); err != nil {
				break
			}
			var items []value.Value
			if items, err = value.Iterate(v); err != nil {
				break
			}
			if err = vm.push(value.NewList(items)); err == nil {
				err = vm.push(value.Number(0))
			}
		case bytecode.OP_ITER_NEXT:
			var items, cursor value.Value
			if items, err = vm.peek(1); err != nil {
				break
			}
			cursor, _ = vm.peek(0)
			i := int(cursor.Num)
			if i >= len(items.List.Items) {
				vm.stack = vm.stack[:len(vm.stack)-2]
				pc = ins.Arg
				break
			}
			vm.stack[len(vm.stack)-1] = value.Number(float64(i + 1))
			err = vm.push(items.List.Items[i])
		default:
			corrupt(bc, "unknown opcode 0x%02X at %d", ins.Op, vm.lastPC)
		}
		if err != nil {
			return value.Null(), vm.wrapError(err)
		}
	}
}

// call dispatches OP_CALL. Natives run inline; script functions jump to
// their entry with the parameters bound.
func (vm *VM) call(argc, pc int) (int, error) {
	args, err := vm.popN(argc)
	if err != nil {
		return pc, err
	}
	callee, err := vm.pop()
	if err != nil {
		return pc, err
	}
	switch callee.Kind {
	case value.KindNative:
		res, err := callee.Native.Call(vm, args)
		if err != nil {
			return pc, err
		}
		return pc, vm.push(res)
	case value.KindFunction:
		if err := vm.enter(callee.Func, args, pc); err != nil {
			return pc, err
		}
		return callee.Func.Entry, nil
	}
	return pc, fmt.Errorf("Cannot call %s", callee.TypeName())
}

// binaryOp takes the inline path when both operands are numbers and
// falls back to the shared operator rules otherwise.
func binaryOp(op byte, a, b value.Value) (value.Value, error) {
	if a.Kind == value.KindNumber && b.Kind == value.KindNumber {
		switch op {
		case bytecode.OP_ADD:
			return value.Number(a.Num + b.Num), nil
		case bytecode.OP_SUB:
			return value.Number(a.Num - b.Num), nil
		case bytecode.OP_MUL:
			return value.Number(a.Num * b.Num), nil
		case bytecode.OP_LT:
			return value.Bool(a.Num < b.Num), nil
		case bytecode.OP_LTE:
			return value.Bool(a.Num <= b.Num), nil
		case bytecode.OP_GT:
			return value.Bool(a.Num > b.Num), nil
		case bytecode.OP_GTE:
			return value.Bool(a.Num >= b.Num), nil
		}
	}
	return value.Binary(binaryTokens[op], a, b)
}

func (vm *VM) constant(idx int) value.Value {
	if idx < 0 || idx >= len(vm.code.Constants) {
		corrupt(vm.code, "constant index %d out of range at %d", idx, vm.lastPC)
	}
	return vm.code.Constants[idx]
}

func (vm *VM) name(idx int) string {
	c := vm.constant(idx)
	if c.Kind != value.KindString {
		corrupt(vm.code, "name constant %d is %s", idx, c.TypeName())
	}
	return c.Str
}

func (vm *VM) push(v value.Value) error {
	if len(vm.stack) >= vm.maxStack {
		return ErrStackOverflow
	}
	vm.stack = append(vm.stack, v)
	return nil
}

func (vm *VM) pop() (value.Value, error) {
	if len(vm.stack) == 0 {
		return value.Null(), ErrStackUnderflow
	}
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v, nil
}

// pop2 returns the two topmost values in push order.
func (vm *VM) pop2() (value.Value, value.Value, error) {
	if len(vm.stack) < 2 {
		return value.Null(), value.Null(), ErrStackUnderflow
	}
	n := len(vm.stack)
	a, b := vm.stack[n-2], vm.stack[n-1]
	vm.stack = vm.stack[:n-2]
	return a, b, nil
}

// popN removes n values and returns them in push order.
func (vm *VM) popN(n int) ([]value.Value, error) {
	if n < 0 || len(vm.stack) < n {
		return nil, ErrStackUnderflow
	}
	out := make([]value.Value, n)
	copy(out, vm.stack[len(vm.stack)-n:])
	vm.stack = vm.stack[:len(vm.stack)-n]
	return out, nil
}

// peek returns the value depth slots below the top.
func (vm *VM) peek(depth int) (value.Value, error) {
	if len(vm.stack) <= depth {
		return value.Null(), ErrStackUnderflow
	}
	return vm.stack[len(vm.stack)-1-depth], nil
}
