package vm

import (
	"math"

	"github.com/xirelogy/go-mumei/internal/bytecode"
	"github.com/xirelogy/go-mumei/internal/value"
)

// IsNumericOnly reports whether every instruction of bc is a numeric
// constant load, an arithmetic operator, negation or halt. Such programs
// have no variables, branches or calls and can run on a raw float stack.
func IsNumericOnly(bc *bytecode.ByteCode) bool {
	if bc == nil || bc.Len() == 0 || bc.Instructions[bc.Len()-1].Op != bytecode.OP_HALT {
		return false
	}
	for _, ins := range bc.Instructions {
		switch ins.Op {
		case bytecode.OP_CONST:
			if ins.Arg < 0 || ins.Arg >= len(bc.Constants) || bc.Constants[ins.Arg].Kind != value.KindNumber {
				return false
			}
		case bytecode.OP_ADD, bytecode.OP_SUB, bytecode.OP_MUL, bytecode.OP_DIV,
			bytecode.OP_MOD, bytecode.OP_POW, bytecode.OP_NEG, bytecode.OP_HALT:
		default:
			return false
		}
	}
	return true
}

// ExecuteNumericFast runs numeric-only bytecode over a float stack holding
// at most maxStack values (DefaultMaxStack when not positive). It returns
// ErrNotNumericOnly for anything else; callers fall back to Execute.
func ExecuteNumericFast(bc *bytecode.ByteCode, maxStack int) (float64, error) {
	if !IsNumericOnly(bc) {
		return 0, ErrNotNumericOnly
	}
	if maxStack <= 0 {
		maxStack = DefaultMaxStack
	}
	stack := make([]float64, 0, 64)
	fail := func(pc int, cause error) (float64, error) {
		return 0, &RuntimeError{
			Message: cause.Error(),
			PC:      pc,
			Op:      bc.Instructions[pc].Op,
			Line:    bc.LineFor(pc),
			Cause:   cause,
		}
	}
	for pc := bc.Entry; pc < bc.Len(); pc++ {
		ins := bc.Instructions[pc]
		switch ins.Op {
		case bytecode.OP_CONST:
			if len(stack) >= maxStack {
				return fail(pc, ErrStackOverflow)
			}
			stack = append(stack, bc.Constants[ins.Arg].Num)
		case bytecode.OP_NEG:
			if len(stack) == 0 {
				return fail(pc, ErrStackUnderflow)
			}
			stack[len(stack)-1] = -stack[len(stack)-1]
		case bytecode.OP_HALT:
			if len(stack) == 0 {
				return 0, nil
			}
			return stack[len(stack)-1], nil
		default:
			n := len(stack)
			if n < 2 {
				return fail(pc, ErrStackUnderflow)
			}
			res, err := numeric(ins.Op, stack[n-2], stack[n-1])
			if err != nil {
				return fail(pc, err)
			}
			stack = append(stack[:n-2], res)
		}
	}
	return 0, nil
}

// numeric applies an arithmetic opcode with the same rules as the
// generic value operators.
func numeric(op byte, a, b float64) (float64, error) {
	switch op {
	case bytecode.OP_ADD:
		return a + b, nil
	case bytecode.OP_SUB:
		return a - b, nil
	case bytecode.OP_MUL:
		return a * b, nil
	case bytecode.OP_DIV:
		if b == 0 {
			return 0, value.ErrDivisionByZero
		}
		return a / b, nil
	case bytecode.OP_MOD:
		if b == 0 {
			return 0, value.ErrModuloByZero
		}
		return math.Mod(a, b), nil
	case bytecode.OP_POW:
		return math.Pow(a, b), nil
	}
	return 0, ErrNotNumericOnly
}
