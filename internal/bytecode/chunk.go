package bytecode

import (
	"fmt"

	"github.com/xirelogy/go-mumei/internal/value"
)

// Instruction is one unit of bytecode. Arg is unused by operand-less ops.
type Instruction struct {
	Op  byte
	Arg int
}

// ByteCode is a compiled program: a linear instruction stream, its
// constant pool and the index execution starts at.
type ByteCode struct {
	Instructions []Instruction
	Constants    []value.Value
	Entry        int
	Lines        []LineInfo
}

// LineInfo maps instruction indexes to source lines (start-inclusive).
type LineInfo struct {
	Offset int
	Line   int
}

// New returns an empty program.
func New() *ByteCode {
	return &ByteCode{}
}

// Emit appends an instruction and returns its index.
func (bc *ByteCode) Emit(op byte, arg int, line int) int {
	idx := len(bc.Instructions)
	bc.Instructions = append(bc.Instructions, Instruction{Op: op, Arg: arg})
	if line > 0 && (len(bc.Lines) == 0 || bc.Lines[len(bc.Lines)-1].Line != line) {
		bc.Lines = append(bc.Lines, LineInfo{Offset: idx, Line: line})
	}
	return idx
}

// AddConstant returns the pool index of v, reusing an equal scalar
// constant when one exists.
func (bc *ByteCode) AddConstant(v value.Value) int {
	switch v.Kind {
	case value.KindNull, value.KindBool, value.KindNumber, value.KindString:
		for i, c := range bc.Constants {
			if c.Kind == v.Kind && sameConstant(c, v) {
				return i
			}
		}
	}
	bc.Constants = append(bc.Constants, v)
	return len(bc.Constants) - 1
}

// sameConstant is exact equality. value.Equal tolerates an epsilon, which
// would merge distinct literals.
func sameConstant(a, b value.Value) bool {
	switch a.Kind {
	case value.KindNumber:
		return a.Num == b.Num
	case value.KindString:
		return a.Str == b.Str
	case value.KindBool:
		return a.B == b.B
	}
	return true
}

// Patch sets the operand of the jump at index to target.
func (bc *ByteCode) Patch(index, target int) {
	if index < 0 || index >= len(bc.Instructions) {
		panic(fmt.Sprintf("bytecode: patch of instruction %d outside 0..%d", index, len(bc.Instructions)-1))
	}
	bc.Instructions[index].Arg = target
}

// Len returns the number of instructions, which is the index of the next
// one emitted.
func (bc *ByteCode) Len() int { return len(bc.Instructions) }

// LineFor returns the source line of the instruction at pc, or 0.
func (bc *ByteCode) LineFor(pc int) int {
	line := 0
	for _, info := range bc.Lines {
		if info.Offset > pc {
			break
		}
		line = info.Line
	}
	return line
}

// Name returns the string constant an instruction refers to.
func (bc *ByteCode) Name(in Instruction) string {
	if in.Arg < 0 || in.Arg >= len(bc.Constants) {
		return ""
	}
	return bc.Constants[in.Arg].Str
}

// Validate checks that every jump lands inside the instruction stream and
// every constant operand indexes the pool.
func (bc *ByteCode) Validate() error {
	n := len(bc.Instructions)
	if n == 0 || bc.Instructions[n-1].Op != OP_HALT {
		return fmt.Errorf("bytecode does not end with OP_HALT")
	}
	if bc.Entry < 0 || bc.Entry >= n {
		return fmt.Errorf("entry point %d outside 0..%d", bc.Entry, n-1)
	}
	for pc, in := range bc.Instructions {
		if IsJump(in.Op) && (in.Arg < 0 || in.Arg >= n) {
			return fmt.Errorf("%04d %s: jump target %d outside 0..%d", pc, OpName(in.Op), in.Arg, n-1)
		}
		if UsesConstant(in.Op) && (in.Arg < 0 || in.Arg >= len(bc.Constants)) {
			return fmt.Errorf("%04d %s: constant %d outside pool of %d", pc, OpName(in.Op), in.Arg, len(bc.Constants))
		}
	}
	return nil
}

// Clone returns a copy that shares nothing mutable with bc. Function
// constants are copied so entry points cannot be changed through the
// clone.
func (bc *ByteCode) Clone() *ByteCode {
	out := &ByteCode{
		Instructions: append([]Instruction(nil), bc.Instructions...),
		Constants:    make([]value.Value, len(bc.Constants)),
		Entry:        bc.Entry,
		Lines:        append([]LineInfo(nil), bc.Lines...),
	}
	for i, c := range bc.Constants {
		if c.Kind == value.KindFunction {
			fn := *c.Func
			fn.Params = append([]string(nil), c.Func.Params...)
			c = value.FunctionVal(&fn)
		}
		out.Constants[i] = c
	}
	return out
}

// Equal reports whether a and b hold identical instructions, constants and
// entry points.
func Equal(a, b *ByteCode) bool {
	if a.Entry != b.Entry || len(a.Instructions) != len(b.Instructions) || len(a.Constants) != len(b.Constants) {
		return false
	}
	for i := range a.Instructions {
		if a.Instructions[i] != b.Instructions[i] {
			return false
		}
	}
	for i := range a.Constants {
		ca, cb := a.Constants[i], b.Constants[i]
		if ca.Kind != cb.Kind {
			return false
		}
		if ca.Kind == value.KindFunction {
			if ca.Func.Name != cb.Func.Name || ca.Func.Entry != cb.Func.Entry || len(ca.Func.Params) != len(cb.Func.Params) {
				return false
			}
			continue
		}
		if !sameConstant(ca, cb) {
			return false
		}
	}
	return true
}
