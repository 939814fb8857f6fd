package bytecode

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xirelogy/go-mumei/internal/value"
)

// Disassembler formats bytecode as a readable assembly-style dump.
type Disassembler struct {
	w io.Writer
}

// NewDisassembler constructs a disassembler that writes to w.
func NewDisassembler(w io.Writer) *Disassembler {
	return &Disassembler{w: w}
}

// Disassemble writes a header followed by one line per instruction:
// index, source line, mnemonic and decoded operand.
func (d *Disassembler) Disassemble(bc *ByteCode) error {
	if bc == nil {
		return fmt.Errorf("nil bytecode")
	}
	fmt.Fprintf(d.w, "program (entry=%d, constants=%d, instructions=%d)\n",
		bc.Entry, len(bc.Constants), len(bc.Instructions))
	for pc, in := range bc.Instructions {
		line := bc.LineFor(pc)
		lineStr := "-"
		if line > 0 {
			lineStr = strconv.Itoa(line)
		}
		detail, err := operand(bc, in)
		if err != nil {
			return fmt.Errorf("%04d: %w", pc, err)
		}
		fmt.Fprintf(d.w, "%04d %4s %-16s", pc, lineStr, OpName(in.Op))
		if detail != "" {
			fmt.Fprintf(d.w, " %s", detail)
		}
		fmt.Fprintln(d.w)
	}
	for idx, c := range bc.Constants {
		if c.Kind == value.KindFunction {
			fmt.Fprintf(d.w, "func %s (params=%d) entry=%04d const=%d\n",
				c.Func.Name, len(c.Func.Params), c.Func.Entry, idx)
		}
	}
	return nil
}

// String returns the disassembly of bc, or the error text if it is
// malformed.
func String(bc *ByteCode) string {
	var sb strings.Builder
	if err := NewDisassembler(&sb).Disassemble(bc); err != nil {
		return err.Error()
	}
	return sb.String()
}

func operand(bc *ByteCode, in Instruction) (string, error) {
	switch {
	case in.Op == OP_CONST:
		if in.Arg < 0 || in.Arg >= len(bc.Constants) {
			return "", fmt.Errorf("const index out of range: %d", in.Arg)
		}
		return fmt.Sprintf("%d ; const[%d]=%s", in.Arg, in.Arg, formatConst(bc.Constants[in.Arg])), nil
	case in.Op == OP_GET_PROP || in.Op == OP_SET_PROP:
		return fmt.Sprintf("%d ; prop=%s", in.Arg, formatConstRef(bc, in.Arg)), nil
	case UsesConstant(in.Op):
		return fmt.Sprintf("%d ; name=%s", in.Arg, formatConstRef(bc, in.Arg)), nil
	case IsJump(in.Op):
		return fmt.Sprintf("-> %04d", in.Arg), nil
	case in.Op == OP_CALL || in.Op == OP_ARRAY || in.Op == OP_OBJECT:
		return strconv.Itoa(in.Arg), nil
	}
	return "", nil
}

func formatConstRef(bc *ByteCode, idx int) string {
	if idx < 0 || idx >= len(bc.Constants) {
		return "<invalid>"
	}
	return formatConst(bc.Constants[idx])
}

func formatConst(v value.Value) string {
	switch v.Kind {
	case value.KindString:
		return strconv.Quote(v.Str)
	case value.KindFunction:
		return "func " + v.Func.Name
	default:
		return v.String()
	}
}
