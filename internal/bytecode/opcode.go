package bytecode

import "fmt"

// Opcodes. Operands live in Instruction.Arg: a constant index for
// OP_CONST and the name-carrying ops, an absolute instruction index for
// jumps and a count for OP_CALL, OP_ARRAY and OP_OBJECT.
const (
	OP_CONST byte = iota
	OP_POP
	OP_DUP
	OP_DUP2
	_ // reserved
	_ // reserved
	_ // reserved
	_ // reserved

	OP_ADD
	OP_SUB
	OP_MUL
	OP_DIV
	OP_MOD
	OP_POW
	OP_FLOORDIV
	OP_NEG

	OP_EQ
	OP_NEQ
	OP_LT
	OP_LTE
	OP_GT
	OP_GTE
	OP_NOT
	_ // reserved

	OP_SHL
	OP_SHR
	_ // reserved
	_ // reserved
	_ // reserved
	_ // reserved
	_ // reserved
	_ // reserved

	OP_GET_GLOBAL
	OP_SET_GLOBAL
	OP_DEFINE_GLOBAL
	OP_DEFINE_CONST
	_ // reserved
	_ // reserved
	_ // reserved
	_ // reserved

	OP_ARRAY
	OP_OBJECT
	OP_INDEX_GET
	OP_INDEX_SET
	OP_GET_PROP
	OP_SET_PROP
	OP_SLICE
	_ // reserved

	OP_JUMP
	OP_JUMP_IF_FALSE
	OP_JUMP_IF_TRUE
	_ // reserved
	_ // reserved
	_ // reserved
	_ // reserved
	_ // reserved

	OP_CALL
	OP_RETURN
	OP_PRINT
	OP_HALT
)

const (
	OP_ITER_PREP byte = 0x48
	OP_ITER_NEXT      = 0x49
)

var opNames = map[byte]string{
	OP_CONST:         "OP_CONST",
	OP_POP:           "OP_POP",
	OP_DUP:           "OP_DUP",
	OP_DUP2:          "OP_DUP2",
	OP_ADD:           "OP_ADD",
	OP_SUB:           "OP_SUB",
	OP_MUL:           "OP_MUL",
	OP_DIV:           "OP_DIV",
	OP_MOD:           "OP_MOD",
	OP_POW:           "OP_POW",
	OP_FLOORDIV:      "OP_FLOORDIV",
	OP_NEG:           "OP_NEG",
	OP_EQ:            "OP_EQ",
	OP_NEQ:           "OP_NEQ",
	OP_LT:            "OP_LT",
	OP_LTE:           "OP_LTE",
	OP_GT:            "OP_GT",
	OP_GTE:           "OP_GTE",
	OP_NOT:           "OP_NOT",
	OP_SHL:           "OP_SHL",
	OP_SHR:           "OP_SHR",
	OP_GET_GLOBAL:    "OP_GET_GLOBAL",
	OP_SET_GLOBAL:    "OP_SET_GLOBAL",
	OP_DEFINE_GLOBAL: "OP_DEFINE_GLOBAL",
	OP_DEFINE_CONST:  "OP_DEFINE_CONST",
	OP_ARRAY:         "OP_ARRAY",
	OP_OBJECT:        "OP_OBJECT",
	OP_INDEX_GET:     "OP_INDEX_GET",
	OP_INDEX_SET:     "OP_INDEX_SET",
	OP_GET_PROP:      "OP_GET_PROP",
	OP_SET_PROP:      "OP_SET_PROP",
	OP_SLICE:         "OP_SLICE",
	OP_JUMP:          "OP_JUMP",
	OP_JUMP_IF_FALSE: "OP_JUMP_IF_FALSE",
	OP_JUMP_IF_TRUE:  "OP_JUMP_IF_TRUE",
	OP_CALL:          "OP_CALL",
	OP_RETURN:        "OP_RETURN",
	OP_PRINT:         "OP_PRINT",
	OP_HALT:          "OP_HALT",
	OP_ITER_PREP:     "OP_ITER_PREP",
	OP_ITER_NEXT:     "OP_ITER_NEXT",
}

// OpName returns the mnemonic of op.
func OpName(op byte) string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("OP_0x%02X", op)
}

// IsJump reports whether op takes an instruction index operand.
func IsJump(op byte) bool {
	switch op {
	case OP_JUMP, OP_JUMP_IF_FALSE, OP_JUMP_IF_TRUE, OP_ITER_NEXT:
		return true
	}
	return false
}

// UsesConstant reports whether op takes a constant pool index operand.
func UsesConstant(op byte) bool {
	switch op {
	case OP_CONST, OP_GET_GLOBAL, OP_SET_GLOBAL, OP_DEFINE_GLOBAL, OP_DEFINE_CONST, OP_GET_PROP, OP_SET_PROP:
		return true
	}
	return false
}
