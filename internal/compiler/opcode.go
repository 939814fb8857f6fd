package compiler

import "github.com/xirelogy/go-mumei/internal/bytecode"

const (
	OP_CONST         = bytecode.OP_CONST
	OP_POP           = bytecode.OP_POP
	OP_DUP           = bytecode.OP_DUP
	OP_DUP2          = bytecode.OP_DUP2
	OP_ADD           = bytecode.OP_ADD
	OP_SUB           = bytecode.OP_SUB
	OP_MUL           = bytecode.OP_MUL
	OP_DIV           = bytecode.OP_DIV
	OP_MOD           = bytecode.OP_MOD
	OP_POW           = bytecode.OP_POW
	OP_FLOORDIV      = bytecode.OP_FLOORDIV
	OP_NEG           = bytecode.OP_NEG
	OP_EQ            = bytecode.OP_EQ
	OP_NEQ           = bytecode.OP_NEQ
	OP_LT            = bytecode.OP_LT
	OP_LTE           = bytecode.OP_LTE
	OP_GT            = bytecode.OP_GT
	OP_GTE           = bytecode.OP_GTE
	OP_NOT           = bytecode.OP_NOT
	OP_SHL           = bytecode.OP_SHL
	OP_SHR           = bytecode.OP_SHR
	OP_GET_GLOBAL    = bytecode.OP_GET_GLOBAL
	OP_SET_GLOBAL    = bytecode.OP_SET_GLOBAL
	OP_DEFINE_GLOBAL = bytecode.OP_DEFINE_GLOBAL
	OP_DEFINE_CONST  = bytecode.OP_DEFINE_CONST
	OP_ARRAY         = bytecode.OP_ARRAY
	OP_OBJECT        = bytecode.OP_OBJECT
	OP_INDEX_GET     = bytecode.OP_INDEX_GET
	OP_INDEX_SET     = bytecode.OP_INDEX_SET
	OP_GET_PROP      = bytecode.OP_GET_PROP
	OP_SET_PROP      = bytecode.OP_SET_PROP
	OP_SLICE         = bytecode.OP_SLICE
	OP_JUMP          = bytecode.OP_JUMP
	OP_JUMP_IF_FALSE = bytecode.OP_JUMP_IF_FALSE
	OP_JUMP_IF_TRUE  = bytecode.OP_JUMP_IF_TRUE
	OP_CALL          = bytecode.OP_CALL
	OP_RETURN        = bytecode.OP_RETURN
	OP_PRINT         = bytecode.OP_PRINT
	OP_HALT          = bytecode.OP_HALT
	OP_ITER_PREP     = bytecode.OP_ITER_PREP
	OP_ITER_NEXT     = bytecode.OP_ITER_NEXT
)
