package compiler

import "github.com/xirelogy/go-mumei/internal/bytecode"

type ByteCode = bytecode.ByteCode
type Instruction = bytecode.Instruction
