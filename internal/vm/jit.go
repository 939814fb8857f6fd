package vm

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/ristretto"

	"github.com/xirelogy/go-mumei/internal/bytecode"
)

// Routine is numeric-only bytecode lowered to a single Go function.
type Routine func() (float64, error)

// node is one value of the lowered expression tree.
type node func() (float64, error)

// JIT lowers numeric-only bytecode into routines and caches them by a
// hash of the instruction stream and constant pool.
type JIT struct {
	routines *ristretto.Cache
	maxStack int
	compiled atomic.Int64
	hits     atomic.Int64
}

// JITStats counts lowering work done and avoided.
type JITStats struct {
	Compiled int64 `json:"compiled"`
	Hits     int64 `json:"hits"`
}

// NewJIT creates a JIT that keeps up to maxRoutines lowered routines.
// Routines fail with ErrStackOverflow where the VM would, given an operand
// stack of maxStack values (DefaultMaxStack when not positive).
func NewJIT(maxRoutines, maxStack int) (*JIT, error) {
	if maxRoutines <= 0 {
		maxRoutines = 1024
	}
	if maxStack <= 0 {
		maxStack = DefaultMaxStack
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: int64(maxRoutines * 10),
		MaxCost:     int64(maxRoutines),
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &JIT{routines: cache, maxStack: maxStack}, nil
}

// Key hashes the parts of bc that determine the routine.
func (j *JIT) Key(bc *bytecode.ByteCode) uint64 {
	d := xxhash.New()
	var buf [9]byte
	for _, ins := range bc.Instructions {
		buf[0] = ins.Op
		binary.LittleEndian.PutUint64(buf[1:], uint64(ins.Arg))
		d.Write(buf[:])
	}
	for _, c := range bc.Constants {
		binary.LittleEndian.PutUint64(buf[1:], math.Float64bits(c.Num))
		buf[0] = byte(c.Kind)
		d.Write(buf[:])
	}
	return d.Sum64()
}

// Compile returns the routine for bc. Bytecode outside the numeric set is
// rejected with ErrNotNumericOnly before anything is built.
func (j *JIT) Compile(bc *bytecode.ByteCode) (Routine, error) {
	if !IsNumericOnly(bc) {
		return nil, ErrNotNumericOnly
	}
	key := j.Key(bc)
	if cached, ok := j.routines.Get(key); ok {
		j.hits.Add(1)
		return cached.(Routine), nil
	}
	routine, err := lower(bc, j.maxStack)
	if err != nil {
		return nil, err
	}
	j.compiled.Add(1)
	j.routines.Set(key, routine, 1)
	j.routines.Wait()
	return routine, nil
}

// Run compiles bc if needed and calls the routine.
func (j *JIT) Run(bc *bytecode.ByteCode) (float64, error) {
	routine, err := j.Compile(bc)
	if err != nil {
		return 0, err
	}
	return routine()
}

func (j *JIT) Stats() JITStats {
	return JITStats{Compiled: j.compiled.Load(), Hits: j.hits.Load()}
}

func (j *JIT) Close() {
	j.routines.Close()
}

// lower simulates the operand stack at build time, replacing each push
// with a node. The routine evaluates the node left on the stack at HALT.
// A push beyond maxStack lowers to a routine that runs the pending nodes
// in order and then reports the overflow.
func lower(bc *bytecode.ByteCode, maxStack int) (Routine, error) {
	var stack []node
	for pc := bc.Entry; pc < bc.Len(); pc++ {
		ins := bc.Instructions[pc]
		switch ins.Op {
		case bytecode.OP_CONST:
			if len(stack) >= maxStack {
				return overflow(bc, pc, stack), nil
			}
			n := bc.Constants[ins.Arg].Num
			stack = append(stack, func() (float64, error) { return n, nil })
		case bytecode.OP_NEG:
			if len(stack) == 0 {
				return nil, ErrStackUnderflow
			}
			operand := stack[len(stack)-1]
			stack[len(stack)-1] = func() (float64, error) {
				v, err := operand()
				return -v, err
			}
		case bytecode.OP_HALT:
			if len(stack) == 0 {
				return func() (float64, error) { return 0, nil }, nil
			}
			return Routine(stack[len(stack)-1]), nil
		default:
			if len(stack) < 2 {
				return nil, ErrStackUnderflow
			}
			op, left, right := ins.Op, stack[len(stack)-2], stack[len(stack)-1]
			at := pc
			stack = append(stack[:len(stack)-2], func() (float64, error) {
				a, err := left()
				if err != nil {
					return 0, err
				}
				b, err := right()
				if err != nil {
					return 0, err
				}
				v, err := numeric(op, a, b)
				if err != nil {
					return 0, &RuntimeError{Message: err.Error(), PC: at, Op: op, Line: bc.LineFor(at), Cause: err}
				}
				return v, nil
			})
		}
	}
	return nil, ErrNotNumericOnly
}

func overflow(bc *bytecode.ByteCode, pc int, pending []node) Routine {
	return func() (float64, error) {
		for _, n := range pending {
			if _, err := n(); err != nil {
				return 0, err
			}
		}
		return 0, &RuntimeError{
			Message: ErrStackOverflow.Error(),
			PC:      pc,
			Op:      bc.Instructions[pc].Op,
			Line:    bc.LineFor(pc),
			Cause:   ErrStackOverflow,
		}
	}
}
