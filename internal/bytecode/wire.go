package bytecode

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/xirelogy/go-mumei/internal/value"
)

// WireVersion is bumped whenever the opcode numbering or the wire layout
// changes. Decoding a different version fails.
const WireVersion = 1

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type wireProgram struct {
	Version      int            `cbor:"1,keyasint"`
	Instructions []wireInstr    `cbor:"2,keyasint"`
	Constants    []wireConstant `cbor:"3,keyasint"`
	Entry        int            `cbor:"4,keyasint"`
	Lines        []LineInfo     `cbor:"5,keyasint,omitempty"`
}

type wireInstr struct {
	_   struct{} `cbor:",toarray"`
	Op  byte
	Arg int
}

// wireConstant holds the constant kinds the compiler emits.
type wireConstant struct {
	Kind   value.Kind `cbor:"1,keyasint"`
	Num    float64    `cbor:"2,keyasint,omitempty"`
	Str    string     `cbor:"3,keyasint,omitempty"`
	B      bool       `cbor:"4,keyasint,omitempty"`
	Params []string   `cbor:"5,keyasint,omitempty"`
	Entry  int        `cbor:"6,keyasint,omitempty"`
	Async  bool       `cbor:"7,keyasint,omitempty"`
}

// Marshal serializes bc to canonical CBOR. Equal programs encode to equal
// bytes.
func Marshal(bc *ByteCode) ([]byte, error) {
	wp := wireProgram{
		Version:      WireVersion,
		Instructions: make([]wireInstr, len(bc.Instructions)),
		Constants:    make([]wireConstant, len(bc.Constants)),
		Entry:        bc.Entry,
		Lines:        bc.Lines,
	}
	for i, in := range bc.Instructions {
		wp.Instructions[i] = wireInstr{Op: in.Op, Arg: in.Arg}
	}
	for i, c := range bc.Constants {
		wc := wireConstant{Kind: c.Kind}
		switch c.Kind {
		case value.KindNull:
		case value.KindBool:
			wc.B = c.B
		case value.KindNumber:
			wc.Num = c.Num
		case value.KindString:
			wc.Str = c.Str
		case value.KindFunction:
			wc.Str = c.Func.Name
			wc.Params = c.Func.Params
			wc.Entry = c.Func.Entry
			wc.Async = c.Func.Async
		default:
			return nil, fmt.Errorf("bytecode: constant %d: cannot encode %s", i, c.TypeName())
		}
		wp.Constants[i] = wc
	}
	return cborEncMode.Marshal(wp)
}

// Unmarshal decodes a program written by Marshal and validates it.
func Unmarshal(data []byte) (*ByteCode, error) {
	var wp wireProgram
	if err := cbor.Unmarshal(data, &wp); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal: %w", err)
	}
	if wp.Version != WireVersion {
		return nil, fmt.Errorf("bytecode: wire version %d, want %d", wp.Version, WireVersion)
	}
	bc := &ByteCode{
		Instructions: make([]Instruction, len(wp.Instructions)),
		Constants:    make([]value.Value, len(wp.Constants)),
		Entry:        wp.Entry,
		Lines:        wp.Lines,
	}
	for i, in := range wp.Instructions {
		bc.Instructions[i] = Instruction{Op: in.Op, Arg: in.Arg}
	}
	for i, wc := range wp.Constants {
		switch wc.Kind {
		case value.KindNull:
			bc.Constants[i] = value.Null()
		case value.KindBool:
			bc.Constants[i] = value.Bool(wc.B)
		case value.KindNumber:
			bc.Constants[i] = value.Number(wc.Num)
		case value.KindString:
			bc.Constants[i] = value.String(wc.Str)
		case value.KindFunction:
			bc.Constants[i] = value.FunctionVal(&value.Function{
				Name:   wc.Str,
				Params: wc.Params,
				Entry:  wc.Entry,
				Async:  wc.Async,
			})
		default:
			return nil, fmt.Errorf("bytecode: constant %d: unknown kind %d", i, wc.Kind)
		}
	}
	if err := bc.Validate(); err != nil {
		return nil, fmt.Errorf("bytecode: %w", err)
	}
	return bc, nil
}
