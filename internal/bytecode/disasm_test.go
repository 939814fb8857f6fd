package bytecode

import (
	"strings"
	"testing"

	"github.com/xirelogy/go-mumei/internal/value"
)

// program builds `let x = 2 + 3; square(x)` by hand.
func program() *ByteCode {
	bc := New()
	two := bc.AddConstant(value.Number(2))
	three := bc.AddConstant(value.Number(3))
	x := bc.AddConstant(value.String("x"))
	bc.Emit(OP_CONST, two, 1)
	bc.Emit(OP_CONST, three, 1)
	bc.Emit(OP_ADD, 0, 1)
	bc.Emit(OP_DEFINE_GLOBAL, x, 1)
	fn := bc.AddConstant(value.FunctionVal(&value.Function{Name: "square", Params: []string{"n"}}))
	jump := bc.Emit(OP_JUMP, 0, 2)
	bc.Constants[fn].Func.Entry = bc.Len()
	bc.Emit(OP_RETURN, 0, 2)
	bc.Patch(jump, bc.Len())
	bc.Emit(OP_CONST, fn, 3)
	bc.Emit(OP_GET_GLOBAL, x, 3)
	bc.Emit(OP_CALL, 1, 3)
	bc.Emit(OP_HALT, 0, 3)
	return bc
}

func TestConstantPoolDeduplicates(t *testing.T) {
	bc := New()
	a := bc.AddConstant(value.Number(42))
	b := bc.AddConstant(value.Number(42))
	c := bc.AddConstant(value.Number(100))
	s := bc.AddConstant(value.String("42"))
	if a != b {
		t.Fatalf("equal constants should share a slot: %d vs %d", a, b)
	}
	if a == c || a == s {
		t.Fatalf("distinct constants should not share a slot")
	}
	f1 := bc.AddConstant(value.FunctionVal(&value.Function{Name: "f"}))
	f2 := bc.AddConstant(value.FunctionVal(&value.Function{Name: "f"}))
	if f1 == f2 {
		t.Fatalf("function constants are never merged")
	}
}

func TestDisassemble(t *testing.T) {
	out := String(program())
	for _, want := range []string{
		"program (entry=0, constants=4, instructions=10)",
		"0000    1 OP_CONST         0 ; const[0]=2",
		"0003    1 OP_DEFINE_GLOBAL 2 ; name=\"x\"",
		"0004    2 OP_JUMP          -> 0006",
		"0007    3 OP_GET_GLOBAL    2 ; name=\"x\"",
		"0008    3 OP_CALL          1",
		"0009    3 OP_HALT",
		"func square (params=1) entry=0005 const=3",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
}

func TestValidate(t *testing.T) {
	if err := program().Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	bad := program()
	bad.Instructions[4].Arg = 99
	if err := bad.Validate(); err == nil || !strings.Contains(err.Error(), "jump target 99") {
		t.Fatalf("expected jump target error, got %v", err)
	}
	bad = program()
	bad.Instructions[0].Arg = 7
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected constant index error")
	}
	bad = program()
	bad.Instructions = bad.Instructions[:len(bad.Instructions)-1]
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected missing halt error")
	}
}

func TestWireRoundTrip(t *testing.T) {
	bc := program()
	data, err := Marshal(bc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	again, err := Marshal(bc)
	if err != nil || string(again) != string(data) {
		t.Fatalf("encoding should be deterministic")
	}
	decoded, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !Equal(bc, decoded) {
		t.Fatalf("decoded program differs:\n%s\nvs\n%s", String(bc), String(decoded))
	}
	if decoded.LineFor(8) != 3 {
		t.Fatalf("line table lost: %d", decoded.LineFor(8))
	}

	if _, err := Unmarshal([]byte{0xff, 0x00}); err == nil {
		t.Fatalf("expected decode error")
	}
	list := New()
	list.AddConstant(value.NewList(nil))
	if _, err := Marshal(list); err == nil {
		t.Fatalf("lists are not valid constants")
	}
}

func TestClone(t *testing.T) {
	bc := program()
	cp := bc.Clone()
	if !Equal(bc, cp) {
		t.Fatalf("clone differs")
	}
	cp.Instructions[0].Arg = 1
	cp.Constants[3].Func.Entry = 0
	if bc.Instructions[0].Arg != 0 || bc.Constants[3].Func.Entry != 5 {
		t.Fatalf("clone shares state with the original")
	}
}
