package value

import (
	"fmt"
	"io"
	"math"

	"github.com/xirelogy/go-mumei/internal/ast"
)

const epsilon = 2.220446049250313e-16

type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindDict
	KindFunction
	KindNative
	KindClass
	KindInstance
)

// Value is the runtime value shared by the interpreter and the VM. Lists,
// dictionaries and instances hold pointers, so copies of a Value alias the
// same backing store.
type Value struct {
	Kind   Kind
	Num    float64
	Str    string
	B      bool
	List   *List
	Dict   *Dict
	Func   *Function
	Native *Native
	Class  *Class
	Inst   *Instance
}

// List is a mutable sequence shared between aliases.
type List struct {
	Items []Value
}

// Dict is a string-keyed mapping that remembers insertion order.
type Dict struct {
	keys   []string
	values map[string]Value
}

// Function is a user-defined function. Closure is set for interpreter
// functions; Entry is the first instruction of a VM-compiled body.
type Function struct {
	Name      string
	Params    []string
	Body      []ast.Statement
	Closure   *Environment
	Async     bool
	Generator bool
	Entry     int
}

// Host gives native functions access to the process streams of the
// running engine.
type Host interface {
	Stdout() io.Writer
	Stdin() io.Reader
}

type NativeFunc func(host Host, args []Value) (Value, error)

// Native is a builtin. Arity < 0 means variadic.
type Native struct {
	Name  string
	Arity int
	Fn    NativeFunc
}

type Class struct {
	Name    string
	Methods map[string]*Function
	Parent  *Class
}

// FindMethod looks name up along the parent chain.
func (c *Class) FindMethod(name string) (*Function, bool) {
	for cls := c; cls != nil; cls = cls.Parent {
		if fn, ok := cls.Methods[name]; ok {
			return fn, true
		}
	}
	return nil, false
}

type Instance struct {
	Class  *Class
	Fields *Dict
}

func Null() Value { return Value{Kind: KindNull} }
func Bool(b bool) Value {
	return Value{Kind: KindBool, B: b}
}
func Number(n float64) Value {
	return Value{Kind: KindNumber, Num: n}
}
func String(s string) Value {
	return Value{Kind: KindString, Str: s}
}
func NewList(items []Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{Kind: KindList, List: &List{Items: items}}
}
func NewDict(d *Dict) Value {
	if d == nil {
		d = NewDictStore()
	}
	return Value{Kind: KindDict, Dict: d}
}
func FunctionVal(fn *Function) Value {
	return Value{Kind: KindFunction, Func: fn}
}
func NativeVal(name string, arity int, fn NativeFunc) Value {
	return Value{Kind: KindNative, Native: &Native{Name: name, Arity: arity, Fn: fn}}
}
func ClassVal(c *Class) Value {
	return Value{Kind: KindClass, Class: c}
}
func InstanceVal(inst *Instance) Value {
	return Value{Kind: KindInstance, Inst: inst}
}

// NewInstance creates an instance with an empty field set.
func NewInstance(c *Class) *Instance {
	return &Instance{Class: c, Fields: NewDictStore()}
}

// NewDictStore creates an empty dictionary store.
func NewDictStore() *Dict {
	return &Dict{values: map[string]Value{}}
}

func (d *Dict) Get(key string) (Value, bool) {
	v, ok := d.values[key]
	return v, ok
}

func (d *Dict) Set(key string, v Value) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = v
}

func (d *Dict) Has(key string) bool {
	_, ok := d.values[key]
	return ok
}

func (d *Dict) Delete(key string) bool {
	if _, ok := d.values[key]; !ok {
		return false
	}
	delete(d.values, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
	return true
}

func (d *Dict) Len() int { return len(d.keys) }

// Keys returns the keys in insertion order. The slice is a copy.
func (d *Dict) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// TypeName returns the name reported by the type() builtin.
func (v Value) TypeName() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindDict:
		return "dictionary"
	case KindFunction:
		return "function"
	case KindNative:
		return "native_function"
	case KindClass:
		return "class"
	case KindInstance:
		return "instance"
	default:
		return "unknown"
	}
}

// Truthy reports the truthiness of v: null, false, 0, "", [] and {} are
// falsy.
func Truthy(v Value) bool {
	switch v.Kind {
	case KindNull:
		return false
	case KindBool:
		return v.B
	case KindNumber:
		return v.Num != 0
	case KindString:
		return v.Str != ""
	case KindList:
		return len(v.List.Items) > 0
	case KindDict:
		return v.Dict.Len() > 0
	case KindFunction, KindNative, KindClass, KindInstance:
		return true
	default:
		return false
	}
}

// Equal compares scalars by value, lists and dictionaries element-wise and
// everything else by identity. Numbers within machine epsilon are equal.
// Comparing a pair of containers that is already under comparison counts
// as equal, so cyclic structures terminate.
func Equal(a, b Value) bool {
	var eq equalState
	return eq.equal(a, b)
}

type containerPair struct {
	a, b interface{}
}

type equalState struct {
	active map[containerPair]bool
}

func (eq *equalState) enter(p containerPair) bool {
	if eq.active == nil {
		eq.active = make(map[containerPair]bool)
	}
	if eq.active[p] {
		return false
	}
	eq.active[p] = true
	return true
}

func (eq *equalState) equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNull:
		return true
	case KindBool:
		return a.B == b.B
	case KindNumber:
		return a.Num == b.Num || math.Abs(a.Num-b.Num) < epsilon
	case KindString:
		return a.Str == b.Str
	case KindList:
		if a.List == b.List {
			return true
		}
		if len(a.List.Items) != len(b.List.Items) {
			return false
		}
		pair := containerPair{a.List, b.List}
		if !eq.enter(pair) {
			return true
		}
		defer delete(eq.active, pair)
		for i := range a.List.Items {
			if !eq.equal(a.List.Items[i], b.List.Items[i]) {
				return false
			}
		}
		return true
	case KindDict:
		if a.Dict == b.Dict {
			return true
		}
		if a.Dict.Len() != b.Dict.Len() {
			return false
		}
		pair := containerPair{a.Dict, b.Dict}
		if !eq.enter(pair) {
			return true
		}
		defer delete(eq.active, pair)
		for _, k := range a.Dict.keys {
			bv, ok := b.Dict.Get(k)
			if !ok || !eq.equal(a.Dict.values[k], bv) {
				return false
			}
		}
		return true
	case KindFunction:
		return a.Func == b.Func
	case KindNative:
		return a.Native == b.Native
	case KindClass:
		return a.Class == b.Class
	case KindInstance:
		return a.Inst == b.Inst
	default:
		return false
	}
}

// IsCallable reports whether v can be invoked.
func (v Value) IsCallable() bool {
	switch v.Kind {
	case KindFunction, KindNative, KindClass:
		return true
	default:
		return false
	}
}

// Call checks arity and invokes the builtin.
func (n *Native) Call(host Host, args []Value) (Value, error) {
	if n.Arity >= 0 && len(args) != n.Arity {
		plural := "s"
		if n.Arity == 1 {
			plural = ""
		}
		return Null(), fmt.Errorf("%s() takes %d argument%s, got %d", n.Name, n.Arity, plural, len(args))
	}
	return n.Fn(host, args)
}
