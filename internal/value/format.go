package value

import (
	"math"
	"strconv"
	"strings"
)

// String renders v the way print() shows it. Strings nested in lists and
// dictionaries are not quoted. A list or dictionary reached again while it
// is still being printed shows as [...] or {...}.
func (v Value) String() string {
	var f formatter
	return f.format(v)
}

// formatter tracks the containers on the current rendering path.
type formatter struct {
	active map[interface{}]bool
}

func (f *formatter) enter(p interface{}) bool {
	if f.active == nil {
		f.active = make(map[interface{}]bool)
	}
	if f.active[p] {
		return false
	}
	f.active[p] = true
	return true
}

func (f *formatter) format(v Value) string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.B)
	case KindNumber:
		return FormatNumber(v.Num)
	case KindString:
		return v.Str
	case KindList:
		if !f.enter(v.List) {
			return "[...]"
		}
		defer delete(f.active, v.List)
		parts := make([]string, len(v.List.Items))
		for i, item := range v.List.Items {
			parts[i] = f.format(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindDict:
		if !f.enter(v.Dict) {
			return "{...}"
		}
		defer delete(f.active, v.Dict)
		return f.formatDict(v.Dict)
	case KindFunction:
		return "<function " + v.Func.Name + "(" + strings.Join(v.Func.Params, ", ") + ")>"
	case KindNative:
		return "<native function " + v.Native.Name + ">"
	case KindClass:
		return "<class " + v.Class.Name + ">"
	case KindInstance:
		return "<" + v.Inst.Class.Name + " instance>"
	default:
		return "<unknown>"
	}
}

func (f *formatter) formatDict(d *Dict) string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(k)
		sb.WriteString(": ")
		sb.WriteString(f.format(d.values[k]))
	}
	sb.WriteByte('}')
	return sb.String()
}

// FormatNumber prints integral values without a fractional part.
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "inf"
	case math.IsInf(n, -1):
		return "-inf"
	case n == math.Trunc(n) && math.Abs(n) < 1e18:
		return strconv.FormatInt(int64(n), 10)
	default:
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
}
