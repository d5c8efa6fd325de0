// Package value implements Any, the leaf of the document content model:
// a closed tagged union of JSON-like values plus 64-bit integers, 32-bit
// floats and binary blobs. Any has no causal identity; it is the payload
// carried by items and can be encoded standalone for plain API payloads.
package value

import (
	"bytes"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

type Kind byte

// The tag bytes are the lib0 ones, so the kinds double as wire tags.
const (
	Undefined Kind = 127
	Null      Kind = 126
	Integer   Kind = 125
	Float32   Kind = 124
	Float64   Kind = 123
	BigInt64  Kind = 122
	False     Kind = 121
	True      Kind = 120
	String    Kind = 119
	Object    Kind = 118
	Array     Kind = 117
	Binary    Kind = 116
)

func (k Kind) String() string {
	switch k {
	case Undefined:
		return "undefined"
	case Null:
		return "null"
	case Integer:
		return "integer"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case BigInt64:
		return "bigint64"
	case False, True:
		return "boolean"
	case String:
		return "string"
	case Object:
		return "object"
	case Array:
		return "array"
	case Binary:
		return "binary"
	}
	return "invalid"
}

// Any is a tagged value. The zero Any is undefined.
type Any struct {
	kind Kind
	num  uint64 // integers and float bits
	str  string
	bin  []byte
	arr  []Any
	obj  map[string]Any
}

func (a Any) Kind() Kind {
	if a.kind == 0 {
		return Undefined
	}
	return a.kind
}

func MakeUndefined() Any { return Any{kind: Undefined} }

func MakeNull() Any { return Any{kind: Null} }

func MakeBool(b bool) Any {
	if b {
		return Any{kind: True}
	}
	return Any{kind: False}
}

func MakeInt(i int64) Any { return Any{kind: Integer, num: uint64(i)} }

func MakeBigInt(i int64) Any { return Any{kind: BigInt64, num: uint64(i)} }

func MakeFloat32(f float32) Any { return Any{kind: Float32, num: uint64(math.Float32bits(f))} }

func MakeFloat64(f float64) Any { return Any{kind: Float64, num: math.Float64bits(f)} }

func MakeString(s string) Any { return Any{kind: String, str: s} }

func MakeBinary(b []byte) Any {
	if b == nil {
		b = []byte{}
	}
	return Any{kind: Binary, bin: b}
}

func MakeArray(items ...Any) Any {
	if items == nil {
		items = []Any{}
	}
	return Any{kind: Array, arr: items}
}

func MakeObject(entries map[string]Any) Any {
	if entries == nil {
		entries = map[string]Any{}
	}
	return Any{kind: Object, obj: entries}
}

func (a Any) IsNull() bool { return a.kind == Null }

func (a Any) IsUndefined() bool { return a.Kind() == Undefined }

func (a Any) Bool() (bool, bool) {
	switch a.kind {
	case True:
		return true, true
	case False:
		return false, true
	}
	return false, false
}

// Int returns integer and bigint values.
func (a Any) Int() (int64, bool) {
	if a.kind == Integer || a.kind == BigInt64 {
		return int64(a.num), true
	}
	return 0, false
}

// Float returns any numeric value as float64.
func (a Any) Float() (float64, bool) {
	switch a.kind {
	case Float32:
		return float64(math.Float32frombits(uint32(a.num))), true
	case Float64:
		return math.Float64frombits(a.num), true
	case Integer, BigInt64:
		return float64(int64(a.num)), true
	}
	return 0, false
}

func (a Any) Str() (string, bool) {
	return a.str, a.kind == String
}

func (a Any) Bytes() ([]byte, bool) {
	return a.bin, a.kind == Binary
}

func (a Any) Items() ([]Any, bool) {
	return a.arr, a.kind == Array
}

func (a Any) Entries() (map[string]Any, bool) {
	return a.obj, a.kind == Object
}

// Keys of an object, sorted. This is also the order keys are encoded in.
func (a Any) Keys() []string {
	keys := make([]string, 0, len(a.obj))
	for k := range a.obj {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Equal compares values structurally; floats compare by bit pattern,
// so NaN equals NaN of the same payload.
func (a Any) Equal(b Any) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case Integer, BigInt64, Float32, Float64:
		return a.num == b.num
	case String:
		return a.str == b.str
	case Binary:
		return bytes.Equal(a.bin, b.bin)
	case Array:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !a.arr[i].Equal(b.arr[i]) {
				return false
			}
		}
	case Object:
		if len(a.obj) != len(b.obj) {
			return false
		}
		for k, av := range a.obj {
			bv, ok := b.obj[k]
			if !ok || !av.Equal(bv) {
				return false
			}
		}
	}
	return true
}

// String renders a JSON-ish text form (for the REPL mostly).
func (a Any) String() string {
	var sb strings.Builder
	a.appendString(&sb)
	return sb.String()
}

func (a Any) appendString(sb *strings.Builder) {
	switch a.Kind() {
	case Undefined:
		sb.WriteString("undefined")
	case Null:
		sb.WriteString("null")
	case True:
		sb.WriteString("true")
	case False:
		sb.WriteString("false")
	case Integer, BigInt64:
		sb.WriteString(strconv.FormatInt(int64(a.num), 10))
	case Float32, Float64:
		f, _ := a.Float()
		sb.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	case String:
		sb.WriteString(strconv.Quote(a.str))
	case Binary:
		fmt.Fprintf(sb, "0x%x", a.bin)
	case Array:
		sb.WriteByte('[')
		for i, v := range a.arr {
			if i > 0 {
				sb.WriteByte(',')
			}
			v.appendString(sb)
		}
		sb.WriteByte(']')
	case Object:
		sb.WriteByte('{')
		for i, k := range a.Keys() {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Quote(k))
			sb.WriteByte(':')
			a.obj[k].appendString(sb)
		}
		sb.WriteByte('}')
	}
}
