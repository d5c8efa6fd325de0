package value

import (
	"fmt"
	"math"

	"github.com/drpcorg/octo/octo_errors"
	"github.com/drpcorg/octo/protocol"
)

// MaxNesting bounds array/object depth on decode, so hostile input can
// not blow the stack.
const MaxNesting = 1024

// Encode returns the standalone encoding of a value.
func Encode(a Any) []byte {
	return Append(nil, a)
}

// Append writes the tag and payload of a value.
func Append(into []byte, a Any) []byte {
	kind := a.Kind()
	into = append(into, byte(kind))
	switch kind {
	case Integer:
		into = protocol.AppendVarInt(into, int64(a.num))
	case Float32:
		into = protocol.AppendFloat32(into, math.Float32frombits(uint32(a.num)))
	case Float64:
		into = protocol.AppendFloat64(into, math.Float64frombits(a.num))
	case BigInt64:
		into = protocol.AppendInt64(into, int64(a.num))
	case String:
		into = protocol.AppendString(into, a.str)
	case Binary:
		into = protocol.AppendVarBytes(into, a.bin)
	case Array:
		into = protocol.AppendVarUint(into, uint64(len(a.arr)))
		for _, v := range a.arr {
			into = Append(into, v)
		}
	case Object:
		into = protocol.AppendVarUint(into, uint64(len(a.obj)))
		for _, k := range a.Keys() {
			into = protocol.AppendString(into, k)
			into = Append(into, a.obj[k])
		}
	}
	return into
}

// Decode parses exactly one standalone value; trailing bytes are an error.
func Decode(buf []byte) (Any, error) {
	d := protocol.NewDecoder(buf)
	a, err := Read(d)
	if err != nil {
		return Any{}, err
	}
	if d.Len() != 0 {
		return Any{}, fmt.Errorf("%w: %d trailing bytes", octo_errors.ErrMalformed, d.Len())
	}
	return a, nil
}

// Read parses one value off the decoder.
func Read(d *protocol.Decoder) (Any, error) {
	return read(d, 0)
}

func read(d *protocol.Decoder, depth int) (a Any, err error) {
	tag, err := d.ReadByte()
	if err != nil {
		return
	}
	switch Kind(tag) {
	case Undefined:
		return MakeUndefined(), nil
	case Null:
		return MakeNull(), nil
	case True:
		return MakeBool(true), nil
	case False:
		return MakeBool(false), nil
	case Integer:
		var i int64
		if i, err = d.ReadVarInt(); err == nil {
			a = MakeInt(i)
		}
	case Float32:
		var f float32
		if f, err = d.ReadFloat32(); err == nil {
			a = MakeFloat32(f)
		}
	case Float64:
		var f float64
		if f, err = d.ReadFloat64(); err == nil {
			a = MakeFloat64(f)
		}
	case BigInt64:
		var i int64
		if i, err = d.ReadInt64(); err == nil {
			a = MakeBigInt(i)
		}
	case String:
		var s string
		if s, err = d.ReadString(); err == nil {
			a = MakeString(s)
		}
	case Binary:
		var b []byte
		if b, err = d.ReadVarBytes(); err == nil {
			a = MakeBinary(b)
		}
	case Array:
		if depth >= MaxNesting {
			return Any{}, octo_errors.ErrTooDeep
		}
		var n int
		if n, err = d.ReadLen(); err != nil {
			return
		}
		items := make([]Any, n)
		for i := range items {
			if items[i], err = read(d, depth+1); err != nil {
				return Any{}, err
			}
		}
		a = MakeArray(items...)
	case Object:
		if depth >= MaxNesting {
			return Any{}, octo_errors.ErrTooDeep
		}
		var n int
		if n, err = d.ReadLen(); err != nil {
			return
		}
		entries := make(map[string]Any, n)
		for i := 0; i < n; i++ {
			var key string
			if key, err = d.ReadString(); err != nil {
				return Any{}, err
			}
			var v Any
			if v, err = read(d, depth+1); err != nil {
				return Any{}, err
			}
			entries[key] = v
		}
		a = MakeObject(entries)
	default:
		err = fmt.Errorf("%w: any tag %d", octo_errors.ErrInvalidTag, tag)
	}
	return
}
