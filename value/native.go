package value

import (
	"fmt"
	"math"

	"github.com/drpcorg/octo/octo_errors"
)

// FromNative converts plain Go values (the shapes encoding/json produces,
// plus sized integers and byte slices) into an Any.
func FromNative(v interface{}) (Any, error) {
	switch t := v.(type) {
	case nil:
		return MakeNull(), nil
	case Any:
		return t, nil
	case bool:
		return MakeBool(t), nil
	case int:
		return MakeInt(int64(t)), nil
	case int32:
		return MakeInt(int64(t)), nil
	case int64:
		return MakeBigInt(t), nil
	case uint32:
		return MakeInt(int64(t)), nil
	case uint64:
		if t > math.MaxInt64 {
			return Any{}, fmt.Errorf("%w: %d does not fit int64", octo_errors.ErrMalformed, t)
		}
		return MakeBigInt(int64(t)), nil
	case float32:
		return MakeFloat32(t), nil
	case float64:
		return MakeFloat64(t), nil
	case string:
		return MakeString(t), nil
	case []byte:
		return MakeBinary(t), nil
	case []interface{}:
		items := make([]Any, len(t))
		for i, e := range t {
			a, err := FromNative(e)
			if err != nil {
				return Any{}, err
			}
			items[i] = a
		}
		return MakeArray(items...), nil
	case map[string]interface{}:
		entries := make(map[string]Any, len(t))
		for k, e := range t {
			a, err := FromNative(e)
			if err != nil {
				return Any{}, err
			}
			entries[k] = a
		}
		return MakeObject(entries), nil
	}
	return Any{}, fmt.Errorf("%w: unsupported native type %T", octo_errors.ErrInvalidTag, v)
}

// Native converts back to plain Go values. Undefined and null both
// become nil.
func (a Any) Native() interface{} {
	switch a.Kind() {
	case True:
		return true
	case False:
		return false
	case Integer, BigInt64:
		return int64(a.num)
	case Float32:
		return math.Float32frombits(uint32(a.num))
	case Float64:
		return math.Float64frombits(a.num)
	case String:
		return a.str
	case Binary:
		return a.bin
	case Array:
		ret := make([]interface{}, len(a.arr))
		for i, v := range a.arr {
			ret[i] = v.Native()
		}
		return ret
	case Object:
		ret := make(map[string]interface{}, len(a.obj))
		for k, v := range a.obj {
			ret[k] = v.Native()
		}
		return ret
	}
	return nil
}
