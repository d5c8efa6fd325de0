package octo

import (
	"slices"

	"github.com/drpcorg/octo/octo_errors"
	"github.com/drpcorg/octo/value"
)

// Map is a shared string-keyed map. Each key keeps a chain of items;
// the rightmost one, if not deleted, is the value.
type Map struct {
	handle
}

func (m *Map) Kind() TypeKind {
	return KindMap
}

func (m *Map) Set(txn *Txn, key string, v value.Any) error {
	_, b, err := m.write(txn)
	if err != nil {
		return err
	}
	b.insert(txn, b.entries[key], nil, &key, AnyContent(v))
	return nil
}

// SetNested puts a new empty shared type under the key.
func (m *Map) SetNested(txn *Txn, key string, kind TypeKind) (Shared, error) {
	d, b, err := m.write(txn)
	if err != nil {
		return nil, err
	}
	if kind > KindText {
		return nil, octo_errors.ErrTypeMismatch
	}
	it := b.insert(txn, b.entries[key], nil, &key, TypeContent(kind))
	return makeShared(d, kind, ParentRef{ID: it.ID}), nil
}

// Delete removes the key; deleting a missing key does nothing.
func (m *Map) Delete(txn *Txn, key string) error {
	_, b, err := m.write(txn)
	if err != nil {
		return err
	}
	if e := b.entries[key]; e != nil {
		txn.deleteItem(e)
	}
	return nil
}

func (m *Map) Get(key string) (Value, bool, error) {
	d, b, err := m.resolve()
	if err != nil {
		return Value{}, false, err
	}
	v, ok := entryValue(d, b.entries[key])
	return v, ok, nil
}

func entryValue(d *Doc, e *Item) (Value, bool) {
	if e == nil || e.Deleted {
		return Value{}, false
	}
	vals := itemValues(d, e, nil)
	if len(vals) == 0 {
		return Value{}, false
	}
	return vals[len(vals)-1], true
}

func (m *Map) Has(key string) (bool, error) {
	_, ok, err := m.Get(key)
	return ok, err
}

// Keys of the visible entries, sorted.
func (m *Map) Keys() ([]string, error) {
	_, b, err := m.resolve()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(b.entries))
	for k, e := range b.entries {
		if !e.Deleted {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

func (m *Map) Len() (int, error) {
	keys, err := m.Keys()
	return len(keys), err
}

func (m *Map) Entries() (map[string]Value, error) {
	d, b, err := m.resolve()
	if err != nil {
		return nil, err
	}
	ret := make(map[string]Value, len(b.entries))
	for k, e := range b.entries {
		if v, ok := entryValue(d, e); ok {
			ret[k] = v
		}
	}
	return ret, nil
}

// Native converts the map, nested types included, to plain Go values.
func (m *Map) Native() (map[string]interface{}, error) {
	entries, err := m.Entries()
	if err != nil {
		return nil, err
	}
	ret := make(map[string]interface{}, len(entries))
	for k, v := range entries {
		if ret[k], err = v.Native(); err != nil {
			return nil, err
		}
	}
	return ret, nil
}
