package octo

import (
	"iter"

	"github.com/drpcorg/octo/octo_errors"
	"github.com/drpcorg/octo/value"
)

// Array is a shared sequence of values and nested types.
type Array struct {
	handle
}

func (a *Array) Kind() TypeKind {
	return KindArray
}

// Insert puts the values at the index, in one item.
func (a *Array) Insert(txn *Txn, index int, vals ...value.Any) error {
	d, b, err := a.write(txn)
	if err != nil {
		return err
	}
	if index < 0 || uint64(index) > b.length {
		return octo_errors.ErrIndexOutOfRange
	}
	if len(vals) == 0 {
		return nil
	}
	left, right := b.seek(d.store, uint64(index))
	b.insert(txn, left, right, nil, AnyContent(vals...))
	return nil
}

func (a *Array) Push(txn *Txn, vals ...value.Any) error {
	_, b, err := a.resolve()
	if err != nil {
		return err
	}
	return a.Insert(txn, int(b.length), vals...)
}

// InsertNested puts a new empty shared type at the index.
func (a *Array) InsertNested(txn *Txn, index int, kind TypeKind) (Shared, error) {
	d, b, err := a.write(txn)
	if err != nil {
		return nil, err
	}
	if kind > KindText {
		return nil, octo_errors.ErrTypeMismatch
	}
	if index < 0 || uint64(index) > b.length {
		return nil, octo_errors.ErrIndexOutOfRange
	}
	left, right := b.seek(d.store, uint64(index))
	it := b.insert(txn, left, right, nil, TypeContent(kind))
	return makeShared(d, kind, ParentRef{ID: it.ID}), nil
}

func (a *Array) Delete(txn *Txn, index, length int) error {
	_, b, err := a.write(txn)
	if err != nil {
		return err
	}
	if index < 0 || length < 0 || uint64(index)+uint64(length) > b.length {
		return octo_errors.ErrIndexOutOfRange
	}
	if length > 0 {
		b.remove(txn, uint64(index), uint64(length))
	}
	return nil
}

func (a *Array) Get(index int) (Value, error) {
	d, b, err := a.resolve()
	if err != nil {
		return Value{}, err
	}
	if index < 0 || uint64(index) >= b.length {
		return Value{}, octo_errors.ErrIndexOutOfRange
	}
	var ret Value
	i := uint64(index)
	b.visit(func(it *Item) bool {
		if i >= it.Length {
			i -= it.Length
			return true
		}
		switch it.Content.Tag {
		case ContentAny:
			ret = Value{Any: it.Content.Anys[i]}
		default:
			ret = itemValues(d, it, nil)[i]
		}
		return false
	})
	return ret, nil
}

func (a *Array) Len() (int, error) {
	_, b, err := a.resolve()
	if err != nil {
		return 0, err
	}
	return int(b.length), nil
}

func (a *Array) Values() ([]Value, error) {
	d, b, err := a.resolve()
	if err != nil {
		return nil, err
	}
	ret := make([]Value, 0, b.length)
	b.visit(func(it *Item) bool {
		ret = itemValues(d, it, ret)
		return true
	})
	return ret, nil
}

// All walks the visible values lazily; every range starts over.
// Nothing is yielded when the Doc is gone.
func (a *Array) All() iter.Seq2[int, Value] {
	return func(yield func(int, Value) bool) {
		d, b, err := a.resolve()
		if err != nil {
			return
		}
		i := 0
		var buf []Value
		b.visit(func(it *Item) bool {
			buf = itemValues(d, it, buf[:0])
			for _, v := range buf {
				if !yield(i, v) {
					return false
				}
				i++
			}
			return true
		})
	}
}

// Items lists the records of the array in causal order, tombstones
// included.
func (a *Array) Items() ([]*Item, error) {
	_, b, err := a.resolve()
	if err != nil {
		return nil, err
	}
	return b.items(), nil
}

// Native converts the array, nested types included, to plain Go values.
func (a *Array) Native() ([]interface{}, error) {
	vals, err := a.Values()
	if err != nil {
		return nil, err
	}
	ret := make([]interface{}, len(vals))
	for i, v := range vals {
		if ret[i], err = v.Native(); err != nil {
			return nil, err
		}
	}
	return ret, nil
}
