package octo

import (
	"strings"
	"unicode/utf8"

	"github.com/drpcorg/octo/octo_errors"
)

// Text is a shared string. Positions count code points.
type Text struct {
	handle
}

func (t *Text) Kind() TypeKind {
	return KindText
}

func (t *Text) Insert(txn *Txn, index int, s string) error {
	d, b, err := t.write(txn)
	if err != nil {
		return err
	}
	if !utf8.ValidString(s) {
		return octo_errors.ErrInvalidUTF8
	}
	if index < 0 || uint64(index) > b.length {
		return octo_errors.ErrIndexOutOfRange
	}
	if s == "" {
		return nil
	}
	left, right := b.seek(d.store, uint64(index))
	b.insert(txn, left, right, nil, StringContent(s))
	return nil
}

// Push appends to the end.
func (t *Text) Push(txn *Txn, s string) error {
	_, b, err := t.resolve()
	if err != nil {
		return err
	}
	return t.Insert(txn, int(b.length), s)
}

func (t *Text) Delete(txn *Txn, index, length int) error {
	_, b, err := t.write(txn)
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

// Value renders the visible text.
func (t *Text) Value() (string, error) {
	_, b, err := t.resolve()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	b.visit(func(it *Item) bool {
		if it.Content.Tag == ContentString {
			sb.WriteString(it.Content.Str)
		}
		return true
	})
	return sb.String(), nil
}

func (t *Text) String() string {
	s, _ := t.Value()
	return s
}

// Len is the length in code points.
func (t *Text) Len() (int, error) {
	_, b, err := t.resolve()
	if err != nil {
		return 0, err
	}
	return int(b.length), nil
}
