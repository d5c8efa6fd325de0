package octo

import (
	"fmt"
	"weak"

	"github.com/drpcorg/octo/octo_errors"
	"github.com/drpcorg/octo/value"
)

// branch is the list head of one shared type: the sequence of items in
// causal order plus, for map keys, the rightmost item of every key chain.
type branch struct {
	kind    TypeKind
	ref     ParentRef
	item    *Item // nil for roots
	start   *Item
	entries map[string]*Item
	length  uint64 // visible sequence positions
}

func newBranch(kind TypeKind, ref ParentRef, item *Item) *branch {
	return &branch{
		kind:    kind,
		ref:     ref,
		item:    item,
		entries: make(map[string]*Item),
	}
}

func (b *branch) deleted() bool {
	return b.item != nil && b.item.Deleted
}

// seek finds the neighbours of a sequence position, splitting the item
// that spans it.
func (b *branch) seek(s *BlockStore, index uint64) (left, right *Item) {
	if index == 0 {
		return nil, b.start
	}
	for n := b.start; n != nil; n = n.right {
		if !n.Visible() {
			continue
		}
		if index <= n.Length {
			if index < n.Length {
				s.cleanStart(ID{n.ID.Client, n.ID.Clock + index})
			}
			return n, n.right
		}
		index -= n.Length
	}
	return nil, nil
}

// remove deletes length visible positions starting at index.
func (b *branch) remove(txn *Txn, index, length uint64) {
	s := txn.doc.store
	n := b.start
	for ; n != nil && index > 0; n = n.right {
		if n.Visible() {
			if index < n.Length {
				s.cleanStart(ID{n.ID.Client, n.ID.Clock + index})
			}
			index -= n.Length
		}
	}
	for ; n != nil && length > 0; n = n.right {
		if n.Visible() {
			if length < n.Length {
				s.cleanStart(ID{n.ID.Client, n.ID.Clock + length})
			}
			length -= n.Length
			txn.deleteItem(n)
		}
	}
}

// visit calls fn for every visible item of the sequence until it says stop.
func (b *branch) visit(fn func(it *Item) bool) {
	for n := b.start; n != nil; n = n.right {
		if n.Visible() && !fn(n) {
			return
		}
	}
}

// Shared is a handle to an Array, a Map or a Text.
type Shared interface {
	Kind() TypeKind
	Ref() ParentRef
}

// Value is an element of an Array or a Map: either a leaf or a nested type.
type Value struct {
	Any    value.Any
	Nested Shared
}

func (v Value) String() string {
	if v.Nested != nil {
		return fmt.Sprintf("%s%s", v.Nested.Kind(), v.Nested.Ref())
	}
	return v.Any.String()
}

func (v Value) Array() (*Array, bool) {
	a, ok := v.Nested.(*Array)
	return a, ok
}

func (v Value) Map() (*Map, bool) {
	m, ok := v.Nested.(*Map)
	return m, ok
}

func (v Value) Text() (*Text, bool) {
	t, ok := v.Nested.(*Text)
	return t, ok
}

// Native converts a leaf or a whole nested type to plain Go values;
// nested text becomes a string.
func (v Value) Native() (interface{}, error) {
	switch n := v.Nested.(type) {
	case nil:
		return v.Any.Native(), nil
	case *Array:
		return n.Native()
	case *Map:
		return n.Native()
	case *Text:
		return n.Value()
	}
	return nil, octo_errors.ErrHandleInvalid
}

// handle holds its Doc weakly and finds its branch again on every call.
type handle struct {
	doc weak.Pointer[Doc]
	ref ParentRef
}

func (h handle) resolve() (*Doc, *branch, error) {
	d := h.doc.Value()
	if d == nil || d.destroyed {
		return nil, nil, octo_errors.ErrDocDestroyed
	}
	b, err := d.branchOf(h.ref)
	if err != nil {
		return nil, nil, err
	}
	return d, b, nil
}

// write resolves the handle and checks the transaction may mutate it.
func (h handle) write(txn *Txn) (*Doc, *branch, error) {
	d, b, err := h.resolve()
	if err != nil {
		return nil, nil, err
	}
	if err = txn.check(d); err != nil {
		return nil, nil, err
	}
	return d, b, nil
}

func (h handle) Ref() ParentRef {
	return h.ref
}

func makeShared(d *Doc, kind TypeKind, ref ParentRef) Shared {
	h := handle{doc: weak.Make(d), ref: ref}
	switch kind {
	case KindMap:
		return &Map{h}
	case KindText:
		return &Text{h}
	}
	return &Array{h}
}

func itemValues(d *Doc, it *Item, into []Value) []Value {
	switch it.Content.Tag {
	case ContentType:
		return append(into, Value{Nested: makeShared(d, it.Content.Kind, ParentRef{ID: it.ID})})
	case ContentAny:
		for _, a := range it.Content.Anys {
			into = append(into, Value{Any: a})
		}
	case ContentString:
		for _, r := range it.Content.Str {
			into = append(into, Value{Any: value.MakeString(string(r))})
		}
	}
	return into
}

// insert creates a local item between left and right and integrates it.
func (b *branch) insert(txn *Txn, left, right *Item, sub *string, content Content) *Item {
	d := txn.doc
	it := &Item{
		ID:        ID{d.clientID, d.store.State(d.clientID)},
		Length:    content.Len(),
		Parent:    b.ref,
		ParentSub: sub,
		Content:   content,
	}
	if left != nil {
		it.Origin = idPtr(left.LastID())
	}
	if right != nil {
		it.RightOrigin = idPtr(right.ID)
	}
	txn.integrate(it, b)
	return it
}
