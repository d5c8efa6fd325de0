package octo

import (
	"fmt"

	"github.com/drpcorg/octo/octo_errors"
	"github.com/drpcorg/octo/protocol"
)

const (
	infoOrigin      = 0x80
	infoRightOrigin = 0x40
	infoParentSub   = 0x20
	infoTagMask     = 0x1f
)

// ParentRef names the branch an item belongs to: a root type by name or
// a nested type by the id of the item that carries it.
type ParentRef struct {
	Root bool
	Name string
	ID   ID
}

func (p ParentRef) String() string {
	if p.Root {
		return p.Name
	}
	return "<" + p.ID.String() + ">"
}

/*
Item is one edit record. An item spans Length clock ticks of its client
starting at ID.Clock. Origin is the last id of the left neighbour and
RightOrigin the first id of the right neighbour at the moment the item
was created; both are immutable. Only Deleted ever changes after the
item is integrated, and only from false to true.
*/
type Item struct {
	ID          ID
	Length      uint64
	Origin      *ID
	RightOrigin *ID
	Parent      ParentRef
	ParentSub   *string
	Content     Content
	Deleted     bool

	left, right *Item
	parent      *branch
}

// LastID is the id of the last tick of the item.
func (it *Item) LastID() ID {
	return ID{it.ID.Client, it.ID.Clock + it.Length - 1}
}

// End is the clock right after the item.
func (it *Item) End() uint64 {
	return it.ID.Clock + it.Length
}

func (it *Item) Contains(id ID) bool {
	return id.Client == it.ID.Client && id.Clock >= it.ID.Clock && id.Clock < it.End()
}

// Visible items take positions in their parent.
func (it *Item) Visible() bool {
	return !it.Deleted && it.Content.Countable()
}

func (it *Item) Left() *Item  { return it.left }
func (it *Item) Right() *Item { return it.right }

func (it *Item) String() string {
	var del string
	if it.Deleted {
		del = " deleted"
	}
	return fmt.Sprintf("%s+%d %s%s", it.ID, it.Length, it.Content.Tag, del)
}

// split cuts an integrated item at offset; the returned tail is linked
// right after the head. Splitting never changes what is visible.
func (it *Item) split(offset uint64) *Item {
	tail := &Item{
		ID:          ID{it.ID.Client, it.ID.Clock + offset},
		Length:      it.Length - offset,
		Origin:      idPtr(ID{it.ID.Client, it.ID.Clock + offset - 1}),
		RightOrigin: it.RightOrigin,
		Parent:      it.Parent,
		ParentSub:   it.ParentSub,
		Content:     it.Content.splice(offset),
		Deleted:     it.Deleted,
		left:        it,
		right:       it.right,
		parent:      it.parent,
	}
	it.Length = offset
	if it.right != nil {
		it.right.left = tail
	}
	it.right = tail
	if tail.right == nil && tail.ParentSub != nil && tail.parent != nil {
		tail.parent.entries[*tail.ParentSub] = tail
	}
	return tail
}

// detach makes an unlinked copy of the item starting at offset, as it is
// written into updates.
func (it *Item) detach(offset uint64) *Item {
	cp := &Item{
		ID:          it.ID,
		Length:      it.Length,
		Origin:      it.Origin,
		RightOrigin: it.RightOrigin,
		Parent:      it.Parent,
		ParentSub:   it.ParentSub,
		Content:     it.Content,
	}
	cp.Content.branch = nil
	if offset > 0 {
		cp.ID.Clock += offset
		cp.Length -= offset
		cp.Origin = idPtr(ID{it.ID.Client, cp.ID.Clock - 1})
		cp.Content = it.Content.tail(offset)
	}
	return cp
}

func appendItem(into []byte, it *Item) []byte {
	info := byte(it.Content.Tag)
	if it.Content.Tag == ContentGC {
		into = append(into, info)
		return protocol.AppendVarUint(into, it.Length)
	}
	if it.Origin != nil {
		info |= infoOrigin
	}
	if it.RightOrigin != nil {
		info |= infoRightOrigin
	}
	withParent := it.Origin == nil && it.RightOrigin == nil
	if withParent && it.ParentSub != nil {
		info |= infoParentSub
	}
	into = append(into, info)
	if it.Origin != nil {
		into = appendID(into, *it.Origin)
	}
	if it.RightOrigin != nil {
		into = appendID(into, *it.RightOrigin)
	}
	if withParent {
		if it.Parent.Root {
			into = protocol.AppendVarUint(into, 1)
			into = protocol.AppendString(into, it.Parent.Name)
		} else {
			into = protocol.AppendVarUint(into, 0)
			into = appendID(into, it.Parent.ID)
		}
		if it.ParentSub != nil {
			into = protocol.AppendString(into, *it.ParentSub)
		}
	}
	into = protocol.AppendVarUint(into, it.Length)
	return appendContent(into, &it.Content)
}

// readItem parses one item; its id is assigned by the caller's run.
func readItem(d *protocol.Decoder, id ID) (it *Item, err error) {
	info, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	it = &Item{ID: id}
	tag := ContentTag(info & infoTagMask)
	if tag == ContentGC {
		if info != 0 {
			return nil, fmt.Errorf("%w: gc item with flags %x", octo_errors.ErrMalformed, info)
		}
		if it.Length, err = d.ReadVarUint(); err != nil {
			return nil, err
		}
		it.Content.Tag = ContentGC
		it.Deleted = true
		return it, checkSpan(id.Clock, it.Length)
	}
	if info&infoOrigin != 0 {
		var o ID
		if o, err = readID(d); err != nil {
			return nil, err
		}
		it.Origin = &o
	}
	if info&infoRightOrigin != 0 {
		var ro ID
		if ro, err = readID(d); err != nil {
			return nil, err
		}
		it.RightOrigin = &ro
	}
	if it.Origin == nil && it.RightOrigin == nil {
		var isRoot uint64
		if isRoot, err = d.ReadVarUint(); err != nil {
			return nil, err
		}
		switch isRoot {
		case 1:
			it.Parent.Root = true
			if it.Parent.Name, err = d.ReadString(); err != nil {
				return nil, err
			}
		case 0:
			if it.Parent.ID, err = readID(d); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: parent flag %d", octo_errors.ErrMalformed, isRoot)
		}
		if info&infoParentSub != 0 {
			var sub string
			if sub, err = d.ReadString(); err != nil {
				return nil, err
			}
			it.ParentSub = &sub
		}
	} else if info&infoParentSub != 0 {
		return nil, fmt.Errorf("%w: parent sub without parent", octo_errors.ErrMalformed)
	}
	if it.Length, err = d.ReadVarUint(); err != nil {
		return nil, err
	}
	if err = checkSpan(id.Clock, it.Length); err != nil {
		return nil, err
	}
	if it.Content, err = readContent(d, tag, it.Length); err != nil {
		return nil, err
	}
	return it, nil
}
