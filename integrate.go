package octo

// integrate links a new item into the parent branch and stores it.
// Every dependency of the item (its previous clock, origins, parent)
// must be integrated already.
//
// Concurrent inserts at the same spot are ordered YATA style. Scanning
// right from the left neighbour up to the right origin:
//   - an item with the same left origin and a lower client id is
//     passed over (ours goes to its right);
//   - an item with the same left origin and the same right origin
//     stops the scan (ours goes to its left);
//   - an item whose origin was already scanned is passed over, unless
//     that origin is among the still conflicting items;
//   - anything else stops the scan.
func (txn *Txn) integrate(it *Item, parent *branch) {
	d := txn.doc
	s := d.store
	var left, right *Item
	if it.Origin != nil {
		left = s.cleanEnd(*it.Origin)
	}
	if it.RightOrigin != nil {
		right = s.cleanStart(*it.RightOrigin)
	}
	sub := it.ParentSub

	if (left == nil && (right == nil || right.left != nil)) || (left != nil && left.right != right) {
		var o *Item
		switch {
		case left != nil:
			o = left.right
		case sub != nil:
			o = parent.entries[*sub]
			for o != nil && o.left != nil {
				o = o.left
			}
		default:
			o = parent.start
		}
		conflicting := make(map[*Item]struct{})
		before := make(map[*Item]struct{})
		for o != nil && o != right {
			before[o] = struct{}{}
			conflicting[o] = struct{}{}
			if sameID(it.Origin, o.Origin) {
				if o.ID.Client < it.ID.Client {
					left = o
					clear(conflicting)
				} else if sameID(it.RightOrigin, o.RightOrigin) {
					break
				}
			} else if oo := d.originItem(o); oo != nil && has(before, oo) {
				if !has(conflicting, oo) {
					left = o
					clear(conflicting)
				}
			} else {
				break
			}
			o = o.right
		}
	}

	it.parent = parent
	it.left = left
	if left != nil {
		it.right = left.right
		left.right = it
	} else {
		var r *Item
		if sub != nil {
			r = parent.entries[*sub]
			for r != nil && r.left != nil {
				r = r.left
			}
		} else {
			r = parent.start
			parent.start = it
		}
		it.right = r
	}
	if it.right != nil {
		it.right.left = it
	} else if sub != nil {
		parent.entries[*sub] = it
		if it.left != nil {
			txn.deleteItem(it.left)
		}
	}
	if sub == nil && it.Visible() {
		parent.length += it.Length
	}
	if it.Content.Tag == ContentType {
		it.Content.branch = newBranch(it.Content.Kind, ParentRef{ID: it.ID}, it)
	}
	// the caller checked the clock, so this can not fail
	_ = s.Insert(it)
	if parent.deleted() || (sub != nil && it.right != nil) {
		txn.deleteItem(it)
	}
	countItem(txn, it)
}

func (d *Doc) originItem(o *Item) *Item {
	if o.Origin == nil {
		return nil
	}
	it, _ := d.store.Get(*o.Origin)
	return it
}

func has(set map[*Item]struct{}, it *Item) bool {
	_, ok := set[it]
	return ok
}

// integrateRemote finds the parent of a remote item and integrates it;
// an item without a usable parent becomes a GC placeholder.
func (txn *Txn) integrateRemote(it *Item) {
	d := txn.doc
	if parent := d.parentOf(it); parent != nil {
		txn.integrate(it, parent)
		return
	}
	if it.Content.Tag != ContentGC {
		d.log.Warn("item has no parent, keeping a gc placeholder", "id", it.ID, "parent", it.Parent)
	}
	it.Content = Content{Tag: ContentGC}
	it.Origin, it.RightOrigin, it.ParentSub = nil, nil, nil
	it.Deleted = true
	_ = d.store.Insert(it)
	countItem(txn, it)
}

func (d *Doc) parentOf(it *Item) *branch {
	if it.Content.Tag == ContentGC {
		return nil
	}
	var src *Item
	if it.Origin != nil {
		src, _ = d.store.Get(*it.Origin)
	} else if it.RightOrigin != nil {
		src, _ = d.store.Get(*it.RightOrigin)
	}
	if src != nil {
		if src.parent == nil {
			return nil
		}
		it.Parent = src.Parent
		it.ParentSub = src.ParentSub
		return src.parent
	}
	if it.Origin != nil || it.RightOrigin != nil {
		return nil
	}
	if it.Parent.Root {
		return d.root(it.Parent.Name, kindUnknown)
	}
	p, ok := d.store.Get(it.Parent.ID)
	if !ok || p.ID != it.Parent.ID || p.Content.branch == nil {
		return nil
	}
	return p.Content.branch
}

// unlink takes an item out of its branch; used to roll back.
func (d *Doc) unlink(it *Item) {
	parent := it.parent
	if parent == nil {
		return
	}
	sub := it.ParentSub
	if it.left != nil {
		it.left.right = it.right
	} else if sub == nil {
		parent.start = it.right
	}
	if it.right != nil {
		it.right.left = it.left
	} else if sub != nil {
		if it.left != nil {
			parent.entries[*sub] = it.left
		} else {
			delete(parent.entries, *sub)
		}
	}
	if sub == nil && it.Visible() {
		parent.length -= it.Length
	}
	if it.Content.Tag == ContentType {
		d.nested.Remove(it.ID)
	}
	it.left, it.right, it.parent = nil, nil, nil
}
