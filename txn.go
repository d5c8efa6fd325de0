package octo

import (
	"fmt"
	"slices"

	"github.com/drpcorg/octo/octo_errors"
)

type TxnState int

const (
	TxnOpen TxnState = iota
	TxnCommitting
	TxnClosed
)

func (s TxnState) String() string {
	return []string{"open", "committing", "closed"}[s]
}

// Txn is the unit of mutation. All shared-type writes take the open
// transaction of their Doc; Commit encodes what the transaction did,
// Abort undoes it.
type Txn struct {
	doc     *Doc
	state   TxnState
	local   bool
	origin  string
	before  StateVector
	deletes DeleteSet
}

func (txn *Txn) State() TxnState {
	return txn.state
}

func (txn *Txn) Doc() *Doc {
	return txn.doc
}

func (txn *Txn) check(d *Doc) error {
	if txn == nil || txn.state != TxnOpen {
		return octo_errors.ErrTransactionClosed
	}
	if txn.doc != d {
		return octo_errors.ErrForeignTransaction
	}
	if d.destroyed {
		return octo_errors.ErrDocDestroyed
	}
	return nil
}

// Changed reports whether the transaction created or deleted anything.
func (txn *Txn) Changed() bool {
	if len(txn.deletes) > 0 {
		return true
	}
	d := txn.doc
	return d.store.State(d.clientID) > txn.before.Get(d.clientID)
}

// deleteItem tombstones an item; deleting a nested type deletes its
// content too.
func (txn *Txn) deleteItem(it *Item) {
	if it.Deleted {
		return
	}
	if it.parent != nil && it.ParentSub == nil && it.Content.Countable() {
		it.parent.length -= it.Length
	}
	it.Deleted = true
	txn.deletes.Add(it.ID.Client, it.ID.Clock, it.Length)
	if b := it.Content.branch; b != nil {
		for n := b.start; n != nil; n = n.right {
			txn.deleteItem(n)
		}
		for _, e := range b.entries {
			txn.deleteItem(e)
		}
	}
}

// applyDeletes tombstones the known part of the set, returns the rest.
func (txn *Txn) applyDeletes(ds DeleteSet) DeleteSet {
	s := txn.doc.store
	rest := make(DeleteSet)
	for client, ranges := range ds {
		state := s.State(client)
		for _, r := range ranges {
			if r.Clock < state {
				txn.deleteRange(client, r.Clock, min(r.End(), state))
			}
			if r.End() > state {
				from := max(r.Clock, state)
				rest.Add(client, from, r.End()-from)
			}
		}
	}
	rest.normalize()
	return rest
}

func (txn *Txn) deleteRange(client, clock, end uint64) {
	s := txn.doc.store
	for clock < end {
		it, ok := s.Get(ID{client, clock})
		if !ok {
			return
		}
		if !it.Deleted {
			if it.ID.Clock < clock {
				it = s.cleanStart(ID{client, clock})
			}
			if it.End() > end {
				s.cleanEnd(ID{client, end - 1})
			}
			txn.deleteItem(it)
		}
		clock = it.End()
	}
}

// Commit closes the transaction and returns its update: the items it
// created and the ranges it deleted.
func (txn *Txn) Commit() ([]byte, error) {
	if txn.state != TxnOpen {
		return nil, octo_errors.ErrTransactionClosed
	}
	d := txn.doc
	txn.state = TxnCommitting
	txn.deletes.normalize()
	u := &Update{Deletes: txn.deletes}
	if run, ok := d.run(d.clientID, txn.before.Get(d.clientID)); ok {
		u.Runs = append(u.Runs, run)
	}
	update := EncodeUpdate(u)
	txn.close()
	if txn.Changed() {
		Transactions.WithLabelValues("commit").Inc()
		d.fire(update, txn.origin)
	}
	return update, nil
}

// Abort undoes everything the transaction did.
func (txn *Txn) Abort() error {
	if txn.state != TxnOpen {
		return octo_errors.ErrTransactionClosed
	}
	d := txn.doc
	s := d.store
	own := d.clientID
	mark := txn.before.Get(own)
	// resurrect what this transaction tombstoned
	txn.deletes.normalize()
	for client, ranges := range txn.deletes {
		for _, r := range ranges {
			for _, it := range s.from(client, r.Clock) {
				if it.ID.Clock >= r.End() {
					break
				}
				if client == own && it.ID.Clock >= mark {
					continue
				}
				if it.Deleted && it.Content.Countable() {
					it.Deleted = false
					if it.parent != nil && it.ParentSub == nil {
						it.parent.length += it.Length
					}
				}
			}
		}
	}
	// unlink the new items, youngest first
	created := s.truncate(own, mark)
	slices.Reverse(created)
	for _, it := range created {
		d.unlink(it)
	}
	Transactions.WithLabelValues("abort").Inc()
	txn.close()
	return nil
}

func (txn *Txn) close() {
	txn.state = TxnClosed
	if txn.doc.txn == txn {
		txn.doc.txn = nil
	}
}

func (txn *Txn) String() string {
	return fmt.Sprintf("txn %s from %s", txn.state, txn.before)
}
