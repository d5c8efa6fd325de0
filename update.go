package octo

import (
	"fmt"
	"strings"

	"github.com/drpcorg/octo/octo_errors"
	"github.com/drpcorg/octo/protocol"
)

// Run is a stretch of one client's items with contiguous clocks.
type Run struct {
	Client uint64
	Clock  uint64
	Items  []*Item
}

func (r Run) End() uint64 {
	if len(r.Items) == 0 {
		return r.Clock
	}
	return r.Items[len(r.Items)-1].End()
}

// Update is the decoded form of an update buffer: item runs and the
// ranges deleted.
type Update struct {
	Runs    []Run
	Deletes DeleteSet
}

// Len is the number of items.
func (u *Update) Len() (n int) {
	for _, run := range u.Runs {
		n += len(run.Items)
	}
	return
}

func (u *Update) Empty() bool {
	return u.Len() == 0 && u.Deletes.Len() == 0
}

func (u *Update) String() string {
	var sb strings.Builder
	for _, run := range u.Runs {
		for _, it := range run.Items {
			sb.WriteString(it.String())
			sb.WriteByte('\n')
		}
	}
	if len(u.Deletes) > 0 {
		fmt.Fprintf(&sb, "deleted %s\n", u.Deletes)
	}
	return sb.String()
}

func EncodeUpdate(u *Update) []byte {
	buf := protocol.AppendVarUint(nil, uint64(len(u.Runs)))
	for _, run := range u.Runs {
		buf = protocol.AppendVarUint(buf, run.Client)
		buf = protocol.AppendVarUint(buf, run.Clock)
		buf = protocol.AppendVarUint(buf, uint64(len(run.Items)))
		for _, it := range run.Items {
			buf = appendItem(buf, it)
		}
	}
	return appendDeleteSet(buf, u.Deletes)
}

// DecodeUpdate parses a whole update; nothing is applied anywhere.
func DecodeUpdate(buf []byte) (*Update, error) {
	d := protocol.NewDecoder(buf)
	n, err := d.ReadLen()
	if err != nil {
		return nil, err
	}
	u := &Update{Runs: make([]Run, 0, n)}
	for i := 0; i < n; i++ {
		var run Run
		if run.Client, err = d.ReadVarUint(); err != nil {
			return nil, err
		}
		if run.Clock, err = d.ReadVarUint(); err != nil {
			return nil, err
		}
		m, err := d.ReadLen()
		if err != nil {
			return nil, err
		}
		run.Items = make([]*Item, 0, m)
		clock := run.Clock
		for j := 0; j < m; j++ {
			it, err := readItem(d, ID{run.Client, clock})
			if err != nil {
				return nil, fmt.Errorf("item %s: %w", ID{run.Client, clock}, err)
			}
			run.Items = append(run.Items, it)
			clock = it.End()
		}
		if m > 0 {
			u.Runs = append(u.Runs, run)
		}
	}
	if u.Deletes, err = readDeleteSet(d); err != nil {
		return nil, err
	}
	if d.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", octo_errors.ErrMalformed, d.Len())
	}
	return u, nil
}

// runsOf cuts clock-sorted items of one client into runs starting at
// the from clock; overlaps are trimmed, gaps start a new run. Items are
// copied.
func runsOf(client uint64, items []*Item, from uint64) (runs []Run) {
	cursor := from
	for _, it := range items {
		if it.End() <= cursor {
			continue
		}
		var offset uint64
		if it.ID.Clock < cursor {
			offset = cursor - it.ID.Clock
		}
		cp := it.detach(offset)
		if len(runs) == 0 || runs[len(runs)-1].End() != cp.ID.Clock {
			runs = append(runs, Run{Client: client, Clock: cp.ID.Clock})
		}
		last := &runs[len(runs)-1]
		last.Items = append(last.Items, cp)
		cursor = cp.End()
	}
	return
}

// run is the store's items of the client from the clock on.
func (d *Doc) run(client, from uint64) (Run, bool) {
	runs := runsOf(client, d.store.from(client, from), from)
	if len(runs) == 0 {
		return Run{}, false
	}
	return runs[0], true
}

// Diff lists what the remote replica summarized by the state vector is
// missing. Parked items are included, so they reach other replicas too.
func (d *Doc) Diff(remote StateVector) *Update {
	u := &Update{Deletes: d.store.DeleteSet()}
	for _, client := range d.store.Clients() {
		if run, ok := d.run(client, remote.Get(client)); ok {
			u.Runs = append(u.Runs, run)
		}
	}
	for _, client := range sortedClients(d.pending) {
		u.Runs = append(u.Runs, runsOf(client, d.pending[client], remote.Get(client))...)
	}
	u.Deletes.Merge(d.pendingDeletes)
	u.Deletes.normalize()
	return u
}

// EncodeStateAsUpdate encodes Diff(remote); a nil vector means everything.
func (d *Doc) EncodeStateAsUpdate(remote StateVector) []byte {
	return EncodeUpdate(d.Diff(remote))
}

func (d *Doc) ApplyUpdate(update []byte) error {
	return d.ApplyUpdateFrom(update, OriginRemote)
}

// ApplyUpdateFrom decodes and applies an update. The update is fully
// decoded before anything changes, so on error the Doc is untouched.
func (d *Doc) ApplyUpdateFrom(update []byte, origin string) error {
	u, err := DecodeUpdate(update)
	if err != nil {
		UpdatesApplied.WithLabelValues("malformed").Inc()
		return err
	}
	changed, err := d.apply(u, origin)
	if err != nil {
		return err
	}
	if changed {
		d.fire(update, origin)
	}
	return nil
}

// apply integrates what it can and parks the rest; reports whether
// anything changed.
func (d *Doc) apply(u *Update, origin string) (bool, error) {
	if d.destroyed {
		return false, octo_errors.ErrDocDestroyed
	}
	if d.txn != nil {
		return false, octo_errors.ErrTransactionOpen
	}
	p := newPlan(d.store, candidates(d.pending, u.Runs))
	p.run()
	rest := p.rest()
	deletes := make(DeleteSet)
	deletes.Merge(d.pendingDeletes)
	deletes.Merge(u.Deletes)
	deletes.normalize()
	// the deletes beyond what will be known stay parked
	parkedDeletes := 0
	for client, ranges := range deletes {
		for _, r := range ranges {
			if r.End() > p.clock(client) {
				parkedDeletes++
			}
		}
	}
	if parked := rest.Len() + parkedDeletes; parked > d.opts.MaxPending {
		UpdatesApplied.WithLabelValues("overflow").Inc()
		return false, fmt.Errorf("%w: %d parked, limit %d", octo_errors.ErrPendingOverflow, parked, d.opts.MaxPending)
	}
	parkedBefore := d.PendingLen()

	txn, _ := d.begin(origin, false)
	for _, it := range p.order {
		txn.integrateRemote(it)
	}
	d.pendingDeletes = txn.applyDeletes(deletes)
	d.pending = rest
	d.missing = p.Missing()
	txn.close()
	if n := rest.Len(); n > 0 {
		d.log.Debug("items parked", "doc", d.guid, "pending", n, "missing", len(d.missing))
	}
	PendingItems.Observe(float64(rest.Len()))
	UpdatesApplied.WithLabelValues("ok").Inc()
	return len(p.order) > 0 || len(txn.deletes) > 0 || d.PendingLen() > parkedBefore, nil
}

// MergeUpdates folds several updates into one without a Doc. Applying
// the result equals applying every input.
func MergeUpdates(updates ...[]byte) ([]byte, error) {
	var runs []Run
	deletes := make(DeleteSet)
	for _, buf := range updates {
		u, err := DecodeUpdate(buf)
		if err != nil {
			return nil, err
		}
		runs = append(runs, u.Runs...)
		deletes.Merge(u.Deletes)
	}
	deletes.normalize()
	merged := &Update{Deletes: deletes}
	queue := candidates(nil, runs)
	for _, client := range sortedClients(queue) {
		merged.Runs = append(merged.Runs, runsOf(client, queue[client], 0)...)
	}
	return EncodeUpdate(merged), nil
}

func sortedClients(p pendingQueue) []uint64 {
	sv := make(StateVector, len(p))
	for client := range p {
		sv[client] = 0
	}
	return sv.Clients()
}
