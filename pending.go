package octo

import (
	"slices"

	"github.com/drpcorg/octo/utils"
)

// pendingQueue holds remote items that can not be integrated yet,
// per client, sorted by clock.
type pendingQueue map[uint64][]*Item

func (p pendingQueue) Len() (n int) {
	for _, items := range p {
		n += len(items)
	}
	return
}

// candidates merges queued and incoming items per client, sorted by
// clock; items fully covered by earlier ones are dropped.
func candidates(p pendingQueue, runs []Run) pendingQueue {
	ret := make(pendingQueue, len(p)+len(runs))
	for client, items := range p {
		ret[client] = append(ret[client], items...)
	}
	for _, run := range runs {
		ret[run.Client] = append(ret[run.Client], run.Items...)
	}
	for client, items := range ret {
		slices.SortStableFunc(items, func(a, b *Item) int {
			switch {
			case a.ID.Clock < b.ID.Clock:
				return -1
			case a.ID.Clock > b.ID.Clock:
				return 1
			case a.Length > b.Length:
				return -1
			case a.Length < b.Length:
				return 1
			}
			return 0
		})
		j := 0
		var covered uint64
		for i, it := range items {
			if i > 0 && it.End() <= covered {
				continue
			}
			covered = max(covered, it.End())
			items[j] = it
			j++
		}
		ret[client] = items[:j]
	}
	return ret
}

// plan orders the candidates for integration. Readiness only depends on
// the state vector, so the plan runs on a virtual one and mutates nothing.
// Clients blocked on a missing id are parked under that id and woken up
// once the id's client advances past it.
type plan struct {
	store   *BlockStore
	queue   pendingQueue
	next    map[uint64]int
	state   StateVector
	blocked map[ID][]uint64
	work    utils.Heap[uint64]
	ready   map[uint64]bool

	order []*Item
}

func newPlan(store *BlockStore, queue pendingQueue) *plan {
	p := &plan{
		store:   store,
		queue:   queue,
		next:    make(map[uint64]int, len(queue)),
		state:   make(StateVector),
		blocked: make(map[ID][]uint64),
		ready:   make(map[uint64]bool),
	}
	for client := range queue {
		p.wake(client)
	}
	return p
}

func (p *plan) clock(client uint64) uint64 {
	if c, ok := p.state[client]; ok {
		return c
	}
	return p.store.State(client)
}

func (p *plan) has(id ID) bool {
	return id.Clock < p.clock(id.Client)
}

func (p *plan) wake(client uint64) {
	if !p.ready[client] {
		p.ready[client] = true
		p.work.Push(client)
	}
}

// missing names the first dependency of the item not integrated yet.
func (p *plan) missing(it *Item) (ID, bool) {
	if state := p.clock(it.ID.Client); it.ID.Clock > state {
		return ID{it.ID.Client, state}, true
	}
	if it.Content.Tag == ContentGC {
		return ID{}, false
	}
	if it.Origin != nil && !p.has(*it.Origin) {
		return *it.Origin, true
	}
	if it.RightOrigin != nil && !p.has(*it.RightOrigin) {
		return *it.RightOrigin, true
	}
	if it.Origin == nil && it.RightOrigin == nil && !it.Parent.Root && !p.has(it.Parent.ID) {
		return it.Parent.ID, true
	}
	return ID{}, false
}

func (p *plan) run() {
	for p.work.Len() > 0 {
		client := p.work.Pop()
		p.ready[client] = false
		before := p.clock(client)
		items := p.queue[client]
		i := p.next[client]
		for ; i < len(items); i++ {
			it := items[i]
			state := p.clock(client)
			if it.End() <= state {
				continue
			}
			if it.ID.Clock < state {
				it = it.detach(state - it.ID.Clock)
			}
			if miss, ok := p.missing(it); ok {
				p.blocked[miss] = append(p.blocked[miss], client)
				break
			}
			p.order = append(p.order, it)
			p.state[client] = it.End()
		}
		p.next[client] = i
		after := p.clock(client)
		if after == before {
			continue
		}
		for miss, waiting := range p.blocked {
			if miss.Client == client && miss.Clock < after {
				delete(p.blocked, miss)
				for _, c := range waiting {
					p.wake(c)
				}
			}
		}
	}
}

// rest is what stays pending after the plan.
func (p *plan) rest() pendingQueue {
	rest := make(pendingQueue)
	for client, items := range p.queue {
		if i := p.next[client]; i < len(items) {
			rest[client] = slices.Clone(items[i:])
		}
	}
	return rest
}

// Missing lists the ids the pending items wait for.
func (p *plan) Missing() []ID {
	ids := make([]ID, 0, len(p.blocked))
	for id := range p.blocked {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b ID) int {
		if a.Less(b) {
			return -1
		}
		if b.Less(a) {
			return 1
		}
		return 0
	})
	return ids
}
