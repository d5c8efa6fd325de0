package octo

import (
	"fmt"
	"slices"
	"sort"

	"github.com/drpcorg/octo/octo_errors"
)

// BlockStore keeps every integrated item, per client, ordered by clock.
// Per client the items cover the clocks from 0 without gaps.
type BlockStore struct {
	clients map[uint64][]*Item
}

func NewBlockStore() *BlockStore {
	return &BlockStore{clients: make(map[uint64][]*Item)}
}

// State is the next clock expected from the client.
func (s *BlockStore) State(client uint64) uint64 {
	items := s.clients[client]
	if len(items) == 0 {
		return 0
	}
	return items[len(items)-1].End()
}

// Has reports whether the id was integrated.
func (s *BlockStore) Has(id ID) bool {
	return id.Clock < s.State(id.Client)
}

func (s *BlockStore) StateVector() StateVector {
	sv := make(StateVector, len(s.clients))
	for client := range s.clients {
		if state := s.State(client); state > 0 {
			sv[client] = state
		}
	}
	return sv
}

// Clients in ascending order.
func (s *BlockStore) Clients() []uint64 {
	clients := make([]uint64, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	slices.Sort(clients)
	return clients
}

// Len is the number of item records; splits make it grow.
func (s *BlockStore) Len() (n int) {
	for _, items := range s.clients {
		n += len(items)
	}
	return
}

// Insert appends an item at the tail of its client's history.
func (s *BlockStore) Insert(it *Item) error {
	state := s.State(it.ID.Client)
	if it.ID.Clock < state {
		return fmt.Errorf("%w: %s", octo_errors.ErrDuplicateID, it.ID)
	}
	if it.ID.Clock > state {
		return fmt.Errorf("%w: %s, expected clock %d", octo_errors.ErrClockGap, it.ID, state)
	}
	if it.Length == 0 {
		return fmt.Errorf("%w: empty item %s", octo_errors.ErrMalformed, it.ID)
	}
	s.clients[it.ID.Client] = append(s.clients[it.ID.Client], it)
	return nil
}

// Get finds the item containing the id.
func (s *BlockStore) Get(id ID) (*Item, bool) {
	items := s.clients[id.Client]
	i := s.find(items, id.Clock)
	if i < 0 {
		return nil, false
	}
	return items[i], true
}

// find is a binary search for the item containing the clock.
func (s *BlockStore) find(items []*Item, clock uint64) int {
	if len(items) == 0 || clock >= items[len(items)-1].End() {
		return -1
	}
	return sort.Search(len(items), func(i int) bool {
		return items[i].End() > clock
	})
}

// cleanStart returns the item starting exactly at id, splitting if needed.
func (s *BlockStore) cleanStart(id ID) *Item {
	items := s.clients[id.Client]
	i := s.find(items, id.Clock)
	if i < 0 {
		return nil
	}
	it := items[i]
	if it.ID.Clock < id.Clock {
		tail := it.split(id.Clock - it.ID.Clock)
		s.clients[id.Client] = slices.Insert(items, i+1, tail)
		return tail
	}
	return it
}

// cleanEnd returns the item ending exactly at id, splitting if needed.
func (s *BlockStore) cleanEnd(id ID) *Item {
	items := s.clients[id.Client]
	i := s.find(items, id.Clock)
	if i < 0 {
		return nil
	}
	it := items[i]
	if id.Clock+1 < it.End() {
		tail := it.split(id.Clock - it.ID.Clock + 1)
		s.clients[id.Client] = slices.Insert(items, i+1, tail)
	}
	return it
}

// truncate drops the client's items from the clock on, returns them.
func (s *BlockStore) truncate(client, clock uint64) []*Item {
	items := s.clients[client]
	i := sort.Search(len(items), func(i int) bool {
		return items[i].ID.Clock >= clock
	})
	cut := slices.Clone(items[i:])
	clear(items[i:])
	if i == 0 {
		delete(s.clients, client)
	} else {
		s.clients[client] = items[:i]
	}
	return cut
}

// from lists the client's items overlapping clocks from the given one on.
func (s *BlockStore) from(client, clock uint64) []*Item {
	items := s.clients[client]
	i := s.find(items, clock)
	if i < 0 {
		return nil
	}
	return items[i:]
}

// DeleteSet collects the deleted spans of all items.
func (s *BlockStore) DeleteSet() DeleteSet {
	ds := make(DeleteSet)
	for client, items := range s.clients {
		for _, it := range items {
			if it.Deleted {
				ds.Add(client, it.ID.Clock, it.Length)
			}
		}
	}
	ds.normalize()
	return ds
}
