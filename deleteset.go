package octo

import (
	"fmt"
	"slices"
	"strings"

	"github.com/drpcorg/octo/protocol"
)

// Range is a span of clocks [Clock, Clock+Len).
type Range struct {
	Clock uint64
	Len   uint64
}

func (r Range) End() uint64 {
	return r.Clock + r.Len
}

// DeleteSet lists deleted clock ranges per client.
type DeleteSet map[uint64][]Range

func (ds DeleteSet) Add(client, clock, length uint64) {
	if length == 0 {
		return
	}
	ds[client] = append(ds[client], Range{clock, length})
}

func (ds DeleteSet) Contains(id ID) bool {
	for _, r := range ds[id.Client] {
		if id.Clock >= r.Clock && id.Clock < r.End() {
			return true
		}
	}
	return false
}

// Merge adds all the ranges of b; call normalize afterwards.
func (ds DeleteSet) Merge(b DeleteSet) {
	for client, ranges := range b {
		ds[client] = append(ds[client], ranges...)
	}
}

// Len is the number of ranges.
func (ds DeleteSet) Len() (n int) {
	for _, ranges := range ds {
		n += len(ranges)
	}
	return
}

// normalize sorts the ranges and glues overlapping or adjacent ones.
func (ds DeleteSet) normalize() {
	for client, ranges := range ds {
		if len(ranges) == 0 {
			delete(ds, client)
			continue
		}
		slices.SortFunc(ranges, func(a, b Range) int {
			switch {
			case a.Clock < b.Clock:
				return -1
			case a.Clock > b.Clock:
				return 1
			}
			return 0
		})
		j := 0
		for i := 1; i < len(ranges); i++ {
			if ranges[i].Clock <= ranges[j].End() {
				if end := ranges[i].End(); end > ranges[j].End() {
					ranges[j].Len = end - ranges[j].Clock
				}
			} else {
				j++
				ranges[j] = ranges[i]
			}
		}
		ds[client] = ranges[:j+1]
	}
}

func (ds DeleteSet) Clients() []uint64 {
	clients := make([]uint64, 0, len(ds))
	for c := range ds {
		clients = append(clients, c)
	}
	slices.Sort(clients)
	return clients
}

func (ds DeleteSet) String() string {
	var sb strings.Builder
	for _, c := range ds.Clients() {
		for _, r := range ds[c] {
			if sb.Len() > 0 {
				sb.WriteByte(',')
			}
			fmt.Fprintf(&sb, "%s+%d", ID{c, r.Clock}, r.Len)
		}
	}
	return sb.String()
}

// [client_count] then per client [client][range_count]{[clock][len]}
func appendDeleteSet(into []byte, ds DeleteSet) []byte {
	clients := ds.Clients()
	into = protocol.AppendVarUint(into, uint64(len(clients)))
	for _, c := range clients {
		into = protocol.AppendVarUint(into, c)
		into = protocol.AppendVarUint(into, uint64(len(ds[c])))
		for _, r := range ds[c] {
			into = protocol.AppendVarUint(into, r.Clock)
			into = protocol.AppendVarUint(into, r.Len)
		}
	}
	return into
}

func readDeleteSet(d *protocol.Decoder) (DeleteSet, error) {
	n, err := d.ReadLen()
	if err != nil {
		return nil, err
	}
	ds := make(DeleteSet, n)
	for i := 0; i < n; i++ {
		client, err := d.ReadVarUint()
		if err != nil {
			return nil, err
		}
		m, err := d.ReadLen()
		if err != nil {
			return nil, err
		}
		for j := 0; j < m; j++ {
			var r Range
			if r.Clock, err = d.ReadVarUint(); err != nil {
				return nil, err
			}
			if r.Len, err = d.ReadVarUint(); err != nil {
				return nil, err
			}
			if err = checkSpan(r.Clock, r.Len); err != nil {
				return nil, err
			}
			ds[client] = append(ds[client], r)
		}
	}
	ds.normalize()
	return ds, nil
}
