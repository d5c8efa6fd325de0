package octo

import (
	"fmt"
	"slices"
	"strings"

	"github.com/drpcorg/octo/octo_errors"
	"github.com/drpcorg/octo/protocol"
)

// StateVector maps every known client to the next clock expected from it,
// i.e. the number of that client's edits integrated so far.
type StateVector map[uint64]uint64

func (sv StateVector) Get(client uint64) uint64 {
	return sv[client]
}

// Set the next clock for the specified client
func (sv StateVector) Set(client, clock uint64) {
	sv[client] = clock
}

// Put raises the entry, returns whether it made any difference.
func (sv StateVector) Put(client, clock uint64) bool {
	pre, ok := sv[client]
	if ok && pre >= clock {
		return false
	}
	sv[client] = clock
	return true
}

// Whether this vector has seen something b has not.
func (sv StateVector) ProgressedOver(b StateVector) bool {
	for client, clock := range sv {
		if clock > b[client] {
			return true
		}
	}
	return false
}

// Seen reports whether every edit summarized by b was seen here.
func (sv StateVector) Seen(b StateVector) bool {
	for client, clock := range b {
		if clock > sv[client] {
			return false
		}
	}
	return true
}

// Clients in ascending order; that is the encoding order.
func (sv StateVector) Clients() []uint64 {
	clients := make([]uint64, 0, len(sv))
	for c := range sv {
		clients = append(clients, c)
	}
	slices.Sort(clients)
	return clients
}

func (sv StateVector) Clone() StateVector {
	c := make(StateVector, len(sv))
	for k, v := range sv {
		c[k] = v
	}
	return c
}

// Merge raises every entry to the max of both vectors.
func (sv StateVector) Merge(b StateVector) {
	for client, clock := range b {
		sv.Put(client, clock)
	}
}

func (sv StateVector) String() string {
	parts := make([]string, 0, len(sv))
	for _, c := range sv.Clients() {
		parts = append(parts, ID{c, sv[c]}.String())
	}
	return strings.Join(parts, ",")
}

// StateVectorFromString parses the comma separated client-clock form.
func StateVectorFromString(s string) (StateVector, error) {
	sv := make(StateVector)
	if strings.TrimSpace(s) == "" {
		return sv, nil
	}
	for _, part := range strings.Split(s, ",") {
		id, ok := IDFromString(strings.TrimSpace(part))
		if !ok {
			return nil, fmt.Errorf("%w: bad state vector entry %q", octo_errors.ErrMalformed, part)
		}
		sv.Put(id.Client, id.Clock)
	}
	return sv, nil
}

// EncodeStateVector: [entry_count] then (client, next_clock) pairs.
// Zero entries carry no information and are skipped.
func EncodeStateVector(sv StateVector) []byte {
	clients := sv.Clients()
	n := 0
	for _, c := range clients {
		if sv[c] > 0 {
			n++
		}
	}
	buf := protocol.AppendVarUint(nil, uint64(n))
	for _, c := range clients {
		if sv[c] > 0 {
			buf = appendID(buf, ID{c, sv[c]})
		}
	}
	return buf
}

func DecodeStateVector(buf []byte) (StateVector, error) {
	d := protocol.NewDecoder(buf)
	n, err := d.ReadLen()
	if err != nil {
		return nil, err
	}
	sv := make(StateVector, n)
	for i := 0; i < n; i++ {
		id, err := readID(d)
		if err != nil {
			return nil, err
		}
		sv.Put(id.Client, id.Clock)
	}
	if d.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", octo_errors.ErrMalformed, d.Len())
	}
	return sv, nil
}
