package octo

import (
	"strconv"

	"github.com/drpcorg/octo/octo_errors"
	"github.com/drpcorg/octo/protocol"
)

/*
ID is a block locator: the replica (client) that wrote an item and the
item's position in that replica's own history (clock).
This is NOT a Lamport timestamp; clocks of different clients are not
comparable. This is *log time*, not *logical time*.
*/
type ID struct {
	Client uint64
	Clock  uint64
}

func NewID(client, clock uint64) ID {
	return ID{Client: client, Clock: clock}
}

func (id ID) Less(other ID) bool {
	if id.Client != other.Client {
		return id.Client < other.Client
	}
	return id.Clock < other.Clock
}

// Plus returns the id that is n clock ticks later.
func (id ID) Plus(n uint64) ID {
	return ID{id.Client, id.Clock + n}
}

func (id ID) String() string {
	var buf [40]byte
	b := strconv.AppendUint(buf[:0], id.Client, 16)
	b = append(b, '-')
	b = strconv.AppendUint(b, id.Clock, 16)
	return string(b)
}

// IDFromString parses the client-clock hex form.
func IDFromString(s string) (id ID, ok bool) {
	for i := 0; i < len(s); i++ {
		if s[i] != '-' {
			continue
		}
		client, err1 := strconv.ParseUint(s[:i], 16, 64)
		clock, err2 := strconv.ParseUint(s[i+1:], 16, 64)
		if err1 != nil || err2 != nil {
			return ID{}, false
		}
		return ID{client, clock}, true
	}
	return ID{}, false
}

func appendID(into []byte, id ID) []byte {
	into = protocol.AppendVarUint(into, id.Client)
	return protocol.AppendVarUint(into, id.Clock)
}

func readID(d *protocol.Decoder) (id ID, err error) {
	if id.Client, err = d.ReadVarUint(); err != nil {
		return
	}
	id.Clock, err = d.ReadVarUint()
	return
}

// optional ids compare equal when both are absent
func sameID(a, b *ID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func idPtr(id ID) *ID {
	return &id
}

// guards clock arithmetic on decoded input
func checkSpan(clock, length uint64) error {
	if length == 0 || clock+length < clock {
		return octo_errors.ErrMalformed
	}
	return nil
}
