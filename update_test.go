package octo

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drpcorg/octo/octo_errors"
	"github.com/drpcorg/octo/value"
)

func TestUpdateBytes(t *testing.T) {
	d := newTestDoc(1)
	update := pushText(t, d, "t", "hi")
	g := goldie.New(t, goldie.WithFixtureDir("testdata"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "update_text", []byte(hex.EncodeToString(update)))

	u, err := DecodeUpdate(update)
	require.NoError(t, err)
	require.Len(t, u.Runs, 1)
	it := u.Runs[0].Items[0]
	assert.Equal(t, ID{1, 0}, it.ID)
	assert.Equal(t, ParentRef{Root: true, Name: "t"}, it.Parent)
	assert.Equal(t, "hi", it.Content.Str)
	assert.Equal(t, update, EncodeUpdate(u))
}

func TestDecodeUpdateErrors(t *testing.T) {
	d := newTestDoc(1)
	update := pushText(t, d, "t", "hi")
	for i := 0; i < len(update); i++ {
		_, err := DecodeUpdate(update[:i])
		assert.ErrorIs(t, err, octo_errors.ErrTruncated, "cut at %d", i)
	}
	_, err := DecodeUpdate(append(update, 0))
	assert.ErrorIs(t, err, octo_errors.ErrMalformed)

	// string content shorter than its length
	bad := []byte{1, 1, 0, 1, 4, 1, 1, 't', 3, 2, 'h', 'i', 0}
	_, err = DecodeUpdate(bad)
	assert.True(t, octo_errors.IsCodec(err), "%v", err)

	// gc records carry no flags
	_, err = DecodeUpdate([]byte{1, 1, 0, 1, 0x80, 1, 0})
	assert.ErrorIs(t, err, octo_errors.ErrMalformed)

	// nothing is applied from a broken update
	replica := newTestDoc(2)
	assert.Error(t, replica.ApplyUpdate(bad))
	assert.Empty(t, replica.StateVector())
	assert.Empty(t, replica.Roots())
}

func TestDiffFromState(t *testing.T) {
	a := newTestDoc(1)
	u1 := pushText(t, a, "t", "he")
	pushText(t, a, "t", "llo")

	b := newTestDoc(2)
	require.NoError(t, b.ApplyUpdate(u1))
	diff := a.EncodeStateAsUpdate(b.StateVector())
	u, err := DecodeUpdate(diff)
	require.NoError(t, err)
	require.Len(t, u.Runs, 1)
	assert.Equal(t, uint64(2), u.Runs[0].Clock)
	require.NoError(t, b.ApplyUpdate(diff))
	assert.Equal(t, "hello", textOf(t, b, "t"))

	// nothing new: no runs, same deletes
	u = a.Diff(b.StateVector())
	assert.Equal(t, 0, u.Len())
}

func TestRunsOfCutsItems(t *testing.T) {
	d := newTestDoc(1)
	pushText(t, d, "t", "hello")
	runs := runsOf(1, d.Store().from(1, 2), 2)
	require.Len(t, runs, 1)
	it := runs[0].Items[0]
	assert.Equal(t, ID{1, 2}, it.ID)
	assert.Equal(t, "llo", it.Content.Str)
	assert.Equal(t, &ID{1, 1}, it.Origin)
	// the store keeps its item whole
	assert.Equal(t, 1, d.Store().Len())
}

func TestOrphanBecomesGC(t *testing.T) {
	d := newTestDoc(1)
	pushText(t, d, "t", "hi")
	orphan := &Update{Runs: []Run{{
		Client: 2,
		Items: []*Item{{
			ID:      ID{2, 0},
			Length:  1,
			Parent:  ParentRef{ID: ID{1, 0}},
			Content: StringContent("x"),
		}},
	}}}
	require.NoError(t, d.ApplyUpdate(EncodeUpdate(orphan)))
	assert.Equal(t, StateVector{1: 2, 2: 1}, d.StateVector())
	it, ok := d.Store().Get(ID{2, 0})
	require.True(t, ok)
	assert.Equal(t, ContentGC, it.Content.Tag)
	assert.True(t, it.Deleted)
	assert.Equal(t, "hi", textOf(t, d, "t"))

	// and travels on as gc
	replica := newTestDoc(3)
	require.NoError(t, replica.ApplyUpdate(d.EncodeStateAsUpdate(nil)))
	assert.Equal(t, d.StateVector(), replica.StateVector())
}

func TestMergeUpdates(t *testing.T) {
	a := newTestDoc(1)
	arr, _ := a.GetArray("a")
	var updates [][]byte
	for i := 0; i < 4; i++ {
		updates = append(updates, edit(t, a, func(txn *Txn) error {
			return arr.Push(txn, value.MakeInt(int64(i)))
		}))
	}
	updates = append(updates, edit(t, a, func(txn *Txn) error {
		return arr.Delete(txn, 1, 2)
	}))
	// overlapping and reordered inputs
	merged, err := MergeUpdates(updates[3], a.EncodeStateAsUpdate(StateVector{1: 1}), updates[0], updates[4])
	require.NoError(t, err)
	u, err := DecodeUpdate(merged)
	require.NoError(t, err)
	require.Len(t, u.Runs, 1)
	assert.Equal(t, 4, u.Len())

	b := newTestDoc(2)
	require.NoError(t, b.ApplyUpdate(merged))
	arrB, _ := b.GetArray("a")
	native, err := arrB.Native()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(0), int64(3)}, native)

	_, err = MergeUpdates(updates[0], []byte{7})
	assert.True(t, octo_errors.IsCodec(err))
}

func FuzzDecodeUpdate(f *testing.F) {
	d := newTestDoc(1)
	f.Add(pushText(f, d, "t", "hello"))
	f.Add(d.EncodeStateAsUpdate(nil))
	f.Add([]byte{0, 0})
	f.Add([]byte{1, 1, 0, 1, 0, 5, 1, 1, 1, 0, 5})
	f.Fuzz(func(t *testing.T, data []byte) {
		u, err := DecodeUpdate(data)
		if err != nil {
			if !octo_errors.IsCodec(err) {
				t.Fatalf("untyped error %v", err)
			}
			return
		}
		back, err := DecodeUpdate(EncodeUpdate(u))
		if err != nil {
			t.Fatalf("re-encoded update does not decode: %v", err)
		}
		if back.Len() != u.Len() {
			t.Fatalf("item count changed %d != %d", back.Len(), u.Len())
		}
	})
}

func FuzzApplyUpdate(f *testing.F) {
	d := newTestDoc(1)
	f.Add(pushText(f, d, "t", "hello"))
	m, _ := d.GetMap("m")
	update, _ := d.Transact(func(txn *Txn) error {
		return m.Set(txn, "k", value.MakeString("v"))
	})
	f.Add(update)
	f.Add([]byte{1, 2, 3, 1, 0x84, 1, 0, 1, 1, 'x', 0})
	f.Fuzz(func(t *testing.T, data []byte) {
		replica := newTestDoc(9)
		err := replica.ApplyUpdate(data)
		if err != nil && !octo_errors.IsCodec(err) && !errors.Is(err, octo_errors.ErrPendingOverflow) {
			t.Fatalf("unexpected error %v", err)
		}
		for _, name := range replica.Roots() {
			replica.Items(name)
		}
	})
}
