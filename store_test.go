package octo

import (
	"testing"

	"github.com/drpcorg/octo/octo_errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textItem(client, clock uint64, s string) *Item {
	c := StringContent(s)
	return &Item{ID: ID{client, clock}, Length: c.Len(), Content: c}
}

func TestBlockStoreInsert(t *testing.T) {
	s := NewBlockStore()
	require.NoError(t, s.Insert(textItem(1, 0, "abc")))
	require.NoError(t, s.Insert(textItem(1, 3, "d")))
	assert.ErrorIs(t, s.Insert(textItem(1, 2, "x")), octo_errors.ErrDuplicateID)
	assert.ErrorIs(t, s.Insert(textItem(1, 9, "x")), octo_errors.ErrClockGap)
	assert.ErrorIs(t, s.Insert(&Item{ID: ID{2, 0}}), octo_errors.ErrMalformed)

	assert.Equal(t, uint64(4), s.State(1))
	assert.Equal(t, StateVector{1: 4}, s.StateVector())
	assert.True(t, s.Has(ID{1, 3}))
	assert.False(t, s.Has(ID{1, 4}))

	it, ok := s.Get(ID{1, 2})
	require.True(t, ok)
	assert.Equal(t, ID{1, 0}, it.ID)
	_, ok = s.Get(ID{1, 4})
	assert.False(t, ok)
	_, ok = s.Get(ID{5, 0})
	assert.False(t, ok)
}

func TestBlockStoreSplit(t *testing.T) {
	s := NewBlockStore()
	require.NoError(t, s.Insert(textItem(1, 0, "héllo")))

	tail := s.cleanStart(ID{1, 2})
	require.NotNil(t, tail)
	assert.Equal(t, ID{1, 2}, tail.ID)
	assert.Equal(t, "llo", tail.Content.Str)
	assert.Equal(t, &ID{1, 1}, tail.Origin)
	head, _ := s.Get(ID{1, 0})
	assert.Equal(t, "hé", head.Content.Str)
	assert.Equal(t, tail, head.Right())
	assert.Equal(t, head, tail.Left())

	end := s.cleanEnd(ID{1, 2})
	assert.Equal(t, tail, end)
	assert.Equal(t, "l", end.Content.Str)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, uint64(5), s.State(1))

	// already clean
	assert.Equal(t, head, s.cleanStart(ID{1, 0}))
	assert.Nil(t, s.cleanStart(ID{1, 5}))

	cut := s.truncate(1, 2)
	assert.Len(t, cut, 2)
	assert.Equal(t, uint64(2), s.State(1))
}
