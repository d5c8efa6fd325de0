package octo

import (
	"testing"

	"github.com/drpcorg/octo/octo_errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateVectorPut(t *testing.T) {
	sv := make(StateVector)
	assert.True(t, sv.Put(1, 5))
	assert.False(t, sv.Put(1, 3))
	assert.Equal(t, uint64(5), sv.Get(1))
	assert.Equal(t, uint64(0), sv.Get(2))

	other := StateVector{1: 4, 2: 1}
	assert.True(t, other.ProgressedOver(sv))
	assert.False(t, sv.Seen(other))
	sv.Merge(other)
	assert.True(t, sv.Seen(other))
	assert.Equal(t, StateVector{1: 5, 2: 1}, sv)
	assert.Equal(t, "1-5,2-1", sv.String())
}

func TestStateVectorCodec(t *testing.T) {
	sv := StateVector{300: 2, 1: 5, 7: 0}
	buf := EncodeStateVector(sv)
	// zero entries are skipped, clients ascending
	assert.Equal(t, []byte{2, 1, 5, 0xac, 2, 2}, buf)
	back, err := DecodeStateVector(buf)
	require.NoError(t, err)
	assert.Equal(t, StateVector{1: 5, 300: 2}, back)

	empty, err := DecodeStateVector(EncodeStateVector(nil))
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = DecodeStateVector([]byte{2, 1, 5, 0xac})
	assert.ErrorIs(t, err, octo_errors.ErrTruncated)
	_, err = DecodeStateVector(append(buf, 0))
	assert.ErrorIs(t, err, octo_errors.ErrMalformed)
}

func TestStateVectorFromString(t *testing.T) {
	sv, err := StateVectorFromString("1-5, 12c-2")
	require.NoError(t, err)
	assert.Equal(t, StateVector{1: 5, 300: 2}, sv)
	_, err = StateVectorFromString("1-5,zz")
	assert.ErrorIs(t, err, octo_errors.ErrMalformed)
}
