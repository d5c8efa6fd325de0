package octo

import (
	"testing"

	"github.com/drpcorg/octo/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteSetNormalize(t *testing.T) {
	ds := make(DeleteSet)
	ds.Add(1, 10, 2)
	ds.Add(1, 0, 3)
	ds.Add(1, 3, 2)
	ds.Add(1, 11, 4)
	ds.Add(2, 5, 0)
	ds.normalize()
	assert.Equal(t, DeleteSet{1: {{0, 5}, {10, 5}}}, ds)
	assert.True(t, ds.Contains(ID{1, 4}))
	assert.False(t, ds.Contains(ID{1, 5}))
	assert.True(t, ds.Contains(ID{1, 14}))
	assert.Equal(t, "1-0+5,1-a+5", ds.String())
}

func TestDeleteSetCodec(t *testing.T) {
	ds := DeleteSet{2: {{1, 1}}, 1: {{0, 5}, {10, 5}}}
	buf := appendDeleteSet(nil, ds)
	assert.Equal(t, []byte{2, 1, 2, 0, 5, 10, 5, 2, 1, 1, 1}, buf)
	back, err := readDeleteSet(protocol.NewDecoder(buf))
	require.NoError(t, err)
	assert.Equal(t, ds, back)

	// empty ranges are malformed
	_, err = readDeleteSet(protocol.NewDecoder([]byte{1, 1, 1, 0, 0}))
	assert.Error(t, err)
}
