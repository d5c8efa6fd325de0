package octo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDString(t *testing.T) {
	ids := []ID{
		{0, 0},
		{1, 5},
		{0xfa3, 0x57},
		{0xffffffff, 0xffffffffffff},
	}
	for _, id := range ids {
		back, ok := IDFromString(id.String())
		assert.True(t, ok)
		assert.Equal(t, id, back)
	}
	assert.Equal(t, "fa3-57", ID{0xfa3, 0x57}.String())
	_, ok := IDFromString("nope")
	assert.False(t, ok)
	_, ok = IDFromString("1-x")
	assert.False(t, ok)
}

func TestIDOrder(t *testing.T) {
	assert.True(t, ID{1, 9}.Less(ID{2, 0}))
	assert.True(t, ID{1, 2}.Less(ID{1, 3}))
	assert.False(t, ID{1, 3}.Less(ID{1, 3}))
	assert.Equal(t, ID{7, 12}, ID{7, 10}.Plus(2))
}

func TestSameID(t *testing.T) {
	a, b := ID{1, 2}, ID{1, 2}
	assert.True(t, sameID(nil, nil))
	assert.True(t, sameID(&a, &b))
	assert.False(t, sameID(&a, nil))
	assert.False(t, sameID(nil, &b))
}
