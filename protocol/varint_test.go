package protocol

import (
	"math"
	"testing"

	"github.com/drpcorg/octo/octo_errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarUint(t *testing.T) {
	assert.Equal(t, []byte{0}, AppendVarUint(nil, 0))
	assert.Equal(t, []byte{0x7f}, AppendVarUint(nil, 127))
	assert.Equal(t, []byte{0x80, 0x01}, AppendVarUint(nil, 128))
	assert.Equal(t, []byte{0xac, 0x02}, AppendVarUint(nil, 300))

	for _, v := range []uint64{0, 1, 127, 128, 300, 1 << 32, math.MaxUint64} {
		d := NewDecoder(AppendVarUint(nil, v))
		got, err := d.ReadVarUint()
		require.NoError(t, err)
		assert.Equal(t, v, got)
		assert.Equal(t, 0, d.Len())
	}
}

func TestVarInt(t *testing.T) {
	assert.Equal(t, []byte{0x01}, AppendVarInt(nil, 1))
	assert.Equal(t, []byte{0x41}, AppendVarInt(nil, -1))
	assert.Equal(t, []byte{0x3f}, AppendVarInt(nil, 63))
	assert.Equal(t, []byte{0x80, 0x01}, AppendVarInt(nil, 64))

	for _, v := range []int64{0, 1, -1, 63, -63, 64, -64, 1 << 40, math.MaxInt64, math.MinInt64} {
		d := NewDecoder(AppendVarInt(nil, v))
		got, err := d.ReadVarInt()
		require.NoError(t, err)
		assert.Equal(t, v, got)
		assert.Equal(t, 0, d.Len())
	}
}

func TestVarintOverflow(t *testing.T) {
	long := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f}
	_, err := NewDecoder(long).ReadVarUint()
	assert.ErrorIs(t, err, octo_errors.ErrVarintOverflow)

	_, err = NewDecoder(long).ReadVarInt()
	assert.ErrorIs(t, err, octo_errors.ErrVarintOverflow)

	_, err = NewDecoder([]byte{0x80, 0x80}).ReadVarUint()
	assert.ErrorIs(t, err, octo_errors.ErrTruncated)
}

func TestDecoderStrings(t *testing.T) {
	buf := AppendString(nil, "привет")
	buf = AppendVarBytes(buf, []byte{1, 2, 3})
	buf = AppendFloat64(buf, 2.5)
	buf = AppendFloat32(buf, -0.5)
	buf = AppendInt64(buf, -42)

	d := NewDecoder(buf)
	s, err := d.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "привет", s)
	b, err := d.ReadVarBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, b)
	f, err := d.ReadFloat64()
	require.NoError(t, err)
	assert.Equal(t, 2.5, f)
	f32, err := d.ReadFloat32()
	require.NoError(t, err)
	assert.Equal(t, float32(-0.5), f32)
	i, err := d.ReadInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(-42), i)
	assert.Equal(t, 0, d.Len())

	_, err = NewDecoder([]byte{2, 0xc3, 0x28}).ReadString()
	assert.ErrorIs(t, err, octo_errors.ErrInvalidUTF8)

	_, err = NewDecoder([]byte{200, 'a'}).ReadString()
	assert.ErrorIs(t, err, octo_errors.ErrTruncated)
}
