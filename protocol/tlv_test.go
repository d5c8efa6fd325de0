package protocol

import (
	"testing"

	"github.com/drpcorg/octo/octo_errors"
	"github.com/stretchr/testify/assert"
)

func TestTLVAppend(t *testing.T) {
	buf := []byte{}
	buf = Append(buf, 'A', []byte{'A'})
	buf = Append(buf, 'b', []byte{'B', 'B'})
	correct2 := []byte{'a', 1, 'A', '2', 'B', 'B'}
	assert.Equal(t, correct2, buf, "basic TLV fail")

	var c256 [256]byte
	for n := range c256 {
		c256[n] = 'c'
	}
	buf = Append(buf, 'C', c256[:])
	assert.Equal(t, len(correct2)+1+4+len(c256), len(buf))
	assert.Equal(t, uint8(67), buf[len(correct2)])
	assert.Equal(t, uint8(1), buf[len(correct2)+2])

	lit, body, buf, err := TakeAnyWary(buf)
	assert.Nil(t, err)
	assert.Equal(t, uint8('A'), lit)
	assert.Equal(t, []byte{'A'}, body)

	body2, _, err2 := TakeWary('B', buf)
	assert.Nil(t, err2)
	assert.Equal(t, []byte{'B', 'B'}, body2)
}

func TestTakeWaryBadInput(t *testing.T) {
	_, _, _, err := TakeAnyWary([]byte{'#', 1, 2})
	assert.ErrorIs(t, err, octo_errors.ErrMalformed)

	_, _, _, err = TakeAnyWary([]byte{'u', 10, 'x'})
	assert.ErrorIs(t, err, octo_errors.ErrTruncated)

	_, _, err = TakeWary('V', Record('U', []byte("upd")))
	assert.ErrorIs(t, err, octo_errors.ErrInvalidTag)

	_, _, _, err = TakeAnyWary(nil)
	assert.ErrorIs(t, err, octo_errors.ErrTruncated)
}
