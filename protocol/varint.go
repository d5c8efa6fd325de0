package protocol

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/drpcorg/octo/octo_errors"
)

// The integer encodings are the lib0 ones (yjs family):
//
//	varuint: 7 bits per byte, little end first, high bit = continuation
//	varint:  first byte is continuation(1) sign(1) data(6),
//	         the rest are varuint-style 7 bit groups
//
// Fixed width numbers (floats, bigint64) are big-endian.

func AppendVarUint(into []byte, v uint64) []byte {
	for v > 0x7f {
		into = append(into, byte(v&0x7f)|0x80)
		v >>= 7
	}
	return append(into, byte(v))
}

func AppendVarInt(into []byte, v int64) []byte {
	neg := v < 0
	mag := uint64(v)
	if neg {
		mag = uint64(-v) // MinInt64 wraps to 1<<63, which is what we want
	}
	b := byte(mag & 0x3f)
	if neg {
		b |= 0x40
	}
	mag >>= 6
	if mag > 0 {
		b |= 0x80
	}
	into = append(into, b)
	for mag > 0 {
		b = byte(mag & 0x7f)
		mag >>= 7
		if mag > 0 {
			b |= 0x80
		}
		into = append(into, b)
	}
	return into
}

func AppendVarBytes(into []byte, b []byte) []byte {
	into = AppendVarUint(into, uint64(len(b)))
	return append(into, b...)
}

func AppendString(into []byte, s string) []byte {
	into = AppendVarUint(into, uint64(len(s)))
	return append(into, s...)
}

func AppendFloat32(into []byte, f float32) []byte {
	return binary.BigEndian.AppendUint32(into, math.Float32bits(f))
}

func AppendFloat64(into []byte, f float64) []byte {
	return binary.BigEndian.AppendUint64(into, math.Float64bits(f))
}

func AppendInt64(into []byte, i int64) []byte {
	return binary.BigEndian.AppendUint64(into, uint64(i))
}

// Decoder reads lib0 primitives off an untrusted buffer. Every read either
// succeeds or returns a codec error; nothing here panics on bad input.
type Decoder struct {
	buf []byte
	pos int
}

func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Len is the number of unread bytes.
func (d *Decoder) Len() int {
	return len(d.buf) - d.pos
}

func (d *Decoder) Pos() int {
	return d.pos
}

func (d *Decoder) ReadByte() (byte, error) {
	if d.pos >= len(d.buf) {
		return 0, octo_errors.ErrTruncated
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

func (d *Decoder) ReadVarUint() (v uint64, err error) {
	var shift uint
	for {
		if d.pos >= len(d.buf) {
			return 0, octo_errors.ErrTruncated
		}
		b := d.buf[d.pos]
		d.pos++
		if shift == 63 && b > 1 {
			return 0, octo_errors.ErrVarintOverflow
		}
		v |= uint64(b&0x7f) << shift
		if b < 0x80 {
			return v, nil
		}
		shift += 7
	}
}

func (d *Decoder) ReadVarInt() (int64, error) {
	b, err := d.ReadByte()
	if err != nil {
		return 0, err
	}
	neg := b&0x40 != 0
	mag := uint64(b & 0x3f)
	shift := uint(6)
	for b&0x80 != 0 {
		if b, err = d.ReadByte(); err != nil {
			return 0, err
		}
		if shift == 62 && b > 0x03 {
			return 0, octo_errors.ErrVarintOverflow
		}
		mag |= uint64(b&0x7f) << shift
		shift += 7
	}
	if neg {
		if mag > 1<<63 {
			return 0, octo_errors.ErrVarintOverflow
		}
		return -int64(mag), nil
	}
	if mag > math.MaxInt64 {
		return 0, octo_errors.ErrVarintOverflow
	}
	return int64(mag), nil
}

// ReadLen reads a varuint count of things each taking at least one byte,
// rejecting counts the rest of the buffer can not possibly hold.
func (d *Decoder) ReadLen() (int, error) {
	n, err := d.ReadVarUint()
	if err != nil {
		return 0, err
	}
	if n > uint64(d.Len()) {
		return 0, octo_errors.ErrTruncated
	}
	return int(n), nil
}

func (d *Decoder) ReadN(n int) ([]byte, error) {
	if n < 0 || n > d.Len() {
		return nil, octo_errors.ErrTruncated
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *Decoder) ReadVarBytes() ([]byte, error) {
	n, err := d.ReadLen()
	if err != nil {
		return nil, err
	}
	raw, err := d.ReadN(n)
	if err != nil {
		return nil, err
	}
	ret := make([]byte, n)
	copy(ret, raw)
	return ret, nil
}

func (d *Decoder) ReadString() (string, error) {
	n, err := d.ReadLen()
	if err != nil {
		return "", err
	}
	raw, err := d.ReadN(n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(raw) {
		return "", octo_errors.ErrInvalidUTF8
	}
	return string(raw), nil
}

func (d *Decoder) ReadFloat32() (float32, error) {
	raw, err := d.ReadN(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(raw)), nil
}

func (d *Decoder) ReadFloat64() (float64, error) {
	raw, err := d.ReadN(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(raw)), nil
}

func (d *Decoder) ReadInt64() (int64, error) {
	raw, err := d.ReadN(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(raw)), nil
}
