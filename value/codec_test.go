package value

import (
	"encoding/hex"
	"math"
	"testing"

	"github.com/drpcorg/octo/octo_errors"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleObject() Any {
	return MakeObject(map[string]Any{
		"a": MakeInt(1),
		"b": MakeArray(MakeBool(true), MakeNull(), MakeString("x")),
	})
}

func TestAnyRoundTrip(t *testing.T) {
	nested := MakeString("bottom")
	for i := 0; i < 6; i++ {
		nested = MakeArray(MakeObject(map[string]Any{"level": MakeInt(int64(i)), "next": nested}))
	}
	cases := []Any{
		MakeUndefined(),
		MakeNull(),
		MakeBool(true),
		MakeBool(false),
		MakeInt(0),
		MakeInt(-1),
		MakeInt(math.MaxInt64),
		MakeInt(math.MinInt64),
		MakeBigInt(math.MinInt64),
		MakeFloat32(3.25),
		MakeFloat64(-1e300),
		MakeFloat64(math.Inf(1)),
		MakeString(""),
		MakeString("héllo, 世界 🎉"),
		MakeBinary(nil),
		MakeBinary([]byte{0, 1, 0xff}),
		MakeArray(),
		MakeObject(nil),
		MakeArray(MakeArray(), MakeObject(nil)),
		sampleObject(),
		nested,
	}
	for _, a := range cases {
		back, err := Decode(Encode(a))
		require.NoError(t, err, a.String())
		assert.Equal(t, a, back, a.String())
		assert.True(t, a.Equal(back))
	}
}

func TestAnyNaN(t *testing.T) {
	a := MakeFloat64(math.NaN())
	back, err := Decode(Encode(a))
	require.NoError(t, err)
	assert.True(t, a.Equal(back))
}

func TestAnyObjectBytes(t *testing.T) {
	buf := Encode(sampleObject())
	g := goldie.New(t, goldie.WithFixtureDir("testdata"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "any_object", []byte(hex.EncodeToString(buf)))

	back, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":[true,null,"x"]}`, back.String())
	b, ok := back.Entries()
	require.True(t, ok)
	n, ok := b["a"].Int()
	assert.True(t, ok)
	assert.Equal(t, int64(1), n)
}

func TestAnyDecodeErrors(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, octo_errors.ErrTruncated)

	_, err = Decode([]byte{0x10})
	assert.ErrorIs(t, err, octo_errors.ErrInvalidTag)

	_, err = Decode([]byte{byte(String), 2, 0xc3, 0x28})
	assert.ErrorIs(t, err, octo_errors.ErrInvalidUTF8)

	full := Encode(sampleObject())
	for i := 1; i < len(full); i++ {
		_, err = Decode(full[:i])
		assert.ErrorIs(t, err, octo_errors.ErrTruncated, "cut at %d", i)
	}

	_, err = Decode(append(full, 0))
	assert.ErrorIs(t, err, octo_errors.ErrMalformed)

	// a huge element count must fail before allocating
	_, err = Decode([]byte{byte(Array), 0xff, 0xff, 0xff, 0xff, 0x0f})
	assert.ErrorIs(t, err, octo_errors.ErrTruncated)
}

func TestAnyTooDeep(t *testing.T) {
	deep := make([]byte, 0, 2*(MaxNesting+10))
	for i := 0; i < MaxNesting+10; i++ {
		deep = append(deep, byte(Array), 1)
	}
	deep = append(deep, byte(Null))
	_, err := Decode(deep)
	assert.ErrorIs(t, err, octo_errors.ErrTooDeep)
}

func TestAnyNative(t *testing.T) {
	a, err := FromNative(map[string]interface{}{
		"n":    nil,
		"list": []interface{}{1, "two", 3.5, false},
		"blob": []byte("raw"),
	})
	require.NoError(t, err)
	native := a.Native().(map[string]interface{})
	assert.Nil(t, native["n"])
	assert.Equal(t, []interface{}{int64(1), "two", 3.5, false}, native["list"])
	assert.Equal(t, []byte("raw"), native["blob"])

	_, err = FromNative(struct{}{})
	assert.ErrorIs(t, err, octo_errors.ErrInvalidTag)
}

func FuzzDecodeAny(f *testing.F) {
	f.Add(Encode(sampleObject()))
	f.Add(Encode(MakeArray(MakeFloat32(1), MakeBinary([]byte{1}))))
	f.Add([]byte{byte(Object), 1, 1, 'k', byte(Integer), 0x80, 0x00})
	f.Add([]byte{})
	f.Fuzz(func(t *testing.T, data []byte) {
		a, err := Decode(data)
		if err != nil {
			if !octo_errors.IsCodec(err) {
				t.Fatalf("untyped error %v", err)
			}
			return
		}
		back, err := Decode(Encode(a))
		if err != nil {
			t.Fatalf("re-decode failed: %v", err)
		}
		if !a.Equal(back) {
			t.Fatalf("round trip mismatch %s != %s", a, back)
		}
	})
}
