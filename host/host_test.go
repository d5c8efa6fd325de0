package host

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drpcorg/octo"
	"github.com/drpcorg/octo/octo_errors"
	"github.com/drpcorg/octo/utils"
	"github.com/drpcorg/octo/value"
)

func testOptions(client uint64) octo.Options {
	return octo.Options{ClientID: client, Logger: utils.NewDiscardLogger()}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(testOptions(1))
	h, err := r.Open(nil)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), h.Version())

	doc, err := r.Doc(h)
	require.NoError(t, err)
	assert.Equal(t, h.String(), doc.GUID())
	text, err := doc.GetText("t")
	require.NoError(t, err)

	require.NoError(t, r.Retain(h))
	require.NoError(t, r.Release(h))
	_, err = r.Doc(h)
	require.NoError(t, err)
	require.NoError(t, r.Release(h))

	_, err = r.Doc(h)
	assert.ErrorIs(t, err, octo_errors.ErrHandleInvalid)
	assert.ErrorIs(t, r.Retain(h), octo_errors.ErrHandleInvalid)
	assert.ErrorIs(t, r.Release(h), octo_errors.ErrHandleInvalid)
	_, err = text.Value()
	assert.ErrorIs(t, err, octo_errors.ErrDocDestroyed)
	assert.Equal(t, 0, r.Len())
}

func TestRegistryOpenUpdate(t *testing.T) {
	src := octo.NewDoc(testOptions(5))
	text, _ := src.GetText("t")
	update, err := src.Transact(func(txn *octo.Txn) error {
		return text.Insert(txn, 0, "hello")
	})
	require.NoError(t, err)

	r := NewRegistry(testOptions(1))
	h, err := r.Open(update)
	require.NoError(t, err)
	doc, err := r.Doc(h)
	require.NoError(t, err)
	copied, _ := doc.GetText("t")
	assert.Equal(t, "hello", copied.String())

	_, err = r.Open([]byte{1})
	assert.Equal(t, KindMalformed, Classify(err))
	assert.Equal(t, 1, r.Len())
	r.Close()
	assert.Equal(t, 0, r.Len())
	assert.True(t, doc.Destroyed())
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		kind Kind
	}{
		{nil, KindNone},
		{octo_errors.ErrTruncated, KindMalformed},
		{octo_errors.ErrTooDeep, KindMalformed},
		{fmt.Errorf("item 1-0: %w", octo_errors.ErrMalformed), KindMalformed},
		{octo_errors.ErrClockGap, KindConflict},
		{octo_errors.ErrPendingOverflow, KindConflict},
		{octo_errors.ErrTransactionClosed, KindUsage},
		{octo_errors.ErrHandleInvalid, KindUsage},
		{fmt.Errorf("x"), KindInternal},
	}
	for _, c := range cases {
		assert.Equal(t, c.kind, Classify(c.err), "%v", c.err)
	}
	assert.Equal(t, "conflict", KindConflict.String())
}

func TestParseDoc(t *testing.T) {
	data := []byte("  first line \n\n\n second\n  third  \n\n")
	res := <-ParseDoc(context.Background(), PlainText, "/tmp/notes.txt", data)
	require.NoError(t, res.Err)
	assert.Equal(t, ParsedDoc{
		Name: "notes.txt",
		Chunks: []Chunk{
			{Index: 0, Content: "first line"},
			{Index: 1, Content: "second\nthird"},
		},
	}, res.Doc)

	broken := LoaderFunc(func(path string, data []byte) (ParsedDoc, error) {
		return ParsedDoc{}, fmt.Errorf("can not read %s", path)
	})
	res = <-ParseDoc(context.Background(), broken, "x.pdf", nil)
	assert.Error(t, res.Err)
}

type wordCounter struct{}

func (wordCounter) Count(text string, allowedSpecial []string) int {
	return len(strings.Fields(text))
}

func TestTokenizerFor(t *testing.T) {
	var asked []string
	factory := func(model string) (Tokenizer, bool) {
		asked = append(asked, model)
		return wordCounter{}, model != "gpt-unknown"
	}
	assert.Nil(t, TokenizerFor(factory, ""))
	assert.Nil(t, TokenizerFor(factory, "dall-e-3"))
	assert.Nil(t, TokenizerFor(factory, "gpt-unknown"))
	tok := TokenizerFor(factory, "claude")
	require.NotNil(t, tok)
	assert.Equal(t, 2, tok.Count("hello world", nil))
	assert.NotNil(t, TokenizerFor(factory, "gpt-4o"))
	assert.Equal(t, []string{"gpt-unknown", "gpt-4", "gpt-4o"}, asked)
}

func TestMergeInApplyWay(t *testing.T) {
	a := octo.NewDoc(testOptions(1))
	arr, _ := a.GetArray("a")
	var updates [][]byte
	for _, s := range []string{"x", "y"} {
		u, err := a.Transact(func(txn *octo.Txn) error {
			return arr.Push(txn, value.MakeString(s))
		})
		require.NoError(t, err)
		updates = append(updates, u)
	}
	merged, err := MergeInApplyWay(testOptions(2), updates[1], updates[0])
	require.NoError(t, err)
	b, err := octo.NewDocFromUpdate(merged, testOptions(3))
	require.NoError(t, err)
	arrB, _ := b.GetArray("a")
	native, err := arrB.Native()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"x", "y"}, native)
}
