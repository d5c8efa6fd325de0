package octo

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumps(t *testing.T) {
	d := newTestDoc(1)
	update := pushText(t, d, "t", "hi")

	var buf bytes.Buffer
	require.NoError(t, DumpUpdate(&buf, update))
	assert.Contains(t, buf.String(), "run 1-0, 1 items")
	assert.Contains(t, buf.String(), `in t "hi"`)

	buf.Reset()
	d.DumpAll(&buf)
	assert.Contains(t, buf.String(), "text t:\thi")
	assert.Contains(t, buf.String(), "state 1-2")

	assert.Error(t, DumpUpdate(&buf, []byte{9}))
}
