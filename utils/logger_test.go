package utils

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithDefaultArgs(t *testing.T) {
	ctx := WithDefaultArgs(context.Background(), "doc", "a")
	ctx2 := WithDefaultArgs(ctx, "peer", "b")
	assert.Equal(t, []any{"doc", "a"}, getDefaultArgs(ctx))
	assert.Equal(t, []any{"doc", "a", "peer", "b"}, getDefaultArgs(ctx2))
	assert.Empty(t, getDefaultArgs(context.Background()))
}

func TestTextLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewTextLogger(&buf, slog.LevelInfo)
	log.Debug("hidden")
	log.InfoCtx(WithDefaultArgs(context.Background(), "doc", "x"), "hello", "k", 1)
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `msg="[octo] hello"`)
	assert.Contains(t, out, "k=1")
	assert.Contains(t, out, "doc=x")
}
