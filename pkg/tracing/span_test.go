package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/logger"
)

func TestChildSpansJoinParentTrace(t *testing.T) {
	ctx := logger.WithRequestID(context.Background(), "req-1")
	ctx, root := Start(ctx, "search")
	childCtx, child := Start(ctx, "rank")
	child.Set("strategy", "scan")
	child.End()
	root.End()

	require.Len(t, root.Children(), 1)
	assert.Equal(t, "req-1", root.TraceID)
	assert.Equal(t, "req-1", child.TraceID)
	assert.Same(t, child, FromContext(childCtx))
	v, ok := child.Attr("strategy")
	require.True(t, ok)
	assert.Equal(t, "scan", v)
	assert.GreaterOrEqual(t, root.Duration, child.Duration)
}

func TestRootWithoutRequestIDGetsTraceID(t *testing.T) {
	_, span := Start(context.Background(), "build")
	span.End()
	assert.NotEmpty(t, span.TraceID)
	assert.Nil(t, FromContext(context.Background()))

	_, missing := span.Attr("nope")
	assert.False(t, missing)
}

func TestRootEndLogsTreeAtDebug(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	slog.SetDefault(logger.New(&buf, "debug", "text"))

	ctx, root := Start(context.Background(), "search")
	_, child := Start(ctx, "snippets")
	child.Set("hits", 3)
	child.End()
	assert.Empty(t, buf.String())
	root.End()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "span=search")
	assert.Contains(t, lines[1], "span=snippets")
	assert.Contains(t, lines[1], "hits=3")
	assert.Contains(t, lines[1], "depth=1")
}
