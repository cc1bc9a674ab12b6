// Package tracing records in-process span trees for a request. There is no
// exporter: a finished root span writes its tree to slog at debug level.
package tracing

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/logger"
)

type spanKey struct{}

// Span is one timed step. Children and attributes may be added from
// several goroutines.
type Span struct {
	Name      string
	TraceID   string
	StartTime time.Time
	Duration  time.Duration

	parent   *Span
	mu       sync.Mutex
	children []*Span
	attrs    []slog.Attr
}

// Start opens a span under the span carried by ctx. Without one it opens a
// root span whose trace id is the request id, or a fresh uuid outside a
// request.
func Start(ctx context.Context, name string) (context.Context, *Span) {
	span := &Span{Name: name, StartTime: time.Now()}
	if parent := FromContext(ctx); parent != nil {
		span.parent = parent
		span.TraceID = parent.TraceID
		parent.mu.Lock()
		parent.children = append(parent.children, span)
		parent.mu.Unlock()
	} else if span.TraceID = logger.RequestID(ctx); span.TraceID == "" {
		span.TraceID = uuid.NewString()
	}
	return context.WithValue(ctx, spanKey{}, span), span
}

func FromContext(ctx context.Context) *Span {
	span, _ := ctx.Value(spanKey{}).(*Span)
	return span
}

// Set attaches an attribute. Setting a key twice keeps both values.
func (s *Span) Set(key string, value any) {
	s.mu.Lock()
	s.attrs = append(s.attrs, slog.Any(key, value))
	s.mu.Unlock()
}

// Attr returns the most recent value set for key.
func (s *Span) Attr(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.attrs) - 1; i >= 0; i-- {
		if s.attrs[i].Key == key {
			return s.attrs[i].Value.Any(), true
		}
	}
	return nil, false
}

func (s *Span) Children() []*Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Span(nil), s.children...)
}

// End fixes the span's duration. Ending a root span logs the whole tree.
func (s *Span) End() {
	s.Duration = time.Since(s.StartTime)
	if s.parent == nil {
		s.log(context.Background(), 0)
	}
}

func (s *Span) log(ctx context.Context, depth int) {
	if !slog.Default().Enabled(ctx, slog.LevelDebug) {
		return
	}
	s.mu.Lock()
	attrs := append([]slog.Attr{
		slog.String("trace_id", s.TraceID),
		slog.String("span", s.Name),
		slog.Int("depth", depth),
		slog.Float64("duration_ms", float64(s.Duration.Microseconds())/1000),
	}, s.attrs...)
	children := append([]*Span(nil), s.children...)
	s.mu.Unlock()

	slog.LogAttrs(ctx, slog.LevelDebug, "span", attrs...)
	for _, child := range children {
		child.log(ctx, depth+1)
	}
}
