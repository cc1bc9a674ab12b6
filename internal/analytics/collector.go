package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/kafka"
)

// maxBatch bounds how many queued events are published in one write.
const maxBatch = 100

// Publisher sends events to the analytics topic. *kafka.Producer
// implements it.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

var _ Publisher = (*kafka.Producer)(nil)

// Collector records events into a local Aggregator synchronously and, when a
// Publisher is configured, forwards them from a buffered channel on a
// background goroutine. Tracking never blocks: events that do not fit in the
// buffer are dropped.
type Collector struct {
	publisher  Publisher
	aggregator *Aggregator
	eventCh    chan envelope
	logger     *slog.Logger
	done       chan struct{}

	// mu guards closed so that no send races the close of eventCh.
	mu     sync.RWMutex
	closed bool
}

// NewCollector creates a Collector. publisher and aggregator may each be nil.
func NewCollector(publisher Publisher, aggregator *Aggregator, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &Collector{
		publisher:  publisher,
		aggregator: aggregator,
		eventCh:    make(chan envelope, bufferSize),
		logger:     slog.Default().With("component", "analytics-collector"),
		done:       make(chan struct{}),
	}
}

func (c *Collector) Start(ctx context.Context) {
	if c.publisher == nil {
		close(c.done)
		return
	}
	go func() {
		defer close(c.done)
		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					return
				}
				c.publish(ctx, c.batch(event))
			case <-ctx.Done():
				c.drainRemaining()
				return
			}
		}
	}()
	c.logger.Info("analytics collector started", "buffer_size", cap(c.eventCh))
}

func (c *Collector) TrackSearch(event SearchEvent) {
	if c.aggregator != nil {
		c.aggregator.RecordSearch(event)
	}
	c.enqueue(envelope{Kind: "search", Search: &event})
}

func (c *Collector) TrackIndex(event IndexEvent) {
	if c.aggregator != nil {
		c.aggregator.RecordIndex(event)
	}
	c.enqueue(envelope{Kind: "index", Index: &event})
}

func (c *Collector) Aggregator() *Aggregator {
	return c.aggregator
}

func (c *Collector) enqueue(event envelope) {
	if c.publisher == nil {
		return
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		c.logger.Debug("analytics event after close ignored", "kind", event.Kind)
		return
	}
	select {
	case c.eventCh <- event:
	default:
		c.logger.Warn("analytics event dropped (buffer full)", "kind", event.Kind)
	}
}

// Close stops accepting events and waits for queued ones to be published.
// Start must have been called. Events tracked after Close still reach the
// aggregator but are not published. Close may be called more than once.
func (c *Collector) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.eventCh)
	}
	c.mu.Unlock()
	<-c.done
}

// batch collects first plus whatever else is already queued, up to maxBatch.
func (c *Collector) batch(first envelope) []kafka.Event {
	events := []kafka.Event{{Key: first.Kind, Value: first}}
	for len(events) < maxBatch {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return events
			}
			events = append(events, kafka.Event{Key: event.Kind, Value: event})
		default:
			return events
		}
	}
	return events
}

func (c *Collector) publish(ctx context.Context, events []kafka.Event) {
	if err := c.publisher.PublishBatch(ctx, events); err != nil {
		c.logger.Error("failed to publish analytics events", "count", len(events), "error", err)
	}
}

func (c *Collector) drainRemaining() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return
			}
			c.publish(ctx, c.batch(event))
		default:
			return
		}
	}
}
