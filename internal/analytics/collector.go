package analytics

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/metrics"
)

// Publisher is the part of kafka.Producer the collector uses.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Collector buffers search events off the request path and publishes them
// in batches, either when a batch fills or on every flush interval.
type Collector struct {
	publisher     Publisher
	eventCh       chan SearchEvent
	batchSize     int
	flushInterval time.Duration
	metrics       *metrics.Metrics
	logger        *slog.Logger
	dropped       atomic.Int64
	done          chan struct{}
}

func NewCollector(publisher Publisher, bufferSize, batchSize int, flushInterval time.Duration, m *metrics.Metrics) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}
	return &Collector{
		publisher:     publisher,
		eventCh:       make(chan SearchEvent, bufferSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		metrics:       m,
		logger:        slog.Default().With("component", "analytics-collector"),
		done:          make(chan struct{}),
	}
}

// Start launches the publish loop. It stops after ctx is cancelled and the
// buffered events have been flushed.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.flushInterval)
		defer ticker.Stop()

		batch := make([]kafka.Event, 0, c.batchSize)
		for {
			select {
			case event := <-c.eventCh:
				batch = append(batch, toKafkaEvent(event))
				if len(batch) >= c.batchSize {
					batch = c.flush(ctx, batch)
				}
			case <-ticker.C:
				batch = c.flush(ctx, batch)
			case <-ctx.Done():
				batch = c.drain(batch)
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				c.flush(flushCtx, batch)
				cancel()
				return
			}
		}
	}()
	c.logger.Info("analytics collector started",
		"buffer_size", cap(c.eventCh),
		"batch_size", c.batchSize,
		"flush_interval", c.flushInterval,
	)
}

// Track never blocks; when the buffer is full the event is dropped.
func (c *Collector) Track(event SearchEvent) {
	select {
	case c.eventCh <- event:
	default:
		c.dropped.Add(1)
		c.count("dropped", 1)
		c.logger.Warn("analytics event dropped (buffer full)")
	}
}

// Close waits for the publish loop to finish. Cancel Start's context first.
func (c *Collector) Close() {
	<-c.done
}

func (c *Collector) Dropped() int64 {
	return c.dropped.Load()
}

func (c *Collector) drain(batch []kafka.Event) []kafka.Event {
	for {
		select {
		case event := <-c.eventCh:
			batch = append(batch, toKafkaEvent(event))
		default:
			return batch
		}
	}
}

// flush publishes batch and returns an empty buffer to refill. A failed
// batch is logged and dropped so a broker outage cannot grow memory.
func (c *Collector) flush(ctx context.Context, batch []kafka.Event) []kafka.Event {
	if len(batch) == 0 {
		return batch
	}
	if err := c.publisher.PublishBatch(ctx, batch); err != nil {
		c.count("dropped", len(batch))
		c.logger.Error("batch flush failed",
			"batch_size", len(batch),
			"error", err,
		)
	} else {
		c.count("published", len(batch))
		c.logger.Debug("batch flushed", "events", len(batch))
	}
	return make([]kafka.Event, 0, c.batchSize)
}

func (c *Collector) count(direction string, n int) {
	if c.metrics == nil {
		return
	}
	c.metrics.AnalyticsEventsTotal.WithLabelValues(direction).Add(float64(n))
}

func toKafkaEvent(event SearchEvent) kafka.Event {
	return kafka.Event{
		Key:   event.Model,
		Type:  string(event.Type),
		Value: event,
	}
}
