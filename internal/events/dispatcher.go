package events

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/tigocode/solar-back/internal/domain"
)

const (
	DefaultBufferSize    = 256
	DefaultFlushInterval = time.Second
)

type messageWriter interface {
	WriteMessages(context.Context, string, ...kafka.Message) error
}

type schemaRegistrar interface {
	EnsureSchema(context.Context, string, string) (int, error)
}

// DeadLetterSink stores envelopes that could not be delivered.
type DeadLetterSink interface {
	Write(ctx context.Context, envelope Envelope, reason string) error
}

// DispatcherOption configures optional behaviour for the Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger overrides the logger.
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithBufferSize bounds the number of events waiting for delivery.
func WithBufferSize(size int) DispatcherOption {
	return func(d *Dispatcher) {
		if size > 0 {
			d.queue = make(chan Envelope, size)
		}
	}
}

// WithFlushInterval sets how often queued events are delivered.
func WithFlushInterval(interval time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if interval > 0 {
			d.flushInterval = interval
		}
	}
}

// Dispatcher buffers lifecycle events in memory and delivers them to Kafka in
// batches, framing each payload with its Schema Registry id. Batches that fail are
// handed to the dead-letter sink.
type Dispatcher struct {
	producer         messageWriter
	registry         schemaRegistrar
	dlq              DeadLetterSink
	queue            chan Envelope
	flushInterval    time.Duration
	logger           *slog.Logger
	schemaIDCache    sync.Map
	shutdownComplete chan struct{}
	stopOnce         sync.Once
}

// NewDispatcher constructs a Dispatcher. dlq may be nil, in which case failed
// batches are only logged and counted.
func NewDispatcher(producer messageWriter, registry schemaRegistrar, dlq DeadLetterSink, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		producer:         producer,
		registry:         registry,
		dlq:              dlq,
		queue:            make(chan Envelope, DefaultBufferSize),
		flushInterval:    DefaultFlushInterval,
		logger:           slog.Default(),
		shutdownComplete: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Publish enqueues event without blocking. A full buffer drops the event.
func (d *Dispatcher) Publish(_ context.Context, event domain.LifecycleEvent) error {
	envelope, err := encodeEvent(event)
	if err != nil {
		return err
	}
	select {
	case d.queue <- envelope:
		return nil
	default:
		droppedCounter.Inc()
		return fmt.Errorf("event buffer full, dropped %s for %s", envelope.EventType, envelope.PartitionKey)
	}
}

// Start launches the delivery loop. It should be called in a goroutine. Once ctx
// is cancelled the events already queued are flushed before Start returns. Wait
// unblocks once the first run has returned.
func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.flushInterval)
	defer func() {
		ticker.Stop()
		d.stopOnce.Do(func() { close(d.shutdownComplete) })
	}()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			d.flush(flushCtx)
			cancel()
			return
		case <-ticker.C:
			d.flush(ctx)
		}
	}
}

// Wait waits until the dispatcher stops.
func (d *Dispatcher) Wait() {
	<-d.shutdownComplete
}

func (d *Dispatcher) flush(ctx context.Context) {
	batch := d.drain()
	if len(batch) == 0 {
		return
	}
	start := time.Now()
	defer func() { batchDuration.Observe(time.Since(start).Seconds()) }()

	for topic, envelopes := range groupByTopic(batch) {
		if err := d.deliver(ctx, topic, envelopes); err != nil {
			d.logger.Error("event delivery failed", "topic", topic, "count", len(envelopes), "error", err)
			failedCounter.WithLabelValues(topic).Add(float64(len(envelopes)))
			// The batch has left the queue; a cancelled ctx must not lose it.
			d.moveToDLQ(context.WithoutCancel(ctx), envelopes, err.Error())
			continue
		}
		deliveredCounter.WithLabelValues(topic).Add(float64(len(envelopes)))
	}
}

func (d *Dispatcher) drain() []Envelope {
	var batch []Envelope
	for {
		select {
		case envelope := <-d.queue:
			batch = append(batch, envelope)
		default:
			return batch
		}
	}
}

func groupByTopic(batch []Envelope) map[string][]Envelope {
	groups := make(map[string][]Envelope)
	for _, envelope := range batch {
		groups[envelope.Topic] = append(groups[envelope.Topic], envelope)
	}
	return groups
}

func (d *Dispatcher) deliver(ctx context.Context, topic string, envelopes []Envelope) error {
	records := make([]kafka.Message, 0, len(envelopes))
	for _, envelope := range envelopes {
		record, err := d.frame(ctx, envelope)
		if err != nil {
			return err
		}
		records = append(records, record)
	}
	return d.producer.WriteMessages(ctx, topic, records...)
}

func (d *Dispatcher) frame(ctx context.Context, envelope Envelope) (kafka.Message, error) {
	schemaID, err := d.schemaID(ctx, envelope)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(envelope.PartitionKey),
		Value: encodeWireFormat(schemaID, envelope.Payload),
		Time:  envelope.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(envelope.EventType)},
			{Key: "schema_subject", Value: []byte(envelope.SchemaSubject)},
		},
	}, nil
}

func (d *Dispatcher) schemaID(ctx context.Context, envelope Envelope) (int, error) {
	meta, ok := eventCatalog[domain.EventType(envelope.EventType)]
	if !ok {
		return 0, fmt.Errorf("no schema metadata for event_type=%s", envelope.EventType)
	}
	if cached, found := d.schemaIDCache.Load(envelope.SchemaSubject); found {
		return cached.(int), nil
	}
	id, err := d.registry.EnsureSchema(ctx, envelope.SchemaSubject, meta.Schema)
	if err != nil {
		return 0, fmt.Errorf("ensure schema %s: %w", envelope.SchemaSubject, err)
	}
	d.schemaIDCache.Store(envelope.SchemaSubject, id)
	return id, nil
}

func (d *Dispatcher) moveToDLQ(ctx context.Context, envelopes []Envelope, reason string) {
	if d.dlq == nil {
		return
	}
	for _, envelope := range envelopes {
		if err := d.dlq.Write(ctx, envelope, reason); err != nil {
			d.logger.Error("dead-letter write failed", "event_type", envelope.EventType, "activity_id", envelope.PartitionKey, "error", err)
			continue
		}
		dlqCounter.WithLabelValues(envelope.Topic).Inc()
	}
}

// encodeWireFormat applies Confluent framing: a zero magic byte, the big-endian
// schema id, then the JSON payload.
func encodeWireFormat(schemaID int, payload []byte) []byte {
	frame := make([]byte, 5+len(payload))
	frame[0] = 0
	binary.BigEndian.PutUint32(frame[1:5], uint32(schemaID))
	copy(frame[5:], payload)
	return frame
}
