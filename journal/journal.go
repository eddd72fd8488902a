package journal

import (
	"context"
	"sync"
	"time"

	"github.com/AntonStoeckl/plant-nursery-go/events"
	"github.com/AntonStoeckl/plant-nursery-go/nursery"
)

const (
	CategoryCommand = "command"
	CategoryEvent   = "event"

	logMsgAppendFailed   = "journal append failed"
	logMsgEncodeFailed   = "journal payload encoding failed"
	logAttrAction        = "action"
	logAttrError         = "error"
	AppendFailuresMetric = "journal_append_failures_total"
)

// Entry is one audit record.
type Entry struct {
	OccurredAt  time.Time
	Category    string
	Action      string
	Actor       string
	Subject     string
	PayloadJSON []byte
}

// Journal appends entries.
type Journal interface {
	Append(ctx context.Context, entry Entry) error
}

// Reader returns the most recent entries, newest first.
type Reader interface {
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// Discard drops every entry.
var Discard Journal = discard{}

type discard struct{}

func (discard) Append(context.Context, Entry) error { return nil }

// MemoryJournal keeps entries in memory. It is safe for concurrent use.
type MemoryJournal struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemoryJournal creates an empty in-memory journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

// Append stores a copy of entry.
func (m *MemoryJournal) Append(_ context.Context, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, entry)

	return nil
}

// Entries returns a copy of all entries in append order.
func (m *MemoryJournal) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Entry(nil), m.entries...)
}

// Len returns the number of stored entries.
func (m *MemoryJournal) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.entries)
}

// Recent returns up to limit entries, newest first.
func (m *MemoryJournal) Recent(_ context.Context, limit int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 || limit > len(m.entries) {
		limit = len(m.entries)
	}

	recent := make([]Entry, 0, limit)
	for i := len(m.entries) - 1; i >= len(m.entries)-limit; i-- {
		recent = append(recent, m.entries[i])
	}

	return recent, nil
}

// EventRecorder appends every observed event to a Journal. Failures are logged and counted,
// never returned to the publisher.
type EventRecorder struct {
	journal       Journal
	observability nursery.Observability
}

// RecorderOption configures an EventRecorder.
type RecorderOption func(*EventRecorder)

// WithLogger sets a plain logger.
func WithLogger(logger nursery.Logger) RecorderOption {
	return func(r *EventRecorder) { r.observability.Logger = logger }
}

// WithContextualLogger sets a context-aware logger.
func WithContextualLogger(logger nursery.ContextualLogger) RecorderOption {
	return func(r *EventRecorder) { r.observability.ContextualLogger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(collector nursery.MetricsCollector) RecorderOption {
	return func(r *EventRecorder) { r.observability.Metrics = collector }
}

// NewEventRecorder creates a recorder appending to journal.
func NewEventRecorder(journal Journal, options ...RecorderOption) *EventRecorder {
	if journal == nil {
		journal = Discard
	}

	r := &EventRecorder{journal: journal}
	for _, option := range options {
		option(r)
	}

	return r
}

// OnPlantEvent journals a plant event.
func (r *EventRecorder) OnPlantEvent(ctx context.Context, event events.PlantEvent) {
	r.record(ctx, event, event.PlantID)
}

// OnStockEvent journals a stock event.
func (r *EventRecorder) OnStockEvent(ctx context.Context, event events.StockEvent) {
	r.record(ctx, event, event.Key)
}

// OnOrderEvent journals an order event.
func (r *EventRecorder) OnOrderEvent(ctx context.Context, event *events.OrderEvent) {
	r.record(ctx, event, event.OrderID)
}

func (r *EventRecorder) record(ctx context.Context, event events.Event, subject string) {
	payload, err := event.PayloadToJSON()
	if err != nil {
		r.observability.Error(ctx, logMsgEncodeFailed, logAttrAction, event.EventType(), logAttrError, err.Error())
		return
	}

	entry := Entry{
		OccurredAt:  event.HasOccurredAt(),
		Category:    CategoryEvent,
		Action:      event.EventType(),
		Subject:     subject,
		PayloadJSON: payload,
	}

	if err := r.journal.Append(ctx, entry); err != nil {
		r.observability.Error(ctx, logMsgAppendFailed, logAttrAction, event.EventType(), logAttrError, err.Error())
		r.observability.IncrementCounter(ctx, AppendFailuresMetric, map[string]string{logAttrAction: event.EventType()})
	}
}

var (
	_ events.PlantObserver = (*EventRecorder)(nil)
	_ events.StockObserver = (*EventRecorder)(nil)
	_ events.OrderObserver = (*EventRecorder)(nil)
	_ Reader               = (*MemoryJournal)(nil)
)
