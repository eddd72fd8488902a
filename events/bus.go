package events

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/AntonStoeckl/plant-nursery-go/nursery"
)

const (
	EventsPublishedMetric = "events_published_total"
	ObserverPanicsMetric  = "events_observer_panics_total"

	logMsgObserverPanicked = "event observer panicked"
	logMsgEventPublished   = "event published"
	logAttrEventType       = "event_type"
	logAttrObservers       = "observers"
	logAttrPanic           = "panic"
)

// PlantObserver handles plant lifecycle events.
type PlantObserver interface {
	OnPlantEvent(ctx context.Context, event PlantEvent)
}

// StockObserver handles stock movements.
type StockObserver interface {
	OnStockEvent(ctx context.Context, event StockEvent)
}

// OrderObserver handles order events. Handlers may fill in StaffID.
type OrderObserver interface {
	OnOrderEvent(ctx context.Context, event *OrderEvent)
}

// PlantObserverFunc adapts a function to PlantObserver.
type PlantObserverFunc func(ctx context.Context, event PlantEvent)

func (f PlantObserverFunc) OnPlantEvent(ctx context.Context, event PlantEvent) { f(ctx, event) }

// StockObserverFunc adapts a function to StockObserver.
type StockObserverFunc func(ctx context.Context, event StockEvent)

func (f StockObserverFunc) OnStockEvent(ctx context.Context, event StockEvent) { f(ctx, event) }

// OrderObserverFunc adapts a function to OrderObserver.
type OrderObserverFunc func(ctx context.Context, event *OrderEvent)

func (f OrderObserverFunc) OnOrderEvent(ctx context.Context, event *OrderEvent) { f(ctx, event) }

type subscription[T any] struct {
	id       uint64
	observer T
}

// Bus delivers events synchronously to observers in registration order.
// It is safe for concurrent use; observers may subscribe or publish from within a handler.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	plant  []subscription[PlantObserver]
	stock  []subscription[StockObserver]
	order  []subscription[OrderObserver]

	observability nursery.Observability
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets a plain logger.
func WithLogger(logger nursery.Logger) Option {
	return func(b *Bus) { b.observability.Logger = logger }
}

// WithContextualLogger sets a context-aware logger.
func WithContextualLogger(logger nursery.ContextualLogger) Option {
	return func(b *Bus) { b.observability.ContextualLogger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(collector nursery.MetricsCollector) Option {
	return func(b *Bus) { b.observability.Metrics = collector }
}

// NewBus creates a bus without subscribers.
func NewBus(options ...Option) *Bus {
	b := &Bus{}
	for _, option := range options {
		option(b)
	}

	return b
}

// Subscribe registers observer for every event family it handles.
// It returns false, and a no-op unsubscribe, for nil values and values that handle no family.
func (b *Bus) Subscribe(observer any) (unsubscribe func(), ok bool) {
	if isNil(observer) {
		return func() {}, false
	}

	plantObserver, handlesPlant := observer.(PlantObserver)
	stockObserver, handlesStock := observer.(StockObserver)
	orderObserver, handlesOrder := observer.(OrderObserver)

	if !handlesPlant && !handlesStock && !handlesOrder {
		return func() {}, false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID

	if handlesPlant {
		b.plant = append(b.plant, subscription[PlantObserver]{id: id, observer: plantObserver})
	}

	if handlesStock {
		b.stock = append(b.stock, subscription[StockObserver]{id: id, observer: stockObserver})
	}

	if handlesOrder {
		b.order = append(b.order, subscription[OrderObserver]{id: id, observer: orderObserver})
	}

	var once sync.Once

	return func() { once.Do(func() { b.unsubscribe(id) }) }, true
}

func (b *Bus) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.plant = without(b.plant, id)
	b.stock = without(b.stock, id)
	b.order = without(b.order, id)
}

func without[T any](subs []subscription[T], id uint64) []subscription[T] {
	kept := make([]subscription[T], 0, len(subs))
	for _, sub := range subs {
		if sub.id != id {
			kept = append(kept, sub)
		}
	}

	return kept
}

// ObserverCount returns the number of observers subscribed to each family.
func (b *Bus) ObserverCount() (plant, stock, order int) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.plant), len(b.stock), len(b.order)
}

// Publish delivers event to the current observers of its family. A nil *OrderEvent is dropped.
func (b *Bus) Publish(ctx context.Context, event Event) {
	switch e := event.(type) {
	case PlantEvent:
		b.PublishPlant(ctx, e)
	case StockEvent:
		b.PublishStock(ctx, e)
	case *OrderEvent:
		if e != nil {
			b.PublishOrder(ctx, e)
		}
	}
}

// PublishPlant delivers event to the current plant observers.
func (b *Bus) PublishPlant(ctx context.Context, event PlantEvent) {
	b.mu.RLock()
	subs := append([]subscription[PlantObserver](nil), b.plant...)
	b.mu.RUnlock()

	b.published(ctx, event.EventType(), len(subs))

	for _, sub := range subs {
		b.deliver(ctx, event.EventType(), func() { sub.observer.OnPlantEvent(ctx, event) })
	}
}

// PublishStock delivers event to the current stock observers.
func (b *Bus) PublishStock(ctx context.Context, event StockEvent) {
	b.mu.RLock()
	subs := append([]subscription[StockObserver](nil), b.stock...)
	b.mu.RUnlock()

	b.published(ctx, event.EventType(), len(subs))

	for _, sub := range subs {
		b.deliver(ctx, event.EventType(), func() { sub.observer.OnStockEvent(ctx, event) })
	}
}

// PublishOrder delivers event to the current order observers, which share the pointer.
func (b *Bus) PublishOrder(ctx context.Context, event *OrderEvent) {
	b.mu.RLock()
	subs := append([]subscription[OrderObserver](nil), b.order...)
	b.mu.RUnlock()

	b.published(ctx, event.EventType(), len(subs))

	for _, sub := range subs {
		b.deliver(ctx, event.EventType(), func() { sub.observer.OnOrderEvent(ctx, event) })
	}
}

func (b *Bus) published(ctx context.Context, eventType string, observers int) {
	b.observability.Debug(ctx, logMsgEventPublished, logAttrEventType, eventType, logAttrObservers, observers)
	b.observability.IncrementCounter(ctx, EventsPublishedMetric, map[string]string{logAttrEventType: eventType})
}

func (b *Bus) deliver(ctx context.Context, eventType string, handle func()) {
	defer func() {
		if r := recover(); r != nil {
			b.observability.Error(ctx, logMsgObserverPanicked, logAttrEventType, eventType, logAttrPanic, fmt.Sprint(r))
			b.observability.IncrementCounter(ctx, ObserverPanicsMetric, map[string]string{logAttrEventType: eventType})
		}
	}()

	handle()
}

func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
