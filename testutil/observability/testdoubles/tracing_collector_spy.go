package testdoubles

import (
	"context"
	"sync"

	"github.com/AntonStoeckl/plant-nursery-go/nursery"
)

// SpySpan is a span captured by TracingCollectorSpy.
type SpySpan struct {
	mu       sync.Mutex
	Name     string
	Attrs    map[string]string
	Status   string
	Finished bool
}

func (s *SpySpan) SetStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Status = status
}

func (s *SpySpan) AddAttribute(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Attrs[key] = value
}

// TracingCollectorSpy captures spans.
type TracingCollectorSpy struct {
	mu    sync.Mutex
	spans []*SpySpan
}

func NewTracingCollectorSpy() *TracingCollectorSpy {
	return &TracingCollectorSpy{}
}

func (t *TracingCollectorSpy) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, nursery.SpanContext) {
	span := &SpySpan{Name: name, Attrs: map[string]string{}}
	for k, v := range attrs {
		span.Attrs[k] = v
	}

	t.mu.Lock()
	t.spans = append(t.spans, span)
	t.mu.Unlock()

	return ctx, span
}

func (t *TracingCollectorSpy) FinishSpan(spanCtx nursery.SpanContext, status string, attrs map[string]string) {
	span, ok := spanCtx.(*SpySpan)
	if !ok {
		return
	}

	span.mu.Lock()
	defer span.mu.Unlock()

	for k, v := range attrs {
		span.Attrs[k] = v
	}

	span.Status = status
	span.Finished = true
}

// Spans returns every captured span with the given name.
func (t *TracingCollectorSpy) Spans(name string) []*SpySpan {
	t.mu.Lock()
	defer t.mu.Unlock()

	var filtered []*SpySpan
	for _, s := range t.spans {
		if s.Name == name {
			filtered = append(filtered, s)
		}
	}

	return filtered
}

var _ nursery.TracingCollector = (*TracingCollectorSpy)(nil)
