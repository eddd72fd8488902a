package testdoubles

import (
	"context"
	"sync"
	"time"

	"github.com/AntonStoeckl/plant-nursery-go/nursery"
)

// SpyMetricRecord represents a recorded metric call.
type SpyMetricRecord struct {
	Kind     string
	Metric   string
	Duration time.Duration
	Value    float64
	Labels   map[string]string
}

// MetricsCollectorSpy captures metric calls.
type MetricsCollectorSpy struct {
	mu      sync.Mutex
	records []SpyMetricRecord
}

func NewMetricsCollectorSpy() *MetricsCollectorSpy {
	return &MetricsCollectorSpy{}
}

func (s *MetricsCollectorSpy) record(r SpyMetricRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, r)
}

func (s *MetricsCollectorSpy) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	s.record(SpyMetricRecord{Kind: "duration", Metric: metric, Duration: duration, Labels: labels})
}

func (s *MetricsCollectorSpy) IncrementCounter(metric string, labels map[string]string) {
	s.record(SpyMetricRecord{Kind: "counter", Metric: metric, Value: 1, Labels: labels})
}

func (s *MetricsCollectorSpy) RecordValue(metric string, value float64, labels map[string]string) {
	s.record(SpyMetricRecord{Kind: "value", Metric: metric, Value: value, Labels: labels})
}

func (s *MetricsCollectorSpy) RecordDurationContext(_ context.Context, metric string, duration time.Duration, labels map[string]string) {
	s.RecordDuration(metric, duration, labels)
}

func (s *MetricsCollectorSpy) IncrementCounterContext(_ context.Context, metric string, labels map[string]string) {
	s.IncrementCounter(metric, labels)
}

func (s *MetricsCollectorSpy) RecordValueContext(_ context.Context, metric string, value float64, labels map[string]string) {
	s.RecordValue(metric, value, labels)
}

// Records returns every record for metric.
func (s *MetricsCollectorSpy) Records(metric string) []SpyMetricRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var filtered []SpyMetricRecord
	for _, r := range s.records {
		if r.Metric == metric {
			filtered = append(filtered, r)
		}
	}

	return filtered
}

// CounterTotal sums the increments of metric whose labels contain every given label.
func (s *MetricsCollectorSpy) CounterTotal(metric string, labels map[string]string) int {
	total := 0
	for _, r := range s.Records(metric) {
		if r.Kind == "counter" && containsLabels(r.Labels, labels) {
			total++
		}
	}

	return total
}

func containsLabels(have, want map[string]string) bool {
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}

	return true
}

var _ nursery.ContextualMetricsCollector = (*MetricsCollectorSpy)(nil)
