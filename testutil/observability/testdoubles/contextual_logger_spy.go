package testdoubles

import (
	"context"
	"sync"

	"github.com/AntonStoeckl/plant-nursery-go/nursery"
)

// SpyLogRecord represents a recorded log call. Context is nil for plain Logger calls.
type SpyLogRecord struct {
	Level   string
	Message string
	Args    []any
	Context context.Context
}

// Arg returns the value logged for key, if any.
func (r SpyLogRecord) Arg(key string) (any, bool) {
	for i := 0; i+1 < len(r.Args); i += 2 {
		if k, ok := r.Args[i].(string); ok && k == key {
			return r.Args[i+1], true
		}
	}

	return nil, false
}

// ContextualLoggerSpy captures log calls made through nursery.Logger and nursery.ContextualLogger.
type ContextualLoggerSpy struct {
	mu      sync.Mutex
	records []SpyLogRecord
}

func NewContextualLoggerSpy() *ContextualLoggerSpy {
	return &ContextualLoggerSpy{}
}

func (s *ContextualLoggerSpy) record(ctx context.Context, level, msg string, args []any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, SpyLogRecord{Level: level, Message: msg, Args: args, Context: ctx})
}

func (s *ContextualLoggerSpy) Debug(msg string, args ...any) { s.record(nil, "debug", msg, args) }
func (s *ContextualLoggerSpy) Info(msg string, args ...any)  { s.record(nil, "info", msg, args) }
func (s *ContextualLoggerSpy) Warn(msg string, args ...any)  { s.record(nil, "warn", msg, args) }
func (s *ContextualLoggerSpy) Error(msg string, args ...any) { s.record(nil, "error", msg, args) }

func (s *ContextualLoggerSpy) DebugContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "debug", msg, args)
}

func (s *ContextualLoggerSpy) InfoContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "info", msg, args)
}

func (s *ContextualLoggerSpy) WarnContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "warn", msg, args)
}

func (s *ContextualLoggerSpy) ErrorContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "error", msg, args)
}

// Records returns a copy of every record, optionally filtered by level.
func (s *ContextualLoggerSpy) Records(level ...string) []SpyLogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(level) == 0 {
		return append([]SpyLogRecord(nil), s.records...)
	}

	var filtered []SpyLogRecord
	for _, r := range s.records {
		if r.Level == level[0] {
			filtered = append(filtered, r)
		}
	}

	return filtered
}

// Has checks if a record with level and message exists.
func (s *ContextualLoggerSpy) Has(level, message string) bool {
	for _, r := range s.Records(level) {
		if r.Message == message {
			return true
		}
	}

	return false
}

func (s *ContextualLoggerSpy) HasInfoLog(message string) bool  { return s.Has("info", message) }
func (s *ContextualLoggerSpy) HasWarnLog(message string) bool  { return s.Has("warn", message) }
func (s *ContextualLoggerSpy) HasErrorLog(message string) bool { return s.Has("error", message) }

// Reset clears all recorded log calls.
func (s *ContextualLoggerSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
}

var _ nursery.Logger = (*ContextualLoggerSpy)(nil)
var _ nursery.ContextualLogger = (*ContextualLoggerSpy)(nil)
