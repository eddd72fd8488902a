package actionlog

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/plant-nursery-go/journal"
	"github.com/AntonStoeckl/plant-nursery-go/nursery"
)

// ErrNothingToUndo is returned when the history holds no undoable command.
var ErrNothingToUndo = errors.New("no undoable command in history")

const (
	// ProcessDurationMetric tracks command execution duration.
	ProcessDurationMetric = "actionlog_process_duration_seconds"
	// ProcessCallsMetric counts executed commands by type and status.
	ProcessCallsMetric = "actionlog_process_calls_total"
	// UndoCallsMetric counts undo attempts by type and status.
	UndoCallsMetric = "actionlog_undo_calls_total"
	// QueueSizeMetric records the queue length after every enqueue and dequeue.
	QueueSizeMetric = "actionlog_queue_size"

	StatusSuccess = "success"
	StatusError   = "error"

	SpanNameProcess = "actionlog.process"
	SpanNameUndo    = "actionlog.undo"

	PhaseEnqueued = "enqueued"
	PhaseExecuted = "executed"
	PhaseFailed   = "failed"
	PhaseUndone   = "undone"

	logMsgEnqueued         = "command enqueued"
	logMsgNilRejected      = "nil command rejected"
	logMsgCommandStarted   = "command started"
	logMsgCommandCompleted = "command completed"
	logMsgCommandFailed    = "command failed"
	logMsgUndoCompleted    = "command undone"
	logMsgUndoFailed       = "command undo failed"
	logMsgJournalFailed    = "command journal append failed"

	logAttrCommandID   = "command_id"
	logAttrCommandType = "command_type"
	logAttrIssuedBy    = "issued_by"
	logAttrDescription = "description"
	logAttrStatus      = "status"
	logAttrDurationMS  = "duration_ms"
	logAttrError       = "error"
)

type queuedCommand struct {
	id       string
	command  Command
	undoable bool
}

// ActionLog is a FIFO of pending commands plus the history of executed undoable ones.
// It is safe for concurrent use; commands execute outside the lock.
type ActionLog struct {
	mu      sync.Mutex
	queue   []queuedCommand
	history []queuedCommand

	journal journal.Journal
	clock   nursery.Clock
	obs     nursery.Observability
}

// Option configures an ActionLog.
type Option func(*ActionLog)

// WithJournal sets the journal every command phase is appended to.
func WithJournal(j journal.Journal) Option {
	return func(l *ActionLog) { l.journal = j }
}

// WithClock sets the clock used for journal timestamps and command durations.
func WithClock(clock nursery.Clock) Option {
	return func(l *ActionLog) { l.clock = clock }
}

// WithLogger sets a plain logger.
func WithLogger(logger nursery.Logger) Option {
	return func(l *ActionLog) { l.obs.Logger = logger }
}

// WithContextualLogger sets a context-aware logger.
func WithContextualLogger(logger nursery.ContextualLogger) Option {
	return func(l *ActionLog) { l.obs.ContextualLogger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(collector nursery.MetricsCollector) Option {
	return func(l *ActionLog) { l.obs.Metrics = collector }
}

// WithTracing sets the tracing collector.
func WithTracing(collector nursery.TracingCollector) Option {
	return func(l *ActionLog) { l.obs.Tracing = collector }
}

// New creates an empty ActionLog that journals to journal.Discard unless configured.
func New(options ...Option) *ActionLog {
	l := &ActionLog{
		journal: journal.Discard,
		clock:   nursery.SystemClock,
	}

	for _, option := range options {
		option(l)
	}

	return l
}

// Enqueue appends cmd to the queue and returns the ID assigned to it.
// Whether the command lands in the history is decided here, from cmd.Undoable().
// A nil cmd is logged and rejected with an empty ID.
func (l *ActionLog) Enqueue(ctx context.Context, cmd Command) string {
	if cmd == nil {
		l.obs.Warn(ctx, logMsgNilRejected)
		return ""
	}

	queued := queuedCommand{
		id:       uuid.NewString(),
		command:  cmd,
		undoable: cmd.Undoable(),
	}

	l.mu.Lock()
	l.queue = append(l.queue, queued)
	size := len(l.queue)
	l.mu.Unlock()

	l.obs.RecordValue(ctx, QueueSizeMetric, float64(size), nil)
	l.obs.Debug(ctx, logMsgEnqueued, l.commandAttrs(queued)...)
	l.audit(ctx, queued, PhaseEnqueued, nil)

	return queued.id
}

// ProcessNext executes the oldest queued command. It reports false when the queue was empty.
// A failed command is logged and journaled and never enters the history.
func (l *ActionLog) ProcessNext(ctx context.Context) (bool, error) {
	l.mu.Lock()
	if len(l.queue) == 0 {
		l.mu.Unlock()
		return false, nil
	}

	queued := l.queue[0]
	l.queue[0] = queuedCommand{}
	l.queue = l.queue[1:]
	size := len(l.queue)
	l.mu.Unlock()

	l.obs.RecordValue(ctx, QueueSizeMetric, float64(size), nil)

	err := l.execute(ctx, queued)
	if err != nil {
		return true, err
	}

	if queued.undoable {
		l.mu.Lock()
		l.history = append(l.history, queued)
		l.mu.Unlock()
	}

	return true, nil
}

// ProcessAll drains the queue, including commands enqueued while draining, and returns the
// number of commands that succeeded.
func (l *ActionLog) ProcessAll(ctx context.Context) int {
	succeeded := 0

	for {
		processed, err := l.ProcessNext(ctx)
		if !processed {
			return succeeded
		}

		if err == nil {
			succeeded++
		}
	}
}

// UndoLastRestock pops the most recent history entry and undoes it.
// The entry stays popped even when its undo fails.
func (l *ActionLog) UndoLastRestock(ctx context.Context) error {
	l.mu.Lock()
	if len(l.history) == 0 {
		l.mu.Unlock()
		return ErrNothingToUndo
	}

	last := len(l.history) - 1
	queued := l.history[last]
	l.history[last] = queuedCommand{}
	l.history = l.history[:last]
	l.mu.Unlock()

	ctx, span := l.obs.StartSpan(ctx, SpanNameUndo, map[string]string{logAttrCommandType: queued.command.CommandType()})

	err := queued.command.Undo(ctx)
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}

	l.obs.IncrementCounter(ctx, UndoCallsMetric, commandLabels(queued.command.CommandType(), status))

	if err != nil {
		l.obs.FinishSpan(span, StatusError, map[string]string{logAttrError: err.Error()})
		l.obs.Error(ctx, logMsgUndoFailed, append(l.commandAttrs(queued), logAttrError, err.Error())...)
		l.audit(ctx, queued, PhaseFailed, err)

		return err
	}

	l.obs.FinishSpan(span, StatusSuccess, nil)
	l.obs.Info(ctx, logMsgUndoCompleted, l.commandAttrs(queued)...)
	l.audit(ctx, queued, PhaseUndone, nil)

	return nil
}

// QueueSize returns the number of commands waiting to be processed.
func (l *ActionLog) QueueSize() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.queue)
}

// HistorySize returns the number of undoable commands in the history.
func (l *ActionLog) HistorySize() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.history)
}

func (l *ActionLog) execute(ctx context.Context, queued queuedCommand) error {
	commandType := queued.command.CommandType()
	ctx, span := l.obs.StartSpan(ctx, SpanNameProcess, map[string]string{
		logAttrCommandType: commandType,
		logAttrCommandID:   queued.id,
	})

	l.obs.Debug(ctx, logMsgCommandStarted, l.commandAttrs(queued)...)

	start := l.clock.Now()
	err := queued.command.Execute(ctx)
	duration := l.clock.Now().Sub(start)

	status := StatusSuccess
	if err != nil {
		status = StatusError
	}

	labels := commandLabels(commandType, status)
	l.obs.RecordDuration(ctx, ProcessDurationMetric, duration, labels)
	l.obs.IncrementCounter(ctx, ProcessCallsMetric, labels)

	attrs := append(l.commandAttrs(queued), logAttrStatus, status, logAttrDurationMS, nursery.ToMilliseconds(duration))

	if err != nil {
		l.obs.FinishSpan(span, StatusError, map[string]string{logAttrError: err.Error()})
		l.obs.Warn(ctx, logMsgCommandFailed, append(attrs, logAttrError, err.Error())...)
		l.audit(ctx, queued, PhaseFailed, err)

		return err
	}

	l.obs.FinishSpan(span, StatusSuccess, nil)
	l.obs.Info(ctx, logMsgCommandCompleted, attrs...)
	l.audit(ctx, queued, PhaseExecuted, nil)

	return nil
}

type auditPayload struct {
	Phase       string   `json:"phase"`
	Description string   `json:"description"`
	Undoable    bool     `json:"undoable"`
	PlantIDs    []string `json:"plantIds,omitempty"`
	Error       string   `json:"error,omitempty"`
}

func (l *ActionLog) audit(ctx context.Context, queued queuedCommand, phase string, cause error) {
	payload := auditPayload{
		Phase:       phase,
		Description: queued.command.Description(),
		Undoable:    queued.undoable,
	}

	if restock, ok := queued.command.(*RestockCommand); ok && phase == PhaseExecuted {
		payload.PlantIDs = restock.Added()
	}

	if cause != nil {
		payload.Error = cause.Error()
	}

	payloadJSON, err := jsoniter.ConfigFastest.Marshal(payload)
	if err != nil {
		l.obs.Error(ctx, logMsgJournalFailed, append(l.commandAttrs(queued), logAttrError, err.Error())...)
		return
	}

	entry := journal.Entry{
		OccurredAt:  l.clock.Now(),
		Category:    journal.CategoryCommand,
		Action:      queued.command.CommandType() + "." + phase,
		Actor:       queued.command.IssuedBy(),
		Subject:     queued.id,
		PayloadJSON: payloadJSON,
	}

	if err := l.journal.Append(ctx, entry); err != nil {
		l.obs.Error(ctx, logMsgJournalFailed, append(l.commandAttrs(queued), logAttrError, err.Error())...)
	}
}

func (l *ActionLog) commandAttrs(queued queuedCommand) []any {
	return []any{
		logAttrCommandID, queued.id,
		logAttrCommandType, queued.command.CommandType(),
		logAttrIssuedBy, queued.command.IssuedBy(),
		logAttrDescription, queued.command.Description(),
	}
}

func commandLabels(commandType, status string) map[string]string {
	return map[string]string{
		logAttrCommandType: commandType,
		logAttrStatus:      status,
	}
}
