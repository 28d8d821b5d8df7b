package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"homework-bot/internal/domain/entity"
	"homework-bot/internal/observability/logging"
	"homework-bot/internal/observability/tracing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// errorReportPrefix starts every operational error message sent to the chat.
const errorReportPrefix = "Сбой в работе программы: "

// Cycle outcomes reported to observers and span attributes.
const (
	OutcomeNotified        = "notified"
	OutcomeDeliveryFailed  = "delivery_failed"
	OutcomeNoUpdates       = "no_updates"
	OutcomeSkipped         = "skipped"
	OutcomeFetchError      = "fetch_error"
	OutcomeValidationError = "validation_error"
	OutcomeCanceled        = "canceled"
)

// Fetcher retrieves the raw status payload for a cursor.
type Fetcher interface {
	Fetch(ctx context.Context, cursor int64) (any, error)
}

// Notifier delivers a message and reports whether it was accepted.
type Notifier interface {
	Notify(ctx context.Context, destination int64, message string) bool
}

// Schedule yields the next activation time after the given instant.
// cron.Schedule satisfies it.
type Schedule interface {
	Next(time.Time) time.Time
}

// Observer is told about every finished cycle.
type Observer interface {
	CycleCompleted(outcome string, duration time.Duration, cursor int64)
}

// Config holds the immutable loop settings.
type Config struct {
	// ChatID is the destination for verdicts and error reports
	ChatID int64

	// InitialCursor is the first from_date value (Unix seconds)
	InitialCursor int64

	// Schedule decides when the next cycle starts
	Schedule Schedule

	// ErrorNotifications sends operational failures to the chat
	ErrorNotifications bool

	// DedupErrors suppresses an error report identical to the previous one
	DedupErrors bool
}

// CycleResult summarises one RunCycle call.
type CycleResult struct {
	CycleID      string
	Outcome      string
	CursorBefore int64
	CursorAfter  int64
	Delivered    bool
	Err          error
}

// Status is a point-in-time view of the loop for health checks.
type Status struct {
	Running     bool
	Cursor      int64
	Cycles      uint64
	LastSuccess time.Time
}

// Loop owns the cursor and runs poll cycles strictly one after another.
type Loop struct {
	fetcher  Fetcher
	notifier Notifier
	cfg      Config
	observer Observer
	logger   *slog.Logger
	now      func() time.Time

	// Loop goroutine only.
	cursor        int64
	lastErrReport string

	// Snapshot for concurrent readers.
	cursorSnap  atomic.Int64
	lastSuccess atomic.Int64
	cycles      atomic.Uint64
	running     atomic.Bool
}

// Option configures a Loop.
type Option func(*Loop)

// WithObserver reports finished cycles to o.
func WithObserver(o Observer) Option {
	return func(l *Loop) { l.observer = o }
}

// WithLogger sets the base logger; cycle loggers derive from it.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) { l.logger = logger }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Loop) { l.now = now }
}

// NewLoop creates a poll loop.
//
// Parameters:
//   - fetcher: Status API client
//   - notifier: Delivery service
//   - cfg: Destination, initial cursor, schedule and error-report switches
//
// Returns:
//   - *Loop: Loop ready for Run or RunCycle
//   - error: Non-nil if the schedule is missing or the initial cursor is negative
func NewLoop(fetcher Fetcher, notifier Notifier, cfg Config, opts ...Option) (*Loop, error) {
	if cfg.Schedule == nil {
		return nil, errors.New("poll: schedule is required")
	}
	if cfg.InitialCursor < 0 {
		return nil, &entity.ValidationError{
			Reason:  entity.ErrNegativeCursor,
			Field:   "initial_cursor",
			Message: fmt.Sprintf("got %d", cfg.InitialCursor),
		}
	}

	l := &Loop{
		fetcher:  fetcher,
		notifier: notifier,
		cfg:      cfg,
		logger:   slog.Default(),
		now:      time.Now,
		cursor:   cfg.InitialCursor,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.cursorSnap.Store(cfg.InitialCursor)

	return l, nil
}

// Cursor returns the current cursor. Safe for concurrent use.
func (l *Loop) Cursor() int64 {
	return l.cursorSnap.Load()
}

// Status returns a snapshot of the loop. Safe for concurrent use.
func (l *Loop) Status() Status {
	s := Status{
		Running: l.running.Load(),
		Cursor:  l.cursorSnap.Load(),
		Cycles:  l.cycles.Load(),
	}
	if ns := l.lastSuccess.Load(); ns != 0 {
		s.LastSuccess = time.Unix(0, ns)
	}
	return s
}

// Run executes a cycle immediately and then at every schedule activation
// until ctx is canceled. Cycle failures never stop the loop.
//
// Returns:
//   - error: Always nil; cancellation is the normal way to stop
func (l *Loop) Run(ctx context.Context) error {
	l.running.Store(true)
	defer l.running.Store(false)

	l.logger.Info("poll loop started", slog.Int64("cursor", l.cursor))

	for {
		l.RunCycle(ctx)

		now := l.now()
		next := l.cfg.Schedule.Next(now)
		wait := next.Sub(now)
		if wait < 0 {
			wait = 0
		}
		l.logger.Debug("waiting for next cycle", slog.Time("next_run", next))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			l.logger.Info("poll loop stopped", slog.Int64("cursor", l.cursor))
			return nil
		case <-timer.C:
		}
	}
}

// RunCycle performs one poll cycle: fetch, validate, relay the newest
// verdict, advance the cursor. It must not be called concurrently.
func (l *Loop) RunCycle(ctx context.Context) CycleResult {
	cycleID := uuid.NewString()
	logger := logging.WithCycleID(l.logger, cycleID)
	ctx = logging.WithLogger(ctx, logger)

	ctx, span := tracing.StartSpan(ctx, "poll.cycle",
		attribute.String("poll.cycle_id", cycleID),
		attribute.Int64("poll.cursor", l.cursor))

	start := l.now()
	result := l.cycle(ctx, logger)
	result.CycleID = cycleID
	duration := l.now().Sub(start)

	span.SetAttributes(
		attribute.String("poll.outcome", result.Outcome),
		attribute.Int64("poll.cursor_after", result.CursorAfter))
	tracing.EndSpan(span, result.Err)

	l.cycles.Add(1)
	if l.observer != nil {
		l.observer.CycleCompleted(result.Outcome, duration, result.CursorAfter)
	}
	logger.Debug("cycle finished",
		slog.String("outcome", result.Outcome),
		slog.Duration("duration", duration))

	return result
}

func (l *Loop) cycle(ctx context.Context, logger *slog.Logger) CycleResult {
	result := CycleResult{CursorBefore: l.cursor, CursorAfter: l.cursor}

	payload, err := l.fetcher.Fetch(ctx, l.cursor)
	if err != nil && ctx.Err() != nil {
		// Shutdown interrupted the request; nothing to report.
		logger.Debug("status request canceled", logging.Err(err))
		result.Outcome = OutcomeCanceled
		return result
	}
	if err != nil {
		logger.Error("status request failed", logging.Err(err))
		l.reportError(ctx, logger, err)
		result.Outcome = OutcomeFetchError
		result.Err = err
		return result
	}

	resp, err := Validate(payload)
	if err != nil {
		logger.Error("invalid status response", logging.Err(err))
		l.reportError(ctx, logger, err)
		result.Outcome = OutcomeValidationError
		result.Err = err
		return result
	}
	l.lastErrReport = ""

	if len(resp.Homeworks) == 0 {
		logger.Debug("no new statuses")
		result.Outcome = OutcomeNoUpdates
	} else {
		l.relay(ctx, logger, resp.Homeworks[0], &result)
	}

	l.advance(logger, resp.CurrentDate)
	result.CursorAfter = l.cursor
	l.lastSuccess.Store(l.now().UnixNano())

	return result
}

func (l *Loop) relay(ctx context.Context, logger *slog.Logger, hw entity.HomeworkRecord, result *CycleResult) {
	message, err := entity.FormatVerdict(hw)
	if err != nil {
		logger.Error("homework record skipped",
			slog.String("homework", hw.Name),
			slog.String("status", hw.Status),
			logging.Err(err))
		result.Outcome = OutcomeSkipped
		result.Err = err
		return
	}

	result.Delivered = l.notifier.Notify(ctx, l.cfg.ChatID, message)
	if result.Delivered {
		result.Outcome = OutcomeNotified
		logger.Info("status change relayed",
			slog.String("homework", hw.Name),
			slog.String("status", hw.Status))
		return
	}
	result.Outcome = OutcomeDeliveryFailed
	logger.Warn("status change not delivered",
		slog.String("homework", hw.Name),
		slog.String("status", hw.Status))
}

// advance moves the cursor forward; a smaller current_date is ignored.
func (l *Loop) advance(logger *slog.Logger, currentDate int64) {
	if currentDate < l.cursor {
		logger.Warn("current_date is behind the cursor, keeping cursor",
			slog.Int64("cursor", l.cursor),
			slog.Int64("current_date", currentDate))
		return
	}
	l.cursor = currentDate
	l.cursorSnap.Store(currentDate)
}

func (l *Loop) reportError(ctx context.Context, logger *slog.Logger, err error) {
	if !l.cfg.ErrorNotifications {
		return
	}

	message := errorReportPrefix + logging.SanitizeError(err)
	if l.cfg.DedupErrors && message == l.lastErrReport {
		logger.Debug("duplicate error report suppressed")
		return
	}

	if l.notifier.Notify(ctx, l.cfg.ChatID, message) {
		l.lastErrReport = message
	}
}
