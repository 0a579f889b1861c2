// Package sched injects named events into a running actor on cron
// expressions, one-shot delays, or absolute times. Fires go through the
// actor's Send, so single-event-at-a-time processing still holds.
package sched

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	flowstate "github.com/goliatone/go-flowstate"
	rcron "github.com/robfig/cron/v3"
)

// EventSender is the narrow actor surface the scheduler fires into.
// flowstate.Handle satisfies it.
type EventSender interface {
	SendEvent(ctx context.Context, event string, value any) error
}

// Scheduler wraps cron functionality for event injection.
type Scheduler struct {
	mu           sync.Mutex
	cron         *rcron.Cron
	location     *time.Location
	seconds      bool
	errorHandler func(error)
	logger       flowstate.Logger

	started      bool
	nextHandleID int64
	handles      map[int64]*schedule
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLocation sets the timezone used to evaluate cron expressions.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithSeconds enables seconds-granularity cron expressions.
func WithSeconds() Option {
	return func(s *Scheduler) {
		s.seconds = true
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(logger flowstate.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithErrorHandler sets the handler invoked when a scheduled fire fails.
func WithErrorHandler(handler func(error)) Option {
	return func(s *Scheduler) {
		if handler != nil {
			s.errorHandler = handler
		}
	}
}

// NewScheduler creates a scheduler with the provided options.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		location: time.Local,
		logger:   flowstate.NewFmtLogger(nil),
		handles:  make(map[int64]*schedule),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.errorHandler == nil {
		logger := s.logger
		s.errorHandler = func(err error) {
			logger.Error("scheduled event failed: %v", err)
		}
	}

	cronOpts := []rcron.Option{rcron.WithLocation(s.location)}
	if s.seconds {
		cronOpts = append(cronOpts, rcron.WithSeconds())
	}
	s.cron = rcron.New(cronOpts...)
	return s
}

// ScheduleEvent fires event into target on a recurring cron expression.
func (s *Scheduler) ScheduleEvent(expr string, target EventSender, event string, value any) (Handle, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("cron expression cannot be empty")
	}
	run, err := s.buildRunnable(target, event, value)
	if err != nil {
		return nil, err
	}

	sub := s.newHandle()
	job := rcron.FuncJob(func() {
		if isTerminalStatus(sub.Status()) {
			return
		}
		sub.setStatus(ScheduleStatusRunning, nil)
		if err := run(); err != nil {
			sub.setTerminal(ScheduleStatusFailed, err)
			s.errorHandler(err)
			return
		}
		if !isTerminalStatus(sub.Status()) {
			sub.setStatus(ScheduleStatusIdle, nil)
		}
	})

	entryID, err := s.cron.AddJob(expr, job)
	if err != nil {
		s.removeHandle(sub.id)
		return nil, fmt.Errorf("failed to add job: %w", err)
	}
	sub.entryID = int(entryID)
	return sub, nil
}

// ScheduleAfter fires event into target once after the given delay.
func (s *Scheduler) ScheduleAfter(delay time.Duration, target EventSender, event string, value any) (Handle, error) {
	if delay < 0 {
		return nil, fmt.Errorf("delay cannot be negative")
	}
	run, err := s.buildRunnable(target, event, value)
	if err != nil {
		return nil, err
	}

	sub := s.newHandle()
	timer := time.AfterFunc(delay, func() {
		if isTerminalStatus(sub.Status()) {
			return
		}
		sub.setStatus(ScheduleStatusRunning, nil)
		if err := run(); err != nil {
			sub.setTerminal(ScheduleStatusFailed, err)
			s.errorHandler(err)
			return
		}
		sub.setTerminal(ScheduleStatusCompleted, nil)
	})
	sub.onCancel = func() { timer.Stop() }
	return sub, nil
}

// ScheduleAt fires event into target once at the given time. Times in the
// past fire immediately.
func (s *Scheduler) ScheduleAt(at time.Time, target EventSender, event string, value any) (Handle, error) {
	return s.ScheduleAfter(max(time.Until(at), 0), target, event, value)
}

// Start begins processing cron entries. One-shot schedules run regardless.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("scheduler already started")
	}
	s.started = true
	s.cron.Start()
	return ctx.Err()
}

// Stop halts cron processing and waits for running jobs to finish or the
// context to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	stopCtx := s.cron.Stop()
	s.mu.Unlock()

	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) buildRunnable(target EventSender, event string, value any) (func() error, error) {
	if target == nil {
		return nil, fmt.Errorf("event sender is required")
	}
	event = strings.TrimSpace(event)
	if event == "" {
		return nil, fmt.Errorf("event name is required")
	}
	logger := s.logger
	return func() error {
		logger.Debug("firing scheduled event %q", event)
		return target.SendEvent(context.Background(), event, value)
	}, nil
}

func (s *Scheduler) newHandle() *schedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextHandleID++
	sub := &schedule{
		scheduler: s,
		id:        s.nextHandleID,
		done:      make(chan struct{}),
		status:    ScheduleStatusScheduled,
	}
	s.handles[sub.id] = sub
	return sub
}

func (s *Scheduler) removeHandle(id int64) {
	s.mu.Lock()
	sub, ok := s.handles[id]
	if ok {
		delete(s.handles, id)
	}
	s.mu.Unlock()
	if ok && sub.entryID != 0 {
		s.cron.Remove(rcron.EntryID(sub.entryID))
	}
}
