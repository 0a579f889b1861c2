package sched

import "sync"

// ScheduleStatus reports a schedule handle state.
type ScheduleStatus string

const (
	ScheduleStatusScheduled ScheduleStatus = "scheduled"
	ScheduleStatusRunning   ScheduleStatus = "running"
	ScheduleStatusIdle      ScheduleStatus = "idle"
	ScheduleStatusCompleted ScheduleStatus = "completed"
	ScheduleStatusCanceled  ScheduleStatus = "canceled"
	ScheduleStatusFailed    ScheduleStatus = "failed"
)

// Handle controls one scheduled event.
type Handle interface {
	Cancel()
	Status() ScheduleStatus
	Err() error
	Done() <-chan struct{}
	ID() int64
}

type schedule struct {
	scheduler *Scheduler
	id        int64
	entryID   int
	done      chan struct{}
	onCancel  func()

	mu     sync.RWMutex
	status ScheduleStatus
	err    error
	once   sync.Once
}

func (s *schedule) Cancel() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.onCancel != nil {
			s.onCancel()
		}
		if s.scheduler != nil {
			s.scheduler.removeHandle(s.id)
		}
		s.markTerminal(ScheduleStatusCanceled, nil)
	})
}

func (s *schedule) Status() ScheduleStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *schedule) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *schedule) Done() <-chan struct{} {
	return s.done
}

func (s *schedule) ID() int64 {
	return s.id
}

func (s *schedule) setStatus(status ScheduleStatus, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if isTerminalStatus(s.status) {
		return
	}
	s.status = status
	s.err = err
}

// setTerminal transitions to a terminal status and closes done exactly once.
func (s *schedule) setTerminal(status ScheduleStatus, err error) {
	if s.scheduler != nil {
		s.scheduler.removeHandle(s.id)
	}
	s.markTerminal(status, err)
}

func (s *schedule) markTerminal(status ScheduleStatus, err error) {
	s.mu.Lock()
	alreadyTerminal := isTerminalStatus(s.status)
	if !alreadyTerminal {
		s.status = status
		s.err = err
	}
	s.mu.Unlock()
	if !alreadyTerminal {
		close(s.done)
	}
}

func isTerminalStatus(status ScheduleStatus) bool {
	switch status {
	case ScheduleStatusCompleted, ScheduleStatusCanceled, ScheduleStatusFailed:
		return true
	}
	return false
}
