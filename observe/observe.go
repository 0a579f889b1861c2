// Package observe treats external visualization as a narrow, failure-tolerant
// collaborator: observers attach to a snapshot source, attach failures are
// logged and never fatal, and sessions close without affecting the actor.
package observe

import (
	flowstate "github.com/goliatone/go-flowstate"
)

// Session is a live observation that can be torn down independently of the
// observed actor.
type Session interface {
	Close() error
}

// Source is the read-only surface an observer attaches to. A live
// flowstate.Actor satisfies it.
type Source[D any] interface {
	Snapshot() flowstate.Snapshot[D]
	Subscribe(fn func(flowstate.Snapshot[D])) (cancel func())
}

// Observer produces a session for a source. Attach may fail; callers going
// through the package-level Attach helper never see that failure.
type Observer[D any] interface {
	Attach(src Source[D]) (Session, error)
}

// Attach wires an observer to a source, swallowing failures with a warning.
// It always returns a usable session; when attachment fails the session is a
// no-op.
func Attach[D any](obs Observer[D], src Source[D], logger flowstate.Logger) Session {
	if logger == nil {
		logger = flowstate.NewFmtLogger(nil)
	}
	if obs == nil || src == nil {
		return noopSession{}
	}
	session, err := obs.Attach(src)
	if err != nil {
		logger.Warn("observer attach failed, continuing without it: %v", err)
		return noopSession{}
	}
	if session == nil {
		return noopSession{}
	}
	return session
}

type noopSession struct{}

func (noopSession) Close() error { return nil }

type cancelSession struct {
	cancel func()
}

func (s cancelSession) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}
