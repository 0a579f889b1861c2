package observe

import (
	flowstate "github.com/goliatone/go-flowstate"
)

// LogObserver writes every observed snapshot through the configured logger.
type LogObserver[D any] struct {
	logger flowstate.Logger
}

// NewLogObserver builds a log-backed observer. A nil logger falls back to
// the module default.
func NewLogObserver[D any](logger flowstate.Logger) *LogObserver[D] {
	if logger == nil {
		logger = flowstate.NewFmtLogger(nil)
	}
	return &LogObserver[D]{logger: logger}
}

// Attach logs the current snapshot and every subsequent change.
func (o *LogObserver[D]) Attach(src Source[D]) (Session, error) {
	o.logSnapshot(src.Snapshot())
	cancel := src.Subscribe(func(snap flowstate.Snapshot[D]) {
		o.logSnapshot(snap)
	})
	return cancelSession{cancel: cancel}, nil
}

func (o *LogObserver[D]) logSnapshot(snap flowstate.Snapshot[D]) {
	o.logger.Info("observed state=%s terminal=%t data=%+v", snap.State, snap.Terminal, snap.Data)
}
