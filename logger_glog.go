package flowstate

import (
	"context"

	"github.com/goliatone/go-logger/glog"
)

// glogLogger adapts a go-logger instance to the local Logger contract.
type glogLogger struct {
	base glog.Logger
}

// NewGlogLogger wraps a go-logger logger so hosts can plug in their
// structured logging stack. A nil base falls back to FmtLogger.
func NewGlogLogger(base glog.Logger) Logger {
	if base == nil {
		return NewFmtLogger(nil)
	}
	return glogLogger{base: base}
}

func (l glogLogger) Debug(msg string, args ...any) { l.base.Debug(msg, args...) }
func (l glogLogger) Info(msg string, args ...any)  { l.base.Info(msg, args...) }
func (l glogLogger) Warn(msg string, args ...any)  { l.base.Warn(msg, args...) }
func (l glogLogger) Error(msg string, args ...any) { l.base.Error(msg, args...) }

func (l glogLogger) WithContext(ctx context.Context) Logger {
	return glogLogger{base: l.base.WithContext(ctx)}
}

func (l glogLogger) WithFields(fields map[string]any) Logger {
	if fl, ok := l.base.(glog.FieldsLogger); ok {
		return glogLogger{base: fl.WithFields(fields)}
	}
	return l
}
