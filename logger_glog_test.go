package flowstate

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-logger/glog"
)

func TestGlogLoggerCarriesStructuredFields(t *testing.T) {
	buf := &bytes.Buffer{}
	base := glog.NewLogger(
		glog.WithWriter(buf),
		glog.WithLoggerTypeJSON(),
		glog.WithLevel("debug"),
	)

	m, err := NewMachine(editorSpecs(),
		WithName[docData]("editor"),
		WithLogger[docData](NewGlogLogger(base)),
	)
	if err != nil {
		t.Fatalf("new machine: %v", err)
	}
	actor := m.Start()
	defer actor.Stop()

	if _, err := actor.Send(context.Background(), "GOTO_Edit", nil); err != nil {
		t.Fatalf("send: %v", err)
	}

	logged := buf.String()
	if strings.TrimSpace(logged) == "" {
		t.Fatalf("expected go-logger output")
	}
	if !strings.Contains(logged, "machine") || !strings.Contains(logged, "event") {
		t.Fatalf("expected structured correlation fields, got %q", logged)
	}
}

func TestNewGlogLoggerNilFallsBack(t *testing.T) {
	logger := NewGlogLogger(nil)
	if _, ok := logger.(*FmtLogger); !ok {
		t.Fatalf("expected FmtLogger fallback, got %T", logger)
	}
}
