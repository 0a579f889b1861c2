package observe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	flowstate "github.com/goliatone/go-flowstate"
)

// RemoteObserver mirrors snapshots to an external inspector endpoint as JSON
// POSTs. The remote protocol is opaque to the machine: delivery failures are
// logged and never surface to the actor.
type RemoteObserver[D any] struct {
	url    string
	client *http.Client
	logger flowstate.Logger
}

// RemoteOption customizes a RemoteObserver.
type RemoteOption[D any] func(*RemoteObserver[D])

// WithHTTPClient overrides the default client.
func WithHTTPClient[D any](client *http.Client) RemoteOption[D] {
	return func(o *RemoteObserver[D]) {
		if client != nil {
			o.client = client
		}
	}
}

// WithRemoteLogger sets the observer logger.
func WithRemoteLogger[D any](logger flowstate.Logger) RemoteOption[D] {
	return func(o *RemoteObserver[D]) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewRemoteObserver builds an observer posting to url.
func NewRemoteObserver[D any](url string, opts ...RemoteOption[D]) *RemoteObserver[D] {
	o := &RemoteObserver[D]{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
		logger: flowstate.NewFmtLogger(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// Attach posts the current snapshot, then every subsequent change. It fails
// only on missing configuration, never on delivery.
func (o *RemoteObserver[D]) Attach(src Source[D]) (Session, error) {
	if o.url == "" {
		return nil, fmt.Errorf("remote observer requires an inspector url")
	}
	o.post(src.Snapshot())
	cancel := src.Subscribe(func(snap flowstate.Snapshot[D]) {
		o.post(snap)
	})
	return cancelSession{cancel: cancel}, nil
}

func (o *RemoteObserver[D]) post(snap flowstate.Snapshot[D]) {
	body, err := json.Marshal(snap)
	if err != nil {
		o.logger.Warn("inspector snapshot encode failed: %v", err)
		return
	}
	resp, err := o.client.Post(o.url, "application/json", bytes.NewReader(body))
	if err != nil {
		o.logger.Warn("inspector post failed: %v", err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		o.logger.Warn("inspector rejected snapshot: status=%d", resp.StatusCode)
	}
}
