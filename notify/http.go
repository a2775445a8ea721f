package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/noriah/whisker/logging"
	"github.com/pkg/errors"
)

// HTTPConfig configures the HTTP property notifier.
type HTTPConfig struct {
	BaseURL string // e.g. https://api.evrythng.com
	ThingID string
	APIKey  string
	Timeout time.Duration
	// Queue is how many updates may wait for delivery before new ones are
	// dropped.
	Queue int
}

// URL returns the property endpoint.
func (c HTTPConfig) URL() string {
	return fmt.Sprintf("%s/thngs/%s/properties", strings.TrimRight(c.BaseURL, "/"), c.ThingID)
}

// HTTP PUTs property updates from a background worker, so the frame loop
// never waits on the network.
type HTTP struct {
	cfg    HTTPConfig
	client *http.Client
	log    logging.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan []PropertyValue
	wg     sync.WaitGroup
}

// NewHTTP starts the delivery worker. It stops when ctx is done or Close is
// called.
func NewHTTP(ctx context.Context, cfg HTTPConfig, l logging.Logger) (*HTTP, error) {
	if cfg.BaseURL == "" || cfg.ThingID == "" {
		return nil, errors.New("http notifier needs a base url and a thing id")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	if cfg.Queue <= 0 {
		cfg.Queue = 16
	}

	h := &HTTP{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    logging.OrGlobal(l).WithFields(logging.Fields{"component": "http-notify"}),
		queue:  make(chan []PropertyValue, cfg.Queue),
	}

	h.wg.Add(1)
	go h.run(ctx)

	return h, nil
}

func (h *HTTP) ActivityChanged(active bool) {
	h.enqueue(PropertyValue{Key: PropertyInUse, Value: active})
}

func (h *HTTP) ActivityDuration(seconds int) {
	h.enqueue(PropertyValue{Key: PropertyLastUse, Value: seconds})
}

func (h *HTTP) enqueue(v PropertyValue) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}

	select {
	case h.queue <- []PropertyValue{v}:
	default:
		h.log.Warn("property queue full, dropping update", logging.Fields{"key": v.Key})
	}
}

func (h *HTTP) run(ctx context.Context) {
	defer h.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case body, ok := <-h.queue:
			if !ok {
				return
			}
			if err := h.put(ctx, body); err != nil {
				h.log.Error(err, "property update failed", logging.Fields{"key": body[0].Key})
			}
		}
	}
}

func (h *HTTP) put(ctx context.Context, body []PropertyValue) error {
	data, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "failed to encode properties")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, h.cfg.URL(), bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}

	req.Header.Set("Content-Type", "application/json")
	if h.cfg.APIKey != "" {
		req.Header.Set("Authorization", h.cfg.APIKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return errors.Errorf("unexpected status %s", resp.Status)
	}

	h.log.Debug("property updated", logging.Fields{
		"key":    body[0].Key,
		"status": resp.StatusCode,
	})

	return nil
}

// Close stops accepting updates and waits for queued ones to be delivered.
func (h *HTTP) Close() error {
	h.mu.Lock()
	if !h.closed {
		h.closed = true
		close(h.queue)
	}
	h.mu.Unlock()

	h.wg.Wait()
	return nil
}
