// ABOUTME: Bounded-concurrency fan-out of webhook deliveries to registered URLs
// ABOUTME: Deliveries are fire-and-forget; failures are logged, never retried
package webhooks

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultMaxConcurrentWebhooks bounds in-flight deliveries when the
	// environment does not override it.
	DefaultMaxConcurrentWebhooks = 40

	deliveryTimeout    = 30 * time.Second
	saturationHeadroom = 10
)

// Delivery is one webhook relay to a registered consumer URL. Signature is
// the x-hub-signature header of the inbound notification, passed through so
// consumers can verify the payload themselves.
type Delivery struct {
	URL       string
	Body      []byte
	Signature string
}

// Dispatcher drains a FIFO queue of deliveries with a fixed pool of workers.
type Dispatcher struct {
	client *http.Client
	limit  int
	logger *slog.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Delivery
	closed bool

	active int64
	wg     sync.WaitGroup
}

// NewDispatcher starts limit delivery workers. A limit below one falls back
// to DefaultMaxConcurrentWebhooks.
func NewDispatcher(limit int, logger *slog.Logger) *Dispatcher {
	if limit < 1 {
		limit = DefaultMaxConcurrentWebhooks
	}
	d := &Dispatcher{
		client: &http.Client{Timeout: deliveryTimeout},
		limit:  limit,
		logger: logger,
	}
	d.cond = sync.NewCond(&d.mu)
	for i := 0; i < limit; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Enqueue adds a delivery to the queue and returns immediately.
func (d *Dispatcher) Enqueue(delivery Delivery) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.logger.Warn("dropping webhook delivery after shutdown", "url", delivery.URL)
		return
	}
	d.queue = append(d.queue, delivery)
	d.cond.Signal()
}

// Close stops accepting deliveries, waits for queued ones to drain and for
// workers to exit.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.cond.Broadcast()
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.closed {
			d.cond.Wait()
		}
		if len(d.queue) == 0 && d.closed {
			d.mu.Unlock()
			return
		}
		delivery := d.queue[0]
		d.queue = d.queue[1:]
		d.mu.Unlock()

		active := atomic.AddInt64(&d.active, 1)
		if int(active) >= d.limit-saturationHeadroom {
			d.logger.Warn("webhook deliveries approaching concurrency limit",
				"active", active, "limit", d.limit)
		}
		if err := d.deliver(delivery); err != nil {
			d.logger.Error("webhook delivery failed", "url", delivery.URL, "error", err)
		}
		atomic.AddInt64(&d.active, -1)
	}
}

func (d *Dispatcher) deliver(delivery Delivery) error {
	req, err := http.NewRequest(http.MethodPost, delivery.URL, bytes.NewReader(delivery.Body))
	if err != nil {
		return fmt.Errorf("failed to build delivery request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Hub-Signature", delivery.Signature)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook consumer responded with status %d", resp.StatusCode)
	}
	return nil
}
