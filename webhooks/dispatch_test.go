// ABOUTME: Tests for the bounded delivery dispatcher
// ABOUTME: Covers payload relay, drain-on-close, and failure isolation
package webhooks

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversBodyAndSignature(t *testing.T) {
	type received struct {
		body        string
		signature   string
		contentType string
	}
	got := make(chan received, 1)
	consumer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- received{
			body:        string(body),
			signature:   r.Header.Get("X-Hub-Signature"),
			contentType: r.Header.Get("Content-Type"),
		}
	}))
	defer consumer.Close()

	d := NewDispatcher(2, testLogger())
	defer d.Close()

	d.Enqueue(Delivery{URL: consumer.URL, Body: []byte(`{"topic":"ping"}`), Signature: "sha1=abc"})

	select {
	case delivery := <-got:
		assert.Equal(t, `{"topic":"ping"}`, delivery.body)
		assert.Equal(t, "sha1=abc", delivery.signature)
		assert.Equal(t, "application/json", delivery.contentType)
	case <-time.After(2 * time.Second):
		t.Fatal("delivery never arrived")
	}
}

func TestDispatcherCloseDrainsQueue(t *testing.T) {
	var mu sync.Mutex
	seen := 0
	consumer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen++
		mu.Unlock()
	}))
	defer consumer.Close()

	d := NewDispatcher(2, testLogger())
	for i := 0; i < 10; i++ {
		d.Enqueue(Delivery{URL: consumer.URL, Body: []byte("{}")})
	}
	d.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 10, seen)
}

func TestDispatcherDropsAfterClose(t *testing.T) {
	consumer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no delivery expected after close")
	}))
	defer consumer.Close()

	d := NewDispatcher(1, testLogger())
	d.Close()
	d.Enqueue(Delivery{URL: consumer.URL, Body: []byte("{}")})
	time.Sleep(50 * time.Millisecond)
}

func TestDispatcherSurvivesFailures(t *testing.T) {
	got := make(chan struct{}, 1)
	consumer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- struct{}{}
	}))
	defer consumer.Close()

	d := NewDispatcher(1, testLogger())
	defer d.Close()

	// An unreachable consumer and a rejecting consumer are logged, not fatal.
	d.Enqueue(Delivery{URL: "http://127.0.0.1:1/never", Body: []byte("{}")})
	d.Enqueue(Delivery{URL: consumer.URL, Body: []byte("{}")})

	select {
	case <-got:
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher stopped after a failed delivery")
	}
}
