package testutil

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lpgledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/require"
)

// ErrInjected is returned by a RecordingHandler told to fail
var ErrInjected = errors.New("injected handler failure")

// RecordingHandler is a shared.EventHandler that keeps what it receives
type RecordingHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
	failNext   int
}

// NewRecordingHandler subscribes to eventTypes, or to everything when none are given
func NewRecordingHandler(eventTypes ...string) *RecordingHandler {
	return &RecordingHandler{eventTypes: eventTypes}
}

func (h *RecordingHandler) EventTypes() []string {
	return h.eventTypes
}

// Handle records the event. A pending injected failure is consumed first and
// the event is not recorded.
func (h *RecordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failNext > 0 {
		h.failNext--
		return ErrInjected
	}
	h.handled = append(h.handled, event)
	return nil
}

// FailNext makes the next n deliveries fail
func (h *RecordingHandler) FailNext(n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failNext = n
}

// Events returns a copy of the recorded events
func (h *RecordingHandler) Events() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]shared.DomainEvent, len(h.handled))
	copy(out, h.handled)
	return out
}

// OfType returns the recorded events of one type
func (h *RecordingHandler) OfType(eventType string) []shared.DomainEvent {
	var out []shared.DomainEvent
	for _, e := range h.Events() {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// Count is the number of recorded events
func (h *RecordingHandler) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

// WaitForEvents fails t unless h records at least n events within timeout
func WaitForEvents(t *testing.T, h *RecordingHandler, n int, timeout time.Duration) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Count() >= n }, timeout, 10*time.Millisecond,
		"expected %d events, got %d", n, h.Count())
}
