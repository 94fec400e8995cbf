package review

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = "palabra"
	}
	return strings.Join(w, " ")
}

func TestShouldReview_AbsoluteDelta(t *testing.T) {
	assert.True(t, ShouldReview(words(1000), words(1120)))
	assert.False(t, ShouldReview(words(1000), words(1100)))
}

func TestShouldReview_RatioDelta(t *testing.T) {
	// 100 -> 130 words is a 0.30 ratio, above the 0.28 trigger.
	assert.True(t, ShouldReview(words(100), words(130)))
	// 100 -> 120 is 0.20, below both triggers.
	assert.False(t, ShouldReview(words(100), words(120)))
}

func TestShouldReview_EmptyBeforeLargeAfter(t *testing.T) {
	// Spec scenario: before empty, after 95 words.
	assert.True(t, ShouldReview("", words(95)))
	assert.False(t, ShouldReview("", ""))
}

func TestGate_ApproveFlow(t *testing.T) {
	gate := NewGate(true)

	go func() {
		req := <-gate.Requests()
		req.Resolve(true)
	}()

	approved, err := gate.RequestReview(context.Background(), &Request{Title: "Reescritura"})
	require.NoError(t, err)
	assert.True(t, approved)
}

func TestGate_RejectIsNotAnError(t *testing.T) {
	gate := NewGate(true)

	go func() {
		req := <-gate.Requests()
		req.Resolve(false)
	}()

	approved, err := gate.RequestReview(context.Background(), &Request{Title: "Reescritura"})
	require.NoError(t, err)
	assert.False(t, approved)
}

func TestGate_SecondPendingRequestFails(t *testing.T) {
	gate := NewGate(true)

	started := make(chan struct{})
	go func() {
		close(started)
		_, _ = gate.RequestReview(context.Background(), &Request{Title: "primera"})
	}()

	<-started
	// Wait until the first request is actually suspended.
	require.Eventually(t, func() bool {
		gate.mu.Lock()
		defer gate.mu.Unlock()
		return gate.pending
	}, time.Second, time.Millisecond)

	_, err := gate.RequestReview(context.Background(), &Request{Title: "segunda"})
	assert.ErrorIs(t, err, ErrPending)

	req := <-gate.Requests()
	req.Resolve(true)
}

func TestGate_ContextCancellationUnblocks(t *testing.T) {
	gate := NewGate(true)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := gate.RequestReview(ctx, &Request{Title: "colgada"})
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("RequestReview did not honor context cancellation")
	}
}

func TestRequest_ResolveIsSingleShot(t *testing.T) {
	gate := NewGate(true)

	go func() {
		req := <-gate.Requests()
		req.Resolve(true)
		req.Resolve(false) // ignored
	}()

	approved, err := gate.RequestReview(context.Background(), &Request{Title: "unica"})
	require.NoError(t, err)
	assert.True(t, approved)
}

func TestGate_DisabledNeverRequiresApproval(t *testing.T) {
	gate := NewGate(false)
	assert.False(t, gate.RequiresApproval("", words(500)))
}
