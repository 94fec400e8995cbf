package review

import (
	"context"
	"errors"
	"sync"

	"writewme/internal/book"
)

// ErrPending is returned when a second review is requested while one is
// already suspended. At most one review may be pending gate-wide.
var ErrPending = errors.New("a review is already pending")

// Trigger thresholds for the human-in-the-loop gate.
const (
	absDeltaThreshold   = 120
	ratioThreshold      = 0.28
	emptyAfterThreshold = 90
)

// Request is a suspended guarded mutation awaiting explicit human approval.
type Request struct {
	Title      string
	Subtitle   string
	BeforeText string
	AfterText  string

	respond chan bool
	once    sync.Once
}

// Resolve submits the human decision. Exactly one resolution is accepted;
// later calls are no-ops.
func (r *Request) Resolve(approved bool) {
	r.once.Do(func() {
		r.respond <- approved
		close(r.respond)
	})
}

// Gate suspends the pipeline on large or suspicious automatic edits until a
// human approves them. Requests are emitted on a channel consumed by the
// external review surface.
type Gate struct {
	enabled  bool
	requests chan *Request

	mu      sync.Mutex
	pending bool
}

func NewGate(enabled bool) *Gate {
	return &Gate{
		enabled:  enabled,
		requests: make(chan *Request, 1),
	}
}

func (g *Gate) Enabled() bool { return g.enabled }

// Requests is the stream of suspended reviews for the review surface.
func (g *Gate) Requests() <-chan *Request { return g.requests }

// ShouldReview computes the diff-size trigger: a large absolute word delta,
// a large delta relative to the original length, or substantial text
// appearing in a previously empty chapter.
func ShouldReview(beforeText, afterText string) bool {
	before := book.CountWords(beforeText)
	after := book.CountWords(afterText)

	delta := after - before
	if delta < 0 {
		delta = -delta
	}
	if delta >= absDeltaThreshold {
		return true
	}

	base := before
	if base < 1 {
		base = 1
	}
	if float64(delta)/float64(base) >= ratioThreshold {
		return true
	}

	return before == 0 && after >= emptyAfterThreshold
}

// RequiresApproval reports whether this mutation must suspend at the gate.
func (g *Gate) RequiresApproval(beforeText, afterText string) bool {
	return g.enabled && ShouldReview(beforeText, afterText)
}

// RequestReview suspends until a human resolves the request or the context
// is cancelled. Rejection is not an error: it returns (false, nil).
func (g *Gate) RequestReview(ctx context.Context, req *Request) (bool, error) {
	g.mu.Lock()
	if g.pending {
		g.mu.Unlock()
		return false, ErrPending
	}
	g.pending = true
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.pending = false
		g.mu.Unlock()
	}()

	req.respond = make(chan bool, 1)

	select {
	case g.requests <- req:
	case <-ctx.Done():
		return false, ctx.Err()
	}

	select {
	case approved := <-req.respond:
		return approved, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
