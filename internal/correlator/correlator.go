// Package correlator multiplexes request/reply exchanges over the
// single event stream. Each request is tagged with a fresh sequence
// number; the matching reply frame carries it back in seq_reply, which
// lets interleaved server events pass through untouched.
package correlator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/driftline/driftline-go/internal/wire"
	"github.com/driftline/driftline-go/pkg/types"
)

// DefaultTimeout bounds how long a correlated request waits for its
// reply when the caller's context has no earlier deadline.
const DefaultTimeout = 30 * time.Second

// Writer sends a frame over the stream. The connection supervisor is
// the only implementation outside tests.
type Writer interface {
	WriteFrame(f *wire.Frame) error
}

type result struct {
	frame *wire.Frame
	err   error
}

// Correlator tracks pending requests by sequence number. Sequence
// numbers are never reused while pending: the counter only increases
// for the lifetime of the correlator.
type Correlator struct {
	timeout time.Duration
	seq     atomic.Int64

	mu      sync.Mutex
	pending map[int64]chan result
}

// New returns a correlator. A non-positive timeout selects
// DefaultTimeout.
func New(timeout time.Duration) *Correlator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Correlator{
		timeout: timeout,
		pending: make(map[int64]chan result),
	}
}

// Send writes a request frame through w and blocks until the matching
// reply arrives, the stream is torn down (ErrConnectionClosed), the
// timeout elapses (ErrRequestTimeout), or ctx is cancelled. Concurrent
// sends are safe and resolve independently.
func (c *Correlator) Send(ctx context.Context, w Writer, action string, data any) (*wire.Frame, error) {
	seq := c.seq.Add(1)

	f, err := wire.NewRequest(seq, action, data)
	if err != nil {
		return nil, err
	}

	ch := make(chan result, 1)
	c.mu.Lock()
	c.pending[seq] = ch
	c.mu.Unlock()
	defer c.remove(seq)

	if err := w.WriteFrame(f); err != nil {
		return nil, err
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res.frame, res.err
	case <-timer.C:
		return nil, types.ErrRequestTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Resolve delivers a reply frame to its pending request. It reports
// whether the frame was claimed; unclaimed reply frames fall through to
// normal event dispatch. Each pending entry resolves at most once.
func (c *Correlator) Resolve(f *wire.Frame) bool {
	if !f.IsReply() {
		return false
	}
	c.mu.Lock()
	ch, ok := c.pending[f.SeqReply]
	if ok {
		delete(c.pending, f.SeqReply)
	}
	c.mu.Unlock()
	if !ok {
		return false
	}
	ch <- result{frame: f}
	return true
}

// FailAll resolves every pending request with err. Called on stream
// teardown so no suspended caller leaks.
func (c *Correlator) FailAll(err error) {
	c.mu.Lock()
	pending := c.pending
	c.pending = make(map[int64]chan result)
	c.mu.Unlock()

	for _, ch := range pending {
		ch <- result{err: err}
	}
}

// Pending returns the number of outstanding requests.
func (c *Correlator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *Correlator) remove(seq int64) {
	c.mu.Lock()
	delete(c.pending, seq)
	c.mu.Unlock()
}
