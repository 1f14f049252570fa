// Package stream owns the persistent event-stream connection: dialing,
// the in-band authentication handshake, the receive cycle, and the
// reconnect loop. The supervisor is the single owner of the socket;
// every other component reaches it only through WriteFrame.
package stream

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"github.com/driftline/driftline-go/internal/correlator"
	"github.com/driftline/driftline-go/internal/dispatch"
	"github.com/driftline/driftline-go/internal/logging"
	"github.com/driftline/driftline-go/internal/session"
	"github.com/driftline/driftline-go/internal/wire"
	"github.com/driftline/driftline-go/pkg/types"
)

// StreamPath is the fixed sub-path of the event stream endpoint.
const StreamPath = "/api/v1/stream"

// DefaultRetryInterval is the delay between reconnect attempts after a
// transient failure.
const DefaultRetryInterval = time.Second

// Config wires a supervisor to its collaborators.
type Config struct {
	// ServerURL is the http(s) base URL of the server.
	ServerURL string
	// Session supplies the credential for the handshake.
	Session *session.Store
	// Correlator claims reply frames before event dispatch.
	Correlator *correlator.Correlator
	// Dispatcher receives every unclaimed event frame.
	Dispatcher *dispatch.Dispatcher
	// RetryInterval overrides DefaultRetryInterval when positive.
	RetryInterval time.Duration
	// Dialer overrides websocket.DefaultDialer when set.
	Dialer *websocket.Dialer
}

// Supervisor drives the connection state machine and keeps the stream
// alive across transient failures.
type Supervisor struct {
	serverURL     string
	streamURL     string
	sess          *session.Store
	corr          *correlator.Correlator
	disp          *dispatch.Dispatcher
	retryInterval time.Duration
	dialer        *websocket.Dialer

	state atomic.Int32

	connMu  sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// New validates the configuration and derives the stream URL from the
// server URL (http→ws, https→wss, fixed sub-path).
func New(cfg Config) (*Supervisor, error) {
	streamURL, err := deriveStreamURL(cfg.ServerURL)
	if err != nil {
		return nil, err
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultRetryInterval
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	return &Supervisor{
		serverURL:     cfg.ServerURL,
		streamURL:     streamURL,
		sess:          cfg.Session,
		corr:          cfg.Correlator,
		disp:          cfg.Dispatcher,
		retryInterval: cfg.RetryInterval,
		dialer:        cfg.Dialer,
	}, nil
}

func deriveStreamURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	u.Path = StreamPath
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// State returns the current connection state.
func (s *Supervisor) State() State {
	return State(s.state.Load())
}

func (s *Supervisor) setState(next State) {
	prev := State(s.state.Swap(int32(next)))
	if prev != next {
		logging.Debug().
			Str("from", prev.String()).
			Str("to", next.String()).
			Msg("connection state")
	}
}

// WriteFrame serializes f onto the socket. Writes from concurrent
// senders are serialized by a write mutex.
func (s *Supervisor) WriteFrame(f *wire.Frame) error {
	s.connMu.Lock()
	conn := s.conn
	s.connMu.Unlock()
	if conn == nil {
		return types.ErrNotConnected
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return conn.WriteJSON(f)
}

// Run executes the reconnect loop until ctx is cancelled. Cancellation
// is the only exit: every other failure is diagnosed and retried after
// a constant backoff interval.
func (s *Supervisor) Run(ctx context.Context) {
	retry := backoff.WithContext(backoff.NewConstantBackOff(s.retryInterval), ctx)

	defer func() {
		s.setState(StateClosing)
		s.closeSocketQuiet()
		s.corr.FailAll(types.ErrConnectionClosed)
		s.disp.Disconnected(websocket.CloseNormalClosure, "client stopped")
		s.setState(StateDisconnected)
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		err := s.serve(ctx)

		s.closeSocketQuiet()
		s.corr.FailAll(types.ErrConnectionClosed)

		if ctx.Err() != nil {
			return
		}

		s.disp.Diag("stream interrupted, reconnecting", err)

		next := retry.NextBackOff()
		if next == backoff.Stop {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(next):
		}
	}
}

type readResult struct {
	frame *wire.Frame
	err   error
}

// serve runs one connection generation: dial, handshake, receive cycle.
// It returns the error that ended the generation.
func (s *Supervisor) serve(ctx context.Context) error {
	s.setState(StateConnecting)

	conn, _, err := s.dialer.DialContext(ctx, s.streamURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.streamURL, err)
	}
	s.swapConn(conn)
	s.setState(StateAuthenticating)

	done := make(chan struct{})
	defer close(done)

	frames := make(chan readResult)
	go readPump(conn, frames, done)

	// The handshake issues its correlated request beside the receive
	// cycle; the reply is routed back through the correlator below.
	authResult := make(chan error, 1)
	go func() { authResult <- s.authenticate(ctx) }()

	// Events the server writes behind the auth reply can be read before
	// the handshake goroutine observes the reply. They are held and
	// dispatched in arrival order on the transition to Connected.
	var held []*wire.Frame

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-authResult:
			authResult = nil
			if err != nil {
				return fmt.Errorf("handshake: %w", err)
			}
			s.setState(StateConnected)
			s.disp.Connected(s.serverURL)
			for _, f := range held {
				s.disp.Dispatch(f)
			}
			held = nil
		case r := <-frames:
			if r.err != nil {
				return s.readError(ctx, r.err)
			}
			f := r.frame
			if f.IsReply() && s.corr.Resolve(f) {
				continue
			}
			if s.State() != StateConnected {
				logging.Debug().
					Str("event", f.Event).
					Msg("holding event until handshake completes")
				held = append(held, f)
				continue
			}
			s.disp.Dispatch(f)
		}
	}
}

// readPump is the single reader of the socket. It forwards frames to
// the supervisor's select loop and exits on the first read error or
// when the generation ends.
func readPump(conn *websocket.Conn, out chan<- readResult, done <-chan struct{}) {
	for {
		var f wire.Frame
		err := conn.ReadJSON(&f)
		r := readResult{err: err}
		if err == nil {
			r = readResult{frame: &f}
		}
		select {
		case out <- r:
		case <-done:
			return
		}
		if err != nil {
			return
		}
	}
}

// readError classifies the error that ended the receive cycle. A close
// frame raises a disconnected notification carrying its code and
// reason; cancellation passes through untouched.
func (s *Supervisor) readError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if ce, ok := err.(*websocket.CloseError); ok {
		s.disp.Disconnected(ce.Code, ce.Text)
		return fmt.Errorf("server closed stream: %w", err)
	}
	return fmt.Errorf("read frame: %w", err)
}

// authenticate performs the in-band login exchange. It fails without a
// network attempt when no credential is present.
func (s *Supervisor) authenticate(ctx context.Context) error {
	token, ok := s.sess.Credential()
	if !ok {
		return types.ErrNotAuthenticated
	}

	reply, err := s.corr.Send(ctx, s, wire.ActionAuthChallenge, wire.AuthChallenge{Token: token})
	if err != nil {
		return fmt.Errorf("authentication challenge: %w", err)
	}
	if !reply.OK() {
		if reply.Error != nil {
			return fmt.Errorf("%w: %s", types.ErrAuthFailed, reply.Error.Message)
		}
		return fmt.Errorf("%w: server status %q", types.ErrAuthFailed, reply.Status)
	}
	return nil
}

// swapConn installs a new socket, closing any previous one first.
func (s *Supervisor) swapConn(conn *websocket.Conn) {
	s.connMu.Lock()
	prev := s.conn
	s.conn = conn
	s.connMu.Unlock()
	if prev != nil {
		if err := prev.Close(); err != nil {
			logging.Debug().Err(err).Msg("closing previous socket")
		}
	}
}

// CloseSocket detaches and closes the current socket, sending a normal
// close frame first. Best effort: callers treat any error as advisory.
func (s *Supervisor) CloseSocket() error {
	s.connMu.Lock()
	conn := s.conn
	s.conn = nil
	s.connMu.Unlock()
	if conn == nil {
		return nil
	}

	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		deadline,
	)
	return conn.Close()
}

func (s *Supervisor) closeSocketQuiet() {
	if err := s.CloseSocket(); err != nil {
		logging.Debug().Err(err).Msg("closing socket")
	}
}
