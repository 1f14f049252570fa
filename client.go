// Package driftline is a Go client for the Driftline chat platform. It
// pairs the request/response HTTP API with a persistent event stream:
// a background task owns the stream socket, authenticates it in-band,
// keeps it alive across transient failures, and fans inbound events
// out to subscribers.
package driftline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/driftline/driftline-go/internal/correlator"
	"github.com/driftline/driftline-go/internal/dispatch"
	"github.com/driftline/driftline-go/internal/logging"
	"github.com/driftline/driftline-go/internal/rest"
	"github.com/driftline/driftline-go/internal/session"
	"github.com/driftline/driftline-go/internal/stream"
	"github.com/driftline/driftline-go/pkg/types"
)

// Sentinel errors re-exported for errors.Is checks.
var (
	ErrNotAuthenticated = types.ErrNotAuthenticated
	ErrAuthFailed       = types.ErrAuthFailed
	ErrConnectionClosed = types.ErrConnectionClosed
	ErrRequestTimeout   = types.ErrRequestTimeout
	ErrNotConnected     = types.ErrNotConnected
	ErrClientDisposed   = types.ErrClientDisposed
)

// Options configures a Client.
type Options struct {
	// ServerURL is the http(s) base URL of the server. Required.
	ServerURL string
	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
	// RequestTimeout bounds correlated stream requests. Zero selects
	// the default (30s).
	RequestTimeout time.Duration
	// ReconnectInterval is the delay between reconnect attempts. Zero
	// selects the default (1s).
	ReconnectInterval time.Duration
}

// Client is a connection to one Driftline server on behalf of one
// identity. Create with New, authenticate with one of the login
// methods, then Start the event stream. A Client must not be copied.
type Client struct {
	opts Options
	sess *session.Store
	rest *rest.Client
	bus  *dispatch.Bus
	corr *correlator.Correlator
	sup  *stream.Supervisor

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	disposed bool
}

// New builds a client. No network traffic happens until a login method
// or Start is called.
func New(opts Options) (*Client, error) {
	if opts.ServerURL == "" {
		return nil, errors.New("driftline: ServerURL is required")
	}

	sess := session.New()
	restClient, err := rest.New(opts.ServerURL, sess, opts.HTTPClient)
	if err != nil {
		return nil, err
	}

	bus := dispatch.NewBus()
	corr := correlator.New(opts.RequestTimeout)
	sup, err := stream.New(stream.Config{
		ServerURL:     opts.ServerURL,
		Session:       sess,
		Correlator:    corr,
		Dispatcher:    dispatch.NewDispatcher(bus, sess.UserID),
		RetryInterval: opts.ReconnectInterval,
	})
	if err != nil {
		bus.Close()
		return nil, err
	}

	return &Client{
		opts: opts,
		sess: sess,
		rest: restClient,
		bus:  bus,
		corr: corr,
		sup:  sup,
	}, nil
}

// Start launches the background task that owns the stream socket. It
// requires a credential and fails with ErrClientDisposed after
// Dispose. Any previous generation of the loop is fully stopped first,
// so two loops never own a socket concurrently. The loop's lifetime is
// bounded by both ctx and Stop.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return ErrClientDisposed
	}
	if !c.sess.Authenticated() {
		return ErrNotAuthenticated
	}

	c.stopLocked()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done

	go func() {
		defer close(done)
		c.sup.Run(runCtx)
	}()

	logging.Info().Str("server_url", c.opts.ServerURL).Msg("event stream started")
	return nil
}

// Stop cancels the background task, closes the socket (best effort)
// and waits for the task to finish. Once Stop returns, no further
// subscriber callbacks fire from that generation of the loop. Calling
// Stop when nothing is running is a no-op. Stop must not be called
// from inside a subscriber callback.
func (c *Client) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	return nil
}

// stopLocked quiesces the current loop generation. Caller holds c.mu.
func (c *Client) stopLocked() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	if err := c.sup.CloseSocket(); err != nil {
		logging.Debug().Err(err).Msg("closing socket during stop")
	}
	<-c.done
	c.cancel = nil
	c.done = nil
}

// Dispose stops the client and releases the event bus. The client
// cannot be started again afterwards.
func (c *Client) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	c.stopLocked()
	c.disposed = true
	if err := c.bus.Close(); err != nil {
		logging.Debug().Err(err).Msg("closing event bus")
	}
}

// ConnectionState reports the stream state machine position:
// disconnected, connecting, authenticating, connected or closing.
func (c *Client) ConnectionState() string {
	return c.sup.State().String()
}

// StreamRequest issues a correlated request over the event stream and
// returns the reply's data body. The stream must be connected.
func (c *Client) StreamRequest(ctx context.Context, action string, data any) (json.RawMessage, error) {
	reply, err := c.corr.Send(ctx, c.sup, action, data)
	if err != nil {
		return nil, err
	}
	if !reply.OK() {
		if reply.Error != nil {
			return nil, errors.New(reply.Error.Message)
		}
		return nil, errors.New("stream request failed with status " + reply.Status)
	}
	return reply.Data, nil
}

// LoginWithPassword authenticates with a login id and password,
// populating the session credential and identity.
func (c *Client) LoginWithPassword(ctx context.Context, loginID, password string) (types.User, error) {
	return c.rest.LoginWithPassword(ctx, loginID, password)
}

// LoginWithToken authenticates with a pre-issued token.
func (c *Client) LoginWithToken(ctx context.Context, token string) (types.User, error) {
	return c.rest.LoginWithToken(ctx, token)
}

// Logout invalidates the server-side session, stops the event stream
// and clears the local credential.
func (c *Client) Logout(ctx context.Context) error {
	var logoutErr error
	if c.sess.Authenticated() {
		logoutErr = c.rest.Logout(ctx)
	}
	if err := c.Stop(); err != nil {
		return err
	}
	c.sess.Clear()
	return logoutErr
}

// Me returns the identity the session resolved to, if any.
func (c *Client) Me() (userID, username string) {
	return c.sess.UserID(), c.sess.Username()
}

// SessionToken returns the current credential, or "" when logged out.
// Callers persisting it are responsible for storing it securely.
func (c *Client) SessionToken() string {
	token, _ := c.sess.Credential()
	return token
}
