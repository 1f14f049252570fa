package types

import "errors"

// Sentinel errors surfaced by the client. Wrapped errors can be tested
// with errors.Is.
var (
	// ErrNotAuthenticated means no credential is present in the
	// session; privileged operations fail with it before any network
	// attempt.
	ErrNotAuthenticated = errors.New("not authenticated: no credential in session")

	// ErrAuthFailed means the server rejected the stream handshake.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrConnectionClosed resolves every correlated request still
	// pending when the stream is torn down.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrRequestTimeout means a correlated request saw no matching
	// response within its window.
	ErrRequestTimeout = errors.New("request timed out")

	// ErrNotConnected means a frame write was attempted with no open
	// socket.
	ErrNotConnected = errors.New("not connected")

	// ErrClientDisposed means the client has been disposed and cannot
	// be started again.
	ErrClientDisposed = errors.New("client disposed")
)
