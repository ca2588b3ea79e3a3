package tcpserver

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyRunning = errors.New("tcpserver: server already running")
	ErrAlreadyStarted = errors.New("tcpserver: handler must be set before start")
	ErrServerStopped  = errors.New("tcpserver: server stopped")
)

// BindError is returned by Start when the listening socket cannot be bound
// (address in use, permission denied, unresolvable host).
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("tcpserver: bind %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// AcceptError describes an accept failure that stopped the listener.
type AcceptError struct {
	Addr string
	Err  error
}

func (e *AcceptError) Error() string {
	return fmt.Sprintf("tcpserver: accept on %s: %v", e.Addr, e.Err)
}

func (e *AcceptError) Unwrap() error {
	return e.Err
}
