// Package tcpserver implements the sorting service's line-less TCP transport:
// one accept loop, one worker per connection, and a single Handler that
// turns each received frame into a response.
package tcpserver

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/cyberinferno/sortnet/handler"
	"github.com/cyberinferno/sortnet/idgenerator"
	"github.com/cyberinferno/sortnet/logger"
	"github.com/cyberinferno/sortnet/metrics"
	"github.com/cyberinferno/sortnet/safemap"
)

// DefaultHost is the bind host used when Config.Host is empty.
const DefaultHost = "localhost"

// State is the lifecycle position of a Server.
type State int32

const (
	StateInit State = iota
	StateListening
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateListening:
		return "listening"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Config holds the settings for a Server. An empty Host binds DefaultHost
// and Port 0 binds a free port chosen by the kernel (see Addr). A nil Logger
// is a no-op logger and a nil Admission is unbounded. The handler starts as
// the echo handler.
type Config struct {
	Name      string
	Host      string
	Port      int
	Logger    logger.Logger
	Admission Admission
}

// Server accepts TCP connections and hands each one to its own worker. Stop
// closes only the listening socket; connections already accepted keep being
// served until their workers observe the stopped flag or the peer leaves.
type Server struct {
	name      string
	addr      string
	log       logger.Logger
	admission Admission

	mu       sync.Mutex
	state    State
	handler  handler.Handler
	listener net.Listener

	running atomic.Bool
	conns   *safemap.SafeMap[uint32, *Connection]
	ids     *idgenerator.IdGenerator

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Server in the init state. Nothing is bound until Start.
//
// Parameters:
//   - cfg: Listener address, logger and admission policy
//
// Returns:
//   - A new Server using the echo handler until SetHandler is called
func New(cfg Config) *Server {
	if cfg.Name == "" {
		cfg.Name = "sortnet"
	}
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if cfg.Admission == nil {
		cfg.Admission = Unbounded()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		name:      cfg.Name,
		addr:      net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		log:       cfg.Logger,
		admission: cfg.Admission,
		handler:   handler.Echo(),
		conns:     safemap.NewSafeMap[uint32, *Connection](),
		ids:       idgenerator.NewIdGenerator(0),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// SetHandler replaces the request handler. It must be called before Start.
//
// Parameters:
//   - h: The handler every worker will call with each trimmed frame
//
// Returns:
//   - ErrAlreadyStarted if the server has left the init state
func (s *Server) SetHandler(h handler.Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInit {
		return ErrAlreadyStarted
	}

	s.handler = h
	return nil
}

// Start binds the listening socket with SO_REUSEADDR and launches the accept
// loop in a goroutine. It returns once the socket is listening.
//
// Returns:
//   - A *BindError if the address cannot be bound, ErrAlreadyRunning if the
//     server is listening, or ErrServerStopped if it was stopped before
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateListening:
		s.log.Error("server already running")
		return ErrAlreadyRunning
	case StateStopped:
		return ErrServerStopped
	}

	lc := listenConfig()
	ln, err := lc.Listen(s.ctx, "tcp", s.addr)
	if err != nil {
		s.log.Error("server failed to start", logger.F("addr", s.addr), logger.Err(err))
		return &BindError{Addr: s.addr, Err: err}
	}

	s.listener = ln
	s.state = StateListening
	s.running.Store(true)

	s.log.Info(fmt.Sprintf("%s server started", s.name), logger.F("addr", ln.Addr().String()))
	go s.acceptLoop(ln)

	return nil
}

// Stop clears the running flag and closes the listening socket. Accepted
// connections are left open. Calling Stop more than once is a no-op.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateListening {
		s.log.Debug(fmt.Sprintf("%s server not running", s.name))
		return
	}

	s.shutdownLocked()
	s.log.Info(fmt.Sprintf("%s server stopped", s.name))
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// State returns the current lifecycle state.
func (s *Server) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done returns a channel closed when the accept loop has exited.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// ActiveConnections returns the number of connections still owned by a
// worker.
func (s *Server) ActiveConnections() int {
	return s.conns.Len()
}

// Running reports the flag workers check before each read.
func (s *Server) Running() bool {
	return s.running.Load()
}

func (s *Server) shutdownLocked() {
	s.running.Store(false)
	s.state = StateStopped
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer close(s.done)

	for s.running.Load() {
		conn, err := ln.Accept()
		if err != nil {
			if !s.running.Load() {
				return
			}

			s.acceptFailed(err)
			return
		}

		id := s.ids.Id()
		c := newConnection(id, conn, s)
		s.conns.Store(id, c)
		metrics.ConnectionOpened()

		if err := s.admission.Admit(s.ctx, c.Handle); err != nil {
			s.log.Warn("connection not admitted", logger.F("conn_id", id), logger.Err(err))
			c.finish(metrics.ExitStopped)
		}
	}
}

func (s *Server) acceptFailed(err error) {
	aerr := &AcceptError{Addr: s.addr, Err: err}
	metrics.AcceptFailed()
	s.log.Error(fmt.Sprintf("%s server accept error", s.name), logger.Err(aerr))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateListening {
		s.shutdownLocked()
	}
}
