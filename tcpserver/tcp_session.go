package tcpserver

import (
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"syscall"
	"unicode/utf8"

	"github.com/cyberinferno/sortnet/logger"
	"github.com/cyberinferno/sortnet/metrics"
)

// MaxFrameSize is the most bytes a worker reads per request. Anything a
// client sends beyond it in one burst arrives as the next request.
const MaxFrameSize = 1024

// Connection is one accepted client socket and the worker loop that serves
// it. The socket is closed exactly once, by whichever path ends the worker.
type Connection struct {
	id     uint32
	conn   net.Conn
	server *Server
	log    logger.Logger

	closeOnce sync.Once
	closeErr  error
	finished  sync.Once
}

func newConnection(id uint32, conn net.Conn, s *Server) *Connection {
	return &Connection{
		id:     id,
		conn:   conn,
		server: s,
		log:    s.log.With(logger.F("conn_id", id), logger.F("peer", conn.RemoteAddr().String())),
	}
}

// ID returns the identifier assigned by the server at accept time.
func (c *Connection) ID() uint32 {
	return c.id
}

// Handle runs the request loop: read up to MaxFrameSize bytes, decode and
// trim them, call the server's handler and write the response followed by a
// newline. It returns on peer close, an empty frame, invalid UTF-8, an I/O
// error, or when it sees the server has stopped at the top of an iteration.
func (c *Connection) Handle() {
	c.log.Info("connection accepted")

	reason := metrics.ExitStopped
	defer func() {
		c.finish(reason)
	}()

	h := c.server.handler
	buf := make([]byte, MaxFrameSize)
	for c.server.running.Load() {
		n, err := c.conn.Read(buf)
		if err != nil {
			reason = c.ioFailed("read", err)
			return
		}
		if n == 0 {
			reason = metrics.ExitPeerClosed
			return
		}

		frame := buf[:n]
		if !utf8.Valid(frame) {
			c.log.Warn("request is not valid utf-8", logger.F("bytes", n))
			reason = metrics.ExitDecodeError
			return
		}

		request := strings.TrimSpace(string(frame))
		if request == "" {
			c.log.Debug("empty request, closing connection")
			reason = metrics.ExitEmptyFrame
			return
		}

		c.log.Debug("request received", logger.F("request", request))
		response := h.Process(request)

		if _, err := c.conn.Write([]byte(response + "\n")); err != nil {
			reason = c.ioFailed("write", err)
			return
		}
	}
}

// Close closes the underlying socket. Only the first call has any effect.
//
// Returns:
//   - The error from the first close, if any
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func (c *Connection) finish(reason string) {
	c.finished.Do(func() {
		if err := c.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			c.log.Debug("error closing connection", logger.Err(err))
		}
		c.server.conns.Delete(c.id)
		metrics.ConnectionClosed(reason)
		c.log.Info("connection closed", logger.F("reason", reason))
	})
}

func (c *Connection) ioFailed(op string, err error) string {
	switch {
	case errors.Is(err, io.EOF):
		c.log.Debug("peer closed connection")
		return metrics.ExitPeerClosed
	case isPeerReset(err):
		c.log.Warn("client disconnected unexpectedly", logger.F("op", op), logger.Err(err))
		return metrics.ExitPeerReset
	default:
		c.log.Error("connection error", logger.F("op", op), logger.Err(err))
		return metrics.ExitIOError
	}
}

func isPeerReset(err error) bool {
	return errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNABORTED)
}
