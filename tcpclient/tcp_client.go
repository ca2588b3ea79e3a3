// Package tcpclient provides a stateless client for the sorting service.
// Every call dials its own connection, sends a single request, reads a
// single response and closes the socket before returning.
package tcpclient

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/cyberinferno/sortnet/logger"
)

const (
	DefaultHost           = "localhost"
	DefaultPort           = 8080
	DefaultTimeout        = 5 * time.Second
	DefaultProbeTimeout   = 2 * time.Second
	DefaultReadBufferSize = 1024
)

var (
	ErrConnectionRefused = errors.New("connection refused")
	ErrTimeout           = errors.New("connection timeout")
	ErrInvalidResponse   = errors.New("response is not valid utf-8")
)

// Config holds configuration for a Client.
type Config struct {
	// Host and Port locate the server.
	Host string
	Port int
	// ProbeTimeout bounds the dial made by TestConnection.
	ProbeTimeout time.Duration
	// ReadBufferSize is the most bytes read as the response.
	ReadBufferSize int
	Logger         logger.Logger
}

// DefaultConfig returns a Config for host:port with the default probe
// timeout and read buffer size.
//
// Parameters:
//   - host: Server host name or address
//   - port: Server TCP port
//
// Returns:
//   - A Config with ProbeTimeout 2s, ReadBufferSize 1024 and a no-op logger
func DefaultConfig(host string, port int) Config {
	return Config{
		Host:           host,
		Port:           port,
		ProbeTimeout:   DefaultProbeTimeout,
		ReadBufferSize: DefaultReadBufferSize,
		Logger:         logger.Nop(),
	}
}

// Result is the outcome of one request. Exactly one of Response and Err is
// meaningful.
type Result struct {
	Response string
	Err      error
}

// Text renders the result the way SendData reports it: the trimmed response
// on success, or a line starting with "Error: " describing the failure.
func (r Result) Text() string {
	if r.Err == nil {
		return r.Response
	}
	return "Error: " + r.Err.Error()
}

// RequestError describes a failed request. Kind is ErrConnectionRefused,
// ErrTimeout, ErrInvalidResponse or nil for anything else.
type RequestError struct {
	Kind    error
	Addr    string
	Timeout time.Duration
	Err     error
}

func (e *RequestError) Error() string {
	switch e.Kind {
	case ErrConnectionRefused:
		return "Cannot connect to server at " + e.Addr
	case ErrTimeout:
		return "Connection timeout after " + strconv.FormatFloat(e.Timeout.Seconds(), 'f', -1, 64) + " seconds"
	}

	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.Error()
}

func (e *RequestError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Client sends requests to one server address.
type Client struct {
	config  Config
	addr    string
	display string
	log     logger.Logger
}

// New creates a Client. Zero fields in cfg take their defaults.
func New(cfg Config) *Client {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = DefaultReadBufferSize
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	return &Client{
		config:  cfg,
		addr:    net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		display: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		log:     cfg.Logger,
	}
}

// SendData sends text and returns the trimmed response. Failures never
// escape as errors; they come back as a descriptive "Error: ..." string.
//
// Parameters:
//   - text: The request, sent as-is with no delimiter
//   - timeout: Applies separately to connect, write and read; 0 means 5s
//
// Returns:
//   - The server's trimmed response or a description of the failure
func (c *Client) SendData(text string, timeout time.Duration) string {
	return c.Send(text, timeout).Text()
}

// Send is SendData with the failure kept as an error for callers that want
// to branch on it with errors.Is.
func (c *Client) Send(text string, timeout time.Duration) Result {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.Dial("tcp", c.addr)
	if err != nil {
		return c.fail("connect", err, timeout)
	}
	defer conn.Close()

	if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return c.fail("write", err, timeout)
	}
	if _, err := conn.Write([]byte(text)); err != nil {
		return c.fail("write", err, timeout)
	}

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return c.fail("read", err, timeout)
	}
	buf := make([]byte, c.config.ReadBufferSize)
	n, err := conn.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return c.fail("read", err, timeout)
	}

	if !utf8.Valid(buf[:n]) {
		return c.fail("read", ErrInvalidResponse, timeout)
	}

	return Result{Response: strings.TrimSpace(string(buf[:n]))}
}

// TestConnection reports whether a TCP connection to the server can be
// opened within the probe timeout. The probe connection is closed at once.
func (c *Client) TestConnection() bool {
	conn, err := net.DialTimeout("tcp", c.addr, c.config.ProbeTimeout)
	if err != nil {
		c.log.Debug("server unreachable", logger.F("addr", c.addr), logger.Err(err))
		return false
	}

	_ = conn.Close()
	return true
}

func (c *Client) fail(op string, err error, timeout time.Duration) Result {
	rerr := &RequestError{Kind: classify(err), Addr: c.display, Timeout: timeout, Err: err}
	c.log.Warn("request failed", logger.F("op", op), logger.F("addr", c.addr), logger.Err(err))
	return Result{Err: rerr}
}

func classify(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return ErrConnectionRefused
	case errors.As(err, &netErr) && netErr.Timeout():
		return ErrTimeout
	case errors.Is(err, ErrInvalidResponse):
		return ErrInvalidResponse
	default:
		return nil
	}
}
