// Package metrics exposes prometheus collectors for the sorting service and
// an optional HTTP endpoint to scrape them.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cyberinferno/sortnet/logger"
)

// Worker exit reasons.
const (
	ExitPeerClosed  = "peer_closed"
	ExitEmptyFrame  = "empty_frame"
	ExitDecodeError = "decode_error"
	ExitPeerReset   = "peer_reset"
	ExitIOError     = "io_error"
	ExitStopped     = "stopped"
)

// Request outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	registerOnce sync.Once

	connectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sortnet",
		Name:      "connections_total",
		Help:      "Connections accepted by the listener.",
	})
	connectionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sortnet",
		Name:      "connections_active",
		Help:      "Connections currently owned by a worker.",
	})
	acceptErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sortnet",
		Name:      "accept_errors_total",
		Help:      "Accept failures that stopped the listener.",
	})
	workerExits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sortnet",
			Name:      "worker_exits_total",
			Help:      "Connection worker exits by reason.",
		},
		[]string{"reason"},
	)
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sortnet",
			Name:      "requests_total",
			Help:      "Requests processed by the handler.",
		},
		[]string{"outcome"},
	)
	requestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sortnet",
		Name:      "request_duration_seconds",
		Help:      "Handler processing time in seconds.",
		Buckets:   prometheus.DefBuckets,
	})
)

// Register adds the collectors to the default registry once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(connectionsTotal, connectionsActive, acceptErrors, workerExits, requestsTotal, requestDuration)
	})
}

// ConnectionOpened counts an accepted connection.
func ConnectionOpened() {
	Register()
	connectionsTotal.Inc()
	connectionsActive.Inc()
}

// ConnectionClosed records a worker exit with the given reason.
func ConnectionClosed(reason string) {
	Register()
	connectionsActive.Dec()
	workerExits.WithLabelValues(reason).Inc()
}

// AcceptFailed counts a fatal accept error.
func AcceptFailed() {
	Register()
	acceptErrors.Inc()
}

// RecordRequest counts one handler call and observes its duration.
func RecordRequest(outcome string, d time.Duration) {
	Register()
	requestsTotal.WithLabelValues(outcome).Inc()
	requestDuration.Observe(d.Seconds())
}

// Handler returns the scrape handler for the default registry.
func Handler() http.Handler {
	Register()
	return promhttp.Handler()
}

// Endpoint serves /metrics on its own listener.
type Endpoint struct {
	srv *http.Server
	ln  net.Listener
}

// Serve binds addr and serves /metrics in a goroutine.
//
// Parameters:
//   - addr: The "host:port" to listen on
//   - log: Logger for serve errors
//
// Returns:
//   - The running Endpoint, or an error if addr cannot be bound
func Serve(addr string, log logger.Logger) (*Endpoint, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	e := &Endpoint{
		srv: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:  ln,
	}

	go func() {
		if err := e.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics endpoint failed", logger.Err(err))
		}
	}()

	log.Info("metrics endpoint started", logger.F("addr", ln.Addr().String()))
	return e, nil
}

// Addr returns the bound address.
func (e *Endpoint) Addr() net.Addr {
	return e.ln.Addr()
}

// Close shuts the endpoint down.
func (e *Endpoint) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return e.srv.Shutdown(ctx)
}
