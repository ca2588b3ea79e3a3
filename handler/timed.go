package handler

import (
	"strings"

	"github.com/cyberinferno/sortnet/logger"
	"github.com/cyberinferno/sortnet/metrics"
	"github.com/cyberinferno/sortnet/perfmonitor"
)

type timedHandler struct {
	next Handler
	log  logger.Logger
}

// Timed measures each call to next, records it in the request metrics and
// logs the elapsed time at debug level. Responses starting with "Error" are
// counted as errors.
func Timed(next Handler, log logger.Logger) Handler {
	return &timedHandler{next: next, log: log}
}

func (h *timedHandler) Process(request string) string {
	pm := perfmonitor.NewPerformanceMonitor()
	pm.Start()
	resp := h.next.Process(request)
	pm.Stop()

	outcome := metrics.OutcomeOK
	if strings.HasPrefix(resp, "Error") {
		outcome = metrics.OutcomeError
	}

	metrics.RecordRequest(outcome, pm.Elapsed())
	h.log.Debug("request processed",
		logger.F("outcome", outcome),
		logger.F("elapsed_ms", pm.ElapsedMilliseconds()),
		logger.F("request_bytes", len(request)),
	)

	return resp
}
