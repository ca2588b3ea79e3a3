// Package handler defines the pluggable request processor run by every
// connection worker, together with the echo and sorting implementations and
// decorators that cache or time them.
//
// A Handler never fails: every internal fault is turned into a descriptive
// response string, so the network layer only ever sees text.
package handler

// Handler converts one request frame's text into one response frame's text.
type Handler interface {
	Process(request string) string
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(request string) string

// Process calls f(request).
func (f HandlerFunc) Process(request string) string {
	return f(request)
}

// EchoPrefix is prepended to every request by the Echo handler.
const EchoPrefix = "Echo: "

// Echo returns the default handler, which answers "Echo: " + request.
func Echo() Handler {
	return HandlerFunc(func(request string) string {
		return EchoPrefix + request
	})
}
