// Package rpchttp serves a jsonrpc.Processor over HTTP
// (https://www.simple-is-better.org/json-rpc/transport_http.html).
//
// One POST carries one message. Bodies are JSON, or CBOR when sent as
// application/cbor; the response uses the same encoding. Notifications are
// answered with 204 No Content. Batches are not supported.
//
//	h := rpchttp.NewHandler(processor, rpchttp.NewHeaders())
//	http.Handle("/rpc", h)
//
// Middleware runs before the message is decoded. Middleware errors become
// plain HTTP error responses, not JSON-RPC errors.
package rpchttp

import (
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mnehpets/jsonic-rpc/jsonrpc"
)

// DefaultMaxBodyBytes bounds request bodies when Handler.MaxBodyBytes is 0.
const DefaultMaxBodyBytes = 1 << 20

// StatusError aborts a request before it reaches the processor and selects
// the HTTP status of the reply. Text becomes the plain-text body; when empty
// the standard status text is sent.
type StatusError struct {
	Code int
	Text string
	Err  error
}

func (e *StatusError) Error() string {
	if e == nil {
		return "rpchttp: <nil> status error"
	}
	text := e.Text
	if text == "" {
		text = fmt.Sprintf("HTTP %d", e.Code)
	}
	if e.Err == nil {
		return text
	}
	return text + ": " + e.Err.Error()
}

func (e *StatusError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Error returns a *StatusError for code, unless err already carries one,
// in which case err is returned as is.
func Error(code int, text string, err error) error {
	var se *StatusError
	if errors.As(err, &se) {
		return err
	}
	return &StatusError{Code: code, Text: text, Err: err}
}

// Middleware runs before the JSON-RPC message is handled.
//
// Protocol:
//   - Middleware MUST call next(...), unless it intends to short-circuit
//     the request by returning an error (a *StatusError picks the status).
//   - Middleware MUST NOT call w.WriteHeader(...) or write the body.
type Middleware interface {
	Process(w http.ResponseWriter, r *http.Request, next func(w http.ResponseWriter, r *http.Request) error) error
}

// MiddlewareFunc adapts a function to a Middleware.
type MiddlewareFunc func(w http.ResponseWriter, r *http.Request, next func(w http.ResponseWriter, r *http.Request) error) error

func (f MiddlewareFunc) Process(w http.ResponseWriter, r *http.Request, next func(w http.ResponseWriter, r *http.Request) error) error {
	return f(w, r, next)
}

// Handler is an http.Handler for a jsonrpc.Processor.
type Handler[C any] struct {
	Processor  *jsonrpc.Processor[C]
	Middleware []Middleware

	// Context derives the per-call context value. When nil the zero C is used.
	Context func(r *http.Request) C

	// Suspend dispatches through Processor.ProcessContext with the request
	// context, for suspend-capable methods.
	Suspend bool

	MaxBodyBytes int64
	Logger       zerolog.Logger
}

// NewHandler constructs a Handler logging through the global zerolog logger.
func NewHandler[C any](p *jsonrpc.Processor[C], middleware ...Middleware) *Handler[C] {
	return &Handler[C]{
		Processor:  p,
		Middleware: middleware,
		Logger:     log.Logger,
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler[C]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Processor == nil {
		http.Error(w, "rpchttp: nil Processor", http.StatusInternalServerError)
		return
	}

	// Call each middleware in order, followed by serve.
	var run func(i int, w2 http.ResponseWriter, r2 *http.Request) error
	run = func(i int, w2 http.ResponseWriter, r2 *http.Request) error {
		if i < len(h.Middleware) {
			if h.Middleware[i] == nil {
				return errors.New("rpchttp: nil middleware")
			}
			return h.Middleware[i].Process(w2, r2, func(w3 http.ResponseWriter, r3 *http.Request) error {
				return run(i+1, w3, r3)
			})
		}
		return h.serve(w2, r2)
	}

	if err := run(0, w, r); err != nil {
		h.writeError(w, err)
	}
}

func (h *Handler[C]) serve(w http.ResponseWriter, r *http.Request) error {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		return Error(http.StatusMethodNotAllowed, "JSON-RPC requires POST method", nil)
	}

	c, ok := codecFor(r.Header.Get("Content-Type"))
	if !ok {
		return Error(http.StatusUnsupportedMediaType, "Content-Type must be application/json or application/cbor", nil)
	}

	limit := h.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return Error(http.StatusRequestEntityTooLarge, "request body too large", err)
		}
		return Error(http.StatusBadRequest, "failed to read request body", err)
	}

	value, err := c.decode(body)
	if err != nil {
		return h.render(w, c, errorResponse(jsonrpc.ParseError("Parse error", nil)))
	}

	raw, ok := value.(map[string]any)
	if !ok {
		msg := "request must be an object"
		if _, batch := value.([]any); batch {
			msg = "batch requests are not supported"
		}
		return h.render(w, c, errorResponse(jsonrpc.InvalidRequest("Invalid request", msg)))
	}

	var callCtx C
	if h.Context != nil {
		callCtx = h.Context(r)
	}

	var out map[string]any
	if h.Suspend {
		out = h.Processor.ProcessContext(r.Context(), raw, callCtx)
	} else {
		out = h.Processor.Process(raw, callCtx)
	}

	if out == nil {
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
	return h.render(w, c, out)
}

func errorResponse(e *jsonrpc.Error) map[string]any {
	return (&jsonrpc.ErrorResponse{JSONRPC: jsonrpc.Version, Error: e}).Map()
}

// render writes out with status 200. Encoding failures can only be logged,
// the status is already sent.
func (h *Handler[C]) render(w http.ResponseWriter, c codec, out map[string]any) error {
	w.Header().Set("Content-Type", c.contentType)
	w.WriteHeader(http.StatusOK)
	if err := c.encode(w, out); err != nil {
		h.Logger.Error().Err(err).Str("content_type", c.contentType).Msg("failed to encode response")
	}
	return nil
}

func (h *Handler[C]) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := http.StatusText(status)

	var se *StatusError
	if errors.As(err, &se) {
		if se.Code >= 100 {
			status = se.Code
		}
		message = se.Text
		if message == "" {
			message = http.StatusText(status)
		}
	} else {
		h.Logger.Error().Err(err).Msg("middleware failed")
	}

	if status == http.StatusNoContent || status == http.StatusNotModified {
		w.WriteHeader(status)
		return
	}
	http.Error(w, message, status)
}
