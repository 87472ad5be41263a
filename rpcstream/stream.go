// Package rpcstream serves a jsonrpc.Processor over a byte stream such as
// stdio or a socket. Messages are consecutive JSON values; each response is
// written as one line.
package rpcstream

import (
	"context"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mnehpets/jsonic-rpc/jsonrpc"
)

// Server handles messages one at a time in arrival order.
type Server[C any] struct {
	Processor *jsonrpc.Processor[C]

	// Context is handed to every call.
	Context C

	// Suspend dispatches through Processor.ProcessContext.
	Suspend bool

	Logger zerolog.Logger
}

// NewServer creates a Server logging through the global zerolog logger.
func NewServer[C any](p *jsonrpc.Processor[C], c C) *Server[C] {
	return &Server[C]{Processor: p, Context: c, Logger: log.Logger}
}

// Serve reads from r until EOF and writes responses to w. A malformed
// JSON value is answered with a parse error and ends the stream, since the
// decoder cannot find the next message boundary.
//
// ctx is checked between messages and passed to suspend-capable methods; it
// does not interrupt a read in progress.
func (s *Server[C]) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var v any
		if err := dec.Decode(&v); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			s.Logger.Error().Err(err).Msg("malformed message, closing stream")
			if werr := enc.Encode(errorResponse(jsonrpc.ParseError("Parse error", nil))); werr != nil {
				return errors.Wrap(werr, "rpcstream: write")
			}
			return errors.Wrap(err, "rpcstream: decode")
		}

		var out map[string]any
		if raw, ok := v.(map[string]any); ok {
			out = s.process(ctx, raw)
		} else {
			out = errorResponse(jsonrpc.InvalidRequest("Invalid request", "message must be an object"))
		}
		if out == nil {
			continue
		}
		if err := enc.Encode(out); err != nil {
			return errors.Wrap(err, "rpcstream: write")
		}
	}
}

func (s *Server[C]) process(ctx context.Context, raw map[string]any) map[string]any {
	if s.Suspend {
		return s.Processor.ProcessContext(ctx, raw, s.Context)
	}
	return s.Processor.Process(raw, s.Context)
}

func errorResponse(e *jsonrpc.Error) map[string]any {
	return (&jsonrpc.ErrorResponse{JSONRPC: jsonrpc.Version, Error: e}).Map()
}
