package jsonrpc

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// invoker is the invocation strategy shared by the blocking and the
// suspend-capable pipeline.
type invoker interface {
	mode() Mode
	invoke(m *Method, args Args) (any, error)
}

type blocking struct{}

func (blocking) mode() Mode { return Blocking }

func (blocking) invoke(m *Method, args Args) (any, error) {
	return m.fn(args)
}

type suspending struct {
	ctx context.Context
}

func (suspending) mode() Mode { return Suspending }

func (s suspending) invoke(m *Method, args Args) (any, error) {
	return m.async(s.ctx, args)
}

// Processor drives one decoded message through loading, validation,
// binding, invocation and error mapping. C is the type of the per-call
// context value handed to Process.
//
// A Processor holds no per-call state and is safe for concurrent use as
// long as its collaborators are.
type Processor[C any] struct {
	router     Router
	loader     Loader
	dumper     Dumper
	exceptions ExceptionConfig
	binder     *Binder
	logger     zerolog.Logger
}

type options struct {
	loader     Loader
	dumper     Dumper
	exceptions ExceptionConfig
	resolver   Resolver
	logger     *zerolog.Logger
}

// Option configures a Processor.
type Option func(*options)

func WithLoader(l Loader) Option {
	return func(o *options) { o.loader = l }
}

func WithDumper(d Dumper) Option {
	return func(o *options) { o.dumper = d }
}

// WithExceptions sets the filter table for errors that are not protocol
// errors. Without it every such error is unexpected.
func WithExceptions(c ExceptionConfig) Option {
	return func(o *options) { o.exceptions = c }
}

// WithResolver sets the dependency container.
func WithResolver(r Resolver) Option {
	return func(o *options) { o.resolver = r }
}

// WithLogger sets the logger for unexpected and notification failures.
// The default is the global zerolog logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = &l }
}

// NewProcessor creates a Processor dispatching through router.
func NewProcessor[C any](router Router, opts ...Option) *Processor[C] {
	o := options{
		loader:     MapLoader{},
		dumper:     MapDumper{},
		exceptions: ErrorFilters(nil),
		resolver:   NewContainer(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	logger := log.Logger
	if o.logger != nil {
		logger = *o.logger
	}

	return &Processor[C]{
		router:     router,
		loader:     o.loader,
		dumper:     o.dumper,
		exceptions: o.exceptions,
		binder:     &Binder{Loader: o.loader, Resolver: o.resolver},
		logger:     logger,
	}
}

// Process handles one message with blocking methods. It returns the
// response to send, or nil for notifications.
func (p *Processor[C]) Process(raw map[string]any, c C) map[string]any {
	return p.process(blocking{}, raw, c)
}

// ProcessContext handles one message with suspend-capable methods; ctx is
// passed to the method. Cancellation is up to the method and the caller.
func (p *Processor[C]) ProcessContext(ctx context.Context, raw map[string]any, c C) map[string]any {
	return p.process(suspending{ctx: ctx}, raw, c)
}

func (p *Processor[C]) process(inv invoker, raw map[string]any, c C) map[string]any {
	msg, err := p.loader.LoadMessage(raw)
	if err != nil {
		return p.dumper.DumpError(p.loadFailure(err, raw), nil)
	}

	switch msg := msg.(type) {
	case *Notification:
		if _, err := p.call(inv, msg, c); err != nil {
			p.logger.Error().Err(err).
				Str("method", msg.Method).
				Interface("data", raw).
				Msg("notification failed")
		}
		return nil

	case *Request:
		result, err := p.call(inv, msg, c)
		if err == nil {
			return p.dumper.DumpResponse(&SuccessResponse{
				JSONRPC: msg.JSONRPC,
				ID:      msg.ID,
				Result:  result,
			})
		}
		if rpcErr, ok := AsError(err); ok {
			return p.dumper.DumpError(rpcErr, msg)
		}
		return p.mapException(err, msg, raw)
	}

	// A custom loader returned something that is neither kind.
	return p.mapException(errors.Errorf("jsonrpc: unknown message type %T", msg), nil, raw)
}

// loadFailure coerces any decode failure into InvalidRequest. Errors other
// than InvalidRequest are logged and not passed on to the client.
func (p *Processor[C]) loadFailure(err error, raw map[string]any) *Error {
	if rpcErr, ok := AsError(err); ok && rpcErr.Code == CodeInvalidRequest {
		return rpcErr
	}
	p.logger.Error().Err(err).Interface("data", raw).Msg("failed to load message")
	return InvalidRequest("Invalid request", nil)
}

func (p *Processor[C]) call(inv invoker, msg Message, c C) (result any, err error) {
	path := msg.call().Method
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("jsonrpc: panic in %s: %v", path, r)
		}
	}()

	m, err := p.router.Method(path)
	if err != nil {
		return nil, err
	}
	if err := Validate(msg, m, inv.mode()); err != nil {
		return nil, err
	}
	args, err := p.binder.Bind(m, msg.call().Params, any(c))
	if err != nil {
		return nil, err
	}
	return inv.invoke(m, args)
}

// mapException turns a failure that is not a protocol error into an error
// response. Unmatched failures are logged with the raw input and reported
// as a bare InternalError carrying only that input.
func (p *Processor[C]) mapException(err error, msg Message, raw map[string]any) map[string]any {
	if p.exceptions != nil {
		if mapped := p.exceptions.FilterMap(err); mapped != nil {
			return p.exceptions.Dump(p.dumper, mapped, msg)
		}
	}

	p.logger.Error().Err(err).Interface("data", raw).Msg("unexpected exception")
	return p.dumper.DumpError(InternalError("Unexpected error", raw), msg)
}
