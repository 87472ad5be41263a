package main

import (
	"context"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mnehpets/jsonic-rpc/jsonrpc"
	"github.com/mnehpets/jsonic-rpc/rpchttp"
)

// Clock is injected into methods that need the time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Counter counts "event.log" notifications.
type Counter struct {
	n atomic.Int64
}

var errDivideByZero = errors.New("division by zero")

type config struct {
	Addr        string
	LogLevel    zerolog.Level
	Suspend     bool
	CORSOrigins []string
}

func loadConfig() (config, error) {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, using environment variables")
	}

	cfg := config{Addr: ":8080", LogLevel: zerolog.InfoLevel}
	if v := os.Getenv("RPC_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("RPC_LOG_LEVEL"); v != "" {
		level, err := zerolog.ParseLevel(v)
		if err != nil {
			return cfg, errors.Wrapf(err, "invalid RPC_LOG_LEVEL %q", v)
		}
		cfg.LogLevel = level
	}
	cfg.Suspend = os.Getenv("RPC_SUSPEND") == "true"
	if v := os.Getenv("RPC_CORS_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}
	return cfg, nil
}

func registerMethods(r *jsonrpc.Registry, suspend bool) error {
	add := func(args jsonrpc.Args) (any, error) {
		a, err := jsonrpc.At[float64](args, 0)
		if err != nil {
			return nil, err
		}
		b, err := jsonrpc.At[float64](args, 1)
		if err != nil {
			return nil, err
		}
		return a + b, nil
	}
	div := func(args jsonrpc.Args) (any, error) {
		a, _ := jsonrpc.Get[float64](args, "a")
		b, _ := jsonrpc.Get[float64](args, "b")
		if b == 0 {
			return nil, errDivideByZero
		}
		return a / b, nil
	}
	now := func(args jsonrpc.Args) (any, error) {
		clock, err := jsonrpc.Get[Clock](args, "clock")
		if err != nil {
			return nil, err
		}
		return clock.Now().UTC().Format(time.RFC3339), nil
	}
	logEvent := func(args jsonrpc.Args) (any, error) {
		counter, err := jsonrpc.Get[*Counter](args, "counter")
		if err != nil {
			return nil, err
		}
		counter.n.Add(1)
		log.Info().Interface("event", args.Named["event"]).Interface("remote", args.Named["remote"]).Msg("event")
		return nil, nil
	}
	count := func(args jsonrpc.Args) (any, error) {
		counter, err := jsonrpc.Get[*Counter](args, "counter")
		if err != nil {
			return nil, err
		}
		return counter.n.Load(), nil
	}

	type entry struct {
		path   string
		fn     jsonrpc.Func
		params []jsonrpc.Param
		opts   []jsonrpc.MethodOption
	}
	entries := []entry{
		{"math.add", add, []jsonrpc.Param{jsonrpc.Arg[float64]("a"), jsonrpc.Arg[float64]("b")}, nil},
		{"math.div", div, []jsonrpc.Param{jsonrpc.Arg[float64]("a"), jsonrpc.Arg[float64]("b")}, []jsonrpc.MethodOption{jsonrpc.ByName()}},
		{"time.now", now, []jsonrpc.Param{jsonrpc.Dep[Clock]("clock")}, []jsonrpc.MethodOption{jsonrpc.ByName()}},
		{"event.log", logEvent, []jsonrpc.Param{jsonrpc.Arg[any]("event"), jsonrpc.Dep[*Counter]("counter")}, []jsonrpc.MethodOption{jsonrpc.ByName(), jsonrpc.WithRequests(false)}},
		{"event.count", count, []jsonrpc.Param{jsonrpc.Dep[*Counter]("counter")}, []jsonrpc.MethodOption{jsonrpc.WithNotifications(false)}},
	}

	for _, e := range entries {
		var m *jsonrpc.Method
		var err error
		if suspend {
			fn := e.fn
			m, err = jsonrpc.NewAsyncMethod(func(_ context.Context, args jsonrpc.Args) (any, error) {
				return fn(args)
			}, e.params, e.opts...)
		} else {
			m, err = jsonrpc.NewMethod(e.fn, e.params, e.opts...)
		}
		if err != nil {
			return errors.Wrapf(err, "method %s", e.path)
		}
		if err := r.Register(e.path, m); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	r := jsonrpc.NewRegistry()
	if err := registerMethods(r, cfg.Suspend); err != nil {
		log.Fatal().Err(err).Msg("failed to register methods")
	}

	container := jsonrpc.NewContainer(
		jsonrpc.Provide[Clock](systemClock{}),
		jsonrpc.Provide(&Counter{}),
	)
	filters := jsonrpc.ErrorFilters{
		{Match: jsonrpc.MatchIs(errDivideByZero), Code: -32000, Message: "{error}"},
	}
	p := jsonrpc.NewProcessor[map[string]any](r,
		jsonrpc.WithResolver(container),
		jsonrpc.WithExceptions(filters),
		jsonrpc.WithLogger(log.Logger),
	)

	var headerOpts []rpchttp.HeadersOption
	if len(cfg.CORSOrigins) > 0 {
		headerOpts = append(headerOpts, rpchttp.WithCORS(cfg.CORSOrigins...))
	}
	h := rpchttp.NewHandler(p, rpchttp.NewHeaders(headerOpts...))
	h.Suspend = cfg.Suspend
	h.Context = func(r *http.Request) map[string]any {
		return map[string]any{"remote": r.RemoteAddr}
	}

	http.Handle("/rpc", h)

	log.Info().Str("addr", cfg.Addr).Strs("methods", r.Paths()).Bool("suspend", cfg.Suspend).Msg("Starting server")
	if err := http.ListenAndServe(cfg.Addr, nil); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
