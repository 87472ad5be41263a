package jsonrpc

import (
	"context"
	"reflect"
)

// Mode is how a method is invoked.
type Mode int

const (
	// Blocking methods run to completion on the caller's goroutine.
	Blocking Mode = iota
	// Suspending methods receive a context.Context and are invoked through
	// Processor.ProcessContext.
	Suspending
)

func (m Mode) String() string {
	switch m {
	case Blocking:
		return "blocking"
	case Suspending:
		return "suspending"
	default:
		return "unknown"
	}
}

// ParamKind tags a declared parameter as caller-supplied or injected.
type ParamKind int

const (
	Ordinary ParamKind = iota
	Dependency
)

// Param declares one parameter of a method.
type Param struct {
	Name string
	Kind ParamKind
	// Type is the declared type. Ordinary values are converted to it; for
	// dependencies it is the container key. A nil Type on an ordinary
	// parameter passes the decoded value through untouched.
	Type reflect.Type
	// PositionalOnly parameters cannot be addressed by name.
	PositionalOnly bool
	// Optional parameters may be left out by the caller.
	Optional bool
}

// Arg declares an ordinary parameter of type T.
func Arg[T any](name string) Param {
	return Param{Name: name, Kind: Ordinary, Type: reflect.TypeFor[T]()}
}

// Dep declares a dependency resolved from the container by type T.
func Dep[T any](name string) Param {
	return Param{Name: name, Kind: Dependency, Type: reflect.TypeFor[T]()}
}

// Func is a blocking method implementation.
type Func func(args Args) (any, error)

// AsyncFunc is a suspend-capable method implementation.
type AsyncFunc func(ctx context.Context, args Args) (any, error)

// Method describes one registered callable. It is immutable once built.
type Method struct {
	mode               Mode
	allowRequests      bool
	allowNotifications bool
	byPosition         bool

	params   []Param
	ordinary []Param
	deps     []Param

	fn    Func
	async AsyncFunc
}

// MethodOption configures a Method at construction.
type MethodOption func(*Method)

// WithRequests sets whether the method answers requests.
func WithRequests(allow bool) MethodOption {
	return func(m *Method) { m.allowRequests = allow }
}

// WithNotifications sets whether the method accepts notifications.
func WithNotifications(allow bool) MethodOption {
	return func(m *Method) { m.allowNotifications = allow }
}

// ByName makes the method take its params as a named object.
func ByName() MethodOption {
	return func(m *Method) { m.byPosition = false }
}

// ByPosition makes the method take its params as an array. This is the default.
func ByPosition() MethodOption {
	return func(m *Method) { m.byPosition = true }
}

// NewMethod describes a blocking method.
func NewMethod(fn Func, params []Param, opts ...MethodOption) (*Method, error) {
	if fn == nil {
		return nil, usageErrorf("nil method function")
	}
	return newMethod(Blocking, fn, nil, params, opts)
}

// NewAsyncMethod describes a suspend-capable method.
func NewAsyncMethod(fn AsyncFunc, params []Param, opts ...MethodOption) (*Method, error) {
	if fn == nil {
		return nil, usageErrorf("nil method function")
	}
	return newMethod(Suspending, nil, fn, params, opts)
}

func newMethod(mode Mode, fn Func, async AsyncFunc, params []Param, opts []MethodOption) (*Method, error) {
	m := &Method{
		mode:               mode,
		allowRequests:      true,
		allowNotifications: true,
		byPosition:         true,
		params:             append([]Param(nil), params...),
		fn:                 fn,
		async:              async,
	}
	for _, opt := range opts {
		opt(m)
	}

	seen := make(map[string]bool, len(params))
	for _, p := range m.params {
		if p.Name == "" {
			return nil, usageErrorf("parameter without a name")
		}
		if seen[p.Name] {
			return nil, usageErrorf("duplicate parameter %q", p.Name)
		}
		seen[p.Name] = true

		switch p.Kind {
		case Dependency:
			if p.Type == nil {
				return nil, usageErrorf("dependency %q has no type", p.Name)
			}
			// Dependencies are injected by name.
			if p.PositionalOnly {
				return nil, usageErrorf("positional-only dependency %q is not supported", p.Name)
			}
			m.deps = append(m.deps, p)
		default:
			if p.PositionalOnly && !m.byPosition {
				return nil, usageErrorf("positional-only parameter %q on a by-name method", p.Name)
			}
			m.ordinary = append(m.ordinary, p)
		}
	}
	return m, nil
}

// MustMethod is like NewMethod but panics on error.
func MustMethod(fn Func, params []Param, opts ...MethodOption) *Method {
	m, err := NewMethod(fn, params, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// MustAsyncMethod is like NewAsyncMethod but panics on error.
func MustAsyncMethod(fn AsyncFunc, params []Param, opts ...MethodOption) *Method {
	m, err := NewAsyncMethod(fn, params, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Method) Mode() Mode               { return m.mode }
func (m *Method) AllowRequests() bool      { return m.allowRequests }
func (m *Method) AllowNotifications() bool { return m.allowNotifications }
func (m *Method) IsByPosition() bool       { return m.byPosition }

// Params returns all declared parameters in declaration order.
func (m *Method) Params() []Param { return append([]Param(nil), m.params...) }

// Ordinary returns the caller-supplied parameters.
func (m *Method) Ordinary() []Param { return append([]Param(nil), m.ordinary...) }

// Dependencies returns the container-resolved parameters.
func (m *Method) Dependencies() []Param { return append([]Param(nil), m.deps...) }
