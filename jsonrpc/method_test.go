package jsonrpc

import (
	"reflect"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestNewMethodDefaults(t *testing.T) {
	m, err := NewMethod(nop, []Param{Arg[int]("a"), Dep[greeter]("g"), Arg[string]("b")})
	require.NoError(t, err)

	require.Equal(t, Blocking, m.Mode())
	require.True(t, m.AllowRequests())
	require.True(t, m.AllowNotifications())
	require.True(t, m.IsByPosition())
	require.Len(t, m.Params(), 3)

	names := func(ps []Param) []string {
		var out []string
		for _, p := range ps {
			out = append(out, p.Name)
		}
		return out
	}
	require.Equal(t, []string{"a", "b"}, names(m.Ordinary()))
	require.Equal(t, []string{"g"}, names(m.Dependencies()))

	// Accessors hand out copies.
	m.Ordinary()[0].Name = "changed"
	require.Equal(t, "a", m.Ordinary()[0].Name)
}

func TestNewMethodOptions(t *testing.T) {
	m, err := NewAsyncMethod(asyncNop, nil, ByName(), WithRequests(false), WithNotifications(true))
	require.NoError(t, err)
	require.Equal(t, Suspending, m.Mode())
	require.False(t, m.AllowRequests())
	require.True(t, m.AllowNotifications())
	require.False(t, m.IsByPosition())
}

func TestNewMethodRejects(t *testing.T) {
	posOnlyDep := Dep[greeter]("g")
	posOnlyDep.PositionalOnly = true
	posOnlyArg := Arg[int]("a")
	posOnlyArg.PositionalOnly = true

	tests := []struct {
		name   string
		fn     Func
		params []Param
		opts   []MethodOption
	}{
		{"nil function", nil, nil, nil},
		{"unnamed param", nop, []Param{{Type: reflect.TypeFor[int]()}}, nil},
		{"duplicate param", nop, []Param{Arg[int]("a"), Arg[string]("a")}, nil},
		{"untyped dependency", nop, []Param{{Name: "d", Kind: Dependency}}, nil},
		{"positional-only dependency", nop, []Param{posOnlyDep}, nil},
		{"positional-only param by name", nop, []Param{posOnlyArg}, []MethodOption{ByName()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMethod(tt.fn, tt.params, tt.opts...)
			require.True(t, errors.Is(err, ErrUsage), "got %v", err)
		})
	}

	_, err := NewAsyncMethod(nil, nil)
	require.True(t, errors.Is(err, ErrUsage))
	require.Panics(t, func() { MustMethod(nil, nil) })
}

func TestModeString(t *testing.T) {
	require.Equal(t, "blocking", Blocking.String())
	require.Equal(t, "suspending", Suspending.String())
	require.Equal(t, "unknown", Mode(9).String())
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	add := MustMethod(nop, nil)

	require.NoError(t, r.Register("math.add", add))
	require.NoError(t, r.Register("echo", MustMethod(nop, nil)))

	err := r.Register("math.add", add)
	require.True(t, errors.Is(err, ErrUsage))
	require.True(t, errors.Is(r.Register("", add), ErrUsage))
	require.True(t, errors.Is(r.Register("x", nil), ErrUsage))
	require.Panics(t, func() { r.MustRegister("echo", add) })

	got, err := r.Method("math.add")
	require.NoError(t, err)
	require.Same(t, add, got)

	_, err = r.Method("math.sub")
	rpcErr, ok := AsError(err)
	require.True(t, ok)
	require.Equal(t, CodeMethodNotFound, rpcErr.Code)
	require.Equal(t, "math.sub", rpcErr.Data)

	require.Equal(t, []string{"echo", "math.add"}, r.Paths())
}

func TestContainer(t *testing.T) {
	c := NewContainer(
		Provide[greeter](english{name: "a"}),
		Provide("text"),
		Provide[greeter](english{name: "b"}),
	)

	v, err := c.Resolve(reflect.TypeFor[greeter]())
	require.NoError(t, err)
	require.Equal(t, english{name: "b"}, v)

	v, err = c.Resolve(reflect.TypeFor[string]())
	require.NoError(t, err)
	require.Equal(t, "text", v)

	// Keys are declared types, not dynamic ones.
	_, err = c.Resolve(reflect.TypeFor[english]())
	require.True(t, errors.Is(err, ErrUnresolvedDependency))

	var nilContainer *Container
	_, err = nilContainer.Resolve(reflect.TypeFor[string]())
	require.True(t, errors.Is(err, ErrUnresolvedDependency))
}

func TestErrorHelpers(t *testing.T) {
	e := NewError(-1, "custom")
	require.Equal(t, map[string]any{"code": -1, "message": "custom"}, e.Map())

	withData := e.WithData([]int{1})
	require.Nil(t, e.Data)
	require.Equal(t, []int{1}, withData.Map()["data"])
	require.Contains(t, e.Error(), "custom")

	wrapped := errors.Wrap(InternalError("x", nil), "ctx")
	got, ok := AsError(wrapped)
	require.True(t, ok)
	require.Equal(t, CodeInternalError, got.Code)

	_, ok = AsError(errors.New("plain"))
	require.False(t, ok)
	_, ok = AsError(nil)
	require.False(t, ok)

	require.Equal(t, CodeParseError, ParseError("p", nil).Code)
}
