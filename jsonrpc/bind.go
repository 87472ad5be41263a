package jsonrpc

import (
	"github.com/pkg/errors"
)

// Args is the final argument set handed to a method.
type Args struct {
	Positional []any
	Named      map[string]any
}

// Lookup returns the named argument called name.
func (a Args) Lookup(name string) (any, bool) {
	v, ok := a.Named[name]
	return v, ok
}

// At returns the positional argument i as a T.
func At[T any](a Args, i int) (T, error) {
	var zero T
	if i < 0 || i >= len(a.Positional) {
		return zero, errors.Errorf("jsonrpc: no positional argument %d", i)
	}
	v, ok := a.Positional[i].(T)
	if !ok {
		return zero, errors.Errorf("jsonrpc: positional argument %d is %T, not %T", i, a.Positional[i], zero)
	}
	return v, nil
}

// Get returns the named argument as a T.
func Get[T any](a Args, name string) (T, error) {
	var zero T
	raw, ok := a.Named[name]
	if !ok {
		return zero, errors.Errorf("jsonrpc: no argument %q", name)
	}
	v, ok := raw.(T)
	if !ok {
		return zero, errors.Errorf("jsonrpc: argument %q is %T, not %T", name, raw, zero)
	}
	return v, nil
}

// Valuer is implemented by context values whose entries are injected into
// the named arguments of every call.
type Valuer interface {
	Values() map[string]any
}

// Binder separates caller-supplied params from dependencies and produces
// the final argument set.
type Binder struct {
	Loader   Loader
	Resolver Resolver
}

// Bind loads the ordinary params through the loader, resolves dependencies
// and merges the context.
//
// Named arguments are layered: loaded params, then resolved dependencies,
// then the context's own entries. A context key therefore overrides a
// dependency of the same name. Only map[string]any and Valuer contexts
// contribute entries.
func (b *Binder) Bind(m *Method, params Params, context any) (Args, error) {
	positional, named, err := b.Loader.LoadArgs(m, m.ordinary, params)
	if err != nil {
		return Args{}, err
	}
	if named == nil {
		named = make(map[string]any, len(m.deps))
	}

	for _, dep := range m.deps {
		if dep.PositionalOnly {
			return Args{}, errors.Wrapf(ErrUsage, "positional-only dependency %q is not supported", dep.Name)
		}
		if b.Resolver == nil {
			return Args{}, errors.Wrapf(ErrUnresolvedDependency, "no container for %q", dep.Name)
		}
		v, err := b.Resolver.Resolve(dep.Type)
		if err != nil {
			return Args{}, errors.Wrapf(err, "dependency %q", dep.Name)
		}
		named[dep.Name] = v
	}

	for k, v := range contextValues(context) {
		named[k] = v
	}
	return Args{Positional: positional, Named: named}, nil
}

func contextValues(context any) map[string]any {
	switch c := context.(type) {
	case map[string]any:
		return c
	case Valuer:
		return c.Values()
	}
	return nil
}
