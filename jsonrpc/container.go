package jsonrpc

import (
	"reflect"

	"github.com/pkg/errors"
)

// Resolver looks up a dependency by its declared type.
type Resolver interface {
	Resolve(t reflect.Type) (any, error)
}

// Container is a read-only type-keyed dependency table. It is filled once by
// NewContainer and may be shared between concurrent invocations.
type Container struct {
	deps map[reflect.Type]any
}

// Provision adds one entry while building a Container.
type Provision func(deps map[reflect.Type]any)

// Provide registers v under the type T. T may be an interface type, in which
// case methods declare Dep[T] with the same interface.
func Provide[T any](v T) Provision {
	return func(deps map[reflect.Type]any) {
		deps[reflect.TypeFor[T]()] = v
	}
}

// NewContainer builds a Container. Later provisions of the same type win.
func NewContainer(provisions ...Provision) *Container {
	deps := make(map[reflect.Type]any, len(provisions))
	for _, p := range provisions {
		p(deps)
	}
	return &Container{deps: deps}
}

// Resolve implements Resolver.
func (c *Container) Resolve(t reflect.Type) (any, error) {
	if c != nil {
		if v, ok := c.deps[t]; ok {
			return v, nil
		}
	}
	return nil, errors.Wrapf(ErrUnresolvedDependency, "no provider for %v", t)
}
