package environ

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var ErrDefined = errors.New("undefined identifier")

// Environ is a scope of named values. A scope can be enclosed in a parent
// scope: names not found locally are looked up in the parent.
type Environ[T any] interface {
	Resolve(string) (T, error)
	Define(string, T)
	Names() []string
	Len() int
}

type Env[T any] struct {
	values map[string]T
	parent Environ[T]
}

func Empty[T any]() Environ[T] {
	return Enclosed[T](nil)
}

func Enclosed[T any](parent Environ[T]) Environ[T] {
	e := Env[T]{
		values: make(map[string]T),
		parent: parent,
	}
	return &e
}

func (e *Env[T]) Len() int {
	n := len(e.values)
	if e.parent != nil {
		n += e.parent.Len()
	}
	return n
}

// Names gives the sorted list of the names visible from e.
func (e *Env[T]) Names() []string {
	list := slices.Collect(maps.Keys(e.values))
	if e.parent != nil {
		list = append(list, e.parent.Names()...)
	}
	slices.Sort(list)
	return slices.Compact(list)
}

func (e *Env[T]) Define(ident string, value T) {
	e.values[ident] = value
}

func (e *Env[T]) Resolve(ident string) (T, error) {
	value, ok := e.values[ident]
	if ok {
		return value, nil
	}
	if e.parent != nil {
		return e.parent.Resolve(ident)
	}
	var t T
	return t, fmt.Errorf("%s: %w", ident, ErrDefined)
}
