package jsonrpc

import (
	"strings"

	"github.com/pkg/errors"
)

// ExceptionConfig maps failures that are not protocol errors onto the
// error taxonomy.
type ExceptionConfig interface {
	// FilterMap returns the protocol error for err, or nil if err is
	// unexpected.
	FilterMap(err error) *Error
	// Dump renders a mapped error for msg.
	Dump(d Dumper, e *Error, msg Message) map[string]any
}

// Filter maps one category of errors to a stable code and message.
type Filter struct {
	Match func(err error) bool
	Code  int
	// Message is a template; "{error}" expands to err.Error().
	Message string
	// Data optionally derives the error data from err.
	Data func(err error) any
}

// MatchIs matches errors that wrap target.
func MatchIs(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

// MatchAs matches errors that wrap an E.
func MatchAs[E error]() func(error) bool {
	return func(err error) bool {
		var e E
		return errors.As(err, &e)
	}
}

// ErrorFilters is an ordered filter table; the first match wins.
type ErrorFilters []Filter

var _ ExceptionConfig = ErrorFilters(nil)

func (fs ErrorFilters) FilterMap(err error) *Error {
	for _, f := range fs {
		if f.Match == nil || !f.Match(err) {
			continue
		}
		e := &Error{
			Code:    f.Code,
			Message: strings.ReplaceAll(f.Message, "{error}", err.Error()),
		}
		if f.Data != nil {
			e.Data = f.Data(err)
		}
		return e
	}
	return nil
}

func (ErrorFilters) Dump(d Dumper, e *Error, msg Message) map[string]any {
	return d.DumpError(e, msg)
}
