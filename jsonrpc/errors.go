package jsonrpc

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

var (
	// ErrUsage marks a programming mistake by the service author, such as
	// invoking an async method through the blocking entry point. It is not a
	// protocol error and is never sent to the client as-is.
	ErrUsage = errors.New("jsonrpc: usage error")

	// ErrUnresolvedDependency is returned when a dependency's declared type
	// is absent from the container.
	ErrUnresolvedDependency = errors.New("jsonrpc: unresolved dependency")
)

// Error is a protocol-level JSON-RPC error. Methods may return one (possibly
// wrapped) to send a specific code to the client; any other error goes
// through the exception filters.
type Error struct {
	Code    int
	Message string
	Data    any
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc: %s (%d)", e.Message, e.Code)
}

// Map renders the wire error object. Data is omitted when nil.
func (e *Error) Map() map[string]any {
	m := map[string]any{
		"code":    e.Code,
		"message": e.Message,
	}
	if e.Data != nil {
		m["data"] = e.Data
	}
	return m
}

// WithData returns a copy of e carrying data.
func (e *Error) WithData(data any) *Error {
	c := *e
	c.Data = data
	return &c
}

func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

func ParseError(message string, data any) *Error {
	return &Error{Code: CodeParseError, Message: message, Data: data}
}

func InvalidRequest(message string, data any) *Error {
	return &Error{Code: CodeInvalidRequest, Message: message, Data: data}
}

func MethodNotFound(message string, data any) *Error {
	return &Error{Code: CodeMethodNotFound, Message: message, Data: data}
}

func InvalidParams(message string, data any) *Error {
	return &Error{Code: CodeInvalidParams, Message: message, Data: data}
}

func InternalError(message string, data any) *Error {
	return &Error{Code: CodeInternalError, Message: message, Data: data}
}

// AsError reports whether err is, or wraps, a protocol error.
func AsError(err error) (*Error, bool) {
	var rpcErr *Error
	if errors.As(err, &rpcErr) && rpcErr != nil {
		return rpcErr, true
	}
	return nil, false
}

func usageErrorf(format string, args ...any) error {
	return errors.Wrapf(ErrUsage, format, args...)
}
