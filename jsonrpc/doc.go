// Package jsonrpc implements the message-processing core of a JSON-RPC 2.0
// server (https://www.jsonrpc.org/specification).
//
// The package works on already-decoded input: a map[string]any as produced
// by encoding/json or an equivalent decoder. Transports (see rpchttp and
// rpcstream) own the wire encoding.
//
// # Basic Usage
//
// Describe methods, register them, and process messages:
//
//	add := jsonrpc.MustMethod(func(args jsonrpc.Args) (any, error) {
//	    a, _ := jsonrpc.At[int](args, 0)
//	    b, _ := jsonrpc.At[int](args, 1)
//	    return a + b, nil
//	}, []jsonrpc.Param{jsonrpc.Arg[int]("a"), jsonrpc.Arg[int]("b")})
//
//	r := jsonrpc.NewRegistry()
//	r.MustRegister("add", add)
//
//	p := jsonrpc.NewProcessor[map[string]any](r)
//	out := p.Process(input, nil) // nil for notifications
//
// # Methods
//
// A Method carries its invocation rules: whether it answers requests,
// accepts notifications, and takes params by position (the default) or by
// name (ByName). Parameters are declared up front with Arg and Dep; nothing
// is derived from the function signature.
//
// Blocking methods (NewMethod) are invoked by Process. Suspend-capable
// methods (NewAsyncMethod) take a context.Context and are invoked by
// ProcessContext. Calling one through the other entry point is a usage
// error reported as an internal error.
//
// # Dependencies
//
// Parameters declared with Dep are resolved by type from a Container:
//
//	c := jsonrpc.NewContainer(jsonrpc.Provide[*sql.DB](db))
//	p := jsonrpc.NewProcessor[map[string]any](r, jsonrpc.WithResolver(c))
//
// If the per-call context is a map[string]any (or a Valuer) its entries are
// added to the named arguments last, overriding dependencies of the same
// name.
//
// # Error Handling
//
// Return an *Error for protocol-level errors:
//
//	return nil, jsonrpc.NewError(-1000, "division by zero")
//
// Any other error is looked up in the ExceptionConfig (see ErrorFilters).
// Unmatched errors are logged together with the raw input and reported as
// CodeInternalError "Unexpected error", with the raw input as data and no
// detail from the error itself.
//
// Standard error codes are defined as constants:
//   - CodeParseError (-32700)
//   - CodeInvalidRequest (-32600)
//   - CodeMethodNotFound (-32601)
//   - CodeInvalidParams (-32602)
//   - CodeInternalError (-32603)
//
// Notifications never produce output; their failures are only logged.
package jsonrpc
