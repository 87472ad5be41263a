package jsonrpc

// Version is the protocol version tag this package speaks.
const Version = "2.0"

// Params holds call parameters in exactly one of two shapes: an ordered
// list (by position) or a mapping (by name). The zero value is an empty list.
type Params struct {
	list   []any
	named  map[string]any
	byName bool
}

// ParamsList returns positional params.
func ParamsList(values ...any) Params {
	return Params{list: values}
}

// ParamsMap returns named params. A nil map is treated as empty.
func ParamsMap(values map[string]any) Params {
	if values == nil {
		values = map[string]any{}
	}
	return Params{named: values, byName: true}
}

// ByName reports whether the params are a name->value mapping.
func (p Params) ByName() bool { return p.byName }

// List returns the positional values, or nil for named params.
func (p Params) List() []any {
	if p.byName {
		return nil
	}
	return p.list
}

// Map returns the named values, or nil for positional params.
func (p Params) Map() map[string]any {
	if !p.byName {
		return nil
	}
	return p.named
}

func (p Params) Len() int {
	if p.byName {
		return len(p.named)
	}
	return len(p.list)
}

// Value returns the params in their wire shape: []any or map[string]any.
func (p Params) Value() any {
	if p.byName {
		return p.named
	}
	if p.list == nil {
		return []any{}
	}
	return p.list
}

// Call is the part shared by requests and notifications.
type Call struct {
	JSONRPC string
	Method  string
	Params  Params
}

// Message is either a *Request or a *Notification.
type Message interface {
	call() *Call
}

// Request expects a response. ID is round-tripped unchanged and may be nil
// when the client sent "id": null.
type Request struct {
	Call
	ID any
}

// Notification has no id and never produces a response.
type Notification struct {
	Call
}

func (r *Request) call() *Call      { return &r.Call }
func (n *Notification) call() *Call { return &n.Call }

// messageID returns the id to echo for msg, or nil when there is none.
func messageID(msg Message) any {
	if req, ok := msg.(*Request); ok {
		return req.ID
	}
	return nil
}

// SuccessResponse carries the result of a request.
type SuccessResponse struct {
	JSONRPC string
	ID      any
	Result  any
}

func (r *SuccessResponse) Map() map[string]any {
	return map[string]any{
		"jsonrpc": r.JSONRPC,
		"id":      r.ID,
		"result":  r.Result,
	}
}

// ErrorResponse carries a protocol error. ID is nil when the failing
// message could not be identified.
type ErrorResponse struct {
	JSONRPC string
	ID      any
	Error   *Error
}

func (r *ErrorResponse) Map() map[string]any {
	return map[string]any{
		"jsonrpc": r.JSONRPC,
		"id":      r.ID,
		"error":   r.Error.Map(),
	}
}
