package jsonrpc

import (
	"fmt"

	"github.com/pkg/errors"
)

// Validate checks that msg may be dispatched to m when invoked in mode.
//
// Rules are checked in order and the first failure wins: invocation mode,
// request allowed, notification allowed, params shape. A mode mismatch is
// an ErrUsage error, not a protocol error, so that a broken service is told
// apart from a misbehaving client.
func Validate(msg Message, m *Method, mode Mode) error {
	call := msg.call()
	path := call.Method

	if m.mode != mode {
		return errors.Wrapf(ErrUsage, "method %s is %s, but it is called as %s", path, m.mode, mode)
	}

	switch msg.(type) {
	case *Request:
		if !m.allowRequests {
			return InvalidRequest(
				fmt.Sprintf("Method %s can not process requests, omit the id member to send a notification", path),
				path,
			)
		}
	case *Notification:
		if !m.allowNotifications {
			return InvalidRequest(
				fmt.Sprintf("Method %s can not process notifications, specify the id member", path),
				path,
			)
		}
	}

	if m.byPosition && call.Params.ByName() {
		return InvalidParams(
			fmt.Sprintf("Method %s takes positional params, send params as an array", path),
			map[string]any{"params": call.Params.Value(), "method": path},
		)
	}
	if !m.byPosition && !call.Params.ByName() {
		return InvalidParams(
			fmt.Sprintf("Method %s takes params by name, send params as an object", path),
			map[string]any{"params": call.Params.Value(), "method": path},
		)
	}
	return nil
}
