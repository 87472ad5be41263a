package jsonrpc

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func nop(Args) (any, error) { return nil, nil }

func asyncNop(context.Context, Args) (any, error) { return nil, nil }

func TestValidate(t *testing.T) {
	request := func(params Params) Message {
		return &Request{Call: Call{JSONRPC: Version, Method: "m", Params: params}, ID: 1}
	}
	notification := func(params Params) Message {
		return &Notification{Call: Call{JSONRPC: Version, Method: "m", Params: params}}
	}

	tests := []struct {
		name     string
		msg      Message
		method   *Method
		mode     Mode
		wantCode int  // 0 means no protocol error
		wantUse  bool // expect ErrUsage
	}{
		{
			name:   "positional request",
			msg:    request(ParamsList(1)),
			method: MustMethod(nop, nil),
		},
		{
			name:   "named notification",
			msg:    notification(ParamsMap(nil)),
			method: MustMethod(nop, nil, ByName()),
		},
		{
			name:    "async method called blocking",
			msg:     request(ParamsList()),
			method:  MustAsyncMethod(asyncNop, nil),
			mode:    Blocking,
			wantUse: true,
		},
		{
			name:     "requests not allowed",
			msg:      request(ParamsList()),
			method:   MustMethod(nop, nil, WithRequests(false)),
			wantCode: CodeInvalidRequest,
		},
		{
			name:     "notifications not allowed",
			msg:      notification(ParamsList()),
			method:   MustMethod(nop, nil, WithNotifications(false)),
			wantCode: CodeInvalidRequest,
		},
		{
			name:     "named params to positional method",
			msg:      request(ParamsMap(map[string]any{"a": 1})),
			method:   MustMethod(nop, nil),
			wantCode: CodeInvalidParams,
		},
		{
			name:     "positional params to named method",
			msg:      request(ParamsList(1)),
			method:   MustMethod(nop, nil, ByName()),
			wantCode: CodeInvalidParams,
		},
		{
			name:     "allow rule wins over shape rule",
			msg:      request(ParamsList(1)),
			method:   MustMethod(nop, nil, ByName(), WithRequests(false)),
			wantCode: CodeInvalidRequest,
		},
		{
			name:    "mode rule wins over everything",
			msg:     request(ParamsList(1)),
			method:  MustMethod(nop, nil, ByName(), WithRequests(false)),
			mode:    Suspending,
			wantUse: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.msg, tt.method, tt.mode)
			switch {
			case tt.wantUse:
				require.True(t, errors.Is(err, ErrUsage), "got %v", err)
				_, isRPC := AsError(err)
				require.False(t, isRPC)
			case tt.wantCode != 0:
				rpcErr, ok := AsError(err)
				require.True(t, ok, "got %v", err)
				require.Equal(t, tt.wantCode, rpcErr.Code)
			default:
				require.NoError(t, err)
			}
		})
	}
}
