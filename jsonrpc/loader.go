package jsonrpc

import (
	"encoding/json"
	"reflect"
	"sort"

	"github.com/pkg/errors"
)

// Loader turns decoded input into typed messages and arguments.
type Loader interface {
	// LoadMessage fails with InvalidRequest when raw is not a valid
	// request or notification object.
	LoadMessage(raw map[string]any) (Message, error)
	// LoadArgs binds params against the ordinary parameters of m. It fails
	// with InvalidParams on shape or type mismatch.
	LoadArgs(m *Method, ordinary []Param, params Params) ([]any, map[string]any, error)
}

// Dumper renders responses and errors into output mappings.
type Dumper interface {
	DumpResponse(resp *SuccessResponse) map[string]any
	// DumpError renders e for msg. msg is nil when the input could not be
	// decoded, in which case the id is null.
	DumpError(e *Error, msg Message) map[string]any
}

// MapLoader is the default Loader. It expects the loosely-typed values
// produced by encoding/json (or an equivalent decoder).
type MapLoader struct{}

var _ Loader = MapLoader{}

func (MapLoader) LoadMessage(raw map[string]any) (Message, error) {
	if raw == nil {
		return nil, InvalidRequest("Invalid request", "message must be an object")
	}

	version, ok := raw["jsonrpc"].(string)
	if !ok || version != Version {
		return nil, InvalidRequest("Invalid request", `jsonrpc member must be "2.0"`)
	}

	path, ok := raw["method"].(string)
	if !ok || path == "" {
		return nil, InvalidRequest("Invalid request", "method member must be a non-empty string")
	}

	var params Params
	switch p := raw["params"].(type) {
	case nil:
		// Absent params is an empty positional list.
		params = ParamsList()
	case []any:
		params = ParamsList(p...)
	case map[string]any:
		params = ParamsMap(p)
	default:
		return nil, InvalidRequest("Invalid request", "params member must be an array or an object")
	}

	call := Call{JSONRPC: version, Method: path, Params: params}

	id, hasID := raw["id"]
	if !hasID {
		return &Notification{Call: call}, nil
	}
	if !validID(id) {
		return nil, InvalidRequest("Invalid request", "id member must be a string, a number or null")
	}
	return &Request{Call: call, ID: id}, nil
}

func validID(id any) bool {
	switch id.(type) {
	case nil, string, json.Number,
		float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

func (MapLoader) LoadArgs(_ *Method, ordinary []Param, params Params) ([]any, map[string]any, error) {
	if params.ByName() {
		named, err := loadNamed(ordinary, params.Map())
		if err != nil {
			return nil, nil, err
		}
		return nil, named, nil
	}
	positional, err := loadPositional(ordinary, params.List())
	if err != nil {
		return nil, nil, err
	}
	return positional, map[string]any{}, nil
}

func loadPositional(ordinary []Param, values []any) ([]any, error) {
	if len(values) > len(ordinary) {
		return nil, InvalidParams("Invalid number of params", map[string]any{
			"expected": len(ordinary),
			"got":      len(values),
		})
	}

	out := make([]any, 0, len(values))
	for i, p := range ordinary {
		if i >= len(values) {
			if p.Optional {
				continue
			}
			return nil, InvalidParams("Missing param", p.Name)
		}
		v, err := convert(values[i], p.Type)
		if err != nil {
			return nil, InvalidParams("Invalid param", p.Name)
		}
		out = append(out, v)
	}
	return out, nil
}

func loadNamed(ordinary []Param, values map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(ordinary))
	known := make(map[string]bool, len(ordinary))

	for _, p := range ordinary {
		known[p.Name] = true
		raw, ok := values[p.Name]
		if !ok {
			if p.Optional {
				continue
			}
			return nil, InvalidParams("Missing param", p.Name)
		}
		if p.PositionalOnly {
			return nil, InvalidParams("Positional-only param passed by name", p.Name)
		}
		v, err := convert(raw, p.Type)
		if err != nil {
			return nil, InvalidParams("Invalid param", p.Name)
		}
		out[p.Name] = v
	}

	var unknown []string
	for name := range values {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, InvalidParams("Unexpected param", unknown[0])
	}
	return out, nil
}

// convert coerces a decoded value to t. Assignable values pass through;
// anything else is re-decoded through JSON, which turns float64 into int,
// objects into structs and so on.
func convert(v any, t reflect.Type) (any, error) {
	if t == nil {
		return v, nil
	}
	if v == nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
			return reflect.Zero(t).Interface(), nil
		}
		return nil, errors.Errorf("null is not a valid %v", t)
	}
	if reflect.TypeOf(v).AssignableTo(t) {
		return v, nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "re-encode param")
	}
	ptr := reflect.New(t)
	if err := json.Unmarshal(b, ptr.Interface()); err != nil {
		return nil, errors.Wrapf(err, "decode param as %v", t)
	}
	return ptr.Elem().Interface(), nil
}

// MapDumper is the default Dumper.
type MapDumper struct{}

var _ Dumper = MapDumper{}

func (MapDumper) DumpResponse(resp *SuccessResponse) map[string]any {
	return resp.Map()
}

func (MapDumper) DumpError(e *Error, msg Message) map[string]any {
	resp := &ErrorResponse{JSONRPC: Version, ID: messageID(msg), Error: e}
	return resp.Map()
}
