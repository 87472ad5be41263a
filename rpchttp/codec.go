package rpchttp

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

const (
	contentTypeJSON = "application/json"
	contentTypeCBOR = "application/cbor"
)

type codec struct {
	contentType string
	decode      func(body []byte) (any, error)
	encode      func(w io.Writer, v any) error
}

// CBOR maps decode to map[string]any so that messages look the same as
// decoded JSON to the loader.
var cborDecMode = func() cbor.DecMode {
	dm, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}()

var (
	jsonCodec = codec{
		contentType: contentTypeJSON,
		decode:      decodeJSON,
		encode: func(w io.Writer, v any) error {
			enc := json.NewEncoder(w)
			enc.SetEscapeHTML(false)
			return enc.Encode(v)
		},
	}

	cborCodec = codec{
		contentType: contentTypeCBOR,
		decode: func(body []byte) (any, error) {
			var v any
			err := cborDecMode.Unmarshal(body, &v)
			return v, err
		},
		encode: func(w io.Writer, v any) error {
			return cbor.NewEncoder(w).Encode(v)
		},
	}
)

// codecFor picks the codec for a request Content-Type. An empty
// Content-Type is treated as JSON.
func codecFor(contentType string) (codec, bool) {
	if contentType == "" {
		return jsonCodec, true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return codec{}, false
	}
	switch mediaType {
	case contentTypeJSON:
		return jsonCodec, true
	case contentTypeCBOR:
		return cborCodec, true
	}
	return codec{}, false
}

// decodeJSON keeps numbers as json.Number so that large integer ids are
// echoed back exactly.
func decodeJSON(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("rpchttp: trailing data after JSON value")
	}
	return v, nil
}
