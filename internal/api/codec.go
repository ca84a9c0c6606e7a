// Package api declares the Connect services exposed by the server: their
// procedure names, request and response messages, handler constructors and
// typed clients.
//
// Messages are plain Go structs carried by a JSON codec registered under the
// "json" name, so both the Connect protocol and plain HTTP clients can call
// any procedure with POST /<service>/<Method> and a JSON body.
package api

import (
	"encoding/json"
	"net/http"

	"connectrpc.com/connect"
)

// JSONCodec marshals messages with encoding/json.
type JSONCodec struct{}

var _ connect.Codec = JSONCodec{}

// Name returns "json", replacing the default protojson codec.
func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (JSONCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
}

// mount dispatches requests under a service prefix to their procedure handler.
func mount(prefix string, handlers map[string]http.Handler) (string, http.Handler) {
	return prefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}
