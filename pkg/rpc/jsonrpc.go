package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedResponse is returned when the endpoint answers with something that is not a
// JSON-RPC envelope carrying a result.
var ErrMalformedResponse = errors.New("malformed rpc response")

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// RPCError is the error object of a JSON-RPC response.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func newRequest(method string, params []any) request {
	return request{JSONRPC: jsonRPCVersion, ID: requestID, Method: method, Params: params}
}

// decodeResult extracts the result member of a JSON-RPC response body into out.
func decodeResult(body []byte, out any) error {
	var env response
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if env.Error != nil {
		return env.Error
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return fmt.Errorf("%w: missing result", ErrMalformedResponse)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("%w: decode result: %v", ErrMalformedResponse, err)
	}
	return nil
}
