package wsserver

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/yndnr/scuttlekit-go/internal/core/domain"
)

// Protocol methods.
const (
	MethodAuth       = "auth"
	MethodGetService = "getService"
)

// Request is an inbound frame.
type Request struct {
	ID     json.RawMessage   `json:"id,omitempty"`
	Method string            `json:"method"`
	Args   []json.RawMessage `json:"args,omitempty"`
}

// Response is an outbound frame. Result holds the encoded value, so a nil
// result is sent as null rather than dropped.
type Response struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ErrorBody      `json:"error,omitempty"`
	Stream bool            `json:"stream,omitempty"`
	End    bool            `json:"end,omitempty"`
}

// ErrorBody is the wire form of a domain error.
type ErrorBody struct {
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AuthResult is the result of a successful auth frame.
type AuthResult struct {
	Authenticated bool   `json:"authenticated"`
	App           string `json:"app"`
}

// rawRequest holds the fields of a frame before they are typed, so the id
// survives a badly shaped method or args.
type rawRequest struct {
	ID     json.RawMessage `json:"id"`
	Method json.RawMessage `json:"method"`
	Args   json.RawMessage `json:"args"`
}

// decodeRequest parses a frame. The returned Request carries the frame's id
// whenever the frame is a JSON object, even if it is rejected.
func decodeRequest(data []byte) (Request, error) {
	var raw rawRequest
	if err := json.Unmarshal(data, &raw); err != nil {
		return Request{}, domain.ErrProtocol.WithDetails("frame is not a JSON object")
	}
	req := Request{ID: raw.ID}
	if isNull(raw.ID) {
		req.ID = nil
	}

	if !isNull(raw.Method) {
		if err := json.Unmarshal(raw.Method, &req.Method); err != nil {
			return req, domain.ErrProtocol.WithDetails("method must be a string")
		}
	}
	if req.Method == "" {
		return req, domain.ErrProtocol.WithDetails("frame has no method")
	}

	if !isNull(raw.Args) {
		if err := json.Unmarshal(raw.Args, &req.Args); err != nil {
			return req, domain.ErrProtocol.WithDetails("args must be an array")
		}
	}
	return req, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// stringArg decodes args[i] as a non-empty string.
func stringArg(args []json.RawMessage, i int, name string) (string, error) {
	if len(args) <= i {
		return "", domain.ErrProtocol.WithDetails("missing argument: " + name)
	}
	var s string
	if err := json.Unmarshal(args[i], &s); err != nil || s == "" {
		return "", domain.ErrProtocol.WithDetails(name + " must be a non-empty string")
	}
	return s, nil
}

func resultFrame(id json.RawMessage, v any) (Response, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Response{}, domain.ErrInternal.WithDetails("result is not serializable").WithCause(err)
	}
	return Response{ID: id, Result: raw}, nil
}

func errorFrame(id json.RawMessage, err error) Response {
	return Response{ID: id, Error: errorBody(err)}
}

// errorBody maps err onto the taxonomy. Causes are never put on the wire.
func errorBody(err error) *ErrorBody {
	if errors.Is(err, context.DeadlineExceeded) && !domain.IsDomainError(err, "") {
		err = domain.ErrTimeout
	}
	de := domain.AsDomainError(err)

	msg := de.Message
	if de.Details != "" {
		msg += ": " + de.Details
	}
	return &ErrorBody{Kind: de.Kind(), Code: de.Code, Message: msg}
}
