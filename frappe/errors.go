package frappe

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNotFound matches a missing document or method.
	ErrNotFound = errors.New("frappe: not found")
	// ErrPermission matches a call the session is not allowed to make.
	ErrPermission = errors.New("frappe: permission denied")
)

// Error is a failed RPC as reported by the site.
type Error struct {
	Method     string
	StatusCode int
	ExcType    string   // e.g. ValidationError, DoesNotExistError
	Messages   []string // user-facing messages, if any
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d", e.Method, e.StatusCode)
	if e.ExcType != "" {
		b.WriteString(" " + e.ExcType)
	}
	if len(e.Messages) > 0 {
		b.WriteString(": " + strings.Join(e.Messages, "; "))
	}
	return b.String()
}

// Is reports whether the error matches ErrNotFound or ErrPermission.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound || e.ExcType == "DoesNotExistError"
	case ErrPermission:
		return e.StatusCode == http.StatusForbidden || e.ExcType == "PermissionError"
	}
	return false
}

type errorBody struct {
	ExcType        string `json:"exc_type"`
	Exception      string `json:"exception"`
	ServerMessages string `json:"_server_messages"`
}

// parseError builds an *Error from a non-2xx response body. Bodies that
// are not JSON (proxy error pages) keep only the status code.
func parseError(method string, status int, raw []byte) *Error {
	e := &Error{Method: method, StatusCode: status}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return e
	}
	e.ExcType = body.ExcType
	e.Messages = serverMessages(body.ServerMessages)
	if len(e.Messages) == 0 && body.Exception != "" {
		e.Messages = []string{body.Exception}
	}
	return e
}

// serverMessages unpacks _server_messages: a JSON list of JSON-encoded
// objects, each with a "message" field.
func serverMessages(s string) []string {
	if s == "" {
		return nil
	}
	var encoded []string
	if err := json.Unmarshal([]byte(s), &encoded); err != nil {
		return nil
	}
	msgs := make([]string, 0, len(encoded))
	for _, item := range encoded {
		var m struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal([]byte(item), &m); err == nil && m.Message != "" {
			msgs = append(msgs, m.Message)
			continue
		}
		msgs = append(msgs, item)
	}
	return msgs
}
