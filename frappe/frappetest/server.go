// Package frappetest runs a fake Frappe site for tests.
package frappetest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gorilla/mux"
)

// Call is one request received by the fake site.
type Call struct {
	Method    string
	Args      map[string]any
	Auth      string
	RequestID string
}

// Handler answers one method call. A non-nil error body is sent with the
// given status; otherwise message is wrapped as {"message": ...}.
type Handler func(args map[string]any) Response

// Response is what a Handler sends back.
type Response struct {
	Status  int // 0 means 200
	Message any
	Error   map[string]any // raw error body for non-2xx responses
}

// Server is an httptest server that routes /api/method/{method} to
// registered handlers and records every call.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]Handler
	calls    []Call
}

// NewServer starts a fake site. Close it when done.
func NewServer() *Server {
	s := &Server{handlers: make(map[string]Handler)}
	r := mux.NewRouter()
	r.HandleFunc("/api/method/{method}", s.serveMethod).Methods(http.MethodPost, http.MethodGet)
	s.Server = httptest.NewServer(r)
	return s
}

// Handle registers fn for method, replacing any earlier handler.
func (s *Server) Handle(method string, fn Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = fn
}

// Reply registers a handler that always returns message.
func (s *Server) Reply(method string, message any) {
	s.Handle(method, func(map[string]any) Response {
		return Response{Message: message}
	})
}

// Calls returns the calls received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallsTo returns the calls received for method.
func (s *Server) CallsTo(method string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (s *Server) serveMethod(w http.ResponseWriter, r *http.Request) {
	method := mux.Vars(r)["method"]

	args := map[string]any{}
	if body, err := io.ReadAll(r.Body); err == nil && len(body) > 0 {
		if err := json.Unmarshal(body, &args); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"exc_type": "ValidationError", "exception": err.Error()})
			return
		}
	}

	s.mu.Lock()
	s.calls = append(s.calls, Call{
		Method:    method,
		Args:      args,
		Auth:      r.Header.Get("Authorization"),
		RequestID: r.Header.Get("X-Request-ID"),
	})
	h, ok := s.handlers[method]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"exc_type":  "DoesNotExistError",
			"exception": "Method " + method + " not found",
		})
		return
	}

	resp := h(args)
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	if status < 200 || status > 299 {
		writeJSON(w, status, resp.Error)
		return
	}
	writeJSON(w, status, map[string]any{"message": resp.Message})
}

// ServerMessages encodes msgs the way Frappe encodes _server_messages.
func ServerMessages(msgs ...string) string {
	encoded := make([]string, 0, len(msgs))
	for _, m := range msgs {
		b, _ := json.Marshal(map[string]string{"message": m})
		encoded = append(encoded, string(b))
	}
	b, _ := json.Marshal(encoded)
	return string(b)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
