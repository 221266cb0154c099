// Package mcp implements the JSON-RPC tool-invocation protocol served on
// POST /mcp: method discovery, the lifecycle handshake, and single-tool
// invocation behind an optional bearer-token gate.
package mcp

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

var rpcRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "xsen_mcp_requests_total",
	Help: "JSON-RPC requests by method.",
}, []string{"method"})

// Options configures the MCP dispatcher.
type Options struct {
	ServerName string
	Version    string
	Registry   *Registry

	// AuthEnabled is an explicit deployment choice; an empty secret with
	// the gate enabled still means open, matching the bypass-when-unset
	// contract.
	AuthEnabled bool
	AuthSecret  string
}

// Server implements http.Handler for MCP JSON-RPC. The protocol is
// stateless across requests: "initialize" and "notifications/initialized"
// are advisory markers and do not gate later calls.
type Server struct {
	name     string
	version  string
	registry *Registry

	authEnabled bool
	authSecret  string
}

// New creates a new MCP dispatcher.
func New(opts Options) *Server {
	return &Server{
		name:        opts.ServerName,
		version:     opts.Version,
		registry:    opts.Registry,
		authEnabled: opts.AuthEnabled,
		authSecret:  opts.AuthSecret,
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "only POST supported", http.StatusMethodNotAllowed)
		return
	}

	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close request body")
		}
	}()

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeResponse(w, http.StatusOK, errorResponse(nil, CodeInvalidRequest, "unreadable request body"))
		return
	}

	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		// The id is unrecoverable from an unparseable body.
		writeResponse(w, http.StatusOK, errorResponse(nil, CodeInvalidRequest, "malformed request envelope"))
		return
	}

	if err := s.authorize(r); err != nil {
		writeResponse(w, http.StatusUnauthorized, errorResponse(req.ID, CodeInvalidRequest, err.Error()))
		return
	}

	if req.JSONRPC != "2.0" {
		writeResponse(w, http.StatusOK, errorResponse(req.ID, CodeInvalidRequest, "unsupported jsonrpc version"))
		return
	}

	resp := s.dispatch(r, &req)
	if resp == nil {
		// Notification without an id: acknowledged with no body.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeResponse(w, http.StatusOK, *resp)
}

// authorize enforces the bearer-token gate before any method routing.
func (s *Server) authorize(r *http.Request) error {
	if !s.authEnabled || s.authSecret == "" {
		return nil
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return errors.New("unauthorized: missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return errors.New("unauthorized: authorization header must be a bearer token")
	}
	token := strings.TrimSpace(header[7:])
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.authSecret)) != 1 {
		return errors.New("unauthorized: invalid bearer token")
	}
	return nil
}

// dispatch routes a validated request. Panics inside method handlers are
// contained here and mapped to an internal error with a null id: the
// request context cannot be trusted once a handler has blown up.
func (s *Server) dispatch(r *http.Request, req *Request) (resp *Response) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Str("method", req.Method).Msg("method handler panicked")
			e := errorResponse(nil, CodeInternalError, "internal error")
			resp = &e
		}
	}()

	rpcRequests.WithLabelValues(methodLabel(req.Method)).Inc()

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		if req.ID == nil {
			return nil
		}
		return &Response{JSONRPC: "2.0", ID: req.ID, Result: map[string]interface{}{}}
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(r, req)
	default:
		e := errorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("method %s not found", req.Method))
		return &e
	}
}

// methodLabel collapses non-routed methods to a fixed label; the method
// string is client-supplied and must not mint metric series.
func methodLabel(method string) string {
	switch method {
	case "initialize", "notifications/initialized", "tools/list", "tools/call":
		return method
	}
	return "unknown"
}

func (s *Server) handleInitialize(req *Request) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": ProtocolVersion,
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    s.name,
				"version": s.version,
			},
		},
	}
}

func (s *Server) handleToolsList(req *Request) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  map[string]interface{}{"tools": s.registry.List()},
	}
}

func (s *Server) handleToolsCall(r *http.Request, req *Request) *Response {
	var params struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments"`
	}
	if err := decodeParams(req.Params, &params); err != nil {
		e := errorResponse(req.ID, err.Code, err.Message)
		return &e
	}
	if params.Arguments == nil {
		params.Arguments = map[string]interface{}{}
	}

	text, err := s.registry.Invoke(r.Context(), params.Name, params.Arguments)
	if err != nil {
		if errors.Is(err, ErrToolNotFound) {
			e := errorResponse(req.ID, CodeMethodNotFound, err.Error())
			return &e
		}
		// Detail stays server-side; the client gets a generic error.
		log.Error().Err(err).Str("tool", params.Name).Msg("tool invocation failed")
		e := errorResponse(req.ID, CodeInternalError, "internal error")
		return &e
	}

	return &Response{JSONRPC: "2.0", ID: req.ID, Result: TextResult(text)}
}

func decodeParams(raw *json.RawMessage, v interface{}) *Error {
	if raw == nil {
		return &Error{Code: CodeInvalidRequest, Message: "missing params"}
	}
	if err := json.Unmarshal(*raw, v); err != nil {
		return &Error{Code: CodeInvalidRequest, Message: fmt.Sprintf("invalid params: %v", err)}
	}
	return nil
}

func errorResponse(id interface{}, code int, message string) Response {
	return Response{
		JSONRPC: "2.0",
		ID:      id,
		Error: &Error{
			Code:    code,
			Message: message,
		},
	}
}

func writeResponse(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func writeCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
}
