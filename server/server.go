package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mobile-next/gestures/props"
	"github.com/mobile-next/gestures/utils"
)

const (
	// Parse error: Invalid JSON was received by the server
	ErrCodeParseError = -32700

	// Invalid Request: The JSON sent is not a valid Request object
	ErrCodeInvalidRequest = -32600

	// Method not found: The method does not exist / is not available
	ErrCodeMethodNotFound = -32601

	// Invalid params: Invalid method parameters
	ErrCodeInvalidParams = -32602

	// Server error: Internal JSON-RPC error
	ErrCodeServerError = -32000
)

const (
	errTitleParseError    = "Parse error"
	errTitleInvalidReq    = "Invalid Request"
	errTitleMethodNotFnd  = "Method not found"
	errTitleInvalidParams = "Invalid params"
	errTitleServerError   = "Server error"

	errMsgParseError     = "expecting jsonrpc payload"
	errMsgInvalidJSONRPC = "'jsonrpc' must be '2.0'"
	errMsgIDRequired     = "'id' field is required"
	errMsgMethodRequired = "'method' is required"
	errMsgTextOnly       = "only text messages accepted for requests"
)

// Server timeouts
const (
	ReadTimeout     = 10 * time.Second
	WriteTimeout    = 10 * time.Second
	IdleTimeout     = 120 * time.Second
	ShutdownTimeout = 5 * time.Second
)

// ServerName is reported in the banner on /
const ServerName = "gestures"

var okResponse = map[string]interface{}{"status": "ok"}

type JSONRPCRequest struct {
	// these fields are all omitempty, so we can report back to client if they are missing
	JSONRPC string          `json:"jsonrpc,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC response
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   interface{} `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

type rpcError struct {
	code    int
	message string
	data    string
}

// validateJSONRPCRequest checks the envelope shared by /rpc and /ws
func validateJSONRPCRequest(req JSONRPCRequest) *rpcError {
	if req.JSONRPC != "2.0" {
		return &rpcError{ErrCodeInvalidRequest, errTitleInvalidReq, errMsgInvalidJSONRPC}
	}
	if req.ID == nil {
		return &rpcError{ErrCodeInvalidRequest, errTitleInvalidReq, errMsgIDRequired}
	}
	if req.Method == "" {
		return &rpcError{ErrCodeInvalidRequest, errTitleInvalidReq, errMsgMethodRequired}
	}
	return nil
}

// Server hosts interpreter sessions over JSON-RPC
type Server struct {
	config   Config
	sessions *SessionStore
	watcher  *props.Watcher

	shutdownOnce sync.Once
	shutdown     chan struct{}
}

// NewServer creates a server from cfg. Nothing listens until Start.
func NewServer(cfg Config) (*Server, error) {
	sessions, err := NewSessionStore(cfg.MaxSessions, cfg.LogCapacity, cfg.PropsFile)
	if err != nil {
		return nil, err
	}

	return &Server{
		config:   cfg,
		sessions: sessions,
		shutdown: make(chan struct{}),
	}, nil
}

// Sessions exposes the live session store
func (s *Server) Sessions() *SessionStore {
	return s.sessions
}

// Done is closed once a shutdown has been requested
func (s *Server) Done() <-chan struct{} {
	return s.shutdown
}

func (s *Server) requestShutdown() {
	s.shutdownOnce.Do(func() {
		utils.Info("Shutdown requested")
		close(s.shutdown)
	})
}

// WatchProperties reapplies the override file to every session whenever
// it changes. It does nothing when no file is configured.
func (s *Server) WatchProperties() error {
	if s.config.PropsFile == "" || s.watcher != nil {
		return nil
	}

	watcher := props.NewWatcher(s.config.PropsFile, s.sessions.ApplyProperties)
	if err := watcher.Start(); err != nil {
		return err
	}
	s.watcher = watcher

	go func() {
		for {
			select {
			case err := <-watcher.Errors():
				utils.WithFields(map[string]interface{}{"file": s.config.PropsFile}).WithError(err).Warn("property reload failed")
			case <-watcher.Done():
				return
			}
		}
	}()
	return nil
}

// Close stops the override file watcher
func (s *Server) Close() error {
	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Close()
	s.watcher = nil
	return err
}

// corsMiddleware handles CORS preflight requests and adds CORS headers to responses.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Handler returns the HTTP routes: a banner on /, JSON-RPC on /rpc and
// JSON-RPC over websocket on /ws
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", sendBanner)
	mux.HandleFunc("/rpc", s.handleJSONRPC)
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		s.handleWebSocket(w, r)
	})

	if s.config.CORS {
		return corsMiddleware(mux)
	}
	return mux
}

// normalizeAddr turns a bare port into ":port"
func normalizeAddr(addr string) (string, error) {
	if strings.Contains(addr, ":") {
		return addr, nil
	}

	port, err := strconv.Atoi(addr)
	if err != nil {
		return "", fmt.Errorf("invalid port: %v", err)
	}
	return fmt.Sprintf(":%d", port), nil
}

// Start listens until a server.shutdown request arrives or the listener
// fails
func (s *Server) Start() error {
	addr, err := normalizeAddr(s.config.Listen)
	if err != nil {
		return err
	}

	if err := s.WatchProperties(); err != nil {
		utils.Warn("not watching %s: %v", s.config.PropsFile, err)
	}
	defer s.Close()

	server := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
		IdleTimeout:  IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		utils.Info("Starting server on http://%s...", server.Addr)
		errChan <- server.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		return err
	case <-s.shutdown:
	}

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	if err := <-errChan; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	utils.Info("Server stopped")
	return nil
}

// StartServer loads the environment configuration, applies the command
// line overrides and runs the server
func StartServer(addr string, enableCORS bool) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Listen = addr
	}
	if enableCORS {
		cfg.CORS = true
	}

	s, err := NewServer(*cfg)
	if err != nil {
		return err
	}
	return s.Start()
}

func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONRPCError(w, nil, ErrCodeParseError, errTitleParseError, errMsgParseError)
		return
	}

	if rpcErr := validateJSONRPCRequest(req); rpcErr != nil {
		sendJSONRPCError(w, req.ID, rpcErr.code, rpcErr.message, rpcErr.data)
		return
	}

	result, rpcErr := s.call(req)
	if rpcErr != nil {
		sendJSONRPCError(w, req.ID, rpcErr.code, rpcErr.message, rpcErr.data)
		return
	}

	sendJSONRPCResponse(w, req.ID, result)
}

// call runs a validated request
func (s *Server) call(req JSONRPCRequest) (interface{}, *rpcError) {
	log := utils.WithFields(map[string]interface{}{
		"id":     req.ID,
		"method": req.Method,
	})
	log.Debugf("params: %s", string(req.Params))

	handler, exists := s.methodRegistry()[req.Method]
	if !exists {
		return nil, &rpcError{ErrCodeMethodNotFound, errTitleMethodNotFnd, fmt.Sprintf("Method '%s' not found", req.Method)}
	}

	start := time.Now()
	result, err := handler(req.Params)
	if err != nil {
		log.WithError(err).Warn("request failed")
		code, title := errorCode(err)
		return nil, &rpcError{code, title, err.Error()}
	}

	log.WithField("duration", time.Since(start)).Info("request handled")
	return result, nil
}

func sendJSONRPCResponse(w http.ResponseWriter, id interface{}, result interface{}) {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

func sendJSONRPCError(w http.ResponseWriter, id interface{}, code int, message string, data interface{}) {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Error: map[string]interface{}{
			"code":    code,
			"message": message,
			"data":    data,
		},
		ID: id,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

func sendBanner(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"name":    ServerName,
		"version": utils.Version(),
	})
}
