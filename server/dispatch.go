package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mobile-next/gestures/commands"
	"github.com/mobile-next/gestures/types"
)

// HandlerFunc is the signature for JSON-RPC method handlers
type HandlerFunc func(params json.RawMessage) (interface{}, error)

// paramsError marks a handler error caused by the caller's parameters
type paramsError struct {
	err error
}

func (e *paramsError) Error() string { return e.err.Error() }
func (e *paramsError) Unwrap() error { return e.err }

func invalidParams(format string, args ...interface{}) error {
	return &paramsError{err: fmt.Errorf(format, args...)}
}

// errorCode maps a handler error to its JSON-RPC code and title
func errorCode(err error) (int, string) {
	var pe *paramsError
	if errors.As(err, &pe) {
		return ErrCodeInvalidParams, errTitleInvalidParams
	}
	return ErrCodeServerError, errTitleServerError
}

// methodRegistry returns a map of method names to handler functions
func (s *Server) methodRegistry() map[string]HandlerFunc {
	return map[string]HandlerFunc{
		"session_create":       s.handleSessionCreate,
		"session_interpret":    s.handleSessionInterpret,
		"session_timer":        s.handleSessionTimer,
		"session_set_property": s.handleSessionSetProperty,
		"session_log":          s.handleSessionLog,
		"session_close":        s.handleSessionClose,
		"replay":               s.handleReplay,
		"properties":           s.handleProperties,
		"server.shutdown":      s.handleShutdown,
	}
}

// Execute dispatches a method call using the registry
func (s *Server) Execute(method string, params json.RawMessage) (interface{}, error) {
	handler, exists := s.methodRegistry()[method]
	if !exists {
		return nil, fmt.Errorf("method not found: %s", method)
	}
	return handler(params)
}

func decodeParams(params json.RawMessage, v interface{}, fields string) error {
	if len(params) == 0 {
		return invalidParams("'params' is required with fields: %s", fields)
	}
	if err := json.Unmarshal(params, v); err != nil {
		return invalidParams("invalid parameters: %v. Expected fields: %s", err, fields)
	}
	return nil
}

type SessionCreateParams struct {
	HardwareProperties *types.HardwareProperties `json:"hardwareProperties,omitempty"`
	LogCapacity        int                       `json:"logCapacity,omitempty"`
}

type SessionParams struct {
	SessionID string `json:"sessionId"`
}

type SessionInterpretParams struct {
	SessionID string          `json:"sessionId"`
	Events    json.RawMessage `json:"events"`
}

type SessionTimerParams struct {
	SessionID string   `json:"sessionId"`
	Now       *float64 `json:"now"`
}

type SessionSetPropertyParams struct {
	SessionID string      `json:"sessionId"`
	Name      string      `json:"name"`
	Value     interface{} `json:"value"`
}

type ReplayParams struct {
	Trace      json.RawMessage `json:"trace"`
	HonorProps []string        `json:"honorProps,omitempty"`
}

type PropertiesParams struct {
	SessionID string `json:"sessionId,omitempty"`
}

// InterpretResult is returned by session_interpret and session_timer
type InterpretResult struct {
	Gestures        []types.Gesture `json:"gestures"`
	PendingDeadline *float64        `json:"pendingDeadline"`
}

func (s *Server) handleSessionCreate(params json.RawMessage) (interface{}, error) {
	var p SessionCreateParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, invalidParams("invalid parameters: %v. Expected fields: hardwareProperties, logCapacity", err)
		}
	}

	hwprops := commands.DefaultHardwareProperties()
	if p.HardwareProperties != nil {
		hwprops = *p.HardwareProperties
	}

	session, err := s.sessions.Create(hwprops, p.LogCapacity)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"sessionId": session.ID}, nil
}

func (s *Server) handleSessionInterpret(params json.RawMessage) (interface{}, error) {
	var p SessionInterpretParams
	if err := decodeParams(params, &p, "sessionId, events"); err != nil {
		return nil, err
	}
	session, err := s.sessions.Get(p.SessionID)
	if err != nil {
		return nil, invalidParams("%v", err)
	}
	if len(p.Events) == 0 {
		return nil, invalidParams("'events' is required")
	}

	events, err := commands.ParseEvents(p.Events)
	if err != nil {
		return nil, invalidParams("invalid events: %v", err)
	}

	var result InterpretResult
	session.Do(func(pipeline *commands.Pipeline) {
		result.Gestures = pipeline.Run(events)
		result.PendingDeadline = pipeline.PendingDeadline()
	})
	if result.Gestures == nil {
		result.Gestures = []types.Gesture{}
	}
	return result, nil
}

func (s *Server) handleSessionTimer(params json.RawMessage) (interface{}, error) {
	var p SessionTimerParams
	if err := decodeParams(params, &p, "sessionId, now"); err != nil {
		return nil, err
	}
	if p.Now == nil {
		return nil, invalidParams("'now' is required")
	}
	session, err := s.sessions.Get(p.SessionID)
	if err != nil {
		return nil, invalidParams("%v", err)
	}

	result := InterpretResult{Gestures: []types.Gesture{}}
	session.Do(func(pipeline *commands.Pipeline) {
		if g := pipeline.Driver.HandleTimer(*p.Now); g != nil {
			result.Gestures = append(result.Gestures, *g)
		}
		result.PendingDeadline = pipeline.PendingDeadline()
	})
	return result, nil
}

func (s *Server) handleSessionSetProperty(params json.RawMessage) (interface{}, error) {
	var p SessionSetPropertyParams
	if err := decodeParams(params, &p, "sessionId, name, value"); err != nil {
		return nil, err
	}
	if p.Name == "" {
		return nil, invalidParams("'name' is required")
	}
	session, err := s.sessions.Get(p.SessionID)
	if err != nil {
		return nil, invalidParams("%v", err)
	}

	session.Do(func(pipeline *commands.Pipeline) {
		err = pipeline.Registry.Set(p.Name, p.Value)
	})
	if err != nil {
		return nil, invalidParams("%v", err)
	}
	return okResponse, nil
}

func (s *Server) handleSessionLog(params json.RawMessage) (interface{}, error) {
	var p SessionParams
	if err := decodeParams(params, &p, "sessionId"); err != nil {
		return nil, err
	}
	session, err := s.sessions.Get(p.SessionID)
	if err != nil {
		return nil, invalidParams("%v", err)
	}

	var data []byte
	session.Do(func(pipeline *commands.Pipeline) {
		data, err = pipeline.Driver.Log().Encode()
	})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

func (s *Server) handleSessionClose(params json.RawMessage) (interface{}, error) {
	var p SessionParams
	if err := decodeParams(params, &p, "sessionId"); err != nil {
		return nil, err
	}
	if !s.sessions.Remove(p.SessionID) {
		return nil, invalidParams("session not found: %s", p.SessionID)
	}
	return okResponse, nil
}

func (s *Server) handleReplay(params json.RawMessage) (interface{}, error) {
	var p ReplayParams
	if err := decodeParams(params, &p, "trace, honorProps"); err != nil {
		return nil, err
	}
	if len(p.Trace) == 0 {
		return nil, invalidParams("'trace' is required")
	}

	response := commands.ReplayCommand(commands.ReplayRequest{
		Trace:      p.Trace,
		HonorProps: p.HonorProps,
		PropsPath:  s.config.PropsFile,
	})
	if response.Status == "error" {
		return nil, invalidParams("%s", response.Error)
	}
	return response.Data, nil
}

func (s *Server) handleProperties(params json.RawMessage) (interface{}, error) {
	var p PropertiesParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, invalidParams("invalid parameters: %v. Expected fields: sessionId", err)
		}
	}

	if p.SessionID != "" {
		session, err := s.sessions.Get(p.SessionID)
		if err != nil {
			return nil, invalidParams("%v", err)
		}
		var out []commands.PropertyInfo
		session.Do(func(pipeline *commands.Pipeline) {
			out = commands.DescribeProperties(pipeline.Registry)
		})
		return commands.PropertiesResponse{Properties: out}, nil
	}

	response := commands.PropertiesCommand(commands.PropertiesRequest{PropsPath: s.config.PropsFile})
	if response.Status == "error" {
		return nil, fmt.Errorf("%s", response.Error)
	}
	return response.Data, nil
}

func (s *Server) handleShutdown(params json.RawMessage) (interface{}, error) {
	s.requestShutdown()
	return okResponse, nil
}
