package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mobile-next/gestures/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupWebSocketServer(t *testing.T, enableCORS bool) string {
	cfg := testConfig()
	cfg.CORS = enableCORS
	_, ts := newTestServer(t, cfg)
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func connectWebSocket(t *testing.T, url string) *websocket.Conn {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err, "should connect to WebSocket")
	return conn
}

func sendJSONRPCRequest(t *testing.T, conn *websocket.Conn, req JSONRPCRequest) {
	err := conn.WriteJSON(req)
	require.NoError(t, err, "should send request")
}

func readJSONRPCResponse(t *testing.T, conn *websocket.Conn) JSONRPCResponse {
	var resp JSONRPCResponse
	err := conn.ReadJSON(&resp)
	require.NoError(t, err, "should read response")
	return resp
}

func TestWebSocket_ValidRequest(t *testing.T) {
	conn := connectWebSocket(t, setupWebSocketServer(t, false))
	defer conn.Close()

	sendJSONRPCRequest(t, conn, JSONRPCRequest{
		JSONRPC: "2.0",
		Method:  "properties",
		Params:  json.RawMessage(`{}`),
		ID:      1,
	})
	resp := readJSONRPCResponse(t, conn)

	assert.Equal(t, "2.0", resp.JSONRPC)
	assert.Equal(t, 1, int(resp.ID.(float64)))
	assert.Nil(t, resp.Error)
	assert.NotNil(t, resp.Result)
}

func TestWebSocket_SessionStream(t *testing.T) {
	conn := connectWebSocket(t, setupWebSocketServer(t, false))
	defer conn.Close()

	sendJSONRPCRequest(t, conn, JSONRPCRequest{JSONRPC: "2.0", Method: "session_create", ID: "create"})
	resp := readJSONRPCResponse(t, conn)
	require.Nil(t, resp.Error)
	id := resp.Result.(map[string]interface{})["sessionId"].(string)

	// one frame per message, in order
	buttons := []uint32{types.ButtonLeft, 0, types.ButtonLeft}
	for i, b := range buttons {
		params, err := json.Marshal(map[string]interface{}{
			"sessionId": id,
			"events":    []interface{}{map[string]interface{}{"timestamp": float64(i + 1), "buttonsDown": b}},
		})
		require.NoError(t, err)
		sendJSONRPCRequest(t, conn, JSONRPCRequest{JSONRPC: "2.0", Method: "session_interpret", Params: params, ID: i})

		resp := readJSONRPCResponse(t, conn)
		var result InterpretResult
		decodeResult(t, resp, &result)
		require.Len(t, result.Gestures, 1)
		assert.Equal(t, types.GestureTypeButtonsChange, result.Gestures[0].Type())
	}
}

func TestWebSocket_ValidationErrors(t *testing.T) {
	conn := connectWebSocket(t, setupWebSocketServer(t, false))
	defer conn.Close()

	tests := []struct {
		name     string
		req      JSONRPCRequest
		wantCode int
		wantMsg  string
		wantData string
	}{
		{"wrong version", JSONRPCRequest{JSONRPC: "1.0", Method: "properties", ID: 1}, ErrCodeInvalidRequest, errTitleInvalidReq, errMsgInvalidJSONRPC},
		{"missing id", JSONRPCRequest{JSONRPC: "2.0", Method: "properties"}, ErrCodeInvalidRequest, errTitleInvalidReq, errMsgIDRequired},
		{"missing method", JSONRPCRequest{JSONRPC: "2.0", ID: 1}, ErrCodeInvalidRequest, errTitleInvalidReq, errMsgMethodRequired},
		{"unknown method", JSONRPCRequest{JSONRPC: "2.0", Method: "nonexistent_method", ID: 1}, ErrCodeMethodNotFound, errTitleMethodNotFnd, "Method 'nonexistent_method' not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sendJSONRPCRequest(t, conn, tt.req)
			resp := readJSONRPCResponse(t, conn)

			assert.Equal(t, "2.0", resp.JSONRPC)
			errorMap := resp.Error.(map[string]interface{})
			assert.Equal(t, float64(tt.wantCode), errorMap["code"])
			assert.Equal(t, tt.wantMsg, errorMap["message"])
			assert.Equal(t, tt.wantData, errorMap["data"])
		})
	}
}

func TestWebSocket_InvalidJSON(t *testing.T) {
	conn := connectWebSocket(t, setupWebSocketServer(t, false))
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("invalid json")))
	resp := readJSONRPCResponse(t, conn)

	errorMap := resp.Error.(map[string]interface{})
	assert.Equal(t, float64(ErrCodeParseError), errorMap["code"])
	assert.Equal(t, errTitleParseError, errorMap["message"])
	assert.Equal(t, errMsgParseError, errorMap["data"])
}

func TestWebSocket_BinaryMessageRejected(t *testing.T) {
	conn := connectWebSocket(t, setupWebSocketServer(t, false))
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("binary data")))
	resp := readJSONRPCResponse(t, conn)

	errorMap := resp.Error.(map[string]interface{})
	assert.Equal(t, float64(ErrCodeInvalidRequest), errorMap["code"])
	assert.Equal(t, errTitleInvalidReq, errorMap["message"])
	assert.Equal(t, errMsgTextOnly, errorMap["data"])
}

func TestWebSocket_StringID(t *testing.T) {
	conn := connectWebSocket(t, setupWebSocketServer(t, false))
	defer conn.Close()

	sendJSONRPCRequest(t, conn, JSONRPCRequest{JSONRPC: "2.0", Method: "properties", ID: "string-id-123"})
	resp := readJSONRPCResponse(t, conn)

	assert.Equal(t, "string-id-123", resp.ID)
	assert.Nil(t, resp.Error)
}

func TestWebSocket_CORS(t *testing.T) {
	header := http.Header{}
	header.Set("Origin", "http://other.example")

	conn, _, err := websocket.DefaultDialer.Dial(setupWebSocketServer(t, true), header)
	require.NoError(t, err)
	conn.Close()

	_, resp, err := websocket.DefaultDialer.Dial(setupWebSocketServer(t, false), header)
	assert.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	}
}

func TestValidateJSONRPCRequest_Valid(t *testing.T) {
	assert.Nil(t, validateJSONRPCRequest(JSONRPCRequest{JSONRPC: "2.0", Method: "properties", ID: 1}))
}

func TestIsSameOrigin(t *testing.T) {
	tests := []struct {
		name     string
		origin   string
		host     string
		expected bool
	}{
		{"no origin header", "", "localhost:8080", true},
		{"same origin", "http://localhost:8080", "localhost:8080", true},
		{"different origin", "http://other.com", "localhost:8080", false},
		{"invalid origin url", "://invalid", "localhost:8080", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &http.Request{
				Header: http.Header{},
				Host:   tt.host,
			}
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.expected, isSameOrigin(req))
		})
	}
}

func TestWebSocket_ConcurrentConnections(t *testing.T) {
	wsURL := setupWebSocketServer(t, false)

	numConnections := 5
	done := make(chan bool, numConnections)

	for i := 0; i < numConnections; i++ {
		go func(id int) {
			defer func() { done <- true }()

			conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
			if !assert.NoError(t, err) {
				return
			}
			defer conn.Close()

			if !assert.NoError(t, conn.WriteJSON(JSONRPCRequest{JSONRPC: "2.0", Method: "session_create", ID: id})) {
				return
			}
			var resp JSONRPCResponse
			if !assert.NoError(t, conn.ReadJSON(&resp)) {
				return
			}
			assert.Equal(t, id, int(resp.ID.(float64)))
			assert.Nil(t, resp.Error)
		}(i)
	}

	for i := 0; i < numConnections; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatalf("connection %d timed out", i)
		}
	}
}
