package daemon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mobile-next/gestures/server"
	"github.com/sevlyar/go-daemon"
)

const (
	// DaemonEnvVar is the environment variable that marks a daemon child process
	DaemonEnvVar = "GESTURES_DAEMON_CHILD"

	// shutdownRequestID is the JSON-RPC request ID for shutdown commands
	shutdownRequestID = 1

	readyPollInterval = 100 * time.Millisecond
)

// Daemonize detaches the process and returns the child process handle
// If the returned process is nil, this is the child process
// If the returned process is non-nil, this is the parent process
func Daemonize() (*os.Process, error) {
	// no PID file needed
	// we don't want log file, server handles its own logging
	ctx := &daemon.Context{
		PidFileName: "",
		PidFilePerm: 0,
		LogFileName: "",
		LogFilePerm: 0,
		WorkDir:     "/",
		Umask:       027,
		Args:        os.Args,
		Env:         append(os.Environ(), fmt.Sprintf("%s=1", DaemonEnvVar)),
	}

	child, err := ctx.Reborn()
	if err != nil {
		return nil, fmt.Errorf("failed to daemonize: %w", err)
	}

	return child, nil
}

// IsChild returns true if this is the daemon child process
func IsChild() bool {
	return os.Getenv(DaemonEnvVar) == "1"
}

// ServerURL turns a listen address into the base URL of the server
func ServerURL(addr string) string {
	// if no colon, assume it's a bare port number
	if !strings.Contains(addr, ":") {
		// validate it's a number
		if _, err := strconv.Atoi(addr); err == nil {
			addr = ":" + addr
		}
	}

	// if address starts with colon, prepend localhost
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}

	// prepend http:// scheme
	return "http://" + addr
}

// banner is what the server answers on /
type banner struct {
	Status  string `json:"status"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

// WaitReady polls the server banner until a gestures server answers on addr
// or the timeout passes. It returns the version the server reports.
func WaitReady(addr string, timeout time.Duration) (string, error) {
	base := ServerURL(addr)
	client := &http.Client{Timeout: readyPollInterval}
	deadline := time.Now().Add(timeout)

	var lastErr error
	for {
		version, err := readBanner(client, base)
		if err == nil {
			return version, nil
		}
		lastErr = err

		if time.Now().After(deadline) {
			return "", fmt.Errorf("server on %s not ready after %s: %w", base, timeout, lastErr)
		}
		time.Sleep(readyPollInterval)
	}
}

func readBanner(client *http.Client, base string) (string, error) {
	resp, err := client.Get(base + "/")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var b banner
	if err := json.NewDecoder(resp.Body).Decode(&b); err != nil {
		return "", fmt.Errorf("unexpected answer: %w", err)
	}
	// something else may be listening on the port
	if b.Name != server.ServerName {
		return "", fmt.Errorf("%s is not a gestures server", base)
	}
	return b.Version, nil
}

// KillServer connects to the server and sends a shutdown command via JSON-RPC
func KillServer(addr string) error {
	// normalize address to match server's format
	base := ServerURL(addr)

	// create JSON-RPC request
	reqBody := server.JSONRPCRequest{
		JSONRPC: "2.0",
		Method:  "server.shutdown",
		ID:      shutdownRequestID,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	// send request
	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequest(http.MethodPost, base+"/rpc", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		if strings.Contains(err.Error(), "connection refused") {
			return fmt.Errorf("server is not running on %s", base)
		}
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	// check response
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned error: %s", resp.Status)
	}

	// a JSON-RPC error still comes back as 200
	var rpcResp server.JSONRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("failed to decode shutdown response: %w", err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("server refused shutdown: %v", rpcResp.Error)
	}
	return nil
}
