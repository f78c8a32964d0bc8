package socket

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
)

// Client connects to the acmatch daemon over a Unix socket.
type Client struct {
	sockPath string
	timeout  time.Duration
}

// NewClient creates a client that will connect to the given socket path.
func NewClient(sockPath string) *Client {
	return &Client{sockPath: sockPath, timeout: 30 * time.Second}
}

// Create sends a create request and returns the registered dictionary.
func (c *Client) Create(p CreateParams) (*DictionaryInfo, error) {
	var result DictionaryInfo
	if err := c.call(MethodCreate, p, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Delete removes a dictionary and reports whether it existed.
func (c *Client) Delete(key string) (bool, error) {
	var result DeleteResult
	if err := c.call(MethodDelete, KeyParams{Key: key}, &result); err != nil {
		return false, err
	}
	return result.Removed, nil
}

// Clear removes every dictionary and returns how many were removed.
func (c *Client) Clear() (int, error) {
	var result ClearResult
	if err := c.call(MethodClear, nil, &result); err != nil {
		return 0, err
	}
	return result.Removed, nil
}

// List returns every known dictionary.
func (c *Client) List() (*ListResult, error) {
	var result ListResult
	if err := c.call(MethodList, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Search sends a search request and returns the result.
func (c *Client) Search(p SearchParams) (*SearchResult, error) {
	var result SearchResult
	if err := c.call(MethodSearch, p, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SearchBatch searches several texts with one dictionary.
func (c *Client) SearchBatch(p BatchParams) (*BatchResult, error) {
	var result BatchResult
	if err := c.call(MethodSearchBatch, p, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Contains reports whether any word of the dictionary occurs in the text.
func (c *Client) Contains(p SearchParams) (bool, error) {
	var result ContainsResult
	if err := c.call(MethodContains, p, &result); err != nil {
		return false, err
	}
	return result.Found, nil
}

// Find sends a one-shot find request.
func (c *Client) Find(p FindParams) (*SearchResult, error) {
	var result SearchResult
	if err := c.call(MethodFind, p, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Health sends a health check request.
func (c *Client) Health() (*HealthResult, error) {
	var result HealthResult
	if err := c.callWithTimeout(MethodHealth, nil, &result, 5*time.Second); err != nil {
		return nil, err
	}
	return &result, nil
}

// Shutdown sends a shutdown request to the daemon.
func (c *Client) Shutdown() error {
	return c.callWithTimeout(MethodShutdown, nil, nil, 5*time.Second)
}

// Ping checks if the daemon is reachable.
func (c *Client) Ping() bool {
	conn, err := net.DialTimeout("unix", c.sockPath, 500*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func (c *Client) call(method string, params, result any) error {
	return c.callWithTimeout(method, params, result, c.timeout)
}

// callWithTimeout sends one request and decodes the response's result into
// result (skipped when nil).
func (c *Client) callWithTimeout(method string, params, result any, timeout time.Duration) error {
	conn, err := net.DialTimeout("unix", c.sockPath, 2*time.Second)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	// Set deadline for the whole request/response
	conn.SetDeadline(time.Now().Add(timeout))

	req := Request{ID: uuid.NewString(), Method: method, Params: params}
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		return fmt.Errorf("empty response")
	}

	var resp struct {
		ID     string          `json:"id"`
		Result json.RawMessage `json:"result"`
		Error  string          `json:"error"`
		Code   string          `json:"code"`
	}
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	// Connection-level errors (such as an oversized request) carry no ID.
	if resp.ID != req.ID && !(resp.ID == "" && resp.Error != "") {
		return fmt.Errorf("response id %q does not match request id %q", resp.ID, req.ID)
	}
	if resp.Error != "" {
		return &RemoteError{Code: resp.Code, Message: resp.Error}
	}
	if result == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return fmt.Errorf("unmarshal result: %w", err)
	}
	return nil
}
