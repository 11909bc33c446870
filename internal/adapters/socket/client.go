package socket

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/corey/percept/internal/domain/percept"
)

// Client connects to the percept daemon over a Unix socket.
type Client struct {
	sockPath string
}

// NewClient creates a client that will connect to the given socket path.
func NewClient(sockPath string) *Client {
	return &Client{sockPath: sockPath}
}

// Analyze sends a document for scoring against a percept set.
func (c *Client) Analyze(perceptSet, doc string) (*percept.Analysis, error) {
	return callFor[percept.Analysis](c, MethodAnalyze, AnalyzeParams{PerceptSet: perceptSet, Doc: doc}, 30*time.Second)
}

// Health sends a health check request.
func (c *Client) Health() (*HealthResult, error) {
	return callFor[HealthResult](c, MethodHealth, nil, 5*time.Second)
}

// StopWords fetches the corpus-derived stop-word list.
func (c *Client) StopWords() (*StopWordsResult, error) {
	return callFor[StopWordsResult](c, MethodStopWords, nil, 10*time.Second)
}

// Suggest asks for percepts whose names resemble query.
func (c *Client) Suggest(query string, limit int) (*SuggestResult, error) {
	return callFor[SuggestResult](c, MethodSuggest, SuggestParams{Query: query, Limit: limit}, 5*time.Second)
}

// Reload asks the daemon to rebuild its engine from the store.
func (c *Client) Reload() (*ReloadResult, error) {
	return callFor[ReloadResult](c, MethodReload, nil, reloadTimeout+5*time.Second)
}

// Shutdown sends a shutdown request to the daemon.
func (c *Client) Shutdown() error {
	_, err := c.call(Request{ID: uuid.NewString(), Method: MethodShutdown}, 5*time.Second)
	return err
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

// callFor sends a request and decodes the result into T.
func callFor[T any](c *Client, method string, params interface{}, timeout time.Duration) (*T, error) {
	resp, err := c.call(Request{ID: uuid.NewString(), Method: method, Params: params}, timeout)
	if err != nil {
		return nil, err
	}
	resultJSON, err := json.Marshal(resp.Result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	var result T
	if err := json.Unmarshal(resultJSON, &result); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return &result, nil
}

func (c *Client) call(req Request, timeout time.Duration) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.sockPath, 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	// Set deadline for the whole request/response
	conn.SetDeadline(time.Now().Add(timeout))

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	if len(data) >= MaxMessageBytes {
		return nil, percept.NewError(percept.KindInvalidInput, "daemon "+req.Method, errors.New(MessageTooLarge))
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}
		return nil, fmt.Errorf("empty response")
	}

	var resp Response
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if resp.Error != "" {
		if resp.Kind != "" {
			return nil, percept.NewError(percept.Kind(resp.Kind), "daemon "+req.Method, errors.New(resp.Error))
		}
		return nil, fmt.Errorf("server error: %s", resp.Error)
	}
	if resp.ID != req.ID {
		return nil, fmt.Errorf("response id %q does not match request %q", resp.ID, req.ID)
	}
	return &resp, nil
}
