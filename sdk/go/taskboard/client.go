// Package taskboard is a small Go client for the TaskBoard JSON API.
package taskboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"
)

// DefaultHTTPTimeout defines the timeout used by clients created without a
// custom http.Client.
const DefaultHTTPTimeout = 15 * time.Second

// Client wraps the HTTP interactions with the TaskBoard REST API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// Task mirrors the wire form of a task. Completed is 0 or 1.
type Task struct {
	ID        int64  `json:"id"`
	Task      string `json:"task"`
	Completed int    `json:"completed"`
}

// Done reports whether the task is marked completed.
func (t Task) Done() bool { return t.Completed != 0 }

// ToggleResult is returned by ToggleTask.
type ToggleResult struct {
	ID        int64 `json:"id"`
	Completed int   `json:"completed"`
}

// APIError represents a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string `json:"error"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("taskboard api error (%d): %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 returned by the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// NewClient instantiates a client for the TaskBoard API. When httpClient is
// nil, a default client with a sensible timeout is used.
func NewClient(rawURL string, httpClient *http.Client) (*Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &Client{baseURL: parsed, httpClient: httpClient}, nil
}

// ListTasks returns every task, newest first.
func (c *Client) ListTasks(ctx context.Context) ([]Task, error) {
	var tasks []Task
	if err := c.send(ctx, http.MethodGet, "/api/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask adds a task. The server trims content and rejects blank input.
func (c *Client) CreateTask(ctx context.Context, content string) (Task, error) {
	var created Task
	if err := c.send(ctx, http.MethodPost, "/api/tasks", map[string]string{"task": content}, &created); err != nil {
		return Task{}, err
	}
	return created, nil
}

// UpdateTask replaces the content of a task. A nil content leaves it unchanged.
func (c *Client) UpdateTask(ctx context.Context, id int64, content *string) (Task, error) {
	payload := map[string]any{}
	if content != nil {
		payload["task"] = *content
	}
	var updated Task
	if err := c.send(ctx, http.MethodPut, taskPath(id), payload, &updated); err != nil {
		return Task{}, err
	}
	return updated, nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.send(ctx, http.MethodDelete, taskPath(id), nil, nil)
}

// ToggleTask flips the completed flag of a task.
func (c *Client) ToggleTask(ctx context.Context, id int64) (ToggleResult, error) {
	var result ToggleResult
	if err := c.send(ctx, http.MethodPatch, taskPath(id)+"/toggle", nil, &result); err != nil {
		return ToggleResult{}, err
	}
	return result, nil
}

func taskPath(id int64) string {
	return "/api/tasks/" + strconv.FormatInt(id, 10)
}

func (c *Client) send(ctx context.Context, method, endpoint string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := c.newRequest(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	rel := &url.URL{Path: path.Join(c.baseURL.Path, endpoint)}
	u := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := APIError{StatusCode: resp.StatusCode}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read error response: %w", err)
		}
		if len(data) > 0 {
			_ = json.Unmarshal(data, &apiErr)
		}
		if apiErr.Message == "" {
			apiErr.Message = string(bytes.TrimSpace(data))
		}
		return &apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
