package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tphummel/server_inventory/internal/models"
)

const serversPath = "/api/servers"

// Client is an HTTP client for the server_inventory REST API.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a Client targeting endpoint, e.g. http://localhost:4000.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{},
	}
}

// APIError is a non-2xx response from the service.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func serverPath(id string) string {
	return serversPath + "/" + url.PathEscape(id)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.httpClient.Do(req)
}

// do sends the request and decodes a response with status want into out.
// Any other status becomes an *APIError carrying the service's message.
func (c *Client) do(ctx context.Context, method, path string, body any, want int, out any) error {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		apiErr := &APIError{Method: method, Path: path, Status: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		if json.Unmarshal(data, &payload) == nil {
			apiErr.Message = payload.Error
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// ListServers fetches one page of servers. query takes the same parameters
// as GET /api/servers (q, location, env, status, power, critical, page,
// limit, sortBy, sortDir).
func (c *Client) ListServers(ctx context.Context, query url.Values) (*models.ServerPage, error) {
	path := serversPath
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	var out models.ServerPage
	if err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetServer fetches a single server by ID. Returns nil, nil when the service
// responds 404.
func (c *Client) GetServer(ctx context.Context, id string) (*models.Server, error) {
	var out models.Server
	if err := c.do(ctx, http.MethodGet, serverPath(id), nil, http.StatusOK, &out); err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

// CreateServer POSTs a new server. fields must include id, server_name and
// ip_address.
func (c *Client) CreateServer(ctx context.Context, fields map[string]any) (*models.Server, error) {
	var out models.Server
	if err := c.do(ctx, http.MethodPost, serversPath, fields, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateServer PUTs the given columns for the server with id. A nil value
// clears the column.
func (c *Client) UpdateServer(ctx context.Context, id string, fields map[string]any) (*models.Server, error) {
	var out models.Server
	if err := c.do(ctx, http.MethodPut, serverPath(id), fields, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteServer removes the server with the given ID.
func (c *Client) DeleteServer(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, serverPath(id), nil, http.StatusOK, nil)
}
