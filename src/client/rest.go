// Package client is the Go counterpart of the single-page frontend: a REST
// adapter for the API, a cached query store, the session state machine and the
// route guard that together back every page.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"fintrack-server/src/models"
	"fintrack-server/src/store"
)

var ErrNotConfigured = errors.New("missing backend configuration")

// APIError is any non-success response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// REST talks to the fintrack API. All methods are safe for concurrent use.
type REST struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func NewREST(baseURL string, httpClient *http.Client) *REST {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &REST{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *REST) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *REST) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *REST) Login(ctx context.Context, email, password string) (models.AuthResponse, error) {
	var resp models.AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/login", nil, models.Credentials{Email: email, Password: password}, &resp)
	return resp, err
}

func (c *REST) Signup(ctx context.Context, creds models.Credentials) (models.AuthResponse, error) {
	var resp models.AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/register", nil, creds, &resp)
	return resp, err
}

func (c *REST) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/logout", nil, nil, nil)
}

func (c *REST) UpdateUser(ctx context.Context, u models.User) (models.User, error) {
	var out models.User
	err := c.do(ctx, http.MethodPut, "/api/users/"+url.PathEscape(u.ID), nil, u, &out)
	return out, err
}

func (c *REST) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/users/"+url.PathEscape(id), nil, nil, nil)
}

func (c *REST) Transactions() store.Collection[models.Transaction] {
	return Resource[models.Transaction]{client: c, path: "/api/transactions"}
}

func (c *REST) Categories() store.Collection[models.Category] {
	return Resource[models.Category]{client: c, path: "/api/categories"}
}

func (c *REST) Budgets() store.Collection[models.Budget] {
	return Resource[models.Budget]{client: c, path: "/api/budgets"}
}

// Export downloads a rendered report ("csv", "pdf" or "xlsx") into w and
// returns the server's file name.
func (c *REST) Export(ctx context.Context, format, start, end string, w io.Writer) (string, error) {
	q := url.Values{}
	if start != "" {
		q.Set("start", start)
	}
	if end != "" {
		q.Set("end", end)
	}
	resp, err := c.send(ctx, http.MethodGet, "/api/reports/export."+format, q, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", fmt.Errorf("read export: %w", err)
	}
	_, params, _ := mime.ParseMediaType(resp.Header.Get("Content-Disposition"))
	return params["filename"], nil
}

// Resource adapts one API collection to the four-verb store contract.
type Resource[T models.Owned] struct {
	client *REST
	path   string
}

func (r Resource[T]) List(ctx context.Context, userID string) ([]T, error) {
	items := []T{}
	err := r.client.do(ctx, http.MethodGet, r.path, url.Values{"userId": {userID}}, nil, &items)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r Resource[T]) Create(ctx context.Context, item T) (T, error) {
	var out T
	err := r.client.do(ctx, http.MethodPost, r.path, nil, item, &out)
	return out, err
}

func (r Resource[T]) Update(ctx context.Context, item T) (T, error) {
	var out T
	err := r.client.do(ctx, http.MethodPut, r.path+"/"+url.PathEscape(item.RecordID()), nil, item, &out)
	return out, err
}

func (r Resource[T]) Delete(ctx context.Context, userID, id string) error {
	return r.client.do(ctx, http.MethodDelete, r.path+"/"+url.PathEscape(id), url.Values{"userId": {userID}}, nil, nil)
}

func (c *REST) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	resp, err := c.send(ctx, method, path, query, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// send returns the response only for 2xx statuses; everything else becomes
// an *APIError.
func (c *REST) send(ctx context.Context, method, path string, query url.Values, in any) (*http.Response, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	var payload struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
		apiErr.Message = payload.Error
	} else if text := strings.TrimSpace(string(raw)); text != "" {
		apiErr.Message = text
	}
	return nil, apiErr
}
