// ABOUTME: Client for the remote EON REST API used by the dashboard and CLI
// ABOUTME: Attaches the session bearer token and routes every 401 through one hook

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	proxy "github.com/cloudfoundry/socks5-proxy"
	"github.com/eondash/eon-dashboard/models"
	"github.com/tidwall/gjson"
)

// maxErrorBody bounds how much of an error response is read for its message.
const maxErrorBody = 1 << 20

// UnauthorizedFunc is called whenever the remote API answers 401 for a
// request made on behalf of session.
type UnauthorizedFunc func(ctx context.Context, session *models.Session)

// ClientOptions configures an APIClient
type ClientOptions struct {
	BaseURL     string
	FileBaseURL string
	Timeout     time.Duration // zero leaves requests unbounded
	AllProxy    string        // ssh+socks5://user@host:port?private-key=/path
}

// APIClient talks to the remote REST API on behalf of a session.
type APIClient struct {
	baseURL        string
	fileBaseURL    string
	client         *http.Client
	onUnauthorized UnauthorizedFunc
}

// NewAPIClient builds a client for opts.BaseURL.
func NewAPIClient(opts ClientOptions) (*APIClient, error) {
	base := strings.TrimRight(opts.BaseURL, "/")
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("API base URL must be absolute, got %q", opts.BaseURL)
	}

	fileBase := strings.TrimRight(opts.FileBaseURL, "/")
	if fileBase == "" {
		fileBase = parsed.Scheme + "://" + parsed.Host
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.AllProxy != "" {
		dial, err := createSOCKS5DialContextFunc(opts.AllProxy)
		if err != nil {
			return nil, err
		}
		transport.Proxy = nil
		transport.DialContext = dial
	}

	return &APIClient{
		baseURL:     base,
		fileBaseURL: fileBase,
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
	}, nil
}

// SetHTTPClient allows overriding the HTTP client (useful for testing)
func (c *APIClient) SetHTTPClient(client *http.Client) {
	c.client = client
}

// OnUnauthorized registers the hook run on every 401.
func (c *APIClient) OnUnauthorized(fn UnauthorizedFunc) {
	c.onUnauthorized = fn
}

// FileURL returns the absolute URL of an uploaded asset path. The path is
// escaped, so names with spaces or '?' stay part of the path.
func (c *APIClient) FileURL(path string) string {
	u := url.URL{Path: "/" + strings.TrimLeft(path, "/")}
	return c.fileBaseURL + u.EscapedPath()
}

// Login exchanges credentials for a token and the user's identity.
func (c *APIClient) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	payload, err := models.JSONPayload(models.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	var result models.LoginResult
	if err := c.do(ctx, nil, http.MethodPost, "/users/login", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListAccessiblePages returns the pages the session's role may see, with actions.
func (c *APIClient) ListAccessiblePages(ctx context.Context, s *models.Session) ([]models.PageAccess, error) {
	path := "/pages/role?userId=" + url.QueryEscape(s.UserID)
	var pages []models.PageAccess
	if err := c.do(ctx, s, http.MethodGet, path, nil, &pages); err != nil {
		return nil, err
	}
	return pages, nil
}

// GetCollection returns a page's schema and records.
func (c *APIClient) GetCollection(ctx context.Context, s *models.Session, pageKey string) (*models.Collection, error) {
	var coll models.Collection
	if err := c.do(ctx, s, http.MethodGet, dynamicPath(pageKey), nil, &coll); err != nil {
		return nil, err
	}
	return &coll, nil
}

type itemEnvelope struct {
	Item *models.PageRecord `json:"item"`
}

// CreateRecord adds a record and returns it as stored.
func (c *APIClient) CreateRecord(ctx context.Context, s *models.Session, pageKey string, payload *models.Payload) (*models.PageRecord, error) {
	var env itemEnvelope
	if err := c.do(ctx, s, http.MethodPost, dynamicPath(pageKey), payload, &env); err != nil {
		return nil, err
	}
	return env.Item, nil
}

// UpdateRecord replaces a record and returns it as stored.
func (c *APIClient) UpdateRecord(ctx context.Context, s *models.Session, pageKey, id string, payload *models.Payload) (*models.PageRecord, error) {
	var env itemEnvelope
	if err := c.do(ctx, s, http.MethodPut, dynamicPath(pageKey)+"/"+url.PathEscape(id), payload, &env); err != nil {
		return nil, err
	}
	return env.Item, nil
}

// DeleteRecord removes a record.
func (c *APIClient) DeleteRecord(ctx context.Context, s *models.Session, pageKey, id string) error {
	return c.do(ctx, s, http.MethodDelete, dynamicPath(pageKey)+"/"+url.PathEscape(id), nil, nil)
}

func (c *APIClient) ListUsers(ctx context.Context, s *models.Session) ([]models.User, error) {
	var users []models.User
	if err := c.do(ctx, s, http.MethodGet, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *APIClient) CreateUser(ctx context.Context, s *models.Session, in models.UserInput) error {
	return c.sendJSON(ctx, s, http.MethodPost, "/users", in)
}

func (c *APIClient) UpdateUser(ctx context.Context, s *models.Session, id string, in models.UserInput) error {
	return c.sendJSON(ctx, s, http.MethodPut, "/users/"+url.PathEscape(id), in)
}

func (c *APIClient) DeleteUser(ctx context.Context, s *models.Session, id string) error {
	return c.do(ctx, s, http.MethodDelete, "/users/"+url.PathEscape(id), nil, nil)
}

func (c *APIClient) ListRoles(ctx context.Context, s *models.Session) ([]models.Role, error) {
	var roles []models.Role
	if err := c.do(ctx, s, http.MethodGet, "/roles", nil, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

func (c *APIClient) CreateRole(ctx context.Context, s *models.Session, role models.Role) error {
	return c.sendJSON(ctx, s, http.MethodPost, "/roles", role)
}

func (c *APIClient) UpdateRole(ctx context.Context, s *models.Session, id string, role models.Role) error {
	return c.sendJSON(ctx, s, http.MethodPut, "/roles/"+url.PathEscape(id), role)
}

func (c *APIClient) DeleteRole(ctx context.Context, s *models.Session, id string) error {
	return c.do(ctx, s, http.MethodDelete, "/roles/"+url.PathEscape(id), nil, nil)
}

func (c *APIClient) ListPages(ctx context.Context, s *models.Session) ([]models.PageDefinition, error) {
	var pages []models.PageDefinition
	if err := c.do(ctx, s, http.MethodGet, "/pages", nil, &pages); err != nil {
		return nil, err
	}
	return pages, nil
}

func (c *APIClient) CreatePage(ctx context.Context, s *models.Session, page models.PageDefinition) error {
	return c.sendJSON(ctx, s, http.MethodPost, "/pages", page)
}

func (c *APIClient) UpdatePage(ctx context.Context, s *models.Session, id string, page models.PageDefinition) error {
	return c.sendJSON(ctx, s, http.MethodPut, "/pages/"+url.PathEscape(id), page)
}

func (c *APIClient) DeletePage(ctx context.Context, s *models.Session, id string) error {
	return c.do(ctx, s, http.MethodDelete, "/pages/"+url.PathEscape(id), nil, nil)
}

// FetchFile opens an uploaded asset. The caller must close the response body.
func (c *APIClient) FetchFile(ctx context.Context, s *models.Session, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.FileURL(path), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create file request: %w", err)
	}
	if s.HasToken() {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch file: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, c.responseError(ctx, s, resp)
	}
	return resp, nil
}

func (c *APIClient) sendJSON(ctx context.Context, s *models.Session, method, path string, body any) error {
	payload, err := models.JSONPayload(body)
	if err != nil {
		return err
	}
	return c.do(ctx, s, method, path, payload, nil)
}

// do performs one request. No request is ever retried.
func (c *APIClient) do(ctx context.Context, s *models.Session, method, path string, payload *models.Payload, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", payload.ContentType)
	}
	if s.HasToken() {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpointForLog(path), err)
	}
	defer resp.Body.Close()

	slog.Debug("API request", "method", method, "path", endpointForLog(path), "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.responseError(ctx, s, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpointForLog(path), err)
	}
	return nil
}

// responseError turns a non-2xx response into an *APIError, running the
// unauthorized hook first when the status is 401.
func (c *APIClient) responseError(ctx context.Context, s *models.Session, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if gjson.ValidBytes(data) {
		apiErr.Message = gjson.GetBytes(data, "message").String()
	}

	if resp.StatusCode == http.StatusUnauthorized && s != nil {
		slog.Warn("Remote API rejected session token", "username", s.Username)
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx, s)
		}
	}
	return apiErr
}

func dynamicPath(pageKey string) string {
	return "/dynamic/" + url.PathEscape(pageKey)
}

// endpointForLog drops the query string so user ids stay out of logs.
func endpointForLog(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}

// createSOCKS5DialContextFunc creates a dial function for SSH+SOCKS5 proxy connections.
// Supports format: ssh+socks5://user@host:port?private-key=/path/to/key
func createSOCKS5DialContextFunc(allProxy string) (func(ctx context.Context, network, address string) (net.Conn, error), error) {
	// Strip ssh+ prefix if present
	allProxy = strings.TrimPrefix(allProxy, "ssh+")

	proxyURL, err := url.Parse(allProxy)
	if err != nil {
		return nil, fmt.Errorf("failed to parse API_ALL_PROXY URL: %w", err)
	}

	username := ""
	if proxyURL.User != nil {
		username = proxyURL.User.Username()
	}

	proxySSHKeyPath := proxyURL.Query().Get("private-key")
	if proxySSHKeyPath == "" {
		return nil, fmt.Errorf("API_ALL_PROXY missing required 'private-key' query param")
	}

	proxySSHKey, err := os.ReadFile(proxySSHKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read SSH private key %s: %w", proxySSHKeyPath, err)
	}

	socks5Proxy := proxy.NewSocks5Proxy(proxy.NewHostKey(), log.Default(), 1*time.Minute)

	var (
		dialer proxy.DialFunc
		mut    sync.Mutex
	)

	return func(ctx context.Context, network, address string) (net.Conn, error) {
		mut.Lock()
		if dialer == nil {
			proxyDialer, err := socks5Proxy.Dialer(username, string(proxySSHKey), proxyURL.Host)
			if err != nil {
				mut.Unlock()
				return nil, fmt.Errorf("error creating SOCKS5 dialer: %w", err)
			}
			dialer = proxyDialer
		}
		d := dialer
		mut.Unlock()

		return d(network, address)
	}, nil
}
