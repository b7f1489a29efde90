package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"
)

// SessionCookie is the cookie the server keys sessions on.
const SessionCookie = "minisolscan_session"

// Network is a resolved network as reported by the server.
type Network struct {
	Type string `json:"type"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Instruction is one top-level or inner instruction of a transaction.
type Instruction struct {
	ProgramID   string          `json:"program_id"`
	ProgramName string          `json:"program_name"`
	Label       string          `json:"label"`
	Inner       bool            `json:"inner"`
	Raw         json.RawMessage `json:"raw,omitempty"`
}

// Transaction is a looked-up transaction.
type Transaction struct {
	Signature    string        `json:"signature"`
	Status       string        `json:"status"` // Success, Failed
	Timestamp    string        `json:"timestamp"`
	Signer       string        `json:"signer"`
	Slot         uint64        `json:"slot"`
	Fee          uint64        `json:"fee"`
	FeeSOL       string        `json:"fee_sol"`
	Network      string        `json:"network"`
	Instructions []Instruction `json:"instructions"`
}

// Preferences is the session's persisted UI state.
type Preferences struct {
	Network Network `json:"network"`
	Theme   string  `json:"theme"`
}

// Lookup is one entry of the server's lookup history.
type Lookup struct {
	ID               int64     `json:"id"`
	Signature        string    `json:"signature"`
	Network          string    `json:"network"`
	Status           string    `json:"status"`
	Slot             int64     `json:"slot"`
	Fee              int64     `json:"fee"`
	Signer           string    `json:"signer"`
	InstructionCount int       `json:"instruction_count"`
	LookedUpAt       time.Time `json:"looked_up_at"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed: %s", e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client is the HTTP client for the minisolscan lookup service. Network and
// theme selections belong to the server-side session, which the client keeps
// in its cookie jar.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new lookup service client. A nil httpClient gets a
// default one with a cookie jar; a caller-supplied client without a jar
// starts a fresh session on every request.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		jar, _ := cookiejar.New(nil)
		httpClient = &http.Client{Timeout: 30 * time.Second, Jar: jar}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// SetSession resumes an existing server session.
func (c *Client) SetSession(id string) error {
	if c.httpClient.Jar == nil {
		return errors.New("http client has no cookie jar")
	}
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	c.httpClient.Jar.SetCookies(u, []*http.Cookie{{Name: SessionCookie, Value: id, Path: "/"}})
	return nil
}

// Session returns the current session id, or "" before the first request.
func (c *Client) Session() string {
	if c.httpClient.Jar == nil {
		return ""
	}
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return ""
	}
	for _, cookie := range c.httpClient.Jar.Cookies(u) {
		if cookie.Name == SessionCookie {
			return cookie.Value
		}
	}
	return ""
}

// Lookup fetches a transaction on the session's active network.
func (c *Client) Lookup(ctx context.Context, signature string) (*Transaction, error) {
	var tx Transaction
	u := fmt.Sprintf("%s/api/v1/transactions/%s", c.baseURL, url.PathEscape(signature))
	if err := c.do(ctx, http.MethodGet, u, nil, &tx); err != nil {
		return nil, err
	}
	c.logger.Debug("transaction looked up", "signature", tx.Signature, "network", tx.Network)
	return &tx, nil
}

// CheckSignature classifies a signature as empty, invalid or valid without
// a network call on the server side.
func (c *Client) CheckSignature(ctx context.Context, signature string) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	u := c.baseURL + "/api/v1/signature-check?" + url.Values{"signature": {signature}}.Encode()
	if err := c.do(ctx, http.MethodGet, u, nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// Networks lists the network presets and the session's active network.
func (c *Client) Networks(ctx context.Context) ([]Network, *Network, error) {
	var resp struct {
		Networks []Network `json:"networks"`
		Active   Network   `json:"active"`
	}
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/api/v1/networks", nil, &resp); err != nil {
		return nil, nil, err
	}
	return resp.Networks, &resp.Active, nil
}

// SelectNetwork switches the session's active network. customURL is only
// used with the "custom" network.
func (c *Client) SelectNetwork(ctx context.Context, network, customURL string) (*Network, error) {
	reqBody := map[string]string{"network": network}
	if customURL != "" {
		reqBody["custom_url"] = customURL
	}

	var active Network
	if err := c.do(ctx, http.MethodPut, c.baseURL+"/api/v1/network", reqBody, &active); err != nil {
		return nil, err
	}
	c.logger.Debug("network selected", "network", active.Type)
	return &active, nil
}

// Preferences returns the session's network and theme.
func (c *Client) Preferences(ctx context.Context) (*Preferences, error) {
	var p Preferences
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/api/v1/preferences", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SetTheme sets the session theme to "light" or "dark".
func (c *Client) SetTheme(ctx context.Context, theme string) (*Preferences, error) {
	var p Preferences
	if err := c.do(ctx, http.MethodPut, c.baseURL+"/api/v1/theme", map[string]string{"theme": theme}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ToggleTheme flips the session theme.
func (c *Client) ToggleTheme(ctx context.Context) (*Preferences, error) {
	var p Preferences
	if err := c.do(ctx, http.MethodPut, c.baseURL+"/api/v1/theme", map[string]bool{"toggle": true}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Lookups lists the server's lookup history, newest first. An empty network
// lists all networks; a zero limit uses the server default.
func (c *Client) Lookups(ctx context.Context, network string, limit, offset int) ([]*Lookup, error) {
	q := url.Values{}
	if network != "" {
		q.Set("network", network)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	u := c.baseURL + "/api/v1/lookups"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var resp struct {
		Lookups []*Lookup `json:"lookups"`
	}
	if err := c.do(ctx, http.MethodGet, u, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Lookups, nil
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseErrorResponse(resp)
	}
	return nil
}

// do sends an optional JSON body and decodes a 200 response into out.
func (c *Client) do(ctx context.Context, method, u string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseErrorResponse(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// parseErrorResponse attempts to parse an error response from the server.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var errResp struct {
		Error string `json:"error"`
	}

	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("status %d: %s", resp.StatusCode, string(body)),
		}
	}

	return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
}
