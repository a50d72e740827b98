package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tapsdk/taplogin/account"
	"github.com/tapsdk/taplogin/region"
)

// Client talks to the login and token endpoints over HTTP. Profile requests
// are authorised with the MAC header derived from the access token.
type Client struct {
	clientID   string
	resolver   *region.Resolver
	httpClient *http.Client
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient creates a service client for the given application and region.
func NewClient(clientID string, resolver *region.Resolver, options ...ClientOption) *Client {
	ret := &Client{
		clientID:   clientID,
		resolver:   resolver,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// envelope is the common response wrapper of the open API.
type envelope struct {
	Success bool            `json:"success"`
	Now     int64           `json:"now"`
	Data    json.RawMessage `json:"data"`
}

// Profile implements Service.
func (c *Client) Profile(ctx context.Context, token *account.AccessToken) (*account.Profile, error) {
	rawURL := c.resolver.ProfileURL(token.HasScope(account.ScopePublicProfile)) + url.QueryEscape(c.clientID)
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid profile url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	authorization, err := macAuthorization(token, http.MethodGet, parsed)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", authorization)

	data, err := c.call(req)
	if err != nil {
		return nil, err
	}
	ret := &account.Profile{}
	if err := json.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return ret, nil
}

// RefreshToken implements Service.
func (c *Client) RefreshToken(ctx context.Context, keyID string) (*account.AccessToken, error) {
	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", keyID)
	form.Set("secret_type", "hmac-sha-1")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolver.TokenURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	data, err := c.call(req)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	ret := &account.AccessToken{}
	if err := json.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	if ret.KeyID == "" {
		return nil, nil
	}
	return ret, nil
}

// call executes the request and unwraps the response envelope, converting a
// failed envelope into a typed *Error.
func (c *Client) call(req *http.Request) (json.RawMessage, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	wrapper := &envelope{}
	if err := json.Unmarshal(body, wrapper); err != nil {
		return nil, fmt.Errorf("failed to decode response (status %v): %w", resp.StatusCode, err)
	}
	if !wrapper.Success {
		ret := &Error{}
		if err := json.Unmarshal(wrapper.Data, ret); err != nil {
			return nil, fmt.Errorf("request failed with status %v", resp.StatusCode)
		}
		return nil, ret
	}
	return wrapper.Data, nil
}
