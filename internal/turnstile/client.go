// Package turnstile verifies Cloudflare Turnstile challenge tokens against
// the siteverify endpoint.
package turnstile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ignite/optin-service/internal/config"
	"github.com/ignite/optin-service/internal/pkg/httpclient"
)

const verifyPath = "/turnstile/v0/siteverify"

// Client is a Turnstile siteverify client
type Client struct {
	baseURL    string
	secretKey  string
	httpClient httpclient.Doer
}

// NewClient creates a new Turnstile client
func NewClient(cfg config.TurnstileConfig) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		secretKey:  cfg.SecretKey,
		httpClient: httpclient.New(cfg.Timeout()),
	}
}

// verifyResponse is the siteverify response envelope.
type verifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify checks a client-side challenge token. remoteIP may be empty.
// A false verdict with a nil error means the token failed verification;
// an error means the verification service itself could not be reached.
func (c *Client) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	form := url.Values{}
	form.Set("secret", c.secretKey)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+verifyPath, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("siteverify error (status %d): %s", resp.StatusCode, string(body))
	}

	var vr verifyResponse
	if err := json.Unmarshal(body, &vr); err != nil {
		return false, fmt.Errorf("parsing siteverify response: %w", err)
	}

	return vr.Success, nil
}
