// Package resend is a client for the Resend API, which serves as both the
// transactional email provider and the mailing-list provider.
package resend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/ignite/optin-service/internal/config"
	"github.com/ignite/optin-service/internal/pkg/httpclient"
)

// Client is a Resend API client
type Client struct {
	baseURL    string
	apiKey     string
	httpClient httpclient.Doer
}

// NewClient creates a new Resend API client
func NewClient(cfg config.ResendConfig) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: httpclient.New(cfg.Timeout()),
	}
}

// doRequest makes an HTTP request to the Resend API with Bearer auth.
// Non-2xx responses are returned as *APIError carrying the provider's
// status code and error message.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	fullURL := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb errorBody
		msg := string(respBody)
		if json.Unmarshal(respBody, &eb) == nil && eb.Message != "" {
			msg = eb.Message
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	return respBody, nil
}

// SendEmail sends a transactional email.
func (c *Client) SendEmail(ctx context.Context, req SendEmailRequest) error {
	if _, err := c.doRequest(ctx, http.MethodPost, "/emails", req); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}

// UpsertContact adds or updates a contact on the default (unscoped) list.
func (c *Client) UpsertContact(ctx context.Context, contact Contact) error {
	if _, err := c.doRequest(ctx, http.MethodPost, "/contacts", contact); err != nil {
		return fmt.Errorf("upserting contact: %w", err)
	}
	return nil
}

// UpsertContactToAudience adds or updates a contact on a named audience.
func (c *Client) UpsertContactToAudience(ctx context.Context, audienceID string, contact Contact) error {
	path := fmt.Sprintf("/audiences/%s/contacts", url.PathEscape(audienceID))
	if _, err := c.doRequest(ctx, http.MethodPost, path, contact); err != nil {
		return fmt.Errorf("upserting contact to audience %s: %w", audienceID, err)
	}
	return nil
}
