package logodev

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/clementklenam/synergyalphaapi/internal/domain/company"
)

// Client fetches company logo images from logo.dev
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new logo.dev client
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = "https://img.logo.dev/ticker"
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether an API token is configured
func (c *Client) Enabled() bool {
	return c.token != ""
}

// FetchLogo fetches the ticker's logo and returns it as a data URI
// (base64-encoded) suitable for embedding in the company document
func (c *Client) FetchLogo(ctx context.Context, ticker string) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("%w: logo.dev token not configured", company.ErrExternalAPI)
	}

	url := fmt.Sprintf("%s/%s?token=%s&size=200&format=png", c.baseURL, ticker, c.token)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: no logo for %s", company.ErrCompanyNotFound, ticker)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status=%d", company.ErrExternalAPI, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if len(body) == 0 {
		return "", fmt.Errorf("%w: empty logo body for %s", company.ErrInvalidResponse, ticker)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(body)), nil
}
