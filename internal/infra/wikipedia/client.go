package wikipedia

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	defaultBaseURL   = "https://en.wikipedia.org"
	constituentsPath = "/wiki/List_of_S%26P_500_companies"
	defaultTimeout   = 30 * time.Second
)

// Client scrapes the S&P 500 constituents list. The constituent table is
// the symbol universe the update loop tracks, the same way the original
// deployment seeded itself.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a constituents client. An empty baseURL selects the
// live Wikipedia host.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		userAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
	}
}

// Constituents returns the ticker symbols of the current S&P 500
// constituents table, in page order.
func (c *Client) Constituents(ctx context.Context) ([]string, error) {
	url := c.baseURL + constituentsPath

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	rows := doc.Find("table#constituents tr")
	if rows.Length() == 0 {
		// The page occasionally loses the table id; the constituents
		// table is always the first wikitable
		rows = doc.Find("table.wikitable").First().Find("tr")
	}

	var symbols []string
	rows.Each(func(i int, s *goquery.Selection) {
		if s.Find("th").Length() > 0 {
			return
		}
		symbol := strings.ToUpper(strings.TrimSpace(s.Find("td").First().Text()))
		if symbol == "" {
			return
		}
		symbols = append(symbols, symbol)
	})

	if len(symbols) == 0 {
		return nil, fmt.Errorf("no constituent symbols found")
	}
	return symbols, nil
}
