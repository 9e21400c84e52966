package yahoo

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/clementklenam/synergyalphaapi/internal/domain/company"
)

// NewsClient fetches the per-ticker headline RSS feed
type NewsClient struct {
	feedURL    string
	httpClient *http.Client
}

// NewNewsClient creates a news feed client
func NewNewsClient(feedURL string) *NewsClient {
	if feedURL == "" {
		feedURL = "https://feeds.finance.yahoo.com/rss/2.0/headline"
	}
	return &NewsClient{
		feedURL:    feedURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Article is one news item from the feed
type Article struct {
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	Publisher   string     `json:"publisher,omitempty"`
	Summary     string     `json:"summary,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

type rssFeed struct {
	Channel struct {
		Items []struct {
			Title       string `xml:"title"`
			Link        string `xml:"link"`
			Description string `xml:"description"`
			PubDate     string `xml:"pubDate"`
			Source      string `xml:"source"`
		} `xml:"item"`
	} `xml:"channel"`
}

// FetchNews fetches the latest headlines for a ticker
func (c *NewsClient) FetchNews(ctx context.Context, ticker string) ([]Article, error) {
	feedURL := fmt.Sprintf("%s?s=%s&region=US&lang=en-US", c.feedURL, url.QueryEscape(ticker))

	req, err := http.NewRequestWithContext(ctx, "GET", feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: status=%d", company.ErrRateLimited, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status=%d", company.ErrExternalAPI, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("unmarshal feed: %w", err)
	}

	articles := make([]Article, 0, len(feed.Channel.Items))
	for _, item := range feed.Channel.Items {
		if item.Title == "" {
			continue
		}
		article := Article{
			Title:     item.Title,
			Link:      item.Link,
			Publisher: item.Source,
			Summary:   item.Description,
		}
		if item.PubDate != "" {
			if published, err := time.Parse(time.RFC1123Z, item.PubDate); err == nil {
				utc := published.UTC()
				article.PublishedAt = &utc
			} else if published, err := time.Parse(time.RFC1123, item.PubDate); err == nil {
				utc := published.UTC()
				article.PublishedAt = &utc
			}
		}
		articles = append(articles, article)
	}

	return articles, nil
}
