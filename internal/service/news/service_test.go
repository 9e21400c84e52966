package news

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clementklenam/synergyalphaapi/internal/domain/company"
	"github.com/clementklenam/synergyalphaapi/internal/infra/yahoo"
)

type fakeFeed struct {
	articles   []yahoo.Article
	err        error
	lastTicker string
}

func (f *fakeFeed) FetchNews(ctx context.Context, ticker string) ([]yahoo.Article, error) {
	f.lastTicker = ticker
	if f.err != nil {
		return nil, f.err
	}
	return f.articles, nil
}

func TestHeadlines(t *testing.T) {
	t.Run("returns feed articles with normalized ticker", func(t *testing.T) {
		feed := &fakeFeed{articles: []yahoo.Article{{Title: "Apple beats estimates"}}}
		svc := NewService(feed)

		articles, err := svc.Headlines(context.Background(), " aapl ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(articles) != 1 || articles[0].Title != "Apple beats estimates" {
			t.Errorf("unexpected articles: %+v", articles)
		}
		if feed.lastTicker != "AAPL" {
			t.Errorf("ticker = %q, want AAPL", feed.lastTicker)
		}
	})

	t.Run("rejects empty ticker", func(t *testing.T) {
		svc := NewService(&fakeFeed{})

		_, err := svc.Headlines(context.Background(), "  ")
		if !errors.Is(err, company.ErrInvalidTicker) {
			t.Errorf("err = %v, want ErrInvalidTicker", err)
		}
	})

	t.Run("propagates feed errors", func(t *testing.T) {
		feedErr := errors.New("feed unavailable")
		svc := NewService(&fakeFeed{err: feedErr})

		_, err := svc.Headlines(context.Background(), "AAPL")
		if !errors.Is(err, feedErr) {
			t.Errorf("err = %v, want %v", err, feedErr)
		}
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		svc := NewService(&fakeFeed{})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		done := make(chan error, 1)
		go func() {
			_, err := svc.Headlines(ctx, "AAPL")
			done <- err
		}()

		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("err = %v, want context.Canceled", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Headlines did not return after cancellation")
		}
	})
}
