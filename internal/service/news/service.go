package news

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/clementklenam/synergyalphaapi/internal/domain/company"
	"github.com/clementklenam/synergyalphaapi/internal/infra/yahoo"
)

const (
	maxConcurrent = 3
	jitterMax     = 500 * time.Millisecond
)

// Feed is the headline source
type Feed interface {
	FetchNews(ctx context.Context, ticker string) ([]yahoo.Article, error)
}

// Service serves per-ticker news headlines with a small concurrency cap so
// bursts of API requests do not hammer the feed host.
type Service struct {
	feed  Feed
	slots chan struct{}
}

// NewService creates the news service
func NewService(feed Feed) *Service {
	return &Service{
		feed:  feed,
		slots: make(chan struct{}, maxConcurrent),
	}
}

// Headlines returns the latest articles for a ticker, newest first
func (s *Service) Headlines(ctx context.Context, ticker string) ([]yahoo.Article, error) {
	ticker = company.NormalizeTicker(ticker)
	if ticker == "" {
		return nil, company.ErrInvalidTicker
	}

	select {
	case s.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-s.slots }()

	wait := time.Duration(rand.Int63n(int64(jitterMax)))
	timer := time.NewTimer(wait)
	select {
	case <-timer.C:
	case <-ctx.Done():
		timer.Stop()
		return nil, ctx.Err()
	}
	timer.Stop()

	articles, err := s.feed.FetchNews(ctx, ticker)
	if err != nil {
		log.Warn().Str("ticker", ticker).Err(err).Msg("News fetch failed")
		return nil, err
	}

	return articles, nil
}
