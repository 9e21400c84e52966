package fetch

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/clementklenam/synergyalphaapi/internal/domain/company"
)

// RetryPolicy retries rate-limited calls with exponential backoff. Only
// company.ErrRateLimited is retried; every other error surfaces immediately
// because retrying a 404 or a parse failure just burns the upstream budget.
type RetryPolicy struct {
	Attempts int           // total attempts including the first
	BaseWait time.Duration // wait before the second attempt
	MaxWait  time.Duration // backoff ceiling
}

// Do executes fn under the retry policy
func (p RetryPolicy) Do(ctx context.Context, fn func(context.Context) error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !company.IsRateLimited(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		wait := p.backoff(attempt)
		log.Warn().
			Int("attempt", attempt).
			Dur("wait", wait).
			Msg("Rate limited, backing off")

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
		timer.Stop()
	}
	return err
}

// backoff doubles the base wait per attempt, capped at MaxWait
func (p RetryPolicy) backoff(attempt int) time.Duration {
	wait := p.BaseWait
	if wait <= 0 {
		wait = time.Second
	}
	for i := 1; i < attempt; i++ {
		wait *= 2
		if p.MaxWait > 0 && wait >= p.MaxWait {
			return p.MaxWait
		}
	}
	if p.MaxWait > 0 && wait > p.MaxWait {
		wait = p.MaxWait
	}
	return wait
}
