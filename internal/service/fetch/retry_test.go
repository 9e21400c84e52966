package fetch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/clementklenam/synergyalphaapi/internal/domain/company"
)

func TestRetryPolicyDo(t *testing.T) {
	policy := RetryPolicy{Attempts: 4, BaseWait: time.Millisecond, MaxWait: 8 * time.Millisecond}

	t.Run("succeeds first attempt", func(t *testing.T) {
		calls := 0
		err := policy.Do(context.Background(), func(ctx context.Context) error {
			calls++
			return nil
		})
		if err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})

	t.Run("retries rate limit then succeeds", func(t *testing.T) {
		calls := 0
		err := policy.Do(context.Background(), func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return fmt.Errorf("wrapped: %w", company.ErrRateLimited)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
		if calls != 3 {
			t.Errorf("expected 3 calls, got %d", calls)
		}
	})

	t.Run("exhausts attempts on persistent rate limit", func(t *testing.T) {
		calls := 0
		err := policy.Do(context.Background(), func(ctx context.Context) error {
			calls++
			return company.ErrRateLimited
		})
		if !errors.Is(err, company.ErrRateLimited) {
			t.Fatalf("expected ErrRateLimited, got %v", err)
		}
		if calls != 4 {
			t.Errorf("expected 4 calls, got %d", calls)
		}
	})

	t.Run("does not retry other errors", func(t *testing.T) {
		calls := 0
		err := policy.Do(context.Background(), func(ctx context.Context) error {
			calls++
			return company.ErrCompanyNotFound
		})
		if !errors.Is(err, company.ErrCompanyNotFound) {
			t.Fatalf("expected ErrCompanyNotFound, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})

	t.Run("stops on context cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		slow := RetryPolicy{Attempts: 4, BaseWait: time.Hour}
		calls := 0
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()
		err := slow.Do(ctx, func(ctx context.Context) error {
			calls++
			return company.ErrRateLimited
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})
}

func TestRetryPolicyBackoff(t *testing.T) {
	policy := RetryPolicy{Attempts: 5, BaseWait: 8 * time.Second, MaxWait: 120 * time.Second}

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 8 * time.Second},
		{2, 16 * time.Second},
		{3, 32 * time.Second},
		{4, 64 * time.Second},
		{5, 120 * time.Second},
		{6, 120 * time.Second},
	}
	for _, tc := range cases {
		got := policy.backoff(tc.attempt)
		if got != tc.want {
			t.Errorf("backoff(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}
