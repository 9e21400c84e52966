package postgres_test

import (
	"context"
	"testing"

	"github.com/clementklenam/synergyalphaapi/internal/infra/database/postgres"
	"github.com/clementklenam/synergyalphaapi/internal/pkg/config"
)

func TestNewPool(t *testing.T) {
	t.Skip("Integration test - requires PostgreSQL")

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestPoolHealth(t *testing.T) {
	t.Skip("Integration test - requires PostgreSQL")

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	defer pool.Close()

	health := pool.Health(ctx)
	if health.Status != "healthy" {
		t.Errorf("status = %q, want healthy", health.Status)
	}
	if health.MaxConns <= 0 {
		t.Errorf("max conns = %d, want > 0", health.MaxConns)
	}
}
