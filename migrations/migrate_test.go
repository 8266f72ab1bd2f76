package migrations_test

import (
	"context"
	"testing"

	"github.com/nagito52/fleamarketsystem/internal/testutil"
	"github.com/nagito52/fleamarketsystem/migrations"
)

func TestApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	pool := testutil.NewTestPool(t)

	if err := migrations.Apply(ctx, pool); err != nil {
		t.Fatalf("first apply: %v", err)
	}

	var recorded int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&recorded); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if recorded == 0 {
		t.Fatalf("expected recorded migrations")
	}

	if err := migrations.Apply(ctx, pool); err != nil {
		t.Fatalf("second apply: %v", err)
	}

	var after int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&after); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if after != recorded {
		t.Fatalf("expected %d migrations after rerun, got %d", recorded, after)
	}

	for _, table := range []string{"users", "items", "orders"} {
		var exists bool
		if err := pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`,
			table).Scan(&exists); err != nil {
			t.Fatalf("check table %s: %v", table, err)
		}
		if !exists {
			t.Fatalf("expected table %s to exist", table)
		}
	}
}
