//go:build integration

package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"flightsurety/pkg/testutil/containers"
)

func TestOpenWithBothDrivers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	pg := containers.GetManager().GetPostgres(t)
	ctx := context.Background()

	for _, driver := range []string{DriverPQ, DriverPGX} {
		t.Run(driver, func(t *testing.T) {
			db, err := Open(ctx, Config{Driver: driver, DSN: pg.DSN, MaxOpenConns: 2})
			require.NoError(t, err)
			defer db.Close()

			var one int
			require.NoError(t, db.QueryRowContext(ctx, "SELECT 1").Scan(&one))
			require.Equal(t, 1, one)
		})
	}
}
