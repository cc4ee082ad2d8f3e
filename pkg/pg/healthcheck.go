package pg

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Healthcheck returns a function suitable for liveness probes that pings the
// database through the shared pool.
func Healthcheck(pool *pgxpool.Pool) func(context.Context) error {
	return func(ctx context.Context) error {
		return pool.Ping(ctx)
	}
}
