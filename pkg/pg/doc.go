// Package pg manages the PostgreSQL connection pool (pgx) and schema
// migrations (goose): connection with startup retry, liveness ping, and
// migration application at boot.
package pg
