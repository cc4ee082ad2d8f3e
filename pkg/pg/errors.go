package pg

import "errors"

var (
	ErrFailedToParseConfig     = errors.New("pg: failed to parse connection config")
	ErrFailedToOpenConnection  = errors.New("pg: failed to open database connection")
	ErrFailedToApplyMigrations = errors.New("pg: failed to apply migrations")
)
