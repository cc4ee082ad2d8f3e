// Package postgres implements the billing store interfaces on pgx.
//
// Concurrency control is pushed into the database rather than wrapped in
// transactions: customers are unique on email (a lost insert race re-fetches
// the winner), and subscription writes are single-statement upserts keyed by
// the provider's subscription reference, guarded by the stored event
// timestamp so replayed or reordered events cannot regress state.
package postgres
