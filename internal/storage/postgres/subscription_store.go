package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledonna/billing/internal/billing"
)

// SubscriptionStore persists subscriptions in the subscriptions table.
// All writes are keyed by stripe_subscription_id and guarded by the stored
// last_event_at timestamp; the canceled status is terminal.
type SubscriptionStore struct {
	pool *pgxpool.Pool
}

// NewSubscriptionStore returns a pgx-backed subscription store.
func NewSubscriptionStore(pool *pgxpool.Pool) *SubscriptionStore {
	return &SubscriptionStore{pool: pool}
}

const subscriptionColumns = `id, customer_id, stripe_subscription_id, stripe_price_id, status,
	plan_name, plan_price, current_period_start, current_period_end,
	cancel_at_period_end, last_event_at, created_at, updated_at`

func scanSubscription(row pgx.Row) (*billing.Subscription, error) {
	var sub billing.Subscription
	err := row.Scan(
		&sub.ID, &sub.CustomerID, &sub.ProviderSubscriptionID, &sub.ProviderPriceID, &sub.Status,
		&sub.PlanName, &sub.PlanPrice, &sub.CurrentPeriodStart, &sub.CurrentPeriodEnd,
		&sub.CancelAtPeriodEnd, &sub.LastEventAt, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetByProviderID returns the subscription for the given provider reference.
func (s *SubscriptionStore) GetByProviderID(ctx context.Context, providerSubscriptionID string) (*billing.Subscription, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE stripe_subscription_id = $1`,
		providerSubscriptionID)

	sub, err := scanSubscription(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, billing.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get subscription: %w", err)
	}
	return sub, nil
}

// Upsert inserts the subscription or overwrites the mutable fields of the
// row sharing its provider reference. The single statement makes replayed
// checkout events converge on one row, and the guard clause keeps a stale
// replay from clobbering the effect of a newer event.
func (s *SubscriptionStore) Upsert(ctx context.Context, sub *billing.Subscription) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO subscriptions (
			id, customer_id, stripe_subscription_id, stripe_price_id, status,
			plan_name, plan_price, current_period_start, current_period_end,
			cancel_at_period_end, last_event_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (stripe_subscription_id) DO UPDATE SET
			stripe_price_id      = EXCLUDED.stripe_price_id,
			status               = EXCLUDED.status,
			plan_name            = EXCLUDED.plan_name,
			plan_price           = EXCLUDED.plan_price,
			current_period_start = EXCLUDED.current_period_start,
			current_period_end   = EXCLUDED.current_period_end,
			cancel_at_period_end = EXCLUDED.cancel_at_period_end,
			last_event_at        = EXCLUDED.last_event_at,
			updated_at           = now()
		WHERE subscriptions.last_event_at <= EXCLUDED.last_event_at
		  AND subscriptions.status <> 'canceled'`,
		sub.ID, sub.CustomerID, sub.ProviderSubscriptionID, sub.ProviderPriceID, sub.Status,
		sub.PlanName, sub.PlanPrice, sub.CurrentPeriodStart, sub.CurrentPeriodEnd,
		sub.CancelAtPeriodEnd, sub.LastEventAt)
	if err != nil {
		return fmt.Errorf("postgres: upsert subscription: %w", err)
	}
	return nil
}

// ApplyUpdate overwrites status, period bounds, and the at-period-end flag
// by provider reference. Returns false when no row matched: missing row,
// stale event, or terminally canceled subscription.
func (s *SubscriptionStore) ApplyUpdate(ctx context.Context, providerSubscriptionID string, update billing.SubscriptionUpdate) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE subscriptions SET
			status               = $2,
			current_period_start = $3,
			current_period_end   = $4,
			cancel_at_period_end = $5,
			last_event_at        = $6,
			updated_at           = now()
		WHERE stripe_subscription_id = $1
		  AND last_event_at <= $6
		  AND status <> 'canceled'`,
		providerSubscriptionID, update.Status, update.CurrentPeriodStart,
		update.CurrentPeriodEnd, update.CancelAtPeriodEnd, update.OccurredAt)
	if err != nil {
		return false, fmt.Errorf("postgres: update subscription: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkCanceled sets the terminal canceled status, leaving period bounds and
// flags at their last known values. The event timestamp only ever moves
// forward so a later stale update stays rejected. A row that is already
// canceled is left untouched and reported as not applied, keeping replay
// accounting consistent with the other writes.
func (s *SubscriptionStore) MarkCanceled(ctx context.Context, providerSubscriptionID string, occurredAt time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE subscriptions SET
			status        = 'canceled',
			last_event_at = GREATEST(last_event_at, $2),
			updated_at    = now()
		WHERE stripe_subscription_id = $1
		  AND status <> 'canceled'`,
		providerSubscriptionID, occurredAt)
	if err != nil {
		return false, fmt.Errorf("postgres: cancel subscription: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
