package billing

import (
	"context"
	"time"
)

// CustomerStore persists the email -> provider customer reference mapping.
type CustomerStore interface {
	// GetByEmail returns the customer for the given email or
	// ErrCustomerNotFound.
	GetByEmail(ctx context.Context, email string) (*Customer, error)

	// GetByProviderID returns the customer holding the given provider
	// reference or ErrCustomerNotFound.
	GetByProviderID(ctx context.Context, providerCustomerID string) (*Customer, error)

	// Create inserts the customer and returns the stored row. When a
	// concurrent insert for the same email wins the race, implementations
	// must return the winner's row instead of an error, so callers always
	// end up with the single provider reference attached to that email.
	Create(ctx context.Context, customer *Customer) (*Customer, error)
}

// SubscriptionUpdate is the mutable slice of a subscription row carried by a
// provider update event.
type SubscriptionUpdate struct {
	Status             SubscriptionStatus
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
	// OccurredAt is the provider event timestamp; updates older than the
	// row's last applied event are ignored.
	OccurredAt time.Time
}

// SubscriptionStore is the single writer of subscription state. All writes
// are keyed by the provider's subscription reference so replayed events
// collapse into the same row, and guarded by the stored event timestamp so
// reordered events never regress state.
type SubscriptionStore interface {
	// GetByProviderID returns the subscription for the given provider
	// reference or ErrSubscriptionNotFound.
	GetByProviderID(ctx context.Context, providerSubscriptionID string) (*Subscription, error)

	// Upsert inserts the subscription or, when a row with the same provider
	// reference exists, overwrites its mutable fields, unless the stored
	// row carries a newer event timestamp or is already canceled.
	Upsert(ctx context.Context, subscription *Subscription) error

	// ApplyUpdate overwrites status, period bounds, and the at-period-end
	// flag on the row matching the provider reference. Returns false without
	// error when no row matches, when the stored event timestamp is newer,
	// or when the row is already canceled.
	ApplyUpdate(ctx context.Context, providerSubscriptionID string, update SubscriptionUpdate) (bool, error)

	// MarkCanceled sets the terminal canceled status, leaving period bounds
	// and flags at their last known values. Returns false without error when
	// no row matches or the row is already canceled.
	MarkCanceled(ctx context.Context, providerSubscriptionID string, occurredAt time.Time) (bool, error)
}
