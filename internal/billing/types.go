package billing

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus mirrors the billing provider's subscription status
// vocabulary. Values are stored as-is so new provider statuses survive a
// round trip through the datastore.
type SubscriptionStatus string

const (
	StatusTrialing          SubscriptionStatus = "trialing"
	StatusActive            SubscriptionStatus = "active"
	StatusPastDue           SubscriptionStatus = "past_due"
	StatusCanceled          SubscriptionStatus = "canceled"
	StatusIncomplete        SubscriptionStatus = "incomplete"
	StatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	StatusUnpaid            SubscriptionStatus = "unpaid"
)

// Customer links a local identity to the billing provider's customer record.
// Exactly one provider customer reference exists per email; the resolver
// never creates a second one for an email it has already seen.
type Customer struct {
	ID                 uuid.UUID
	Email              string
	ProviderCustomerID string
	Name               string
	Company            string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Subscription is the local view of a provider subscription. Rows are never
// deleted: cancellation is a terminal status, preserving billing history.
type Subscription struct {
	ID                     uuid.UUID
	CustomerID             uuid.UUID
	ProviderSubscriptionID string
	ProviderPriceID        string
	Status                 SubscriptionStatus
	PlanName               string
	PlanPrice              string // display string captured at purchase time
	CurrentPeriodStart     time.Time
	CurrentPeriodEnd       time.Time
	CancelAtPeriodEnd      bool
	// LastEventAt is the provider timestamp of the most recent event applied
	// to this row. Incoming events older than this are ignored.
	LastEventAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsCanceled reports whether the subscription reached its terminal status.
func (s *Subscription) IsCanceled() bool {
	return s.Status == StatusCanceled
}

// IsActive reports whether the subscription is currently paid and active.
func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}
