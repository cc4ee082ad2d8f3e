package billing

import (
	"context"
	"time"
)

// BillingProvider abstracts the external subscription-billing service.
// Implementations wrap the provider SDK, verify webhook authenticity, and
// normalize provider payloads into Event values.
type BillingProvider interface {
	// CreateCustomer creates a customer record at the provider and returns
	// its opaque reference.
	CreateCustomer(ctx context.Context, params CustomerParams) (string, error)

	// CreateCheckoutSession opens a hosted checkout session and returns it.
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)

	// GetSubscription fetches the current subscription state from the
	// provider by its reference.
	GetSubscription(ctx context.Context, providerSubscriptionID string) (*SubscriptionState, error)

	// ParseWebhook authenticates a raw notification body against its
	// signature header and returns the normalized event. The raw body must
	// be used as received; verification fails closed with
	// ErrSignatureInvalid.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*Event, error)
}

// CustomerParams carries the data needed to create a provider customer.
type CustomerParams struct {
	Email   string
	Name    string
	Company string
}

// CheckoutParams parameterizes a hosted checkout session for a recurring
// price built on the fly from the plan catalog.
type CheckoutParams struct {
	ProviderCustomerID string
	PlanTitle          string
	PlanDescription    string
	PlanPrice          string // human-readable price carried in metadata
	UnitAmount         int64
	Currency           string
	Interval           string
	SuccessURL         string
	CancelURL          string
}

// CheckoutSession is a provider-hosted payment page.
type CheckoutSession struct {
	ID  string
	URL string
}

// SubscriptionState is the provider's view of a subscription at a point in
// time, as fetched via the API or carried in an event payload.
type SubscriptionState struct {
	ProviderSubscriptionID string
	ProviderPriceID        string
	Status                 SubscriptionStatus
	CurrentPeriodStart     time.Time
	CurrentPeriodEnd       time.Time
	CancelAtPeriodEnd      bool
}

// EventType identifies the provider lifecycle events this subsystem models.
type EventType string

const (
	EventCheckoutCompleted   EventType = "checkout.session.completed"
	EventSubscriptionUpdated EventType = "customer.subscription.updated"
	EventSubscriptionDeleted EventType = "customer.subscription.deleted"
)

// Event is a verified, normalized provider notification. Exactly one of
// Checkout or Subscription is set for the modeled event types; both are nil
// for event kinds this subsystem does not handle.
type Event struct {
	ID         string
	Type       EventType
	OccurredAt time.Time

	Checkout     *CheckoutCompleted
	Subscription *SubscriptionState
}

// CheckoutCompleted carries the fields of a completed checkout session the
// reconciler needs to materialize a subscription row.
type CheckoutCompleted struct {
	SessionID              string
	Mode                   string // only "subscription" sessions are reconciled
	ProviderCustomerID     string
	ProviderSubscriptionID string
	PlanName               string // session metadata, recorded for display
	PlanPrice              string // session metadata, recorded for display
}
