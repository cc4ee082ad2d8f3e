package billing

import "errors"

var (
	// ErrInvalidRequest marks missing or malformed caller input. No provider
	// call is attempted; the caller must correct the request.
	ErrInvalidRequest = errors.New("billing: invalid request")

	// ErrUnknownPlan is returned for a plan title absent from the catalog.
	ErrUnknownPlan = errors.New("billing: unknown plan")

	// ErrSignatureInvalid marks a webhook that failed signature verification.
	// Nothing downstream of verification may be trusted.
	ErrSignatureInvalid = errors.New("billing: webhook signature invalid")

	// ErrCustomerCreationFailed wraps provider-side customer creation errors.
	ErrCustomerCreationFailed = errors.New("billing: customer creation failed")

	// ErrCheckoutSessionFailed wraps provider-side checkout session errors.
	ErrCheckoutSessionFailed = errors.New("billing: checkout session creation failed")

	ErrCustomerNotFound     = errors.New("billing: customer not found")
	ErrSubscriptionNotFound = errors.New("billing: subscription not found")
)
