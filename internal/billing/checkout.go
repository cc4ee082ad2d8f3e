package billing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
)

// CheckoutRequest is a caller's intent to subscribe: the plan as displayed
// on the pricing page plus the purchaser's contact details. Origin is the
// scheme://host of the issuing page; success and cancellation redirects are
// derived from it so the front end can render the outcome banner from a
// query parameter alone.
type CheckoutRequest struct {
	PlanTitle       string
	PlanPrice       string
	PlanDescription string
	Email           string
	Name            string
	Company         string
	Origin          string
}

// CheckoutService issues hosted checkout sessions. It never writes
// subscription rows; those are created later by the Reconciler once the
// provider reports a completed payment.
type CheckoutService struct {
	catalog   *Catalog
	provider  BillingProvider
	customers CustomerStore
	log       *slog.Logger
}

// NewCheckoutService wires the checkout issuance path. Panics on nil
// dependencies to fail fast during initialization.
func NewCheckoutService(catalog *Catalog, provider BillingProvider, customers CustomerStore, log *slog.Logger) *CheckoutService {
	if catalog == nil {
		panic("billing: Catalog is required")
	}
	if provider == nil {
		panic("billing: BillingProvider is required")
	}
	if customers == nil {
		panic("billing: CustomerStore is required")
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &CheckoutService{
		catalog:   catalog,
		provider:  provider,
		customers: customers,
		log:       log,
	}
}

// IssueCheckout validates the request, resolves the provider customer for
// the email, and opens a hosted checkout session for the requested plan.
// Returns the session's hosted-page URL.
func (s *CheckoutService) IssueCheckout(ctx context.Context, req CheckoutRequest) (string, error) {
	if req.Email == "" || req.PlanTitle == "" {
		return "", fmt.Errorf("%w: plan and email are required", ErrInvalidRequest)
	}
	if req.Origin == "" {
		return "", fmt.Errorf("%w: request origin is required", ErrInvalidRequest)
	}

	// Catalog miss fails before any provider round trip.
	plan, err := s.catalog.Lookup(req.PlanTitle)
	if err != nil {
		return "", err
	}

	customerID, err := s.resolveCustomer(ctx, req.Email, req.Name, req.Company)
	if err != nil {
		return "", err
	}

	session, err := s.provider.CreateCheckoutSession(ctx, CheckoutParams{
		ProviderCustomerID: customerID,
		PlanTitle:          req.PlanTitle,
		PlanDescription:    req.PlanDescription,
		PlanPrice:          req.PlanPrice,
		UnitAmount:         plan.UnitAmount,
		Currency:           plan.Currency,
		Interval:           plan.Interval,
		SuccessURL:         req.Origin + "?success=true",
		CancelURL:          req.Origin + "?canceled=true",
	})
	if err != nil {
		return "", errors.Join(ErrCheckoutSessionFailed, err)
	}

	s.log.InfoContext(ctx, "checkout session issued",
		"session_id", session.ID,
		"plan", req.PlanTitle,
		"customer_ref", customerID,
	)
	return session.URL, nil
}

// resolveCustomer returns the provider customer reference for the email,
// creating one only for emails never seen before. Repeated checkout attempts
// by the same person reuse the stored reference and make no provider call.
func (s *CheckoutService) resolveCustomer(ctx context.Context, email, name, company string) (string, error) {
	existing, err := s.customers.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.ProviderCustomerID != "" {
			return existing.ProviderCustomerID, nil
		}
		// A row without a provider reference should not occur; fall through
		// and attach one.
	case !errors.Is(err, ErrCustomerNotFound):
		return "", err
	}

	providerID, err := s.provider.CreateCustomer(ctx, CustomerParams{
		Email:   email,
		Name:    name,
		Company: company,
	})
	if err != nil {
		// No partial store write: the insert below happens only after the
		// provider confirmed creation.
		return "", errors.Join(ErrCustomerCreationFailed, err)
	}

	stored, err := s.customers.Create(ctx, &Customer{
		ID:                 uuid.New(),
		Email:              email,
		ProviderCustomerID: providerID,
		Name:               name,
		Company:            company,
	})
	if err != nil {
		return "", err
	}

	// A concurrent first-time request for the same email may have won the
	// insert race with its own provider customer. The store returns the
	// winner's row; use that reference so both requests converge on one
	// mapping. The loser's provider customer stays unused at the provider.
	if stored.ProviderCustomerID != providerID {
		s.log.WarnContext(ctx, "concurrent customer creation detected, using stored reference",
			"email", email,
			"stored_ref", stored.ProviderCustomerID,
			"orphaned_ref", providerID,
		)
	}
	return stored.ProviderCustomerID, nil
}
