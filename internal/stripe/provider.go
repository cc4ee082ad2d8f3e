// Package stripe implements billing.BillingProvider on the Stripe API:
// customer creation, hosted checkout sessions, subscription retrieval, and
// webhook signature verification.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"

	"github.com/ledonna/billing/internal/billing"
)

// Provider talks to Stripe. Outbound calls retry transient failures with
// exponential backoff; 4xx responses are not retried since repeating an
// invalid request cannot succeed.
type Provider struct {
	api           *client.API
	webhookSecret string
	maxRetries    uint64
	log           *slog.Logger
}

// NewProvider creates a Stripe-backed billing provider.
func NewProvider(cfg Config, log *slog.Logger) (*Provider, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("stripe: secret key is required")
	}
	if cfg.WebhookSecret == "" {
		return nil, errors.New("stripe: webhook secret is required")
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	api := &client.API{}
	api.Init(cfg.SecretKey, nil)

	return &Provider{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
		maxRetries:    cfg.MaxRetries,
		log:           log,
	}, nil
}

// CreateCustomer creates a Stripe customer and returns its reference.
func (p *Provider) CreateCustomer(ctx context.Context, params billing.CustomerParams) (string, error) {
	cusParams := &stripe.CustomerParams{
		Params: stripe.Params{Context: ctx},
		Email:  stripe.String(params.Email),
	}
	if params.Name != "" {
		cusParams.Name = stripe.String(params.Name)
	}
	cusParams.Metadata = map[string]string{
		"company": params.Company,
	}

	cus, err := retry(ctx, p.maxRetries, func() (*stripe.Customer, error) {
		return p.api.Customers.New(cusParams)
	})
	if err != nil {
		p.logStripeError(ctx, "CreateCustomer", err)
		return "", fmt.Errorf("stripe: create customer: %w", err)
	}

	p.log.InfoContext(ctx, "stripe customer created", "customer_ref", cus.ID)
	return cus.ID, nil
}

// CreateCheckoutSession opens a hosted checkout session for a monthly
// recurring price built inline from the plan catalog entry.
func (p *Provider) CreateCheckoutSession(ctx context.Context, params billing.CheckoutParams) (*billing.CheckoutSession, error) {
	sessParams := &stripe.CheckoutSessionParams{
		Params:             stripe.Params{Context: ctx},
		Customer:           stripe.String(params.ProviderCustomerID),
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(params.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(fmt.Sprintf("Donna AI - %s Plan", params.PlanTitle)),
						Description: stripe.String(params.PlanDescription),
					},
					UnitAmount: stripe.Int64(params.UnitAmount),
					Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
						Interval: stripe.String(params.Interval),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
	}
	sessParams.Metadata = map[string]string{
		"plan_name":  params.PlanTitle,
		"plan_price": params.PlanPrice,
	}

	sess, err := retry(ctx, p.maxRetries, func() (*stripe.CheckoutSession, error) {
		return p.api.CheckoutSessions.New(sessParams)
	})
	if err != nil {
		p.logStripeError(ctx, "CreateCheckoutSession", err)
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}

	return &billing.CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// GetSubscription fetches the current subscription state by reference.
func (p *Provider) GetSubscription(ctx context.Context, providerSubscriptionID string) (*billing.SubscriptionState, error) {
	subParams := &stripe.SubscriptionParams{
		Params: stripe.Params{Context: ctx},
	}

	sub, err := retry(ctx, p.maxRetries, func() (*stripe.Subscription, error) {
		return p.api.Subscriptions.Get(providerSubscriptionID, subParams)
	})
	if err != nil {
		p.logStripeError(ctx, "GetSubscription", err)
		return nil, fmt.Errorf("stripe: get subscription %s: %w", providerSubscriptionID, err)
	}

	return subscriptionState(sub), nil
}

// subscriptionState converts a Stripe subscription into the provider-neutral
// representation, with epoch-second bounds as UTC timestamps.
func subscriptionState(sub *stripe.Subscription) *billing.SubscriptionState {
	state := &billing.SubscriptionState{
		ProviderSubscriptionID: sub.ID,
		Status:                 billing.SubscriptionStatus(sub.Status),
		CurrentPeriodStart:     time.Unix(sub.CurrentPeriodStart, 0).UTC(),
		CurrentPeriodEnd:       time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
		CancelAtPeriodEnd:      sub.CancelAtPeriodEnd,
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		state.ProviderPriceID = sub.Items.Data[0].Price.ID
	}
	return state
}

// retry runs the call with exponential backoff, bounded by maxRetries.
// Client errors other than rate limits are permanent.
func retry[T any](ctx context.Context, maxRetries uint64, call func() (T, error)) (T, error) {
	return backoff.RetryWithData(func() (T, error) {
		v, err := call()
		if err != nil && !retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx))
}

// retryable reports whether the Stripe error is worth another attempt:
// network failures, 5xx responses, and 429 rate limits.
func retryable(err error) bool {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return true
	}
	if stripeErr.HTTPStatusCode == 429 {
		return true
	}
	return stripeErr.HTTPStatusCode >= 500
}

func (p *Provider) logStripeError(ctx context.Context, operation string, err error) {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		p.log.ErrorContext(ctx, "stripe API error",
			"operation", operation,
			"type", string(stripeErr.Type),
			"code", string(stripeErr.Code),
			"message", stripeErr.Msg,
			"request_id", stripeErr.RequestID,
			"status_code", stripeErr.HTTPStatusCode,
		)
		return
	}
	p.log.ErrorContext(ctx, "stripe call failed", "operation", operation, "error", err)
}
