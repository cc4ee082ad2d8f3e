package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"

	"github.com/ledonna/billing/internal/billing"
)

// ParseWebhook verifies the Stripe-Signature header against the raw request
// body and normalizes the event. The body must be exactly as received:
// re-serializing a parsed form invalidates the signature.
//
// Verification fails closed: a missing header, malformed signature, or
// mismatch yields billing.ErrSignatureInvalid and no event.
func (p *Provider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*billing.Event, error) {
	if signature == "" {
		return nil, fmt.Errorf("%w: missing signature header", billing.ErrSignatureInvalid)
	}

	stripeEvent, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return nil, errors.Join(billing.ErrSignatureInvalid, err)
	}

	event := &billing.Event{
		ID:         stripeEvent.ID,
		Type:       billing.EventType(stripeEvent.Type),
		OccurredAt: time.Unix(stripeEvent.Created, 0).UTC(),
	}

	switch event.Type {
	case billing.EventCheckoutCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(stripeEvent.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("stripe: decode checkout session payload: %w", err)
		}
		co := &billing.CheckoutCompleted{
			SessionID: sess.ID,
			Mode:      string(sess.Mode),
			PlanName:  sess.Metadata["plan_name"],
			PlanPrice: sess.Metadata["plan_price"],
		}
		// Expandable references arrive as bare IDs in webhook payloads.
		if sess.Customer != nil {
			co.ProviderCustomerID = sess.Customer.ID
		}
		if sess.Subscription != nil {
			co.ProviderSubscriptionID = sess.Subscription.ID
		}
		event.Checkout = co

	case billing.EventSubscriptionUpdated, billing.EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(stripeEvent.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("stripe: decode subscription payload: %w", err)
		}
		event.Subscription = subscriptionState(&sub)
	}

	return event, nil
}
