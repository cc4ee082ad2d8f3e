package billing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
)

// Outcome reports what the reconciler did with an event. Skipped events are
// not errors: the webhook endpoint acknowledges them so the provider stops
// redelivering, and the skip is logged for operational visibility.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeSkipped Outcome = "skipped"
)

// Reconciler applies verified provider events to the subscription store.
// It is the store's only mutator. Application is idempotent: replaying an
// identical event leaves the store unchanged, and stale (older) events never
// overwrite the effect of newer ones.
type Reconciler struct {
	provider      BillingProvider
	customers     CustomerStore
	subscriptions SubscriptionStore
	log           *slog.Logger
}

// NewReconciler wires the event application path. Panics on nil dependencies
// to fail fast during initialization.
func NewReconciler(provider BillingProvider, customers CustomerStore, subscriptions SubscriptionStore, log *slog.Logger) *Reconciler {
	if provider == nil {
		panic("billing: BillingProvider is required")
	}
	if customers == nil {
		panic("billing: CustomerStore is required")
	}
	if subscriptions == nil {
		panic("billing: SubscriptionStore is required")
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Reconciler{
		provider:      provider,
		customers:     customers,
		subscriptions: subscriptions,
		log:           log,
	}
}

// Apply dispatches a verified event. An error return means the event could
// not be durably applied and the caller should answer with a server error so
// the provider redelivers; everything else is acknowledged.
func (r *Reconciler) Apply(ctx context.Context, event *Event) (Outcome, error) {
	if event == nil {
		return OutcomeSkipped, nil
	}

	switch event.Type {
	case EventCheckoutCompleted:
		return r.applyCheckoutCompleted(ctx, event)
	case EventSubscriptionUpdated:
		return r.applySubscriptionUpdated(ctx, event)
	case EventSubscriptionDeleted:
		return r.applySubscriptionDeleted(ctx, event)
	default:
		// Forward compatibility: event kinds this subsystem does not model
		// are acknowledged and ignored.
		r.log.InfoContext(ctx, "ignoring unhandled event type",
			"event_id", event.ID,
			"event_type", string(event.Type),
		)
		return OutcomeSkipped, nil
	}
}

func (r *Reconciler) applyCheckoutCompleted(ctx context.Context, event *Event) (Outcome, error) {
	co := event.Checkout
	if co == nil || co.Mode != "subscription" || co.ProviderSubscriptionID == "" {
		// One-off payment sessions carry no subscription to reconcile.
		r.log.InfoContext(ctx, "skipping non-subscription checkout", "event_id", event.ID)
		return OutcomeSkipped, nil
	}

	// The session payload carries only references; fetch the authoritative
	// subscription detail from the provider.
	state, err := r.provider.GetSubscription(ctx, co.ProviderSubscriptionID)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("fetch subscription %s: %w", co.ProviderSubscriptionID, err)
	}

	customer, err := r.customers.GetByProviderID(ctx, co.ProviderCustomerID)
	if errors.Is(err, ErrCustomerNotFound) {
		// The event references a customer this system never issued a
		// checkout for. Favor webhook availability: acknowledge and drop.
		r.log.WarnContext(ctx, "checkout completed for unknown customer, dropping event",
			"event_id", event.ID,
			"customer_ref", co.ProviderCustomerID,
		)
		return OutcomeSkipped, nil
	}
	if err != nil {
		return OutcomeSkipped, err
	}

	planName := co.PlanName
	if planName == "" {
		planName = "Unknown"
	}

	if err := r.subscriptions.Upsert(ctx, &Subscription{
		ID:                     uuid.New(),
		CustomerID:             customer.ID,
		ProviderSubscriptionID: state.ProviderSubscriptionID,
		ProviderPriceID:        state.ProviderPriceID,
		Status:                 state.Status,
		PlanName:               planName,
		PlanPrice:              co.PlanPrice,
		CurrentPeriodStart:     state.CurrentPeriodStart,
		CurrentPeriodEnd:       state.CurrentPeriodEnd,
		CancelAtPeriodEnd:      state.CancelAtPeriodEnd,
		LastEventAt:            event.OccurredAt,
	}); err != nil {
		return OutcomeSkipped, fmt.Errorf("upsert subscription %s: %w", state.ProviderSubscriptionID, err)
	}

	r.log.InfoContext(ctx, "subscription recorded",
		"event_id", event.ID,
		"subscription_ref", state.ProviderSubscriptionID,
		"status", string(state.Status),
	)
	return OutcomeApplied, nil
}

func (r *Reconciler) applySubscriptionUpdated(ctx context.Context, event *Event) (Outcome, error) {
	state := event.Subscription
	if state == nil || state.ProviderSubscriptionID == "" {
		return OutcomeSkipped, nil
	}

	applied, err := r.subscriptions.ApplyUpdate(ctx, state.ProviderSubscriptionID, SubscriptionUpdate{
		Status:             state.Status,
		CurrentPeriodStart: state.CurrentPeriodStart,
		CurrentPeriodEnd:   state.CurrentPeriodEnd,
		CancelAtPeriodEnd:  state.CancelAtPeriodEnd,
		OccurredAt:         event.OccurredAt,
	})
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("update subscription %s: %w", state.ProviderSubscriptionID, err)
	}
	if !applied {
		// No matching row (event arrived before checkout completion), a
		// newer event already applied, or the row is terminally canceled.
		r.log.WarnContext(ctx, "subscription update not applied, dropping event",
			"event_id", event.ID,
			"subscription_ref", state.ProviderSubscriptionID,
		)
		return OutcomeSkipped, nil
	}

	r.log.InfoContext(ctx, "subscription updated",
		"event_id", event.ID,
		"subscription_ref", state.ProviderSubscriptionID,
		"status", string(state.Status),
	)
	return OutcomeApplied, nil
}

func (r *Reconciler) applySubscriptionDeleted(ctx context.Context, event *Event) (Outcome, error) {
	state := event.Subscription
	if state == nil || state.ProviderSubscriptionID == "" {
		return OutcomeSkipped, nil
	}

	// The provider sends no further updates after deletion; period bounds
	// and flags stay at their last known values.
	applied, err := r.subscriptions.MarkCanceled(ctx, state.ProviderSubscriptionID, event.OccurredAt)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("cancel subscription %s: %w", state.ProviderSubscriptionID, err)
	}
	if !applied {
		// No matching row, or the row is already canceled (redelivery).
		r.log.WarnContext(ctx, "subscription deletion not applied, dropping event",
			"event_id", event.ID,
			"subscription_ref", state.ProviderSubscriptionID,
		)
		return OutcomeSkipped, nil
	}

	r.log.InfoContext(ctx, "subscription canceled",
		"event_id", event.ID,
		"subscription_ref", state.ProviderSubscriptionID,
	)
	return OutcomeApplied, nil
}
