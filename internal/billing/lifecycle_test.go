package billing_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ledonna/billing/internal/billing"
)

// memorySubscriptionStore implements the SubscriptionStore contract in
// memory: writes are keyed by provider reference, stale events are ignored,
// and canceled is terminal.
type memorySubscriptionStore struct {
	mu   sync.Mutex
	rows map[string]*billing.Subscription
}

func newMemorySubscriptionStore() *memorySubscriptionStore {
	return &memorySubscriptionStore{rows: make(map[string]*billing.Subscription)}
}

func (s *memorySubscriptionStore) GetByProviderID(_ context.Context, ref string) (*billing.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[ref]
	if !ok {
		return nil, billing.ErrSubscriptionNotFound
	}
	copied := *row
	return &copied, nil
}

func (s *memorySubscriptionStore) Upsert(_ context.Context, sub *billing.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.rows[sub.ProviderSubscriptionID]
	if ok && (existing.LastEventAt.After(sub.LastEventAt) || existing.IsCanceled()) {
		return nil
	}
	copied := *sub
	if ok {
		copied.ID = existing.ID
	}
	s.rows[sub.ProviderSubscriptionID] = &copied
	return nil
}

func (s *memorySubscriptionStore) ApplyUpdate(_ context.Context, ref string, update billing.SubscriptionUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[ref]
	if !ok || row.LastEventAt.After(update.OccurredAt) || row.IsCanceled() {
		return false, nil
	}
	row.Status = update.Status
	row.CurrentPeriodStart = update.CurrentPeriodStart
	row.CurrentPeriodEnd = update.CurrentPeriodEnd
	row.CancelAtPeriodEnd = update.CancelAtPeriodEnd
	row.LastEventAt = update.OccurredAt
	return true, nil
}

func (s *memorySubscriptionStore) MarkCanceled(_ context.Context, ref string, occurredAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[ref]
	if !ok || row.IsCanceled() {
		return false, nil
	}
	row.Status = billing.StatusCanceled
	if occurredAt.After(row.LastEventAt) {
		row.LastEventAt = occurredAt
	}
	return true, nil
}

func (s *memorySubscriptionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// TestSubscriptionLifecycle drives the reconciler through a realistic event
// sequence, including redeliveries and out-of-order arrival, and checks the
// stored row after each step.
func TestSubscriptionLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemorySubscriptionStore()

	provider := new(MockBillingProvider)
	customers := new(MockCustomerStore)

	customerRow := &billing.Customer{Email: "a@b.com", ProviderCustomerID: "cus_123"}
	customers.On("GetByProviderID", mock.Anything, "cus_123").Return(customerRow, nil)
	provider.On("GetSubscription", mock.Anything, "sub_123").Return(&billing.SubscriptionState{
		ProviderSubscriptionID: "sub_123",
		ProviderPriceID:        "price_1",
		Status:                 billing.StatusActive,
		CurrentPeriodStart:     periodStart,
		CurrentPeriodEnd:       periodEnd,
	}, nil)

	r := billing.NewReconciler(provider, customers, store, nil)

	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Checkout completes; the row is created.
	outcome, err := r.Apply(ctx, checkoutCompletedEvent(t0))
	require.NoError(t, err)
	require.Equal(t, billing.OutcomeApplied, outcome)
	require.Equal(t, 1, store.count())

	// The provider redelivers the same event; still exactly one row.
	_, err = r.Apply(ctx, checkoutCompletedEvent(t0))
	require.NoError(t, err)
	require.Equal(t, 1, store.count())

	// A later update lands.
	outcome, err = r.Apply(ctx, subscriptionEvent(billing.EventSubscriptionUpdated, billing.StatusPastDue, t0.Add(time.Hour)))
	require.NoError(t, err)
	require.Equal(t, billing.OutcomeApplied, outcome)

	row, err := store.GetByProviderID(ctx, "sub_123")
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPastDue, row.Status)

	// An older update arrives late; the newer state stands.
	outcome, err = r.Apply(ctx, subscriptionEvent(billing.EventSubscriptionUpdated, billing.StatusActive, t0.Add(time.Minute)))
	require.NoError(t, err)
	assert.Equal(t, billing.OutcomeSkipped, outcome)

	row, err = store.GetByProviderID(ctx, "sub_123")
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPastDue, row.Status)

	// The subscription is deleted at the provider.
	outcome, err = r.Apply(ctx, subscriptionEvent(billing.EventSubscriptionDeleted, billing.StatusCanceled, t0.Add(2*time.Hour)))
	require.NoError(t, err)
	require.Equal(t, billing.OutcomeApplied, outcome)

	row, err = store.GetByProviderID(ctx, "sub_123")
	require.NoError(t, err)
	assert.True(t, row.IsCanceled())

	// The provider redelivers the deletion; it counts as skipped, not as a
	// second application.
	outcome, err = r.Apply(ctx, subscriptionEvent(billing.EventSubscriptionDeleted, billing.StatusCanceled, t0.Add(2*time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, billing.OutcomeSkipped, outcome)

	// A stale update delivered after deletion cannot resurrect the row.
	outcome, err = r.Apply(ctx, subscriptionEvent(billing.EventSubscriptionUpdated, billing.StatusActive, t0.Add(90*time.Minute)))
	require.NoError(t, err)
	assert.Equal(t, billing.OutcomeSkipped, outcome)

	row, err = store.GetByProviderID(ctx, "sub_123")
	require.NoError(t, err)
	assert.True(t, row.IsCanceled())

	// Even a newer update cannot: canceled is terminal.
	outcome, err = r.Apply(ctx, subscriptionEvent(billing.EventSubscriptionUpdated, billing.StatusActive, t0.Add(3*time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, billing.OutcomeSkipped, outcome)

	row, err = store.GetByProviderID(ctx, "sub_123")
	require.NoError(t, err)
	assert.True(t, row.IsCanceled())
	assert.Equal(t, 1, store.count())
}
