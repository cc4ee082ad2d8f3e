package billing_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ledonna/billing/internal/billing"
)

// MockBillingProvider is a mock implementation of billing.BillingProvider.
type MockBillingProvider struct {
	mock.Mock
}

func (m *MockBillingProvider) CreateCustomer(ctx context.Context, params billing.CustomerParams) (string, error) {
	args := m.Called(ctx, params)
	return args.String(0), args.Error(1)
}

func (m *MockBillingProvider) CreateCheckoutSession(ctx context.Context, params billing.CheckoutParams) (*billing.CheckoutSession, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.CheckoutSession), args.Error(1)
}

func (m *MockBillingProvider) GetSubscription(ctx context.Context, providerSubscriptionID string) (*billing.SubscriptionState, error) {
	args := m.Called(ctx, providerSubscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.SubscriptionState), args.Error(1)
}

func (m *MockBillingProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*billing.Event, error) {
	args := m.Called(ctx, payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Event), args.Error(1)
}

// MockCustomerStore is a mock implementation of billing.CustomerStore.
type MockCustomerStore struct {
	mock.Mock
}

func (m *MockCustomerStore) GetByEmail(ctx context.Context, email string) (*billing.Customer, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Customer), args.Error(1)
}

func (m *MockCustomerStore) GetByProviderID(ctx context.Context, providerCustomerID string) (*billing.Customer, error) {
	args := m.Called(ctx, providerCustomerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Customer), args.Error(1)
}

func (m *MockCustomerStore) Create(ctx context.Context, customer *billing.Customer) (*billing.Customer, error) {
	args := m.Called(ctx, customer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Customer), args.Error(1)
}

// MockSubscriptionStore is a mock implementation of billing.SubscriptionStore.
type MockSubscriptionStore struct {
	mock.Mock
}

func (m *MockSubscriptionStore) GetByProviderID(ctx context.Context, providerSubscriptionID string) (*billing.Subscription, error) {
	args := m.Called(ctx, providerSubscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Subscription), args.Error(1)
}

func (m *MockSubscriptionStore) Upsert(ctx context.Context, subscription *billing.Subscription) error {
	args := m.Called(ctx, subscription)
	return args.Error(0)
}

func (m *MockSubscriptionStore) ApplyUpdate(ctx context.Context, providerSubscriptionID string, update billing.SubscriptionUpdate) (bool, error) {
	args := m.Called(ctx, providerSubscriptionID, update)
	return args.Bool(0), args.Error(1)
}

func (m *MockSubscriptionStore) MarkCanceled(ctx context.Context, providerSubscriptionID string, occurredAt time.Time) (bool, error) {
	args := m.Called(ctx, providerSubscriptionID, occurredAt)
	return args.Bool(0), args.Error(1)
}
