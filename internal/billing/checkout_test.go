package billing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ledonna/billing/internal/billing"
)

func validCheckoutRequest() billing.CheckoutRequest {
	return billing.CheckoutRequest{
		PlanTitle:       "Growth",
		PlanPrice:       "$500",
		PlanDescription: "For growing teams",
		Email:           "a@b.com",
		Name:            "Ada",
		Company:         "Acme",
		Origin:          "https://example.com",
	}
}

func TestCheckoutServiceIssueCheckout(t *testing.T) {
	t.Parallel()

	t.Run("existing customer reuses stored provider reference", func(t *testing.T) {
		t.Parallel()

		provider := new(MockBillingProvider)
		customers := new(MockCustomerStore)

		customers.On("GetByEmail", mock.Anything, "a@b.com").Return(&billing.Customer{
			ID:                 uuid.New(),
			Email:              "a@b.com",
			ProviderCustomerID: "cus_123",
		}, nil)
		provider.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(p billing.CheckoutParams) bool {
			return p.ProviderCustomerID == "cus_123" &&
				p.UnitAmount == 50000 &&
				p.Currency == "usd" &&
				p.Interval == "month" &&
				p.SuccessURL == "https://example.com?success=true" &&
				p.CancelURL == "https://example.com?canceled=true"
		})).Return(&billing.CheckoutSession{ID: "cs_1", URL: "https://pay.example/cs_1"}, nil)

		svc := billing.NewCheckoutService(billing.DefaultCatalog(), provider, customers, nil)

		url, err := svc.IssueCheckout(context.Background(), validCheckoutRequest())
		require.NoError(t, err)
		assert.Equal(t, "https://pay.example/cs_1", url)

		provider.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything)
		customers.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("first-time email creates provider customer then stores mapping", func(t *testing.T) {
		t.Parallel()

		provider := new(MockBillingProvider)
		customers := new(MockCustomerStore)

		customers.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, billing.ErrCustomerNotFound)
		provider.On("CreateCustomer", mock.Anything, billing.CustomerParams{
			Email:   "a@b.com",
			Name:    "Ada",
			Company: "Acme",
		}).Return("cus_new", nil)
		customers.On("Create", mock.Anything, mock.MatchedBy(func(c *billing.Customer) bool {
			return c.Email == "a@b.com" && c.ProviderCustomerID == "cus_new" && c.ID != uuid.Nil
		})).Return(&billing.Customer{
			ID:                 uuid.New(),
			Email:              "a@b.com",
			ProviderCustomerID: "cus_new",
		}, nil)
		provider.On("CreateCheckoutSession", mock.Anything, mock.Anything).
			Return(&billing.CheckoutSession{ID: "cs_1", URL: "https://pay.example/cs_1"}, nil)

		svc := billing.NewCheckoutService(billing.DefaultCatalog(), provider, customers, nil)

		url, err := svc.IssueCheckout(context.Background(), validCheckoutRequest())
		require.NoError(t, err)
		assert.Equal(t, "https://pay.example/cs_1", url)
		provider.AssertExpectations(t)
		customers.AssertExpectations(t)
	})

	t.Run("repeat checkouts for one email create one provider customer", func(t *testing.T) {
		t.Parallel()

		provider := new(MockBillingProvider)
		customers := new(MockCustomerStore)

		row := &billing.Customer{ID: uuid.New(), Email: "a@b.com", ProviderCustomerID: "cus_once"}

		// First call misses the store, later calls hit it.
		customers.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, billing.ErrCustomerNotFound).Once()
		customers.On("GetByEmail", mock.Anything, "a@b.com").Return(row, nil)
		provider.On("CreateCustomer", mock.Anything, mock.Anything).Return("cus_once", nil).Once()
		customers.On("Create", mock.Anything, mock.Anything).Return(row, nil).Once()
		provider.On("CreateCheckoutSession", mock.Anything, mock.Anything).
			Return(&billing.CheckoutSession{ID: "cs", URL: "https://pay.example/cs"}, nil)

		svc := billing.NewCheckoutService(billing.DefaultCatalog(), provider, customers, nil)

		for i := 0; i < 3; i++ {
			_, err := svc.IssueCheckout(context.Background(), validCheckoutRequest())
			require.NoError(t, err)
		}

		provider.AssertNumberOfCalls(t, "CreateCustomer", 1)
	})

	t.Run("lost insert race converges on the winner's reference", func(t *testing.T) {
		t.Parallel()

		provider := new(MockBillingProvider)
		customers := new(MockCustomerStore)

		customers.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, billing.ErrCustomerNotFound)
		provider.On("CreateCustomer", mock.Anything, mock.Anything).Return("cus_loser", nil)
		// The store returns the concurrent winner's row.
		customers.On("Create", mock.Anything, mock.Anything).Return(&billing.Customer{
			ID:                 uuid.New(),
			Email:              "a@b.com",
			ProviderCustomerID: "cus_winner",
		}, nil)
		provider.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(p billing.CheckoutParams) bool {
			return p.ProviderCustomerID == "cus_winner"
		})).Return(&billing.CheckoutSession{ID: "cs", URL: "https://pay.example/cs"}, nil)

		svc := billing.NewCheckoutService(billing.DefaultCatalog(), provider, customers, nil)

		_, err := svc.IssueCheckout(context.Background(), validCheckoutRequest())
		require.NoError(t, err)
		provider.AssertExpectations(t)
	})

	t.Run("unknown plan fails before any provider call", func(t *testing.T) {
		t.Parallel()

		provider := new(MockBillingProvider)
		customers := new(MockCustomerStore)

		svc := billing.NewCheckoutService(billing.DefaultCatalog(), provider, customers, nil)

		req := validCheckoutRequest()
		req.PlanTitle = "Platinum"

		_, err := svc.IssueCheckout(context.Background(), req)
		require.ErrorIs(t, err, billing.ErrUnknownPlan)

		provider.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything)
		provider.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
		customers.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
	})

	t.Run("missing email or plan is rejected", func(t *testing.T) {
		t.Parallel()

		svc := billing.NewCheckoutService(billing.DefaultCatalog(), new(MockBillingProvider), new(MockCustomerStore), nil)

		req := validCheckoutRequest()
		req.Email = ""
		_, err := svc.IssueCheckout(context.Background(), req)
		require.ErrorIs(t, err, billing.ErrInvalidRequest)

		req = validCheckoutRequest()
		req.PlanTitle = ""
		_, err = svc.IssueCheckout(context.Background(), req)
		require.ErrorIs(t, err, billing.ErrInvalidRequest)
	})

	t.Run("missing origin is rejected", func(t *testing.T) {
		t.Parallel()

		svc := billing.NewCheckoutService(billing.DefaultCatalog(), new(MockBillingProvider), new(MockCustomerStore), nil)

		req := validCheckoutRequest()
		req.Origin = ""
		_, err := svc.IssueCheckout(context.Background(), req)
		require.ErrorIs(t, err, billing.ErrInvalidRequest)
	})

	t.Run("provider customer failure writes nothing to the store", func(t *testing.T) {
		t.Parallel()

		provider := new(MockBillingProvider)
		customers := new(MockCustomerStore)

		customers.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, billing.ErrCustomerNotFound)
		provider.On("CreateCustomer", mock.Anything, mock.Anything).Return("", errors.New("provider down"))

		svc := billing.NewCheckoutService(billing.DefaultCatalog(), provider, customers, nil)

		_, err := svc.IssueCheckout(context.Background(), validCheckoutRequest())
		require.ErrorIs(t, err, billing.ErrCustomerCreationFailed)
		customers.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("session failure is reported as ErrCheckoutSessionFailed", func(t *testing.T) {
		t.Parallel()

		provider := new(MockBillingProvider)
		customers := new(MockCustomerStore)

		customers.On("GetByEmail", mock.Anything, "a@b.com").Return(&billing.Customer{
			ID:                 uuid.New(),
			Email:              "a@b.com",
			ProviderCustomerID: "cus_123",
		}, nil)
		provider.On("CreateCheckoutSession", mock.Anything, mock.Anything).
			Return(nil, errors.New("provider down"))

		svc := billing.NewCheckoutService(billing.DefaultCatalog(), provider, customers, nil)

		_, err := svc.IssueCheckout(context.Background(), validCheckoutRequest())
		require.ErrorIs(t, err, billing.ErrCheckoutSessionFailed)
	})

	t.Run("plan metadata is forwarded to the session", func(t *testing.T) {
		t.Parallel()

		provider := new(MockBillingProvider)
		customers := new(MockCustomerStore)

		customers.On("GetByEmail", mock.Anything, "a@b.com").Return(&billing.Customer{
			ID:                 uuid.New(),
			Email:              "a@b.com",
			ProviderCustomerID: "cus_123",
		}, nil)
		provider.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(p billing.CheckoutParams) bool {
			return p.PlanTitle == "Growth" && p.PlanPrice == "$500" && p.PlanDescription == "For growing teams"
		})).Return(&billing.CheckoutSession{ID: "cs", URL: "https://pay.example/cs"}, nil)

		svc := billing.NewCheckoutService(billing.DefaultCatalog(), provider, customers, nil)

		_, err := svc.IssueCheckout(context.Background(), validCheckoutRequest())
		require.NoError(t, err)
		provider.AssertExpectations(t)
	})
}

func TestNewCheckoutServicePanicsOnNilDeps(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		billing.NewCheckoutService(nil, new(MockBillingProvider), new(MockCustomerStore), nil)
	})
	assert.Panics(t, func() {
		billing.NewCheckoutService(billing.DefaultCatalog(), nil, new(MockCustomerStore), nil)
	})
	assert.Panics(t, func() {
		billing.NewCheckoutService(billing.DefaultCatalog(), new(MockBillingProvider), nil, nil)
	})
}
