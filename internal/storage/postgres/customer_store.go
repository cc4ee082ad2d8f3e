package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledonna/billing/internal/billing"
)

// CustomerStore persists customers in the customers table.
type CustomerStore struct {
	pool *pgxpool.Pool
}

// NewCustomerStore returns a pgx-backed customer store.
func NewCustomerStore(pool *pgxpool.Pool) *CustomerStore {
	return &CustomerStore{pool: pool}
}

const customerColumns = `id, email, stripe_customer_id, name, company, created_at, updated_at`

func scanCustomer(row pgx.Row) (*billing.Customer, error) {
	var c billing.Customer
	err := row.Scan(&c.ID, &c.Email, &c.ProviderCustomerID, &c.Name, &c.Company, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByEmail returns the customer for the given email.
func (s *CustomerStore) GetByEmail(ctx context.Context, email string) (*billing.Customer, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE email = $1`, email)

	c, err := scanCustomer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, billing.ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get customer by email: %w", err)
	}
	return c, nil
}

// GetByProviderID returns the customer holding the given provider reference.
func (s *CustomerStore) GetByProviderID(ctx context.Context, providerCustomerID string) (*billing.Customer, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE stripe_customer_id = $1`, providerCustomerID)

	c, err := scanCustomer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, billing.ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get customer by provider id: %w", err)
	}
	return c, nil
}

// Create inserts the customer. A concurrent insert for the same email is
// resolved by the unique constraint: the losing insert affects no row and
// the winner's row is fetched and returned instead.
func (s *CustomerStore) Create(ctx context.Context, customer *billing.Customer) (*billing.Customer, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO customers (id, email, stripe_customer_id, name, company)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO NOTHING
		RETURNING `+customerColumns,
		customer.ID, customer.Email, customer.ProviderCustomerID, customer.Name, customer.Company)

	c, err := scanCustomer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Lost the race; the winner's mapping is authoritative.
		return s.GetByEmail(ctx, customer.Email)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: create customer: %w", err)
	}
	return c, nil
}
