package billing

import "fmt"

// Plan describes a purchasable subscription tier: the price the provider
// should charge and the currency/interval it recurs in.
type Plan struct {
	Title      string
	UnitAmount int64 // smallest currency unit (cents for USD)
	Currency   string
	Interval   string // provider billing interval, e.g. "month"
}

// Catalog is the static mapping from plan title to billing parameters.
// Lookup is pure and performs no I/O, so an unknown plan short-circuits
// checkout issuance before any provider round trip.
type Catalog struct {
	plans map[string]Plan
}

// NewCatalog builds a catalog from the given plans, keyed by title.
func NewCatalog(plans ...Plan) *Catalog {
	m := make(map[string]Plan, len(plans))
	for _, p := range plans {
		m[p.Title] = p
	}
	return &Catalog{plans: m}
}

// DefaultCatalog returns the production plan table.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		Plan{Title: "Starter", UnitAmount: 20000, Currency: "usd", Interval: "month"},
		Plan{Title: "Growth", UnitAmount: 50000, Currency: "usd", Interval: "month"},
		Plan{Title: "Enterprise", UnitAmount: 100000, Currency: "usd", Interval: "month"},
	)
}

// Lookup returns the plan for the given title or ErrUnknownPlan.
func (c *Catalog) Lookup(title string) (Plan, error) {
	plan, ok := c.plans[title]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %q", ErrUnknownPlan, title)
	}
	return plan, nil
}
