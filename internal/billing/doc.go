// Package billing contains the core of the subscription billing subsystem:
// the static plan catalog, checkout session issuance (including customer
// resolution against the billing provider), and the reconciler that applies
// asynchronous provider lifecycle events to the local datastore.
//
// The package owns the domain types and the interfaces it consumes
// (BillingProvider, CustomerStore, SubscriptionStore); concrete
// implementations live in internal/stripe and internal/storage/postgres.
//
// Delivery of provider events is at-least-once and unordered. The reconciler
// is therefore idempotent (writes are keyed by the provider's subscription
// reference) and monotonic (events older than the last applied one, and any
// event arriving after cancellation, do not regress stored state).
package billing
