// Package handler exposes the billing service over HTTP.
//
// Two endpoints do the work: POST /v1/checkout/sessions issues a hosted
// checkout session for a catalog plan, and POST /v1/webhooks/stripe receives
// provider events, verifies their signature against the raw request body,
// and hands them to the reconciler. Browser calls from the marketing site
// are cross-origin, so every response carries permissive CORS headers and
// preflight requests are answered on both routes.
package handler
