package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ledonna/billing/internal/billing"
	"github.com/ledonna/billing/internal/metrics"
)

// CheckoutIssuer issues hosted checkout sessions.
type CheckoutIssuer interface {
	IssueCheckout(ctx context.Context, req billing.CheckoutRequest) (string, error)
}

type checkoutRequestBody struct {
	Plan struct {
		Title       string `json:"title"`
		Price       string `json:"price"`
		Description string `json:"desc"`
	} `json:"plan"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Company string `json:"company"`
}

type checkoutResponseBody struct {
	URL string `json:"url"`
}

// CheckoutHandler serves POST /v1/checkout/sessions.
type CheckoutHandler struct {
	issuer  CheckoutIssuer
	rec     metrics.Recorder
	log     *slog.Logger
	maxBody int64
}

// NewCheckoutHandler wires the checkout endpoint. Panics on a nil issuer.
func NewCheckoutHandler(issuer CheckoutIssuer, rec metrics.Recorder, log *slog.Logger) *CheckoutHandler {
	if issuer == nil {
		panic("handler: CheckoutIssuer is required")
	}
	if rec == nil {
		rec = metrics.Noop{}
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &CheckoutHandler{issuer: issuer, rec: rec, log: log, maxBody: 64 << 10}
}

func (h *CheckoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	// Observed on every exit so the histogram also covers rejected and
	// failed requests.
	defer func() { h.rec.RecordCheckoutLatency(time.Since(started)) }()

	var body checkoutRequestBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBody)).Decode(&body); err != nil {
		h.rec.RecordCheckoutFailed("bad_json")
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	url, err := h.issuer.IssueCheckout(r.Context(), billing.CheckoutRequest{
		PlanTitle:       body.Plan.Title,
		PlanPrice:       body.Plan.Price,
		PlanDescription: body.Plan.Description,
		Email:           body.Email,
		Name:            body.Name,
		Company:         body.Company,
		Origin:          r.Header.Get("Origin"),
	})
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}

	h.rec.RecordCheckoutIssued(body.Plan.Title)
	respondJSON(w, http.StatusOK, checkoutResponseBody{URL: url})
}

func (h *CheckoutHandler) writeCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, billing.ErrInvalidRequest):
		h.rec.RecordCheckoutFailed("invalid_request")
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, billing.ErrUnknownPlan):
		h.rec.RecordCheckoutFailed("unknown_plan")
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, billing.ErrCustomerCreationFailed):
		h.rec.RecordCheckoutFailed("customer_creation")
		h.log.ErrorContext(r.Context(), "customer creation failed", "error", err)
		// The caller shows the message inline and lets the user retry.
		respondError(w, http.StatusInternalServerError, err.Error())
	default:
		h.rec.RecordCheckoutFailed("session_creation")
		h.log.ErrorContext(r.Context(), "checkout session failed", "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}
