package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/ledonna/billing/internal/billing"
	"github.com/ledonna/billing/internal/metrics"
)

// EventSource verifies a raw webhook payload and yields a normalized event.
type EventSource interface {
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*billing.Event, error)
}

// EventApplier applies a verified event to local state.
type EventApplier interface {
	Apply(ctx context.Context, event *billing.Event) (billing.Outcome, error)
}

type webhookResponseBody struct {
	Received bool `json:"received"`
}

// WebhookHandler serves POST /v1/webhooks/stripe. The request body is read
// raw and passed to signature verification untouched; any decoding before
// verification would break the signature.
type WebhookHandler struct {
	source  EventSource
	applier EventApplier
	rec     metrics.Recorder
	log     *slog.Logger
	maxBody int64
}

// NewWebhookHandler wires the webhook endpoint. Panics on nil dependencies.
func NewWebhookHandler(source EventSource, applier EventApplier, rec metrics.Recorder, log *slog.Logger) *WebhookHandler {
	if source == nil {
		panic("handler: EventSource is required")
	}
	if applier == nil {
		panic("handler: EventApplier is required")
	}
	if rec == nil {
		rec = metrics.Noop{}
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &WebhookHandler{source: source, applier: applier, rec: rec, log: log, maxBody: 1 << 20}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	event, err := h.source.ParseWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, billing.ErrSignatureInvalid) {
			h.rec.RecordSignatureFailure()
			h.log.WarnContext(r.Context(), "webhook signature verification failed", "error", err)
			respondError(w, http.StatusBadRequest, "invalid signature")
			return
		}
		h.log.ErrorContext(r.Context(), "webhook payload rejected", "error", err)
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	h.rec.RecordWebhookReceived(string(event.Type))

	outcome, err := h.applier.Apply(r.Context(), event)
	if err != nil {
		// A server error makes the provider redeliver; application is
		// idempotent so the retry is safe.
		h.log.ErrorContext(r.Context(), "event application failed",
			"event_id", event.ID,
			"event_type", string(event.Type),
			"error", err,
		)
		respondError(w, http.StatusInternalServerError, "failed to process event")
		return
	}

	switch outcome {
	case billing.OutcomeApplied:
		h.rec.RecordWebhookApplied(string(event.Type))
	default:
		h.rec.RecordWebhookSkipped(string(event.Type))
	}

	respondJSON(w, http.StatusOK, webhookResponseBody{Received: true})
}
