package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"app/internal/logger"
	"app/internal/service"
)

// WebhookHandler ingests billing provider webhook events
type WebhookHandler struct {
	billingService service.BillingService
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(billingService service.BillingService) *WebhookHandler {
	return &WebhookHandler{billingService: billingService}
}

// RegisterRoutes mounts webhook routes. Webhooks carry their own signature
// so they bypass the auth middleware.
func (h *WebhookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/webhooks/billing", http.HandlerFunc(h.handleBilling))
	mux.Handle("/webhooks/billing/health", http.HandlerFunc(h.health))
}

// handleBilling godoc
// @Summary Ingest a billing webhook event
// @Description Verifies the standard-webhooks signature, then applies tier changes. Always acknowledges verified, parseable events so the sender does not retry.
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 400 {string} string "Invalid JSON payload"
// @Failure 401 {string} string "Missing or invalid webhook signature"
// @Failure 500 {string} string "Internal error"
// @Router /webhooks/billing [post]
func (h *WebhookHandler) handleBilling(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			log := logger.New()
			log.Error().Interface("panic", rec).Msg("Webhook handler panicked")
			http.Error(w, "Internal error", http.StatusInternalServerError)
		}
	}()

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("webhook-signature")
	if signature == "" {
		http.Error(w, "Missing webhook signature", http.StatusUnauthorized)
		return
	}
	if !h.billingService.VerifySignature(payload, signature) {
		http.Error(w, "Invalid webhook signature", http.StatusUnauthorized)
		return
	}

	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	if probe.Type == "" {
		http.Error(w, "Missing event type", http.StatusBadRequest)
		return
	}

	h.billingService.ProcessEvent(r.Context(), payload)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "received"})
}

// health godoc
// @Summary Webhook endpoint health
// @Tags webhooks
// @Produce json
// @Success 200 {object} map[string]string
// @Router /webhooks/billing/health [get]
func (h *WebhookHandler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
