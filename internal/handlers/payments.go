package handlers

import (
	"encoding/json"
	"net/http"

	"tuition/internal/middleware"
	"tuition/internal/money"
	"tuition/internal/validator"
)

type checkoutRequest struct {
	ApplicationID string `json:"application_id" validate:"required"`
}

func (h *Handler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	intent, err := h.settlement.InitiateCheckout(r.Context(), actor, req.ApplicationID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"session_id": intent.SessionID,
		"url":        intent.RedirectURL,
		"amount":     money.FormatMinor(intent.AmountMinor),
	})
}

// PaymentSuccess is the completion callback target. The provider may call
// it any number of times for the same session; reconciliation is
// idempotent, so redeliveries return the original outcome.
func (h *Handler) PaymentSuccess(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	result, err := h.settlement.Reconcile(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"transactionId": result.Payment.TransactionID,
		"applied":       result.Applied,
		"amount":        money.FormatMinor(result.Payment.AmountMinor),
	})
}

func (h *Handler) TutorRevenue(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	summary, err := h.projections.TutorRevenue(r.Context(), actor)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (h *Handler) StudentPayments(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	payments, err := h.projections.StudentPayments(r.Context(), actor)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, payments)
}
