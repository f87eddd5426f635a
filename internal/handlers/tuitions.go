package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"tuition/internal/middleware"
	"tuition/internal/models"
	"tuition/internal/services"
	"tuition/internal/validator"

	"github.com/go-chi/chi/v5"
)

type tuitionRequest struct {
	Subject    string `json:"subject" validate:"required,max=120"`
	ClassLevel string `json:"class_level" validate:"required,max=60"`
	Location   string `json:"location" validate:"required,max=120"`
	Budget     string `json:"budget" validate:"required"`
}

func (req tuitionRequest) toInput() (services.PostTuitionInput, error) {
	budgetMinor, err := parseAmountMinor(req.Budget)
	if err != nil {
		return services.PostTuitionInput{}, err
	}
	return services.PostTuitionInput{
		Subject:     req.Subject,
		ClassLevel:  req.ClassLevel,
		Location:    req.Location,
		BudgetMinor: budgetMinor,
	}, nil
}

func (h *Handler) PostTuition(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req tuitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid budget")
		return
	}
	tuition, err := h.tuitionSvc.Post(r.Context(), actor, input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, tuition)
}

// ListTuitions is the tutor-facing browse feed; it only ever serves
// approved requests.
func (h *Handler) ListTuitions(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	tuitions, err := h.tuitions.ListApproved(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list tuitions")
		return
	}
	respondJSON(w, http.StatusOK, tuitions)
}

func (h *Handler) LatestTuitions(w http.ResponseWriter, r *http.Request) {
	limit := 6
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 50 {
			limit = parsed
		}
	}
	tuitions, err := h.projections.LatestTuitions(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list tuitions")
		return
	}
	respondJSON(w, http.StatusOK, tuitions)
}

func (h *Handler) GetTuition(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	tuition, err := h.tuitionSvc.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tuition)
}

func (h *Handler) UpdateTuition(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req tuitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid budget")
		return
	}
	tuition, err := h.tuitionSvc.Update(r.Context(), actor, chi.URLParam(r, "id"), input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tuition)
}

func (h *Handler) DeleteTuition(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.tuitionSvc.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *Handler) MyTuitions(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, offset := parsePagination(r)
	tuitions, err := h.tuitions.ListByOwner(r.Context(), actor.Email, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list tuitions")
		return
	}
	respondJSON(w, http.StatusOK, tuitions)
}

type moderateRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

func (h *Handler) ModerateTuition(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req moderateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	target, err := models.ParseModerationStatus(req.Status)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	tuition, err := h.tuitionSvc.Moderate(r.Context(), actor, chi.URLParam(r, "id"), target)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tuition)
}
