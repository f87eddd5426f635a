package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"tuition/internal/middleware"
	"tuition/internal/models"
	"tuition/internal/services"
	"tuition/internal/validator"

	"github.com/go-chi/chi/v5"
)

type applyRequest struct {
	TuitionID      string `json:"tuition_id" validate:"required"`
	Qualifications string `json:"qualifications" validate:"required,max=2000"`
	Experience     string `json:"experience" validate:"max=2000"`
	ExpectedSalary string `json:"expected_salary" validate:"required"`
}

func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	salaryMinor, err := parseAmountMinor(req.ExpectedSalary)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid expected salary")
		return
	}
	application, err := h.appSvc.Apply(r.Context(), actor, services.ApplyInput{
		TuitionID:           req.TuitionID,
		Qualifications:      req.Qualifications,
		Experience:          req.Experience,
		ExpectedSalaryMinor: salaryMinor,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, application)
}

func (h *Handler) MyApplications(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, offset := parsePagination(r)
	applications, err := h.applications.ListByTutor(r.Context(), actor.Email, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list applications")
		return
	}
	total, err := h.applications.CountByTutor(r.Context(), actor.Email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list applications")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"results": applications,
		"total":   total,
	})
}

// ListTuitionApplications shows a request's applications to its owning
// student (and admins).
func (h *Handler) ListTuitionApplications(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	tuitionID := chi.URLParam(r, "id")
	tuition, err := h.tuitions.GetByID(r.Context(), tuitionID)
	if err != nil {
		respondError(w, http.StatusNotFound, "tuition not found")
		return
	}
	if !actor.IsAdmin() && !strings.EqualFold(tuition.CreatedBy, actor.Email) {
		respondError(w, http.StatusForbidden, "not the owner of this tuition")
		return
	}
	applications, err := h.applications.ListByTuition(r.Context(), tuitionID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list applications")
		return
	}
	respondJSON(w, http.StatusOK, applications)
}

func (h *Handler) ApproveApplication(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.appSvc.Approve)
}

func (h *Handler) RejectApplication(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.appSvc.Reject)
}

func (h *Handler) ConfirmApplication(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.appSvc.Confirm)
}

func (h *Handler) DeleteApplication(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.appSvc.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type transitionFn func(ctx context.Context, actor models.Actor, applicationID string) (models.TutorApplication, error)

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn transitionFn) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	application, err := fn(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, application)
}
