package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"tuition/internal/auth"
	"tuition/internal/middleware"
	"tuition/internal/validator"
	"tuition/internal/websocket"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
)

var errUserNotFound = errors.New("user not found")

func (h *Handler) AdminOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.projections.AdminOverview(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to build overview")
		return
	}
	respondJSON(w, http.StatusOK, overview)
}

func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	users, err := h.users.List(r.Context(), r.URL.Query().Get("searchText"), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list users")
		return
	}
	respondJSON(w, http.StatusOK, users)
}

type updateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=student tutor admin"`
}

func (h *Handler) AdminUpdateRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	userID := chi.URLParam(r, "id")
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		rows, err := h.users.UpdateRole(r.Context(), tx, userID, req.Role)
		if err != nil {
			return err
		}
		if rows == 0 {
			return errUserNotFound
		}
		data, _ := json.Marshal(map[string]string{"role": req.Role})
		return h.audit.Log(r.Context(), tx, actor.Email, "update_role", "user", userID, string(data))
	})
	if err != nil {
		if err == errUserNotFound {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to update role")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

func (h *Handler) AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	userID := chi.URLParam(r, "id")
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		rows, err := h.users.Delete(r.Context(), tx, userID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return errUserNotFound
		}
		return h.audit.Log(r.Context(), tx, actor.Email, "delete_user", "user", userID, "{}")
	})
	if err != nil {
		if err == errUserNotFound {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to delete user")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// AdminListTuitions shows every request regardless of moderation status;
// this is the moderation queue.
func (h *Handler) AdminListTuitions(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	tuitions, err := h.tuitions.ListAll(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list tuitions")
		return
	}
	respondJSON(w, http.StatusOK, tuitions)
}

func (h *Handler) AdminPayments(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	payments, err := h.projections.AllPayments(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list payments")
		return
	}
	respondJSON(w, http.StatusOK, payments)
}

func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	logs, err := h.audit.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list audit logs")
		return
	}
	respondJSON(w, http.StatusOK, logs)
}

// WSUpdates upgrades to a websocket keyed by the caller's email; the hub
// pushes application status changes to it. Browsers cannot set headers on
// websocket requests, so the token may ride in the query string.
func (h *Handler) WSUpdates(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		authHeader := r.Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}
	if token == "" {
		respondError(w, http.StatusUnauthorized, "missing token")
		return
	}
	claims, err := auth.ParseToken(h.cfg.JWTSecret, token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	actor, err := h.users.GetActor(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unknown account")
		return
	}
	websocket.ServeWS(w, r, h.hub, strings.ToLower(actor.Email))
}
