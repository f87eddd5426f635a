package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"tuition/internal/auth"
	"tuition/internal/middleware"
	"tuition/internal/models"
	"tuition/internal/store"
	"tuition/internal/validator"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type registerRequest struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"display_name" validate:"required,min=2,max=80"`
	Phone       string `json:"phone" validate:"max=20"`
	Password    string `json:"password" validate:"required,min=8"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to secure password")
		return
	}
	userID := uuid.NewString()
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.users.Create(r.Context(), tx, store.UserInput{
			ID:          userID,
			Email:       req.Email,
			DisplayName: req.DisplayName,
			Phone:       req.Phone,
			Role:        models.RoleStudent,
			PasswordHash: passwordHash,
		}); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"ip":         r.RemoteAddr,
			"user_agent": r.UserAgent(),
		})
		return h.audit.Log(r.Context(), tx, req.Email, "register", "user", userID, string(data))
	})
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			respondError(w, http.StatusConflict, "email already registered")
			return
		}
		respondError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	token, err := auth.GenerateToken(h.cfg.JWTSecret, userID, h.cfg.TokenTTL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{
		"token": token,
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if !auth.CheckPassword(valueToString(user["password_hash"]), req.Password) {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		data, _ := json.Marshal(map[string]string{
			"ip":         r.RemoteAddr,
			"user_agent": r.UserAgent(),
		})
		return h.audit.Log(r.Context(), tx, valueToString(user["email"]), "login", "user", valueToString(user["id"]), string(data))
	}); err != nil {
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}
	token, err := auth.GenerateToken(h.cfg.JWTSecret, valueToString(user["id"]), h.cfg.TokenTTL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"token": token,
	})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load user")
		return
	}
	respondJSON(w, http.StatusOK, user)
}
