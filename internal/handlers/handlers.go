package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"tuition/internal/services"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps the service taxonomy onto HTTP statuses. The
// error text is shown verbatim to the UI layer.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrForbidden):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrConflict):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInvalidTransition):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	if raw := r.URL.Query().Get("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 1 {
			offset = (parsed - 1) * limit
		}
	}
	return limit, offset
}

func valueToString(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
