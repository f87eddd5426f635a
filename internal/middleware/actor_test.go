package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tuition/internal/models"
)

type stubActorStore struct {
	actor models.Actor
	err   error
}

func (s stubActorStore) GetActor(context.Context, string) (models.Actor, error) {
	return s.actor, s.err
}

func requestWithUserID(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := context.WithValue(req.Context(), userIDKey, userID)
	return req.WithContext(ctx)
}

func TestWithActorRequiresAuth(t *testing.T) {
	handler := WithActor(stubActorStore{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not be called")
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestWithActorResolvesActor(t *testing.T) {
	handler := WithActor(stubActorStore{
		actor: models.Actor{Email: "student@example.com", Role: models.RoleStudent},
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok || actor.Email != "student@example.com" {
			t.Fatalf("expected actor in context, got %#v", actor)
		}
		w.WriteHeader(http.StatusOK)
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, requestWithUserID("user-1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestWithActorRoleGate(t *testing.T) {
	handler := WithActor(stubActorStore{
		actor: models.Actor{Email: "tutor@example.com", Role: models.RoleTutor},
	}, models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not be called")
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, requestWithUserID("user-1"))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestWithActorAllowsListedRole(t *testing.T) {
	handler := WithActor(stubActorStore{
		actor: models.Actor{Email: "admin@example.com", Role: models.RoleAdmin},
	}, models.RoleStudent, models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, requestWithUserID("user-1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestWithActorStoreFailure(t *testing.T) {
	handler := WithActor(stubActorStore{err: errors.New("db down")})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not be called")
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, requestWithUserID("user-1"))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}
