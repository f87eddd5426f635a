package middleware

import (
	"context"
	"net/http"

	"tuition/internal/models"
)

const actorKey contextKey = "actor"

type ActorStore interface {
	GetActor(ctx context.Context, userID string) (models.Actor, error)
}

func ActorFromContext(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(models.Actor)
	return actor, ok
}

// WithActor resolves the authenticated user into an explicit Actor and, when
// roles are given, rejects any principal whose role is not among them.
func WithActor(store ActorStore, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			actor, err := store.GetActor(r.Context(), userID)
			if err != nil {
				http.Error(w, "unable to resolve account", http.StatusInternalServerError)
				return
			}
			if len(roles) > 0 && !roleAllowed(actor.Role, roles) {
				http.Error(w, "insufficient role", http.StatusForbidden)
				return
			}
			ctx := context.WithValue(r.Context(), actorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func roleAllowed(role string, allowed []string) bool {
	for _, candidate := range allowed {
		if candidate == role {
			return true
		}
	}
	return false
}
