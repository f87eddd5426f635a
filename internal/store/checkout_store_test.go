package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"tuition/internal/models"
)

func TestCheckoutStoreCreate(t *testing.T) {
	ctx := context.Background()
	store := NewCheckoutStore(stubDB{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO checkout_sessions") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 5 || args[0] != "sess-1" || args[1] != "a-1" || args[2] != int64(450000) {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	})
	err := store.Create(ctx, CheckoutSessionInput{
		SessionID: "sess-1", ApplicationID: "a-1", AmountMinor: 450000,
		PayerEmail: "student@example.com", PayeeEmail: "tutor@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckoutStoreGetBySessionID(t *testing.T) {
	ctx := context.Background()
	store := NewCheckoutStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "WHERE session_id = $1") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 1 || args[0] != "sess-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*models.CheckoutSession) = models.CheckoutSession{SessionID: "sess-1", ApplicationID: "a-1"}
			return nil
		},
	})
	session, err := store.GetBySessionID(ctx, "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.ApplicationID != "a-1" {
		t.Fatalf("unexpected session: %#v", session)
	}
}
