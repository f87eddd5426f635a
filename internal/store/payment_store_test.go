package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"tuition/internal/models"
)

func TestPaymentStoreInsert(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO payments") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 7 {
				t.Fatalf("expected 7 args, got %d", len(args))
			}
			if args[1] != "a-1" || args[2] != int64(450000) || args[3] != "BDT" || args[4] != "txn-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewPaymentStore(stubDB{})
	err := store.Insert(ctx, execer, PaymentInput{
		ID: "p-1", ApplicationID: "a-1", AmountMinor: 450000, Currency: "BDT",
		TransactionID: "txn-1", StudentEmail: "student@example.com", TutorEmail: "tutor@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPaymentStoreGetByApplicationID(t *testing.T) {
	ctx := context.Background()
	store := NewPaymentStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "WHERE application_id = $1") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 1 || args[0] != "a-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*models.PaymentRecord) = models.PaymentRecord{ID: "p-1", ApplicationID: "a-1"}
			return nil
		},
	})
	row, err := store.GetByApplicationID(ctx, "a-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.ID != "p-1" {
		t.Fatalf("unexpected row: %#v", row)
	}
}

func TestPaymentStoreListByTutor(t *testing.T) {
	ctx := context.Background()
	store := NewPaymentStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "tutor_email = LOWER($1)") {
				t.Fatalf("unexpected query: %s", query)
			}
			*dest.(*[]models.PaymentRecord) = []models.PaymentRecord{{ID: "p-1"}}
			return nil
		},
	})
	rows, err := store.ListByTutor(ctx, "tutor@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("unexpected rows: %#v", rows)
	}
}

func TestPaymentStoreTotalAmount(t *testing.T) {
	ctx := context.Background()
	store := NewPaymentStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "COALESCE(SUM(amount_minor), 0)") {
				t.Fatalf("unexpected query: %s", query)
			}
			*dest.(*int64) = 900000
			return nil
		},
	})
	total, err := store.TotalAmount(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 900000 {
		t.Fatalf("unexpected total: %d", total)
	}
}
