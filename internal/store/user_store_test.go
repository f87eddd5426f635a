package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
)

func TestUserStoreCreateLowercasesEmail(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO users") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 6 || args[1] != "student@example.com" || args[4] != "student" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewUserStore(stubDB{})
	err := store.Create(ctx, execer, UserInput{
		ID: "u-1", Email: "Student@Example.COM", DisplayName: "Student", Phone: "017", Role: "student", PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUserStoreGetByEmailIncludesHash(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "WHERE email = LOWER($1)") {
				t.Fatalf("unexpected query: %s", query)
			}
			*dest.(*userRow) = userRow{ID: "u-1", Email: "student@example.com", PasswordHash: "hash"}
			return nil
		},
	})
	user, err := store.GetByEmail(ctx, "student@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user["password_hash"] != "hash" {
		t.Fatalf("expected password hash in map: %#v", user)
	}
}

func TestUserStoreGetByIDOmitsHash(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "'' AS password_hash") {
				t.Fatalf("unexpected query: %s", query)
			}
			*dest.(*userRow) = userRow{ID: "u-1", Email: "student@example.com"}
			return nil
		},
	})
	user, err := store.GetByID(ctx, "u-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := user["password_hash"]; ok {
		t.Fatalf("password hash must not be exposed: %#v", user)
	}
}

func TestUserStoreGetActor(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "SELECT email, role FROM users WHERE id = $1") {
				t.Fatalf("unexpected query: %s", query)
			}
			type row struct {
				Email string `db:"email"`
				Role  string `db:"role"`
			}
			*dest.(*struct {
				Email string `db:"email"`
				Role  string `db:"role"`
			}) = row{Email: "admin@example.com", Role: "admin"}
			return nil
		},
	})
	actor, err := store.GetActor(ctx, "u-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if actor.Email != "admin@example.com" || !actor.IsAdmin() {
		t.Fatalf("unexpected actor: %#v", actor)
	}
}

func TestUserStoreListWithSearch(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "ILIKE") || !strings.Contains(query, "LIMIT $2 OFFSET $3") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 3 || args[0] != "tutor" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*[]userRow) = []userRow{{ID: "u-1"}}
			return nil
		},
	})
	users, err := store.List(ctx, "tutor", 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 1 || users[0]["id"] != "u-1" {
		t.Fatalf("unexpected users: %#v", users)
	}
}

func TestUserStoreCountByRole(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "GROUP BY role") {
				t.Fatalf("unexpected query: %s", query)
			}
			*dest.(*[]struct {
				Role  string `db:"role"`
				Count int64  `db:"count"`
			}) = []struct {
				Role  string `db:"role"`
				Count int64  `db:"count"`
			}{{Role: "student", Count: 10}, {Role: "tutor", Count: 4}}
			return nil
		},
	})
	counts, err := store.CountByRole(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts["student"] != 10 || counts["tutor"] != 4 {
		t.Fatalf("unexpected counts: %#v", counts)
	}
}

func TestUserStoreUpdateRole(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "UPDATE users SET role = $1") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 2 || args[0] != "tutor" || args[1] != "u-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewUserStore(stubDB{})
	rows, err := store.UpdateRole(ctx, execer, "u-1", "tutor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected 1 row affected, got %d", rows)
	}
}
