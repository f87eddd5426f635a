package store

import (
	"context"
	"strings"

	"tuition/internal/models"
)

type UserStore struct {
	db DB
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

type userRow struct {
	ID           string `db:"id"`
	Email        string `db:"email"`
	DisplayName  string `db:"display_name"`
	Phone        string `db:"phone"`
	Role         string `db:"role"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    any    `db:"created_at"`
	UpdatedAt    any    `db:"updated_at"`
}

type UserInput struct {
	ID           string
	Email        string
	DisplayName  string
	Phone        string
	Role         string
	PasswordHash string
}

func (s *UserStore) Create(ctx context.Context, tx Execer, input UserInput) error {
	query := `
		INSERT INTO users (id, email, display_name, phone, role, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, strings.ToLower(input.Email), input.DisplayName, input.Phone, input.Role, input.PasswordHash,
	)
	return err
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (map[string]any, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, email, display_name, phone, role, password_hash, created_at, updated_at
		FROM users WHERE email = LOWER($1)
	`, email)
	if err != nil {
		return nil, err
	}
	return userRowToMap(row, true), nil
}

func (s *UserStore) GetByID(ctx context.Context, userID string) (map[string]any, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, email, display_name, phone, role, '' AS password_hash, created_at, updated_at
		FROM users WHERE id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	return userRowToMap(row, false), nil
}

// GetActor resolves the acting principal for middleware and services.
func (s *UserStore) GetActor(ctx context.Context, userID string) (models.Actor, error) {
	var row struct {
		Email string `db:"email"`
		Role  string `db:"role"`
	}
	err := s.db.GetContext(ctx, &row, `SELECT email, role FROM users WHERE id = $1`, userID)
	if err != nil {
		return models.Actor{}, err
	}
	return models.Actor{Email: row.Email, Role: row.Role}, nil
}

func (s *UserStore) UpdateRole(ctx context.Context, tx Execer, userID, role string) (int64, error) {
	result, err := tx.ExecContext(ctx, `
		UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2
	`, role, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (s *UserStore) Delete(ctx context.Context, tx Execer, userID string) (int64, error) {
	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (s *UserStore) List(ctx context.Context, searchText string, limit, offset int) ([]map[string]any, error) {
	var rows []userRow
	query := `
		SELECT id, email, display_name, phone, role, '' AS password_hash, created_at, updated_at
		FROM users
	`
	args := []any{}
	if searchText != "" {
		query += ` WHERE email ILIKE '%' || $1 || '%' OR display_name ILIKE '%' || $1 || '%'`
		args = append(args, searchText)
	}
	query += ` ORDER BY created_at DESC LIMIT $` + itoa(len(args)+1) + ` OFFSET $` + itoa(len(args)+2)
	args = append(args, limit, offset)
	err := s.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}
	users := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		users = append(users, userRowToMap(row, false))
	}
	return users, nil
}

// CountByRole backs the admin dashboard counters.
func (s *UserStore) CountByRole(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Role  string `db:"role"`
		Count int64  `db:"count"`
	}
	err := s.db.SelectContext(ctx, &rows, `SELECT role, COUNT(*) AS count FROM users GROUP BY role`)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Role] = row.Count
	}
	return counts, nil
}

func userRowToMap(row userRow, includeHash bool) map[string]any {
	user := map[string]any{
		"id":           row.ID,
		"email":        row.Email,
		"display_name": row.DisplayName,
		"phone":        row.Phone,
		"role":         row.Role,
		"created_at":   row.CreatedAt,
		"updated_at":   row.UpdatedAt,
	}
	if includeHash {
		user["password_hash"] = row.PasswordHash
	}
	return user
}
