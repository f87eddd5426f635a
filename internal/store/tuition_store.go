package store

import (
	"context"

	"tuition/internal/models"

	"github.com/lib/pq"
)

type TuitionStore struct {
	db DB
}

func NewTuitionStore(db DB) *TuitionStore {
	return &TuitionStore{db: db}
}

type TuitionInput struct {
	ID          string
	Subject     string
	ClassLevel  string
	Location    string
	BudgetMinor int64
	CreatedBy   string
}

const tuitionColumns = `id, subject, class_level, location, budget_minor, created_by, moderation_status, created_at, updated_at`

func (s *TuitionStore) Create(ctx context.Context, tx Execer, input TuitionInput) error {
	query := `
		INSERT INTO tuitions (id, subject, class_level, location, budget_minor, created_by, moderation_status)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending')
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.Subject, input.ClassLevel, input.Location, input.BudgetMinor, input.CreatedBy,
	)
	return err
}

func (s *TuitionStore) GetByID(ctx context.Context, tuitionID string) (models.TuitionRequest, error) {
	var tuition models.TuitionRequest
	err := s.db.GetContext(ctx, &tuition, `SELECT `+tuitionColumns+` FROM tuitions WHERE id = $1`, tuitionID)
	return tuition, err
}

// UpdateModerationStatus moves a request to target only while its current
// status is one of allowedFrom. The returned row count is the transition
// outcome: zero means the request is missing or not in an allowed state.
func (s *TuitionStore) UpdateModerationStatus(ctx context.Context, tx Execer, tuitionID string, target models.ModerationStatus, allowedFrom []models.ModerationStatus) (int64, error) {
	result, err := tx.ExecContext(ctx, `
		UPDATE tuitions
		SET moderation_status = $1, updated_at = NOW()
		WHERE id = $2 AND moderation_status = ANY($3)
	`, string(target), tuitionID, pq.Array(moderationStrings(allowedFrom)))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (s *TuitionStore) Update(ctx context.Context, tx Execer, tuitionID string, input TuitionInput) (int64, error) {
	result, err := tx.ExecContext(ctx, `
		UPDATE tuitions
		SET subject = $1, class_level = $2, location = $3, budget_minor = $4, updated_at = NOW()
		WHERE id = $5
	`, input.Subject, input.ClassLevel, input.Location, input.BudgetMinor, tuitionID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (s *TuitionStore) Delete(ctx context.Context, tx Execer, tuitionID string) (int64, error) {
	result, err := tx.ExecContext(ctx, `DELETE FROM tuitions WHERE id = $1`, tuitionID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ListApproved is the tutor-facing browse feed: only approved requests are
// ever returned here.
func (s *TuitionStore) ListApproved(ctx context.Context, limit, offset int) ([]models.TuitionRequest, error) {
	var tuitions []models.TuitionRequest
	err := s.db.SelectContext(ctx, &tuitions, `
		SELECT `+tuitionColumns+`
		FROM tuitions
		WHERE moderation_status = 'approved'
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return tuitions, err
}

func (s *TuitionStore) ListByOwner(ctx context.Context, ownerEmail string, limit, offset int) ([]models.TuitionRequest, error) {
	var tuitions []models.TuitionRequest
	err := s.db.SelectContext(ctx, &tuitions, `
		SELECT `+tuitionColumns+`
		FROM tuitions
		WHERE created_by = LOWER($1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, ownerEmail, limit, offset)
	return tuitions, err
}

func (s *TuitionStore) ListAll(ctx context.Context, limit, offset int) ([]models.TuitionRequest, error) {
	var tuitions []models.TuitionRequest
	err := s.db.SelectContext(ctx, &tuitions, `
		SELECT `+tuitionColumns+`
		FROM tuitions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return tuitions, err
}

func (s *TuitionStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM tuitions`)
	return count, err
}

func (s *TuitionStore) CountApproved(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM tuitions WHERE moderation_status = 'approved'`)
	return count, err
}

func moderationStrings(statuses []models.ModerationStatus) []string {
	values := make([]string, 0, len(statuses))
	for _, status := range statuses {
		values = append(values, string(status))
	}
	return values
}
