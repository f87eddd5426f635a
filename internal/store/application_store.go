package store

import (
	"context"
	"fmt"

	"tuition/internal/models"

	"github.com/lib/pq"
)

type ApplicationStore struct {
	db DB
}

func NewApplicationStore(db DB) *ApplicationStore {
	return &ApplicationStore{db: db}
}

type ApplicationInput struct {
	ID                  string
	TuitionID           string
	TutorEmail          string
	StudentEmail        string
	Qualifications      string
	Experience          string
	ExpectedSalaryMinor int64
}

type applicationRow struct {
	ID                  string  `db:"id"`
	TuitionID           string  `db:"tuition_id"`
	TutorEmail          string  `db:"tutor_email"`
	StudentEmail        string  `db:"student_email"`
	Qualifications      string  `db:"qualifications"`
	Experience          string  `db:"experience"`
	ExpectedSalaryMinor int64   `db:"expected_salary_minor"`
	Status              string  `db:"status"`
	Subject             *string `db:"subject"`
	ClassLevel          *string `db:"class_level"`
	Location            *string `db:"location"`
	CreatedAt           any     `db:"created_at"`
	UpdatedAt           any     `db:"updated_at"`
}

const applicationColumns = `id, tuition_id, tutor_email, student_email, qualifications, experience, expected_salary_minor, status, created_at, updated_at`

// Create inserts the application in its initial state. The partial unique
// index on (tuition_id, tutor_email) WHERE status <> 'rejected' is what
// enforces the one-live-application invariant under concurrent submission;
// callers map its violation to a Conflict.
func (s *ApplicationStore) Create(ctx context.Context, tx Execer, input ApplicationInput) error {
	query := `
		INSERT INTO applications (id, tuition_id, tutor_email, student_email, qualifications, experience, expected_salary_minor, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'requested')
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.TuitionID, input.TutorEmail, input.StudentEmail,
		input.Qualifications, input.Experience, input.ExpectedSalaryMinor,
	)
	return err
}

func (s *ApplicationStore) GetByID(ctx context.Context, applicationID string) (models.TutorApplication, error) {
	var application models.TutorApplication
	err := s.db.GetContext(ctx, &application, `SELECT `+applicationColumns+` FROM applications WHERE id = $1`, applicationID)
	return application, err
}

// UpdateStatus is the single conditional write behind every lifecycle
// transition: the row moves to target only if it still holds one of the
// allowedFrom statuses, so two racing transitions cannot both succeed.
func (s *ApplicationStore) UpdateStatus(ctx context.Context, tx Execer, applicationID string, target models.ApplicationStatus, allowedFrom []models.ApplicationStatus) (int64, error) {
	result, err := tx.ExecContext(ctx, `
		UPDATE applications
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = ANY($3)
	`, string(target), applicationID, pq.Array(applicationStrings(allowedFrom)))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Delete removes the application only while it still holds one of the
// allowedFrom statuses.
func (s *ApplicationStore) Delete(ctx context.Context, tx Execer, applicationID string, allowedFrom []models.ApplicationStatus) (int64, error) {
	result, err := tx.ExecContext(ctx, `
		DELETE FROM applications WHERE id = $1 AND status = ANY($2)
	`, applicationID, pq.Array(applicationStrings(allowedFrom)))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (s *ApplicationStore) ListByTutor(ctx context.Context, tutorEmail string, limit, offset int) ([]map[string]any, error) {
	var rows []applicationRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT a.`+joinedApplicationColumns()+`, t.subject, t.class_level, t.location
		FROM applications a
		LEFT JOIN tuitions t ON t.id = a.tuition_id
		WHERE a.tutor_email = LOWER($1)
		ORDER BY a.created_at DESC
		LIMIT $2 OFFSET $3
	`, tutorEmail, limit, offset)
	if err != nil {
		return nil, err
	}
	return applicationRowsToMaps(rows), nil
}

func (s *ApplicationStore) ListByTuition(ctx context.Context, tuitionID string) ([]map[string]any, error) {
	var rows []applicationRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT a.`+joinedApplicationColumns()+`, t.subject, t.class_level, t.location
		FROM applications a
		LEFT JOIN tuitions t ON t.id = a.tuition_id
		WHERE a.tuition_id = $1
		ORDER BY a.created_at DESC
	`, tuitionID)
	if err != nil {
		return nil, err
	}
	return applicationRowsToMaps(rows), nil
}

func (s *ApplicationStore) CountByTutor(ctx context.Context, tutorEmail string) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM applications WHERE tutor_email = LOWER($1)`, tutorEmail)
	return count, err
}

func (s *ApplicationStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM applications`)
	return count, err
}

// ExistsSettledForTuition reports whether any application against the
// request has reached paid or confirmed, which freezes the request itself.
func (s *ApplicationStore) ExistsSettledForTuition(ctx context.Context, tuitionID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS(SELECT 1 FROM applications WHERE tuition_id = $1 AND status IN ('paid', 'confirmed'))
	`, tuitionID)
	return exists, err
}

func applicationStrings(statuses []models.ApplicationStatus) []string {
	values := make([]string, 0, len(statuses))
	for _, status := range statuses {
		values = append(values, string(status))
	}
	return values
}

func joinedApplicationColumns() string {
	return `id, a.tuition_id, a.tutor_email, a.student_email, a.qualifications, a.experience, a.expected_salary_minor, a.status, a.created_at, a.updated_at`
}

func applicationRowsToMaps(rows []applicationRow) []map[string]any {
	maps := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		maps = append(maps, map[string]any{
			"id":                    row.ID,
			"tuition_id":            row.TuitionID,
			"tutor_email":           row.TutorEmail,
			"student_email":         row.StudentEmail,
			"qualifications":        row.Qualifications,
			"experience":            row.Experience,
			"expected_salary_minor": row.ExpectedSalaryMinor,
			"status":                row.Status,
			"subject":               derefStringPtr(row.Subject),
			"class_level":           derefStringPtr(row.ClassLevel),
			"location":              derefStringPtr(row.Location),
			"created_at":            row.CreatedAt,
			"updated_at":            row.UpdatedAt,
		})
	}
	return maps
}

func itoa(value int) string {
	return fmt.Sprintf("%d", value)
}
