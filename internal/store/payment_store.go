package store

import (
	"context"

	"tuition/internal/models"
)

type PaymentStore struct {
	db DB
}

func NewPaymentStore(db DB) *PaymentStore {
	return &PaymentStore{db: db}
}

type PaymentInput struct {
	ID            string
	ApplicationID string
	AmountMinor   int64
	Currency      string
	TransactionID string
	StudentEmail  string
	TutorEmail    string
}

const paymentColumns = `id, application_id, amount_minor, currency, transaction_id, student_email, tutor_email, paid_at`

// Insert writes the settlement record. Payments are immutable; there is no
// update path, and the unique application_id column rejects a second record
// for the same application.
func (s *PaymentStore) Insert(ctx context.Context, tx Execer, input PaymentInput) error {
	query := `
		INSERT INTO payments (id, application_id, amount_minor, currency, transaction_id, student_email, tutor_email)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.ApplicationID, input.AmountMinor, input.Currency,
		input.TransactionID, input.StudentEmail, input.TutorEmail,
	)
	return err
}

func (s *PaymentStore) GetByApplicationID(ctx context.Context, applicationID string) (models.PaymentRecord, error) {
	var payment models.PaymentRecord
	err := s.db.GetContext(ctx, &payment, `
		SELECT `+paymentColumns+` FROM payments WHERE application_id = $1
	`, applicationID)
	return payment, err
}

func (s *PaymentStore) ListAll(ctx context.Context, limit, offset int) ([]models.PaymentRecord, error) {
	var payments []models.PaymentRecord
	err := s.db.SelectContext(ctx, &payments, `
		SELECT `+paymentColumns+` FROM payments ORDER BY paid_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	return payments, err
}

func (s *PaymentStore) ListByTutor(ctx context.Context, tutorEmail string) ([]models.PaymentRecord, error) {
	var payments []models.PaymentRecord
	err := s.db.SelectContext(ctx, &payments, `
		SELECT `+paymentColumns+` FROM payments WHERE tutor_email = LOWER($1) ORDER BY paid_at DESC
	`, tutorEmail)
	return payments, err
}

func (s *PaymentStore) ListByStudent(ctx context.Context, studentEmail string) ([]models.PaymentRecord, error) {
	var payments []models.PaymentRecord
	err := s.db.SelectContext(ctx, &payments, `
		SELECT `+paymentColumns+` FROM payments WHERE student_email = LOWER($1) ORDER BY paid_at DESC
	`, studentEmail)
	return payments, err
}

func (s *PaymentStore) TotalAmount(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.GetContext(ctx, &total, `SELECT COALESCE(SUM(amount_minor), 0) FROM payments`)
	return total, err
}

func (s *PaymentStore) TotalAmountByTutor(ctx context.Context, tutorEmail string) (int64, error) {
	var total int64
	err := s.db.GetContext(ctx, &total, `
		SELECT COALESCE(SUM(amount_minor), 0) FROM payments WHERE tutor_email = LOWER($1)
	`, tutorEmail)
	return total, err
}

func (s *PaymentStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM payments`)
	return count, err
}
