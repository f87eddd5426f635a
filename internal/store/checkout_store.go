package store

import (
	"context"

	"tuition/internal/models"
)

// CheckoutStore keeps the sessionId→applicationId bindings created when a
// hosted checkout is initiated. The reconciler resolves completion
// callbacks through it.
type CheckoutStore struct {
	db DB
}

func NewCheckoutStore(db DB) *CheckoutStore {
	return &CheckoutStore{db: db}
}

type CheckoutSessionInput struct {
	SessionID     string
	ApplicationID string
	AmountMinor   int64
	PayerEmail    string
	PayeeEmail    string
}

func (s *CheckoutStore) Create(ctx context.Context, input CheckoutSessionInput) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkout_sessions (session_id, application_id, amount_minor, payer_email, payee_email)
		VALUES ($1, $2, $3, $4, $5)
	`, input.SessionID, input.ApplicationID, input.AmountMinor, input.PayerEmail, input.PayeeEmail)
	return err
}

func (s *CheckoutStore) GetBySessionID(ctx context.Context, sessionID string) (models.CheckoutSession, error) {
	var session models.CheckoutSession
	err := s.db.GetContext(ctx, &session, `
		SELECT session_id, application_id, amount_minor, payer_email, payee_email, created_at
		FROM checkout_sessions
		WHERE session_id = $1
	`, sessionID)
	return session, err
}
