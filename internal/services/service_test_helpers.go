package services

import (
	"context"

	"tuition/internal/checkout"
	"tuition/internal/models"
	"tuition/internal/store"
	"tuition/internal/websocket"

	"github.com/jmoiron/sqlx"
)

type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type stubTuitionStore struct {
	createFn       func(ctx context.Context, tx store.Execer, input store.TuitionInput) error
	getByIDFn      func(ctx context.Context, tuitionID string) (models.TuitionRequest, error)
	updateStatusFn func(ctx context.Context, tx store.Execer, tuitionID string, target models.ModerationStatus, allowedFrom []models.ModerationStatus) (int64, error)
	updateFn       func(ctx context.Context, tx store.Execer, tuitionID string, input store.TuitionInput) (int64, error)
	deleteFn       func(ctx context.Context, tx store.Execer, tuitionID string) (int64, error)
}

func (s stubTuitionStore) Create(ctx context.Context, tx store.Execer, input store.TuitionInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubTuitionStore) GetByID(ctx context.Context, tuitionID string) (models.TuitionRequest, error) {
	if s.getByIDFn == nil {
		return models.TuitionRequest{}, nil
	}
	return s.getByIDFn(ctx, tuitionID)
}

func (s stubTuitionStore) UpdateModerationStatus(ctx context.Context, tx store.Execer, tuitionID string, target models.ModerationStatus, allowedFrom []models.ModerationStatus) (int64, error) {
	if s.updateStatusFn == nil {
		return 1, nil
	}
	return s.updateStatusFn(ctx, tx, tuitionID, target, allowedFrom)
}

func (s stubTuitionStore) Update(ctx context.Context, tx store.Execer, tuitionID string, input store.TuitionInput) (int64, error) {
	if s.updateFn == nil {
		return 1, nil
	}
	return s.updateFn(ctx, tx, tuitionID, input)
}

func (s stubTuitionStore) Delete(ctx context.Context, tx store.Execer, tuitionID string) (int64, error) {
	if s.deleteFn == nil {
		return 1, nil
	}
	return s.deleteFn(ctx, tx, tuitionID)
}

type stubSettledChecker struct {
	settled bool
	err     error
}

func (s stubSettledChecker) ExistsSettledForTuition(ctx context.Context, tuitionID string) (bool, error) {
	return s.settled, s.err
}

type stubApplicationStore struct {
	createFn       func(ctx context.Context, tx store.Execer, input store.ApplicationInput) error
	getByIDFn      func(ctx context.Context, applicationID string) (models.TutorApplication, error)
	updateStatusFn func(ctx context.Context, tx store.Execer, applicationID string, target models.ApplicationStatus, allowedFrom []models.ApplicationStatus) (int64, error)
	deleteFn       func(ctx context.Context, tx store.Execer, applicationID string, allowedFrom []models.ApplicationStatus) (int64, error)
}

func (s stubApplicationStore) Create(ctx context.Context, tx store.Execer, input store.ApplicationInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubApplicationStore) GetByID(ctx context.Context, applicationID string) (models.TutorApplication, error) {
	if s.getByIDFn == nil {
		return models.TutorApplication{}, nil
	}
	return s.getByIDFn(ctx, applicationID)
}

func (s stubApplicationStore) UpdateStatus(ctx context.Context, tx store.Execer, applicationID string, target models.ApplicationStatus, allowedFrom []models.ApplicationStatus) (int64, error) {
	if s.updateStatusFn == nil {
		return 1, nil
	}
	return s.updateStatusFn(ctx, tx, applicationID, target, allowedFrom)
}

func (s stubApplicationStore) Delete(ctx context.Context, tx store.Execer, applicationID string, allowedFrom []models.ApplicationStatus) (int64, error) {
	if s.deleteFn == nil {
		return 1, nil
	}
	return s.deleteFn(ctx, tx, applicationID, allowedFrom)
}

type stubCheckoutStore struct {
	createFn  func(ctx context.Context, input store.CheckoutSessionInput) error
	getByIDFn func(ctx context.Context, sessionID string) (models.CheckoutSession, error)
}

func (s stubCheckoutStore) Create(ctx context.Context, input store.CheckoutSessionInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, input)
}

func (s stubCheckoutStore) GetBySessionID(ctx context.Context, sessionID string) (models.CheckoutSession, error) {
	if s.getByIDFn == nil {
		return models.CheckoutSession{}, nil
	}
	return s.getByIDFn(ctx, sessionID)
}

type stubPaymentStore struct {
	insertFn  func(ctx context.Context, tx store.Execer, input store.PaymentInput) error
	getByAppFn func(ctx context.Context, applicationID string) (models.PaymentRecord, error)
}

func (s stubPaymentStore) Insert(ctx context.Context, tx store.Execer, input store.PaymentInput) error {
	if s.insertFn == nil {
		return nil
	}
	return s.insertFn(ctx, tx, input)
}

func (s stubPaymentStore) GetByApplicationID(ctx context.Context, applicationID string) (models.PaymentRecord, error) {
	if s.getByAppFn == nil {
		return models.PaymentRecord{}, nil
	}
	return s.getByAppFn(ctx, applicationID)
}

type stubAuditStore struct {
	logFn func(ctx context.Context, tx store.Execer, actorEmail, action, entityType, entityID, data string) error
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorEmail, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorEmail, action, entityType, entityID, data)
}

type stubHub struct {
	updates []websocket.StatusUpdate
}

func (s *stubHub) BroadcastStatus(email string, update websocket.StatusUpdate) {
	s.updates = append(s.updates, update)
}

type stubGateway struct {
	createFn   func(ctx context.Context, req checkout.SessionRequest) (checkout.Session, error)
	retrieveFn func(ctx context.Context, sessionID string) (checkout.SessionStatus, error)
}

func (s stubGateway) CreateSession(ctx context.Context, req checkout.SessionRequest) (checkout.Session, error) {
	if s.createFn == nil {
		return checkout.Session{ID: "sess-1", URL: "https://pay.example.com/sess-1"}, nil
	}
	return s.createFn(ctx, req)
}

func (s stubGateway) RetrieveSession(ctx context.Context, sessionID string) (checkout.SessionStatus, error) {
	if s.retrieveFn == nil {
		return checkout.SessionStatus{ID: sessionID, Paid: true, TransactionID: "txn-" + sessionID}, nil
	}
	return s.retrieveFn(ctx, sessionID)
}
