package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"tuition/internal/checkout"
	"tuition/internal/db"
	"tuition/internal/models"
	"tuition/internal/money"
	"tuition/internal/store"
	"tuition/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type CheckoutStore interface {
	Create(ctx context.Context, input store.CheckoutSessionInput) error
	GetBySessionID(ctx context.Context, sessionID string) (models.CheckoutSession, error)
}

type PaymentStore interface {
	Insert(ctx context.Context, tx store.Execer, input store.PaymentInput) error
	GetByApplicationID(ctx context.Context, applicationID string) (models.PaymentRecord, error)
}

type CheckoutGateway interface {
	CreateSession(ctx context.Context, req checkout.SessionRequest) (checkout.Session, error)
	RetrieveSession(ctx context.Context, sessionID string) (checkout.SessionStatus, error)
}

// SettlementService initiates hosted checkouts and reconciles their
// completion callbacks. It is the only writer of the paid status.
type SettlementService struct {
	txRunner      db.TxRunner
	checkoutStore CheckoutStore
	appStore      ApplicationStore
	paymentStore  PaymentStore
	auditStore    AuditStore
	gateway       CheckoutGateway
	hub           StatusHub
	currency      string
	platformRate  decimal.Decimal
}

func NewSettlementService(txRunner db.TxRunner, checkoutStore CheckoutStore, appStore ApplicationStore, paymentStore PaymentStore, auditStore AuditStore, gateway CheckoutGateway, hub StatusHub, currency, platformRate string) *SettlementService {
	return &SettlementService{
		txRunner:      txRunner,
		checkoutStore: checkoutStore,
		appStore:      appStore,
		paymentStore:  paymentStore,
		auditStore:    auditStore,
		gateway:       gateway,
		hub:           hub,
		currency:      currency,
		platformRate:  money.ParseRate(platformRate),
	}
}

type CheckoutIntent struct {
	SessionID   string
	RedirectURL string
	AmountMinor int64
}

// InitiateCheckout opens an external checkout session for an approved
// application. The charge is the application's expected salary, not the
// request budget: the accepted offer is the authoritative amount.
func (s *SettlementService) InitiateCheckout(ctx context.Context, actor models.Actor, applicationID string) (CheckoutIntent, error) {
	application, err := s.appStore.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CheckoutIntent{}, ErrNotFound
		}
		return CheckoutIntent{}, err
	}
	if actor.Role != models.RoleStudent || !strings.EqualFold(application.StudentEmail, actor.Email) {
		return CheckoutIntent{}, ErrForbidden
	}
	if application.Status != models.ApplicationApproved {
		return CheckoutIntent{}, ErrInvalidTransition
	}
	session, err := s.gateway.CreateSession(ctx, checkout.SessionRequest{
		ReferenceID: application.ID,
		AmountMinor: application.ExpectedSalaryMinor,
		Currency:    s.currency,
		PayerEmail:  application.StudentEmail,
		PayeeEmail:  application.TutorEmail,
		Description: "Tuition engagement " + application.TuitionID,
	})
	if err != nil {
		return CheckoutIntent{}, fmt.Errorf("initiate checkout: %w", err)
	}
	if err := s.checkoutStore.Create(ctx, store.CheckoutSessionInput{
		SessionID:     session.ID,
		ApplicationID: application.ID,
		AmountMinor:   application.ExpectedSalaryMinor,
		PayerEmail:    application.StudentEmail,
		PayeeEmail:    application.TutorEmail,
	}); err != nil {
		return CheckoutIntent{}, err
	}
	return CheckoutIntent{
		SessionID:   session.ID,
		RedirectURL: session.URL,
		AmountMinor: application.ExpectedSalaryMinor,
	}, nil
}

type ReconcileResult struct {
	Payment models.PaymentRecord
	Split   money.RevenueSplit
	// Applied is false when the callback was redelivered or arrived for an
	// application that can no longer be paid; those are quiet no-ops.
	Applied bool
	Reason  string
}

// Reconcile settles a completed external checkout. It is safe to call any
// number of times with the same session: the first call creates exactly
// one payment record and one approved→paid transition, every later call
// returns the existing record untouched. Callbacks that can no longer be
// applied are logged and swallowed, because the provider cannot tell
// "already handled" apart from "failed".
func (s *SettlementService) Reconcile(ctx context.Context, sessionID string) (ReconcileResult, error) {
	session, err := s.checkoutStore.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ReconcileResult{}, ErrNotFound
		}
		return ReconcileResult{}, err
	}
	if existing, err := s.paymentStore.GetByApplicationID(ctx, session.ApplicationID); err == nil {
		return s.settled(existing, false, "already settled"), nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return ReconcileResult{}, err
	}
	application, err := s.appStore.GetByID(ctx, session.ApplicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ReconcileResult{}, ErrNotFound
		}
		return ReconcileResult{}, err
	}
	if application.Status != models.ApplicationApproved {
		log.Printf("reconcile: session %s ignored, application %s is %s", sessionID, application.ID, application.Status)
		return ReconcileResult{Reason: "application is " + string(application.Status)}, nil
	}
	status, err := s.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("reconcile session %s: %w", sessionID, err)
	}
	if !status.Paid {
		log.Printf("reconcile: session %s not settled at provider, ignoring", sessionID)
		return ReconcileResult{Reason: "session not paid"}, nil
	}
	payment := store.PaymentInput{
		ID:            uuid.NewString(),
		ApplicationID: application.ID,
		AmountMinor:   session.AmountMinor,
		Currency:      s.currency,
		TransactionID: status.TransactionID,
		StudentEmail:  application.StudentEmail,
		TutorEmail:    application.TutorEmail,
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		rows, err := s.appStore.UpdateStatus(ctx, tx, application.ID, models.ApplicationPaid, models.ApplicationPredecessors(models.ApplicationPaid))
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrConflict
		}
		if err := s.paymentStore.Insert(ctx, tx, payment); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"session_id":     sessionID,
			"transaction_id": status.TransactionID,
			"amount":         money.FormatMinor(session.AmountMinor),
		})
		return s.auditStore.Log(ctx, tx, "system", "reconcile_payment", "application", application.ID, string(data))
	})
	if err != nil {
		// A concurrent delivery of the same callback won the race; hand
		// back whatever it recorded.
		if errors.Is(err, ErrConflict) || isUniqueViolation(err) {
			if existing, lookupErr := s.paymentStore.GetByApplicationID(ctx, application.ID); lookupErr == nil {
				return s.settled(existing, false, "settled concurrently"), nil
			}
			log.Printf("reconcile: session %s lost the race and no record exists, ignoring", sessionID)
			return ReconcileResult{Reason: "superseded"}, nil
		}
		return ReconcileResult{}, err
	}
	record, err := s.paymentStore.GetByApplicationID(ctx, application.ID)
	if err != nil {
		return ReconcileResult{}, err
	}
	update := websocket.StatusUpdate{
		ApplicationID: application.ID,
		TuitionID:     application.TuitionID,
		Status:        string(models.ApplicationPaid),
	}
	s.hub.BroadcastStatus(application.StudentEmail, update)
	s.hub.BroadcastStatus(application.TutorEmail, update)
	return s.settled(record, true, ""), nil
}

func (s *SettlementService) settled(record models.PaymentRecord, applied bool, reason string) ReconcileResult {
	return ReconcileResult{
		Payment: record,
		Split:   money.Split(record.AmountMinor, s.platformRate),
		Applied: applied,
		Reason:  reason,
	}
}
