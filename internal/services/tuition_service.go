package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"tuition/internal/db"
	"tuition/internal/models"
	"tuition/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type TuitionStore interface {
	Create(ctx context.Context, tx store.Execer, input store.TuitionInput) error
	GetByID(ctx context.Context, tuitionID string) (models.TuitionRequest, error)
	UpdateModerationStatus(ctx context.Context, tx store.Execer, tuitionID string, target models.ModerationStatus, allowedFrom []models.ModerationStatus) (int64, error)
	Update(ctx context.Context, tx store.Execer, tuitionID string, input store.TuitionInput) (int64, error)
	Delete(ctx context.Context, tx store.Execer, tuitionID string) (int64, error)
}

type SettledChecker interface {
	ExistsSettledForTuition(ctx context.Context, tuitionID string) (bool, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorEmail, action, entityType, entityID, data string) error
}

// TuitionService owns the tuition request lifecycle: posting, owner edits,
// and the admin moderation gate that controls tutor-facing visibility.
type TuitionService struct {
	txRunner     db.TxRunner
	tuitionStore TuitionStore
	applications SettledChecker
	auditStore   AuditStore
}

func NewTuitionService(txRunner db.TxRunner, tuitionStore TuitionStore, applications SettledChecker, auditStore AuditStore) *TuitionService {
	return &TuitionService{
		txRunner:     txRunner,
		tuitionStore: tuitionStore,
		applications: applications,
		auditStore:   auditStore,
	}
}

type PostTuitionInput struct {
	Subject     string
	ClassLevel  string
	Location    string
	BudgetMinor int64
}

func (s *TuitionService) Post(ctx context.Context, actor models.Actor, input PostTuitionInput) (models.TuitionRequest, error) {
	if actor.Role != models.RoleStudent {
		return models.TuitionRequest{}, ErrForbidden
	}
	if err := validateTuitionInput(input); err != nil {
		return models.TuitionRequest{}, err
	}
	tuitionID := uuid.NewString()
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.tuitionStore.Create(ctx, tx, store.TuitionInput{
			ID:          tuitionID,
			Subject:     input.Subject,
			ClassLevel:  input.ClassLevel,
			Location:    input.Location,
			BudgetMinor: input.BudgetMinor,
			CreatedBy:   strings.ToLower(actor.Email),
		}); err != nil {
			return err
		}
		return s.audit(ctx, tx, actor, "post_tuition", tuitionID, nil)
	})
	if err != nil {
		return models.TuitionRequest{}, err
	}
	return s.tuitionStore.GetByID(ctx, tuitionID)
}

// Get applies the visibility rule: approved requests are public, anything
// else is only visible to its owner and to admins.
func (s *TuitionService) Get(ctx context.Context, actor models.Actor, tuitionID string) (models.TuitionRequest, error) {
	tuition, err := s.tuitionStore.GetByID(ctx, tuitionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.TuitionRequest{}, ErrNotFound
		}
		return models.TuitionRequest{}, err
	}
	if tuition.ModerationStatus == models.ModerationApproved {
		return tuition, nil
	}
	if actor.IsAdmin() || strings.EqualFold(tuition.CreatedBy, actor.Email) {
		return tuition, nil
	}
	return models.TuitionRequest{}, ErrNotFound
}

func (s *TuitionService) Update(ctx context.Context, actor models.Actor, tuitionID string, input PostTuitionInput) (models.TuitionRequest, error) {
	if err := validateTuitionInput(input); err != nil {
		return models.TuitionRequest{}, err
	}
	tuition, err := s.ownedTuition(ctx, actor, tuitionID)
	if err != nil {
		return models.TuitionRequest{}, err
	}
	if err := s.ensureNotSettled(ctx, tuition.ID); err != nil {
		return models.TuitionRequest{}, err
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		rows, err := s.tuitionStore.Update(ctx, tx, tuitionID, store.TuitionInput{
			Subject:     input.Subject,
			ClassLevel:  input.ClassLevel,
			Location:    input.Location,
			BudgetMinor: input.BudgetMinor,
		})
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotFound
		}
		return s.audit(ctx, tx, actor, "update_tuition", tuitionID, nil)
	})
	if err != nil {
		return models.TuitionRequest{}, err
	}
	return s.tuitionStore.GetByID(ctx, tuitionID)
}

func (s *TuitionService) Delete(ctx context.Context, actor models.Actor, tuitionID string) error {
	tuition, err := s.ownedTuition(ctx, actor, tuitionID)
	if err != nil {
		return err
	}
	if err := s.ensureNotSettled(ctx, tuition.ID); err != nil {
		return err
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		rows, err := s.tuitionStore.Delete(ctx, tx, tuitionID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotFound
		}
		return s.audit(ctx, tx, actor, "delete_tuition", tuitionID, nil)
	})
}

// Moderate moves a request to approved or rejected. Re-applying the same
// terminal value succeeds as a no-op so duplicate admin clicks are
// harmless, and rejected requests may be reconsidered into approved.
func (s *TuitionService) Moderate(ctx context.Context, actor models.Actor, tuitionID string, target models.ModerationStatus) (models.TuitionRequest, error) {
	if !actor.IsAdmin() {
		return models.TuitionRequest{}, ErrForbidden
	}
	allowedFrom := models.ModerationPredecessors(target)
	if allowedFrom == nil {
		return models.TuitionRequest{}, ErrValidation
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		rows, err := s.tuitionStore.UpdateModerationStatus(ctx, tx, tuitionID, target, allowedFrom)
		if err != nil {
			return err
		}
		if rows == 0 {
			if _, err := s.tuitionStore.GetByID(ctx, tuitionID); errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return ErrInvalidTransition
		}
		return s.audit(ctx, tx, actor, "moderate_tuition", tuitionID, map[string]string{
			"status": string(target),
		})
	})
	if err != nil {
		return models.TuitionRequest{}, err
	}
	return s.tuitionStore.GetByID(ctx, tuitionID)
}

func (s *TuitionService) ownedTuition(ctx context.Context, actor models.Actor, tuitionID string) (models.TuitionRequest, error) {
	tuition, err := s.tuitionStore.GetByID(ctx, tuitionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.TuitionRequest{}, ErrNotFound
		}
		return models.TuitionRequest{}, err
	}
	if !actor.IsAdmin() && !strings.EqualFold(tuition.CreatedBy, actor.Email) {
		return models.TuitionRequest{}, ErrForbidden
	}
	return tuition, nil
}

// A request with a paid or confirmed application is frozen: the engagement
// has been settled against its content.
func (s *TuitionService) ensureNotSettled(ctx context.Context, tuitionID string) error {
	settled, err := s.applications.ExistsSettledForTuition(ctx, tuitionID)
	if err != nil {
		return err
	}
	if settled {
		return ErrConflict
	}
	return nil
}

func (s *TuitionService) audit(ctx context.Context, tx *sqlx.Tx, actor models.Actor, action, tuitionID string, extra map[string]string) error {
	data := "{}"
	if extra != nil {
		encoded, _ := json.Marshal(extra)
		data = string(encoded)
	}
	return s.auditStore.Log(ctx, tx, actor.Email, action, "tuition", tuitionID, data)
}

func validateTuitionInput(input PostTuitionInput) error {
	if strings.TrimSpace(input.Subject) == "" ||
		strings.TrimSpace(input.ClassLevel) == "" ||
		strings.TrimSpace(input.Location) == "" {
		return ErrValidation
	}
	if input.BudgetMinor <= 0 {
		return ErrValidation
	}
	return nil
}
