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
	"tuition/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ApplicationStore interface {
	Create(ctx context.Context, tx store.Execer, input store.ApplicationInput) error
	GetByID(ctx context.Context, applicationID string) (models.TutorApplication, error)
	UpdateStatus(ctx context.Context, tx store.Execer, applicationID string, target models.ApplicationStatus, allowedFrom []models.ApplicationStatus) (int64, error)
	Delete(ctx context.Context, tx store.Execer, applicationID string, allowedFrom []models.ApplicationStatus) (int64, error)
}

type TuitionGetter interface {
	GetByID(ctx context.Context, tuitionID string) (models.TuitionRequest, error)
}

type StatusHub interface {
	BroadcastStatus(email string, update websocket.StatusUpdate)
}

// ApplicationService is the lifecycle engine for tutor applications:
// requested → approved → paid → confirmed, with rejected as the alternate
// terminal branch. Paid is written only by the settlement service.
type ApplicationService struct {
	txRunner   db.TxRunner
	appStore   ApplicationStore
	tuitions   TuitionGetter
	auditStore AuditStore
	hub        StatusHub
}

func NewApplicationService(txRunner db.TxRunner, appStore ApplicationStore, tuitions TuitionGetter, auditStore AuditStore, hub StatusHub) *ApplicationService {
	return &ApplicationService{
		txRunner:   txRunner,
		appStore:   appStore,
		tuitions:   tuitions,
		auditStore: auditStore,
		hub:        hub,
	}
}

type ApplyInput struct {
	TuitionID           string
	Qualifications      string
	Experience          string
	ExpectedSalaryMinor int64
}

// Apply creates an application in the requested state. Only approved
// requests are open for applications; a second live application by the
// same tutor is rejected by the store's unique index, never overwritten.
func (s *ApplicationService) Apply(ctx context.Context, actor models.Actor, input ApplyInput) (models.TutorApplication, error) {
	if actor.Role != models.RoleTutor {
		return models.TutorApplication{}, ErrForbidden
	}
	if input.ExpectedSalaryMinor <= 0 {
		return models.TutorApplication{}, ErrValidation
	}
	tuition, err := s.tuitions.GetByID(ctx, input.TuitionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.TutorApplication{}, ErrNotFound
		}
		return models.TutorApplication{}, err
	}
	// Unapproved requests are invisible to tutors, so they do not exist
	// from the applicant's point of view.
	if tuition.ModerationStatus != models.ModerationApproved {
		return models.TutorApplication{}, ErrNotFound
	}
	applicationID := uuid.NewString()
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.appStore.Create(ctx, tx, store.ApplicationInput{
			ID:                  applicationID,
			TuitionID:           tuition.ID,
			TutorEmail:          strings.ToLower(actor.Email),
			StudentEmail:        tuition.CreatedBy,
			Qualifications:      input.Qualifications,
			Experience:          input.Experience,
			ExpectedSalaryMinor: input.ExpectedSalaryMinor,
		}); err != nil {
			return err
		}
		return s.audit(ctx, tx, actor, "apply", applicationID, nil)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return models.TutorApplication{}, ErrConflict
		}
		return models.TutorApplication{}, err
	}
	return s.appStore.GetByID(ctx, applicationID)
}

// Approve is reserved for the owning student.
func (s *ApplicationService) Approve(ctx context.Context, actor models.Actor, applicationID string) (models.TutorApplication, error) {
	application, err := s.load(ctx, applicationID)
	if err != nil {
		return models.TutorApplication{}, err
	}
	if actor.Role != models.RoleStudent || !strings.EqualFold(application.StudentEmail, actor.Email) {
		return models.TutorApplication{}, ErrForbidden
	}
	return s.transition(ctx, actor, application, models.ApplicationApproved, "approve_application")
}

// Reject is available to the owning student and to admins, up until the
// application is settled.
func (s *ApplicationService) Reject(ctx context.Context, actor models.Actor, applicationID string) (models.TutorApplication, error) {
	application, err := s.load(ctx, applicationID)
	if err != nil {
		return models.TutorApplication{}, err
	}
	ownerStudent := actor.Role == models.RoleStudent && strings.EqualFold(application.StudentEmail, actor.Email)
	if !ownerStudent && !actor.IsAdmin() {
		return models.TutorApplication{}, ErrForbidden
	}
	return s.transition(ctx, actor, application, models.ApplicationRejected, "reject_application")
}

// Confirm is reserved for the applicant tutor, and only once the payment
// has settled.
func (s *ApplicationService) Confirm(ctx context.Context, actor models.Actor, applicationID string) (models.TutorApplication, error) {
	application, err := s.load(ctx, applicationID)
	if err != nil {
		return models.TutorApplication{}, err
	}
	if actor.Role != models.RoleTutor || !strings.EqualFold(application.TutorEmail, actor.Email) {
		return models.TutorApplication{}, ErrForbidden
	}
	return s.transition(ctx, actor, application, models.ApplicationConfirmed, "confirm_application")
}

// Delete retracts an application. The owning tutor may retract while
// requested or approved; the owning student and admins only while
// requested. Settled applications are immovable.
func (s *ApplicationService) Delete(ctx context.Context, actor models.Actor, applicationID string) error {
	application, err := s.load(ctx, applicationID)
	if err != nil {
		return err
	}
	var allowedFrom []models.ApplicationStatus
	switch {
	case actor.Role == models.RoleTutor && strings.EqualFold(application.TutorEmail, actor.Email):
		allowedFrom = []models.ApplicationStatus{models.ApplicationRequested, models.ApplicationApproved}
	case actor.IsAdmin(), actor.Role == models.RoleStudent && strings.EqualFold(application.StudentEmail, actor.Email):
		allowedFrom = []models.ApplicationStatus{models.ApplicationRequested}
	default:
		return ErrForbidden
	}
	if !application.Status.Deletable() {
		return ErrInvalidTransition
	}
	if !statusIn(application.Status, allowedFrom) {
		return ErrForbidden
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		rows, err := s.appStore.Delete(ctx, tx, applicationID, allowedFrom)
		if err != nil {
			return err
		}
		if rows == 0 {
			// The status moved underneath us between the read and the
			// conditional delete.
			return ErrConflict
		}
		return s.audit(ctx, tx, actor, "delete_application", applicationID, nil)
	})
	return err
}

// transition performs the single conditional write every status change
// goes through. A zero row count distinguishes two failures: the loaded
// status was never a legal predecessor (invalid transition) or it was but
// a concurrent writer got there first (conflict).
func (s *ApplicationService) transition(ctx context.Context, actor models.Actor, application models.TutorApplication, target models.ApplicationStatus, action string) (models.TutorApplication, error) {
	allowedFrom := models.ApplicationPredecessors(target)
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		rows, err := s.appStore.UpdateStatus(ctx, tx, application.ID, target, allowedFrom)
		if err != nil {
			return err
		}
		if rows == 0 {
			if !models.CanTransition(application.Status, target) {
				return ErrInvalidTransition
			}
			return ErrConflict
		}
		return s.audit(ctx, tx, actor, action, application.ID, map[string]string{
			"status": string(target),
		})
	})
	if err != nil {
		return models.TutorApplication{}, err
	}
	updated, err := s.appStore.GetByID(ctx, application.ID)
	if err != nil {
		return models.TutorApplication{}, err
	}
	s.broadcast(updated)
	return updated, nil
}

func (s *ApplicationService) load(ctx context.Context, applicationID string) (models.TutorApplication, error) {
	application, err := s.appStore.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.TutorApplication{}, ErrNotFound
		}
		return models.TutorApplication{}, err
	}
	return application, nil
}

func (s *ApplicationService) broadcast(application models.TutorApplication) {
	update := websocket.StatusUpdate{
		ApplicationID: application.ID,
		TuitionID:     application.TuitionID,
		Status:        string(application.Status),
	}
	s.hub.BroadcastStatus(application.StudentEmail, update)
	s.hub.BroadcastStatus(application.TutorEmail, update)
}

func (s *ApplicationService) audit(ctx context.Context, tx *sqlx.Tx, actor models.Actor, action, applicationID string, extra map[string]string) error {
	data := "{}"
	if extra != nil {
		encoded, _ := json.Marshal(extra)
		data = string(encoded)
	}
	return s.auditStore.Log(ctx, tx, actor.Email, action, "application", applicationID, data)
}

func statusIn(status models.ApplicationStatus, set []models.ApplicationStatus) bool {
	for _, candidate := range set {
		if candidate == status {
			return true
		}
	}
	return false
}
