package handlers

import (
	"context"

	"tuition/internal/models"
	"tuition/internal/services"
	"tuition/internal/store"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, input store.UserInput) error
	GetByEmail(ctx context.Context, email string) (map[string]any, error)
	GetByID(ctx context.Context, userID string) (map[string]any, error)
	GetActor(ctx context.Context, userID string) (models.Actor, error)
	UpdateRole(ctx context.Context, tx store.Execer, userID, role string) (int64, error)
	Delete(ctx context.Context, tx store.Execer, userID string) (int64, error)
	List(ctx context.Context, searchText string, limit, offset int) ([]map[string]any, error)
}

type TuitionStore interface {
	ListApproved(ctx context.Context, limit, offset int) ([]models.TuitionRequest, error)
	ListByOwner(ctx context.Context, ownerEmail string, limit, offset int) ([]models.TuitionRequest, error)
	ListAll(ctx context.Context, limit, offset int) ([]models.TuitionRequest, error)
	GetByID(ctx context.Context, tuitionID string) (models.TuitionRequest, error)
}

type ApplicationStore interface {
	ListByTutor(ctx context.Context, tutorEmail string, limit, offset int) ([]map[string]any, error)
	ListByTuition(ctx context.Context, tuitionID string) ([]map[string]any, error)
	CountByTutor(ctx context.Context, tutorEmail string) (int64, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorEmail, action, entityType, entityID, data string) error
	List(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

type TuitionService interface {
	Post(ctx context.Context, actor models.Actor, input services.PostTuitionInput) (models.TuitionRequest, error)
	Get(ctx context.Context, actor models.Actor, tuitionID string) (models.TuitionRequest, error)
	Update(ctx context.Context, actor models.Actor, tuitionID string, input services.PostTuitionInput) (models.TuitionRequest, error)
	Delete(ctx context.Context, actor models.Actor, tuitionID string) error
	Moderate(ctx context.Context, actor models.Actor, tuitionID string, target models.ModerationStatus) (models.TuitionRequest, error)
}

type ApplicationService interface {
	Apply(ctx context.Context, actor models.Actor, input services.ApplyInput) (models.TutorApplication, error)
	Approve(ctx context.Context, actor models.Actor, applicationID string) (models.TutorApplication, error)
	Reject(ctx context.Context, actor models.Actor, applicationID string) (models.TutorApplication, error)
	Confirm(ctx context.Context, actor models.Actor, applicationID string) (models.TutorApplication, error)
	Delete(ctx context.Context, actor models.Actor, applicationID string) error
}

type SettlementService interface {
	InitiateCheckout(ctx context.Context, actor models.Actor, applicationID string) (services.CheckoutIntent, error)
	Reconcile(ctx context.Context, sessionID string) (services.ReconcileResult, error)
}

type ProjectionService interface {
	AdminOverview(ctx context.Context) (services.Overview, error)
	AllPayments(ctx context.Context, limit, offset int) ([]services.PaymentView, error)
	TutorRevenue(ctx context.Context, actor models.Actor) (services.RevenueSummary, error)
	StudentPayments(ctx context.Context, actor models.Actor) ([]services.PaymentView, error)
	LatestTuitions(ctx context.Context, limit int) ([]models.TuitionRequest, error)
}
