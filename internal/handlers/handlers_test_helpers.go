package handlers

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tuition/internal/auth"
	"tuition/internal/config"
	"tuition/internal/models"
	"tuition/internal/services"
	"tuition/internal/store"
	"tuition/internal/websocket"

	"github.com/jmoiron/sqlx"
)

type fakeTxRunner struct {
	withTxFn func(ctx context.Context, fn func(*sqlx.Tx) error) error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.withTxFn != nil {
		return f.withTxFn(ctx, fn)
	}
	return fn(nil)
}

type stubUserStore struct {
	createFn     func(ctx context.Context, tx store.Execer, input store.UserInput) error
	getByEmailFn func(ctx context.Context, email string) (map[string]any, error)
	getByIDFn    func(ctx context.Context, userID string) (map[string]any, error)
	getActorFn   func(ctx context.Context, userID string) (models.Actor, error)
	updateRoleFn func(ctx context.Context, tx store.Execer, userID, role string) (int64, error)
	deleteFn     func(ctx context.Context, tx store.Execer, userID string) (int64, error)
	listFn       func(ctx context.Context, searchText string, limit, offset int) ([]map[string]any, error)
}

func (s stubUserStore) Create(ctx context.Context, tx store.Execer, input store.UserInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubUserStore) GetByEmail(ctx context.Context, email string) (map[string]any, error) {
	if s.getByEmailFn == nil {
		return nil, nil
	}
	return s.getByEmailFn(ctx, email)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (map[string]any, error) {
	if s.getByIDFn == nil {
		return nil, nil
	}
	return s.getByIDFn(ctx, userID)
}

func (s stubUserStore) GetActor(ctx context.Context, userID string) (models.Actor, error) {
	if s.getActorFn == nil {
		return models.Actor{}, nil
	}
	return s.getActorFn(ctx, userID)
}

func (s stubUserStore) UpdateRole(ctx context.Context, tx store.Execer, userID, role string) (int64, error) {
	if s.updateRoleFn == nil {
		return 1, nil
	}
	return s.updateRoleFn(ctx, tx, userID, role)
}

func (s stubUserStore) Delete(ctx context.Context, tx store.Execer, userID string) (int64, error) {
	if s.deleteFn == nil {
		return 1, nil
	}
	return s.deleteFn(ctx, tx, userID)
}

func (s stubUserStore) List(ctx context.Context, searchText string, limit, offset int) ([]map[string]any, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, searchText, limit, offset)
}

type stubTuitionStore struct {
	listApprovedFn func(ctx context.Context, limit, offset int) ([]models.TuitionRequest, error)
	listByOwnerFn  func(ctx context.Context, ownerEmail string, limit, offset int) ([]models.TuitionRequest, error)
	listAllFn      func(ctx context.Context, limit, offset int) ([]models.TuitionRequest, error)
	getByIDFn      func(ctx context.Context, tuitionID string) (models.TuitionRequest, error)
}

func (s stubTuitionStore) ListApproved(ctx context.Context, limit, offset int) ([]models.TuitionRequest, error) {
	if s.listApprovedFn == nil {
		return nil, nil
	}
	return s.listApprovedFn(ctx, limit, offset)
}

func (s stubTuitionStore) ListByOwner(ctx context.Context, ownerEmail string, limit, offset int) ([]models.TuitionRequest, error) {
	if s.listByOwnerFn == nil {
		return nil, nil
	}
	return s.listByOwnerFn(ctx, ownerEmail, limit, offset)
}

func (s stubTuitionStore) ListAll(ctx context.Context, limit, offset int) ([]models.TuitionRequest, error) {
	if s.listAllFn == nil {
		return nil, nil
	}
	return s.listAllFn(ctx, limit, offset)
}

func (s stubTuitionStore) GetByID(ctx context.Context, tuitionID string) (models.TuitionRequest, error) {
	if s.getByIDFn == nil {
		return models.TuitionRequest{}, nil
	}
	return s.getByIDFn(ctx, tuitionID)
}

type stubApplicationStore struct {
	listByTutorFn   func(ctx context.Context, tutorEmail string, limit, offset int) ([]map[string]any, error)
	listByTuitionFn func(ctx context.Context, tuitionID string) ([]map[string]any, error)
	countByTutorFn  func(ctx context.Context, tutorEmail string) (int64, error)
}

func (s stubApplicationStore) ListByTutor(ctx context.Context, tutorEmail string, limit, offset int) ([]map[string]any, error) {
	if s.listByTutorFn == nil {
		return nil, nil
	}
	return s.listByTutorFn(ctx, tutorEmail, limit, offset)
}

func (s stubApplicationStore) ListByTuition(ctx context.Context, tuitionID string) ([]map[string]any, error) {
	if s.listByTuitionFn == nil {
		return nil, nil
	}
	return s.listByTuitionFn(ctx, tuitionID)
}

func (s stubApplicationStore) CountByTutor(ctx context.Context, tutorEmail string) (int64, error) {
	if s.countByTutorFn == nil {
		return 0, nil
	}
	return s.countByTutorFn(ctx, tutorEmail)
}

type stubAuditStore struct {
	logFn  func(ctx context.Context, tx store.Execer, actorEmail, action, entityType, entityID, data string) error
	listFn func(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorEmail, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorEmail, action, entityType, entityID, data)
}

func (s stubAuditStore) List(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, limit, offset)
}

type stubTuitionService struct {
	postFn     func(ctx context.Context, actor models.Actor, input services.PostTuitionInput) (models.TuitionRequest, error)
	getFn      func(ctx context.Context, actor models.Actor, tuitionID string) (models.TuitionRequest, error)
	updateFn   func(ctx context.Context, actor models.Actor, tuitionID string, input services.PostTuitionInput) (models.TuitionRequest, error)
	deleteFn   func(ctx context.Context, actor models.Actor, tuitionID string) error
	moderateFn func(ctx context.Context, actor models.Actor, tuitionID string, target models.ModerationStatus) (models.TuitionRequest, error)
}

func (s stubTuitionService) Post(ctx context.Context, actor models.Actor, input services.PostTuitionInput) (models.TuitionRequest, error) {
	if s.postFn == nil {
		return models.TuitionRequest{}, nil
	}
	return s.postFn(ctx, actor, input)
}

func (s stubTuitionService) Get(ctx context.Context, actor models.Actor, tuitionID string) (models.TuitionRequest, error) {
	if s.getFn == nil {
		return models.TuitionRequest{}, nil
	}
	return s.getFn(ctx, actor, tuitionID)
}

func (s stubTuitionService) Update(ctx context.Context, actor models.Actor, tuitionID string, input services.PostTuitionInput) (models.TuitionRequest, error) {
	if s.updateFn == nil {
		return models.TuitionRequest{}, nil
	}
	return s.updateFn(ctx, actor, tuitionID, input)
}

func (s stubTuitionService) Delete(ctx context.Context, actor models.Actor, tuitionID string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, actor, tuitionID)
}

func (s stubTuitionService) Moderate(ctx context.Context, actor models.Actor, tuitionID string, target models.ModerationStatus) (models.TuitionRequest, error) {
	if s.moderateFn == nil {
		return models.TuitionRequest{}, nil
	}
	return s.moderateFn(ctx, actor, tuitionID, target)
}

type stubApplicationService struct {
	applyFn   func(ctx context.Context, actor models.Actor, input services.ApplyInput) (models.TutorApplication, error)
	approveFn func(ctx context.Context, actor models.Actor, applicationID string) (models.TutorApplication, error)
	rejectFn  func(ctx context.Context, actor models.Actor, applicationID string) (models.TutorApplication, error)
	confirmFn func(ctx context.Context, actor models.Actor, applicationID string) (models.TutorApplication, error)
	deleteFn  func(ctx context.Context, actor models.Actor, applicationID string) error
}

func (s stubApplicationService) Apply(ctx context.Context, actor models.Actor, input services.ApplyInput) (models.TutorApplication, error) {
	if s.applyFn == nil {
		return models.TutorApplication{}, nil
	}
	return s.applyFn(ctx, actor, input)
}

func (s stubApplicationService) Approve(ctx context.Context, actor models.Actor, applicationID string) (models.TutorApplication, error) {
	if s.approveFn == nil {
		return models.TutorApplication{}, nil
	}
	return s.approveFn(ctx, actor, applicationID)
}

func (s stubApplicationService) Reject(ctx context.Context, actor models.Actor, applicationID string) (models.TutorApplication, error) {
	if s.rejectFn == nil {
		return models.TutorApplication{}, nil
	}
	return s.rejectFn(ctx, actor, applicationID)
}

func (s stubApplicationService) Confirm(ctx context.Context, actor models.Actor, applicationID string) (models.TutorApplication, error) {
	if s.confirmFn == nil {
		return models.TutorApplication{}, nil
	}
	return s.confirmFn(ctx, actor, applicationID)
}

func (s stubApplicationService) Delete(ctx context.Context, actor models.Actor, applicationID string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, actor, applicationID)
}

type stubSettlementService struct {
	initiateFn  func(ctx context.Context, actor models.Actor, applicationID string) (services.CheckoutIntent, error)
	reconcileFn func(ctx context.Context, sessionID string) (services.ReconcileResult, error)
}

func (s stubSettlementService) InitiateCheckout(ctx context.Context, actor models.Actor, applicationID string) (services.CheckoutIntent, error) {
	if s.initiateFn == nil {
		return services.CheckoutIntent{}, nil
	}
	return s.initiateFn(ctx, actor, applicationID)
}

func (s stubSettlementService) Reconcile(ctx context.Context, sessionID string) (services.ReconcileResult, error) {
	if s.reconcileFn == nil {
		return services.ReconcileResult{}, nil
	}
	return s.reconcileFn(ctx, sessionID)
}

type stubProjectionService struct {
	overviewFn        func(ctx context.Context) (services.Overview, error)
	allPaymentsFn     func(ctx context.Context, limit, offset int) ([]services.PaymentView, error)
	tutorRevenueFn    func(ctx context.Context, actor models.Actor) (services.RevenueSummary, error)
	studentPaymentsFn func(ctx context.Context, actor models.Actor) ([]services.PaymentView, error)
	latestTuitionsFn  func(ctx context.Context, limit int) ([]models.TuitionRequest, error)
}

func (s stubProjectionService) AdminOverview(ctx context.Context) (services.Overview, error) {
	if s.overviewFn == nil {
		return services.Overview{}, nil
	}
	return s.overviewFn(ctx)
}

func (s stubProjectionService) AllPayments(ctx context.Context, limit, offset int) ([]services.PaymentView, error) {
	if s.allPaymentsFn == nil {
		return nil, nil
	}
	return s.allPaymentsFn(ctx, limit, offset)
}

func (s stubProjectionService) TutorRevenue(ctx context.Context, actor models.Actor) (services.RevenueSummary, error) {
	if s.tutorRevenueFn == nil {
		return services.RevenueSummary{}, nil
	}
	return s.tutorRevenueFn(ctx, actor)
}

func (s stubProjectionService) StudentPayments(ctx context.Context, actor models.Actor) ([]services.PaymentView, error) {
	if s.studentPaymentsFn == nil {
		return nil, nil
	}
	return s.studentPaymentsFn(ctx, actor)
}

func (s stubProjectionService) LatestTuitions(ctx context.Context, limit int) ([]models.TuitionRequest, error) {
	if s.latestTuitionsFn == nil {
		return nil, nil
	}
	return s.latestTuitionsFn(ctx, limit)
}

func newTestHandler(txRunner fakeTxRunner, users UserStore, tuitions TuitionStore, applications ApplicationStore, audit AuditStore, tuitionSvc TuitionService, appSvc ApplicationService, settlement SettlementService, projections ProjectionService) *Handler {
	cfg := config.Config{
		AppEnv:         "test",
		Port:           "0",
		JWTSecret:      "secret",
		TokenTTL:       time.Minute,
		AllowedOrigins: "*",
		Currency:       "BDT",
	}
	return New(txRunner, cfg, users, tuitions, applications, audit, tuitionSvc, appSvc, settlement, projections, websocket.NewHub())
}

// serveAs routes the request through the full Routes() stack with a real
// token; the handler's user store decides which actor the token resolves to.
func serveAs(t *testing.T, h *Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	token, err := auth.GenerateToken("secret", "user-1", time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	h.Routes().ServeHTTP(rr, req)
	return rr
}

// serveAnon hits a route without any Authorization header.
func serveAnon(t *testing.T, h *Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	h.Routes().ServeHTTP(rr, req)
	return rr
}

func actorStore(actor models.Actor) stubUserStore {
	return stubUserStore{
		getActorFn: func(context.Context, string) (models.Actor, error) {
			return actor, nil
		},
	}
}

func jsonBody(payload string) io.Reader {
	return strings.NewReader(payload)
}
