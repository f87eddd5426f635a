package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"tuition/internal/models"
	"tuition/internal/services"
)

func TestCreateCheckoutSession(t *testing.T) {
	h := newTestHandler(fakeTxRunner{},
		actorStore(models.Actor{Email: "student@example.com", Role: models.RoleStudent}),
		stubTuitionStore{}, stubApplicationStore{}, stubAuditStore{},
		stubTuitionService{}, stubApplicationService{},
		stubSettlementService{
			initiateFn: func(_ context.Context, _ models.Actor, applicationID string) (services.CheckoutIntent, error) {
				if applicationID != "a-1" {
					t.Fatalf("unexpected application id: %s", applicationID)
				}
				return services.CheckoutIntent{SessionID: "sess-1", RedirectURL: "https://pay.example.com/sess-1", AmountMinor: 450000}, nil
			},
		}, stubProjectionService{})
	rr := serveAs(t, h, http.MethodPost, "/create-checkout-session", jsonBody(`{"application_id":"a-1"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["session_id"] != "sess-1" || resp["amount"] != "4500.00" {
		t.Fatalf("unexpected response: %v", resp)
	}
}

func TestCreateCheckoutSessionStudentsOnly(t *testing.T) {
	h := newTestHandler(fakeTxRunner{},
		actorStore(models.Actor{Email: "tutor@example.com", Role: models.RoleTutor}),
		stubTuitionStore{}, stubApplicationStore{}, stubAuditStore{},
		stubTuitionService{}, stubApplicationService{}, stubSettlementService{}, stubProjectionService{})
	rr := serveAs(t, h, http.MethodPost, "/create-checkout-session", jsonBody(`{"application_id":"a-1"}`))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestCreateCheckoutSessionRequiresApplicationID(t *testing.T) {
	h := newTestHandler(fakeTxRunner{},
		actorStore(models.Actor{Email: "student@example.com", Role: models.RoleStudent}),
		stubTuitionStore{}, stubApplicationStore{}, stubAuditStore{},
		stubTuitionService{}, stubApplicationService{}, stubSettlementService{}, stubProjectionService{})
	rr := serveAs(t, h, http.MethodPost, "/create-checkout-session", jsonBody(`{}`))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestPaymentSuccessRequiresSessionID(t *testing.T) {
	h := newTestHandler(fakeTxRunner{},
		actorStore(models.Actor{Email: "student@example.com", Role: models.RoleStudent}),
		stubTuitionStore{}, stubApplicationStore{}, stubAuditStore{},
		stubTuitionService{}, stubApplicationService{}, stubSettlementService{}, stubProjectionService{})
	rr := serveAs(t, h, http.MethodPatch, "/payment-success", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestPaymentSuccessReturnsOutcome(t *testing.T) {
	h := newTestHandler(fakeTxRunner{},
		actorStore(models.Actor{Email: "student@example.com", Role: models.RoleStudent}),
		stubTuitionStore{}, stubApplicationStore{}, stubAuditStore{},
		stubTuitionService{}, stubApplicationService{},
		stubSettlementService{
			reconcileFn: func(_ context.Context, sessionID string) (services.ReconcileResult, error) {
				if sessionID != "sess-1" {
					t.Fatalf("unexpected session id: %s", sessionID)
				}
				return services.ReconcileResult{
					Payment: models.PaymentRecord{TransactionID: "txn-sess-1", AmountMinor: 450000},
					Applied: true,
				}, nil
			},
		}, stubProjectionService{})
	rr := serveAs(t, h, http.MethodPatch, "/payment-success?session_id=sess-1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["transactionId"] != "txn-sess-1" || resp["applied"] != true || resp["amount"] != "4500.00" {
		t.Fatalf("unexpected response: %v", resp)
	}
}

func TestPaymentSuccessUnknownSession(t *testing.T) {
	h := newTestHandler(fakeTxRunner{},
		actorStore(models.Actor{Email: "student@example.com", Role: models.RoleStudent}),
		stubTuitionStore{}, stubApplicationStore{}, stubAuditStore{},
		stubTuitionService{}, stubApplicationService{},
		stubSettlementService{
			reconcileFn: func(context.Context, string) (services.ReconcileResult, error) {
				return services.ReconcileResult{}, services.ErrNotFound
			},
		}, stubProjectionService{})
	rr := serveAs(t, h, http.MethodPatch, "/payment-success?session_id=missing", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestTutorRevenue(t *testing.T) {
	h := newTestHandler(fakeTxRunner{},
		actorStore(models.Actor{Email: "tutor@example.com", Role: models.RoleTutor}),
		stubTuitionStore{}, stubApplicationStore{}, stubAuditStore{},
		stubTuitionService{}, stubApplicationService{}, stubSettlementService{},
		stubProjectionService{
			tutorRevenueFn: func(_ context.Context, actor models.Actor) (services.RevenueSummary, error) {
				if actor.Email != "tutor@example.com" {
					t.Fatalf("unexpected actor: %s", actor.Email)
				}
				return services.RevenueSummary{TotalMinor: 750000, TutorShareMinor: 562500}, nil
			},
		})
	rr := serveAs(t, h, http.MethodGet, "/revenue", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var summary services.RevenueSummary
	if err := json.Unmarshal(rr.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if summary.TutorShareMinor != 562500 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestStudentPaymentsRoleGate(t *testing.T) {
	h := newTestHandler(fakeTxRunner{},
		actorStore(models.Actor{Email: "tutor@example.com", Role: models.RoleTutor}),
		stubTuitionStore{}, stubApplicationStore{}, stubAuditStore{},
		stubTuitionService{}, stubApplicationService{}, stubSettlementService{}, stubProjectionService{})
	rr := serveAs(t, h, http.MethodGet, "/my-payments", nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rr.Code, rr.Body.String())
	}
}
