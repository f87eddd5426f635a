package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"tuition/internal/models"
	"tuition/internal/services"
)

func TestApplyRejectsStudents(t *testing.T) {
	h := newTestHandler(fakeTxRunner{},
		actorStore(models.Actor{Email: "student@example.com", Role: models.RoleStudent}),
		stubTuitionStore{}, stubApplicationStore{}, stubAuditStore{},
		stubTuitionService{}, stubApplicationService{}, stubSettlementService{}, stubProjectionService{})
	rr := serveAs(t, h, http.MethodPost, "/applications/", jsonBody(`{"tuition_id":"t-1","qualifications":"BSc","expected_salary":"4500"}`))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestApplyCreatesApplication(t *testing.T) {
	var got services.ApplyInput
	h := newTestHandler(fakeTxRunner{},
		actorStore(models.Actor{Email: "tutor@example.com", Role: models.RoleTutor}),
		stubTuitionStore{}, stubApplicationStore{}, stubAuditStore{},
		stubTuitionService{}, stubApplicationService{
			applyFn: func(_ context.Context, _ models.Actor, input services.ApplyInput) (models.TutorApplication, error) {
				got = input
				return models.TutorApplication{ID: "a-1", Status: models.ApplicationRequested}, nil
			},
		}, stubSettlementService{}, stubProjectionService{})
	rr := serveAs(t, h, http.MethodPost, "/applications/", jsonBody(`{"tuition_id":"t-1","qualifications":"BSc","experience":"3 years","expected_salary":"4500"}`))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if got.TuitionID != "t-1" || got.ExpectedSalaryMinor != 450000 {
		t.Fatalf("unexpected input: %+v", got)
	}
}

func TestApplyDuplicateMapsToConflict(t *testing.T) {
	h := newTestHandler(fakeTxRunner{},
		actorStore(models.Actor{Email: "tutor@example.com", Role: models.RoleTutor}),
		stubTuitionStore{}, stubApplicationStore{}, stubAuditStore{},
		stubTuitionService{}, stubApplicationService{
			applyFn: func(context.Context, models.Actor, services.ApplyInput) (models.TutorApplication, error) {
				return models.TutorApplication{}, services.ErrConflict
			},
		}, stubSettlementService{}, stubProjectionService{})
	rr := serveAs(t, h, http.MethodPost, "/applications/", jsonBody(`{"tuition_id":"t-1","qualifications":"BSc","expected_salary":"4500"}`))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestApplyValidatesPayload(t *testing.T) {
	h := newTestHandler(fakeTxRunner{},
		actorStore(models.Actor{Email: "tutor@example.com", Role: models.RoleTutor}),
		stubTuitionStore{}, stubApplicationStore{}, stubAuditStore{},
		stubTuitionService{}, stubApplicationService{}, stubSettlementService{}, stubProjectionService{})
	rr := serveAs(t, h, http.MethodPost, "/applications/", jsonBody(`{"qualifications":"BSc"}`))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestApproveApplicationRoute(t *testing.T) {
	var gotID string
	h := newTestHandler(fakeTxRunner{},
		actorStore(models.Actor{Email: "student@example.com", Role: models.RoleStudent}),
		stubTuitionStore{}, stubApplicationStore{}, stubAuditStore{},
		stubTuitionService{}, stubApplicationService{
			approveFn: func(_ context.Context, _ models.Actor, applicationID string) (models.TutorApplication, error) {
				gotID = applicationID
				return models.TutorApplication{ID: applicationID, Status: models.ApplicationApproved}, nil
			},
		}, stubSettlementService{}, stubProjectionService{})
	rr := serveAs(t, h, http.MethodPatch, "/applications/a-1/approve", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotID != "a-1" {
		t.Fatalf("unexpected id: %s", gotID)
	}
	var application models.TutorApplication
	if err := json.Unmarshal(rr.Body.Bytes(), &application); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if application.Status != models.ApplicationApproved {
		t.Fatalf("unexpected status: %s", application.Status)
	}
}

func TestConfirmBeforePaidUnprocessable(t *testing.T) {
	h := newTestHandler(fakeTxRunner{},
		actorStore(models.Actor{Email: "tutor@example.com", Role: models.RoleTutor}),
		stubTuitionStore{}, stubApplicationStore{}, stubAuditStore{},
		stubTuitionService{}, stubApplicationService{
			confirmFn: func(context.Context, models.Actor, string) (models.TutorApplication, error) {
				return models.TutorApplication{}, services.ErrInvalidTransition
			},
		}, stubSettlementService{}, stubProjectionService{})
	rr := serveAs(t, h, http.MethodPatch, "/applications/a-1/confirm", nil)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestRejectApplicationForbiddenForTutors(t *testing.T) {
	h := newTestHandler(fakeTxRunner{},
		actorStore(models.Actor{Email: "tutor@example.com", Role: models.RoleTutor}),
		stubTuitionStore{}, stubApplicationStore{}, stubAuditStore{},
		stubTuitionService{}, stubApplicationService{}, stubSettlementService{}, stubProjectionService{})
	rr := serveAs(t, h, http.MethodPatch, "/applications/a-1/reject", nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestMyApplications(t *testing.T) {
	h := newTestHandler(fakeTxRunner{},
		actorStore(models.Actor{Email: "tutor@example.com", Role: models.RoleTutor}),
		stubTuitionStore{}, stubApplicationStore{
			listByTutorFn: func(_ context.Context, tutorEmail string, limit, offset int) ([]map[string]any, error) {
				if tutorEmail != "tutor@example.com" {
					t.Fatalf("unexpected email: %s", tutorEmail)
				}
				return []map[string]any{{"id": "a-1"}}, nil
			},
			countByTutorFn: func(context.Context, string) (int64, error) { return 1, nil },
		}, stubAuditStore{},
		stubTuitionService{}, stubApplicationService{}, stubSettlementService{}, stubProjectionService{})
	rr := serveAs(t, h, http.MethodGet, "/applications/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var payload struct {
		Results []map[string]any `json:"results"`
		Total   int64            `json:"total"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Total != 1 || len(payload.Results) != 1 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestListTuitionApplicationsOwnerOnly(t *testing.T) {
	tuitions := stubTuitionStore{
		getByIDFn: func(_ context.Context, tuitionID string) (models.TuitionRequest, error) {
			return models.TuitionRequest{ID: tuitionID, CreatedBy: "owner@example.com"}, nil
		},
	}
	h := newTestHandler(fakeTxRunner{},
		actorStore(models.Actor{Email: "other@example.com", Role: models.RoleStudent}),
		tuitions, stubApplicationStore{}, stubAuditStore{},
		stubTuitionService{}, stubApplicationService{}, stubSettlementService{}, stubProjectionService{})
	rr := serveAs(t, h, http.MethodGet, "/tuitions/t-1/applications", nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rr.Code, rr.Body.String())
	}

	h = newTestHandler(fakeTxRunner{},
		actorStore(models.Actor{Email: "owner@example.com", Role: models.RoleStudent}),
		tuitions, stubApplicationStore{
			listByTuitionFn: func(context.Context, string) ([]map[string]any, error) {
				return []map[string]any{{"id": "a-1"}}, nil
			},
		}, stubAuditStore{},
		stubTuitionService{}, stubApplicationService{}, stubSettlementService{}, stubProjectionService{})
	rr = serveAs(t, h, http.MethodGet, "/tuitions/t-1/applications", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestDeleteApplicationRoute(t *testing.T) {
	h := newTestHandler(fakeTxRunner{},
		actorStore(models.Actor{Email: "tutor@example.com", Role: models.RoleTutor}),
		stubTuitionStore{}, stubApplicationStore{}, stubAuditStore{},
		stubTuitionService{}, stubApplicationService{
			deleteFn: func(context.Context, models.Actor, string) error {
				return services.ErrInvalidTransition
			},
		}, stubSettlementService{}, stubProjectionService{})
	rr := serveAs(t, h, http.MethodDelete, "/applications/a-1", nil)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rr.Code, rr.Body.String())
	}
}
