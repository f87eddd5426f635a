package services

import (
	"context"

	"tuition/internal/models"
	"tuition/internal/money"

	"github.com/shopspring/decimal"
)

type RoleCounter interface {
	CountByRole(ctx context.Context) (map[string]int64, error)
}

type TuitionCounter interface {
	Count(ctx context.Context) (int64, error)
	CountApproved(ctx context.Context) (int64, error)
	ListApproved(ctx context.Context, limit, offset int) ([]models.TuitionRequest, error)
}

type ApplicationCounter interface {
	Count(ctx context.Context) (int64, error)
}

type PaymentReader interface {
	ListAll(ctx context.Context, limit, offset int) ([]models.PaymentRecord, error)
	ListByTutor(ctx context.Context, tutorEmail string) ([]models.PaymentRecord, error)
	ListByStudent(ctx context.Context, studentEmail string) ([]models.PaymentRecord, error)
	TotalAmount(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// ProjectionService is the read side: aggregate counts and revenue views
// recomputed from the persisted entities on every call. Nothing here
// mutates state, and nothing here is a source of truth.
type ProjectionService struct {
	users        RoleCounter
	tuitions     TuitionCounter
	applications ApplicationCounter
	payments     PaymentReader
	platformRate decimal.Decimal
}

func NewProjectionService(users RoleCounter, tuitions TuitionCounter, applications ApplicationCounter, payments PaymentReader, platformRate string) *ProjectionService {
	return &ProjectionService{
		users:        users,
		tuitions:     tuitions,
		applications: applications,
		payments:     payments,
		platformRate: money.ParseRate(platformRate),
	}
}

type Overview struct {
	Students           int64 `json:"students"`
	Tutors             int64 `json:"tutors"`
	Admins             int64 `json:"admins"`
	Tuitions           int64 `json:"tuitions"`
	ApprovedTuitions   int64 `json:"approved_tuitions"`
	Applications       int64 `json:"applications"`
	Payments           int64 `json:"payments"`
	RevenueMinor       int64 `json:"revenue_minor"`
	PlatformShareMinor int64 `json:"platform_share_minor"`
}

func (s *ProjectionService) AdminOverview(ctx context.Context) (Overview, error) {
	roleCounts, err := s.users.CountByRole(ctx)
	if err != nil {
		return Overview{}, err
	}
	tuitionCount, err := s.tuitions.Count(ctx)
	if err != nil {
		return Overview{}, err
	}
	approvedCount, err := s.tuitions.CountApproved(ctx)
	if err != nil {
		return Overview{}, err
	}
	applicationCount, err := s.applications.Count(ctx)
	if err != nil {
		return Overview{}, err
	}
	paymentCount, err := s.payments.Count(ctx)
	if err != nil {
		return Overview{}, err
	}
	revenue, err := s.payments.TotalAmount(ctx)
	if err != nil {
		return Overview{}, err
	}
	split := money.Split(revenue, s.platformRate)
	return Overview{
		Students:           roleCounts[models.RoleStudent],
		Tutors:             roleCounts[models.RoleTutor],
		Admins:             roleCounts[models.RoleAdmin],
		Tuitions:           tuitionCount,
		ApprovedTuitions:   approvedCount,
		Applications:       applicationCount,
		Payments:           paymentCount,
		RevenueMinor:       revenue,
		PlatformShareMinor: split.PlatformMinor,
	}, nil
}

// PaymentView is a payment with its derived split; the split is computed
// here rather than stored so a rate change cannot strand stale shares.
type PaymentView struct {
	models.PaymentRecord
	PlatformShareMinor int64 `json:"platform_share_minor"`
	TutorShareMinor    int64 `json:"tutor_share_minor"`
}

func (s *ProjectionService) AllPayments(ctx context.Context, limit, offset int) ([]PaymentView, error) {
	payments, err := s.payments.ListAll(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.withSplits(payments), nil
}

type RevenueSummary struct {
	Payments        []PaymentView `json:"payments"`
	TotalMinor      int64         `json:"total_minor"`
	TutorShareMinor int64         `json:"tutor_share_minor"`
}

// TutorRevenue lists the acting tutor's settled payments with share totals.
func (s *ProjectionService) TutorRevenue(ctx context.Context, actor models.Actor) (RevenueSummary, error) {
	if actor.Role != models.RoleTutor {
		return RevenueSummary{}, ErrForbidden
	}
	payments, err := s.payments.ListByTutor(ctx, actor.Email)
	if err != nil {
		return RevenueSummary{}, err
	}
	views := s.withSplits(payments)
	summary := RevenueSummary{Payments: views}
	for _, view := range views {
		summary.TotalMinor += view.AmountMinor
		summary.TutorShareMinor += view.TutorShareMinor
	}
	return summary, nil
}

func (s *ProjectionService) StudentPayments(ctx context.Context, actor models.Actor) ([]PaymentView, error) {
	if actor.Role != models.RoleStudent {
		return nil, ErrForbidden
	}
	payments, err := s.payments.ListByStudent(ctx, actor.Email)
	if err != nil {
		return nil, err
	}
	return s.withSplits(payments), nil
}

// LatestTuitions is the public home feed: approved requests only.
func (s *ProjectionService) LatestTuitions(ctx context.Context, limit int) ([]models.TuitionRequest, error) {
	if limit <= 0 {
		limit = 6
	}
	return s.tuitions.ListApproved(ctx, limit, 0)
}

func (s *ProjectionService) withSplits(payments []models.PaymentRecord) []PaymentView {
	views := make([]PaymentView, 0, len(payments))
	for _, payment := range payments {
		split := money.Split(payment.AmountMinor, s.platformRate)
		views = append(views, PaymentView{
			PaymentRecord:      payment,
			PlatformShareMinor: split.PlatformMinor,
			TutorShareMinor:    split.TutorMinor,
		})
	}
	return views
}
