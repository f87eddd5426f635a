package models

import "time"

const (
	RoleStudent = "student"
	RoleTutor   = "tutor"
	RoleAdmin   = "admin"
)

// Actor is the resolved principal every core operation is called with.
type Actor struct {
	Email string
	Role  string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

type UserAccount struct {
	ID          string    `db:"id" json:"id"`
	Email       string    `db:"email" json:"email"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Phone       string    `db:"phone" json:"phone"`
	Role        string    `db:"role" json:"role"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type TuitionRequest struct {
	ID               string           `db:"id" json:"id"`
	Subject          string           `db:"subject" json:"subject"`
	ClassLevel       string           `db:"class_level" json:"class_level"`
	Location         string           `db:"location" json:"location"`
	BudgetMinor      int64            `db:"budget_minor" json:"budget_minor"`
	CreatedBy        string           `db:"created_by" json:"created_by"`
	ModerationStatus ModerationStatus `db:"moderation_status" json:"moderation_status"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

type TutorApplication struct {
	ID                  string            `db:"id" json:"id"`
	TuitionID           string            `db:"tuition_id" json:"tuition_id"`
	TutorEmail          string            `db:"tutor_email" json:"tutor_email"`
	StudentEmail        string            `db:"student_email" json:"student_email"`
	Qualifications      string            `db:"qualifications" json:"qualifications"`
	Experience          string            `db:"experience" json:"experience"`
	ExpectedSalaryMinor int64             `db:"expected_salary_minor" json:"expected_salary_minor"`
	Status              ApplicationStatus `db:"status" json:"status"`
	CreatedAt           time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time         `db:"updated_at" json:"updated_at"`
}

// PaymentRecord is immutable once inserted; exactly one exists per application.
type PaymentRecord struct {
	ID            string    `db:"id" json:"id"`
	ApplicationID string    `db:"application_id" json:"application_id"`
	AmountMinor   int64     `db:"amount_minor" json:"amount_minor"`
	Currency      string    `db:"currency" json:"currency"`
	TransactionID string    `db:"transaction_id" json:"transaction_id"`
	StudentEmail  string    `db:"student_email" json:"student_email"`
	TutorEmail    string    `db:"tutor_email" json:"tutor_email"`
	PaidAt        time.Time `db:"paid_at" json:"paid_at"`
}

// CheckoutSession binds an external checkout session to the application it
// pays for. Written at initiation, read back by the reconciler.
type CheckoutSession struct {
	SessionID     string    `db:"session_id" json:"session_id"`
	ApplicationID string    `db:"application_id" json:"application_id"`
	AmountMinor   int64     `db:"amount_minor" json:"amount_minor"`
	PayerEmail    string    `db:"payer_email" json:"payer_email"`
	PayeeEmail    string    `db:"payee_email" json:"payee_email"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
