package domain

import (
	"fmt"
	"time"

	"campus-billing/internal/money"
)

type PaymentPlan string

const (
	PlanMonthly   PaymentPlan = "monthly"
	PlanQuarterly PaymentPlan = "quarterly"
	PlanFull      PaymentPlan = "full"
)

// ParsePaymentPlan rejects values outside the enumeration instead of silently
// treating them as a single full payment.
func ParsePaymentPlan(s string) (PaymentPlan, error) {
	switch PaymentPlan(s) {
	case PlanMonthly, PlanQuarterly, PlanFull:
		return PaymentPlan(s), nil
	}
	return "", fmt.Errorf("unknown payment plan %q", s)
}

// Installments returns the installment count and the cadence step in months.
func (p PaymentPlan) Installments() (count int, stepMonths int) {
	switch p {
	case PlanMonthly:
		return 10, 1
	case PlanQuarterly:
		return 4, 3
	default:
		return 1, 1
	}
}

type EnrollmentStatus string

const (
	EnrollmentPending  EnrollmentStatus = "pending"
	EnrollmentApproved EnrollmentStatus = "approved"
	EnrollmentRejected EnrollmentStatus = "rejected"
)

// Enrollment is one student's registration in one program for one term.
// TuitionFee is fixed at approval time; billing never changes it retroactively.
type Enrollment struct {
	ID           string
	StudentID    string
	ProgramID    string
	TuitionFee   money.Amount
	PaymentPlan  PaymentPlan
	AcademicYear string
	Semester     string
	Status       EnrollmentStatus

	ApprovedAt *time.Time
	CreatedAt  *time.Time
}
