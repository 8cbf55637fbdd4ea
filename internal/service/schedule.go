package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"campus-billing/internal/clients"
	"campus-billing/internal/domain"
	"campus-billing/internal/money"
	"campus-billing/internal/repository"

	"github.com/google/uuid"
)

type EnrollmentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Enrollment, error)
}

type ScheduleBillRepository interface {
	List(ctx context.Context, f repository.BillsFilter) ([]domain.Bill, error)
	CreateBatch(ctx context.Context, bills []domain.Bill) error
}

type ScheduleService struct {
	enrollments EnrollmentRepository
	bills       ScheduleBillRepository
	ws          *clients.WebSocketClient
}

func NewScheduleService(enrollments EnrollmentRepository, bills ScheduleBillRepository, ws *clients.WebSocketClient) *ScheduleService {
	return &ScheduleService{
		enrollments: enrollments,
		bills:       bills,
		ws:          ws,
	}
}

// BuildSchedule converts an approved enrollment into its installment bills.
// Pure: no store access, no clock reads beyond the given approval date.
//
// Per-installment amount is ceilDiv(fee, N) in centavos, so every installment
// except the last overestimates or matches, never underestimates; the last
// takes the remainder and the set sums to the fee exactly. Due dates advance
// from the approval month by the plan cadence, normalized to the 1st.
func BuildSchedule(e *domain.Enrollment, approvedAt time.Time) ([]domain.Bill, error) {
	if e.TuitionFee < 0 {
		return nil, ErrNegativeTuitionFee
	}

	n, step := e.PaymentPlan.Installments()
	per := money.CeilDiv(e.TuitionFee, int64(n))

	base := time.Date(approvedAt.Year(), approvedAt.Month(), 1, 0, 0, 0, 0, approvedAt.Location())

	bills := make([]domain.Bill, 0, n)
	for i := 0; i < n; i++ {
		amount := per
		if i == n-1 {
			amount = e.TuitionFee - per*money.Amount(n-1)
		}

		enrollmentID := e.ID
		note := fmt.Sprintf("%s payment %d of %d", e.PaymentPlan, i+1, n)

		bills = append(bills, domain.Bill{
			ID:           uuid.NewString(),
			StudentID:    e.StudentID,
			EnrollmentID: &enrollmentID,
			Amount:       amount,
			DueDate:      base.AddDate(0, (i+1)*step, 0),
			Status:       domain.BillPending,
			Notes:        &note,
		})
	}

	return bills, nil
}

// GenerateSchedule builds and persists the installment set for an approved
// enrollment. The insert is all-or-nothing; a store failure leaves nothing
// behind.
func (s *ScheduleService) GenerateSchedule(ctx context.Context, enrollmentID string) ([]domain.Bill, error) {
	e, err := s.enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}

	if e.Status != domain.EnrollmentApproved {
		return nil, ErrEnrollmentNotApproved
	}

	// a retried or duplicated request must never double-bill the student
	existing, err := s.bills.List(ctx, repository.BillsFilter{EnrollmentID: &enrollmentID})
	if err != nil {
		return nil, fmt.Errorf("check existing bills for enrollment %q: %w", enrollmentID, err)
	}
	if len(existing) > 0 {
		return nil, ErrScheduleExists
	}

	approvedAt := time.Now()
	if e.ApprovedAt != nil {
		approvedAt = *e.ApprovedAt
	}

	bills, err := BuildSchedule(e, approvedAt)
	if err != nil {
		return nil, err
	}

	if err := s.bills.CreateBatch(ctx, bills); err != nil {
		return nil, fmt.Errorf("persist schedule for enrollment %q: %w", enrollmentID, err)
	}

	if s.ws != nil {
		if err := s.ws.NotifyScheduleGenerated(ctx, e.StudentID, e.ID, len(bills), e.TuitionFee); err != nil {
			log.Printf("schedule notify error for enrollment %s: %v", e.ID, err)
		}
	}

	return bills, nil
}
