package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"campus-billing/internal/clients"
	"campus-billing/internal/domain"
	"campus-billing/internal/money"
	"campus-billing/internal/repository"

	"github.com/google/uuid"
)

// CreditMethod is the payment-method label on bills settled by overpayment
// credit rather than by the tendered payment itself.
const CreditMethod = "overpayment credit"

type PaymentBillRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Bill, error)
	ListCascadeCandidates(ctx context.Context, studentID string, after time.Time) ([]domain.Bill, error)
	SettlePending(ctx context.Context, id string, p repository.SettleParams) error
	ApplyCredit(ctx context.Context, id string, observed, credit money.Amount, note string) error
}

type PaymentService struct {
	bills PaymentBillRepository
	ws    *clients.WebSocketClient

	// requireApproval selects pending_approval over paid as the settlement
	// status, for schools where an accountant confirms each payment.
	requireApproval bool
}

func NewPaymentService(bills PaymentBillRepository, ws *clients.WebSocketClient, requireApproval bool) *PaymentService {
	return &PaymentService{
		bills:           bills,
		ws:              ws,
		requireApproval: requireApproval,
	}
}

func (s *PaymentService) settledStatus() domain.BillStatus {
	if s.requireApproval {
		return domain.BillPendingApproval
	}
	return domain.BillPaid
}

// ApplyPayment settles the target bill and cascades any excess over the
// student's later pending bills in due-date order. A partial result is
// returned alongside the error when the store fails mid-cascade; settlements
// already written stay written, and the caller reconciles from the result.
func (s *PaymentService) ApplyPayment(ctx context.Context, billID string, tendered money.Amount, method string) (*domain.PaymentResult, error) {
	if tendered <= 0 {
		return nil, ErrInvalidAmount
	}

	bill, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}

	if bill.Status != domain.BillPending {
		return nil, ErrBillNotPending
	}
	if tendered < bill.Amount {
		return nil, ErrInsufficientAmount
	}

	now := time.Now()
	txRef := uuid.NewString()

	err = s.bills.SettlePending(ctx, bill.ID, repository.SettleParams{
		Status:         s.settledStatus(),
		PaymentDate:    now,
		PaymentMethod:  method,
		TransactionRef: txRef,
	})
	if errors.Is(err, repository.ErrConditionFailed) {
		// someone settled it between our read and our write
		return nil, ErrBillNotPending
	}
	if err != nil {
		return nil, fmt.Errorf("settle target bill %q: %w", bill.ID, err)
	}

	result := &domain.PaymentResult{
		TargetBillID:   bill.ID,
		SettledBillIDs: []string{bill.ID},
		TransactionRef: txRef,
	}

	remaining := tendered - bill.Amount
	if remaining == 0 {
		s.notify(ctx, bill.StudentID, result)
		return result, nil
	}

	candidates, err := s.bills.ListCascadeCandidates(ctx, bill.StudentID, bill.DueDate)
	if err != nil {
		result.UnabsorbedCredit = remaining
		return result, fmt.Errorf("list cascade candidates for student %q: %w", bill.StudentID, err)
	}

	for _, cand := range candidates {
		if remaining == 0 {
			break
		}

		if remaining >= cand.Amount {
			err := s.bills.SettlePending(ctx, cand.ID, repository.SettleParams{
				Status:         s.settledStatus(),
				PaymentDate:    now,
				PaymentMethod:  CreditMethod,
				TransactionRef: uuid.NewString(),
			})
			if errors.Is(err, repository.ErrConditionFailed) {
				// bill left pending concurrently; treat it as never having
				// been a candidate and keep the credit for the next one
				log.Printf("cascade: bill %s no longer pending, skipping", cand.ID)
				continue
			}
			if err != nil {
				result.UnabsorbedCredit = remaining
				return result, fmt.Errorf("settle cascade bill %q: %w", cand.ID, err)
			}

			result.SettledBillIDs = append(result.SettledBillIDs, cand.ID)
			remaining -= cand.Amount
			continue
		}

		note := fmt.Sprintf("original amount %s, overpayment credit %s applied", cand.Amount, remaining)
		err := s.bills.ApplyCredit(ctx, cand.ID, cand.Amount, remaining, note)
		if errors.Is(err, repository.ErrConditionFailed) {
			log.Printf("cascade: bill %s changed concurrently, skipping", cand.ID)
			continue
		}
		if err != nil {
			result.UnabsorbedCredit = remaining
			return result, fmt.Errorf("apply credit to bill %q: %w", cand.ID, err)
		}

		result.PartiallyAppliedBillID = cand.ID
		remaining = 0
		break
	}

	result.UnabsorbedCredit = remaining

	s.notify(ctx, bill.StudentID, result)
	return result, nil
}

func (s *PaymentService) notify(ctx context.Context, studentID string, result *domain.PaymentResult) {
	if s.ws == nil {
		return
	}
	if err := s.ws.NotifyPaymentApplied(ctx, studentID, result); err != nil {
		log.Printf("payment notify error for student %s: %v", studentID, err)
	}
}
