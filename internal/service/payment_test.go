package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"campus-billing/internal/domain"
	"campus-billing/internal/money"
	"campus-billing/internal/repository"
)

type fakePaymentBillRepo struct {
	bills map[string]*domain.Bill

	// forced errors per bill id, consumed on first use
	settleErr map[string]error
	creditErr map[string]error
}

func newFakePaymentBillRepo(bills ...*domain.Bill) *fakePaymentBillRepo {
	m := make(map[string]*domain.Bill, len(bills))
	for _, b := range bills {
		m[b.ID] = b
	}
	return &fakePaymentBillRepo{
		bills:     m,
		settleErr: map[string]error{},
		creditErr: map[string]error{},
	}
}

func (f *fakePaymentBillRepo) GetByID(ctx context.Context, id string) (*domain.Bill, error) {
	b, ok := f.bills[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *b
	return &clone, nil
}

func (f *fakePaymentBillRepo) ListCascadeCandidates(ctx context.Context, studentID string, after time.Time) ([]domain.Bill, error) {
	var out []domain.Bill
	for _, b := range f.bills {
		if b.StudentID == studentID && b.Status == domain.BillPending && b.DueDate.After(after) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakePaymentBillRepo) SettlePending(ctx context.Context, id string, p repository.SettleParams) error {
	if err, ok := f.settleErr[id]; ok {
		delete(f.settleErr, id)
		return err
	}
	b, ok := f.bills[id]
	if !ok || b.Status != domain.BillPending {
		return repository.ErrConditionFailed
	}
	b.Status = p.Status
	b.PaymentDate = &p.PaymentDate
	b.PaymentMethod = &p.PaymentMethod
	b.TransactionRef = &p.TransactionRef
	return nil
}

func (f *fakePaymentBillRepo) ApplyCredit(ctx context.Context, id string, observed, credit money.Amount, note string) error {
	if err, ok := f.creditErr[id]; ok {
		delete(f.creditErr, id)
		return err
	}
	b, ok := f.bills[id]
	if !ok || b.Status != domain.BillPending || b.Amount != observed {
		return repository.ErrConditionFailed
	}
	b.Amount -= credit
	if b.Notes != nil && *b.Notes != "" {
		joined := *b.Notes + "; " + note
		b.Notes = &joined
	} else {
		b.Notes = &note
	}
	return nil
}

func pendingBill(id, studentID string, amount money.Amount, due time.Time) *domain.Bill {
	return &domain.Bill{
		ID:        id,
		StudentID: studentID,
		Amount:    amount,
		DueDate:   due,
		Status:    domain.BillPending,
	}
}

func threeBills() *fakePaymentBillRepo {
	d1 := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)
	d3 := time.Date(2026, time.November, 1, 0, 0, 0, 0, time.UTC)
	return newFakePaymentBillRepo(
		pendingBill("B1", "STU-1", 1000, d1),
		pendingBill("B2", "STU-1", 1000, d2),
		pendingBill("B3", "STU-1", 1000, d3),
	)
}

func TestApplyPayment_ExactAmount(t *testing.T) {
	repo := threeBills()
	svc := NewPaymentService(repo, nil, true)

	result, err := svc.ApplyPayment(context.Background(), "B1", 1000, "gcash")
	if err != nil {
		t.Fatalf("ApplyPayment: %v", err)
	}

	if len(result.SettledBillIDs) != 1 || result.SettledBillIDs[0] != "B1" {
		t.Fatalf("settled = %v; want [B1]", result.SettledBillIDs)
	}
	if result.UnabsorbedCredit != 0 {
		t.Errorf("unabsorbed credit = %d; want 0", result.UnabsorbedCredit)
	}
	if result.TransactionRef == "" {
		t.Error("expected a transaction reference")
	}

	b1 := repo.bills["B1"]
	if b1.Status != domain.BillPendingApproval {
		t.Errorf("B1 status = %s; want pending_approval", b1.Status)
	}
	if b1.PaymentMethod == nil || *b1.PaymentMethod != "gcash" {
		t.Errorf("B1 method = %v; want gcash", b1.PaymentMethod)
	}
	if repo.bills["B2"].Status != domain.BillPending || repo.bills["B3"].Status != domain.BillPending {
		t.Error("later bills must be untouched by an exact payment")
	}
}

func TestApplyPayment_DirectPaidVariant(t *testing.T) {
	repo := threeBills()
	svc := NewPaymentService(repo, nil, false)

	if _, err := svc.ApplyPayment(context.Background(), "B1", 1000, "cash"); err != nil {
		t.Fatalf("ApplyPayment: %v", err)
	}
	if got := repo.bills["B1"].Status; got != domain.BillPaid {
		t.Fatalf("B1 status = %s; want paid", got)
	}
}

func TestApplyPayment_CascadePartial(t *testing.T) {
	repo := threeBills()
	svc := NewPaymentService(repo, nil, true)

	result, err := svc.ApplyPayment(context.Background(), "B1", 2500, "gcash")
	if err != nil {
		t.Fatalf("ApplyPayment: %v", err)
	}

	if want := []string{"B1", "B2"}; len(result.SettledBillIDs) != 2 ||
		result.SettledBillIDs[0] != want[0] || result.SettledBillIDs[1] != want[1] {
		t.Fatalf("settled = %v; want %v", result.SettledBillIDs, want)
	}
	if result.PartiallyAppliedBillID != "B3" {
		t.Fatalf("partially applied = %q; want B3", result.PartiallyAppliedBillID)
	}
	if result.UnabsorbedCredit != 0 {
		t.Errorf("unabsorbed credit = %d; want 0", result.UnabsorbedCredit)
	}

	b2 := repo.bills["B2"]
	if b2.Status != domain.BillPendingApproval {
		t.Errorf("B2 status = %s; want pending_approval", b2.Status)
	}
	if b2.PaymentMethod == nil || *b2.PaymentMethod != CreditMethod {
		t.Errorf("B2 method = %v; want %q", b2.PaymentMethod, CreditMethod)
	}

	b3 := repo.bills["B3"]
	if b3.Status != domain.BillPending {
		t.Errorf("B3 status = %s; want pending", b3.Status)
	}
	if b3.Amount != 500 {
		t.Errorf("B3 amount = %d; want 500", b3.Amount)
	}
	if b3.Notes == nil || !strings.Contains(*b3.Notes, "10.00") || !strings.Contains(*b3.Notes, "5.00") {
		t.Errorf("B3 notes = %v; want original and credited amounts recorded", b3.Notes)
	}
}

func TestApplyPayment_CascadeExhaustion(t *testing.T) {
	repo := threeBills()
	svc := NewPaymentService(repo, nil, true)

	result, err := svc.ApplyPayment(context.Background(), "B1", 5000, "bank transfer")
	if err != nil {
		t.Fatalf("ApplyPayment: %v", err)
	}

	if len(result.SettledBillIDs) != 3 {
		t.Fatalf("settled = %v; want all three", result.SettledBillIDs)
	}
	if result.PartiallyAppliedBillID != "" {
		t.Errorf("partially applied = %q; want none", result.PartiallyAppliedBillID)
	}
	if result.UnabsorbedCredit != 2000 {
		t.Errorf("unabsorbed credit = %d; want 2000", result.UnabsorbedCredit)
	}
}

func TestApplyPayment_InsufficientAmount(t *testing.T) {
	repo := threeBills()
	svc := NewPaymentService(repo, nil, true)

	if _, err := svc.ApplyPayment(context.Background(), "B1", 999, "gcash"); !errors.Is(err, ErrInsufficientAmount) {
		t.Fatalf("expected ErrInsufficientAmount, got %v", err)
	}
	if repo.bills["B1"].Status != domain.BillPending {
		t.Fatal("no mutation may happen on a rejected payment")
	}
}

func TestApplyPayment_InvalidAmount(t *testing.T) {
	svc := NewPaymentService(threeBills(), nil, true)

	for _, amount := range []money.Amount{0, -100} {
		if _, err := svc.ApplyPayment(context.Background(), "B1", amount, "gcash"); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %d: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestApplyPayment_TargetNotPending(t *testing.T) {
	repo := threeBills()
	repo.bills["B1"].Status = domain.BillPaid
	svc := NewPaymentService(repo, nil, true)

	if _, err := svc.ApplyPayment(context.Background(), "B1", 1000, "gcash"); !errors.Is(err, ErrBillNotPending) {
		t.Fatalf("expected ErrBillNotPending, got %v", err)
	}
}

func TestApplyPayment_LostRaceOnTarget(t *testing.T) {
	// status flips between our read and our conditional write
	repo := threeBills()
	repo.settleErr["B1"] = repository.ErrConditionFailed
	svc := NewPaymentService(repo, nil, true)

	if _, err := svc.ApplyPayment(context.Background(), "B1", 1000, "gcash"); !errors.Is(err, ErrBillNotPending) {
		t.Fatalf("expected ErrBillNotPending, got %v", err)
	}
}

func TestApplyPayment_SecondPaymentRejected(t *testing.T) {
	repo := threeBills()
	svc := NewPaymentService(repo, nil, true)

	if _, err := svc.ApplyPayment(context.Background(), "B1", 1000, "gcash"); err != nil {
		t.Fatalf("first payment: %v", err)
	}
	if _, err := svc.ApplyPayment(context.Background(), "B1", 1000, "gcash"); !errors.Is(err, ErrBillNotPending) {
		t.Fatalf("second payment: expected ErrBillNotPending, got %v", err)
	}
}

func TestApplyPayment_CascadeSkipsConcurrentlySettled(t *testing.T) {
	repo := threeBills()
	repo.settleErr["B2"] = repository.ErrConditionFailed
	svc := NewPaymentService(repo, nil, true)

	result, err := svc.ApplyPayment(context.Background(), "B1", 2500, "gcash")
	if err != nil {
		t.Fatalf("ApplyPayment: %v", err)
	}

	// B2 lost its conditional write, so the credit moves on to B3
	if want := []string{"B1", "B3"}; len(result.SettledBillIDs) != 2 ||
		result.SettledBillIDs[0] != want[0] || result.SettledBillIDs[1] != want[1] {
		t.Fatalf("settled = %v; want %v", result.SettledBillIDs, want)
	}
	if result.UnabsorbedCredit != 500 {
		t.Errorf("unabsorbed credit = %d; want 500", result.UnabsorbedCredit)
	}
}

func TestApplyPayment_StoreFailureMidCascade(t *testing.T) {
	repo := threeBills()
	storeErr := errors.New("connection reset")
	repo.settleErr["B2"] = storeErr
	svc := NewPaymentService(repo, nil, true)

	result, err := svc.ApplyPayment(context.Background(), "B1", 2500, "gcash")
	if err == nil {
		t.Fatal("expected an error from the failed cascade write")
	}
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if result == nil {
		t.Fatal("partial progress must be reported alongside the error")
	}
	if len(result.SettledBillIDs) != 1 || result.SettledBillIDs[0] != "B1" {
		t.Fatalf("settled = %v; want [B1]", result.SettledBillIDs)
	}
	if result.UnabsorbedCredit != 1500 {
		t.Errorf("unapplied remainder = %d; want 1500", result.UnabsorbedCredit)
	}
}

func TestApplyPayment_OnlyLaterBillsCascade(t *testing.T) {
	d0 := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	d1 := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)
	repo := newFakePaymentBillRepo(
		pendingBill("B0", "STU-1", 1000, d0),
		pendingBill("B1", "STU-1", 1000, d1),
		pendingBill("B2", "STU-1", 1000, d2),
	)
	svc := NewPaymentService(repo, nil, true)

	result, err := svc.ApplyPayment(context.Background(), "B1", 2000, "gcash")
	if err != nil {
		t.Fatalf("ApplyPayment: %v", err)
	}

	if repo.bills["B0"].Status != domain.BillPending {
		t.Error("an earlier bill must never absorb credit")
	}
	if want := []string{"B1", "B2"}; len(result.SettledBillIDs) != 2 ||
		result.SettledBillIDs[1] != want[1] {
		t.Fatalf("settled = %v; want %v", result.SettledBillIDs, want)
	}
}
