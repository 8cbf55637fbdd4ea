package service

import (
	"context"

	"campus-billing/internal/domain"
	"campus-billing/internal/repository"
)

type BillListRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Bill, error)
	List(ctx context.Context, f repository.BillsFilter) ([]domain.Bill, error)
}

// BillService exposes read access to bills; all mutation goes through the
// schedule and payment services.
type BillService struct {
	bills BillListRepository
}

func NewBillService(bills BillListRepository) *BillService {
	return &BillService{bills: bills}
}

func (s *BillService) Get(ctx context.Context, id string) (*domain.Bill, error) {
	return s.bills.GetByID(ctx, id)
}

func (s *BillService) List(ctx context.Context, f repository.BillsFilter) ([]domain.Bill, error) {
	return s.bills.List(ctx, f)
}
