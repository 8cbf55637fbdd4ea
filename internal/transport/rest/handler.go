package rest

import (
	"context"
	"net/http"
	"time"

	"campus-billing/internal/domain"
	"campus-billing/internal/money"
	"campus-billing/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type ScheduleGenerator interface {
	GenerateSchedule(ctx context.Context, enrollmentID string) ([]domain.Bill, error)
}

type PaymentApplier interface {
	ApplyPayment(ctx context.Context, billID string, tendered money.Amount, method string) (*domain.PaymentResult, error)
}

type BillReader interface {
	Get(ctx context.Context, id string) (*domain.Bill, error)
	List(ctx context.Context, f repository.BillsFilter) ([]domain.Bill, error)
}

type StatementExporter interface {
	StartStatementExport(ctx context.Context, studentID, actorID string) (string, error)
}

type ExportListService interface {
	GetExports(ctx context.Context, actorID string) ([]interface{}, error)
	GetExport(ctx context.Context, exportID string, actorID string) (interface{}, error)
}

type Handler struct {
	schedules  ScheduleGenerator
	payments   PaymentApplier
	bills      BillReader
	statements StatementExporter
	exportList ExportListService
}

func NewHandler(
	schedules ScheduleGenerator,
	payments PaymentApplier,
	bills BillReader,
	statements StatementExporter,
	exportList ExportListService,
) *Handler {
	return &Handler{
		schedules:  schedules,
		payments:   payments,
		bills:      bills,
		statements: statements,
		exportList: exportList,
	}
}

func (h *Handler) InitRouter() *chi.Mux {
	return h.InitRouterWithAuth(nil)
}

func (h *Handler) InitRouterWithAuth(authMiddleware func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)

	if authMiddleware != nil {
		r.Use(authMiddleware)
	}

	r.Route("/enrollments", func(r chi.Router) {
		r.Post("/{enrollment_id}/schedule", h.generateSchedule)
	})

	r.Route("/bills", func(r chi.Router) {
		r.Get("/", h.listBills)
		r.Post("/{bill_id}/pay", h.payBill)
	})

	r.Route("/statements", func(r chi.Router) {
		r.Get("/", h.listStatements)
		r.Get("/{export_id}", h.getStatement)
		r.Post("/{student_id}", h.exportStatement)
	})

	return r
}
