package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"campus-billing/internal/domain"
	"campus-billing/internal/money"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

type EnrollmentRepository struct {
	db *sql.DB
}

func NewEnrollmentRepository(db *sql.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

func (r *EnrollmentRepository) GetByID(ctx context.Context, id string) (*domain.Enrollment, error) {
	query := `
		SELECT id, student_id, program_id, tuition_fee, payment_plan,
		       academic_year, semester, status, approved_at, created_at
		FROM enrollments
		WHERE id = $1
	`

	var (
		e          domain.Enrollment
		fee        int64
		plan       string
		approvedAt sql.NullTime
		createdAt  sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID,
		&e.StudentID,
		&e.ProgramID,
		&fee,
		&plan,
		&e.AcademicYear,
		&e.Semester,
		&e.Status,
		&approvedAt,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get enrollment %q: %w", id, err)
	}

	e.TuitionFee = money.Amount(fee)

	parsed, err := domain.ParsePaymentPlan(plan)
	if err != nil {
		return nil, fmt.Errorf("enrollment %q: %w", id, err)
	}
	e.PaymentPlan = parsed

	if approvedAt.Valid {
		e.ApprovedAt = &approvedAt.Time
	}
	if createdAt.Valid {
		e.CreatedAt = &createdAt.Time
	}

	return &e, nil
}
