package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"campus-billing/internal/domain"
	"campus-billing/internal/money"
)

// ErrConditionFailed is returned when a conditional update matched no rows,
// i.e. the bill was no longer in the expected state at write time.
var ErrConditionFailed = errors.New("condition failed")

type BillsFilter struct {
	StudentID    *string
	EnrollmentID *string
	Status       *domain.BillStatus
}

type BillRepository struct {
	db *sql.DB
}

func NewBillRepository(db *sql.DB) *BillRepository {
	return &BillRepository{db: db}
}

const billColumns = `id, student_id, enrollment_id, amount, due_date, status,
	payment_date, payment_method, transaction_ref, notes, created_at, updated_at`

func scanBill(row interface{ Scan(...any) error }) (*domain.Bill, error) {
	var (
		b            domain.Bill
		enrollmentID sql.NullString
		amount       int64
		paymentDate  sql.NullTime
		method       sql.NullString
		txRef        sql.NullString
		notes        sql.NullString
		createdAt    sql.NullTime
		updatedAt    sql.NullTime
	)

	if err := row.Scan(
		&b.ID,
		&b.StudentID,
		&enrollmentID,
		&amount,
		&b.DueDate,
		&b.Status,
		&paymentDate,
		&method,
		&txRef,
		&notes,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	b.Amount = money.Amount(amount)
	if enrollmentID.Valid {
		b.EnrollmentID = &enrollmentID.String
	}
	if paymentDate.Valid {
		b.PaymentDate = &paymentDate.Time
	}
	if method.Valid {
		b.PaymentMethod = &method.String
	}
	if txRef.Valid {
		b.TransactionRef = &txRef.String
	}
	if notes.Valid {
		b.Notes = &notes.String
	}
	if createdAt.Valid {
		b.CreatedAt = &createdAt.Time
	}
	if updatedAt.Valid {
		b.UpdatedAt = &updatedAt.Time
	}

	return &b, nil
}

func (r *BillRepository) GetByID(ctx context.Context, id string) (*domain.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE id = $1`

	b, err := scanBill(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get bill %q: %w", id, err)
	}
	return b, nil
}

func (r *BillRepository) List(ctx context.Context, f BillsFilter) ([]domain.Bill, error) {
	base := `SELECT ` + billColumns + ` FROM bills`

	where := []string{"1=1"}
	args := []any{}
	i := 1

	if f.StudentID != nil && *f.StudentID != "" {
		where = append(where, fmt.Sprintf("student_id = $%d", i))
		args = append(args, *f.StudentID)
		i++
	}
	if f.EnrollmentID != nil && *f.EnrollmentID != "" {
		where = append(where, fmt.Sprintf("enrollment_id = $%d", i))
		args = append(args, *f.EnrollmentID)
		i++
	}
	if f.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", i))
		args = append(args, string(*f.Status))
		i++
	}

	query := base + " WHERE " + strings.Join(where, " AND ") + " ORDER BY due_date, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateBatch inserts a generated schedule in one transaction so a store
// failure never leaves a partial installment set behind.
func (r *BillRepository) CreateBatch(ctx context.Context, bills []domain.Bill) error {
	if len(bills) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bill batch: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO bills (id, student_id, enrollment_id, amount, due_date, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, b := range bills {
		var enrollmentID any
		if b.EnrollmentID != nil {
			enrollmentID = *b.EnrollmentID
		}
		var notes any
		if b.Notes != nil {
			notes = *b.Notes
		}
		if _, err := tx.ExecContext(ctx, query,
			b.ID, b.StudentID, enrollmentID, int64(b.Amount), b.DueDate, string(b.Status), notes,
		); err != nil {
			return fmt.Errorf("insert bill %q: %w", b.ID, err)
		}
	}

	return tx.Commit()
}

// ListCascadeCandidates returns the student's pending bills due strictly
// after the given date, in the order the cascade must walk them.
func (r *BillRepository) ListCascadeCandidates(ctx context.Context, studentID string, after time.Time) ([]domain.Bill, error) {
	query := `
		SELECT ` + billColumns + `
		FROM bills
		WHERE student_id = $1
		  AND status = $2
		  AND due_date > $3
		ORDER BY due_date, id
	`

	rows, err := r.db.QueryContext(ctx, query, studentID, string(domain.BillPending), after)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type SettleParams struct {
	Status         domain.BillStatus
	PaymentDate    time.Time
	PaymentMethod  string
	TransactionRef string
}

// SettlePending moves a bill out of pending. The update is conditioned on the
// bill still being pending so two racing payments cannot both settle it; a
// lost race surfaces as ErrConditionFailed.
func (r *BillRepository) SettlePending(ctx context.Context, id string, p SettleParams) error {
	query := `
		UPDATE bills
		SET status = $1, payment_date = $2, payment_method = $3,
		    transaction_ref = $4, updated_at = now()
		WHERE id = $5 AND status = $6
	`

	res, err := r.db.ExecContext(ctx, query,
		string(p.Status), p.PaymentDate, p.PaymentMethod, p.TransactionRef,
		id, string(domain.BillPending),
	)
	if err != nil {
		return fmt.Errorf("settle bill %q: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("settle bill %q: %w", id, err)
	}
	if n == 0 {
		return ErrConditionFailed
	}
	return nil
}

// ApplyCredit reduces a pending bill's amount by credit and appends the note.
// Conditioned on both status and the amount observed at read time, so a
// concurrent settlement or another credit application loses cleanly.
func (r *BillRepository) ApplyCredit(ctx context.Context, id string, observed, credit money.Amount, note string) error {
	query := `
		UPDATE bills
		SET amount = amount - $1,
		    notes = CASE WHEN notes IS NULL OR notes = '' THEN $2
		                 ELSE notes || '; ' || $2 END,
		    updated_at = now()
		WHERE id = $3 AND status = $4 AND amount = $5
	`

	res, err := r.db.ExecContext(ctx, query,
		int64(credit), note, id, string(domain.BillPending), int64(observed),
	)
	if err != nil {
		return fmt.Errorf("apply credit to bill %q: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("apply credit to bill %q: %w", id, err)
	}
	if n == 0 {
		return ErrConditionFailed
	}
	return nil
}

// MarkOverdue flags pending bills whose due date has passed. Returns the
// number of bills flagged.
func (r *BillRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	query := `
		UPDATE bills
		SET status = $1, updated_at = now()
		WHERE status = $2 AND due_date < $3
	`

	res, err := r.db.ExecContext(ctx, query,
		string(domain.BillOverdue), string(domain.BillPending), asOf,
	)
	if err != nil {
		return 0, fmt.Errorf("mark overdue: %w", err)
	}
	return res.RowsAffected()
}
