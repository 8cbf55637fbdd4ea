package domain

import (
	"time"

	"campus-billing/internal/money"
)

type BillStatus string

const (
	BillPending         BillStatus = "pending"
	BillPendingApproval BillStatus = "pending_approval"
	BillPaid            BillStatus = "paid"
	BillOverdue         BillStatus = "overdue"
	BillCancelled       BillStatus = "cancelled"
)

// Bill is one payable installment belonging to a student, optionally linked
// to an enrollment. A pending bill's amount may be reduced (never increased)
// by overpayment credit; Notes records the original and credited amounts.
type Bill struct {
	ID           string       `json:"id"`
	StudentID    string       `json:"student_id"`
	EnrollmentID *string      `json:"enrollment_id,omitempty"`
	Amount       money.Amount `json:"amount"`
	DueDate      time.Time    `json:"due_date"`
	Status       BillStatus   `json:"status"`

	PaymentDate    *time.Time `json:"payment_date,omitempty"`
	PaymentMethod  *string    `json:"payment_method,omitempty"`
	TransactionRef *string    `json:"transaction_ref,omitempty"`
	Notes          *string    `json:"notes,omitempty"`

	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}
