package rest

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"campus-billing/internal/domain"
	"campus-billing/internal/money"
	"campus-billing/internal/repository"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type PayRequest struct {
	Amount money.Amount
	Method string
}

type rawPayRequest struct {
	Amount interface{} `json:"amount"`
	Method string      `json:"method"`
}

// ValidatePayRequest parses and validates JSON input for a bill payment.
// The amount may arrive as a JSON number or a decimal string.
func ValidatePayRequest(r *http.Request) (*PayRequest, error) {
	var raw rawPayRequest
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil && err != io.EOF {
		return nil, err
	}

	amount, err := toAmount(raw.Amount)
	if err != nil {
		return nil, &ValidationError{Field: "amount", Message: "amount must be a decimal number"}
	}
	if amount <= 0 {
		return nil, &ValidationError{Field: "amount", Message: "amount must be a positive value"}
	}

	method := strings.TrimSpace(raw.Method)
	if method == "" {
		return nil, &ValidationError{Field: "method", Message: "method is required"}
	}

	return &PayRequest{Amount: amount, Method: method}, nil
}

func toAmount(v interface{}) (money.Amount, error) {
	switch t := v.(type) {
	case nil:
		return 0, &ValidationError{Message: "amount is required"}
	case string:
		return money.Parse(t)
	case float64:
		// JSON numbers come through as float64; round-trip through the
		// decimal parser to keep minor-unit precision rules in one place
		b, err := json.Marshal(t)
		if err != nil {
			return 0, err
		}
		return money.Parse(string(b))
	default:
		return 0, &ValidationError{Message: "invalid type for amount"}
	}
}

// BillsQuery reads the list filters from query parameters. Unknown statuses
// are rejected rather than silently matching nothing.
func BillsQuery(r *http.Request) (repository.BillsFilter, error) {
	f := repository.BillsFilter{}

	if v := r.URL.Query().Get("student_id"); v != "" {
		f.StudentID = &v
	}
	if v := r.URL.Query().Get("enrollment_id"); v != "" {
		f.EnrollmentID = &v
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := domain.BillStatus(v)
		switch status {
		case domain.BillPending, domain.BillPendingApproval, domain.BillPaid,
			domain.BillOverdue, domain.BillCancelled:
			f.Status = &status
		default:
			return f, &ValidationError{Field: "status", Message: "unknown bill status"}
		}
	}

	return f, nil
}
