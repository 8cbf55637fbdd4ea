package rest

import (
	"errors"
	"log"
	"net/http"

	"campus-billing/internal/repository"
	"campus-billing/internal/service"
	"campus-billing/internal/transport/auth"
)

func (h *Handler) listBills(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.GetActor(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	filter, err := BillsQuery(r)
	if err != nil {
		ErrorBadRequest(w, err.Error())
		return
	}

	// students only ever see their own bills
	if !actor.Role.Staff() {
		studentID := actor.ID
		filter.StudentID = &studentID
	}

	bills, err := h.bills.List(r.Context(), filter)
	if err != nil {
		log.Printf("[HTTP] listBills error: %v", err)
		ErrorInternal(w, "failed to list bills, please retry")
		return
	}

	Success(w, "", bills)
}

// writeServiceError maps billing errors onto the response envelope without
// leaking store internals.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInsufficientAmount),
		errors.Is(err, service.ErrNegativeTuitionFee):
		ErrorBadRequest(w, err.Error())
	case errors.Is(err, service.ErrBillNotPending),
		errors.Is(err, service.ErrEnrollmentNotApproved),
		errors.Is(err, service.ErrScheduleExists):
		ErrorConflict(w, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		ErrorNotFound(w, "not found")
	default:
		ErrorInternal(w, "a storage error occurred, please retry")
	}
}
