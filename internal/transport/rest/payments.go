package rest

import (
	"log"
	"net/http"

	"campus-billing/internal/transport/auth"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) payBill(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.GetActor(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	billID := chi.URLParam(r, "bill_id")
	if billID == "" {
		ErrorBadRequest(w, "bill_id is required")
		return
	}

	req, err := ValidatePayRequest(r)
	if err != nil {
		if _, ok := err.(*ValidationError); ok {
			ErrorBadRequest(w, err.Error())
			return
		}
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	bill, err := h.bills.Get(r.Context(), billID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if !actor.Role.Staff() && bill.StudentID != actor.ID {
		ErrorForbidden(w, "you can only pay your own bills")
		return
	}

	result, err := h.payments.ApplyPayment(r.Context(), billID, req.Amount, req.Method)
	if err != nil {
		log.Printf("[HTTP] applyPayment error for bill %s: %v", billID, err)
		if result != nil {
			// mid-cascade store failure: report how far it got so the
			// caller can reconcile
			Response(w, "payment partially applied, please reconcile", result, 500, "error", http.StatusInternalServerError)
			return
		}
		writeServiceError(w, err)
		return
	}

	Success(w, "payment applied", result)
}
