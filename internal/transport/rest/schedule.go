package rest

import (
	"log"
	"net/http"

	"campus-billing/internal/transport/auth"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) generateSchedule(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.GetActor(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	if !actor.Role.Staff() {
		ErrorForbidden(w, "only staff may generate billing schedules")
		return
	}

	enrollmentID := chi.URLParam(r, "enrollment_id")
	if enrollmentID == "" {
		ErrorBadRequest(w, "enrollment_id is required")
		return
	}

	bills, err := h.schedules.GenerateSchedule(r.Context(), enrollmentID)
	if err != nil {
		log.Printf("[HTTP] generateSchedule error for enrollment %s: %v", enrollmentID, err)
		writeServiceError(w, err)
		return
	}

	SuccessCreated(w, "billing schedule generated", bills)
}
