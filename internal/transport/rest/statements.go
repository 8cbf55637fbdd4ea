package rest

import (
	"log"
	"net/http"

	"campus-billing/internal/transport/auth"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) exportStatement(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.GetActor(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	studentID := chi.URLParam(r, "student_id")
	if studentID == "" {
		ErrorBadRequest(w, "student_id is required")
		return
	}

	if !actor.Role.Staff() && studentID != actor.ID {
		ErrorForbidden(w, "you can only export your own statement")
		return
	}

	exportID, err := h.statements.StartStatementExport(r.Context(), studentID, actor.ID)
	if err != nil {
		log.Printf("[HTTP] startStatementExport error: %v", err)
		ErrorInternal(w, "failed to start statement export")
		return
	}

	SuccessAccepted(w, "statement export queued", map[string]interface{}{"export_id": exportID})
}

func (h *Handler) listStatements(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.GetActor(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	exports, err := h.exportList.GetExports(r.Context(), actor.ID)
	if err != nil {
		log.Printf("[HTTP] listStatements error: %v", err)
		ErrorInternal(w, "failed to list statements")
		return
	}

	Success(w, "", exports)
}

func (h *Handler) getStatement(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.GetActor(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	exportIDParam := chi.URLParam(r, "export_id")
	if exportIDParam == "" {
		ErrorBadRequest(w, "export_id is required")
		return
	}
	exportID := "statements:" + exportIDParam

	export, err := h.exportList.GetExport(r.Context(), exportID, actor.ID)
	if err != nil {
		log.Printf("[HTTP] getStatement error: %v", err)
		ErrorNotFound(w, "statement not found")
		return
	}

	Success(w, "", export)
}
