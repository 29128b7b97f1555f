package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/alfredjeanlab/quorum/internal/governance"
	"github.com/alfredjeanlab/quorum/internal/model"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *QuorumServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/proposals", s.handleCreateProposal)
	mux.HandleFunc("GET /v1/proposals", s.handleListProposals)
	mux.HandleFunc("GET /v1/proposals/{id}", s.handleGetProposal)
	mux.HandleFunc("POST /v1/proposals/{id}/approve", s.handleApproveProposal)
	mux.HandleFunc("POST /v1/proposals/{id}/veto", s.handleVetoProposal)
	mux.HandleFunc("GET /v1/proposals/{id}/audit", s.handleListAuditEvents)
	mux.HandleFunc("POST /v1/proposals/{id}/variance", s.handleCreateBudget)
	mux.HandleFunc("PATCH /v1/proposals/{id}/variance", s.handleUpdateVariance)
	mux.HandleFunc("GET /v1/proposals/{id}/variance", s.handleGetVarianceData)
	mux.HandleFunc("POST /v1/proposals/{id}/milestones", s.handleCreateMilestone)
	mux.HandleFunc("PATCH /v1/milestones/{id}", s.handleUpdateMilestone)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	return AuthMiddleware(authToken, LoggingMiddleware(s.log, mux))
}

// handleHealth handles GET /v1/health.
func (s *QuorumServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps engine errors onto HTTP status codes: validation
// failures are 400, missing entities 404, state conflicts and duplicates
// 409, everything else 500.
func writeServiceError(w http.ResponseWriter, err error) {
	var (
		ve  *model.ValidationError
		nfe *governance.NotFoundError
		ise *governance.InvalidStateError
		de  *governance.DuplicateError
	)
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.As(err, &nfe):
		writeError(w, http.StatusNotFound, nfe.Error())
	case errors.As(err, &ise):
		writeError(w, http.StatusConflict, ise.Error())
	case errors.As(err, &de):
		writeError(w, http.StatusConflict, de.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
