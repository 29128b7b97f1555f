package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/alfredjeanlab/quorum/internal/governance"
	"github.com/alfredjeanlab/quorum/internal/model"
)

// handleCreateProposal handles POST /v1/proposals.
func (s *QuorumServer) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	var in governance.CreateProposalInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if in.Channel == "" {
		in.Channel = "api"
	}
	if in.Mechanism == "" {
		in.Mechanism = "http"
	}

	p, err := s.proposals.CreateProposal(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// handleListProposals handles GET /v1/proposals.
func (s *QuorumServer) handleListProposals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.ProposalFilter{
		CircleID:    q.Get("circle_id"),
		StencilID:   q.Get("stencil_id"),
		SubmittedBy: q.Get("submitted_by"),
		Sort:        q.Get("sort"),
	}
	if v := q.Get("status"); v != "" {
		for _, st := range strings.Split(v, ",") {
			filter.Status = append(filter.Status, model.Status(st))
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	proposals, total, err := s.proposals.ListProposals(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Ensure proposals is never null in JSON output.
	if proposals == nil {
		proposals = []*model.Proposal{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"proposals": proposals,
		"total":     total,
	})
}

// handleGetProposal handles GET /v1/proposals/{id}.
func (s *QuorumServer) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	p, err := s.proposals.GetProposal(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleApproveProposal handles POST /v1/proposals/{id}/approve.
func (s *QuorumServer) handleApproveProposal(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	in, ok := decodeDecision(w, r)
	if !ok {
		return
	}

	p, err := s.proposals.ApproveProposal(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleVetoProposal handles POST /v1/proposals/{id}/veto.
func (s *QuorumServer) handleVetoProposal(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	in, ok := decodeDecision(w, r)
	if !ok {
		return
	}

	p, err := s.proposals.VetoProposal(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// decodeDecision parses a decision body and fills transport defaults.
func decodeDecision(w http.ResponseWriter, r *http.Request) (governance.DecisionInput, bool) {
	var in governance.DecisionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return in, false
	}
	if in.Channel == "" {
		in.Channel = "api"
	}
	if in.Mechanism == "" {
		in.Mechanism = "http"
	}
	return in, true
}

// handleListAuditEvents handles GET /v1/proposals/{id}/audit.
func (s *QuorumServer) handleListAuditEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	trail, err := s.proposals.ListAuditEvents(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if trail == nil {
		trail = []*model.AuditEvent{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events": trail,
		"total":  len(trail),
	})
}
