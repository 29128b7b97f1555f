package server

import (
	"encoding/json"
	"net/http"

	"github.com/alfredjeanlab/quorum/internal/governance"
)

// handleCreateBudget handles POST /v1/proposals/{id}/variance.
func (s *QuorumServer) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var in governance.CreateBudgetInput
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

	v, err := s.variance.CreateBudget(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// handleUpdateVariance handles PATCH /v1/proposals/{id}/variance.
func (s *QuorumServer) handleUpdateVariance(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var in governance.UpdateVarianceInput
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

	v, err := s.variance.UpdateVariance(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleGetVarianceData handles GET /v1/proposals/{id}/variance.
// A proposal without a variance record yields {"record": null}.
func (s *QuorumServer) handleGetVarianceData(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	snap, err := s.variance.GetVarianceData(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if snap == nil {
		writeJSON(w, http.StatusOK, map[string]any{"record": nil})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleCreateMilestone handles POST /v1/proposals/{id}/milestones.
func (s *QuorumServer) handleCreateMilestone(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var in governance.CreateMilestoneInput
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

	m, err := s.variance.CreateMilestone(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// handleUpdateMilestone handles PATCH /v1/milestones/{id}.
func (s *QuorumServer) handleUpdateMilestone(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var in governance.UpdateMilestoneInput
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

	m, err := s.variance.UpdateMilestone(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
