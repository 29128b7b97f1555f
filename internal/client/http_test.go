package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alfredjeanlab/quorum/internal/model"
)

func TestCreateProposal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/proposals" {
			t.Errorf("got %s %s", r.Method, r.URL.Path)
		}
		var req CreateProposalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.StencilID != "stencil-hiring" {
			t.Errorf("stencil_id = %q", req.StencilID)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(model.Proposal{
			ID: "prp-1", CaseNumber: "CASE-2025-000001", Status: model.StatusListening,
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")
	p, err := c.CreateProposal(context.Background(), &CreateProposalRequest{
		StencilID: "stencil-hiring", CircleID: "circle-ops", SubmittedBy: "ana",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != "prp-1" || p.Status != model.StatusListening {
		t.Errorf("got %+v", p)
	}
}

func TestListProposals_QueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("status") != "listening,approved" {
			t.Errorf("status = %q", q.Get("status"))
		}
		if q.Get("circle_id") != "circle-ops" || q.Get("limit") != "10" {
			t.Errorf("query = %v", q)
		}
		json.NewEncoder(w).Encode(ListProposalsResponse{
			Proposals: []*model.Proposal{{ID: "prp-1"}},
			Total:     1,
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")
	resp, err := c.ListProposals(context.Background(), &ListProposalsRequest{
		Status:   []string{"listening", "approved"},
		CircleID: "circle-ops",
		Limit:    10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Total != 1 || len(resp.Proposals) != 1 {
		t.Errorf("got %+v", resp)
	}
}

func TestApproveProposal_SendsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		if r.URL.Path != "/v1/proposals/prp-1/approve" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(model.Proposal{ID: "prp-1", Status: model.StatusApproved})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "secret")
	p, err := c.ApproveProposal(context.Background(), "prp-1", &DecisionRequest{Actor: "lead"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Status != model.StatusApproved {
		t.Errorf("status = %q", p.Status)
	}
}

func TestVetoProposal_Conflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "proposal prp-1: illegal transition approved -> vetoed"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")
	_, err := c.VetoProposal(context.Background(), "prp-1", &DecisionRequest{Actor: "cfo", Reason: "nope"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", apiErr.StatusCode)
	}
}

func TestListAuditEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/proposals/prp-1/audit" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"events": []*model.AuditEvent{
				{ID: "aud-1", What: model.ActionCreated},
				{ID: "aud-2", What: model.ActionStatusChanged},
			},
			"total": 2,
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")
	events, err := c.ListAuditEvents(context.Background(), "prp-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 || events[0].What != model.ActionCreated {
		t.Errorf("got %+v", events)
	}
}

func TestUpdateVariance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/v1/proposals/prp-1/variance" {
			t.Errorf("got %s %s", r.Method, r.URL.Path)
		}
		pct := 15.0
		json.NewEncoder(w).Encode(model.VarianceRecord{
			ID: "var-1", VariancePct: &pct, VarianceStatus: model.VarianceOverrun,
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")
	actual := 115000.0
	v, err := c.UpdateVariance(context.Background(), "prp-1", &UpdateVarianceRequest{
		UpdatedBy: "reviewer", ActualTotal: &actual,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.VariancePct == nil || *v.VariancePct != 15.0 {
		t.Errorf("pct = %v", v.VariancePct)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")
	status, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != "ok" {
		t.Errorf("status = %q", status)
	}
}
