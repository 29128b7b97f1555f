package export

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/alfredjeanlab/quorum/internal/model"
)

func TestExportJSONL_Empty(t *testing.T) {
	ms := newMockStore()
	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (header only), got %d", len(lines))
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.Version != "1" || h.Type != "header" || h.ProposalCount != 0 {
		t.Fatalf("unexpected header: %+v", h)
	}
}

func TestExportJSONL_WithProposals(t *testing.T) {
	ms := newMockStore()
	now := time.Now().UTC()

	// Add proposals out of case-number order to verify sorting.
	ms.proposals["prp-zzz"] = &model.Proposal{
		ID: "prp-zzz", CaseNumber: "CASE-2025-000002", StencilID: "stencil-hiring",
		CircleID: "circle-ops", SubmittedBy: "bo", Status: model.StatusListening,
		CreatedAt: now, UpdatedAt: now,
	}
	ms.proposals["prp-aaa"] = &model.Proposal{
		ID: "prp-aaa", CaseNumber: "CASE-2025-000001", StencilID: "stencil-vendor",
		CircleID: "circle-ops", SubmittedBy: "ana", Status: model.StatusApproved,
		CreatedAt: now, UpdatedAt: now,
	}

	// Audit trail and variance data for prp-aaa only.
	ms.audit = append(ms.audit,
		&model.AuditEvent{ID: "aud-1", SubjectID: "prp-aaa", Who: "ana", What: model.ActionCreated, CreatedAt: now},
		&model.AuditEvent{ID: "aud-2", SubjectID: "prp-aaa", Who: "system", What: model.ActionStatusChanged, CreatedAt: now},
	)
	ms.variances["prp-aaa"] = &model.VarianceRecord{
		ID: "var-1", ProposalID: "prp-aaa", CaseNumber: "CASE-2025-000001",
		StencilID: "stencil-vendor", BudgetedTotal: 100000, BudgetedBy: "ana",
		BudgetedAt: now, CreatedAt: now, UpdatedAt: now,
	}
	ms.milestones["mst-1"] = &model.Milestone{
		ID: "mst-1", VarianceID: "var-1", Key: "phase-1", Label: "Phase 1",
		ScheduledDate: now, CreatedAt: now, UpdatedAt: now,
	}

	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	// 1 header + 2 proposals = 3 lines
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d:\n%s", len(lines), buf.String())
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.ProposalCount != 2 {
		t.Fatalf("header proposal count = %d, want 2", h.ProposalCount)
	}

	// Proposals are sorted by case number (prp-aaa before prp-zzz).
	var rec1, rec2 record
	if err := json.Unmarshal([]byte(lines[1]), &rec1); err != nil {
		t.Fatalf("unmarshal line 1: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[2]), &rec2); err != nil {
		t.Fatalf("unmarshal line 2: %v", err)
	}
	if rec1.Type != "proposal" || rec2.Type != "proposal" {
		t.Fatalf("expected proposal types, got %q and %q", rec1.Type, rec2.Type)
	}

	data1, _ := json.Marshal(rec1.Data)
	data2, _ := json.Marshal(rec2.Data)
	var s1, s2 proposalSnapshot
	if err := json.Unmarshal(data1, &s1); err != nil {
		t.Fatalf("unmarshal snapshot 1: %v", err)
	}
	if err := json.Unmarshal(data2, &s2); err != nil {
		t.Fatalf("unmarshal snapshot 2: %v", err)
	}

	if s1.Proposal.CaseNumber != "CASE-2025-000001" || s2.Proposal.CaseNumber != "CASE-2025-000002" {
		t.Fatalf("proposals not sorted: got %q, %q", s1.Proposal.CaseNumber, s2.Proposal.CaseNumber)
	}

	// prp-aaa carries its trail and variance data.
	if len(s1.AuditTrail) != 2 {
		t.Fatalf("expected 2 audit events for prp-aaa, got %d", len(s1.AuditTrail))
	}
	if s1.Variance == nil || s1.Variance.Record.BudgetedTotal != 100000 {
		t.Fatalf("expected variance record for prp-aaa, got %+v", s1.Variance)
	}
	if len(s1.Variance.Milestones) != 1 || s1.Variance.Milestones[0].Key != "phase-1" {
		t.Fatalf("expected 1 milestone for prp-aaa, got %+v", s1.Variance.Milestones)
	}

	// prp-zzz has neither.
	if len(s2.AuditTrail) != 0 {
		t.Fatalf("expected no audit events for prp-zzz, got %d", len(s2.AuditTrail))
	}
	if s2.Variance != nil {
		t.Fatalf("expected no variance for prp-zzz, got %+v", s2.Variance)
	}
}

func nonEmptyLines(s string) []string {
	var result []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			result = append(result, line)
		}
	}
	return result
}
