package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alfredjeanlab/quorum/internal/model"
	"github.com/alfredjeanlab/quorum/internal/store"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

// proposalRowColumns is the column list for scanProposal results.
var proposalRowColumns = []string{
	"id", "case_number", "stencil_id", "circle_id", "submitted_by", "status", "data",
	"approved_by", "approved_at", "vetoed_by", "veto_reason", "vetoed_at", "created_at", "updated_at",
}

// proposalWithTotalColumns is the column list for queryListProposals results.
var proposalWithTotalColumns = append([]string{"total_count"}, proposalRowColumns...)

// addProposalRow adds a minimal listening proposal row to a sqlmock.Rows.
func addProposalRow(rows *sqlmock.Rows, id, caseNumber, status string, now time.Time) *sqlmock.Rows {
	return rows.AddRow(
		id, caseNumber, "stencil-1", "circle-1", "ana", status, nil,
		nil, nil, nil, nil, nil, now, now,
	)
}

func TestParseSortClause(t *testing.T) {
	for _, tc := range []struct {
		input string
		want  string
	}{
		{"", "created_at DESC"},
		{"case_number", "case_number ASC"},
		{"-case_number", "case_number DESC"},
		{"evil_column", "created_at DESC"},
		{"-evil_column; DROP TABLE proposals", "created_at DESC"},
	} {
		if got := parseSortClause(tc.input); got != tc.want {
			t.Errorf("parseSortClause(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
	// All allowed columns.
	for _, col := range []string{"created_at", "updated_at", "case_number", "status"} {
		if got := parseSortClause(col); got != col+" ASC" {
			t.Errorf("parseSortClause(%q) = %q, want %q", col, got, col+" ASC")
		}
		if got := parseSortClause("-" + col); got != col+" DESC" {
			t.Errorf("parseSortClause(-%q) = %q, want %q", col, got, col+" DESC")
		}
	}
}

func TestScanHelpers(t *testing.T) {
	// nullTimePtr
	if nullTimePtr(nil).Valid {
		t.Error("nullTimePtr(nil) should be invalid")
	}
	now := time.Now()
	if nt := nullTimePtr(&now); !nt.Valid || !nt.Time.Equal(now) {
		t.Errorf("nullTimePtr(now) = %v", nt)
	}

	// nullFloatPtr
	if nullFloatPtr(nil).Valid {
		t.Error("nullFloatPtr(nil) should be invalid")
	}
	f := 15.0
	if nf := nullFloatPtr(&f); !nf.Valid || nf.Float64 != 15.0 {
		t.Errorf("nullFloatPtr(15.0) = %v", nf)
	}

	// nullString
	if nullString("").Valid {
		t.Error("nullString(\"\") should be invalid")
	}
	if ns := nullString("hello"); !ns.Valid || ns.String != "hello" {
		t.Errorf("nullString(\"hello\") = %v", ns)
	}

	// jsonbBytes
	if jsonbBytes(nil) != nil {
		t.Error("jsonbBytes(nil) should be nil")
	}
	if jsonbBytes(json.RawMessage{}) != nil {
		t.Error("jsonbBytes({}) should be nil")
	}
	input := json.RawMessage(`{"key":"value"}`)
	if string(jsonbBytes(input)) != `{"key":"value"}` {
		t.Errorf("jsonbBytes = %s", jsonbBytes(input))
	}
}

func TestQueryCreateProposal(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	p := &model.Proposal{
		ID: "prp-test1", CaseNumber: "CASE-2025-000001", StencilID: "stencil-1",
		CircleID: "circle-1", SubmittedBy: "ana", Status: model.StatusDraft,
		CreatedAt: now, UpdatedAt: now,
	}
	mock.ExpectExec("INSERT INTO proposals").
		WithArgs(
			"prp-test1", "CASE-2025-000001", "stencil-1", "circle-1", "ana", "draft", sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), now, now,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := queryCreateProposal(context.Background(), db, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueryGetProposal(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	rows := addProposalRow(sqlmock.NewRows(proposalRowColumns), "prp-test1", "CASE-2025-000001", "listening", now)
	mock.ExpectQuery("SELECT .+ FROM proposals WHERE id = \\$1").WithArgs("prp-test1").WillReturnRows(rows)

	p, err := queryGetProposal(context.Background(), db, "prp-test1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != "prp-test1" || p.Status != model.StatusListening {
		t.Fatalf("got id=%q status=%q", p.ID, p.Status)
	}
	if p.ApprovedAt != nil || p.VetoedAt != nil {
		t.Fatalf("decision timestamps should be nil: %+v", p)
	}
}

func TestQueryGetProposal_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .+ FROM proposals WHERE id = \\$1").WithArgs("nonexistent").WillReturnError(sql.ErrNoRows)

	_, err := queryGetProposal(context.Background(), db, "nonexistent")
	if err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestQueryListProposals(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(proposalWithTotalColumns)
	rows.AddRow(2, "prp-a", "CASE-2025-000001", "stencil-1", "circle-1", "ana", "listening", nil, nil, nil, nil, nil, nil, now, now)
	rows.AddRow(2, "prp-b", "CASE-2025-000002", "stencil-1", "circle-1", "ana", "listening", nil, nil, nil, nil, nil, nil, now, now)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) OVER\\(\\) AS total_count, .+ FROM proposals WHERE status IN \\(\\$1\\)").
		WithArgs("listening").
		WillReturnRows(rows)

	proposals, total, err := queryListProposals(context.Background(), db, model.ProposalFilter{
		Status: []model.Status{model.StatusListening},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(proposals) != 2 || total != 2 {
		t.Fatalf("got %d proposals, total %d, want 2/2", len(proposals), total)
	}
}

func TestQueryListProposals_Pagination(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(proposalWithTotalColumns)
	rows.AddRow(10, "prp-c", "CASE-2025-000003", "stencil-1", "circle-1", "ana", "listening", nil, nil, nil, nil, nil, nil, now, now)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) OVER\\(\\) AS total_count, .+ FROM proposals ORDER BY case_number ASC LIMIT \\$1 OFFSET \\$2").
		WithArgs(1, 2).
		WillReturnRows(rows)

	proposals, total, err := queryListProposals(context.Background(), db, model.ProposalFilter{
		Sort: "case_number", Limit: 1, Offset: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(proposals) != 1 || total != 10 {
		t.Fatalf("got %d proposals, total %d, want 1/10", len(proposals), total)
	}
}

func TestQueryTransitionProposal(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	p := &model.Proposal{
		ID: "prp-test1", Status: model.StatusApproved,
		ApprovedBy: "lead", ApprovedAt: &now, UpdatedAt: now,
	}
	mock.ExpectExec("UPDATE proposals SET").
		WithArgs(
			"prp-test1", "listening", "approved",
			"lead", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), now,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := queryTransitionProposal(context.Background(), db, p, model.StatusListening)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected transition to report success")
	}
}

func TestQueryTransitionProposal_LostRace(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	p := &model.Proposal{
		ID: "prp-test1", Status: model.StatusVetoed,
		VetoedBy: "cfo", VetoReason: "budget freeze", VetoedAt: &now, UpdatedAt: now,
	}
	// Status no longer matches: zero rows affected.
	mock.ExpectExec("UPDATE proposals SET").
		WithArgs(
			"prp-test1", "listening", "vetoed",
			sqlmock.AnyArg(), sqlmock.AnyArg(), "cfo", "budget freeze", sqlmock.AnyArg(), now,
		).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := queryTransitionProposal(context.Background(), db, p, model.StatusListening)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected transition to report failure on zero rows")
	}
}

func TestQueryLockCaseYear(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("SELECT pg_advisory_xact_lock\\(\\$1\\)").
		WithArgs(int64(2025)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := queryLockCaseYear(context.Background(), db, 2025); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueryListCaseNumbers(t *testing.T) {
	db, mock := newMockDB(t)
	rows := sqlmock.NewRows([]string{"case_number"}).
		AddRow("CASE-2025-000001").
		AddRow("CASE-2025-000002")
	mock.ExpectQuery("SELECT case_number FROM proposals WHERE case_number LIKE \\$1").
		WithArgs("CASE-2025-").
		WillReturnRows(rows)

	numbers, err := queryListCaseNumbers(context.Background(), db, "CASE-2025-")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(numbers) != 2 || numbers[1] != "CASE-2025-000002" {
		t.Fatalf("got %v", numbers)
	}
}

func TestQueryAppendAuditEvent(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	e := &model.AuditEvent{
		ID: "aud-test1", SubjectID: "prp-test1", Who: "ana", What: model.ActionCreated,
		Where: "web", How: "form", CreatedAt: now,
	}
	mock.ExpectQuery("INSERT INTO audit_events").
		WithArgs(
			"aud-test1", "prp-test1", "ana", "CREATED",
			"web", "form", sqlmock.AnyArg(), sqlmock.AnyArg(), now,
		).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	if err := queryAppendAuditEvent(context.Background(), db, e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueryListAuditEvents(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	meta, _ := json.Marshal(model.TransitionMetadata{From: model.StatusDraft, To: model.StatusListening})

	rows := sqlmock.NewRows([]string{"id", "subject_id", "who", "what", "channel", "mechanism", "why", "metadata", "created_at"}).
		AddRow("aud-1", "prp-test1", "ana", "CREATED", "web", "form", nil, nil, now).
		AddRow("aud-2", "prp-test1", "ana", "STATUS_CHANGED", "web", "form", nil, meta, now)
	mock.ExpectQuery("SELECT .+ FROM audit_events WHERE subject_id = \\$1 ORDER BY created_at ASC, id ASC").
		WithArgs("prp-test1").
		WillReturnRows(rows)

	events, err := queryListAuditEvents(context.Background(), db, "prp-test1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].What != model.ActionCreated || events[1].What != model.ActionStatusChanged {
		t.Fatalf("got actions %q, %q", events[0].What, events[1].What)
	}
	var tm model.TransitionMetadata
	if err := json.Unmarshal(events[1].Metadata, &tm); err != nil {
		t.Fatalf("unmarshaling metadata: %v", err)
	}
	if tm.From != model.StatusDraft || tm.To != model.StatusListening {
		t.Fatalf("metadata = %+v", tm)
	}
}

func TestQueryCreateVariance(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	v := &model.VarianceRecord{
		ID: "var-test1", ProposalID: "prp-test1", CaseNumber: "CASE-2025-000001",
		StencilID: "stencil-1", BudgetedTotal: 100000, BudgetedBy: "finance",
		BudgetedAt: now, CreatedAt: now, UpdatedAt: now,
	}
	mock.ExpectExec("INSERT INTO variance_records").
		WithArgs(
			"var-test1", "prp-test1", "CASE-2025-000001", "stencil-1",
			100000.0, sqlmock.AnyArg(), "finance", now,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), 0, sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), now, now,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := queryCreateVariance(context.Background(), db, v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueryGetVarianceByProposal(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "proposal_id", "case_number", "stencil_id",
		"budgeted_total", "budgeted_breakdown", "budgeted_by", "budgeted_at",
		"planned_total", "planned_metrics", "planned_notes", "planned_at",
		"actual_total", "actual_breakdown", "actual_metrics", "actual_review_count", "last_actual_at",
		"variance_pct", "variance_status", "variance_reason", "created_at", "updated_at",
	}).AddRow(
		"var-test1", "prp-test1", "CASE-2025-000001", "stencil-1",
		100000.0, nil, "finance", now,
		nil, nil, nil, nil,
		115000.0, nil, nil, 1, now,
		15.0, "overrun", nil, now, now,
	)
	mock.ExpectQuery("SELECT .+ FROM variance_records WHERE proposal_id = \\$1").
		WithArgs("prp-test1").
		WillReturnRows(rows)

	v, err := queryGetVarianceByProposal(context.Background(), db, "prp-test1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.VariancePct == nil || *v.VariancePct != 15.0 {
		t.Fatalf("variance pct = %v, want 15.0", v.VariancePct)
	}
	if v.VarianceStatus != model.VarianceOverrun || v.ActualReviewCount != 1 {
		t.Fatalf("got status=%q reviews=%d", v.VarianceStatus, v.ActualReviewCount)
	}
}

func TestQueryGetVarianceByProposal_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .+ FROM variance_records WHERE proposal_id = \\$1").
		WithArgs("prp-none").
		WillReturnError(sql.ErrNoRows)

	_, err := queryGetVarianceByProposal(context.Background(), db, "prp-none")
	if err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestQueryUpdateVariance(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	actual := 115000.0
	pct := 15.0
	v := &model.VarianceRecord{
		ID: "var-test1", ProposalID: "prp-test1",
		BudgetedTotal: 100000, ActualTotal: &actual, ActualReviewCount: 1,
		LastActualAt: &now, VariancePct: &pct, VarianceStatus: model.VarianceOverrun,
		UpdatedAt: now,
	}
	mock.ExpectQuery("UPDATE variance_records SET").
		WithArgs(
			"var-test1",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			115000.0, sqlmock.AnyArg(), sqlmock.AnyArg(), 1, sqlmock.AnyArg(),
			15.0, "overrun", sqlmock.AnyArg(), now,
		).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))

	if err := queryUpdateVariance(context.Background(), db, v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueryCreateMilestone(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	m := &model.Milestone{
		ID: "mst-test1", VarianceID: "var-test1", Key: "phase-1", Label: "Phase 1",
		ScheduledDate: now, CreatedAt: now, UpdatedAt: now,
	}
	mock.ExpectExec("INSERT INTO milestones").
		WithArgs(
			"mst-test1", "var-test1", "phase-1", "Phase 1",
			now, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), now, now,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := queryCreateMilestone(context.Background(), db, m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueryListMilestones(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "variance_id", "milestone_key", "milestone_label",
		"scheduled_date", "actual_date", "budget_to_date", "actual_to_date", "variance_pct_to_date",
		"notes", "reviewed_by", "reviewed_at", "created_at", "updated_at",
	}).
		AddRow("mst-1", "var-test1", "phase-1", "Phase 1", now, nil, 40000.0, nil, nil, nil, nil, nil, now, now).
		AddRow("mst-2", "var-test1", "phase-2", "Phase 2", now.AddDate(0, 1, 0), nil, nil, nil, nil, nil, nil, nil, now, now)
	mock.ExpectQuery("SELECT .+ FROM milestones WHERE variance_id = \\$1 ORDER BY scheduled_date ASC").
		WithArgs("var-test1").
		WillReturnRows(rows)

	milestones, err := queryListMilestones(context.Background(), db, "var-test1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(milestones) != 2 || milestones[0].Key != "phase-1" {
		t.Fatalf("got %d milestones, first %q", len(milestones), milestones[0].Key)
	}
	if milestones[0].BudgetToDate == nil || *milestones[0].BudgetToDate != 40000.0 {
		t.Fatalf("budget_to_date = %v", milestones[0].BudgetToDate)
	}
}

func TestRunInTransaction_Commit(t *testing.T) {
	db, mock := newMockDB(t)
	s := &PostgresStore{db: db}

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock\\(\\$1\\)").
		WithArgs(int64(2025)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := s.RunInTransaction(context.Background(), func(tx store.Store) error {
		return tx.LockCaseYear(context.Background(), 2025)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunInTransaction_RollbackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	s := &PostgresStore{db: db}

	mock.ExpectBegin()
	mock.ExpectRollback()

	wantErr := errors.New("validation blew up")
	err := s.RunInTransaction(context.Background(), func(tx store.Store) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped %v, got %v", wantErr, err)
	}
}
