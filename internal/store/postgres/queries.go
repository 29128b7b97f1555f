package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/alfredjeanlab/quorum/internal/model"
)

// proposalColumns is the column list used for SELECT statements on the proposals table.
const proposalColumns = `id, case_number, stencil_id, circle_id, submitted_by, status, data,
	approved_by, approved_at, vetoed_by, veto_reason, vetoed_at, created_at, updated_at`

// varianceColumns is the column list for SELECT statements on the variance_records table.
const varianceColumns = `id, proposal_id, case_number, stencil_id,
	budgeted_total, budgeted_breakdown, budgeted_by, budgeted_at,
	planned_total, planned_metrics, planned_notes, planned_at,
	actual_total, actual_breakdown, actual_metrics, actual_review_count, last_actual_at,
	variance_pct, variance_status, variance_reason, created_at, updated_at`

// milestoneColumns is the column list for SELECT statements on the milestones table.
const milestoneColumns = `id, variance_id, milestone_key, milestone_label,
	scheduled_date, actual_date, budget_to_date, actual_to_date, variance_pct_to_date,
	notes, reviewed_by, reviewed_at, created_at, updated_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryCreateProposal(ctx context.Context, db executor, p *model.Proposal) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO proposals (
			id, case_number, stencil_id, circle_id, submitted_by, status, data,
			approved_by, approved_at, vetoed_by, veto_reason, vetoed_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13, $14
		)`,
		p.ID,
		p.CaseNumber,
		p.StencilID,
		p.CircleID,
		p.SubmittedBy,
		string(p.Status),
		jsonbBytes(p.Data),
		nullString(p.ApprovedBy),
		nullTimePtr(p.ApprovedAt),
		nullString(p.VetoedBy),
		nullString(p.VetoReason),
		nullTimePtr(p.VetoedAt),
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

func queryGetProposal(ctx context.Context, db executor, id string) (*model.Proposal, error) {
	row := db.QueryRowContext(ctx, `SELECT `+proposalColumns+` FROM proposals WHERE id = $1`, id)
	return scanProposal(row)
}

func queryListProposals(ctx context.Context, db executor, filter model.ProposalFilter) ([]*model.Proposal, int, error) {
	var (
		whereClauses []string
		args         []any
		argIdx       int
	)

	nextArg := func() string {
		argIdx++
		return fmt.Sprintf("$%d", argIdx)
	}

	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, s := range filter.Status {
			placeholders[i] = nextArg()
			args = append(args, string(s))
		}
		whereClauses = append(whereClauses, "status IN ("+strings.Join(placeholders, ", ")+")")
	}

	if filter.CircleID != "" {
		whereClauses = append(whereClauses, "circle_id = "+nextArg())
		args = append(args, filter.CircleID)
	}

	if filter.StencilID != "" {
		whereClauses = append(whereClauses, "stencil_id = "+nextArg())
		args = append(args, filter.StencilID)
	}

	if filter.SubmittedBy != "" {
		whereClauses = append(whereClauses, "submitted_by = "+nextArg())
		args = append(args, filter.SubmittedBy)
	}

	whereSQL := ""
	if len(whereClauses) > 0 {
		whereSQL = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	// Single query with COUNT(*) OVER() to get total and rows atomically.
	dataQuery := "SELECT COUNT(*) OVER() AS total_count, " + proposalColumns + " FROM proposals" + whereSQL + " ORDER BY " + parseSortClause(filter.Sort)

	if filter.Limit > 0 {
		dataQuery += " LIMIT " + nextArg()
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		dataQuery += " OFFSET " + nextArg()
		args = append(args, filter.Offset)
	}

	rows, err := db.QueryContext(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list proposals: %w", err)
	}
	defer rows.Close()

	var proposals []*model.Proposal
	var total int
	for rows.Next() {
		p, t, err := scanProposalWithTotal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan proposals: %w", err)
		}
		total = t
		proposals = append(proposals, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("scan proposals: %w", err)
	}

	return proposals, total, nil
}

// queryTransitionProposal persists the proposal's decision fields with a
// compare-and-set on status. Zero rows affected means another writer moved
// the proposal first (or it no longer exists).
func queryTransitionProposal(ctx context.Context, db executor, p *model.Proposal, expect model.Status) (bool, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE proposals SET
			status = $3,
			approved_by = $4,
			approved_at = $5,
			vetoed_by = $6,
			veto_reason = $7,
			vetoed_at = $8,
			updated_at = $9
		WHERE id = $1 AND status = $2`,
		p.ID,
		string(expect),
		string(p.Status),
		nullString(p.ApprovedBy),
		nullTimePtr(p.ApprovedAt),
		nullString(p.VetoedBy),
		nullString(p.VetoReason),
		nullTimePtr(p.VetoedAt),
		p.UpdatedAt,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// queryLockCaseYear takes a transaction-scoped advisory lock keyed by year,
// serializing case-number allocation within a calendar year. The lock is
// released automatically at commit or rollback.
func queryLockCaseYear(ctx context.Context, db executor, year int) error {
	_, err := db.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(year))
	return err
}

func queryListCaseNumbers(ctx context.Context, db executor, prefix string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT case_number FROM proposals WHERE case_number LIKE $1 || '%'`,
		prefix,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var numbers []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}

func queryAppendAuditEvent(ctx context.Context, db executor, e *model.AuditEvent) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO audit_events (id, subject_id, who, what, channel, mechanism, why, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`,
		e.ID, e.SubjectID, e.Who, string(e.What),
		nullString(e.Where), nullString(e.How), nullString(e.Why),
		jsonbBytes(e.Metadata), e.CreatedAt,
	).Scan(&e.CreatedAt)
}

func queryListAuditEvents(ctx context.Context, db executor, subjectID string) ([]*model.AuditEvent, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, subject_id, who, what, channel, mechanism, why, metadata, created_at
		FROM audit_events
		WHERE subject_id = $1
		ORDER BY created_at ASC, id ASC`,
		subjectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuditEvents(rows)
}

func queryCreateVariance(ctx context.Context, db executor, v *model.VarianceRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO variance_records (
			id, proposal_id, case_number, stencil_id,
			budgeted_total, budgeted_breakdown, budgeted_by, budgeted_at,
			planned_total, planned_metrics, planned_notes, planned_at,
			actual_total, actual_breakdown, actual_metrics, actual_review_count, last_actual_at,
			variance_pct, variance_status, variance_reason, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10, $11, $12,
			$13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22
		)`,
		v.ID, v.ProposalID, v.CaseNumber, v.StencilID,
		v.BudgetedTotal, jsonbBytes(v.BudgetedBreakdown), v.BudgetedBy, v.BudgetedAt,
		nullFloatPtr(v.PlannedTotal), jsonbBytes(v.PlannedMetrics), nullString(v.PlannedNotes), nullTimePtr(v.PlannedAt),
		nullFloatPtr(v.ActualTotal), jsonbBytes(v.ActualBreakdown), jsonbBytes(v.ActualMetrics), v.ActualReviewCount, nullTimePtr(v.LastActualAt),
		nullFloatPtr(v.VariancePct), nullString(string(v.VarianceStatus)), nullString(v.VarianceReason), v.CreatedAt, v.UpdatedAt,
	)
	return err
}

func queryGetVarianceByProposal(ctx context.Context, db executor, proposalID string) (*model.VarianceRecord, error) {
	row := db.QueryRowContext(ctx, `SELECT `+varianceColumns+` FROM variance_records WHERE proposal_id = $1`, proposalID)
	return scanVariance(row)
}

func queryUpdateVariance(ctx context.Context, db executor, v *model.VarianceRecord) error {
	return db.QueryRowContext(ctx, `
		UPDATE variance_records SET
			planned_total = $2,
			planned_metrics = $3,
			planned_notes = $4,
			planned_at = $5,
			actual_total = $6,
			actual_breakdown = $7,
			actual_metrics = $8,
			actual_review_count = $9,
			last_actual_at = $10,
			variance_pct = $11,
			variance_status = $12,
			variance_reason = $13,
			updated_at = $14
		WHERE id = $1
		RETURNING updated_at`,
		v.ID,
		nullFloatPtr(v.PlannedTotal),
		jsonbBytes(v.PlannedMetrics),
		nullString(v.PlannedNotes),
		nullTimePtr(v.PlannedAt),
		nullFloatPtr(v.ActualTotal),
		jsonbBytes(v.ActualBreakdown),
		jsonbBytes(v.ActualMetrics),
		v.ActualReviewCount,
		nullTimePtr(v.LastActualAt),
		nullFloatPtr(v.VariancePct),
		nullString(string(v.VarianceStatus)),
		nullString(v.VarianceReason),
		v.UpdatedAt,
	).Scan(&v.UpdatedAt)
}

func queryCreateMilestone(ctx context.Context, db executor, m *model.Milestone) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO milestones (
			id, variance_id, milestone_key, milestone_label,
			scheduled_date, actual_date, budget_to_date, actual_to_date, variance_pct_to_date,
			notes, reviewed_by, reviewed_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9,
			$10, $11, $12, $13, $14
		)`,
		m.ID, m.VarianceID, m.Key, m.Label,
		m.ScheduledDate, nullTimePtr(m.ActualDate),
		nullFloatPtr(m.BudgetToDate), nullFloatPtr(m.ActualToDate), nullFloatPtr(m.VariancePctToDate),
		nullString(m.Notes), nullString(m.ReviewedBy), nullTimePtr(m.ReviewedAt),
		m.CreatedAt, m.UpdatedAt,
	)
	return err
}

func queryGetMilestone(ctx context.Context, db executor, id string) (*model.Milestone, error) {
	row := db.QueryRowContext(ctx, `SELECT `+milestoneColumns+` FROM milestones WHERE id = $1`, id)
	return scanMilestone(row)
}

func queryUpdateMilestone(ctx context.Context, db executor, m *model.Milestone) error {
	return db.QueryRowContext(ctx, `
		UPDATE milestones SET
			actual_date = $2,
			budget_to_date = $3,
			actual_to_date = $4,
			variance_pct_to_date = $5,
			notes = $6,
			reviewed_by = $7,
			reviewed_at = $8,
			updated_at = $9
		WHERE id = $1
		RETURNING updated_at`,
		m.ID,
		nullTimePtr(m.ActualDate),
		nullFloatPtr(m.BudgetToDate),
		nullFloatPtr(m.ActualToDate),
		nullFloatPtr(m.VariancePctToDate),
		nullString(m.Notes),
		nullString(m.ReviewedBy),
		nullTimePtr(m.ReviewedAt),
		m.UpdatedAt,
	).Scan(&m.UpdatedAt)
}

func queryListMilestones(ctx context.Context, db executor, varianceID string) ([]*model.Milestone, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+milestoneColumns+`
		FROM milestones
		WHERE variance_id = $1
		ORDER BY scheduled_date ASC`,
		varianceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMilestones(rows)
}

func parseSortClause(sort string) string {
	if sort == "" {
		return "created_at DESC"
	}
	desc := strings.HasPrefix(sort, "-")
	col := strings.TrimPrefix(sort, "-")
	allowed := map[string]bool{
		"created_at": true, "updated_at": true, "case_number": true, "status": true,
	}
	if !allowed[col] {
		return "created_at DESC"
	}
	if desc {
		return col + " DESC"
	}
	return col + " ASC"
}
