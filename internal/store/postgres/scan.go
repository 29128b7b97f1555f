package postgres

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/alfredjeanlab/quorum/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanProposal scans a single row into a model.Proposal.
// The row must contain columns in the order defined by proposalColumns.
func scanProposal(row scannable) (*model.Proposal, error) {
	var p model.Proposal
	var (
		data       []byte
		approvedBy sql.NullString
		approvedAt sql.NullTime
		vetoedBy   sql.NullString
		vetoReason sql.NullString
		vetoedAt   sql.NullTime
	)

	err := row.Scan(
		&p.ID,
		&p.CaseNumber,
		&p.StencilID,
		&p.CircleID,
		&p.SubmittedBy,
		&p.Status,
		&data,
		&approvedBy,
		&approvedAt,
		&vetoedBy,
		&vetoReason,
		&vetoedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(data) > 0 {
		p.Data = json.RawMessage(data)
	}
	p.ApprovedBy = approvedBy.String
	p.VetoedBy = vetoedBy.String
	p.VetoReason = vetoReason.String
	if approvedAt.Valid {
		t := approvedAt.Time
		p.ApprovedAt = &t
	}
	if vetoedAt.Valid {
		t := vetoedAt.Time
		p.VetoedAt = &t
	}

	return &p, nil
}

// scanProposalWithTotal scans a row that has a leading total_count column
// followed by the standard proposal columns. Used by queryListProposals
// with COUNT(*) OVER().
func scanProposalWithTotal(row scannable) (*model.Proposal, int, error) {
	var total int
	var p model.Proposal
	var (
		data       []byte
		approvedBy sql.NullString
		approvedAt sql.NullTime
		vetoedBy   sql.NullString
		vetoReason sql.NullString
		vetoedAt   sql.NullTime
	)

	err := row.Scan(
		&total,
		&p.ID,
		&p.CaseNumber,
		&p.StencilID,
		&p.CircleID,
		&p.SubmittedBy,
		&p.Status,
		&data,
		&approvedBy,
		&approvedAt,
		&vetoedBy,
		&vetoReason,
		&vetoedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, 0, err
	}

	if len(data) > 0 {
		p.Data = json.RawMessage(data)
	}
	p.ApprovedBy = approvedBy.String
	p.VetoedBy = vetoedBy.String
	p.VetoReason = vetoReason.String
	if approvedAt.Valid {
		t := approvedAt.Time
		p.ApprovedAt = &t
	}
	if vetoedAt.Valid {
		t := vetoedAt.Time
		p.VetoedAt = &t
	}

	return &p, total, nil
}

// scanAuditEvent scans a single row into a model.AuditEvent.
func scanAuditEvent(row scannable) (*model.AuditEvent, error) {
	var e model.AuditEvent
	var (
		channel   sql.NullString
		mechanism sql.NullString
		why       sql.NullString
		metadata  []byte
	)
	err := row.Scan(&e.ID, &e.SubjectID, &e.Who, &e.What, &channel, &mechanism, &why, &metadata, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.Where = channel.String
	e.How = mechanism.String
	e.Why = why.String
	if len(metadata) > 0 {
		e.Metadata = json.RawMessage(metadata)
	}
	return &e, nil
}

// scanAuditEvents scans multiple rows into a slice of model.AuditEvent pointers.
func scanAuditEvents(rows *sql.Rows) ([]*model.AuditEvent, error) {
	var events []*model.AuditEvent
	for rows.Next() {
		e, err := scanAuditEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// scanVariance scans a single row into a model.VarianceRecord.
func scanVariance(row scannable) (*model.VarianceRecord, error) {
	var v model.VarianceRecord
	var (
		budgetedBreakdown []byte
		plannedTotal      sql.NullFloat64
		plannedMetrics    []byte
		plannedNotes      sql.NullString
		plannedAt         sql.NullTime
		actualTotal       sql.NullFloat64
		actualBreakdown   []byte
		actualMetrics     []byte
		lastActualAt      sql.NullTime
		variancePct       sql.NullFloat64
		varianceStatus    sql.NullString
		varianceReason    sql.NullString
	)

	err := row.Scan(
		&v.ID,
		&v.ProposalID,
		&v.CaseNumber,
		&v.StencilID,
		&v.BudgetedTotal,
		&budgetedBreakdown,
		&v.BudgetedBy,
		&v.BudgetedAt,
		&plannedTotal,
		&plannedMetrics,
		&plannedNotes,
		&plannedAt,
		&actualTotal,
		&actualBreakdown,
		&actualMetrics,
		&v.ActualReviewCount,
		&lastActualAt,
		&variancePct,
		&varianceStatus,
		&varianceReason,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(budgetedBreakdown) > 0 {
		v.BudgetedBreakdown = json.RawMessage(budgetedBreakdown)
	}
	if plannedTotal.Valid {
		f := plannedTotal.Float64
		v.PlannedTotal = &f
	}
	if len(plannedMetrics) > 0 {
		v.PlannedMetrics = json.RawMessage(plannedMetrics)
	}
	v.PlannedNotes = plannedNotes.String
	if plannedAt.Valid {
		t := plannedAt.Time
		v.PlannedAt = &t
	}
	if actualTotal.Valid {
		f := actualTotal.Float64
		v.ActualTotal = &f
	}
	if len(actualBreakdown) > 0 {
		v.ActualBreakdown = json.RawMessage(actualBreakdown)
	}
	if len(actualMetrics) > 0 {
		v.ActualMetrics = json.RawMessage(actualMetrics)
	}
	if lastActualAt.Valid {
		t := lastActualAt.Time
		v.LastActualAt = &t
	}
	if variancePct.Valid {
		f := variancePct.Float64
		v.VariancePct = &f
	}
	v.VarianceStatus = model.VarianceStatus(varianceStatus.String)
	v.VarianceReason = varianceReason.String

	return &v, nil
}

// scanMilestone scans a single row into a model.Milestone.
func scanMilestone(row scannable) (*model.Milestone, error) {
	var m model.Milestone
	var (
		actualDate        sql.NullTime
		budgetToDate      sql.NullFloat64
		actualToDate      sql.NullFloat64
		variancePctToDate sql.NullFloat64
		notes             sql.NullString
		reviewedBy        sql.NullString
		reviewedAt        sql.NullTime
	)

	err := row.Scan(
		&m.ID,
		&m.VarianceID,
		&m.Key,
		&m.Label,
		&m.ScheduledDate,
		&actualDate,
		&budgetToDate,
		&actualToDate,
		&variancePctToDate,
		&notes,
		&reviewedBy,
		&reviewedAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if actualDate.Valid {
		t := actualDate.Time
		m.ActualDate = &t
	}
	if budgetToDate.Valid {
		f := budgetToDate.Float64
		m.BudgetToDate = &f
	}
	if actualToDate.Valid {
		f := actualToDate.Float64
		m.ActualToDate = &f
	}
	if variancePctToDate.Valid {
		f := variancePctToDate.Float64
		m.VariancePctToDate = &f
	}
	m.Notes = notes.String
	m.ReviewedBy = reviewedBy.String
	if reviewedAt.Valid {
		t := reviewedAt.Time
		m.ReviewedAt = &t
	}

	return &m, nil
}

// scanMilestones scans multiple rows into a slice of model.Milestone pointers.
func scanMilestones(rows *sql.Rows) ([]*model.Milestone, error) {
	var milestones []*model.Milestone
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, err
		}
		milestones = append(milestones, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return milestones, nil
}

// nullTimePtr converts a *time.Time to a sql.NullTime.
func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// nullFloatPtr converts a *float64 to a sql.NullFloat64.
func nullFloatPtr(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// nullString converts a string to sql.NullString; empty string is null.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// jsonbBytes converts json.RawMessage to a []byte suitable for JSONB columns.
func jsonbBytes(m json.RawMessage) []byte {
	if len(m) == 0 {
		return nil
	}
	return []byte(m)
}
