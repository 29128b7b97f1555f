package model

import (
	"encoding/json"
	"math"
	"time"
)

// VarianceStatus is the discrete risk classification derived from a
// variance percentage.
type VarianceStatus string

const (
	VarianceOnTrack  VarianceStatus = "on_track"
	VarianceWarning  VarianceStatus = "warning"
	VarianceOverrun  VarianceStatus = "overrun"
	VarianceUnderrun VarianceStatus = "underrun"
	VarianceCritical VarianceStatus = "critical"
)

// String returns the string representation of the variance status.
func (v VarianceStatus) String() string {
	return string(v)
}

// VariancePct computes the relative deviation of actual from budgeted as a
// signed percentage, rounded to two decimal places. A zero budget yields 0
// rather than dividing by zero; callers treat that as a data-entry anomaly.
func VariancePct(budgeted, actual float64) float64 {
	if budgeted == 0 {
		return 0
	}
	pct := (actual - budgeted) / budgeted * 100
	return math.Round(pct*100) / 100
}

// RiskStatusFromVariance classifies a variance percentage into a risk
// status. The bands are evaluated in fixed order and are deliberately
// asymmetric: overspend is flagged from +5%, underspend only from -10%.
func RiskStatusFromVariance(pct float64) VarianceStatus {
	switch {
	case pct >= 20:
		return VarianceCritical
	case pct >= 10:
		return VarianceOverrun
	case pct >= 5:
		return VarianceWarning
	case pct <= -10:
		return VarianceUnderrun
	default:
		return VarianceOnTrack
	}
}

// VarianceRecord tracks the budgeted/planned/actual triad for one proposal.
// Exactly one record exists per proposal.
type VarianceRecord struct {
	ID         string `json:"id"`
	ProposalID string `json:"proposal_id"`
	CaseNumber string `json:"case_number"`
	StencilID  string `json:"stencil_id"`

	BudgetedTotal     float64         `json:"budgeted_total"`
	BudgetedBreakdown json.RawMessage `json:"budgeted_breakdown,omitempty"`
	BudgetedBy        string          `json:"budgeted_by"`
	BudgetedAt        time.Time       `json:"budgeted_at"`

	PlannedTotal   *float64        `json:"planned_total,omitempty"`
	PlannedMetrics json.RawMessage `json:"planned_metrics,omitempty"`
	PlannedNotes   string          `json:"planned_notes,omitempty"`
	PlannedAt      *time.Time      `json:"planned_at,omitempty"`

	ActualTotal       *float64        `json:"actual_total,omitempty"`
	ActualBreakdown   json.RawMessage `json:"actual_breakdown,omitempty"`
	ActualMetrics     json.RawMessage `json:"actual_metrics,omitempty"`
	ActualReviewCount int             `json:"actual_review_count"`
	LastActualAt      *time.Time      `json:"last_actual_at,omitempty"`

	VariancePct    *float64       `json:"variance_pct,omitempty"`
	VarianceStatus VarianceStatus `json:"variance_status,omitempty"`
	VarianceReason string         `json:"variance_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Recompute refreshes VariancePct and VarianceStatus from the current
// budgeted and actual totals. The pair is always recomputed together; both
// stay unset until an actual value exists.
func (v *VarianceRecord) Recompute() {
	if v.ActualTotal == nil {
		return
	}
	pct := VariancePct(v.BudgetedTotal, *v.ActualTotal)
	v.VariancePct = &pct
	v.VarianceStatus = RiskStatusFromVariance(pct)
}

// Milestone is a dated checkpoint under a variance record with its own
// to-date budget/actual comparison.
type Milestone struct {
	ID         string `json:"id"`
	VarianceID string `json:"variance_id"`

	Key   string `json:"milestone_key"`
	Label string `json:"milestone_label"`

	ScheduledDate time.Time  `json:"scheduled_date"`
	ActualDate    *time.Time `json:"actual_date,omitempty"`

	BudgetToDate      *float64 `json:"budget_to_date,omitempty"`
	ActualToDate      *float64 `json:"actual_to_date,omitempty"`
	VariancePctToDate *float64 `json:"variance_pct_to_date,omitempty"`

	Notes      string     `json:"notes,omitempty"`
	ReviewedBy string     `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Recompute refreshes VariancePctToDate when both to-date values are
// present and the budget is positive; otherwise the derived value is left
// unset.
func (m *Milestone) Recompute() {
	if m.BudgetToDate == nil || m.ActualToDate == nil || *m.BudgetToDate <= 0 {
		return
	}
	pct := VariancePct(*m.BudgetToDate, *m.ActualToDate)
	m.VariancePctToDate = &pct
}

// VarianceSnapshot is the read-only aggregate of a variance record and its
// milestones ordered by scheduled date.
type VarianceSnapshot struct {
	Record     *VarianceRecord `json:"record"`
	Milestones []*Milestone    `json:"milestones"`
}
