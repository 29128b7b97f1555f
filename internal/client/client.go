// Package client provides a transport-agnostic interface for the quorum
// service and an HTTP/JSON implementation that talks to the quorum REST API.
package client

import (
	"context"
	"encoding/json"
	"time"

	"github.com/alfredjeanlab/quorum/internal/model"
)

// QuorumClient is the interface that all quorum CLI commands use to
// communicate with the server. It is implemented by HTTPClient.
type QuorumClient interface {
	// Proposals
	CreateProposal(ctx context.Context, req *CreateProposalRequest) (*model.Proposal, error)
	GetProposal(ctx context.Context, id string) (*model.Proposal, error)
	ListProposals(ctx context.Context, req *ListProposalsRequest) (*ListProposalsResponse, error)
	ApproveProposal(ctx context.Context, id string, req *DecisionRequest) (*model.Proposal, error)
	VetoProposal(ctx context.Context, id string, req *DecisionRequest) (*model.Proposal, error)

	// Audit trail
	ListAuditEvents(ctx context.Context, proposalID string) ([]*model.AuditEvent, error)

	// Variance
	CreateBudget(ctx context.Context, proposalID string, req *CreateBudgetRequest) (*model.VarianceRecord, error)
	UpdateVariance(ctx context.Context, proposalID string, req *UpdateVarianceRequest) (*model.VarianceRecord, error)
	GetVarianceData(ctx context.Context, proposalID string) (*model.VarianceSnapshot, error)

	// Milestones
	CreateMilestone(ctx context.Context, proposalID string, req *CreateMilestoneRequest) (*model.Milestone, error)
	UpdateMilestone(ctx context.Context, milestoneID string, req *UpdateMilestoneRequest) (*model.Milestone, error)

	// Health
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// CreateProposalRequest holds parameters for submitting a proposal.
type CreateProposalRequest struct {
	StencilID   string          `json:"stencil_id"`
	CircleID    string          `json:"circle_id"`
	SubmittedBy string          `json:"submitted_by"`
	Data        json.RawMessage `json:"data,omitempty"`
	Channel     string          `json:"channel,omitempty"`
	Mechanism   string          `json:"mechanism,omitempty"`
}

// ListProposalsRequest holds filter parameters for listing proposals.
type ListProposalsRequest struct {
	Status      []string
	CircleID    string
	StencilID   string
	SubmittedBy string
	Sort        string
	Limit       int
	Offset      int
}

// ListProposalsResponse is the paginated proposal listing.
type ListProposalsResponse struct {
	Proposals []*model.Proposal `json:"proposals"`
	Total     int               `json:"total"`
}

// DecisionRequest carries the actor and context for an approve or veto.
type DecisionRequest struct {
	Actor     string `json:"actor"`
	Reason    string `json:"reason,omitempty"`
	Channel   string `json:"channel,omitempty"`
	Mechanism string `json:"mechanism,omitempty"`
}

// CreateBudgetRequest establishes a proposal's budget baseline.
type CreateBudgetRequest struct {
	BudgetedTotal     float64         `json:"budgeted_total"`
	BudgetedBreakdown json.RawMessage `json:"budgeted_breakdown,omitempty"`
	BudgetedBy        string          `json:"budgeted_by"`
	Channel           string          `json:"channel,omitempty"`
	Mechanism         string          `json:"mechanism,omitempty"`
}

// UpdateVarianceRequest carries partial updates to a variance record.
type UpdateVarianceRequest struct {
	UpdatedBy       string          `json:"updated_by"`
	PlannedTotal    *float64        `json:"planned_total,omitempty"`
	PlannedMetrics  json.RawMessage `json:"planned_metrics,omitempty"`
	PlannedNotes    *string         `json:"planned_notes,omitempty"`
	ActualTotal     *float64        `json:"actual_total,omitempty"`
	ActualBreakdown json.RawMessage `json:"actual_breakdown,omitempty"`
	ActualMetrics   json.RawMessage `json:"actual_metrics,omitempty"`
	VarianceReason  *string         `json:"variance_reason,omitempty"`
	Channel         string          `json:"channel,omitempty"`
	Mechanism       string          `json:"mechanism,omitempty"`
}

// CreateMilestoneRequest adds a milestone checkpoint.
type CreateMilestoneRequest struct {
	Key           string    `json:"milestone_key"`
	Label         string    `json:"milestone_label"`
	ScheduledDate time.Time `json:"scheduled_date"`
	BudgetToDate  *float64  `json:"budget_to_date,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	CreatedBy     string    `json:"created_by"`
	Channel       string    `json:"channel,omitempty"`
	Mechanism     string    `json:"mechanism,omitempty"`
}

// UpdateMilestoneRequest carries partial updates to a milestone.
type UpdateMilestoneRequest struct {
	UpdatedBy    string     `json:"updated_by"`
	ActualDate   *time.Time `json:"actual_date,omitempty"`
	BudgetToDate *float64   `json:"budget_to_date,omitempty"`
	ActualToDate *float64   `json:"actual_to_date,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
	ReviewedBy   string     `json:"reviewed_by,omitempty"`
	Channel      string     `json:"channel,omitempty"`
	Mechanism    string     `json:"mechanism,omitempty"`
}
