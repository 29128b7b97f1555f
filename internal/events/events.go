package events

import (
	"context"

	"github.com/alfredjeanlab/quorum/internal/model"
)

// Event topic constants
const (
	TopicProposalCreated  = "quorum.proposal.created"
	TopicProposalApproved = "quorum.proposal.approved"
	TopicProposalVetoed   = "quorum.proposal.vetoed"

	// Variance events
	TopicBudgetCreated   = "quorum.variance.budget_created"
	TopicVarianceUpdated = "quorum.variance.updated"

	// Milestone events
	TopicMilestoneCreated = "quorum.milestone.created"
	TopicMilestoneUpdated = "quorum.milestone.updated"
)

// Event types

type ProposalCreated struct {
	Proposal *model.Proposal `json:"proposal"`
}

type ProposalApproved struct {
	Proposal   *model.Proposal `json:"proposal"`
	ApprovedBy string          `json:"approved_by"`
}

type ProposalVetoed struct {
	Proposal *model.Proposal `json:"proposal"`
	VetoedBy string          `json:"vetoed_by"`
	Reason   string          `json:"reason"`
}

// Variance events

type BudgetCreated struct {
	Variance *model.VarianceRecord `json:"variance"`
}

type VarianceUpdated struct {
	Variance *model.VarianceRecord `json:"variance"`
	Changes  map[string]any        `json:"changes"` // field name -> new value
}

// Milestone events

type MilestoneCreated struct {
	Milestone *model.Milestone `json:"milestone"`
}

type MilestoneUpdated struct {
	Milestone *model.Milestone `json:"milestone"`
	Changes   map[string]any   `json:"changes"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
