package store

import (
	"context"

	"github.com/alfredjeanlab/quorum/internal/model"
)

// Store defines the persistence interface for the governance engine.
// The audit trail is append-only by contract: no update or delete
// operation exists for audit events.
type Store interface {
	// Proposals
	CreateProposal(ctx context.Context, p *model.Proposal) error
	GetProposal(ctx context.Context, id string) (*model.Proposal, error)
	ListProposals(ctx context.Context, filter model.ProposalFilter) ([]*model.Proposal, int, error) // returns proposals, total count, error

	// TransitionProposal persists p's current state only if the stored
	// status still equals expect (compare-and-set). It reports whether the
	// row was updated; false means another writer won the race or the row
	// is gone.
	TransitionProposal(ctx context.Context, p *model.Proposal, expect model.Status) (bool, error)

	// Case numbers
	LockCaseYear(ctx context.Context, year int) error // transaction-scoped advisory lock
	ListCaseNumbers(ctx context.Context, prefix string) ([]string, error)

	// Audit trail (append-only)
	AppendAuditEvent(ctx context.Context, e *model.AuditEvent) error
	ListAuditEvents(ctx context.Context, subjectID string) ([]*model.AuditEvent, error)

	// Variance records
	CreateVariance(ctx context.Context, v *model.VarianceRecord) error
	GetVarianceByProposal(ctx context.Context, proposalID string) (*model.VarianceRecord, error)
	UpdateVariance(ctx context.Context, v *model.VarianceRecord) error

	// Milestones
	CreateMilestone(ctx context.Context, m *model.Milestone) error
	GetMilestone(ctx context.Context, id string) (*model.Milestone, error)
	UpdateMilestone(ctx context.Context, m *model.Milestone) error
	ListMilestones(ctx context.Context, varianceID string) ([]*model.Milestone, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
