// Package governance implements the proposal decision engine: the
// draft/listening/approved/vetoed lifecycle, the append-only audit trail
// written alongside every accepted mutation, and budget variance tracking.
package governance

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alfredjeanlab/quorum/internal/casenum"
	"github.com/alfredjeanlab/quorum/internal/events"
	"github.com/alfredjeanlab/quorum/internal/idgen"
	"github.com/alfredjeanlab/quorum/internal/model"
	"github.com/alfredjeanlab/quorum/internal/store"
)

// ProposalService drives the proposal lifecycle. All mutations run inside a
// single store transaction together with their audit events, so a proposal
// row and its trail can never disagree.
type ProposalService struct {
	store store.Store
	bus   events.Publisher
	log   *slog.Logger

	now func() time.Time // injected for tests
}

// NewProposalService wires a proposal service. Pass a NoopPublisher when no
// event bus is configured.
func NewProposalService(s store.Store, bus events.Publisher, log *slog.Logger) *ProposalService {
	if bus == nil {
		bus = &events.NoopPublisher{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &ProposalService{
		store: s,
		bus:   bus,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// CreateProposalInput holds transport-agnostic parameters for submitting a
// proposal. Channel and Mechanism describe where and how the submission
// arrived and are recorded on the audit events.
type CreateProposalInput struct {
	StencilID   string          `json:"stencil_id"`
	CircleID    string          `json:"circle_id"`
	SubmittedBy string          `json:"submitted_by"`
	Data        json.RawMessage `json:"data,omitempty"`
	Channel     string          `json:"channel,omitempty"`
	Mechanism   string          `json:"mechanism,omitempty"`
}

// CreateProposal allocates a case number, persists the proposal, and moves
// it straight from draft to listening. The draft state exists only inside
// the transaction; callers always observe a listening proposal with two
// audit events. Publishes ProposalCreated after commit.
func (s *ProposalService) CreateProposal(ctx context.Context, in CreateProposalInput) (*model.Proposal, error) {
	now := s.now()

	id, err := idgen.Generate(idgen.PrefixProposal)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ID: %w", err)
	}

	p := &model.Proposal{
		ID:          id,
		StencilID:   in.StencilID,
		CircleID:    in.CircleID,
		SubmittedBy: in.SubmittedBy,
		Status:      model.StatusDraft,
		Data:        in.Data,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := model.ValidateProposal(p); err != nil {
		return nil, err
	}

	err = s.store.RunInTransaction(ctx, func(tx store.Store) error {
		// Serialize case-number allocation per year; the advisory lock is
		// released with the transaction.
		year := now.Year()
		if err := tx.LockCaseYear(ctx, year); err != nil {
			return fmt.Errorf("failed to lock case year %d: %w", year, err)
		}
		caseNumber, err := casenum.Next(ctx, tx, year)
		if err != nil {
			return err
		}
		p.CaseNumber = caseNumber

		if err := tx.CreateProposal(ctx, p); err != nil {
			return fmt.Errorf("failed to create proposal: %w", err)
		}
		if err := appendAudit(ctx, tx, p.ID, in.SubmittedBy, model.ActionCreated, in.Channel, in.Mechanism, "", nil, now); err != nil {
			return err
		}

		from := p.Status
		p.Status = model.StatusListening
		p.UpdatedAt = now
		ok, err := tx.TransitionProposal(ctx, p, from)
		if err != nil {
			return fmt.Errorf("failed to transition proposal: %w", err)
		}
		if !ok {
			return &InvalidStateError{ProposalID: p.ID, From: from, To: p.Status}
		}
		meta := model.NewTransitionMetadata(from, p.Status)
		return appendAudit(ctx, tx, p.ID, in.SubmittedBy, model.ActionStatusChanged, in.Channel, in.Mechanism, "", meta, now)
	})
	if err != nil {
		return nil, wrapStoreErr("create proposal", err)
	}

	s.publish(ctx, events.TopicProposalCreated, events.ProposalCreated{Proposal: p})
	s.log.Info("proposal created", "id", p.ID, "case_number", p.CaseNumber, "circle", p.CircleID)
	return p, nil
}

// DecisionInput carries the actor and context for an approve or veto.
type DecisionInput struct {
	Actor     string `json:"actor"`
	Reason    string `json:"reason,omitempty"` // required for veto
	Channel   string `json:"channel,omitempty"`
	Mechanism string `json:"mechanism,omitempty"`
}

// ApproveProposal moves a listening proposal to approved. Concurrent
// deciders race on a compare-and-set of the status column; the loser gets
// an InvalidStateError and no audit event is written for the lost attempt.
func (s *ProposalService) ApproveProposal(ctx context.Context, id string, in DecisionInput) (*model.Proposal, error) {
	if in.Actor == "" {
		return nil, &model.ValidationError{Errors: []model.FieldError{{Field: "approved_by", Message: "is required"}}}
	}

	var p *model.Proposal
	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		var err error
		p, err = s.getForDecision(ctx, tx, id, model.StatusApproved)
		if err != nil {
			return err
		}

		now := s.now()
		from := p.Status
		p.Status = model.StatusApproved
		p.ApprovedBy = in.Actor
		p.ApprovedAt = &now
		p.UpdatedAt = now

		ok, err := tx.TransitionProposal(ctx, p, from)
		if err != nil {
			return fmt.Errorf("failed to approve proposal: %w", err)
		}
		if !ok {
			// Another decider committed first.
			return &InvalidStateError{ProposalID: p.ID, From: from, To: model.StatusApproved}
		}
		meta := model.NewTransitionMetadata(from, model.StatusApproved)
		return appendAudit(ctx, tx, p.ID, in.Actor, model.ActionApproved, in.Channel, in.Mechanism, in.Reason, meta, now)
	})
	if err != nil {
		return nil, wrapStoreErr("approve proposal", err)
	}

	s.publish(ctx, events.TopicProposalApproved, events.ProposalApproved{Proposal: p, ApprovedBy: in.Actor})
	s.log.Info("proposal approved", "id", p.ID, "case_number", p.CaseNumber, "by", in.Actor)
	return p, nil
}

// VetoProposal moves a listening proposal to vetoed. A non-empty reason is
// mandatory and becomes the "why" of the audit event.
func (s *ProposalService) VetoProposal(ctx context.Context, id string, in DecisionInput) (*model.Proposal, error) {
	var ve model.ValidationError
	if in.Actor == "" {
		ve.Errors = append(ve.Errors, model.FieldError{Field: "vetoed_by", Message: "is required"})
	}
	if in.Reason == "" {
		ve.Errors = append(ve.Errors, model.FieldError{Field: "veto_reason", Message: "is required"})
	}
	if ve.HasErrors() {
		return nil, &ve
	}

	var p *model.Proposal
	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		var err error
		p, err = s.getForDecision(ctx, tx, id, model.StatusVetoed)
		if err != nil {
			return err
		}

		now := s.now()
		from := p.Status
		p.Status = model.StatusVetoed
		p.VetoedBy = in.Actor
		p.VetoReason = in.Reason
		p.VetoedAt = &now
		p.UpdatedAt = now

		ok, err := tx.TransitionProposal(ctx, p, from)
		if err != nil {
			return fmt.Errorf("failed to veto proposal: %w", err)
		}
		if !ok {
			return &InvalidStateError{ProposalID: p.ID, From: from, To: model.StatusVetoed}
		}
		meta := model.NewTransitionMetadata(from, model.StatusVetoed)
		return appendAudit(ctx, tx, p.ID, in.Actor, model.ActionVetoed, in.Channel, in.Mechanism, in.Reason, meta, now)
	})
	if err != nil {
		return nil, wrapStoreErr("veto proposal", err)
	}

	s.publish(ctx, events.TopicProposalVetoed, events.ProposalVetoed{Proposal: p, VetoedBy: in.Actor, Reason: in.Reason})
	s.log.Info("proposal vetoed", "id", p.ID, "case_number", p.CaseNumber, "by", in.Actor)
	return p, nil
}

// GetProposal returns a proposal by ID.
func (s *ProposalService) GetProposal(ctx context.Context, id string) (*model.Proposal, error) {
	p, err := s.store.GetProposal(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{Kind: "proposal", ID: id}
		}
		return nil, wrapStoreErr("get proposal", err)
	}
	if p == nil {
		return nil, &NotFoundError{Kind: "proposal", ID: id}
	}
	return p, nil
}

// ListProposals returns proposals matching the filter plus the total count
// before pagination.
func (s *ProposalService) ListProposals(ctx context.Context, filter model.ProposalFilter) ([]*model.Proposal, int, error) {
	for _, st := range filter.Status {
		if !st.IsValid() {
			return nil, 0, &model.ValidationError{Errors: []model.FieldError{{
				Field:   "status",
				Message: fmt.Sprintf("invalid value %q", st),
			}}}
		}
	}
	proposals, total, err := s.store.ListProposals(ctx, filter)
	if err != nil {
		return nil, 0, wrapStoreErr("list proposals", err)
	}
	return proposals, total, nil
}

// ListAuditEvents returns the full trail for a proposal in insertion order.
func (s *ProposalService) ListAuditEvents(ctx context.Context, proposalID string) ([]*model.AuditEvent, error) {
	if _, err := s.GetProposal(ctx, proposalID); err != nil {
		return nil, err
	}
	evs, err := s.store.ListAuditEvents(ctx, proposalID)
	if err != nil {
		return nil, wrapStoreErr("list audit events", err)
	}
	return evs, nil
}

// getForDecision loads a proposal and checks it still permits the requested
// terminal transition.
func (s *ProposalService) getForDecision(ctx context.Context, tx store.Store, id string, to model.Status) (*model.Proposal, error) {
	p, err := tx.GetProposal(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{Kind: "proposal", ID: id}
		}
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}
	if p == nil {
		return nil, &NotFoundError{Kind: "proposal", ID: id}
	}
	if !p.Status.CanTransitionTo(to) {
		return nil, &InvalidStateError{ProposalID: p.ID, From: p.Status, To: to}
	}
	return p, nil
}

// publish emits an event best-effort after commit. The audit trail is the
// system of record; a bus failure is logged, not returned.
func (s *ProposalService) publish(ctx context.Context, topic string, event any) {
	if err := s.bus.Publish(ctx, topic, event); err != nil {
		s.log.Warn("failed to publish event", "topic", topic, "error", err)
	}
}
