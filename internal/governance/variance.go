package governance

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alfredjeanlab/quorum/internal/events"
	"github.com/alfredjeanlab/quorum/internal/idgen"
	"github.com/alfredjeanlab/quorum/internal/model"
	"github.com/alfredjeanlab/quorum/internal/store"
)

// VarianceService maintains the budgeted/planned/actual triad for proposals
// and the milestone checkpoints underneath it. Derived variance figures are
// recomputed server-side on every write; clients never supply them.
type VarianceService struct {
	store store.Store
	bus   events.Publisher
	log   *slog.Logger

	now func() time.Time // injected for tests
}

// NewVarianceService wires a variance service.
func NewVarianceService(s store.Store, bus events.Publisher, log *slog.Logger) *VarianceService {
	if bus == nil {
		bus = &events.NoopPublisher{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &VarianceService{
		store: s,
		bus:   bus,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// CreateBudgetInput holds parameters for establishing a proposal's budget
// baseline. Case number and stencil are denormalized from the proposal.
type CreateBudgetInput struct {
	BudgetedTotal     float64         `json:"budgeted_total"`
	BudgetedBreakdown json.RawMessage `json:"budgeted_breakdown,omitempty"`
	BudgetedBy        string          `json:"budgeted_by"`
	Channel           string          `json:"channel,omitempty"`
	Mechanism         string          `json:"mechanism,omitempty"`
}

// CreateBudget creates the single variance record for a proposal. A second
// call for the same proposal returns DuplicateError.
func (s *VarianceService) CreateBudget(ctx context.Context, proposalID string, in CreateBudgetInput) (*model.VarianceRecord, error) {
	var ve model.ValidationError
	if in.BudgetedTotal <= 0 {
		ve.Errors = append(ve.Errors, model.FieldError{Field: "budgeted_total", Message: "must be positive"})
	}
	if in.BudgetedBy == "" {
		ve.Errors = append(ve.Errors, model.FieldError{Field: "budgeted_by", Message: "is required"})
	}
	if ve.HasErrors() {
		return nil, &ve
	}

	id, err := idgen.Generate(idgen.PrefixVariance)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ID: %w", err)
	}

	var v *model.VarianceRecord
	err = s.store.RunInTransaction(ctx, func(tx store.Store) error {
		p, err := getProposal(ctx, tx, proposalID)
		if err != nil {
			return err
		}
		existing, err := getVariance(ctx, tx, proposalID)
		if err != nil {
			return err
		}
		if existing != nil {
			return &DuplicateError{ProposalID: proposalID}
		}

		now := s.now()
		v = &model.VarianceRecord{
			ID:                id,
			ProposalID:        p.ID,
			CaseNumber:        p.CaseNumber,
			StencilID:         p.StencilID,
			BudgetedTotal:     in.BudgetedTotal,
			BudgetedBreakdown: in.BudgetedBreakdown,
			BudgetedBy:        in.BudgetedBy,
			BudgetedAt:        now,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := tx.CreateVariance(ctx, v); err != nil {
			return fmt.Errorf("failed to create variance record: %w", err)
		}

		meta, _ := json.Marshal(map[string]any{"budgeted_total": in.BudgetedTotal})
		return appendAudit(ctx, tx, p.ID, in.BudgetedBy, model.ActionBudgetCreated, in.Channel, in.Mechanism, "", meta, now)
	})
	if err != nil {
		return nil, wrapStoreErr("create budget", err)
	}

	s.publish(ctx, events.TopicBudgetCreated, events.BudgetCreated{Variance: v})
	s.log.Info("budget created", "proposal", proposalID, "case_number", v.CaseNumber, "total", v.BudgetedTotal)
	return v, nil
}

// UpdateVarianceInput carries partial updates to a variance record. Nil
// pointers leave the stored value untouched.
type UpdateVarianceInput struct {
	UpdatedBy string `json:"updated_by"`

	PlannedTotal   *float64        `json:"planned_total,omitempty"`
	PlannedMetrics json.RawMessage `json:"planned_metrics,omitempty"`
	PlannedNotes   *string         `json:"planned_notes,omitempty"`

	ActualTotal     *float64        `json:"actual_total,omitempty"`
	ActualBreakdown json.RawMessage `json:"actual_breakdown,omitempty"`
	ActualMetrics   json.RawMessage `json:"actual_metrics,omitempty"`

	VarianceReason *string `json:"variance_reason,omitempty"`

	Channel   string `json:"channel,omitempty"`
	Mechanism string `json:"mechanism,omitempty"`
}

// UpdateVariance applies the supplied fields to a proposal's variance
// record. Supplying a planned total stamps planned_at; supplying an actual
// total stamps last_actual_at and bumps the review count. Variance figures
// are recomputed whenever an actual total is on record.
func (s *VarianceService) UpdateVariance(ctx context.Context, proposalID string, in UpdateVarianceInput) (*model.VarianceRecord, error) {
	if in.UpdatedBy == "" {
		return nil, &model.ValidationError{Errors: []model.FieldError{{Field: "updated_by", Message: "is required"}}}
	}

	var v *model.VarianceRecord
	changes := map[string]any{}
	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		var err error
		v, err = getVariance(ctx, tx, proposalID)
		if err != nil {
			return err
		}
		if v == nil {
			return &NotFoundError{Kind: "variance record", ID: proposalID}
		}

		now := s.now()
		if in.PlannedTotal != nil {
			v.PlannedTotal = in.PlannedTotal
			v.PlannedAt = &now
			changes["planned_total"] = *in.PlannedTotal
		}
		if len(in.PlannedMetrics) > 0 {
			v.PlannedMetrics = in.PlannedMetrics
			changes["planned_metrics"] = json.RawMessage(in.PlannedMetrics)
		}
		if in.PlannedNotes != nil {
			v.PlannedNotes = *in.PlannedNotes
			changes["planned_notes"] = *in.PlannedNotes
		}
		if in.ActualTotal != nil {
			v.ActualTotal = in.ActualTotal
			v.LastActualAt = &now
			v.ActualReviewCount++
			changes["actual_total"] = *in.ActualTotal
		}
		if len(in.ActualBreakdown) > 0 {
			v.ActualBreakdown = in.ActualBreakdown
			changes["actual_breakdown"] = json.RawMessage(in.ActualBreakdown)
		}
		if len(in.ActualMetrics) > 0 {
			v.ActualMetrics = in.ActualMetrics
			changes["actual_metrics"] = json.RawMessage(in.ActualMetrics)
		}
		if in.VarianceReason != nil {
			v.VarianceReason = *in.VarianceReason
			changes["variance_reason"] = *in.VarianceReason
		}
		if len(changes) == 0 {
			return &model.ValidationError{Errors: []model.FieldError{{Field: "update", Message: "no fields supplied"}}}
		}

		v.Recompute()
		v.UpdatedAt = now
		if err := tx.UpdateVariance(ctx, v); err != nil {
			return fmt.Errorf("failed to update variance record: %w", err)
		}

		meta, _ := json.Marshal(changes)
		return appendAudit(ctx, tx, v.ProposalID, in.UpdatedBy, model.ActionVarianceUpdated, in.Channel, in.Mechanism, "", meta, now)
	})
	if err != nil {
		return nil, wrapStoreErr("update variance", err)
	}

	s.publish(ctx, events.TopicVarianceUpdated, events.VarianceUpdated{Variance: v, Changes: changes})
	return v, nil
}

// CreateMilestoneInput holds parameters for a new milestone checkpoint.
type CreateMilestoneInput struct {
	Key           string    `json:"milestone_key"`
	Label         string    `json:"milestone_label"`
	ScheduledDate time.Time `json:"scheduled_date"`

	BudgetToDate *float64 `json:"budget_to_date,omitempty"`
	Notes        string   `json:"notes,omitempty"`

	CreatedBy string `json:"created_by"`
	Channel   string `json:"channel,omitempty"`
	Mechanism string `json:"mechanism,omitempty"`
}

// CreateMilestone adds a milestone under a proposal's variance record. The
// record must already exist; milestone keys are unique per record.
func (s *VarianceService) CreateMilestone(ctx context.Context, proposalID string, in CreateMilestoneInput) (*model.Milestone, error) {
	var ve model.ValidationError
	if in.Key == "" {
		ve.Errors = append(ve.Errors, model.FieldError{Field: "milestone_key", Message: "is required"})
	}
	if in.Label == "" {
		ve.Errors = append(ve.Errors, model.FieldError{Field: "milestone_label", Message: "is required"})
	}
	if in.ScheduledDate.IsZero() {
		ve.Errors = append(ve.Errors, model.FieldError{Field: "scheduled_date", Message: "is required"})
	}
	if in.CreatedBy == "" {
		ve.Errors = append(ve.Errors, model.FieldError{Field: "created_by", Message: "is required"})
	}
	if ve.HasErrors() {
		return nil, &ve
	}

	id, err := idgen.Generate(idgen.PrefixMilestone)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ID: %w", err)
	}

	var m *model.Milestone
	err = s.store.RunInTransaction(ctx, func(tx store.Store) error {
		v, err := getVariance(ctx, tx, proposalID)
		if err != nil {
			return err
		}
		if v == nil {
			return &NotFoundError{Kind: "variance record", ID: proposalID}
		}

		now := s.now()
		m = &model.Milestone{
			ID:            id,
			VarianceID:    v.ID,
			Key:           in.Key,
			Label:         in.Label,
			ScheduledDate: in.ScheduledDate,
			BudgetToDate:  in.BudgetToDate,
			Notes:         in.Notes,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.CreateMilestone(ctx, m); err != nil {
			return fmt.Errorf("failed to create milestone: %w", err)
		}

		meta, _ := json.Marshal(map[string]any{"milestone_key": in.Key})
		return appendAudit(ctx, tx, v.ProposalID, in.CreatedBy, model.ActionMilestoneCreated, in.Channel, in.Mechanism, "", meta, now)
	})
	if err != nil {
		return nil, wrapStoreErr("create milestone", err)
	}

	s.publish(ctx, events.TopicMilestoneCreated, events.MilestoneCreated{Milestone: m})
	return m, nil
}

// UpdateMilestoneInput carries partial updates to a milestone. Supplying
// ReviewedBy stamps reviewed_at.
type UpdateMilestoneInput struct {
	UpdatedBy string `json:"updated_by"`

	ActualDate   *time.Time `json:"actual_date,omitempty"`
	BudgetToDate *float64   `json:"budget_to_date,omitempty"`
	ActualToDate *float64   `json:"actual_to_date,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
	ReviewedBy   string     `json:"reviewed_by,omitempty"`

	Channel   string `json:"channel,omitempty"`
	Mechanism string `json:"mechanism,omitempty"`
}

// UpdateMilestone applies the supplied fields and recomputes the to-date
// variance when both to-date figures are present.
func (s *VarianceService) UpdateMilestone(ctx context.Context, milestoneID string, in UpdateMilestoneInput) (*model.Milestone, error) {
	if in.UpdatedBy == "" {
		return nil, &model.ValidationError{Errors: []model.FieldError{{Field: "updated_by", Message: "is required"}}}
	}

	var m *model.Milestone
	changes := map[string]any{}
	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		var err error
		m, err = tx.GetMilestone(ctx, milestoneID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return &NotFoundError{Kind: "milestone", ID: milestoneID}
			}
			return fmt.Errorf("failed to get milestone: %w", err)
		}
		if m == nil {
			return &NotFoundError{Kind: "milestone", ID: milestoneID}
		}

		now := s.now()
		if in.ActualDate != nil {
			m.ActualDate = in.ActualDate
			changes["actual_date"] = *in.ActualDate
		}
		if in.BudgetToDate != nil {
			m.BudgetToDate = in.BudgetToDate
			changes["budget_to_date"] = *in.BudgetToDate
		}
		if in.ActualToDate != nil {
			m.ActualToDate = in.ActualToDate
			changes["actual_to_date"] = *in.ActualToDate
		}
		if in.Notes != nil {
			m.Notes = *in.Notes
			changes["notes"] = *in.Notes
		}
		if in.ReviewedBy != "" {
			m.ReviewedBy = in.ReviewedBy
			m.ReviewedAt = &now
			changes["reviewed_by"] = in.ReviewedBy
		}
		if len(changes) == 0 {
			return &model.ValidationError{Errors: []model.FieldError{{Field: "update", Message: "no fields supplied"}}}
		}

		m.Recompute()
		m.UpdatedAt = now
		if err := tx.UpdateMilestone(ctx, m); err != nil {
			return fmt.Errorf("failed to update milestone: %w", err)
		}

		meta, _ := json.Marshal(changes)
		return appendAudit(ctx, tx, m.VarianceID, in.UpdatedBy, model.ActionMilestoneUpdated, in.Channel, in.Mechanism, "", meta, now)
	})
	if err != nil {
		return nil, wrapStoreErr("update milestone", err)
	}

	s.publish(ctx, events.TopicMilestoneUpdated, events.MilestoneUpdated{Milestone: m, Changes: changes})
	return m, nil
}

// GetVarianceData returns a proposal's variance record with its milestones
// ordered by scheduled date. Returns (nil, nil) when the proposal exists
// but has no variance record yet.
func (s *VarianceService) GetVarianceData(ctx context.Context, proposalID string) (*model.VarianceSnapshot, error) {
	if _, err := getProposal(ctx, s.store, proposalID); err != nil {
		return nil, wrapStoreErr("get variance data", err)
	}
	v, err := getVariance(ctx, s.store, proposalID)
	if err != nil {
		return nil, wrapStoreErr("get variance data", err)
	}
	if v == nil {
		return nil, nil
	}
	milestones, err := s.store.ListMilestones(ctx, v.ID)
	if err != nil {
		return nil, wrapStoreErr("get variance data", err)
	}
	return &model.VarianceSnapshot{Record: v, Milestones: milestones}, nil
}

func (s *VarianceService) publish(ctx context.Context, topic string, event any) {
	if err := s.bus.Publish(ctx, topic, event); err != nil {
		s.log.Warn("failed to publish event", "topic", topic, "error", err)
	}
}

// getProposal loads a proposal, translating absence into NotFoundError.
func getProposal(ctx context.Context, s store.Store, id string) (*model.Proposal, error) {
	p, err := s.GetProposal(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{Kind: "proposal", ID: id}
		}
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}
	if p == nil {
		return nil, &NotFoundError{Kind: "proposal", ID: id}
	}
	return p, nil
}

// getVariance loads a proposal's variance record; absence is (nil, nil).
func getVariance(ctx context.Context, s store.Store, proposalID string) (*model.VarianceRecord, error) {
	v, err := s.GetVarianceByProposal(ctx, proposalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get variance record: %w", err)
	}
	return v, nil
}

// appendAudit writes one audit event inside the caller's transaction.
func appendAudit(ctx context.Context, tx store.Store, subjectID, who string, what model.AuditAction, channel, mechanism, why string, metadata json.RawMessage, now time.Time) error {
	id, err := idgen.Generate(idgen.PrefixAudit)
	if err != nil {
		return fmt.Errorf("failed to generate audit ID: %w", err)
	}
	e := &model.AuditEvent{
		ID:        id,
		SubjectID: subjectID,
		Who:       who,
		What:      what,
		Where:     channel,
		How:       mechanism,
		Why:       why,
		Metadata:  metadata,
		CreatedAt: now,
	}
	if err := tx.AppendAuditEvent(ctx, e); err != nil {
		return fmt.Errorf("failed to append audit event: %w", err)
	}
	return nil
}
