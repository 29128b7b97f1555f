package model

import (
	"encoding/json"
	"time"
)

// AuditAction is the "what" of an audit event.
type AuditAction string

const (
	ActionCreated         AuditAction = "CREATED"
	ActionStatusChanged   AuditAction = "STATUS_CHANGED"
	ActionApproved        AuditAction = "APPROVED"
	ActionVetoed          AuditAction = "VETOED"
	ActionBudgetCreated   AuditAction = "BUDGET_CREATED"
	ActionVarianceUpdated AuditAction = "VARIANCE_UPDATED"
	ActionMilestoneCreated AuditAction = "MILESTONE_CREATED"
	ActionMilestoneUpdated AuditAction = "MILESTONE_UPDATED"
)

// String returns the string representation of the action.
func (a AuditAction) String() string {
	return string(a)
}

// AuditEvent is an immutable record of one accepted mutation, carrying
// actor, action, channel, mechanism, and justification. Events are
// append-only: the store exposes no update or delete for them.
type AuditEvent struct {
	ID        string          `json:"id"`
	SubjectID string          `json:"subject_id"`
	Who       string          `json:"who"`
	What      AuditAction     `json:"what"`
	Where     string          `json:"where,omitempty"`
	How       string          `json:"how,omitempty"`
	Why       string          `json:"why,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// TransitionMetadata is the structured detail attached to state-change events.
type TransitionMetadata struct {
	From Status `json:"from"`
	To   Status `json:"to"`
}

// NewTransitionMetadata marshals a {from, to} pair for an audit event.
// Marshaling a flat struct of two strings cannot fail.
func NewTransitionMetadata(from, to Status) json.RawMessage {
	raw, _ := json.Marshal(TransitionMetadata{From: from, To: to})
	return raw
}
