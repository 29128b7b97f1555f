package model

import (
	"encoding/json"
	"time"
)

// Status represents the current state of a proposal in its lifecycle.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusListening Status = "listening"
	StatusApproved  Status = "approved"
	StatusVetoed    Status = "vetoed"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsValid checks whether the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusListening, StatusApproved, StatusVetoed:
		return true
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusVetoed
}

// CanTransitionTo reports whether moving from s to next is a legal
// transition in the proposal lifecycle graph.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusDraft:
		return next == StatusListening
	case StatusListening:
		return next == StatusApproved || next == StatusVetoed
	}
	return false
}

// Proposal is a governed unit of business decision-making tracked from
// submission to approval or veto.
type Proposal struct {
	ID         string          `json:"id"`
	CaseNumber string          `json:"case_number"`
	StencilID  string          `json:"stencil_id"`
	CircleID   string          `json:"circle_id"`
	SubmittedBy string         `json:"submitted_by"`
	Status     Status          `json:"status"`
	Data       json.RawMessage `json:"data,omitempty"`

	ApprovedBy string     `json:"approved_by,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`

	VetoedBy   string     `json:"vetoed_by,omitempty"`
	VetoReason string     `json:"veto_reason,omitempty"`
	VetoedAt   *time.Time `json:"vetoed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
