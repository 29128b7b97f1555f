package model

import (
	"fmt"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ValidateProposal checks a Proposal for constraint violations.
// It returns a *ValidationError if any rules fail, or nil if the proposal is valid.
func ValidateProposal(p *Proposal) error {
	var ve ValidationError

	if strings.TrimSpace(p.StencilID) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "stencil_id", Message: "is required"})
	}
	if strings.TrimSpace(p.CircleID) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "circle_id", Message: "is required"})
	}
	if strings.TrimSpace(p.SubmittedBy) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "submitted_by", Message: "is required"})
	}
	if !p.Status.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "status",
			Message: fmt.Sprintf("invalid value %q", p.Status),
		})
	}

	// Decision fields are set if and only if the matching terminal status holds.
	if p.Status == StatusApproved {
		if p.ApprovedBy == "" || p.ApprovedAt == nil {
			ve.Errors = append(ve.Errors, FieldError{Field: "approved_by", Message: "must be set on an approved proposal"})
		}
	} else if p.ApprovedBy != "" || p.ApprovedAt != nil {
		ve.Errors = append(ve.Errors, FieldError{Field: "approved_by", Message: "must be empty unless status is approved"})
	}
	if p.Status == StatusVetoed {
		if p.VetoedBy == "" || p.VetoedAt == nil {
			ve.Errors = append(ve.Errors, FieldError{Field: "vetoed_by", Message: "must be set on a vetoed proposal"})
		}
		if strings.TrimSpace(p.VetoReason) == "" {
			ve.Errors = append(ve.Errors, FieldError{Field: "veto_reason", Message: "is required"})
		}
	} else if p.VetoedBy != "" || p.VetoedAt != nil || p.VetoReason != "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "vetoed_by", Message: "must be empty unless status is vetoed"})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
