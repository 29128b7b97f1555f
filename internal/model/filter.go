package model

// ProposalFilter holds criteria for querying proposals.
type ProposalFilter struct {
	Status      []Status `json:"status,omitempty"`
	CircleID    string   `json:"circle_id,omitempty"`
	StencilID   string   `json:"stencil_id,omitempty"`
	SubmittedBy string   `json:"submitted_by,omitempty"`
	Sort        string   `json:"sort,omitempty"` // e.g. "-created_at", "case_number"; prefix "-" = descending
	Limit       int      `json:"limit,omitempty"`
	Offset      int      `json:"offset,omitempty"`
}
