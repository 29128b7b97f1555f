// Package export produces the compliance snapshot: every proposal with its
// full audit trail and variance data, serialized as JSONL for archival.
package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/alfredjeanlab/quorum/internal/model"
	"github.com/alfredjeanlab/quorum/internal/store"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version       string    `json:"version"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	ProposalCount int       `json:"proposal_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// proposalSnapshot bundles a proposal with its audit trail and variance data.
type proposalSnapshot struct {
	Proposal   *model.Proposal         `json:"proposal"`
	AuditTrail []*model.AuditEvent     `json:"audit_trail"`
	Variance   *model.VarianceSnapshot `json:"variance,omitempty"`
}

// ExportJSONL writes all proposals from the store as JSONL to w. Each
// proposal line embeds the complete audit trail and, when present, the
// variance record with its milestones. Proposals are sorted by case number
// so consecutive exports diff cleanly.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) error {
	proposals, _, err := s.ListProposals(ctx, model.ProposalFilter{Sort: "case_number"})
	if err != nil {
		return fmt.Errorf("list proposals: %w", err)
	}

	sort.Slice(proposals, func(i, j int) bool {
		return proposals[i].CaseNumber < proposals[j].CaseNumber
	})

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:       "1",
		Type:          "header",
		Timestamp:     time.Now().UTC(),
		ProposalCount: len(proposals),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, p := range proposals {
		snap := proposalSnapshot{Proposal: p}

		trail, err := s.ListAuditEvents(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("list audit events for %s: %w", p.ID, err)
		}
		snap.AuditTrail = trail

		v, err := s.GetVarianceByProposal(ctx, p.ID)
		if err != nil && !isNoRows(err) {
			return fmt.Errorf("get variance for %s: %w", p.ID, err)
		}
		if v != nil {
			milestones, err := s.ListMilestones(ctx, v.ID)
			if err != nil {
				return fmt.Errorf("list milestones for %s: %w", v.ID, err)
			}
			snap.Variance = &model.VarianceSnapshot{Record: v, Milestones: milestones}
		}

		if err := enc.Encode(record{Type: "proposal", Data: snap}); err != nil {
			return fmt.Errorf("encode proposal %s: %w", p.ID, err)
		}
	}

	return nil
}

// isNoRows reports whether err indicates a missing row rather than a failure.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
