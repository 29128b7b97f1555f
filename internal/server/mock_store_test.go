package server

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/alfredjeanlab/quorum/internal/model"
	"github.com/alfredjeanlab/quorum/internal/store"
)

// mockStore is an in-memory store for HTTP handler tests. Writes store
// copies so status compare-and-set behaves like the real store.
type mockStore struct {
	proposals  map[string]*model.Proposal
	audit      []*model.AuditEvent
	variances  map[string]*model.VarianceRecord // keyed by proposal ID
	milestones map[string]*model.Milestone
}

func newMockStore() *mockStore {
	return &mockStore{
		proposals:  make(map[string]*model.Proposal),
		variances:  make(map[string]*model.VarianceRecord),
		milestones: make(map[string]*model.Milestone),
	}
}

func (m *mockStore) CreateProposal(_ context.Context, p *model.Proposal) error {
	cp := *p
	m.proposals[p.ID] = &cp
	return nil
}

func (m *mockStore) GetProposal(_ context.Context, id string) (*model.Proposal, error) {
	p, ok := m.proposals[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (m *mockStore) ListProposals(_ context.Context, filter model.ProposalFilter) ([]*model.Proposal, int, error) {
	var result []*model.Proposal
	for _, p := range m.proposals {
		if len(filter.Status) > 0 {
			match := false
			for _, st := range filter.Status {
				if p.Status == st {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		if filter.CircleID != "" && p.CircleID != filter.CircleID {
			continue
		}
		cp := *p
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CaseNumber < result[j].CaseNumber
	})
	return result, len(result), nil
}

func (m *mockStore) TransitionProposal(_ context.Context, p *model.Proposal, expect model.Status) (bool, error) {
	stored, ok := m.proposals[p.ID]
	if !ok || stored.Status != expect {
		return false, nil
	}
	cp := *p
	m.proposals[p.ID] = &cp
	return true, nil
}

func (m *mockStore) LockCaseYear(context.Context, int) error { return nil }

func (m *mockStore) ListCaseNumbers(_ context.Context, prefix string) ([]string, error) {
	var numbers []string
	for _, p := range m.proposals {
		if strings.HasPrefix(p.CaseNumber, prefix) {
			numbers = append(numbers, p.CaseNumber)
		}
	}
	return numbers, nil
}

func (m *mockStore) AppendAuditEvent(_ context.Context, e *model.AuditEvent) error {
	cp := *e
	m.audit = append(m.audit, &cp)
	return nil
}

func (m *mockStore) ListAuditEvents(_ context.Context, subjectID string) ([]*model.AuditEvent, error) {
	var events []*model.AuditEvent
	for _, e := range m.audit {
		if e.SubjectID == subjectID {
			cp := *e
			events = append(events, &cp)
		}
	}
	return events, nil
}

func (m *mockStore) CreateVariance(_ context.Context, v *model.VarianceRecord) error {
	cp := *v
	m.variances[v.ProposalID] = &cp
	return nil
}

func (m *mockStore) GetVarianceByProposal(_ context.Context, proposalID string) (*model.VarianceRecord, error) {
	v, ok := m.variances[proposalID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *v
	return &cp, nil
}

func (m *mockStore) UpdateVariance(_ context.Context, v *model.VarianceRecord) error {
	cp := *v
	m.variances[v.ProposalID] = &cp
	return nil
}

func (m *mockStore) CreateMilestone(_ context.Context, ms *model.Milestone) error {
	cp := *ms
	m.milestones[ms.ID] = &cp
	return nil
}

func (m *mockStore) GetMilestone(_ context.Context, id string) (*model.Milestone, error) {
	ms, ok := m.milestones[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *ms
	return &cp, nil
}

func (m *mockStore) UpdateMilestone(_ context.Context, ms *model.Milestone) error {
	cp := *ms
	m.milestones[ms.ID] = &cp
	return nil
}

func (m *mockStore) ListMilestones(_ context.Context, varianceID string) ([]*model.Milestone, error) {
	var result []*model.Milestone
	for _, ms := range m.milestones {
		if ms.VarianceID == varianceID {
			cp := *ms
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ScheduledDate.Before(result[j].ScheduledDate)
	})
	return result, nil
}

func (m *mockStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *mockStore) Close() error { return nil }

var _ store.Store = (*mockStore)(nil)
