package server

import (
	"log/slog"

	"github.com/alfredjeanlab/quorum/internal/events"
	"github.com/alfredjeanlab/quorum/internal/governance"
	"github.com/alfredjeanlab/quorum/internal/store"
)

// QuorumServer exposes the governance engine over HTTP.
type QuorumServer struct {
	store     store.Store
	proposals *governance.ProposalService
	variance  *governance.VarianceService
	log       *slog.Logger
}

// NewQuorumServer returns a server backed by the given store and publisher.
func NewQuorumServer(s store.Store, p events.Publisher, log *slog.Logger) *QuorumServer {
	if log == nil {
		log = slog.Default()
	}
	return &QuorumServer{
		store:     s,
		proposals: governance.NewProposalService(s, p, log),
		variance:  governance.NewVarianceService(s, p, log),
		log:       log,
	}
}
