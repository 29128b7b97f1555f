// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/alfredjeanlab/quorum/internal/model"
	"github.com/alfredjeanlab/quorum/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) CreateProposal(ctx context.Context, p *model.Proposal) error {
	return queryCreateProposal(ctx, s.db, p)
}

func (s *PostgresStore) GetProposal(ctx context.Context, id string) (*model.Proposal, error) {
	return queryGetProposal(ctx, s.db, id)
}

func (s *PostgresStore) ListProposals(ctx context.Context, filter model.ProposalFilter) ([]*model.Proposal, int, error) {
	return queryListProposals(ctx, s.db, filter)
}

func (s *PostgresStore) TransitionProposal(ctx context.Context, p *model.Proposal, expect model.Status) (bool, error) {
	return queryTransitionProposal(ctx, s.db, p, expect)
}

func (s *PostgresStore) LockCaseYear(ctx context.Context, year int) error {
	return queryLockCaseYear(ctx, s.db, year)
}

func (s *PostgresStore) ListCaseNumbers(ctx context.Context, prefix string) ([]string, error) {
	return queryListCaseNumbers(ctx, s.db, prefix)
}

func (s *PostgresStore) AppendAuditEvent(ctx context.Context, e *model.AuditEvent) error {
	return queryAppendAuditEvent(ctx, s.db, e)
}

func (s *PostgresStore) ListAuditEvents(ctx context.Context, subjectID string) ([]*model.AuditEvent, error) {
	return queryListAuditEvents(ctx, s.db, subjectID)
}

func (s *PostgresStore) CreateVariance(ctx context.Context, v *model.VarianceRecord) error {
	return queryCreateVariance(ctx, s.db, v)
}

func (s *PostgresStore) GetVarianceByProposal(ctx context.Context, proposalID string) (*model.VarianceRecord, error) {
	return queryGetVarianceByProposal(ctx, s.db, proposalID)
}

func (s *PostgresStore) UpdateVariance(ctx context.Context, v *model.VarianceRecord) error {
	return queryUpdateVariance(ctx, s.db, v)
}

func (s *PostgresStore) CreateMilestone(ctx context.Context, m *model.Milestone) error {
	return queryCreateMilestone(ctx, s.db, m)
}

func (s *PostgresStore) GetMilestone(ctx context.Context, id string) (*model.Milestone, error) {
	return queryGetMilestone(ctx, s.db, id)
}

func (s *PostgresStore) UpdateMilestone(ctx context.Context, m *model.Milestone) error {
	return queryUpdateMilestone(ctx, s.db, m)
}

func (s *PostgresStore) ListMilestones(ctx context.Context, varianceID string) ([]*model.Milestone, error) {
	return queryListMilestones(ctx, s.db, varianceID)
}

// RunInTransaction begins a database transaction, creates a txStore that
// delegates to it, calls fn, and commits on success or rolls back on error.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txS := &txStore{tx: tx}
	if err := fn(txS); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore implements store.Store using a *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

// Compile-time check that txStore implements store.Store.
var _ store.Store = (*txStore)(nil)

func (s *txStore) CreateProposal(ctx context.Context, p *model.Proposal) error {
	return queryCreateProposal(ctx, s.tx, p)
}

func (s *txStore) GetProposal(ctx context.Context, id string) (*model.Proposal, error) {
	return queryGetProposal(ctx, s.tx, id)
}

func (s *txStore) ListProposals(ctx context.Context, filter model.ProposalFilter) ([]*model.Proposal, int, error) {
	return queryListProposals(ctx, s.tx, filter)
}

func (s *txStore) TransitionProposal(ctx context.Context, p *model.Proposal, expect model.Status) (bool, error) {
	return queryTransitionProposal(ctx, s.tx, p, expect)
}

func (s *txStore) LockCaseYear(ctx context.Context, year int) error {
	return queryLockCaseYear(ctx, s.tx, year)
}

func (s *txStore) ListCaseNumbers(ctx context.Context, prefix string) ([]string, error) {
	return queryListCaseNumbers(ctx, s.tx, prefix)
}

func (s *txStore) AppendAuditEvent(ctx context.Context, e *model.AuditEvent) error {
	return queryAppendAuditEvent(ctx, s.tx, e)
}

func (s *txStore) ListAuditEvents(ctx context.Context, subjectID string) ([]*model.AuditEvent, error) {
	return queryListAuditEvents(ctx, s.tx, subjectID)
}

func (s *txStore) CreateVariance(ctx context.Context, v *model.VarianceRecord) error {
	return queryCreateVariance(ctx, s.tx, v)
}

func (s *txStore) GetVarianceByProposal(ctx context.Context, proposalID string) (*model.VarianceRecord, error) {
	return queryGetVarianceByProposal(ctx, s.tx, proposalID)
}

func (s *txStore) UpdateVariance(ctx context.Context, v *model.VarianceRecord) error {
	return queryUpdateVariance(ctx, s.tx, v)
}

func (s *txStore) CreateMilestone(ctx context.Context, m *model.Milestone) error {
	return queryCreateMilestone(ctx, s.tx, m)
}

func (s *txStore) GetMilestone(ctx context.Context, id string) (*model.Milestone, error) {
	return queryGetMilestone(ctx, s.tx, id)
}

func (s *txStore) UpdateMilestone(ctx context.Context, m *model.Milestone) error {
	return queryUpdateMilestone(ctx, s.tx, m)
}

func (s *txStore) ListMilestones(ctx context.Context, varianceID string) ([]*model.Milestone, error) {
	return queryListMilestones(ctx, s.tx, varianceID)
}

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Close is a no-op for a transaction store; the parent store owns the connection.
func (s *txStore) Close() error {
	return nil
}
