// Package postgres provides PostgreSQL implementations of the
// reconciliation domain repositories. It handles all database operations
// while maintaining transaction safety and proper error handling for the
// fee correction engine.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/careledger/careledger/internal/domain/reconciliation"
	"github.com/careledger/careledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// feeDescriptionPattern is the heuristic the monthly aggregator uses to
// find candidate lump-sum fee lines in the ledger.
const feeDescriptionPattern = `(fee|charge|bank charges|service fee|monthly fee|transaction fee)`

// TransactionRepository implements reconciliation.TransactionRepository for PostgreSQL
type TransactionRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewTransactionRepository creates a new PostgreSQL ledger transaction repository
func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) reconciliation.TransactionRepository {
	return &TransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so the correction
// applier can perform the ledger rewrite atomically with its sibling writes.
func (r *TransactionRepository) WithTx(tx pgx.Tx) reconciliation.TransactionRepository {
	return &TransactionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// GetByID retrieves a ledger transaction by its ID
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*reconciliation.LedgerTransaction, error) {
	query := `
		SELECT id, tenant_id, description, amount_cents, is_debit, is_deleted, occurred_at, created_at, updated_at
		FROM transactions
		WHERE id = $1
	`

	var txn reconciliation.LedgerTransaction
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&txn.ID,
		&txn.TenantID,
		&txn.Description,
		&txn.AmountCents,
		&txn.IsDebit,
		&txn.IsDeleted,
		&txn.OccurredAt,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, reconciliation.ErrTransactionNotFound{TransactionID: id}
		}
		r.logger.Error("Failed to get ledger transaction", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get ledger transaction: %w", err)
	}

	return &txn, nil
}

// UpdateAmount rewrites the transaction amount. The correction applier
// calls this to make the NET figure authoritative.
func (r *TransactionRepository) UpdateAmount(ctx context.Context, id uuid.UUID, amountCents int64) error {
	query := `
		UPDATE transactions
		SET amount_cents = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.querier.Exec(ctx, query, amountCents, id)
	if err != nil {
		r.logger.Error("Failed to update transaction amount", "id", id.String(), "error", err)
		return fmt.Errorf("failed to update transaction amount: %w", err)
	}

	if result.RowsAffected() == 0 {
		return reconciliation.ErrTransactionNotFound{TransactionID: id}
	}

	return nil
}

// FindFeeCandidates returns non-deleted debit transactions in [start, end]
// whose description matches the fee-line heuristic.
func (r *TransactionRepository) FindFeeCandidates(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]*reconciliation.LedgerTransaction, error) {
	query := `
		SELECT id, tenant_id, description, amount_cents, is_debit, is_deleted, occurred_at, created_at, updated_at
		FROM transactions
		WHERE tenant_id = $1
		  AND is_debit = TRUE
		  AND is_deleted = FALSE
		  AND occurred_at >= $2
		  AND occurred_at <= $3
		  AND description ~* $4
		ORDER BY occurred_at
	`

	rows, err := r.querier.Query(ctx, query, tenantID, start, end, feeDescriptionPattern)
	if err != nil {
		r.logger.Error("Failed to query fee candidate transactions", "tenant_id", tenantID.String(), "error", err)
		return nil, fmt.Errorf("failed to query fee candidate transactions: %w", err)
	}
	defer rows.Close()

	var candidates []*reconciliation.LedgerTransaction
	for rows.Next() {
		var txn reconciliation.LedgerTransaction
		if err := rows.Scan(
			&txn.ID,
			&txn.TenantID,
			&txn.Description,
			&txn.AmountCents,
			&txn.IsDebit,
			&txn.IsDeleted,
			&txn.OccurredAt,
			&txn.CreatedAt,
			&txn.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan fee candidate transaction: %w", err)
		}
		candidates = append(candidates, &txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read fee candidate transactions: %w", err)
	}

	return candidates, nil
}
