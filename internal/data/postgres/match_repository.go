package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/careledger/careledger/internal/domain/reconciliation"
	"github.com/careledger/careledger/internal/domain/shared"
	"github.com/careledger/careledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const matchColumns = `id, tenant_id, transaction_id, bank_amount_cents, accounting_amount_cents, bank_description, payee_name, reference, status, is_fee_adjusted_match, accrued_fee_amount_cents, fee_type, created_at, updated_at`

// MatchRepository implements reconciliation.MatchRepository for PostgreSQL
type MatchRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewMatchRepository creates a new PostgreSQL bank statement match repository
func NewMatchRepository(logger *slog.Logger, db *persistence.PostgresDB) reconciliation.MatchRepository {
	return &MatchRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *MatchRepository) WithTx(tx pgx.Tx) reconciliation.MatchRepository {
	return &MatchRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func scanMatch(row pgx.Row) (*reconciliation.BankStatementMatch, error) {
	var m reconciliation.BankStatementMatch
	var feeType *string
	err := row.Scan(
		&m.ID,
		&m.TenantID,
		&m.TransactionID,
		&m.BankAmountCents,
		&m.AccountingAmountCents,
		&m.BankDescription,
		&m.PayeeName,
		&m.Reference,
		&m.Status,
		&m.IsFeeAdjustedMatch,
		&m.AccruedFeeAmountCents,
		&feeType,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if feeType != nil {
		ft := shared.FeeType(*feeType)
		m.FeeType = &ft
	}
	return &m, nil
}

// GetByID retrieves a bank statement match by its ID
func (r *MatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*reconciliation.BankStatementMatch, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM bank_statement_matches
		WHERE id = $1
	`

	m, err := scanMatch(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, reconciliation.ErrMatchNotFound{MatchID: id}
		}
		r.logger.Error("Failed to get bank statement match", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get bank statement match: %w", err)
	}

	return m, nil
}

// ListUnadjusted returns the tenant's matches that have not been
// fee-adjusted yet, oldest first so batch runs are deterministic.
func (r *MatchRepository) ListUnadjusted(ctx context.Context, tenantID uuid.UUID) ([]*reconciliation.BankStatementMatch, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM bank_statement_matches
		WHERE tenant_id = $1
		  AND is_fee_adjusted_match = FALSE
		ORDER BY created_at
	`

	rows, err := r.querier.Query(ctx, query, tenantID)
	if err != nil {
		r.logger.Error("Failed to list unadjusted matches", "tenant_id", tenantID.String(), "error", err)
		return nil, fmt.Errorf("failed to list unadjusted matches: %w", err)
	}
	defer rows.Close()

	var matches []*reconciliation.BankStatementMatch
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bank statement match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bank statement matches: %w", err)
	}

	return matches, nil
}

// MarkFeeAdjusted flips the match to its terminal fee-adjusted state.
// The WHERE clause refuses matches that are already adjusted, which makes
// re-running a correction a detectable no-op rather than a double write.
func (r *MatchRepository) MarkFeeAdjusted(ctx context.Context, id uuid.UUID, feeAmountCents int64, feeType string) error {
	query := `
		UPDATE bank_statement_matches
		SET is_fee_adjusted_match = TRUE,
		    accrued_fee_amount_cents = $1,
		    fee_type = $2,
		    status = $3,
		    updated_at = NOW()
		WHERE id = $4 AND is_fee_adjusted_match = FALSE
	`

	result, err := r.querier.Exec(ctx, query, feeAmountCents, feeType, string(shared.MatchStatusFeeAdjustedMatch), id)
	if err != nil {
		r.logger.Error("Failed to mark match fee-adjusted", "id", id.String(), "error", err)
		return fmt.Errorf("failed to mark match fee-adjusted: %w", err)
	}

	if result.RowsAffected() == 0 {
		return reconciliation.ErrMatchAlreadyAdjusted{MatchID: id}
	}

	return nil
}
