package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/careledger/careledger/internal/domain/reconciliation"
	"github.com/careledger/careledger/internal/domain/shared"
	"github.com/careledger/careledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ChargeRepository implements reconciliation.ChargeRepository for PostgreSQL
type ChargeRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewChargeRepository creates a new PostgreSQL accrued bank charge repository
func NewChargeRepository(logger *slog.Logger, db *persistence.PostgresDB) reconciliation.ChargeRepository {
	return &ChargeRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *ChargeRepository) WithTx(tx pgx.Tx) reconciliation.ChargeRepository {
	return &ChargeRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new accrued bank charge
func (r *ChargeRepository) Create(ctx context.Context, charge *reconciliation.AccruedBankCharge) error {
	query := `
		INSERT INTO accrued_bank_charges (id, tenant_id, source_transaction_id, bank_statement_match_id, accrued_amount_cents, fee_type, status, accounting_amount_cents, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.querier.Exec(ctx, query,
		charge.ID,
		charge.TenantID,
		charge.SourceTransactionID,
		charge.BankStatementMatchID,
		charge.AccruedAmountCents,
		charge.FeeType,
		charge.Status,
		charge.AccountingAmountCents,
		charge.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create accrued bank charge", "error", err)
		return fmt.Errorf("failed to create accrued bank charge: %w", err)
	}

	return nil
}

// ListAccrued returns the tenant's charges still awaiting monthly settlement
func (r *ChargeRepository) ListAccrued(ctx context.Context, tenantID uuid.UUID) ([]*reconciliation.AccruedBankCharge, error) {
	query := `
		SELECT id, tenant_id, source_transaction_id, bank_statement_match_id, accrued_amount_cents, fee_type, status, accounting_amount_cents, created_at, settled_at
		FROM accrued_bank_charges
		WHERE tenant_id = $1 AND status = $2
		ORDER BY created_at
	`

	rows, err := r.querier.Query(ctx, query, tenantID, string(shared.ChargeStatusAccrued))
	if err != nil {
		r.logger.Error("Failed to list accrued charges", "tenant_id", tenantID.String(), "error", err)
		return nil, fmt.Errorf("failed to list accrued charges: %w", err)
	}
	defer rows.Close()

	var charges []*reconciliation.AccruedBankCharge
	for rows.Next() {
		var c reconciliation.AccruedBankCharge
		if err := rows.Scan(
			&c.ID,
			&c.TenantID,
			&c.SourceTransactionID,
			&c.BankStatementMatchID,
			&c.AccruedAmountCents,
			&c.FeeType,
			&c.Status,
			&c.AccountingAmountCents,
			&c.CreatedAt,
			&c.SettledAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan accrued bank charge: %w", err)
		}
		charges = append(charges, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read accrued bank charges: %w", err)
	}

	return charges, nil
}

// Settle flips a single charge from ACCRUED to SETTLED
func (r *ChargeRepository) Settle(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE accrued_bank_charges
		SET status = $1, settled_at = NOW()
		WHERE id = $2 AND status = $3
	`

	result, err := r.querier.Exec(ctx, query, string(shared.ChargeStatusSettled), id, string(shared.ChargeStatusAccrued))
	if err != nil {
		r.logger.Error("Failed to settle accrued bank charge", "id", id.String(), "error", err)
		return fmt.Errorf("failed to settle accrued bank charge: %w", err)
	}

	if result.RowsAffected() == 0 {
		return reconciliation.ErrChargeNotFound{ChargeID: id}
	}

	return nil
}
