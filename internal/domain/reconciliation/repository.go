package reconciliation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepository defines ledger transaction persistence operations
type TransactionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*LedgerTransaction, error)

	// UpdateAmount rewrites the transaction amount; used by the correction
	// applier to replace the GROSS figure with the NET one.
	UpdateAmount(ctx context.Context, id uuid.UUID, amountCents int64) error

	// FindFeeCandidates returns non-deleted debit transactions in the window
	// whose description looks like a bank fee line.
	FindFeeCandidates(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]*LedgerTransaction, error)

	WithTx(tx pgx.Tx) TransactionRepository
}

// MatchRepository defines bank statement match persistence operations
type MatchRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*BankStatementMatch, error)

	// ListUnadjusted returns the tenant's matches with is_fee_adjusted_match = false
	ListUnadjusted(ctx context.Context, tenantID uuid.UUID) ([]*BankStatementMatch, error)

	// MarkFeeAdjusted flips the match to its terminal fee-adjusted state.
	// The guarded UPDATE refuses to touch an already adjusted match.
	MarkFeeAdjusted(ctx context.Context, id uuid.UUID, feeAmountCents int64, feeType string) error

	WithTx(tx pgx.Tx) MatchRepository
}

// ChargeRepository defines accrued bank charge persistence operations
type ChargeRepository interface {
	Create(ctx context.Context, charge *AccruedBankCharge) error

	// ListAccrued returns the tenant's charges still in ACCRUED status
	ListAccrued(ctx context.Context, tenantID uuid.UUID) ([]*AccruedBankCharge, error)

	// Settle flips a single charge to SETTLED. Monthly aggregation settles
	// contributing charges one row at a time so a partial failure leaves an
	// identifiable residue.
	Settle(ctx context.Context, id uuid.UUID) error

	WithTx(tx pgx.Tx) ChargeRepository
}

// RunReportRepository stores reconciliation run history
type RunReportRepository interface {
	Create(ctx context.Context, report *RunReport) error
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*RunReport, error)
}

// ErrTransactionNotFound indicates a missing ledger transaction
type ErrTransactionNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrTransactionNotFound) Error() string {
	return "ledger transaction not found: " + e.TransactionID.String()
}

// ErrMatchNotFound indicates a missing bank statement match
type ErrMatchNotFound struct {
	MatchID uuid.UUID
}

func (e ErrMatchNotFound) Error() string {
	return "bank statement match not found: " + e.MatchID.String()
}

// ErrMatchAlreadyAdjusted indicates an attempt to re-correct a terminal match
type ErrMatchAlreadyAdjusted struct {
	MatchID uuid.UUID
}

func (e ErrMatchAlreadyAdjusted) Error() string {
	return "bank statement match already fee-adjusted: " + e.MatchID.String()
}

// ErrChargeNotFound indicates a missing accrued bank charge
type ErrChargeNotFound struct {
	ChargeID uuid.UUID
}

func (e ErrChargeNotFound) Error() string {
	return "accrued bank charge not found: " + e.ChargeID.String()
}
