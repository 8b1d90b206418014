// Package corrector applies accepted fee detections to the ledger: the
// transaction amount is rewritten to the bank-cleared NET figure, the fee
// is extracted into an accrued charge, and the match is sealed, all in one
// transaction. The audit trail is emitted after commit on a best-effort
// basis so financial-record correctness never depends on the audit sink.
package corrector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/careledger/careledger/internal/domain/audit"
	"github.com/careledger/careledger/internal/domain/reconciliation"
	"github.com/careledger/careledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TxRunner executes a function inside a database transaction. Satisfied by
// *persistence.PostgresDB.
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// ApplyParams carries everything one correction needs
type ApplyParams struct {
	TenantID              uuid.UUID
	MatchID               uuid.UUID
	TransactionID         uuid.UUID
	BankAmountCents       int64
	AccountingAmountCents int64
	FeeAmountCents        int64
	FeeType               shared.FeeType
	ActingUserID          string
}

// Correction reports one applied correction
type Correction struct {
	MatchID              uuid.UUID      `json:"match_id"`
	TransactionID        uuid.UUID      `json:"transaction_id"`
	PreviousAmountCents  int64          `json:"previous_amount_cents"`
	CorrectedAmountCents int64          `json:"corrected_amount_cents"`
	FeeAmountCents       int64          `json:"fee_amount_cents"`
	FeeType              shared.FeeType `json:"fee_type"`
	AccruedChargeID      uuid.UUID      `json:"accrued_charge_id"`
}

// Applier performs atomic fee corrections
type Applier struct {
	txRunner     TxRunner
	transactions reconciliation.TransactionRepository
	matches      reconciliation.MatchRepository
	charges      reconciliation.ChargeRepository
	auditSink    audit.Sink
	logger       *slog.Logger
}

// NewApplier creates a correction applier
func NewApplier(
	txRunner TxRunner,
	transactions reconciliation.TransactionRepository,
	matches reconciliation.MatchRepository,
	charges reconciliation.ChargeRepository,
	auditSink audit.Sink,
	logger *slog.Logger,
) *Applier {
	return &Applier{
		txRunner:     txRunner,
		transactions: transactions,
		matches:      matches,
		charges:      charges,
		auditSink:    auditSink,
		logger:       logger,
	}
}

// Apply rewrites the ledger transaction to the NET amount, accrues the fee
// and seals the match, atomically. The ledger transaction must exist and
// the match must not already be fee-adjusted.
func (a *Applier) Apply(ctx context.Context, params ApplyParams) (*Correction, error) {
	charge := &reconciliation.AccruedBankCharge{
		ID:                    uuid.New(),
		TenantID:              params.TenantID,
		SourceTransactionID:   params.TransactionID,
		BankStatementMatchID:  params.MatchID,
		AccruedAmountCents:    params.FeeAmountCents,
		FeeType:               params.FeeType,
		Status:                shared.ChargeStatusAccrued,
		AccountingAmountCents: params.AccountingAmountCents,
		CreatedAt:             time.Now().UTC(),
	}

	var previousAmountCents int64
	err := a.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		txRepo := a.transactions.WithTx(tx)
		matchRepo := a.matches.WithTx(tx)
		chargeRepo := a.charges.WithTx(tx)

		transaction, err := txRepo.GetByID(ctx, params.TransactionID)
		if err != nil {
			return err
		}
		previousAmountCents = transaction.AmountCents

		if err := txRepo.UpdateAmount(ctx, params.TransactionID, params.BankAmountCents); err != nil {
			return fmt.Errorf("failed to rewrite transaction amount: %w", err)
		}

		if err := chargeRepo.Create(ctx, charge); err != nil {
			return fmt.Errorf("failed to accrue bank charge: %w", err)
		}

		if err := matchRepo.MarkFeeAdjusted(ctx, params.MatchID, params.FeeAmountCents, string(params.FeeType)); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	a.logger.Info("Applied fee correction",
		"tenant_id", params.TenantID.String(),
		"match_id", params.MatchID.String(),
		"transaction_id", params.TransactionID.String(),
		"fee_cents", params.FeeAmountCents,
		"fee_type", string(params.FeeType),
	)

	a.emitAudit(ctx, params)

	return &Correction{
		MatchID:              params.MatchID,
		TransactionID:        params.TransactionID,
		PreviousAmountCents:  previousAmountCents,
		CorrectedAmountCents: params.BankAmountCents,
		FeeAmountCents:       params.FeeAmountCents,
		FeeType:              params.FeeType,
		AccruedChargeID:      charge.ID,
	}, nil
}

// emitAudit runs after the transaction has committed. A sink failure is
// logged and swallowed; the correction stands either way.
func (a *Applier) emitAudit(ctx context.Context, params ApplyParams) {
	event := audit.NewCorrectionEvent(
		params.TenantID,
		params.TransactionID,
		params.AccountingAmountCents,
		params.BankAmountCents,
		params.FeeAmountCents,
		string(params.FeeType),
		params.ActingUserID,
	)

	if err := a.auditSink.Emit(ctx, event); err != nil {
		a.logger.Error("Failed to emit correction audit event",
			"tenant_id", params.TenantID.String(),
			"transaction_id", params.TransactionID.String(),
			"error", err,
		)
	}
}
