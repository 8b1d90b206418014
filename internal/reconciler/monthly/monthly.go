// Package monthly settles accrued per-transaction bank charges against the
// lump-sum fee lines banks post once a month. Charges are grouped by fee
// type and each group is matched to a single fee-like ledger transaction
// whose amount falls within a small absolute tolerance of the group total.
package monthly

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/careledger/careledger/internal/domain/reconciliation"
	"github.com/careledger/careledger/internal/domain/shared"
	"github.com/google/uuid"
)

// SettlementToleranceCents allows the lump sum to differ from the accrued
// total by up to R1.00.
const SettlementToleranceCents = 100

// SettledGroup records one fee-type group matched to a ledger fee line
type SettledGroup struct {
	FeeType             shared.FeeType `json:"fee_type"`
	ChargeTransactionID uuid.UUID      `json:"charge_transaction_id"`
	MatchedAmountCents  int64          `json:"matched_amount_cents"`
	SettledCharges      int            `json:"settled_charges"`
}

// UnmatchedGroup records a fee-type group with no lump sum within tolerance
type UnmatchedGroup struct {
	FeeType            shared.FeeType `json:"fee_type"`
	AccruedAmountCents int64          `json:"accrued_amount_cents"`
}

// GroupError records a settlement failure for one fee-type group. Charges
// already settled before the failure stay settled; the residue is visible
// as remaining ACCRUED rows.
type GroupError struct {
	FeeType shared.FeeType `json:"fee_type"`
	Message string         `json:"message"`
}

// Result is the outcome of one monthly aggregation run
type Result struct {
	MatchedCount      int              `json:"matched_count"`
	TotalMatchedCents int64            `json:"total_matched_cents"`
	Matches           []SettledGroup   `json:"matches"`
	Unmatched         []UnmatchedGroup `json:"unmatched"`
	Errors            []GroupError     `json:"errors"`
}

// Aggregator matches accrued charge totals against lump-sum fee lines
type Aggregator struct {
	transactions reconciliation.TransactionRepository
	charges      reconciliation.ChargeRepository
	logger       *slog.Logger
}

// NewAggregator creates a monthly fee aggregator
func NewAggregator(transactions reconciliation.TransactionRepository, charges reconciliation.ChargeRepository, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		transactions: transactions,
		charges:      charges,
		logger:       logger,
	}
}

// Reconcile settles the tenant's accrued charges against fee-like debit
// transactions in the window. Each contributing charge is settled with its
// own update so a partial failure leaves an identifiable residue; a
// failure inside one group never aborts the others.
func (a *Aggregator) Reconcile(ctx context.Context, tenantID uuid.UUID, start, end time.Time) (*Result, error) {
	accrued, err := a.charges.ListAccrued(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load accrued charges: %w", err)
	}
	if len(accrued) == 0 {
		return &Result{}, nil
	}

	candidates, err := a.transactions.FindFeeCandidates(ctx, tenantID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load fee candidates: %w", err)
	}

	groups := make(map[shared.FeeType][]*reconciliation.AccruedBankCharge)
	for _, charge := range accrued {
		groups[charge.FeeType] = append(groups[charge.FeeType], charge)
	}

	feeTypes := make([]shared.FeeType, 0, len(groups))
	for feeType := range groups {
		feeTypes = append(feeTypes, feeType)
	}
	sort.Slice(feeTypes, func(i, j int) bool { return feeTypes[i] < feeTypes[j] })

	result := &Result{}
	consumed := make(map[uuid.UUID]bool)

	for _, feeType := range feeTypes {
		charges := groups[feeType]
		var total int64
		for _, charge := range charges {
			total += charge.AccruedAmountCents
		}

		candidate := findCandidate(candidates, consumed, total)
		if candidate == nil {
			result.Unmatched = append(result.Unmatched, UnmatchedGroup{
				FeeType:            feeType,
				AccruedAmountCents: total,
			})
			continue
		}
		consumed[candidate.ID] = true

		settledCount, err := a.settleGroup(ctx, charges)
		if err != nil {
			result.Errors = append(result.Errors, GroupError{FeeType: feeType, Message: err.Error()})
			a.logger.Error("Monthly settlement failed mid-group",
				"tenant_id", tenantID.String(),
				"fee_type", string(feeType),
				"settled", settledCount,
				"of", len(charges),
				"error", err,
			)
			continue
		}

		result.Matches = append(result.Matches, SettledGroup{
			FeeType:             feeType,
			ChargeTransactionID: candidate.ID,
			MatchedAmountCents:  total,
			SettledCharges:      settledCount,
		})
		result.MatchedCount++
		result.TotalMatchedCents += total
	}

	a.logger.Info("Monthly fee aggregation complete",
		"tenant_id", tenantID.String(),
		"matched_groups", result.MatchedCount,
		"unmatched_groups", len(result.Unmatched),
		"total_matched_cents", result.TotalMatchedCents,
	)

	return result, nil
}

// findCandidate returns the first unconsumed fee transaction within
// tolerance of the group total.
func findCandidate(candidates []*reconciliation.LedgerTransaction, consumed map[uuid.UUID]bool, totalCents int64) *reconciliation.LedgerTransaction {
	for _, tx := range candidates {
		if consumed[tx.ID] {
			continue
		}
		delta := tx.AmountCents - totalCents
		if delta < 0 {
			delta = -delta
		}
		if delta <= SettlementToleranceCents {
			return tx
		}
	}
	return nil
}

// settleGroup flips each charge individually and stops at the first
// failure, reporting how many updates landed before it.
func (a *Aggregator) settleGroup(ctx context.Context, charges []*reconciliation.AccruedBankCharge) (int, error) {
	for i, charge := range charges {
		if err := a.charges.Settle(ctx, charge.ID); err != nil {
			return i, fmt.Errorf("failed to settle charge %s: %w", charge.ID, err)
		}
	}
	return len(charges), nil
}
