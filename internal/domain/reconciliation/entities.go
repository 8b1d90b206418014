package reconciliation

import (
	"time"

	"github.com/careledger/careledger/internal/domain/shared"
	"github.com/google/uuid"
)

// LedgerTransaction is the authoritative ledger record. The correction
// engine may rewrite its amount exactly once per match, from the GROSS
// (accounting-system) figure to the NET (bank-cleared) figure, preserving
// the sign convention: amounts hold magnitudes in cents and IsDebit
// carries the direction.
type LedgerTransaction struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	IsDebit     bool      `json:"is_debit"`
	IsDeleted   bool      `json:"is_deleted"`
	OccurredAt  time.Time `json:"occurred_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BankStatementMatch pairs one bank-reported line with one
// accounting-system record. Once IsFeeAdjustedMatch is set the match is
// terminal for the correction engine and is never reprocessed.
type BankStatementMatch struct {
	ID                    uuid.UUID          `json:"id"`
	TenantID              uuid.UUID          `json:"tenant_id"`
	TransactionID         uuid.UUID          `json:"transaction_id"`
	BankAmountCents       int64              `json:"bank_amount_cents"`       // NET: what cleared the bank
	AccountingAmountCents int64              `json:"accounting_amount_cents"` // GROSS: what the accounting system recorded
	BankDescription       string             `json:"bank_description"`
	PayeeName             string             `json:"payee_name"`
	Reference             string             `json:"reference"`
	Status                shared.MatchStatus `json:"status"`
	IsFeeAdjustedMatch    bool               `json:"is_fee_adjusted_match"`
	AccruedFeeAmountCents int64              `json:"accrued_fee_amount_cents"`
	FeeType               *shared.FeeType    `json:"fee_type,omitempty"`
	CreatedAt             time.Time          `json:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at"`
}

// AccruedBankCharge is one fee hypothesis extracted during a correction.
// Created only by the correction applier; flipped to SETTLED only by
// monthly aggregation.
type AccruedBankCharge struct {
	ID                    uuid.UUID           `json:"id"`
	TenantID              uuid.UUID           `json:"tenant_id"`
	SourceTransactionID   uuid.UUID           `json:"source_transaction_id"`
	BankStatementMatchID  uuid.UUID           `json:"bank_statement_match_id"`
	AccruedAmountCents    int64               `json:"accrued_amount_cents"`
	FeeType               shared.FeeType      `json:"fee_type"`
	Status                shared.ChargeStatus `json:"status"`
	AccountingAmountCents int64               `json:"accounting_amount_cents"` // GROSS figure at correction time, for traceability
	CreatedAt             time.Time           `json:"created_at"`
	SettledAt             *time.Time          `json:"settled_at,omitempty"`
}

// RunReport is the persisted summary of one reconciliation run, kept for
// operational history.
type RunReport struct {
	ID              uuid.UUID `bson:"id" json:"id"`
	TenantID        uuid.UUID `bson:"tenant_id" json:"tenant_id"`
	Mode            RunMode   `bson:"mode" json:"mode"`
	ActingUserID    string    `bson:"acting_user_id" json:"acting_user_id"`
	TotalMatches    int       `bson:"total_matches" json:"total_matches"`
	Corrected       int       `bson:"corrected" json:"corrected"`
	Skipped         int       `bson:"skipped" json:"skipped"`
	Failed          int       `bson:"failed" json:"failed"`
	TotalFeesCents  int64     `bson:"total_fees_cents" json:"total_fees_cents"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
}

// RunMode distinguishes the reconciliation flavors recorded in run history
type RunMode string

const (
	RunModePreview RunMode = "PREVIEW"
	RunModeApply   RunMode = "APPLY"
	RunModeMonthly RunMode = "MONTHLY"
)
