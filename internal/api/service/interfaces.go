package service

import (
	"context"
	"time"

	"github.com/careledger/careledger/internal/domain/fees"
	"github.com/careledger/careledger/internal/domain/reconciliation"
	"github.com/careledger/careledger/internal/domain/shared"
	"github.com/careledger/careledger/internal/reconciler/batch"
	"github.com/careledger/careledger/internal/reconciler/detector"
	"github.com/careledger/careledger/internal/reconciler/monthly"
	"github.com/google/uuid"
)

// FeeConfigurationService defines the fee schedule operations exposed over
// HTTP. Satisfied by *feeconfig.Service.
type FeeConfigurationService interface {
	// Get resolves the tenant's effective configuration, falling back to
	// the generic bank preset when nothing is stored
	Get(ctx context.Context, tenantID uuid.UUID) (*fees.FeeConfiguration, error)

	// Update replaces the whole configuration; any validation violation
	// rejects the update wholesale
	Update(ctx context.Context, tenantID uuid.UUID, cfg *fees.FeeConfiguration) error

	// AddRule appends one rule to the tenant's configuration
	AddRule(ctx context.Context, tenantID uuid.UUID, rule fees.FeeRule) error

	// RemoveRule drops every rule with the given fee type
	RemoveRule(ctx context.Context, tenantID uuid.UUID, feeType shared.FeeType) error
}

// ReconciliationService defines the reconciliation operations exposed over
// HTTP. Run outcomes are recorded to run history on a best-effort basis.
type ReconciliationService interface {
	// PreviewCorrections reports what an apply run would do, without
	// mutating anything
	PreviewCorrections(ctx context.Context, tenantID uuid.UUID, actingUserID string) (*batch.Preview, error)

	// ApplyCorrections corrects every unresolved match the detector
	// accepts, isolating per-item failures
	ApplyCorrections(ctx context.Context, tenantID uuid.UUID, actingUserID string) (*batch.ApplyResult, error)

	// ReconcileMonthly settles accrued charges against lump-sum fee lines
	// posted in the window
	ReconcileMonthly(ctx context.Context, tenantID uuid.UUID, actingUserID string, start, end time.Time) (*monthly.Result, error)

	// Detect scores a single bank/accounting amount pair without mutating
	// anything
	Detect(ctx context.Context, tenantID uuid.UUID, bankAmountCents, accountingAmountCents int64, description, payeeName, reference string) (*detector.Result, error)

	// ListRuns returns the tenant's reconciliation run history, newest first
	ListRuns(ctx context.Context, tenantID uuid.UUID, page, perPage int) ([]*reconciliation.RunReport, error)
}
