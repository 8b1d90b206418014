package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/careledger/careledger/internal/domain/reconciliation"
	"github.com/careledger/careledger/internal/reconciler/batch"
	"github.com/careledger/careledger/internal/reconciler/detector"
	"github.com/careledger/careledger/internal/reconciler/monthly"
	"github.com/google/uuid"
)

// BatchRunner drives batch correction. Satisfied by *batch.Runner.
type BatchRunner interface {
	Preview(ctx context.Context, tenantID uuid.UUID) (*batch.Preview, error)
	Apply(ctx context.Context, tenantID uuid.UUID, actingUserID string) (*batch.ApplyResult, error)
}

// MonthlyAggregator settles accrued charges. Satisfied by *monthly.Aggregator.
type MonthlyAggregator interface {
	Reconcile(ctx context.Context, tenantID uuid.UUID, start, end time.Time) (*monthly.Result, error)
}

// MatchDetector scores one amount pair. Satisfied by *detector.Detector.
type MatchDetector interface {
	Detect(ctx context.Context, tenantID uuid.UUID, bankAmountCents, accountingAmountCents int64, description, payeeName, reference string) (*detector.Result, error)
}

// ReconciliationServiceImpl implements the ReconciliationService interface
type ReconciliationServiceImpl struct {
	runner     BatchRunner
	aggregator MonthlyAggregator
	detector   MatchDetector
	runReports reconciliation.RunReportRepository
	logger     *slog.Logger
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(
	logger *slog.Logger,
	runner BatchRunner,
	aggregator MonthlyAggregator,
	det MatchDetector,
	runReports reconciliation.RunReportRepository,
) ReconciliationService {
	return &ReconciliationServiceImpl{
		runner:     runner,
		aggregator: aggregator,
		detector:   det,
		runReports: runReports,
		logger:     logger,
	}
}

// PreviewCorrections runs the batch corrector in dry-run mode
func (s *ReconciliationServiceImpl) PreviewCorrections(ctx context.Context, tenantID uuid.UUID, actingUserID string) (*batch.Preview, error) {
	preview, err := s.runner.Preview(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	s.recordRun(ctx, &reconciliation.RunReport{
		ID:             uuid.New(),
		TenantID:       tenantID,
		Mode:           reconciliation.RunModePreview,
		ActingUserID:   actingUserID,
		TotalMatches:   preview.TotalMatches,
		Corrected:      0,
		Skipped:        len(preview.Skipped),
		Failed:         0,
		TotalFeesCents: preview.TotalFeesCents,
		CreatedAt:      time.Now().UTC(),
	})

	return preview, nil
}

// ApplyCorrections runs the batch corrector in apply mode
func (s *ReconciliationServiceImpl) ApplyCorrections(ctx context.Context, tenantID uuid.UUID, actingUserID string) (*batch.ApplyResult, error) {
	result, err := s.runner.Apply(ctx, tenantID, actingUserID)
	if err != nil {
		return nil, err
	}

	s.recordRun(ctx, &reconciliation.RunReport{
		ID:             uuid.New(),
		TenantID:       tenantID,
		Mode:           reconciliation.RunModeApply,
		ActingUserID:   actingUserID,
		TotalMatches:   result.TotalMatches,
		Corrected:      result.Corrected,
		Skipped:        len(result.Skipped),
		Failed:         len(result.Errors),
		TotalFeesCents: result.TotalFeesCents,
		CreatedAt:      time.Now().UTC(),
	})

	return result, nil
}

// ReconcileMonthly runs the monthly fee aggregator over the window
func (s *ReconciliationServiceImpl) ReconcileMonthly(ctx context.Context, tenantID uuid.UUID, actingUserID string, start, end time.Time) (*monthly.Result, error) {
	result, err := s.aggregator.Reconcile(ctx, tenantID, start, end)
	if err != nil {
		return nil, err
	}

	s.recordRun(ctx, &reconciliation.RunReport{
		ID:             uuid.New(),
		TenantID:       tenantID,
		Mode:           reconciliation.RunModeMonthly,
		ActingUserID:   actingUserID,
		TotalMatches:   result.MatchedCount,
		Corrected:      result.MatchedCount,
		Skipped:        len(result.Unmatched),
		Failed:         len(result.Errors),
		TotalFeesCents: result.TotalMatchedCents,
		CreatedAt:      time.Now().UTC(),
	})

	return result, nil
}

// Detect scores one amount pair without mutating anything
func (s *ReconciliationServiceImpl) Detect(ctx context.Context, tenantID uuid.UUID, bankAmountCents, accountingAmountCents int64, description, payeeName, reference string) (*detector.Result, error) {
	return s.detector.Detect(ctx, tenantID, bankAmountCents, accountingAmountCents, description, payeeName, reference)
}

// ListRuns returns the tenant's run history, newest first
func (s *ReconciliationServiceImpl) ListRuns(ctx context.Context, tenantID uuid.UUID, page, perPage int) ([]*reconciliation.RunReport, error) {
	offset := (page - 1) * perPage
	return s.runReports.ListByTenant(ctx, tenantID, perPage, offset)
}

// recordRun stores the run summary for operational history. A write
// failure is logged and swallowed; run history never blocks a result.
func (s *ReconciliationServiceImpl) recordRun(ctx context.Context, report *reconciliation.RunReport) {
	if err := s.runReports.Create(ctx, report); err != nil {
		s.logger.Error("Failed to record reconciliation run",
			"tenant_id", report.TenantID.String(),
			"mode", string(report.Mode),
			"error", err,
		)
	}
}
