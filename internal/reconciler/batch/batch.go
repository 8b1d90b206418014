// Package batch drives fee correction across every unresolved bank
// statement match of a tenant. One traversal feeds a strategy: the preview
// strategy only records what would happen, the apply strategy corrects
// through the applier with per-item error isolation. The preview strategy
// holds no reference to the applier, so a dry run cannot mutate anything
// by construction.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/careledger/careledger/internal/domain/reconciliation"
	"github.com/careledger/careledger/internal/domain/shared"
	"github.com/careledger/careledger/internal/reconciler/corrector"
	"github.com/careledger/careledger/internal/reconciler/detector"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
)

// Detector scores one match. Satisfied by *detector.Detector.
type Detector interface {
	Detect(ctx context.Context, tenantID uuid.UUID, bankAmountCents, accountingAmountCents int64, description, payeeName, reference string) (*detector.Result, error)
}

// Corrector applies one accepted detection. Satisfied by *corrector.Applier.
type Corrector interface {
	Apply(ctx context.Context, params corrector.ApplyParams) (*corrector.Correction, error)
}

// PlannedCorrection is one correction a dry run would perform
type PlannedCorrection struct {
	MatchID               uuid.UUID      `json:"match_id"`
	TransactionID         uuid.UUID      `json:"transaction_id"`
	BankAmountCents       int64          `json:"bank_amount_cents"`
	AccountingAmountCents int64          `json:"accounting_amount_cents"`
	FeeAmountCents        int64          `json:"fee_amount_cents"`
	FeeType               shared.FeeType `json:"fee_type"`
	Confidence            float64        `json:"confidence"`
}

// SkippedMatch carries the diagnostics for a match the detector declined,
// so an operator can judge the decision without replaying it.
type SkippedMatch struct {
	MatchID               uuid.UUID              `json:"match_id"`
	TransactionID         uuid.UUID              `json:"transaction_id"`
	BankDescription       string                 `json:"bank_description"`
	BankAmountCents       int64                  `json:"bank_amount_cents"`
	AccountingAmountCents int64                  `json:"accounting_amount_cents"`
	FeeAmountCents        int64                  `json:"fee_amount_cents"`
	DetectedType          shared.TransactionType `json:"detected_type"`
	Confidence            float64                `json:"confidence"`
	Reason                string                 `json:"reason"`
}

// ItemError records one failed correction without aborting its siblings
type ItemError struct {
	MatchID       uuid.UUID `json:"match_id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	Message       string    `json:"message"`
}

// Preview is the outcome of a dry run
type Preview struct {
	TotalMatches       int                 `json:"total_matches"`
	CorrectableMatches int                 `json:"correctable_matches"`
	TotalFeesCents     int64               `json:"total_fees_cents"`
	Corrections        []PlannedCorrection `json:"corrections"`
	Skipped            []SkippedMatch      `json:"skipped"`
}

// ApplyResult is the outcome of an apply-mode run
type ApplyResult struct {
	TotalMatches   int                    `json:"total_matches"`
	Corrected      int                    `json:"corrected"`
	TotalFeesCents int64                  `json:"total_fees_cents"`
	Corrections    []corrector.Correction `json:"corrections"`
	Errors         []ItemError            `json:"errors"`
	Skipped        []SkippedMatch         `json:"skipped"`
}

// strategy consumes the matches the detector accepted during one traversal
type strategy interface {
	accept(ctx context.Context, m *reconciliation.BankStatementMatch, det *detector.Result)
	fail(m *reconciliation.BankStatementMatch, err error)
	wait()
}

// Runner traverses a tenant's unresolved matches
type Runner struct {
	matches  reconciliation.MatchRepository
	detector Detector
	applier  Corrector
	pool     *ants.Pool
	logger   *slog.Logger
}

// NewRunner creates a batch corrector. The worker pool is used only in
// apply mode.
func NewRunner(matches reconciliation.MatchRepository, det Detector, applier Corrector, pool *ants.Pool, logger *slog.Logger) *Runner {
	return &Runner{
		matches:  matches,
		detector: det,
		applier:  applier,
		pool:     pool,
		logger:   logger,
	}
}

// Preview runs detection over every unresolved match and reports what an
// apply-mode run would do. Nothing is written.
func (r *Runner) Preview(ctx context.Context, tenantID uuid.UUID) (*Preview, error) {
	strat := &previewStrategy{}

	total, skipped, err := r.traverse(ctx, tenantID, strat)
	if err != nil {
		return nil, err
	}

	var totalFees int64
	for _, c := range strat.corrections {
		totalFees += c.FeeAmountCents
	}

	r.logger.Info("Previewed fee corrections",
		"tenant_id", tenantID.String(),
		"total_matches", total,
		"correctable", len(strat.corrections),
		"total_fees_cents", totalFees,
	)

	return &Preview{
		TotalMatches:       total,
		CorrectableMatches: len(strat.corrections),
		TotalFeesCents:     totalFees,
		Corrections:        strat.corrections,
		Skipped:            append(skipped, strat.skipped...),
	}, nil
}

// Apply corrects every match the detector accepts. Corrections run on the
// worker pool; one item's failure is recorded and never aborts the rest.
// A re-run after success is a no-op because corrected matches leave the
// unresolved set.
func (r *Runner) Apply(ctx context.Context, tenantID uuid.UUID, actingUserID string) (*ApplyResult, error) {
	strat := &applyStrategy{
		applier:      r.applier,
		pool:         r.pool,
		tenantID:     tenantID,
		actingUserID: actingUserID,
		logger:       r.logger,
	}

	total, skipped, err := r.traverse(ctx, tenantID, strat)
	if err != nil {
		return nil, err
	}
	strat.wait()

	var totalFees int64
	for _, c := range strat.corrections {
		totalFees += c.FeeAmountCents
	}

	r.logger.Info("Applied fee corrections",
		"tenant_id", tenantID.String(),
		"total_matches", total,
		"corrected", len(strat.corrections),
		"failed", len(strat.errors),
		"total_fees_cents", totalFees,
	)

	return &ApplyResult{
		TotalMatches:   total,
		Corrected:      len(strat.corrections),
		TotalFeesCents: totalFees,
		Corrections:    strat.corrections,
		Errors:         strat.errors,
		Skipped:        skipped,
	}, nil
}

// traverse loads the unresolved matches, runs detection on each, and hands
// accepted matches to the strategy. Declined matches are returned with
// their diagnostics; detector failures go to the strategy's fail path.
func (r *Runner) traverse(ctx context.Context, tenantID uuid.UUID, strat strategy) (int, []SkippedMatch, error) {
	matches, err := r.matches.ListUnadjusted(ctx, tenantID)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to load unresolved matches: %w", err)
	}

	var skipped []SkippedMatch
	for _, m := range matches {
		det, err := r.detector.Detect(ctx, tenantID, m.BankAmountCents, m.AccountingAmountCents, m.BankDescription, m.PayeeName, m.Reference)
		if err != nil {
			strat.fail(m, err)
			continue
		}

		if !det.IsMatch || det.FeeType == nil {
			skipped = append(skipped, SkippedMatch{
				MatchID:               m.ID,
				TransactionID:         m.TransactionID,
				BankDescription:       m.BankDescription,
				BankAmountCents:       m.BankAmountCents,
				AccountingAmountCents: m.AccountingAmountCents,
				FeeAmountCents:        det.ActualFeeCents,
				DetectedType:          det.TransactionType,
				Confidence:            det.Confidence,
				Reason:                det.Explanation,
			})
			continue
		}

		strat.accept(ctx, m, det)
	}

	return len(matches), skipped, nil
}

// previewStrategy records planned corrections. It has no way to reach the
// applier or any store.
type previewStrategy struct {
	corrections []PlannedCorrection
	skipped     []SkippedMatch
}

func (s *previewStrategy) accept(_ context.Context, m *reconciliation.BankStatementMatch, det *detector.Result) {
	s.corrections = append(s.corrections, PlannedCorrection{
		MatchID:               m.ID,
		TransactionID:         m.TransactionID,
		BankAmountCents:       m.BankAmountCents,
		AccountingAmountCents: m.AccountingAmountCents,
		FeeAmountCents:        det.ActualFeeCents,
		FeeType:               *det.FeeType,
		Confidence:            det.Confidence,
	})
}

func (s *previewStrategy) fail(m *reconciliation.BankStatementMatch, err error) {
	s.skipped = append(s.skipped, SkippedMatch{
		MatchID:               m.ID,
		TransactionID:         m.TransactionID,
		BankDescription:       m.BankDescription,
		BankAmountCents:       m.BankAmountCents,
		AccountingAmountCents: m.AccountingAmountCents,
		DetectedType:          shared.TransactionTypeUnknown,
		Reason:                err.Error(),
	})
}

func (s *previewStrategy) wait() {}

// applyStrategy corrects accepted matches on the worker pool. Results and
// errors are collected under one mutex.
type applyStrategy struct {
	applier      Corrector
	pool         *ants.Pool
	tenantID     uuid.UUID
	actingUserID string
	logger       *slog.Logger

	wg          sync.WaitGroup
	mu          sync.Mutex
	corrections []corrector.Correction
	errors      []ItemError
}

func (s *applyStrategy) accept(ctx context.Context, m *reconciliation.BankStatementMatch, det *detector.Result) {
	params := corrector.ApplyParams{
		TenantID:              s.tenantID,
		MatchID:               m.ID,
		TransactionID:         m.TransactionID,
		BankAmountCents:       m.BankAmountCents,
		AccountingAmountCents: m.AccountingAmountCents,
		FeeAmountCents:        det.ActualFeeCents,
		FeeType:               *det.FeeType,
		ActingUserID:          s.actingUserID,
	}

	s.wg.Add(1)
	submitErr := s.pool.Submit(func() {
		defer s.wg.Done()
		s.apply(ctx, params)
	})
	if submitErr != nil {
		s.wg.Done()
		s.record(nil, ItemError{MatchID: params.MatchID, TransactionID: params.TransactionID, Message: submitErr.Error()})
	}
}

func (s *applyStrategy) apply(ctx context.Context, params corrector.ApplyParams) {
	correction, err := s.applier.Apply(ctx, params)
	if err != nil {
		s.logger.Error("Fee correction failed",
			"tenant_id", s.tenantID.String(),
			"match_id", params.MatchID.String(),
			"transaction_id", params.TransactionID.String(),
			"error", err,
		)
		s.record(nil, ItemError{MatchID: params.MatchID, TransactionID: params.TransactionID, Message: err.Error()})
		return
	}
	s.record(correction, ItemError{})
}

func (s *applyStrategy) fail(m *reconciliation.BankStatementMatch, err error) {
	s.record(nil, ItemError{MatchID: m.ID, TransactionID: m.TransactionID, Message: err.Error()})
}

func (s *applyStrategy) wait() {
	s.wg.Wait()
}

func (s *applyStrategy) record(correction *corrector.Correction, itemErr ItemError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if correction != nil {
		s.corrections = append(s.corrections, *correction)
		return
	}
	s.errors = append(s.errors, itemErr)
}
