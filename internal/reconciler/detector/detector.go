// Package detector decides whether the delta between a bank-cleared (NET)
// amount and an accounting-system (GROSS) amount is explained by a bank
// fee, and scores that decision with a tiered confidence value.
package detector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/careledger/careledger/internal/domain/fees"
	"github.com/careledger/careledger/internal/domain/shared"
	"github.com/careledger/careledger/internal/reconciler/classifier"
	"github.com/google/uuid"
)

// MinCorrectionConfidence is the acceptance bar: only detections at or
// above this score are eligible for automatic correction.
const MinCorrectionConfidence = 0.85

// NearFeeToleranceCents accepts observed fees within R2.00 of the
// configured expectation.
const NearFeeToleranceCents = 200

// plausibleFeeRatio bounds how large a fee may be, as a proportion of the
// bank amount, and still be accepted for a known transaction type with a
// variable fee schedule.
const plausibleFeeRatio = 0.05

// smallFeeRatio bounds the "plausible but unconfirmed" band for deltas the
// rule engine cannot explain.
const smallFeeRatio = 0.03

// FeeCalculator yields the expected fees for a transaction under the
// tenant's current configuration. Satisfied by *feeconfig.Service.
type FeeCalculator interface {
	CalculateFees(ctx context.Context, tenantID uuid.UUID, txType shared.TransactionType, amountCents int64) ([]fees.CalculatedFee, error)
}

// Result is the outcome of one detection. ActualFeeCents is the observed
// delta whenever the accounting amount exceeds the bank amount, regardless
// of whether the detector accepts it as a fee. FeeType is set only on
// accepted detections.
type Result struct {
	IsMatch         bool
	Confidence      float64
	ActualFeeCents  int64
	FeeType         *shared.FeeType
	TransactionType shared.TransactionType
	Explanation     string
}

// Detector scores amount deltas against the tenant's fee schedule
type Detector struct {
	calculator FeeCalculator
	logger     *slog.Logger
}

// NewDetector creates a fee match detector
func NewDetector(calculator FeeCalculator, logger *slog.Logger) *Detector {
	return &Detector{
		calculator: calculator,
		logger:     logger,
	}
}

// Detect classifies the narrative, computes the expected fee, and scores
// the observed delta. It reads the tenant's fee configuration but never
// mutates anything.
func (d *Detector) Detect(ctx context.Context, tenantID uuid.UUID, bankAmountCents, accountingAmountCents int64, description, payeeName, reference string) (*Result, error) {
	if accountingAmountCents <= bankAmountCents {
		return &Result{
			IsMatch:         false,
			Confidence:      0,
			TransactionType: classifier.Classify(description, payeeName, reference),
			Explanation:     "accounting amount not higher than bank amount",
		}, nil
	}

	actualFeeCents := accountingAmountCents - bankAmountCents
	txType := classifier.Classify(description, payeeName, reference)

	var expected []fees.CalculatedFee
	if txType != shared.TransactionTypeUnknown {
		var err error
		expected, err = d.calculator.CalculateFees(ctx, tenantID, txType, bankAmountCents)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate expected fees: %w", err)
		}
	}

	if len(expected) == 0 {
		return d.scoreUnexplained(actualFeeCents, bankAmountCents, txType), nil
	}

	// When several rules cover the type, score against the expectation
	// closest to the observed delta.
	closest := expected[0]
	for _, fee := range expected[1:] {
		if absInt64(actualFeeCents-fee.FeeAmountCents) < absInt64(actualFeeCents-closest.FeeAmountCents) {
			closest = fee
		}
	}

	result := &Result{
		ActualFeeCents:  actualFeeCents,
		TransactionType: txType,
	}

	diff := absInt64(actualFeeCents - closest.FeeAmountCents)
	ratio := float64(actualFeeCents) / float64(bankAmountCents)

	switch {
	case diff == 0:
		result.Confidence = 0.95
		result.Explanation = fmt.Sprintf("fee of %d cents matches configured %s exactly", actualFeeCents, closest.FeeType)
	case diff <= NearFeeToleranceCents:
		result.Confidence = 0.90
		result.Explanation = fmt.Sprintf("fee of %d cents within %d cents of configured %s (%d cents)", actualFeeCents, NearFeeToleranceCents, closest.FeeType, closest.FeeAmountCents)
	case ratio <= plausibleFeeRatio:
		result.Confidence = 0.88
		result.Explanation = fmt.Sprintf("fee of %d cents is a plausible %.2f%% of the bank amount for %s", actualFeeCents, ratio*100, txType)
	default:
		return d.scoreUnexplained(actualFeeCents, bankAmountCents, txType), nil
	}

	result.IsMatch = result.Confidence >= MinCorrectionConfidence
	if result.IsMatch {
		feeType := closest.FeeType
		result.FeeType = &feeType
	}

	return result, nil
}

// scoreUnexplained handles deltas with no configured expectation: unknown
// transaction types, types with no covering rule, and known types whose
// delta fell outside every accepted band. Both confidence tiers sit below
// the acceptance bar; the raw score survives into diagnostics.
func (d *Detector) scoreUnexplained(actualFeeCents, bankAmountCents int64, txType shared.TransactionType) *Result {
	ratio := float64(actualFeeCents) / float64(bankAmountCents)

	result := &Result{
		ActualFeeCents:  actualFeeCents,
		TransactionType: txType,
	}

	if ratio < smallFeeRatio {
		result.Confidence = 0.80
		result.Explanation = fmt.Sprintf("delta of %d cents (%.2f%% of bank amount) is a plausible fee but no rule confirms it", actualFeeCents, ratio*100)
	} else {
		result.Confidence = 0.50
		result.Explanation = fmt.Sprintf("delta of %d cents (%.2f%% of bank amount) is too large to be a bank fee", actualFeeCents, ratio*100)
	}

	result.IsMatch = result.Confidence >= MinCorrectionConfidence
	return result
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
