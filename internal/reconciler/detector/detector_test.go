package detector

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/careledger/careledger/internal/domain/fees"
	"github.com/careledger/careledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFeeCalculator struct {
	mock.Mock
}

func (m *MockFeeCalculator) CalculateFees(ctx context.Context, tenantID uuid.UUID, txType shared.TransactionType, amountCents int64) ([]fees.CalculatedFee, error) {
	args := m.Called(ctx, tenantID, txType, amountCents)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]fees.CalculatedFee), args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDetect(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	adtFee := []fees.CalculatedFee{
		{FeeType: shared.FeeTypeADTDeposit, FeeAmountCents: 1470, Description: "ADT deposit fee"},
	}

	tests := []struct {
		name            string
		bankCents       int64
		accountingCents int64
		description     string
		calculated      []fees.CalculatedFee
		wantMatch       bool
		wantConfidence  float64
		wantFeeCents    int64
		wantFeeType     *shared.FeeType
		wantTxType      shared.TransactionType
	}{
		{
			name:            "exact fee match",
			bankCents:       1000000,
			accountingCents: 1001470,
			description:     "ADT CASH DEPOSIT",
			calculated:      adtFee,
			wantMatch:       true,
			wantConfidence:  0.95,
			wantFeeCents:    1470,
			wantFeeType:     feeTypePtr(shared.FeeTypeADTDeposit),
			wantTxType:      shared.TransactionTypeADTDeposit,
		},
		{
			name:            "near fee match within tolerance",
			bankCents:       1000000,
			accountingCents: 1001600,
			description:     "ADT CASH DEPOSIT",
			calculated:      adtFee,
			wantMatch:       true,
			wantConfidence:  0.90,
			wantFeeCents:    1600,
			wantFeeType:     feeTypePtr(shared.FeeTypeADTDeposit),
			wantTxType:      shared.TransactionTypeADTDeposit,
		},
		{
			name:            "small ratio for variable fee",
			bankCents:       1000000,
			accountingCents: 1040000,
			description:     "ADT CASH DEPOSIT",
			calculated:      adtFee,
			wantMatch:       true,
			wantConfidence:  0.88,
			wantFeeCents:    40000,
			wantFeeType:     feeTypePtr(shared.FeeTypeADTDeposit),
			wantTxType:      shared.TransactionTypeADTDeposit,
		},
		{
			name:            "known type but delta outside every band",
			bankCents:       1000000,
			accountingCents: 1100000,
			description:     "ADT CASH DEPOSIT",
			calculated:      adtFee,
			wantMatch:       false,
			wantConfidence:  0.50,
			wantFeeCents:    100000,
			wantTxType:      shared.TransactionTypeADTDeposit,
		},
		{
			name:            "unknown type small ratio stays below threshold",
			bankCents:       100000,
			accountingCents: 100500,
			description:     "ZZZ 99812",
			wantMatch:       false,
			wantConfidence:  0.80,
			wantFeeCents:    500,
			wantTxType:      shared.TransactionTypeUnknown,
		},
		{
			name:            "unknown type large ratio",
			bankCents:       100000,
			accountingCents: 110000,
			description:     "ZZZ 99812",
			wantMatch:       false,
			wantConfidence:  0.50,
			wantFeeCents:    10000,
			wantTxType:      shared.TransactionTypeUnknown,
		},
		{
			name:            "known type with no covering rule",
			bankCents:       100000,
			accountingCents: 100500,
			description:     "ADT CASH DEPOSIT",
			calculated:      []fees.CalculatedFee{},
			wantMatch:       false,
			wantConfidence:  0.80,
			wantFeeCents:    500,
			wantTxType:      shared.TransactionTypeADTDeposit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := new(MockFeeCalculator)
			if tt.wantTxType != shared.TransactionTypeUnknown {
				calc.On("CalculateFees", ctx, tenantID, tt.wantTxType, tt.bankCents).Return(tt.calculated, nil)
			}

			d := NewDetector(calc, newTestLogger())
			result, err := d.Detect(ctx, tenantID, tt.bankCents, tt.accountingCents, tt.description, "", "")
			require.NoError(t, err)

			assert.Equal(t, tt.wantMatch, result.IsMatch)
			assert.Equal(t, tt.wantConfidence, result.Confidence)
			assert.Equal(t, tt.wantFeeCents, result.ActualFeeCents)
			assert.Equal(t, tt.wantTxType, result.TransactionType)
			assert.Equal(t, tt.wantFeeType, result.FeeType)
			assert.NotEmpty(t, result.Explanation)
			calc.AssertExpectations(t)
		})
	}
}

func TestDetect_AccountingNotHigher(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	calc := new(MockFeeCalculator)
	d := NewDetector(calc, newTestLogger())

	for _, accounting := range []int64{1000000, 999000} {
		result, err := d.Detect(ctx, tenantID, 1000000, accounting, "ADT CASH DEPOSIT", "", "")
		require.NoError(t, err)

		assert.False(t, result.IsMatch)
		assert.Zero(t, result.Confidence)
		assert.Zero(t, result.ActualFeeCents)
		assert.Equal(t, "accounting amount not higher than bank amount", result.Explanation)
	}
	// The rule engine is never consulted when no positive delta exists
	calc.AssertNotCalled(t, "CalculateFees")
}

func TestDetect_PicksClosestExpectedFee(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	calc := new(MockFeeCalculator)
	calc.On("CalculateFees", ctx, tenantID, shared.TransactionTypeCardPurchase, int64(50000)).Return([]fees.CalculatedFee{
		{FeeType: shared.FeeTypeCardTransaction, FeeAmountCents: 1375},
		{FeeType: shared.FeeTypeMonthlyService, FeeAmountCents: 6900},
	}, nil)

	d := NewDetector(calc, newTestLogger())
	result, err := d.Detect(ctx, tenantID, 50000, 51375, "POS PURCHASE CHECKERS", "", "")
	require.NoError(t, err)

	assert.True(t, result.IsMatch)
	assert.Equal(t, 0.95, result.Confidence)
	require.NotNil(t, result.FeeType)
	assert.Equal(t, shared.FeeTypeCardTransaction, *result.FeeType)
}

func TestDetect_CalculatorError(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	calc := new(MockFeeCalculator)
	calc.On("CalculateFees", ctx, tenantID, shared.TransactionTypeADTDeposit, int64(1000000)).Return(nil, errors.New("store unavailable"))

	d := NewDetector(calc, newTestLogger())
	result, err := d.Detect(ctx, tenantID, 1000000, 1001470, "ADT CASH DEPOSIT", "", "")

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "failed to calculate expected fees")
}

func feeTypePtr(ft shared.FeeType) *shared.FeeType {
	return &ft
}
