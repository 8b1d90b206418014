package batch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/careledger/careledger/internal/domain/reconciliation"
	"github.com/careledger/careledger/internal/domain/shared"
	"github.com/careledger/careledger/internal/reconciler/corrector"
	"github.com/careledger/careledger/internal/reconciler/detector"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMatchRepository struct {
	mock.Mock
}

func (m *MockMatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*reconciliation.BankStatementMatch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconciliation.BankStatementMatch), args.Error(1)
}

func (m *MockMatchRepository) ListUnadjusted(ctx context.Context, tenantID uuid.UUID) ([]*reconciliation.BankStatementMatch, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reconciliation.BankStatementMatch), args.Error(1)
}

func (m *MockMatchRepository) MarkFeeAdjusted(ctx context.Context, id uuid.UUID, feeAmountCents int64, feeType string) error {
	args := m.Called(ctx, id, feeAmountCents, feeType)
	return args.Error(0)
}

func (m *MockMatchRepository) WithTx(tx pgx.Tx) reconciliation.MatchRepository {
	return m
}

type MockDetector struct {
	mock.Mock
}

func (m *MockDetector) Detect(ctx context.Context, tenantID uuid.UUID, bankAmountCents, accountingAmountCents int64, description, payeeName, reference string) (*detector.Result, error) {
	args := m.Called(ctx, tenantID, bankAmountCents, accountingAmountCents, description, payeeName, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*detector.Result), args.Error(1)
}

type MockCorrector struct {
	mock.Mock
}

func (m *MockCorrector) Apply(ctx context.Context, params corrector.ApplyParams) (*corrector.Correction, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*corrector.Correction), args.Error(1)
}

// panicCorrector guards the dry-run path: any call proves a mutation leak
type panicCorrector struct{}

func (panicCorrector) Apply(ctx context.Context, params corrector.ApplyParams) (*corrector.Correction, error) {
	panic("correction applier invoked during dry run")
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPool(t *testing.T) *ants.Pool {
	t.Helper()
	pool, err := ants.NewPool(4)
	require.NoError(t, err)
	t.Cleanup(pool.Release)
	return pool
}

func testMatch(tenantID uuid.UUID, bankCents, accountingCents int64, description string) *reconciliation.BankStatementMatch {
	return &reconciliation.BankStatementMatch{
		ID:                    uuid.New(),
		TenantID:              tenantID,
		TransactionID:         uuid.New(),
		BankAmountCents:       bankCents,
		AccountingAmountCents: accountingCents,
		BankDescription:       description,
		Status:                shared.MatchStatusAmountMismatch,
	}
}

func acceptedResult(feeCents int64) *detector.Result {
	feeType := shared.FeeTypeADTDeposit
	return &detector.Result{
		IsMatch:         true,
		Confidence:      0.95,
		ActualFeeCents:  feeCents,
		FeeType:         &feeType,
		TransactionType: shared.TransactionTypeADTDeposit,
		Explanation:     "fee matches configured ADT_DEPOSIT_FEE exactly",
	}
}

func declinedResult(feeCents int64) *detector.Result {
	return &detector.Result{
		IsMatch:         false,
		Confidence:      0.50,
		ActualFeeCents:  feeCents,
		TransactionType: shared.TransactionTypeUnknown,
		Explanation:     "delta too large to be a bank fee",
	}
}

func TestPreview_NeverInvokesApplier(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	correctable := testMatch(tenantID, 1000000, 1001470, "ADT CASH DEPOSIT")
	declined := testMatch(tenantID, 100000, 150000, "ZZZ 8812")

	matchRepo := new(MockMatchRepository)
	matchRepo.On("ListUnadjusted", ctx, tenantID).Return([]*reconciliation.BankStatementMatch{correctable, declined}, nil)

	det := new(MockDetector)
	det.On("Detect", ctx, tenantID, int64(1000000), int64(1001470), "ADT CASH DEPOSIT", "", "").Return(acceptedResult(1470), nil)
	det.On("Detect", ctx, tenantID, int64(100000), int64(150000), "ZZZ 8812", "", "").Return(declinedResult(50000), nil)

	runner := NewRunner(matchRepo, det, panicCorrector{}, newTestPool(t), newTestLogger())
	preview, err := runner.Preview(ctx, tenantID)
	require.NoError(t, err)

	assert.Equal(t, 2, preview.TotalMatches)
	assert.Equal(t, 1, preview.CorrectableMatches)
	assert.Equal(t, int64(1470), preview.TotalFeesCents)
	require.Len(t, preview.Corrections, 1)
	assert.Equal(t, correctable.ID, preview.Corrections[0].MatchID)
	assert.Equal(t, shared.FeeTypeADTDeposit, preview.Corrections[0].FeeType)

	require.Len(t, preview.Skipped, 1)
	skipped := preview.Skipped[0]
	assert.Equal(t, declined.ID, skipped.MatchID)
	assert.Equal(t, "ZZZ 8812", skipped.BankDescription)
	assert.Equal(t, int64(50000), skipped.FeeAmountCents)
	assert.Equal(t, shared.TransactionTypeUnknown, skipped.DetectedType)
	assert.Equal(t, 0.50, skipped.Confidence)
}

func TestApply_PartialFailureIsolation(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	good := testMatch(tenantID, 1000000, 1001470, "ADT CASH DEPOSIT")
	bad := testMatch(tenantID, 500000, 500650, "EFT CREDIT SCHOOL FEES")

	matchRepo := new(MockMatchRepository)
	matchRepo.On("ListUnadjusted", ctx, tenantID).Return([]*reconciliation.BankStatementMatch{good, bad}, nil)

	det := new(MockDetector)
	det.On("Detect", ctx, tenantID, good.BankAmountCents, good.AccountingAmountCents, good.BankDescription, "", "").Return(acceptedResult(1470), nil)
	det.On("Detect", ctx, tenantID, bad.BankAmountCents, bad.AccountingAmountCents, bad.BankDescription, "", "").Return(acceptedResult(650), nil)

	applier := new(MockCorrector)
	applier.On("Apply", mock.Anything, mock.MatchedBy(func(p corrector.ApplyParams) bool {
		return p.MatchID == good.ID
	})).Return(&corrector.Correction{
		MatchID:              good.ID,
		TransactionID:        good.TransactionID,
		PreviousAmountCents:  good.AccountingAmountCents,
		CorrectedAmountCents: good.BankAmountCents,
		FeeAmountCents:       1470,
		FeeType:              shared.FeeTypeADTDeposit,
		AccruedChargeID:      uuid.New(),
	}, nil)
	applier.On("Apply", mock.Anything, mock.MatchedBy(func(p corrector.ApplyParams) bool {
		return p.MatchID == bad.ID
	})).Return(nil, reconciliation.ErrTransactionNotFound{TransactionID: bad.TransactionID})

	runner := NewRunner(matchRepo, det, applier, newTestPool(t), newTestLogger())
	result, err := runner.Apply(ctx, tenantID, "user-12")
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalMatches)
	assert.Equal(t, 1, result.Corrected)
	assert.Equal(t, int64(1470), result.TotalFeesCents)
	require.Len(t, result.Corrections, 1)
	assert.Equal(t, good.BankAmountCents, result.Corrections[0].CorrectedAmountCents)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, bad.ID, result.Errors[0].MatchID)
	assert.Equal(t, bad.TransactionID, result.Errors[0].TransactionID)
	assert.Contains(t, result.Errors[0].Message, "not found")
	applier.AssertExpectations(t)
}

func TestApply_CarriesActingUser(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	m := testMatch(tenantID, 1000000, 1001470, "ADT CASH DEPOSIT")

	matchRepo := new(MockMatchRepository)
	matchRepo.On("ListUnadjusted", ctx, tenantID).Return([]*reconciliation.BankStatementMatch{m}, nil)

	det := new(MockDetector)
	det.On("Detect", ctx, tenantID, m.BankAmountCents, m.AccountingAmountCents, m.BankDescription, "", "").Return(acceptedResult(1470), nil)

	applier := new(MockCorrector)
	applier.On("Apply", mock.Anything, mock.MatchedBy(func(p corrector.ApplyParams) bool {
		return p.ActingUserID == "bookkeeper-3" && p.TenantID == tenantID && p.FeeAmountCents == 1470
	})).Return(&corrector.Correction{MatchID: m.ID, FeeAmountCents: 1470}, nil)

	runner := NewRunner(matchRepo, det, applier, newTestPool(t), newTestLogger())
	result, err := runner.Apply(ctx, tenantID, "bookkeeper-3")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Corrected)
	applier.AssertExpectations(t)
}

func TestApply_DetectorFailureRecordedPerItem(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	broken := testMatch(tenantID, 1000000, 1001470, "ADT CASH DEPOSIT")
	fine := testMatch(tenantID, 500000, 500650, "EFT CREDIT 8871")

	matchRepo := new(MockMatchRepository)
	matchRepo.On("ListUnadjusted", ctx, tenantID).Return([]*reconciliation.BankStatementMatch{broken, fine}, nil)

	det := new(MockDetector)
	det.On("Detect", ctx, tenantID, broken.BankAmountCents, broken.AccountingAmountCents, broken.BankDescription, "", "").Return(nil, errors.New("configuration store unavailable"))
	det.On("Detect", ctx, tenantID, fine.BankAmountCents, fine.AccountingAmountCents, fine.BankDescription, "", "").Return(acceptedResult(650), nil)

	applier := new(MockCorrector)
	applier.On("Apply", mock.Anything, mock.MatchedBy(func(p corrector.ApplyParams) bool {
		return p.MatchID == fine.ID
	})).Return(&corrector.Correction{MatchID: fine.ID, FeeAmountCents: 650}, nil)

	runner := NewRunner(matchRepo, det, applier, newTestPool(t), newTestLogger())
	result, err := runner.Apply(ctx, tenantID, "user-12")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Corrected)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, broken.ID, result.Errors[0].MatchID)
	assert.Contains(t, result.Errors[0].Message, "configuration store unavailable")
}

func TestPreview_EmptyTenant(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	matchRepo := new(MockMatchRepository)
	matchRepo.On("ListUnadjusted", ctx, tenantID).Return([]*reconciliation.BankStatementMatch{}, nil)

	runner := NewRunner(matchRepo, new(MockDetector), panicCorrector{}, newTestPool(t), newTestLogger())
	preview, err := runner.Preview(ctx, tenantID)
	require.NoError(t, err)

	assert.Zero(t, preview.TotalMatches)
	assert.Zero(t, preview.CorrectableMatches)
	assert.Zero(t, preview.TotalFeesCents)
	assert.Empty(t, preview.Corrections)
	assert.Empty(t, preview.Skipped)
}

func TestApply_ListFailure(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	matchRepo := new(MockMatchRepository)
	matchRepo.On("ListUnadjusted", ctx, tenantID).Return(nil, errors.New("connection refused"))

	runner := NewRunner(matchRepo, new(MockDetector), new(MockCorrector), newTestPool(t), newTestLogger())
	result, err := runner.Apply(ctx, tenantID, "user-12")

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "failed to load unresolved matches")
}
