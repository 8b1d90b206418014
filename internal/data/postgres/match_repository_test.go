package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/careledger/careledger/internal/domain/reconciliation"
	"github.com/careledger/careledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matchRows(m *reconciliation.BankStatementMatch) *pgxmock.Rows {
	var feeType *string
	if m.FeeType != nil {
		s := string(*m.FeeType)
		feeType = &s
	}
	return pgxmock.NewRows([]string{"id", "tenant_id", "transaction_id", "bank_amount_cents", "accounting_amount_cents", "bank_description", "payee_name", "reference", "status", "is_fee_adjusted_match", "accrued_fee_amount_cents", "fee_type", "created_at", "updated_at"}).
		AddRow(m.ID, m.TenantID, m.TransactionID, m.BankAmountCents, m.AccountingAmountCents, m.BankDescription, m.PayeeName, m.Reference, m.Status, m.IsFeeAdjustedMatch, m.AccruedFeeAmountCents, feeType, m.CreatedAt, m.UpdatedAt)
}

func TestMatchRepository_ListUnadjusted(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &MatchRepository{querier: mock, logger: logger}
	tenantID := uuid.New()
	now := time.Now()

	match := &reconciliation.BankStatementMatch{
		ID:                    uuid.New(),
		TenantID:              tenantID,
		TransactionID:         uuid.New(),
		BankAmountCents:       1000000,
		AccountingAmountCents: 1001470,
		BankDescription:       "ADT CASH DEPO BRANCH 123",
		Status:                shared.MatchStatusAmountMismatch,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	mock.ExpectQuery(`SELECT .+ FROM bank_statement_matches`).
		WithArgs(tenantID).
		WillReturnRows(matchRows(match))

	matches, err := repo.ListUnadjusted(ctx, tenantID)
	assert.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, match.BankDescription, matches[0].BankDescription)
	assert.Nil(t, matches[0].FeeType)
	assert.False(t, matches[0].IsFeeAdjustedMatch)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepository_GetByID_FeeTypeRoundTrip(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &MatchRepository{querier: mock, logger: logger}
	feeType := shared.FeeTypeADTDeposit
	now := time.Now()

	match := &reconciliation.BankStatementMatch{
		ID:                    uuid.New(),
		TenantID:              uuid.New(),
		TransactionID:         uuid.New(),
		BankAmountCents:       1000000,
		AccountingAmountCents: 1001470,
		BankDescription:       "ADT CASH DEPO BRANCH 123",
		Status:                shared.MatchStatusFeeAdjustedMatch,
		IsFeeAdjustedMatch:    true,
		AccruedFeeAmountCents: 1470,
		FeeType:               &feeType,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	mock.ExpectQuery(`SELECT .+ FROM bank_statement_matches`).
		WithArgs(match.ID).
		WillReturnRows(matchRows(match))

	got, err := repo.GetByID(ctx, match.ID)
	assert.NoError(t, err)
	require.NotNil(t, got.FeeType)
	assert.Equal(t, shared.FeeTypeADTDeposit, *got.FeeType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepository_MarkFeeAdjusted(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &MatchRepository{querier: mock, logger: logger}
	matchID := uuid.New()

	query := `
		UPDATE bank_statement_matches
		SET is_fee_adjusted_match = TRUE,`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(int64(1470), string(shared.FeeTypeADTDeposit), string(shared.MatchStatusFeeAdjustedMatch), matchID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.MarkFeeAdjusted(ctx, matchID, 1470, string(shared.FeeTypeADTDeposit))
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already adjusted match is refused", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(int64(1470), string(shared.FeeTypeADTDeposit), string(shared.MatchStatusFeeAdjustedMatch), matchID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.MarkFeeAdjusted(ctx, matchID, 1470, string(shared.FeeTypeADTDeposit))
		var alreadyAdjusted reconciliation.ErrMatchAlreadyAdjusted
		assert.ErrorAs(t, err, &alreadyAdjusted)
		assert.Equal(t, matchID, alreadyAdjusted.MatchID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
