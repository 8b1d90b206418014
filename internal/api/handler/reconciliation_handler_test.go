package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/careledger/careledger/internal/domain/reconciliation"
	"github.com/careledger/careledger/internal/domain/shared"
	"github.com/careledger/careledger/internal/reconciler/batch"
	"github.com/careledger/careledger/internal/reconciler/detector"
	"github.com/careledger/careledger/internal/reconciler/monthly"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockReconciliationService struct {
	mock.Mock
}

func (m *MockReconciliationService) PreviewCorrections(ctx context.Context, tenantID uuid.UUID, actingUserID string) (*batch.Preview, error) {
	args := m.Called(ctx, tenantID, actingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*batch.Preview), args.Error(1)
}

func (m *MockReconciliationService) ApplyCorrections(ctx context.Context, tenantID uuid.UUID, actingUserID string) (*batch.ApplyResult, error) {
	args := m.Called(ctx, tenantID, actingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*batch.ApplyResult), args.Error(1)
}

func (m *MockReconciliationService) ReconcileMonthly(ctx context.Context, tenantID uuid.UUID, actingUserID string, start, end time.Time) (*monthly.Result, error) {
	args := m.Called(ctx, tenantID, actingUserID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*monthly.Result), args.Error(1)
}

func (m *MockReconciliationService) Detect(ctx context.Context, tenantID uuid.UUID, bankAmountCents, accountingAmountCents int64, description, payeeName, reference string) (*detector.Result, error) {
	args := m.Called(ctx, tenantID, bankAmountCents, accountingAmountCents, description, payeeName, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*detector.Result), args.Error(1)
}

func (m *MockReconciliationService) ListRuns(ctx context.Context, tenantID uuid.UUID, page, perPage int) ([]*reconciliation.RunReport, error) {
	args := m.Called(ctx, tenantID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reconciliation.RunReport), args.Error(1)
}

func TestReconciliationHandler_ReconcileFees(t *testing.T) {
	logger := newTestLogger()

	t.Run("DryRunUsesPreview", func(t *testing.T) {
		mockService := new(MockReconciliationService)
		h := NewReconciliationHandler(logger, mockService)

		tenantID := uuid.New()
		preview := &batch.Preview{
			TotalMatches:       3,
			CorrectableMatches: 2,
			TotalFeesCents:     2120,
		}
		mockService.On("PreviewCorrections", mock.Anything, tenantID, "bookkeeper-9").Return(preview, nil)

		router := setupTestRouter()
		router.POST("/tenants/:tenantId/reconciliation/fees", h.ReconcileFees)

		req, _ := http.NewRequest(http.MethodPost, "/tenants/"+tenantID.String()+"/reconciliation/fees?dryRun=true", nil)
		req.Header.Set(ActingUserHeader, "bookkeeper-9")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var response Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		dataBytes, _ := json.Marshal(response.Data)
		var got batch.Preview
		require.NoError(t, json.Unmarshal(dataBytes, &got))
		assert.Equal(t, 2, got.CorrectableMatches)
		assert.Equal(t, int64(2120), got.TotalFeesCents)

		mockService.AssertNotCalled(t, "ApplyCorrections")
	})

	t.Run("ApplyMode", func(t *testing.T) {
		mockService := new(MockReconciliationService)
		h := NewReconciliationHandler(logger, mockService)

		tenantID := uuid.New()
		result := &batch.ApplyResult{
			TotalMatches:   2,
			Corrected:      1,
			TotalFeesCents: 1470,
			Errors: []batch.ItemError{
				{MatchID: uuid.New(), Message: "ledger transaction not found"},
			},
		}
		mockService.On("ApplyCorrections", mock.Anything, tenantID, "system").Return(result, nil)

		router := setupTestRouter()
		router.POST("/tenants/:tenantId/reconciliation/fees", h.ReconcileFees)

		req, _ := http.NewRequest(http.MethodPost, "/tenants/"+tenantID.String()+"/reconciliation/fees", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var response Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		dataBytes, _ := json.Marshal(response.Data)
		var got batch.ApplyResult
		require.NoError(t, json.Unmarshal(dataBytes, &got))
		assert.Equal(t, 1, got.Corrected)
		assert.Len(t, got.Errors, 1)

		mockService.AssertNotCalled(t, "PreviewCorrections")
	})
}

func TestReconciliationHandler_ReconcileMonthly(t *testing.T) {
	logger := newTestLogger()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockReconciliationService)
		h := NewReconciliationHandler(logger, mockService)

		tenantID := uuid.New()
		start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
		result := &monthly.Result{
			MatchedCount:      1,
			TotalMatchedCents: 4410,
			Matches: []monthly.SettledGroup{
				{FeeType: shared.FeeTypeADTDeposit, ChargeTransactionID: uuid.New(), MatchedAmountCents: 4410, SettledCharges: 3},
			},
		}
		mockService.On("ReconcileMonthly", mock.Anything, tenantID, "system", start, end).Return(result, nil)

		router := setupTestRouter()
		router.POST("/tenants/:tenantId/reconciliation/monthly", h.ReconcileMonthly)

		jsonBody, _ := json.Marshal(MonthlyReconcileRequest{StartDate: "2024-03-01", EndDate: "2024-04-01"})
		req, _ := http.NewRequest(http.MethodPost, "/tenants/"+tenantID.String()+"/reconciliation/monthly", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("InvertedWindow", func(t *testing.T) {
		h := NewReconciliationHandler(logger, new(MockReconciliationService))

		router := setupTestRouter()
		router.POST("/tenants/:tenantId/reconciliation/monthly", h.ReconcileMonthly)

		jsonBody, _ := json.Marshal(MonthlyReconcileRequest{StartDate: "2024-04-01", EndDate: "2024-03-01"})
		req, _ := http.NewRequest(http.MethodPost, "/tenants/"+uuid.New().String()+"/reconciliation/monthly", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("MalformedDate", func(t *testing.T) {
		mockService := new(MockReconciliationService)
		h := NewReconciliationHandler(logger, mockService)

		router := setupTestRouter()
		router.POST("/tenants/:tenantId/reconciliation/monthly", h.ReconcileMonthly)

		// A date that is not YYYY-MM-DD must be rejected before the
		// service runs, whichever layer catches it
		for _, body := range []map[string]string{
			{"start_date": "March 1", "end_date": "2024-04-01"},
			{"start_date": "2024-03-01", "end_date": "01/04/2024"},
		} {
			jsonBody, _ := json.Marshal(body)
			req, _ := http.NewRequest(http.MethodPost, "/tenants/"+uuid.New().String()+"/reconciliation/monthly", bytes.NewBuffer(jsonBody))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
		}
		mockService.AssertNotCalled(t, "ReconcileMonthly", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestReconciliationHandler_Detect(t *testing.T) {
	logger := newTestLogger()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockReconciliationService)
		h := NewReconciliationHandler(logger, mockService)

		tenantID := uuid.New()
		feeType := shared.FeeTypeADTDeposit
		result := &detector.Result{
			IsMatch:         true,
			Confidence:      0.95,
			ActualFeeCents:  1470,
			FeeType:         &feeType,
			TransactionType: shared.TransactionTypeADTDeposit,
			Explanation:     "fee of 1470 cents matches configured ADT_DEPOSIT_FEE exactly",
		}
		mockService.On("Detect", mock.Anything, tenantID, int64(1000000), int64(1001470), "ADT CASH DEPOSIT", "", "").Return(result, nil)

		router := setupTestRouter()
		router.POST("/tenants/:tenantId/reconciliation/detect", h.Detect)

		jsonBody, _ := json.Marshal(DetectRequest{
			BankAmountCents:       1000000,
			AccountingAmountCents: 1001470,
			Description:           "ADT CASH DEPOSIT",
		})
		req, _ := http.NewRequest(http.MethodPost, "/tenants/"+tenantID.String()+"/reconciliation/detect", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("MissingAmounts", func(t *testing.T) {
		h := NewReconciliationHandler(logger, new(MockReconciliationService))

		router := setupTestRouter()
		router.POST("/tenants/:tenantId/reconciliation/detect", h.Detect)

		jsonBody, _ := json.Marshal(map[string]string{"description": "ADT CASH DEPOSIT"})
		req, _ := http.NewRequest(http.MethodPost, "/tenants/"+uuid.New().String()+"/reconciliation/detect", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestReconciliationHandler_ListRuns(t *testing.T) {
	logger := newTestLogger()

	t.Run("DefaultsPagination", func(t *testing.T) {
		mockService := new(MockReconciliationService)
		h := NewReconciliationHandler(logger, mockService)

		tenantID := uuid.New()
		runs := []*reconciliation.RunReport{
			{ID: uuid.New(), TenantID: tenantID, Mode: reconciliation.RunModeApply, Corrected: 4},
		}
		mockService.On("ListRuns", mock.Anything, tenantID, 1, 20).Return(runs, nil)

		router := setupTestRouter()
		router.GET("/tenants/:tenantId/reconciliation/runs", h.ListRuns)

		req, _ := http.NewRequest(http.MethodGet, "/tenants/"+tenantID.String()+"/reconciliation/runs", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var response Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		require.NotNil(t, response.Meta)
		assert.Equal(t, 1, response.Meta.Page)
		assert.Equal(t, 20, response.Meta.PerPage)
		mockService.AssertExpectations(t)
	})

	t.Run("PaginationOutOfRange", func(t *testing.T) {
		h := NewReconciliationHandler(logger, new(MockReconciliationService))

		router := setupTestRouter()
		router.GET("/tenants/:tenantId/reconciliation/runs", h.ListRuns)

		req, _ := http.NewRequest(http.MethodGet, "/tenants/"+uuid.New().String()+"/reconciliation/runs?per_page=500", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
