package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/careledger/careledger/internal/api/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ActingUserHeader identifies the bookkeeper driving a run; audit records
// and run history carry it.
const ActingUserHeader = "X-Acting-User"

// ReconciliationHandler handles HTTP requests for reconciliation operations
type ReconciliationHandler struct {
	reconciliationService service.ReconciliationService
	logger                *slog.Logger
}

// NewReconciliationHandler creates a new reconciliation handler
func NewReconciliationHandler(logger *slog.Logger, reconciliationService service.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{
		reconciliationService: reconciliationService,
		logger:                logger,
	}
}

// ReconcileFees runs batch fee correction. With dryRun=true the response
// previews the corrections without touching the ledger.
func (h *ReconciliationHandler) ReconcileFees(c *gin.Context) {
	tenantID, ok := tenantIDParam(c)
	if !ok {
		return
	}
	actingUserID := actingUser(c)

	if c.Query("dryRun") == "true" {
		preview, err := h.reconciliationService.PreviewCorrections(c.Request.Context(), tenantID, actingUserID)
		if err != nil {
			h.logger.Error("Failed to preview fee corrections", "tenant_id", tenantID.String(), "error", err)
			RespondInternalError(c)
			return
		}
		RespondOK(c, preview)
		return
	}

	result, err := h.reconciliationService.ApplyCorrections(c.Request.Context(), tenantID, actingUserID)
	if err != nil {
		h.logger.Error("Failed to apply fee corrections", "tenant_id", tenantID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, result)
}

// ReconcileMonthly settles accrued charges against lump-sum fee lines in
// the requested window
func (h *ReconciliationHandler) ReconcileMonthly(c *gin.Context) {
	tenantID, ok := tenantIDParam(c)
	if !ok {
		return
	}

	var req MonthlyReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		RespondBadRequest(c, "start_date must be a YYYY-MM-DD date")
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		RespondBadRequest(c, "end_date must be a YYYY-MM-DD date")
		return
	}
	if !end.After(start) {
		RespondBadRequest(c, "end_date must be after start_date")
		return
	}

	result, err := h.reconciliationService.ReconcileMonthly(c.Request.Context(), tenantID, actingUser(c), start, end)
	if err != nil {
		h.logger.Error("Failed to run monthly aggregation", "tenant_id", tenantID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, result)
}

// Detect scores a single bank/accounting amount pair without mutating
// anything
func (h *ReconciliationHandler) Detect(c *gin.Context) {
	tenantID, ok := tenantIDParam(c)
	if !ok {
		return
	}

	var req DetectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.reconciliationService.Detect(
		c.Request.Context(),
		tenantID,
		req.BankAmountCents,
		req.AccountingAmountCents,
		req.Description,
		req.PayeeName,
		req.Reference,
	)
	if err != nil {
		h.logger.Error("Failed to run fee detection", "tenant_id", tenantID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, result)
}

// ListRuns returns the tenant's reconciliation run history, newest first
func (h *ReconciliationHandler) ListRuns(c *gin.Context) {
	tenantID, ok := tenantIDParam(c)
	if !ok {
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	runs, err := h.reconciliationService.ListRuns(c.Request.Context(), tenantID, pagination.Page, pagination.PerPage)
	if err != nil {
		h.logger.Error("Failed to list reconciliation runs", "tenant_id", tenantID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondWithPaginatedData(c, http.StatusOK, runs, pagination.Page, pagination.PerPage)
}

// tenantIDParam parses the tenant id path parameter, responding 400 on a
// malformed value
func tenantIDParam(c *gin.Context) (uuid.UUID, bool) {
	idParam := c.Param("tenantId")
	tenantID, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid tenant ID")
		return uuid.Nil, false
	}
	return tenantID, true
}

// actingUser resolves the acting user header, defaulting to "system"
func actingUser(c *gin.Context) string {
	if user := strings.TrimSpace(c.GetHeader(ActingUserHeader)); user != "" {
		return user
	}
	return "system"
}

// isNotFoundMessage classifies service errors that should surface as 404
func isNotFoundMessage(err error) bool {
	return strings.Contains(err.Error(), "not found")
}
