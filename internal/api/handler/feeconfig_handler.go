package handler

import (
	"errors"
	"log/slog"

	"github.com/careledger/careledger/internal/api/service"
	"github.com/careledger/careledger/internal/domain/fees"
	"github.com/careledger/careledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// FeeConfigurationHandler handles HTTP requests for fee schedule operations
type FeeConfigurationHandler struct {
	feeConfigService service.FeeConfigurationService
	logger           *slog.Logger
}

// NewFeeConfigurationHandler creates a new fee configuration handler
func NewFeeConfigurationHandler(logger *slog.Logger, feeConfigService service.FeeConfigurationService) *FeeConfigurationHandler {
	return &FeeConfigurationHandler{
		feeConfigService: feeConfigService,
		logger:           logger,
	}
}

// Get returns the tenant's effective fee configuration
func (h *FeeConfigurationHandler) Get(c *gin.Context) {
	tenantID, ok := tenantIDParam(c)
	if !ok {
		return
	}

	cfg, err := h.feeConfigService.Get(c.Request.Context(), tenantID)
	if err != nil {
		h.logger.Error("Failed to get fee configuration", "tenant_id", tenantID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, cfg)
}

// Update replaces the tenant's whole fee configuration
func (h *FeeConfigurationHandler) Update(c *gin.Context) {
	tenantID, ok := tenantIDParam(c)
	if !ok {
		return
	}

	var req UpdateFeeConfigurationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	cfg := req.toFeeConfiguration()
	if err := h.feeConfigService.Update(c.Request.Context(), tenantID, cfg); err != nil {
		var validationErr *fees.ValidationError
		if errors.As(err, &validationErr) {
			RespondValidationFailed(c, validationErr.Violations)
			return
		}
		h.logger.Error("Failed to update fee configuration", "tenant_id", tenantID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, cfg)
}

// AddRule appends one rule to the tenant's configuration
func (h *FeeConfigurationHandler) AddRule(c *gin.Context) {
	tenantID, ok := tenantIDParam(c)
	if !ok {
		return
	}

	var req FeeRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.feeConfigService.AddRule(c.Request.Context(), tenantID, req.toFeeRule()); err != nil {
		var validationErr *fees.ValidationError
		if errors.As(err, &validationErr) {
			RespondValidationFailed(c, validationErr.Violations)
			return
		}
		h.logger.Error("Failed to add fee rule", "tenant_id", tenantID.String(), "fee_type", req.FeeType, "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, gin.H{"fee_type": req.FeeType})
}

// RemoveRule drops every rule with the given fee type
func (h *FeeConfigurationHandler) RemoveRule(c *gin.Context) {
	tenantID, ok := tenantIDParam(c)
	if !ok {
		return
	}

	feeType := shared.FeeType(c.Param("feeType"))
	if err := h.feeConfigService.RemoveRule(c.Request.Context(), tenantID, feeType); err != nil {
		if isNotFoundMessage(err) {
			RespondNotFound(c, err.Error())
			return
		}
		h.logger.Error("Failed to remove fee rule", "tenant_id", tenantID.String(), "fee_type", string(feeType), "error", err)
		RespondInternalError(c)
		return
	}

	RespondNoContent(c)
}
