package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/careledger/careledger/internal/api/handler"
	"github.com/careledger/careledger/internal/api/middleware"
	"github.com/gin-gonic/gin"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	feeConfigHandler *handler.FeeConfigurationHandler,
	reconciliationHandler *handler.ReconciliationHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints, all tenant-scoped
	v1 := r.Group("/api/v1")
	tenants := v1.Group("/tenants/:tenantId")
	{
		// Fee schedule operations
		feeConfig := tenants.Group("/fee-configuration")
		{
			feeConfig.GET("", feeConfigHandler.Get)
			feeConfig.PUT("", feeConfigHandler.Update)
			feeConfig.POST("/rules", feeConfigHandler.AddRule)
			feeConfig.DELETE("/rules/:feeType", feeConfigHandler.RemoveRule)
		}

		// Reconciliation operations
		reconciliation := tenants.Group("/reconciliation")
		{
			reconciliation.POST("/fees", reconciliationHandler.ReconcileFees)
			reconciliation.POST("/monthly", reconciliationHandler.ReconcileMonthly)
			reconciliation.POST("/detect", reconciliationHandler.Detect)
			reconciliation.GET("/runs", reconciliationHandler.ListRuns)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
