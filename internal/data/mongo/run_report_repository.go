package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/careledger/careledger/internal/domain/reconciliation"
)

const (
	// RunReportCollectionName is the name of the run history collection
	RunReportCollectionName = "reconciliation_runs"
)

// RunReportRepository implements reconciliation.RunReportRepository for MongoDB
type RunReportRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewRunReportRepository creates a new MongoDB run report repository
func NewRunReportRepository(logger *slog.Logger, db *mongo.Database) reconciliation.RunReportRepository {
	return &RunReportRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores one reconciliation run report
func (r *RunReportRepository) Create(ctx context.Context, report *reconciliation.RunReport) error {
	collection := r.db.Collection(RunReportCollectionName)

	_, err := collection.InsertOne(ctx, report)
	if err != nil {
		r.logger.Error("Failed to store run report",
			"tenant_id", report.TenantID.String(),
			"mode", string(report.Mode),
			"error", err)
		return fmt.Errorf("failed to store run report: %w", err)
	}

	return nil
}

// ListByTenant retrieves paginated run reports for a tenant, newest first
func (r *RunReportRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*reconciliation.RunReport, error) {
	collection := r.db.Collection(RunReportCollectionName)

	filter := bson.M{"tenant_id": tenantID}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list run reports",
			"tenant_id", tenantID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to list run reports: %w", err)
	}
	defer cursor.Close(ctx)

	var reports []*reconciliation.RunReport
	if err := cursor.All(ctx, &reports); err != nil {
		r.logger.Error("Failed to decode run reports",
			"tenant_id", tenantID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode run reports: %w", err)
	}

	return reports, nil
}
