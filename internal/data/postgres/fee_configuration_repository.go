package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/careledger/careledger/internal/domain/fees"
	"github.com/careledger/careledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// FeeConfigurationRepository stores the per-tenant fee schedule as a JSONB
// blob, mirroring how the tenant-settings store keeps it upstream.
type FeeConfigurationRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewFeeConfigurationRepository creates a new PostgreSQL fee configuration repository
func NewFeeConfigurationRepository(logger *slog.Logger, db *persistence.PostgresDB) fees.Repository {
	return &FeeConfigurationRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Get retrieves the tenant's stored configuration, or (nil, nil) when the
// tenant has never overridden the bank preset.
func (r *FeeConfigurationRepository) Get(ctx context.Context, tenantID uuid.UUID) (*fees.FeeConfiguration, error) {
	query := `
		SELECT config, updated_at
		FROM fee_configurations
		WHERE tenant_id = $1
	`

	var raw []byte
	var updatedAt time.Time
	err := r.querier.QueryRow(ctx, query, tenantID).Scan(&raw, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get fee configuration", "tenant_id", tenantID.String(), "error", err)
		return nil, fmt.Errorf("failed to get fee configuration: %w", err)
	}

	var cfg fees.FeeConfiguration
	if err := json.Unmarshal(raw, &cfg); err != nil {
		r.logger.Error("Failed to decode fee configuration", "tenant_id", tenantID.String(), "error", err)
		return nil, fmt.Errorf("failed to decode fee configuration: %w", err)
	}
	cfg.TenantID = tenantID
	cfg.UpdatedAt = updatedAt

	return &cfg, nil
}

// Save upserts the tenant's configuration blob
func (r *FeeConfigurationRepository) Save(ctx context.Context, cfg *fees.FeeConfiguration) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode fee configuration: %w", err)
	}

	query := `
		INSERT INTO fee_configurations (tenant_id, config, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (tenant_id) DO UPDATE SET config = EXCLUDED.config, updated_at = NOW()
	`

	if _, err := r.querier.Exec(ctx, query, cfg.TenantID, raw); err != nil {
		r.logger.Error("Failed to save fee configuration", "tenant_id", cfg.TenantID.String(), "error", err)
		return fmt.Errorf("failed to save fee configuration: %w", err)
	}

	return nil
}
