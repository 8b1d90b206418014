package fees

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines fee configuration persistence operations.
// Get returns (nil, nil) when the tenant has no stored configuration,
// letting the caller fall back to a bank preset.
type Repository interface {
	Get(ctx context.Context, tenantID uuid.UUID) (*FeeConfiguration, error)
	Save(ctx context.Context, cfg *FeeConfiguration) error
}
