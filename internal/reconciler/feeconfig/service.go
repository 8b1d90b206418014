// Package feeconfig implements the per-tenant fee rule engine: resolution
// of the tenant's fee schedule (stored override or bank preset), expected
// fee computation, and rule mutation with wholesale validation.
package feeconfig

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/careledger/careledger/internal/domain/fees"
	"github.com/careledger/careledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Service is the fee rule engine
type Service struct {
	repo   fees.Repository
	cache  *Cache
	logger *slog.Logger
}

// NewService creates a new fee rule engine
func NewService(repo fees.Repository, cache *Cache, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// Get resolves the tenant's fee configuration: cache, then store, then
// the generic bank preset when the tenant has never stored an override.
func (s *Service) Get(ctx context.Context, tenantID uuid.UUID) (*fees.FeeConfiguration, error) {
	if cfg := s.cache.Get(tenantID); cfg != nil {
		return cfg, nil
	}

	// Snapshot the generation before the store read; a write that lands
	// while the load is in flight bumps it and the Put below is dropped
	gen := s.cache.Generation(tenantID)

	cfg, err := s.repo.Get(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load fee configuration: %w", err)
	}
	if cfg == nil {
		cfg = fees.PresetConfiguration(tenantID, shared.BankPresetGeneric)
		s.logger.Debug("No stored fee configuration, using bank preset", "tenant_id", tenantID.String(), "preset", string(cfg.BankPreset))
	}

	s.cache.Put(tenantID, cfg, gen)
	return cfg, nil
}

// Update validates and replaces the tenant's whole configuration.
// Any violation rejects the update wholesale.
func (s *Service) Update(ctx context.Context, tenantID uuid.UUID, cfg *fees.FeeConfiguration) error {
	cfg.TenantID = tenantID
	cfg.UpdatedAt = time.Now()

	if err := cfg.Validate(); err != nil {
		return err
	}

	// Invalidate before returning so no reader can observe the old entry
	// once the write is acknowledged
	if err := s.repo.Save(ctx, cfg); err != nil {
		return fmt.Errorf("failed to save fee configuration: %w", err)
	}
	s.cache.Invalidate(tenantID)

	s.logger.Info("Fee configuration updated", "tenant_id", tenantID.String(), "rules", len(cfg.Rules))
	return nil
}

// AddRule appends one rule to the tenant's configuration
func (s *Service) AddRule(ctx context.Context, tenantID uuid.UUID, rule fees.FeeRule) error {
	cfg, err := s.Get(ctx, tenantID)
	if err != nil {
		return err
	}

	updated := *cfg
	updated.Rules = append(append([]fees.FeeRule{}, cfg.Rules...), rule)

	return s.Update(ctx, tenantID, &updated)
}

// RemoveRule drops every rule with the given fee type
func (s *Service) RemoveRule(ctx context.Context, tenantID uuid.UUID, feeType shared.FeeType) error {
	cfg, err := s.Get(ctx, tenantID)
	if err != nil {
		return err
	}

	updated := *cfg
	updated.Rules = append([]fees.FeeRule{}, cfg.Rules...)
	if !updated.RemoveRule(feeType) {
		return fmt.Errorf("fee rule %s not found for tenant %s", feeType, tenantID)
	}

	return s.Update(ctx, tenantID, &updated)
}

// CalculateFees computes the expected fee for every active rule that
// covers the transaction type and admits the amount. Returns an empty
// slice when the configuration is disabled or nothing matches; "no match"
// is not an error.
func (s *Service) CalculateFees(ctx context.Context, tenantID uuid.UUID, txType shared.TransactionType, amountCents int64) ([]fees.CalculatedFee, error) {
	cfg, err := s.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if !cfg.IsEnabled {
		return nil, nil
	}

	var calculated []fees.CalculatedFee
	for i := range cfg.Rules {
		rule := &cfg.Rules[i]
		if !rule.IsActive || !rule.AppliesTo(txType) || !rule.Admits(amountCents) {
			continue
		}
		calculated = append(calculated, fees.CalculatedFee{
			FeeType:        rule.FeeType,
			FeeAmountCents: rule.FeeFor(amountCents),
			Description:    rule.Description,
		})
	}

	return calculated, nil
}
