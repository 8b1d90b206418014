package fees

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/careledger/careledger/internal/domain/shared"
	"github.com/google/uuid"
)

// FeeRule is one configurable fee policy owned by a tenant's
// FeeConfiguration. Rules are treated as immutable once a historical fee
// computation referenced them; mutation happens by replacing the
// configuration, never by editing a rule in place.
type FeeRule struct {
	FeeType          shared.FeeType           `json:"fee_type"`
	ApplicableTypes  []shared.TransactionType `json:"applicable_types"`
	FixedAmountCents int64                    `json:"fixed_amount_cents"`
	PercentageRate   *float64                 `json:"percentage_rate,omitempty"`
	MinAmountCents   *int64                   `json:"min_amount_cents,omitempty"`
	MaxAmountCents   *int64                   `json:"max_amount_cents,omitempty"`
	IsActive         bool                     `json:"is_active"`
	Description      string                   `json:"description"`
}

// AppliesTo reports whether the rule covers the given transaction type
func (r *FeeRule) AppliesTo(txType shared.TransactionType) bool {
	for _, t := range r.ApplicableTypes {
		if t == txType {
			return true
		}
	}
	return false
}

// Admits reports whether the amount falls inside the rule's inclusive
// [min, max] thresholds. Unset bounds admit everything on that side.
func (r *FeeRule) Admits(amountCents int64) bool {
	if r.MinAmountCents != nil && amountCents < *r.MinAmountCents {
		return false
	}
	if r.MaxAmountCents != nil && amountCents > *r.MaxAmountCents {
		return false
	}
	return true
}

// FeeFor computes the fee in cents for the given transaction amount:
// fixed component plus the rounded percentage component when a rate is set.
func (r *FeeRule) FeeFor(amountCents int64) int64 {
	fee := r.FixedAmountCents
	if r.PercentageRate != nil {
		fee += int64(math.Round(float64(amountCents) * *r.PercentageRate))
	}
	return fee
}

// validate collects every violation on the rule instead of failing fast,
// so a caller can report the full set of problems in one response.
func (r *FeeRule) validate() []string {
	var violations []string

	if r.FeeType == "" {
		violations = append(violations, "fee type is required")
	}
	if len(r.ApplicableTypes) == 0 {
		violations = append(violations, fmt.Sprintf("rule %s: applicable types cannot be empty", r.FeeType))
	}
	if r.FixedAmountCents < 0 {
		violations = append(violations, fmt.Sprintf("rule %s: fixed amount cannot be negative", r.FeeType))
	}
	if r.PercentageRate != nil && (*r.PercentageRate < 0 || *r.PercentageRate > 1) {
		violations = append(violations, fmt.Sprintf("rule %s: percentage rate must be within [0,1]", r.FeeType))
	}
	if r.MinAmountCents != nil && r.MaxAmountCents != nil && *r.MinAmountCents > *r.MaxAmountCents {
		violations = append(violations, fmt.Sprintf("rule %s: min amount exceeds max amount", r.FeeType))
	}

	return violations
}

// CalculatedFee is one expected fee emitted by the rule engine for a
// matching rule.
type CalculatedFee struct {
	FeeType        shared.FeeType `json:"fee_type"`
	FeeAmountCents int64          `json:"fee_amount_cents"`
	Description    string         `json:"description"`
}

// FeeConfiguration is the per-tenant fee schedule: an ordered rule list
// plus a fallback amount, seeded from a bank preset when the tenant has
// no stored override.
type FeeConfiguration struct {
	TenantID        uuid.UUID         `json:"tenant_id"`
	BankPreset      shared.BankPreset `json:"bank_preset"`
	Rules           []FeeRule         `json:"rules"`
	DefaultFeeCents int64             `json:"default_fee_cents"`
	IsEnabled       bool              `json:"is_enabled"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// Validate checks the whole configuration, collecting every violation
// across all rules. A configuration with any violation is rejected
// wholesale.
func (c *FeeConfiguration) Validate() error {
	var violations []string

	if c.DefaultFeeCents < 0 {
		violations = append(violations, "default fee cannot be negative")
	}
	for i := range c.Rules {
		violations = append(violations, c.Rules[i].validate()...)
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// RemoveRule drops every rule with the given fee type, reporting whether
// anything was removed.
func (c *FeeConfiguration) RemoveRule(feeType shared.FeeType) bool {
	kept := c.Rules[:0]
	removed := false
	for _, r := range c.Rules {
		if r.FeeType == feeType {
			removed = true
			continue
		}
		kept = append(kept, r)
	}
	c.Rules = kept
	return removed
}

// ValidationError carries every violation found in a fee configuration
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "invalid fee configuration: " + strings.Join(e.Violations, "; ")
}
