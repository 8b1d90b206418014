package handler

import (
	"github.com/careledger/careledger/internal/domain/fees"
	"github.com/careledger/careledger/internal/domain/shared"
)

// FeeRuleRequest represents one fee rule in configuration requests
type FeeRuleRequest struct {
	FeeType          string   `json:"fee_type" binding:"required"`
	ApplicableTypes  []string `json:"applicable_types" binding:"required,min=1"`
	FixedAmountCents int64    `json:"fixed_amount_cents"`
	PercentageRate   *float64 `json:"percentage_rate,omitempty"`
	MinAmountCents   *int64   `json:"min_amount_cents,omitempty"`
	MaxAmountCents   *int64   `json:"max_amount_cents,omitempty"`
	IsActive         bool     `json:"is_active"`
	Description      string   `json:"description"`
}

// UpdateFeeConfigurationRequest replaces a tenant's whole fee schedule
type UpdateFeeConfigurationRequest struct {
	BankPreset      string           `json:"bank_preset"`
	Rules           []FeeRuleRequest `json:"rules" binding:"required"`
	DefaultFeeCents int64            `json:"default_fee_cents"`
	IsEnabled       bool             `json:"is_enabled"`
}

// DetectRequest scores a single bank/accounting amount pair
type DetectRequest struct {
	BankAmountCents       int64  `json:"bank_amount_cents" binding:"required,gt=0"`
	AccountingAmountCents int64  `json:"accounting_amount_cents" binding:"required,gt=0"`
	Description           string `json:"description" binding:"required"`
	PayeeName             string `json:"payee_name,omitempty"`
	Reference             string `json:"reference,omitempty"`
}

// MonthlyReconcileRequest bounds the settlement window
type MonthlyReconcileRequest struct {
	StartDate string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" binding:"required,datetime=2006-01-02"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=20" binding:"min=1,max=100"`
}

// toFeeRule maps a rule request to its domain form
func (r *FeeRuleRequest) toFeeRule() fees.FeeRule {
	applicable := make([]shared.TransactionType, 0, len(r.ApplicableTypes))
	for _, t := range r.ApplicableTypes {
		applicable = append(applicable, shared.TransactionType(t))
	}

	return fees.FeeRule{
		FeeType:          shared.FeeType(r.FeeType),
		ApplicableTypes:  applicable,
		FixedAmountCents: r.FixedAmountCents,
		PercentageRate:   r.PercentageRate,
		MinAmountCents:   r.MinAmountCents,
		MaxAmountCents:   r.MaxAmountCents,
		IsActive:         r.IsActive,
		Description:      r.Description,
	}
}

// toFeeConfiguration maps an update request to its domain form. TenantID
// and UpdatedAt are stamped by the fee rule engine.
func (r *UpdateFeeConfigurationRequest) toFeeConfiguration() *fees.FeeConfiguration {
	rules := make([]fees.FeeRule, 0, len(r.Rules))
	for i := range r.Rules {
		rules = append(rules, r.Rules[i].toFeeRule())
	}

	return &fees.FeeConfiguration{
		BankPreset:      shared.BankPreset(r.BankPreset),
		Rules:           rules,
		DefaultFeeCents: r.DefaultFeeCents,
		IsEnabled:       r.IsEnabled,
	}
}
