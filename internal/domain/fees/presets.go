package fees

import (
	"time"

	"github.com/careledger/careledger/internal/domain/shared"
	"github.com/google/uuid"
)

func ptrInt64(v int64) *int64       { return &v }
func ptrFloat64(v float64) *float64 { return &v }

// PresetConfiguration builds the canned fee schedule for a known bank.
// Unknown presets fall back to the generic schedule. The returned
// configuration belongs to the caller and can be mutated freely.
func PresetConfiguration(tenantID uuid.UUID, preset shared.BankPreset) *FeeConfiguration {
	cfg := &FeeConfiguration{
		TenantID:        tenantID,
		BankPreset:      preset,
		DefaultFeeCents: 500,
		IsEnabled:       true,
		UpdatedAt:       time.Now(),
	}

	switch preset {
	case shared.BankPresetFNB:
		cfg.Rules = fnbRules()
	case shared.BankPresetStandardBank:
		cfg.Rules = standardBankRules()
	case shared.BankPresetCapitec:
		cfg.Rules = capitecRules()
	case shared.BankPresetABSA, shared.BankPresetNedbank:
		// No bank-specific schedule captured yet; these track the generic one
		cfg.Rules = genericRules()
	default:
		cfg.BankPreset = shared.BankPresetGeneric
		cfg.Rules = genericRules()
	}

	return cfg
}

func fnbRules() []FeeRule {
	return []FeeRule{
		{
			FeeType:          shared.FeeTypeADTDeposit,
			ApplicableTypes:  []shared.TransactionType{shared.TransactionTypeADTDeposit},
			FixedAmountCents: 0,
			PercentageRate:   ptrFloat64(0.00147),
			IsActive:         true,
			Description:      "ADT cash deposit fee (0.147% of deposit value)",
		},
		{
			FeeType:          shared.FeeTypeEFTCredit,
			ApplicableTypes:  []shared.TransactionType{shared.TransactionTypeEFTCredit},
			FixedAmountCents: 650,
			IsActive:         true,
			Description:      "Inward EFT credit fee",
		},
		{
			FeeType:          shared.FeeTypeCardTransaction,
			ApplicableTypes:  []shared.TransactionType{shared.TransactionTypeCardPurchase, shared.TransactionTypeFuelPurchase},
			FixedAmountCents: 0,
			PercentageRate:   ptrFloat64(0.0275),
			IsActive:         true,
			Description:      "Card acquiring fee (2.75% of purchase value)",
		},
		{
			FeeType:          shared.FeeTypeRTCPayment,
			ApplicableTypes:  []shared.TransactionType{shared.TransactionTypeRTCPayment},
			FixedAmountCents: 4500,
			IsActive:         true,
			Description:      "Real-time clearing payment fee",
		},
		{
			FeeType:          shared.FeeTypeSendMoney,
			ApplicableTypes:  []shared.TransactionType{shared.TransactionTypeSendMoney},
			FixedAmountCents: 1000,
			MaxAmountCents:   ptrInt64(500000),
			IsActive:         true,
			Description:      "eWallet send money fee (amounts up to R5,000)",
		},
		{
			FeeType:          shared.FeeTypeDebitOrder,
			ApplicableTypes:  []shared.TransactionType{shared.TransactionTypeDebitOrder},
			FixedAmountCents: 350,
			IsActive:         true,
			Description:      "Debit order processing fee",
		},
	}
}

func standardBankRules() []FeeRule {
	return []FeeRule{
		{
			FeeType:          shared.FeeTypeADTDeposit,
			ApplicableTypes:  []shared.TransactionType{shared.TransactionTypeADTDeposit},
			FixedAmountCents: 200,
			PercentageRate:   ptrFloat64(0.0013),
			IsActive:         true,
			Description:      "Auto deposit fee (R2.00 + 0.13%)",
		},
		{
			FeeType:          shared.FeeTypeEFTCredit,
			ApplicableTypes:  []shared.TransactionType{shared.TransactionTypeEFTCredit},
			FixedAmountCents: 550,
			IsActive:         true,
			Description:      "Electronic credit fee",
		},
		{
			FeeType:          shared.FeeTypeRTCPayment,
			ApplicableTypes:  []shared.TransactionType{shared.TransactionTypeRTCPayment},
			FixedAmountCents: 5000,
			IsActive:         true,
			Description:      "Instant payment fee",
		},
		{
			FeeType:          shared.FeeTypeCashWithdrawal,
			ApplicableTypes:  []shared.TransactionType{shared.TransactionTypeCashWithdrawal},
			FixedAmountCents: 1000,
			PercentageRate:   ptrFloat64(0.002),
			IsActive:         true,
			Description:      "ATM cash withdrawal fee",
		},
	}
}

func capitecRules() []FeeRule {
	return []FeeRule{
		{
			FeeType:          shared.FeeTypeADTDeposit,
			ApplicableTypes:  []shared.TransactionType{shared.TransactionTypeADTDeposit},
			FixedAmountCents: 100,
			PercentageRate:   ptrFloat64(0.001),
			IsActive:         true,
			Description:      "Cash deposit fee (R1.00 + 0.1%)",
		},
		{
			FeeType:          shared.FeeTypeEFTCredit,
			ApplicableTypes:  []shared.TransactionType{shared.TransactionTypeEFTCredit},
			FixedAmountCents: 0,
			IsActive:         true,
			Description:      "Inward EFT (free)",
		},
		{
			FeeType:          shared.FeeTypeSendMoney,
			ApplicableTypes:  []shared.TransactionType{shared.TransactionTypeSendMoney},
			FixedAmountCents: 900,
			MaxAmountCents:   ptrInt64(300000),
			IsActive:         true,
			Description:      "Cash send fee (amounts up to R3,000)",
		},
	}
}

func genericRules() []FeeRule {
	return []FeeRule{
		{
			FeeType:          shared.FeeTypeADTDeposit,
			ApplicableTypes:  []shared.TransactionType{shared.TransactionTypeADTDeposit},
			FixedAmountCents: 0,
			PercentageRate:   ptrFloat64(0.0015),
			IsActive:         true,
			Description:      "Cash deposit fee (0.15% of deposit value)",
		},
		{
			FeeType:          shared.FeeTypeEFTCredit,
			ApplicableTypes:  []shared.TransactionType{shared.TransactionTypeEFTCredit},
			FixedAmountCents: 600,
			IsActive:         true,
			Description:      "Inward EFT credit fee",
		},
		{
			FeeType:          shared.FeeTypeCardTransaction,
			ApplicableTypes:  []shared.TransactionType{shared.TransactionTypeCardPurchase, shared.TransactionTypeFuelPurchase},
			FixedAmountCents: 0,
			PercentageRate:   ptrFloat64(0.03),
			IsActive:         true,
			Description:      "Card acquiring fee (3% of purchase value)",
		},
		{
			FeeType:          shared.FeeTypeRTCPayment,
			ApplicableTypes:  []shared.TransactionType{shared.TransactionTypeRTCPayment},
			FixedAmountCents: 4000,
			IsActive:         true,
			Description:      "Real-time clearing payment fee",
		},
	}
}
