package shared

// TransactionType is the closed set of bank-narrative categories the
// classifier can produce. UNKNOWN is the total fallback.
type TransactionType string

const (
	TransactionTypeADTDeposit     TransactionType = "ADT_DEPOSIT"
	TransactionTypeRTCPayment     TransactionType = "RTC_PAYMENT"
	TransactionTypeFuelPurchase   TransactionType = "FUEL_PURCHASE"
	TransactionTypeSendMoney      TransactionType = "SEND_MONEY"
	TransactionTypeCardPurchase   TransactionType = "CARD_PURCHASE"
	TransactionTypeEFTCredit      TransactionType = "EFT_CREDIT"
	TransactionTypeEFTDebit       TransactionType = "EFT_DEBIT"
	TransactionTypeDebitOrder     TransactionType = "DEBIT_ORDER"
	TransactionTypeCashWithdrawal TransactionType = "CASH_WITHDRAWAL"
	TransactionTypeBankFee        TransactionType = "BANK_FEE"
	TransactionTypeTransfer       TransactionType = "TRANSFER"
	TransactionTypeUnknown        TransactionType = "UNKNOWN"
)

// FeeType identifies one configurable bank fee policy
type FeeType string

const (
	FeeTypeADTDeposit      FeeType = "ADT_DEPOSIT_FEE"
	FeeTypeEFTCredit       FeeType = "EFT_CREDIT_FEE"
	FeeTypeEFTDebit        FeeType = "EFT_DEBIT_FEE"
	FeeTypeCardTransaction FeeType = "CARD_TRANSACTION_FEE"
	FeeTypeRTCPayment      FeeType = "RTC_PAYMENT_FEE"
	FeeTypeSendMoney       FeeType = "SEND_MONEY_FEE"
	FeeTypeDebitOrder      FeeType = "DEBIT_ORDER_FEE"
	FeeTypeCashWithdrawal  FeeType = "CASH_WITHDRAWAL_FEE"
	FeeTypeMonthlyService  FeeType = "MONTHLY_SERVICE_FEE"
)

// MatchStatus defines bank statement match states
type MatchStatus string

const (
	MatchStatusMatched          MatchStatus = "MATCHED"
	MatchStatusAmountMismatch   MatchStatus = "AMOUNT_MISMATCH"
	MatchStatusFeeAdjustedMatch MatchStatus = "FEE_ADJUSTED_MATCH"
	MatchStatusUnmatched        MatchStatus = "UNMATCHED"
)

// ChargeStatus defines accrued bank charge lifecycle states. A charge is
// ACCRUED when extracted by a correction and SETTLED once monthly
// aggregation consumes it against a lump-sum fee transaction.
type ChargeStatus string

const (
	ChargeStatusAccrued ChargeStatus = "ACCRUED"
	ChargeStatusSettled ChargeStatus = "SETTLED"
)

// BankPreset names a bank whose default fee schedule ships with the service
type BankPreset string

const (
	BankPresetFNB          BankPreset = "fnb"
	BankPresetStandardBank BankPreset = "standard_bank"
	BankPresetABSA         BankPreset = "absa"
	BankPresetNedbank      BankPreset = "nedbank"
	BankPresetCapitec      BankPreset = "capitec"
	BankPresetGeneric      BankPreset = "generic"
)
