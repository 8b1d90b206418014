// Package classifier maps free-text bank narratives to the closed set of
// transaction categories used by the fee rule engine.
package classifier

import (
	"strings"

	"github.com/careledger/careledger/internal/domain/shared"
)

// pattern pairs a set of lowercase tokens with the category the first
// matching token implies.
type pattern struct {
	tokens []string
	txType shared.TransactionType
}

// cascade is evaluated strictly in order and the first match wins.
// Ordering is a correctness requirement: specific categories must be
// tested before broader ones that would otherwise absorb them:
// real-time clearing before generic payment, fuel brands before generic
// card or POS, send money before generic transfer.
var cascade = []pattern{
	{tokens: []string{"adt", "auto deposit", "cash deposit", "cash dep", "cash acc"}, txType: shared.TransactionTypeADTDeposit},
	{tokens: []string{"rtc", "real time clearing", "real-time clearing", "realtime clearing", "immediate payment"}, txType: shared.TransactionTypeRTCPayment},
	{tokens: []string{"engen", "sasol", "caltex", "shell", "bp garage", "total garage", "fuel", "petrol", "diesel"}, txType: shared.TransactionTypeFuelPurchase},
	{tokens: []string{"send money", "ewallet", "e-wallet", "cash send", "cashsend", "instant money"}, txType: shared.TransactionTypeSendMoney},
	{tokens: []string{"pos ", "card purchase", "cheq card", "debit card", "credit card", "card "}, txType: shared.TransactionTypeCardPurchase},
	{tokens: []string{"atm", "cash withdrawal", "cash wd"}, txType: shared.TransactionTypeCashWithdrawal},
	{tokens: []string{"debit order", "debicheck", "naedo", "d/o "}, txType: shared.TransactionTypeDebitOrder},
	{tokens: []string{"eft credit", "eft cr", "inward eft", "deposit"}, txType: shared.TransactionTypeEFTCredit},
	{tokens: []string{"eft debit", "eft dr", "eft"}, txType: shared.TransactionTypeEFTDebit},
	{tokens: []string{"fee", "charge", "commission"}, txType: shared.TransactionTypeBankFee},
	{tokens: []string{"payment", "transfer", "pmt", "trf"}, txType: shared.TransactionTypeTransfer},
}

// Classify concatenates the narrative fields and walks the cascade.
// It is pure and total: any input, including empty strings, yields a
// category, with UNKNOWN as the fallback.
func Classify(description, payeeName, reference string) shared.TransactionType {
	var parts []string
	for _, s := range []string{description, payeeName, reference} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	// Trailing space lets tokens like "pos " and "card " match at the end
	// of the narrative
	text := strings.ToLower(strings.Join(parts, " ")) + " "

	for _, p := range cascade {
		for _, token := range p.tokens {
			if strings.Contains(text, token) {
				return p.txType
			}
		}
	}

	return shared.TransactionTypeUnknown
}
