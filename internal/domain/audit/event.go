// Package audit defines the structured events the engine emits to the
// external audit sink. The sink is consumed, not owned: emission is
// best-effort and must never roll back a committed financial correction.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is one structured audit record
type Event struct {
	ID           uuid.UUID `json:"id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	EntityType   string    `json:"entity_type"`
	EntityID     uuid.UUID `json:"entity_id"`
	Action       string    `json:"action"`
	BeforeValue  string    `json:"before_value"`
	AfterValue   string    `json:"after_value"`
	Summary      string    `json:"summary"`
	ActingUserID string    `json:"acting_user_id"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Sink receives audit events. Implementations decide transport and
// durability; callers treat Emit failures as non-fatal.
type Sink interface {
	Emit(ctx context.Context, event *Event) error
}

// NewCorrectionEvent builds the audit event for one applied fee correction.
// Before-value is the GROSS amount; after-value carries the NET amount plus
// the extracted fee.
func NewCorrectionEvent(tenantID, transactionID uuid.UUID, grossCents, netCents, feeCents int64, feeType, actingUserID string) *Event {
	return &Event{
		ID:           uuid.New(),
		TenantID:     tenantID,
		EntityType:   "Transaction",
		EntityID:     transactionID,
		Action:       "BANK_FEE_CORRECTION",
		BeforeValue:  fmt.Sprintf(`{"amount_cents":%d}`, grossCents),
		AfterValue:   fmt.Sprintf(`{"amount_cents":%d,"accrued_fee_cents":%d}`, netCents, feeCents),
		Summary:      fmt.Sprintf("corrected transaction amount from %d to %d cents, accruing %s of %d cents", grossCents, netCents, feeType, feeCents),
		ActingUserID: actingUserID,
		OccurredAt:   time.Now().UTC(),
	}
}
