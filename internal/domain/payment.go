package domain

import (
	"time"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

const (
	PaymentMethodCard         = "card"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodCash         = "cash"
	PaymentMethodOther        = "other"
)

// Payment is an immutable record of one successful monetary transfer applied
// to a debt and optionally to one installment. ProcessorPaymentID carries the
// external idempotency key; the ledger rejects duplicates.
type Payment struct {
	ID                 string        `json:"id" db:"id"`
	TenantID           string        `json:"tenant_id" db:"tenant_id"`
	DebtID             string        `json:"debt_id" db:"debt_id"`
	InstallmentID      *string       `json:"installment_id,omitempty" db:"installment_id"`
	Amount             int64         `json:"amount" db:"amount"`
	Currency           string        `json:"currency" db:"currency"`
	PaymentMethod      string        `json:"payment_method" db:"payment_method"`
	Processor          string        `json:"processor" db:"processor"`
	ProcessorPaymentID string        `json:"processor_payment_id" db:"processor_payment_id"`
	Status             PaymentStatus `json:"status" db:"status"`
	PaidAt             time.Time     `json:"paid_at" db:"paid_at"`
	CreatedAt          time.Time     `json:"created_at" db:"created_at"`
}

// ProcessorEvent is the payload of an asynchronous "payment succeeded" event
// delivered by the payment processor. Delivery is at-least-once; events are
// deduplicated by ProcessorPaymentID.
type ProcessorEvent struct {
	ProcessorPaymentID string `json:"processor_payment_id" validate:"required"`
	Amount             int64  `json:"amount"`
	Currency           string `json:"currency"`
	TenantID           string `json:"tenant_id"`
	DebtID             string `json:"debt_id"`
	InstallmentID      string `json:"installment_id"`
}

// Complete reports whether the event carries everything needed to apply it
// without fetching metadata from the processor.
func (e *ProcessorEvent) Complete() bool {
	return e.TenantID != "" && e.DebtID != "" && e.Amount > 0
}
