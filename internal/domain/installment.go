package domain

import (
	"time"
)

// InstallmentStatus is the state of a single scheduled payment.
type InstallmentStatus string

const (
	InstallmentStatusPending InstallmentStatus = "pending"
	InstallmentStatusPaid    InstallmentStatus = "paid"
	InstallmentStatusPartial InstallmentStatus = "partial"
	InstallmentStatusOverdue InstallmentStatus = "overdue"
	InstallmentStatusWaived  InstallmentStatus = "waived"
)

// Installment is one scheduled payment belonging to exactly one payment plan.
// Installments are generated in bulk when a plan is approved and are never
// deleted individually, only bulk-waived on plan default.
type Installment struct {
	ID                string            `json:"id" db:"id"`
	TenantID          string            `json:"tenant_id" db:"tenant_id"`
	PaymentPlanID     string            `json:"payment_plan_id" db:"payment_plan_id"`
	DebtID            string            `json:"debt_id" db:"debt_id"`
	InstallmentNumber int               `json:"installment_number" db:"installment_number"`
	Amount            int64             `json:"amount" db:"amount"`
	DueDate           time.Time         `json:"due_date" db:"due_date"`
	Status            InstallmentStatus `json:"status" db:"status"`
	Paid              bool              `json:"paid" db:"paid"`
	PaidAmount        int64             `json:"paid_amount" db:"paid_amount"`
	PaidDate          *time.Time        `json:"paid_date,omitempty" db:"paid_date"`
	CreatedAt         time.Time         `json:"created_at" db:"created_at"`
}

// Unpaid reports whether the installment still awaits settlement and is
// therefore eligible for reminders, overdue marking and waiving.
func (i *Installment) Unpaid() bool {
	return !i.Paid
}

// RecordPayment marks the installment settled with the given amount. A payment
// covering the full amount closes it, anything smaller leaves it partial.
func (i *Installment) RecordPayment(amount int64, now time.Time) {
	i.PaidAmount = amount
	i.Paid = amount >= i.Amount
	paidAt := now
	i.PaidDate = &paidAt
	if i.Paid {
		i.Status = InstallmentStatusPaid
	} else {
		i.Status = InstallmentStatusPartial
	}
}

type RecordInstallmentPaymentRequest struct {
	Amount             int64  `json:"amount" validate:"required,gt=0"`
	PaymentMethod      string `json:"payment_method" validate:"required"`
	Processor          string `json:"processor"`
	ProcessorPaymentID string `json:"processor_payment_id"`
}
