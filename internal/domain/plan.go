package domain

import (
	"time"
)

// PlanStatus is the lifecycle state of a payment plan.
type PlanStatus string

const (
	PlanStatusDraft     PlanStatus = "draft"
	PlanStatusProposed  PlanStatus = "proposed"
	PlanStatusActive    PlanStatus = "active"
	PlanStatusCompleted PlanStatus = "completed"
	PlanStatusDefaulted PlanStatus = "defaulted"
	PlanStatusCancelled PlanStatus = "cancelled"
)

func (s PlanStatus) Valid() bool {
	switch s {
	case PlanStatusDraft, PlanStatusProposed, PlanStatusActive,
		PlanStatusCompleted, PlanStatusDefaulted, PlanStatusCancelled:
		return true
	}
	return false
}

// Open reports whether the plan still blocks a new plan proposal on the
// same debt. A debt has at most one open plan at a time.
func (s PlanStatus) Open() bool {
	return s == PlanStatusProposed || s == PlanStatusActive
}

func (s PlanStatus) CanTransitionTo(next PlanStatus) bool {
	switch s {
	case PlanStatusDraft:
		return next == PlanStatusProposed || next == PlanStatusCancelled
	case PlanStatusProposed:
		return next == PlanStatusActive || next == PlanStatusCancelled
	case PlanStatusActive:
		return next == PlanStatusCompleted || next == PlanStatusDefaulted
	case PlanStatusCompleted, PlanStatusDefaulted, PlanStatusCancelled:
		return false
	}
	return false
}

// InstallmentFrequency determines the spacing between installment due dates.
// Monthly means a fixed 30-day interval, not a calendar month.
type InstallmentFrequency string

const (
	FrequencyWeekly   InstallmentFrequency = "weekly"
	FrequencyBiweekly InstallmentFrequency = "biweekly"
	FrequencyMonthly  InstallmentFrequency = "monthly"
)

func (f InstallmentFrequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
		return true
	}
	return false
}

// IntervalDays returns the number of days between consecutive due dates.
func (f InstallmentFrequency) IntervalDays() int {
	switch f {
	case FrequencyWeekly:
		return 7
	case FrequencyBiweekly:
		return 14
	case FrequencyMonthly:
		return 30
	}
	return 30
}

// PaymentPlan is an agreed or proposed installment schedule against exactly
// one debt. total_amount must cover the full outstanding balance at proposal
// time, down payment included.
type PaymentPlan struct {
	ID                   string               `json:"id" db:"id"`
	TenantID             string               `json:"tenant_id" db:"tenant_id"`
	DebtID               string               `json:"debt_id" db:"debt_id"`
	TotalAmount          int64                `json:"total_amount" db:"total_amount"`
	DownPayment          int64                `json:"down_payment" db:"down_payment"`
	InstallmentAmount    int64                `json:"installment_amount" db:"installment_amount"`
	InstallmentCount     int                  `json:"installment_count" db:"installment_count"`
	InstallmentFrequency InstallmentFrequency `json:"installment_frequency" db:"installment_frequency"`
	StartDate            time.Time            `json:"start_date" db:"start_date"`
	Status               PlanStatus           `json:"status" db:"status"`
	AgreedByClient       bool                 `json:"agreed_by_client" db:"agreed_by_client"`
	AgreementDate        *time.Time           `json:"agreement_date,omitempty" db:"agreement_date"`
	DefaultDate          *time.Time           `json:"default_date,omitempty" db:"default_date"`
	GracePeriodDays      int                  `json:"grace_period_days" db:"grace_period_days"`
	AccelerationEnabled  bool                 `json:"acceleration_enabled" db:"acceleration_enabled"`
	Version              int64                `json:"version" db:"version"`
	CreatedAt            time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at" db:"updated_at"`
}

// DTOs for requests and responses

type ProposePlanRequest struct {
	MonthlyAmount int64                `json:"monthly_amount" validate:"required,gt=0"`
	Months        int                  `json:"number_of_months" validate:"required,gt=0"`
	DownPayment   int64                `json:"down_payment" validate:"gte=0"`
	Frequency     InstallmentFrequency `json:"frequency"`
	Reason        string               `json:"reason"`
}

type RejectPlanRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type PlanScheduleResponse struct {
	Plan         *PaymentPlan   `json:"plan"`
	Installments []*Installment `json:"installments"`
}
