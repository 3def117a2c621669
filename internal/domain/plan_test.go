package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlanStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    PlanStatus
		to      PlanStatus
		allowed bool
	}{
		{"proposed to active", PlanStatusProposed, PlanStatusActive, true},
		{"proposed to cancelled", PlanStatusProposed, PlanStatusCancelled, true},
		{"proposed cannot complete", PlanStatusProposed, PlanStatusCompleted, false},
		{"active to completed", PlanStatusActive, PlanStatusCompleted, true},
		{"active to defaulted", PlanStatusActive, PlanStatusDefaulted, true},
		{"active cannot be cancelled", PlanStatusActive, PlanStatusCancelled, false},
		{"defaulted is terminal", PlanStatusDefaulted, PlanStatusActive, false},
		{"completed is terminal", PlanStatusCompleted, PlanStatusDefaulted, false},
		{"cancelled is terminal", PlanStatusCancelled, PlanStatusProposed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestPlanStatus_Open(t *testing.T) {
	assert.True(t, PlanStatusProposed.Open())
	assert.True(t, PlanStatusActive.Open())
	assert.False(t, PlanStatusCompleted.Open())
	assert.False(t, PlanStatusDefaulted.Open())
	assert.False(t, PlanStatusCancelled.Open())
}

func TestInstallmentFrequency_IntervalDays(t *testing.T) {
	assert.Equal(t, 7, FrequencyWeekly.IntervalDays())
	assert.Equal(t, 14, FrequencyBiweekly.IntervalDays())
	assert.Equal(t, 30, FrequencyMonthly.IntervalDays())
}

func TestInstallment_RecordPayment(t *testing.T) {
	now := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)

	t.Run("full payment closes the installment", func(t *testing.T) {
		inst := &Installment{Amount: 5000, Status: InstallmentStatusPending}
		inst.RecordPayment(5000, now)

		assert.True(t, inst.Paid)
		assert.Equal(t, InstallmentStatusPaid, inst.Status)
		assert.Equal(t, int64(5000), inst.PaidAmount)
		assert.Equal(t, now, *inst.PaidDate)
	})

	t.Run("partial payment leaves it open", func(t *testing.T) {
		inst := &Installment{Amount: 5000, Status: InstallmentStatusPending}
		inst.RecordPayment(2000, now)

		assert.False(t, inst.Paid)
		assert.Equal(t, InstallmentStatusPartial, inst.Status)
		assert.Equal(t, int64(2000), inst.PaidAmount)
	})

	t.Run("overpayment still closes it", func(t *testing.T) {
		inst := &Installment{Amount: 5000, Status: InstallmentStatusOverdue}
		inst.RecordPayment(6000, now)

		assert.True(t, inst.Paid)
		assert.Equal(t, InstallmentStatusPaid, inst.Status)
	})
}

func TestProcessorEvent_Complete(t *testing.T) {
	assert.True(t, (&ProcessorEvent{TenantID: "t1", DebtID: "d1", Amount: 100}).Complete())
	assert.False(t, (&ProcessorEvent{TenantID: "t1", DebtID: "d1"}).Complete())
	assert.False(t, (&ProcessorEvent{DebtID: "d1", Amount: 100}).Complete())
	assert.False(t, (&ProcessorEvent{TenantID: "t1", Amount: 100}).Complete())
}
