package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebtStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    DebtStatus
		to      DebtStatus
		allowed bool
	}{
		{"draft to pending verification", DebtStatusDraft, DebtStatusPendingVerification, true},
		{"draft to verified", DebtStatusDraft, DebtStatusVerified, true},
		{"draft cannot resolve", DebtStatusDraft, DebtStatusResolvedPaid, false},
		{"pending to verified", DebtStatusPendingVerification, DebtStatusVerified, true},
		{"verified to initial letter", DebtStatusVerified, DebtStatusInitialLetterSent, true},
		{"verified to mediation", DebtStatusVerified, DebtStatusInMediation, true},
		{"verified cannot skip to litigation", DebtStatusVerified, DebtStatusLitigation, false},
		{"initial letter to attorney review", DebtStatusInitialLetterSent, DebtStatusAttorneyReview, true},
		{"attorney letter to litigation", DebtStatusAttorneyLetterSent, DebtStatusLitigation, true},
		{"mediation to plan active", DebtStatusInMediation, DebtStatusPaymentPlanActive, true},
		{"plan active to defaulted", DebtStatusPaymentPlanActive, DebtStatusPaymentPlanDefaulted, true},
		{"plan active cannot go back to mediation", DebtStatusPaymentPlanActive, DebtStatusInMediation, false},
		{"defaulted back to mediation", DebtStatusPaymentPlanDefaulted, DebtStatusInMediation, true},
		{"defaulted to litigation", DebtStatusPaymentPlanDefaulted, DebtStatusLitigation, true},
		{"litigation is a dead end for the pipeline", DebtStatusLitigation, DebtStatusInMediation, false},

		// Payments settle any live debt except an unverified draft.
		{"plan active to resolved paid", DebtStatusPaymentPlanActive, DebtStatusResolvedPaid, true},
		{"litigation to resolved paid", DebtStatusLitigation, DebtStatusResolvedPaid, true},
		{"verified to resolved partial", DebtStatusVerified, DebtStatusResolvedPartial, true},

		// Disputes pause collection from any non-terminal state.
		{"verified to disputed", DebtStatusVerified, DebtStatusDisputed, true},
		{"plan active to disputed", DebtStatusPaymentPlanActive, DebtStatusDisputed, true},
		{"litigation to disputed", DebtStatusLitigation, DebtStatusDisputed, true},
		{"disputed restores verified", DebtStatusDisputed, DebtStatusVerified, true},
		{"disputed restores mediation", DebtStatusDisputed, DebtStatusInMediation, true},
		{"disputed cannot be accelerated", DebtStatusDisputed, DebtStatusPaymentPlanDefaulted, false},

		// Write-off is always available to staff.
		{"verified to written off", DebtStatusVerified, DebtStatusWrittenOff, true},
		{"disputed to written off", DebtStatusDisputed, DebtStatusWrittenOff, true},

		// Terminal states never transition.
		{"resolved paid is terminal", DebtStatusResolvedPaid, DebtStatusDisputed, false},
		{"written off is terminal", DebtStatusWrittenOff, DebtStatusVerified, false},

		{"self transition rejected", DebtStatusVerified, DebtStatusVerified, false},
		{"unknown target rejected", DebtStatusVerified, DebtStatus("bogus"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestDebtStatus_Terminal(t *testing.T) {
	assert.True(t, DebtStatusResolvedPaid.Terminal())
	assert.True(t, DebtStatusWrittenOff.Terminal())
	assert.False(t, DebtStatusResolvedPartial.Terminal())
	assert.False(t, DebtStatusLitigation.Terminal())
}

func TestDebt_ApplyPayment(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	debt := &Debt{CurrentAmount: 50000, TotalPaid: 0}

	settled := debt.ApplyPayment(20000, now)
	assert.False(t, settled)
	assert.Equal(t, int64(30000), debt.CurrentAmount)
	assert.Equal(t, int64(20000), debt.TotalPaid)
	assert.Equal(t, now, *debt.LastPaymentDate)

	settled = debt.ApplyPayment(30000, now)
	assert.True(t, settled)
	assert.Equal(t, int64(0), debt.CurrentAmount)
}

func TestDebt_ApplyPayment_OverpaymentClampsAtZero(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	debt := &Debt{CurrentAmount: 10000}
	settled := debt.ApplyPayment(25000, now)

	assert.True(t, settled)
	assert.Equal(t, int64(0), debt.CurrentAmount)
	assert.Equal(t, int64(25000), debt.TotalPaid)
}
