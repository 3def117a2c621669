package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/inkaso/collections-engine/internal/domain"
)

func TestInstallmentDueDate(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, start.AddDate(0, 0, 30), InstallmentDueDate(start, 1, domain.FrequencyMonthly))
	assert.Equal(t, start.AddDate(0, 0, 300), InstallmentDueDate(start, 10, domain.FrequencyMonthly))
	assert.Equal(t, start.AddDate(0, 0, 7), InstallmentDueDate(start, 1, domain.FrequencyWeekly))
	assert.Equal(t, start.AddDate(0, 0, 28), InstallmentDueDate(start, 2, domain.FrequencyBiweekly))
}

func TestInstallmentDueDate_StrictlyIncreasing(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	prev := start
	for n := 1; n <= 12; n++ {
		due := InstallmentDueDate(start, n, domain.FrequencyMonthly)
		assert.True(t, due.After(prev), "installment %d must be due after installment %d", n, n-1)
		assert.Equal(t, 30*24*time.Hour, due.Sub(prev))
		prev = due
	}
}

func TestCoversOutstanding(t *testing.T) {
	// 10 x 5000 exactly covers 50000
	assert.True(t, CoversOutstanding(0, 5000, 10, 50000))
	// overpayment is tolerated
	assert.True(t, CoversOutstanding(10000, 5000, 10, 50000))
	// underpayment is not
	assert.False(t, CoversOutstanding(0, 1000, 10, 50000))
	assert.False(t, CoversOutstanding(0, 5000, 9, 50000))
	// down payment counts toward the total
	assert.True(t, CoversOutstanding(5000, 5000, 9, 50000))
}

func TestMidnight(t *testing.T) {
	ts := time.Date(2025, 3, 15, 17, 42, 13, 999, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), Midnight(ts))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "500.00 CZK", FormatAmount(50000, "CZK"))
	assert.Equal(t, "50.50 EUR", FormatAmount(5050, "EUR"))
	assert.Equal(t, "0.01 CZK", FormatAmount(1, "CZK"))
	assert.Equal(t, "0.00 CZK", FormatAmount(0, "CZK"))
}

func TestIsDateOverdue(t *testing.T) {
	cutoff := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	assert.True(t, IsDateOverdue(cutoff.AddDate(0, 0, -1), cutoff))
	assert.False(t, IsDateOverdue(cutoff, cutoff))
	assert.False(t, IsDateOverdue(cutoff.AddDate(0, 0, 1), cutoff))
}
