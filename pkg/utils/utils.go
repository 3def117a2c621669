package utils

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/inkaso/collections-engine/internal/domain"
)

// InstallmentDueDate calculates the due date for installment n (1-based).
// Due dates are spaced by a fixed frequency interval from the plan start date;
// monthly means 30 days, not a calendar month.
func InstallmentDueDate(startDate time.Time, n int, freq domain.InstallmentFrequency) time.Time {
	return startDate.AddDate(0, 0, n*freq.IntervalDays())
}

// CoversOutstanding validates that down payment plus n installments of the
// given amount cover the outstanding balance. Overpayment is tolerated,
// underpayment is not.
func CoversOutstanding(downPayment, installmentAmount int64, count int, outstanding int64) bool {
	return downPayment+installmentAmount*int64(count) >= outstanding
}

// Midnight truncates t to the start of its day in UTC.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatAmount renders an amount in minor currency units for human-facing
// notices, e.g. 50000 "CZK" -> "500.00 CZK".
func FormatAmount(amount int64, currency string) string {
	major := decimal.NewFromInt(amount).Div(decimal.NewFromInt(100))
	return fmt.Sprintf("%s %s", major.StringFixed(2), currency)
}

// IsDateOverdue checks whether dueDate lies before the cutoff.
func IsDateOverdue(dueDate, cutoff time.Time) bool {
	return dueDate.Before(cutoff)
}
