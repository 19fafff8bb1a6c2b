// Package money holds the amount validation and percentage rules shared by
// budgets and transactions. Amounts are exact decimals; nothing in the
// engine is allowed to coerce an invalid amount into a best guess.
package money

import (
	"github.com/shopspring/decimal"

	apperrors "plata/internal/errors"
)

// MaxAmount is the ceiling for any monetary amount in the system.
var MaxAmount = decimal.RequireFromString("999999999.99")

var hundred = decimal.NewFromInt(100)

// ValidateAmount checks that an amount is positive, does not exceed
// MaxAmount, and has at most 2 fractional digits.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return apperrors.WithMessage(apperrors.ErrInvalidAmount, "Amount must be greater than 0")
	}
	if amount.GreaterThan(MaxAmount) {
		return apperrors.WithMessage(apperrors.ErrInvalidAmount, "Amount exceeds the maximum allowed")
	}
	if amount.Exponent() < -2 {
		return apperrors.WithMessage(apperrors.ErrInvalidAmount, "Amount cannot have more than 2 decimal places")
	}
	return nil
}

// ValidateThreshold checks that an alert threshold percentage is in [0, 100].
func ValidateThreshold(threshold decimal.Decimal) error {
	if threshold.LessThan(decimal.Zero) || threshold.GreaterThan(hundred) {
		return apperrors.ErrInvalidThreshold
	}
	return nil
}

// PercentageUsed returns spent/budgeted × 100 rounded to 2 decimal places,
// or zero when there is nothing budgeted.
func PercentageUsed(spent, budgeted decimal.Decimal) decimal.Decimal {
	if !budgeted.IsPositive() {
		return decimal.Zero
	}
	return spent.Div(budgeted).Mul(hundred).Round(2)
}
