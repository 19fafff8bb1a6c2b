package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"plata/internal/dates"
	apperrors "plata/internal/errors"
	"plata/internal/logger"
	"plata/internal/models"
	"plata/internal/money"
)

var (
	underBudgetBound = decimal.NewFromInt(50)
	exceededBound    = decimal.NewFromInt(100)
)

// statusTier classifies a usage percentage against the budget's alert
// threshold. The 50% boundary is fixed: a threshold configured below 50
// leaves ON_TRACK unreachable.
func statusTier(percentageUsed, alertThreshold decimal.Decimal) models.BudgetStatusTier {
	switch {
	case percentageUsed.LessThanOrEqual(underBudgetBound):
		return models.StatusUnderBudget
	case percentageUsed.LessThanOrEqual(alertThreshold):
		return models.StatusOnTrack
	case percentageUsed.LessThanOrEqual(exceededBound):
		return models.StatusWarning
	default:
		return models.StatusExceeded
	}
}

// CalculateBudgetStatus computes the live status of a budget for the given
// calendar month, defaulting to the current month. Spend is aggregated over
// the expense transactions of the whole organization the budget owner
// belongs to, so the status reflects shared category activity rather than
// only the owner's own spending.
func (s *budgetService) CalculateBudgetStatus(budgetID uint, year *int, month *time.Month) (*models.BudgetStatus, error) {
	var budget models.Budget
	if err := s.db.Preload("User").Where("id = ? AND is_active = ?", budgetID, true).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	y, m := dates.CurrentYearMonth()
	if year != nil {
		y = *year
	}
	if month != nil {
		m = *month
	}
	monthStart, monthEnd := dates.MonthRange(y, m)

	return s.statusForPeriod(&budget, monthStart, monthEnd)
}

// statusForPeriod derives the status value object for one budget over one
// month window. The budget must have its User association loaded.
func (s *budgetService) statusForPeriod(budget *models.Budget, monthStart, monthEnd time.Time) (*models.BudgetStatus, error) {
	spent, err := s.sumOrganizationExpenses(budget.User.OrganizationID, budget.CategoryID, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}

	percentageUsed := money.PercentageUsed(spent, budget.MonthlyAmount)

	return &models.BudgetStatus{
		BudgetedAmount:  budget.MonthlyAmount,
		SpentAmount:     spent,
		RemainingAmount: budget.MonthlyAmount.Sub(spent),
		PercentageUsed:  percentageUsed,
		Status:          statusTier(percentageUsed, budget.AlertThreshold),
	}, nil
}

// sumOrganizationExpenses totals the expense transactions of one category
// across every user of an organization within a date range.
func (s *budgetService) sumOrganizationExpenses(organizationID, categoryID uint, from, to time.Time) (decimal.Decimal, error) {
	var spent decimal.Decimal
	err := s.db.Model(&models.Transaction{}).
		Joins("JOIN users ON users.id = transactions.user_id").
		Where("users.organization_id = ?", organizationID).
		Where("transactions.category_id = ? AND transactions.type = ?", categoryID, models.TransactionTypeExpense).
		Where("transactions.transaction_date BETWEEN ? AND ?", from, to).
		Select("COALESCE(SUM(transactions.amount), 0)").
		Scan(&spent).Error
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return spent, nil
}

// CheckBudgetAlerts evaluates a budget's current-month status and records an
// alert when usage has reached the alert threshold. At most one alert of a
// given type is created per budget per calendar month; alerts are never
// retracted once created.
func (s *budgetService) CheckBudgetAlerts(budgetID uint) error {
	var budget models.Budget
	if err := s.db.First(&budget, budgetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrBudgetNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !budget.IsActive {
		return nil
	}

	status, err := s.CalculateBudgetStatus(budgetID, nil, nil)
	if err != nil {
		return err
	}

	if status.PercentageUsed.LessThan(budget.AlertThreshold) {
		return nil
	}

	var alertType models.BudgetAlertType
	var message string
	if status.PercentageUsed.GreaterThanOrEqual(exceededBound) {
		alertType = models.AlertTypeExceeded
		overage := status.PercentageUsed.Sub(exceededBound)
		message = fmt.Sprintf("Has excedido tu presupuesto %q en un %s%%", budget.Name, overage.StringFixed(1))
	} else {
		alertType = models.AlertTypeWarning
		message = fmt.Sprintf("Tu presupuesto %q ha alcanzado el %s%% de uso.", budget.Name, status.PercentageUsed.StringFixed(1))
	}

	var count int64
	if err := s.db.Model(&models.BudgetAlert{}).
		Where("budget_id = ? AND user_id = ? AND alert_type = ?", budget.ID, budget.UserID, alertType).
		Where("created_at >= ?", dates.StartOfCurrentMonth()).
		Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil
	}

	thresholdAmount := budget.MonthlyAmount.Mul(budget.AlertThreshold).Div(exceededBound).Round(2)
	alert := &models.BudgetAlert{
		BudgetID:        budget.ID,
		UserID:          budget.UserID,
		AlertType:       alertType,
		ThresholdAmount: thresholdAmount,
		CurrentAmount:   status.SpentAmount,
		Message:         message,
	}
	if err := s.db.Create(alert).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	logger.Get().Infow("budget alert created",
		"budget_id", budget.ID,
		"alert_type", alertType,
		"percentage_used", status.PercentageUsed.String(),
	)
	return nil
}
