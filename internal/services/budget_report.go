package services

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"plata/internal/dates"
	apperrors "plata/internal/errors"
	"plata/internal/models"
	"plata/internal/money"
)

// topCategoriesLimit caps the category ranking inside a report.
const topCategoriesLimit = 10

// GenerateBudgetReport aggregates every active budget whose period intersects
// the given calendar month into a consolidated report. The scope selects the
// budgets of a single user or of a whole organization; categories are ranked
// by total budgeted amount.
func (s *budgetService) GenerateBudgetReport(scope BudgetScope, year int, month time.Month) (*BudgetReport, error) {
	if scope.UserID == nil && scope.OrganizationID == nil {
		return nil, apperrors.ErrOrganizationRequired
	}

	monthStart, monthEnd := dates.MonthRange(year, month)

	q := s.db.Model(&models.Budget{}).
		Preload("Category").
		Preload("User").
		Where("budgets.is_active = ?", true).
		Where("budgets.start_date <= ? AND (budgets.end_date IS NULL OR budgets.end_date >= ?)", monthEnd, monthStart)
	switch {
	case scope.UserID != nil:
		q = q.Where("budgets.user_id = ?", *scope.UserID)
	case scope.OrganizationID != nil:
		q = q.Joins("JOIN users ON users.id = budgets.user_id").
			Where("users.organization_id = ?", *scope.OrganizationID)
	}

	var budgets []models.Budget
	if err := q.Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	report := &BudgetReport{
		TotalBudgets:           len(budgets),
		TotalBudgetedAmount:    decimal.Zero,
		TotalSpentAmount:       decimal.Zero,
		TotalRemainingAmount:   decimal.Zero,
		AverageUsagePercentage: decimal.Zero,
		BudgetsByStatus: map[models.BudgetStatusTier]int{
			models.StatusUnderBudget: 0,
			models.StatusOnTrack:     0,
			models.StatusWarning:     0,
			models.StatusExceeded:    0,
		},
		TopCategoriesByBudget: []CategoryBudgetSummary{},
	}
	if len(budgets) == 0 {
		return report, nil
	}

	percentageSum := decimal.Zero
	byCategory := make(map[uint]*CategoryBudgetSummary)

	for i := range budgets {
		budget := &budgets[i]
		status, err := s.statusForPeriod(budget, monthStart, monthEnd)
		if err != nil {
			return nil, err
		}

		report.TotalBudgetedAmount = report.TotalBudgetedAmount.Add(status.BudgetedAmount)
		report.TotalSpentAmount = report.TotalSpentAmount.Add(status.SpentAmount)
		report.TotalRemainingAmount = report.TotalRemainingAmount.Add(status.RemainingAmount)
		percentageSum = percentageSum.Add(status.PercentageUsed)
		report.BudgetsByStatus[status.Status]++

		summary, ok := byCategory[budget.CategoryID]
		if !ok {
			summary = &CategoryBudgetSummary{
				CategoryID:   budget.CategoryID,
				CategoryName: budget.Category.Name,
			}
			byCategory[budget.CategoryID] = summary
		}
		summary.TotalBudgeted = summary.TotalBudgeted.Add(status.BudgetedAmount)
		summary.TotalSpent = summary.TotalSpent.Add(status.SpentAmount)
	}

	report.AverageUsagePercentage = percentageSum.
		Div(decimal.NewFromInt(int64(len(budgets)))).
		Round(2)

	categories := make([]CategoryBudgetSummary, 0, len(byCategory))
	for _, summary := range byCategory {
		summary.Percentage = money.PercentageUsed(summary.TotalSpent, summary.TotalBudgeted)
		categories = append(categories, *summary)
	}
	sort.Slice(categories, func(i, j int) bool {
		if !categories[i].TotalBudgeted.Equal(categories[j].TotalBudgeted) {
			return categories[i].TotalBudgeted.GreaterThan(categories[j].TotalBudgeted)
		}
		return categories[i].CategoryName < categories[j].CategoryName
	})
	if len(categories) > topCategoriesLimit {
		categories = categories[:topCategoriesLimit]
	}
	report.TopCategoriesByBudget = categories

	return report, nil
}
