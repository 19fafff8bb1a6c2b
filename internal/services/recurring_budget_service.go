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
)

// defaultRecurringMonths applies when a recurring budget has no explicit
// month count.
const defaultRecurringMonths = 12

// monthlyInflationFactor is the fixed compounding factor of the inflation
// adjustment policy: each generated month grows 3% over the previous one.
var monthlyInflationFactor = decimal.RequireFromString("1.03")

// recurringBudgetService projects recurring parent budgets into monthly
// child budget instances.
type recurringBudgetService struct {
	db *gorm.DB
}

// NewRecurringBudgetService creates a new RecurringBudgetServicer.
func NewRecurringBudgetService(db *gorm.DB) RecurringBudgetServicer {
	return &recurringBudgetService{db: db}
}

// loadRecurringParent fetches a budget and verifies it is a recurring parent.
func (s *recurringBudgetService) loadRecurringParent(parentBudgetID uint) (*models.Budget, error) {
	var parent models.Budget
	if err := s.db.Preload("Category").First(&parent, parentBudgetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !parent.IsRecurring {
		return nil, apperrors.ErrBudgetNotRecurring
	}
	return &parent, nil
}

// monthsToGenerate returns the projection horizon of a parent budget.
func monthsToGenerate(parent *models.Budget) int {
	if parent.RecurringMonths != nil && *parent.RecurringMonths > 0 {
		return *parent.RecurringMonths
	}
	return defaultRecurringMonths
}

// adjustedAmount computes the monthly amount of the i-th generated child,
// applying the parent's adjustment policy. The "previous" policy currently
// copies the parent amount; a spend-based adjustment was never implemented.
func adjustedAmount(parent *models.Budget, i int) decimal.Decimal {
	if parent.AutoAdjust == models.AutoAdjustInflation {
		factor := monthlyInflationFactor.Pow(decimal.NewFromInt(int64(i)))
		return parent.MonthlyAmount.Mul(factor).Round(2)
	}
	return parent.MonthlyAmount
}

// Generate creates the child budgets of a recurring parent, one per future
// month starting the month after the parent's own. Months that already have
// an active budget for the owner+category, or a previously generated child
// of this parent, are skipped, so re-invoking the generator never duplicates
// a month. The batch is written in a single transaction: either every
// missing child is created or none is.
func (s *recurringBudgetService) Generate(parentBudgetID uint) (int, error) {
	parent, err := s.loadRecurringParent(parentBudgetID)
	if err != nil {
		return 0, err
	}

	months := monthsToGenerate(parent)
	var toCreate []models.Budget

	// i = 0 is the parent's own month; children start at i = 1.
	for i := 1; i < months; i++ {
		monthStart, monthEnd := dates.MonthWindow(parent.StartDate, i)

		var existing int64
		err := s.db.Model(&models.Budget{}).
			Where("user_id = ? AND category_id = ? AND is_active = ?", parent.UserID, parent.CategoryID, true).
			Where("(parent_budget_id = ? OR (start_date <= ? AND (end_date IS NULL OR end_date >= ?)))",
				parent.ID, monthEnd, monthStart).
			Count(&existing).Error
		if err != nil {
			return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if existing > 0 {
			continue
		}

		monthName := dates.MonthName(monthStart.Month())
		year := monthStart.Year()
		endDate := monthEnd

		toCreate = append(toCreate, models.Budget{
			Name:           fmt.Sprintf("%s - %s %d", parent.Category.Name, monthName, year),
			Description:    fmt.Sprintf("Presupuesto generado automáticamente para %s %d", monthName, year),
			UserID:         parent.UserID,
			CategoryID:     parent.CategoryID,
			MonthlyAmount:  adjustedAmount(parent, i),
			AlertThreshold: parent.AlertThreshold,
			StartDate:      monthStart,
			EndDate:        &endDate,
			IsActive:       true,
			IsRecurring:    false,
			AutoAdjust:     models.AutoAdjustNone,
			ParentBudgetID: &parent.ID,
		})
	}

	if len(toCreate) == 0 {
		return 0, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for i := range toCreate {
			if err := tx.Create(&toCreate[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	logger.Get().Infow("recurring budgets generated",
		"parent_budget_id", parent.ID,
		"created", len(toCreate),
	)
	return len(toCreate), nil
}

// Preview returns the series of child budgets Generate would project,
// without checking for existing coverage or writing anything.
func (s *recurringBudgetService) Preview(parentBudgetID uint) ([]RecurringPreviewEntry, error) {
	parent, err := s.loadRecurringParent(parentBudgetID)
	if err != nil {
		return nil, err
	}

	months := monthsToGenerate(parent)
	preview := make([]RecurringPreviewEntry, 0, months-1)

	for i := 1; i < months; i++ {
		monthStart, monthEnd := dates.MonthWindow(parent.StartDate, i)
		preview = append(preview, RecurringPreviewEntry{
			Month:  fmt.Sprintf("%s %d", dates.MonthName(monthStart.Month()), monthStart.Year()),
			Amount: adjustedAmount(parent, i),
			Period: fmt.Sprintf("%s - %s", monthStart.Format("2006-01-02"), monthEnd.Format("2006-01-02")),
		})
	}

	return preview, nil
}

// DeactivateFutureChildren deactivates the not-yet-started children of a
// parent budget. Used before regenerating after the parent was modified.
func (s *recurringBudgetService) DeactivateFutureChildren(parentBudgetID uint) error {
	err := s.db.Model(&models.Budget{}).
		Where("parent_budget_id = ? AND start_date > ?", parentBudgetID, time.Now().In(dates.Location())).
		Update("is_active", false).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// CleanupDuplicates deactivates redundant active budgets of one
// owner+category pair: when several budgets start in the same calendar
// month, the oldest one survives. Returns the number of deactivated budgets.
func (s *recurringBudgetService) CleanupDuplicates(userID, categoryID uint) (int, error) {
	var budgets []models.Budget
	err := s.db.Where("user_id = ? AND category_id = ? AND is_active = ?", userID, categoryID, true).
		Order("created_at ASC").
		Find(&budgets).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	seen := make(map[string]bool)
	var toDeactivate []uint
	for _, budget := range budgets {
		start := budget.StartDate.In(dates.Location())
		monthKey := fmt.Sprintf("%d-%d", start.Year(), start.Month())
		if seen[monthKey] {
			toDeactivate = append(toDeactivate, budget.ID)
			continue
		}
		seen[monthKey] = true
	}

	if len(toDeactivate) == 0 {
		return 0, nil
	}

	err = s.db.Model(&models.Budget{}).
		Where("id IN ?", toDeactivate).
		Update("is_active", false).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	logger.Get().Infow("duplicate budgets cleaned up",
		"user_id", userID,
		"category_id", categoryID,
		"deactivated", len(toDeactivate),
	)
	return len(toDeactivate), nil
}
