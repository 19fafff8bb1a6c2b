package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"plata/internal/dates"
	apperrors "plata/internal/errors"
	"plata/internal/models"
	"plata/internal/money"
	"plata/internal/pagination"
)

// defaultAlertThreshold applies when a budget is created without one.
var defaultAlertThreshold = decimal.NewFromInt(80)

// budgetService handles budget-related business logic.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// CreateBudget validates and creates a new budget for a category.
func (s *budgetService) CreateBudget(userID uint, in BudgetInput) (*models.Budget, error) {
	if err := money.ValidateAmount(in.MonthlyAmount); err != nil {
		return nil, err
	}

	threshold := defaultAlertThreshold
	if in.AlertThreshold != nil {
		threshold = *in.AlertThreshold
	}
	if err := money.ValidateThreshold(threshold); err != nil {
		return nil, err
	}

	startDate := dates.StartOfDay(in.StartDate)
	var endDate *time.Time
	if in.EndDate != nil {
		e := dates.EndOfDay(*in.EndDate)
		if !e.After(startDate) {
			return nil, apperrors.ErrInvalidDateRange
		}
		endDate = &e
	}

	// Verify the category exists and is active
	var category models.Category
	if err := s.db.Where("id = ? AND is_active = ?", in.CategoryID, true).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.validateBudgetPeriod(userID, in.CategoryID, startDate, 0); err != nil {
		return nil, err
	}

	autoAdjust := in.AutoAdjust
	if autoAdjust == "" {
		autoAdjust = models.AutoAdjustNone
	}

	budget := &models.Budget{
		Name:            in.Name,
		Description:     in.Description,
		UserID:          userID,
		CategoryID:      in.CategoryID,
		MonthlyAmount:   in.MonthlyAmount,
		AlertThreshold:  threshold,
		StartDate:       startDate,
		EndDate:         endDate,
		IsActive:        true,
		IsRecurring:     in.IsRecurring,
		RecurringMonths: in.RecurringMonths,
		AutoAdjust:      autoAdjust,
	}

	if err := s.db.Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return budget, nil
}

// validateBudgetPeriod enforces the budget uniqueness rules for one
// owner+category pair: no second active budget with the same start date, and
// no active budget whose span reaches into the new start date. The overlap
// test is deliberately one-directional: it asks whether an existing budget's
// [start, end-or-∞) interval contains the new start. excludeID removes the
// budget being updated from the comparison set (0 on create).
func (s *budgetService) validateBudgetPeriod(userID, categoryID uint, startDate time.Time, excludeID uint) error {
	base := func() *gorm.DB {
		q := s.db.Model(&models.Budget{}).
			Where("user_id = ? AND category_id = ? AND is_active = ?", userID, categoryID, true)
		if excludeID != 0 {
			q = q.Where("id <> ?", excludeID)
		}
		return q
	}

	var count int64
	if err := base().Where("start_date = ?", startDate).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateBudgetStart
	}

	if err := base().
		Where("start_date <= ? AND (end_date IS NULL OR end_date >= ?)", startDate, startDate).
		Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrBudgetOverlap
	}

	return nil
}

// GetBudgets returns a paginated list of budgets for the given scope with
// optional filters. The year/month filter selects budgets whose period
// intersects that calendar month.
func (s *budgetService) GetBudgets(scope BudgetScope, page pagination.PageRequest, filter BudgetFilter) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	buildQuery := func() *gorm.DB {
		q := s.db.Model(&models.Budget{})
		switch {
		case scope.UserID != nil:
			q = q.Where("budgets.user_id = ?", *scope.UserID)
		case scope.OrganizationID != nil:
			q = q.Joins("JOIN users ON users.id = budgets.user_id").
				Where("users.organization_id = ?", *scope.OrganizationID)
		}
		if filter.CategoryID != nil {
			q = q.Where("budgets.category_id = ?", *filter.CategoryID)
		}
		if filter.IsActive != nil {
			q = q.Where("budgets.is_active = ?", *filter.IsActive)
		}
		if filter.Search != "" {
			q = q.Where("budgets.name LIKE ?", "%"+filter.Search+"%")
		}
		if filter.Year != nil && filter.Month != nil {
			monthStart, monthEnd := dates.MonthRange(*filter.Year, *filter.Month)
			q = q.Where("budgets.start_date <= ? AND (budgets.end_date IS NULL OR budgets.end_date >= ?)", monthEnd, monthStart)
		}
		return q
	}

	var totalItems int64
	if err := buildQuery().Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := buildQuery().
		Preload("Category").
		Preload("User").
		Order("budgets.start_date DESC").
		Scopes(pagination.Paginate(page)).
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetByID returns a budget by ID with its category and owner loaded.
func (s *budgetService) GetBudgetByID(budgetID uint) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Preload("Category").Preload("User").First(&budget, budgetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// UpdateBudget updates an existing budget's fields, re-running amount and
// period validation against the other active budgets of the owner+category
// (the budget itself is excluded from the comparison set).
func (s *budgetService) UpdateBudget(budgetID uint, upd BudgetUpdate) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(budgetID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})

	if upd.Name != "" {
		updates["name"] = upd.Name
	}
	if upd.Description != nil {
		updates["description"] = *upd.Description
	}
	if upd.MonthlyAmount != nil {
		if err := money.ValidateAmount(*upd.MonthlyAmount); err != nil {
			return nil, err
		}
		updates["monthly_amount"] = *upd.MonthlyAmount
	}
	if upd.AlertThreshold != nil {
		if err := money.ValidateThreshold(*upd.AlertThreshold); err != nil {
			return nil, err
		}
		updates["alert_threshold"] = *upd.AlertThreshold
	}

	categoryID := budget.CategoryID
	if upd.CategoryID != nil && *upd.CategoryID != budget.CategoryID {
		var category models.Category
		if err := s.db.Where("id = ? AND is_active = ?", *upd.CategoryID, true).First(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrCategoryNotFound
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		categoryID = *upd.CategoryID
		updates["category_id"] = categoryID
	}

	startDate := budget.StartDate
	if upd.StartDate != nil {
		startDate = dates.StartOfDay(*upd.StartDate)
		updates["start_date"] = startDate
	}
	if upd.EndDate != nil {
		endDate := dates.EndOfDay(*upd.EndDate)
		if !endDate.After(startDate) {
			return nil, apperrors.ErrInvalidDateRange
		}
		updates["end_date"] = endDate
	}

	if upd.StartDate != nil || upd.CategoryID != nil {
		if err := s.validateBudgetPeriod(budget.UserID, categoryID, startDate, budget.ID); err != nil {
			return nil, err
		}
	}

	if upd.IsActive != nil {
		updates["is_active"] = *upd.IsActive
	}
	if upd.IsRecurring != nil {
		updates["is_recurring"] = *upd.IsRecurring
	}
	if upd.RecurringMonths != nil {
		updates["recurring_months"] = *upd.RecurringMonths
	}
	if upd.AutoAdjust != nil {
		updates["auto_adjust"] = *upd.AutoAdjust
	}

	if len(updates) > 0 {
		if err := s.db.Model(budget).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return budget, nil
}

// DeleteBudget soft-deletes a budget by deactivating it. The row is kept
// because historical alerts and reports reference it.
func (s *budgetService) DeleteBudget(budgetID uint) error {
	budget, err := s.GetBudgetByID(budgetID)
	if err != nil {
		return err
	}

	if err := s.db.Model(budget).Update("is_active", false).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
