package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AutoAdjustPolicy controls how a recurring budget adjusts the amount of the
// monthly instances it generates.
type AutoAdjustPolicy string

const (
	// AutoAdjustNone copies the parent amount unchanged.
	AutoAdjustNone AutoAdjustPolicy = "none"
	// AutoAdjustInflation compounds the parent amount by 3% per month.
	AutoAdjustInflation AutoAdjustPolicy = "inflation"
	// AutoAdjustPrevious copies the parent amount. Placeholder: a
	// spend-based adjustment was never implemented upstream.
	AutoAdjustPrevious AutoAdjustPolicy = "previous"
)

// Budget represents a per-category monthly spending target.
//
// A recurring budget acts as the parent of a series of generated monthly
// instances; the generated children carry ParentBudgetID and are never
// themselves recurring. Deleting a budget only flips IsActive, because
// budgets are referenced by historical alerts and reports.
type Budget struct {
	Base
	Name            string           `gorm:"not null" json:"name"`
	Description     string           `json:"description"`
	UserID          uint             `gorm:"not null;index" json:"user_id"`
	CategoryID      uint             `gorm:"not null;index" json:"category_id"`
	MonthlyAmount   decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"monthly_amount"`
	AlertThreshold  decimal.Decimal  `gorm:"type:decimal(5,2);not null" json:"alert_threshold"`
	StartDate       time.Time        `gorm:"not null" json:"start_date"`
	EndDate         *time.Time       `json:"end_date,omitempty"`
	IsActive        bool             `gorm:"default:true" json:"is_active"`
	IsRecurring     bool             `gorm:"default:false" json:"is_recurring"`
	RecurringMonths *int             `json:"recurring_months,omitempty"`
	AutoAdjust      AutoAdjustPolicy `gorm:"not null;default:none" json:"auto_adjust"`
	ParentBudgetID  *uint            `gorm:"index" json:"parent_budget_id,omitempty"`

	// Relationships
	User         User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Category     Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	ParentBudget *Budget  `gorm:"foreignKey:ParentBudgetID" json:"parent_budget,omitempty"`
	Children     []Budget `gorm:"foreignKey:ParentBudgetID" json:"children,omitempty"`
}

// BudgetStatusTier classifies how much of a budget has been consumed.
type BudgetStatusTier string

const (
	StatusUnderBudget BudgetStatusTier = "UNDER_BUDGET"
	StatusOnTrack     BudgetStatusTier = "ON_TRACK"
	StatusWarning     BudgetStatusTier = "WARNING"
	StatusExceeded    BudgetStatusTier = "EXCEEDED"
)

// BudgetStatus is a derived value object for a (budget, year, month) triple.
// It is never persisted; it is recomputed from transaction data on demand so
// it always reflects the latest activity.
type BudgetStatus struct {
	BudgetedAmount  decimal.Decimal  `json:"budgeted_amount"`
	SpentAmount     decimal.Decimal  `json:"spent_amount"`
	RemainingAmount decimal.Decimal  `json:"remaining_amount"`
	PercentageUsed  decimal.Decimal  `json:"percentage_used"`
	Status          BudgetStatusTier `json:"status"`
}
