package models

import "github.com/shopspring/decimal"

// BudgetAlertType distinguishes warning alerts from exceeded alerts.
type BudgetAlertType string

const (
	AlertTypeWarning  BudgetAlertType = "BUDGET_WARNING"
	AlertTypeExceeded BudgetAlertType = "BUDGET_EXCEEDED"
)

// BudgetAlert is a persisted notification created when a budget's usage
// crosses its alert threshold. At most one alert per type is created for a
// budget within a calendar month; alerts are never retracted, only marked
// read.
type BudgetAlert struct {
	Base
	BudgetID        uint            `gorm:"not null;index" json:"budget_id"`
	UserID          uint            `gorm:"not null;index" json:"user_id"`
	AlertType       BudgetAlertType `gorm:"not null" json:"alert_type"`
	ThresholdAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"threshold_amount"`
	CurrentAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"current_amount"`
	Message         string          `gorm:"not null" json:"message"`
	IsRead          bool            `gorm:"default:false" json:"is_read"`

	// Relationships
	Budget Budget `gorm:"foreignKey:BudgetID" json:"budget,omitempty"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
