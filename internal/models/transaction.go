package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Transaction represents a financial transaction in the system
type Transaction struct {
	Base
	UserID          uint            `gorm:"not null;index" json:"user_id"`
	CategoryID      uint            `gorm:"not null;index" json:"category_id"`
	Type            TransactionType `gorm:"not null" json:"type"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Description     string          `json:"description"`
	TransactionDate time.Time       `gorm:"not null;index" json:"transaction_date"`

	// Relationships
	User     User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Category Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
