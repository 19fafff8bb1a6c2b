package services

import (
	"time"

	"github.com/shopspring/decimal"

	"plata/internal/models"
	"plata/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, name string, role models.UserRole, organizationID uint) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	AttemptLogin(email, password string) (*models.User, error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(name string, categoryType models.CategoryType, description, icon, colorHex string) (*models.Category, error)
	GetCategories(page pagination.PageRequest, categoryType *models.CategoryType) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(categoryID uint) (*models.Category, error)
	UpdateCategory(categoryID uint, name, description, icon, colorHex string) (*models.Category, error)
	DeleteCategory(categoryID uint) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	CategoryID *uint
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(userID, categoryID uint, transactionType models.TransactionType, amount decimal.Decimal, description string, date time.Time) (*models.Transaction, error)
	GetUserTransactions(userID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID uint) (*models.Transaction, error)
}

// BudgetInput carries the fields for creating a budget.
type BudgetInput struct {
	Name            string
	Description     string
	CategoryID      uint
	MonthlyAmount   decimal.Decimal
	AlertThreshold  *decimal.Decimal
	StartDate       time.Time
	EndDate         *time.Time
	IsRecurring     bool
	RecurringMonths *int
	AutoAdjust      models.AutoAdjustPolicy
}

// BudgetUpdate carries the optional fields for updating a budget.
// Nil fields are left untouched.
type BudgetUpdate struct {
	Name            string
	Description     *string
	CategoryID      *uint
	MonthlyAmount   *decimal.Decimal
	AlertThreshold  *decimal.Decimal
	StartDate       *time.Time
	EndDate         *time.Time
	IsActive        *bool
	IsRecurring     *bool
	RecurringMonths *int
	AutoAdjust      *models.AutoAdjustPolicy
}

// BudgetScope restricts a budget query to a single owner or to every user
// of an organization. Exactly one of the two fields must be set; the caller
// (handler layer) decides which based on the requester's role.
type BudgetScope struct {
	UserID         *uint
	OrganizationID *uint
}

// BudgetFilter holds optional filter parameters for listing budgets.
type BudgetFilter struct {
	CategoryID *uint
	IsActive   *bool
	Search     string
	Year       *int
	Month      *time.Month
}

// CategoryBudgetSummary aggregates budgets of one category inside a report.
type CategoryBudgetSummary struct {
	CategoryID    uint            `json:"category_id"`
	CategoryName  string          `json:"category_name"`
	TotalBudgeted decimal.Decimal `json:"total_budgeted"`
	TotalSpent    decimal.Decimal `json:"total_spent"`
	Percentage    decimal.Decimal `json:"percentage"`
}

// BudgetReport is the consolidated view over every budget active in a
// given month for a user or an organization.
type BudgetReport struct {
	TotalBudgets           int                             `json:"total_budgets"`
	TotalBudgetedAmount    decimal.Decimal                 `json:"total_budgeted_amount"`
	TotalSpentAmount       decimal.Decimal                 `json:"total_spent_amount"`
	TotalRemainingAmount   decimal.Decimal                 `json:"total_remaining_amount"`
	AverageUsagePercentage decimal.Decimal                 `json:"average_usage_percentage"`
	BudgetsByStatus        map[models.BudgetStatusTier]int `json:"budgets_by_status"`
	TopCategoriesByBudget  []CategoryBudgetSummary         `json:"top_categories_by_budget"`
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(userID uint, in BudgetInput) (*models.Budget, error)
	GetBudgets(scope BudgetScope, page pagination.PageRequest, filter BudgetFilter) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(budgetID uint) (*models.Budget, error)
	UpdateBudget(budgetID uint, upd BudgetUpdate) (*models.Budget, error)
	DeleteBudget(budgetID uint) error
	CalculateBudgetStatus(budgetID uint, year *int, month *time.Month) (*models.BudgetStatus, error)
	CheckBudgetAlerts(budgetID uint) error
	GenerateBudgetReport(scope BudgetScope, year int, month time.Month) (*BudgetReport, error)
}

// RecurringPreviewEntry describes one month of a recurring budget projection.
type RecurringPreviewEntry struct {
	Month  string          `json:"month"`
	Amount decimal.Decimal `json:"amount"`
	Period string          `json:"period"`
}

// RecurringBudgetServicer defines the contract for projecting recurring
// budgets into monthly child budgets.
type RecurringBudgetServicer interface {
	Generate(parentBudgetID uint) (int, error)
	Preview(parentBudgetID uint) ([]RecurringPreviewEntry, error)
	DeactivateFutureChildren(parentBudgetID uint) error
	CleanupDuplicates(userID, categoryID uint) (int, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]any)
}
