package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"plata/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestOrganization creates an organization with a unique name.
func CreateTestOrganization(t *testing.T, db *gorm.DB) *models.Organization {
	t.Helper()

	org := &models.Organization{
		Name:     fmt.Sprintf("Test Org %d", nextID()),
		IsActive: true,
	}
	if err := db.Create(org).Error; err != nil {
		t.Fatalf("failed to create test organization: %v", err)
	}
	return org
}

// CreateTestUser creates a basic user in the given organization with a
// hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB, organizationID uint) *models.User {
	t.Helper()
	return CreateTestUserWithRole(t, db, organizationID, models.RoleBasicUser)
}

// CreateTestUserWithRole creates a user with the given role.
func CreateTestUserWithRole(t *testing.T, db *gorm.DB, organizationID uint, role models.UserRole) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:          fmt.Sprintf("user%d@test.com", nextID()),
		Password:       string(hash),
		Name:           "Test User",
		Role:           role,
		OrganizationID: organizationID,
		IsActive:       true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCategory creates a category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		Name:     fmt.Sprintf("Test Category %d", nextID()),
		Type:     categoryType,
		IsActive: true,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestBudget creates an active budget with the given amount starting
// on startDate. The alert threshold defaults to 80.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID, categoryID uint, amount string, startDate time.Time) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		Name:           fmt.Sprintf("Test Budget %d", nextID()),
		UserID:         userID,
		CategoryID:     categoryID,
		MonthlyAmount:  decimal.RequireFromString(amount),
		AlertThreshold: decimal.NewFromInt(80),
		StartDate:      startDate,
		IsActive:       true,
		AutoAdjust:     models.AutoAdjustNone,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestExpense records an expense transaction of the given amount on
// the given date.
func CreateTestExpense(t *testing.T, db *gorm.DB, userID, categoryID uint, amount string, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:          userID,
		CategoryID:      categoryID,
		Type:            models.TransactionTypeExpense,
		Amount:          decimal.RequireFromString(amount),
		TransactionDate: date,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return tx
}
