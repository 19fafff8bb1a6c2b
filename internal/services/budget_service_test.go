package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"plata/internal/dates"
	"plata/internal/models"
	"plata/internal/pagination"
	"plata/internal/testutil"
)

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func janFirst(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, dates.Location())
}

func TestCreateBudget(t *testing.T) {
	t.Run("valid_with_defaults", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		org := testutil.CreateTestOrganization(t, db)
		user := testutil.CreateTestUser(t, db, org.ID)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

		budget, err := svc.CreateBudget(user.ID, BudgetInput{
			Name:          "Supermercado",
			CategoryID:    cat.ID,
			MonthlyAmount: amount("100000"),
			StartDate:     janFirst(2025),
		})
		testutil.AssertNoError(t, err)

		if budget.ID == 0 {
			t.Fatal("expected non-zero budget ID")
		}
		testutil.AssertDecimalEqual(t, budget.AlertThreshold, "80")
		if budget.AutoAdjust != models.AutoAdjustNone {
			t.Errorf("expected auto_adjust none, got %s", budget.AutoAdjust)
		}
		if !budget.IsActive {
			t.Error("expected budget to be active")
		}
	})

	t.Run("negative_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		org := testutil.CreateTestOrganization(t, db)
		user := testutil.CreateTestUser(t, db, org.ID)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

		_, err := svc.CreateBudget(user.ID, BudgetInput{
			Name:          "Bad",
			CategoryID:    cat.ID,
			MonthlyAmount: amount("-100"),
			StartDate:     janFirst(2025),
		})
		testutil.AssertAppError(t, err, "INVALID_AMOUNT")
	})

	t.Run("too_many_decimals", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		org := testutil.CreateTestOrganization(t, db)
		user := testutil.CreateTestUser(t, db, org.ID)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

		_, err := svc.CreateBudget(user.ID, BudgetInput{
			Name:          "Bad",
			CategoryID:    cat.ID,
			MonthlyAmount: amount("100.123"),
			StartDate:     janFirst(2025),
		})
		testutil.AssertAppError(t, err, "INVALID_AMOUNT")
	})

	t.Run("amount_over_maximum", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		org := testutil.CreateTestOrganization(t, db)
		user := testutil.CreateTestUser(t, db, org.ID)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

		_, err := svc.CreateBudget(user.ID, BudgetInput{
			Name:          "Bad",
			CategoryID:    cat.ID,
			MonthlyAmount: amount("1000000000"),
			StartDate:     janFirst(2025),
		})
		testutil.AssertAppError(t, err, "INVALID_AMOUNT")
	})

	t.Run("threshold_out_of_range", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		org := testutil.CreateTestOrganization(t, db)
		user := testutil.CreateTestUser(t, db, org.ID)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

		threshold := amount("150")
		_, err := svc.CreateBudget(user.ID, BudgetInput{
			Name:           "Bad",
			CategoryID:     cat.ID,
			MonthlyAmount:  amount("100000"),
			AlertThreshold: &threshold,
			StartDate:      janFirst(2025),
		})
		testutil.AssertAppError(t, err, "INVALID_THRESHOLD")
	})

	t.Run("end_before_start", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		org := testutil.CreateTestOrganization(t, db)
		user := testutil.CreateTestUser(t, db, org.ID)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

		end := janFirst(2024)
		_, err := svc.CreateBudget(user.ID, BudgetInput{
			Name:          "Bad",
			CategoryID:    cat.ID,
			MonthlyAmount: amount("100000"),
			StartDate:     janFirst(2025),
			EndDate:       &end,
		})
		testutil.AssertAppError(t, err, "INVALID_DATE_RANGE")
	})

	t.Run("unknown_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		org := testutil.CreateTestOrganization(t, db)
		user := testutil.CreateTestUser(t, db, org.ID)

		_, err := svc.CreateBudget(user.ID, BudgetInput{
			Name:          "Bad",
			CategoryID:    9999,
			MonthlyAmount: amount("100000"),
			StartDate:     janFirst(2025),
		})
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("duplicate_start_date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		org := testutil.CreateTestOrganization(t, db)
		user := testutil.CreateTestUser(t, db, org.ID)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

		end := time.Date(2025, time.January, 31, 0, 0, 0, 0, dates.Location())
		_, err := svc.CreateBudget(user.ID, BudgetInput{
			Name:          "First",
			CategoryID:    cat.ID,
			MonthlyAmount: amount("100000"),
			StartDate:     janFirst(2025),
			EndDate:       &end,
		})
		testutil.AssertNoError(t, err)

		_, err = svc.CreateBudget(user.ID, BudgetInput{
			Name:          "Second",
			CategoryID:    cat.ID,
			MonthlyAmount: amount("50000"),
			StartDate:     janFirst(2025),
		})
		testutil.AssertAppError(t, err, "DUPLICATE_BUDGET_START")
	})

	t.Run("overlap_with_open_ended_budget", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		org := testutil.CreateTestOrganization(t, db)
		user := testutil.CreateTestUser(t, db, org.ID)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)
		other := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

		_, err := svc.CreateBudget(user.ID, BudgetInput{
			Name:          "Open ended",
			CategoryID:    cat.ID,
			MonthlyAmount: amount("100000"),
			StartDate:     janFirst(2025),
		})
		testutil.AssertNoError(t, err)

		march := time.Date(2025, time.March, 1, 0, 0, 0, 0, dates.Location())
		_, err = svc.CreateBudget(user.ID, BudgetInput{
			Name:          "Overlapping",
			CategoryID:    cat.ID,
			MonthlyAmount: amount("50000"),
			StartDate:     march,
		})
		testutil.AssertAppError(t, err, "BUDGET_OVERLAP")

		// Same period, different category is fine
		_, err = svc.CreateBudget(user.ID, BudgetInput{
			Name:          "Other category",
			CategoryID:    other.ID,
			MonthlyAmount: amount("50000"),
			StartDate:     march,
		})
		testutil.AssertNoError(t, err)
	})

	t.Run("other_user_same_category_no_conflict", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		org := testutil.CreateTestOrganization(t, db)
		user1 := testutil.CreateTestUser(t, db, org.ID)
		user2 := testutil.CreateTestUser(t, db, org.ID)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

		_, err := svc.CreateBudget(user1.ID, BudgetInput{
			Name:          "User1",
			CategoryID:    cat.ID,
			MonthlyAmount: amount("100000"),
			StartDate:     janFirst(2025),
		})
		testutil.AssertNoError(t, err)

		_, err = svc.CreateBudget(user2.ID, BudgetInput{
			Name:          "User2",
			CategoryID:    cat.ID,
			MonthlyAmount: amount("100000"),
			StartDate:     janFirst(2025),
		})
		testutil.AssertNoError(t, err)
	})

	t.Run("inactive_budget_does_not_block", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		org := testutil.CreateTestOrganization(t, db)
		user := testutil.CreateTestUser(t, db, org.ID)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

		first, err := svc.CreateBudget(user.ID, BudgetInput{
			Name:          "To be deleted",
			CategoryID:    cat.ID,
			MonthlyAmount: amount("100000"),
			StartDate:     janFirst(2025),
		})
		testutil.AssertNoError(t, err)
		testutil.AssertNoError(t, svc.DeleteBudget(first.ID))

		_, err = svc.CreateBudget(user.ID, BudgetInput{
			Name:          "Replacement",
			CategoryID:    cat.ID,
			MonthlyAmount: amount("100000"),
			StartDate:     janFirst(2025),
		})
		testutil.AssertNoError(t, err)
	})
}

func TestUpdateBudget(t *testing.T) {
	t.Run("update_amount_and_threshold", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		org := testutil.CreateTestOrganization(t, db)
		user := testutil.CreateTestUser(t, db, org.ID)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)
		budget := testutil.CreateTestBudget(t, db, user.ID, cat.ID, "100000", janFirst(2025))

		newAmount := amount("150000.50")
		newThreshold := amount("90")
		updated, err := svc.UpdateBudget(budget.ID, BudgetUpdate{
			MonthlyAmount:  &newAmount,
			AlertThreshold: &newThreshold,
		})
		testutil.AssertNoError(t, err)

		reloaded, err := svc.GetBudgetByID(updated.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, reloaded.MonthlyAmount, "150000.50")
		testutil.AssertDecimalEqual(t, reloaded.AlertThreshold, "90")
	})

	t.Run("invalid_amount_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		org := testutil.CreateTestOrganization(t, db)
		user := testutil.CreateTestUser(t, db, org.ID)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)
		budget := testutil.CreateTestBudget(t, db, user.ID, cat.ID, "100000", janFirst(2025))

		bad := amount("0")
		_, err := svc.UpdateBudget(budget.ID, BudgetUpdate{MonthlyAmount: &bad})
		testutil.AssertAppError(t, err, "INVALID_AMOUNT")
	})

	t.Run("period_check_excludes_self", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		org := testutil.CreateTestOrganization(t, db)
		user := testutil.CreateTestUser(t, db, org.ID)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)
		budget := testutil.CreateTestBudget(t, db, user.ID, cat.ID, "100000", janFirst(2025))

		// Moving a budget within its own period must not conflict with itself
		newStart := time.Date(2025, time.January, 15, 0, 0, 0, 0, dates.Location())
		_, err := svc.UpdateBudget(budget.ID, BudgetUpdate{StartDate: &newStart})
		testutil.AssertNoError(t, err)
	})

	t.Run("moving_into_other_budget_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		org := testutil.CreateTestOrganization(t, db)
		user := testutil.CreateTestUser(t, db, org.ID)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)
		testutil.CreateTestBudget(t, db, user.ID, cat.ID, "100000", janFirst(2025))

		june := time.Date(2026, time.June, 1, 0, 0, 0, 0, dates.Location())
		later := testutil.CreateTestBudget(t, db, user.ID, cat.ID, "50000", june)

		// January is covered by the first, open-ended budget
		feb := time.Date(2025, time.February, 1, 0, 0, 0, 0, dates.Location())
		_, err := svc.UpdateBudget(later.ID, BudgetUpdate{StartDate: &feb})
		testutil.AssertAppError(t, err, "BUDGET_OVERLAP")
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)

		name := "Nope"
		_, err := svc.UpdateBudget(9999, BudgetUpdate{Name: name})
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})
}

func TestDeleteBudget(t *testing.T) {
	t.Run("soft_delete_keeps_row", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		org := testutil.CreateTestOrganization(t, db)
		user := testutil.CreateTestUser(t, db, org.ID)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)
		budget := testutil.CreateTestBudget(t, db, user.ID, cat.ID, "100000", janFirst(2025))

		testutil.AssertNoError(t, svc.DeleteBudget(budget.ID))

		reloaded, err := svc.GetBudgetByID(budget.ID)
		testutil.AssertNoError(t, err)
		if reloaded.IsActive {
			t.Error("expected budget to be deactivated")
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)

		err := svc.DeleteBudget(9999)
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})
}

func TestGetBudgets(t *testing.T) {
	t.Run("user_scope_returns_own_budgets_only", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		org := testutil.CreateTestOrganization(t, db)
		user1 := testutil.CreateTestUser(t, db, org.ID)
		user2 := testutil.CreateTestUser(t, db, org.ID)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

		testutil.CreateTestBudget(t, db, user1.ID, cat.ID, "100000", janFirst(2025))
		testutil.CreateTestBudget(t, db, user2.ID, cat.ID, "50000", janFirst(2025))

		page := pagination.PageRequest{Page: 1, PageSize: 20}
		result, err := svc.GetBudgets(BudgetScope{UserID: &user1.ID}, page, BudgetFilter{})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 1 {
			t.Errorf("expected 1 budget, got %d", result.TotalItems)
		}
	})

	t.Run("organization_scope_spans_users", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		org := testutil.CreateTestOrganization(t, db)
		otherOrg := testutil.CreateTestOrganization(t, db)
		user1 := testutil.CreateTestUser(t, db, org.ID)
		user2 := testutil.CreateTestUser(t, db, org.ID)
		outsider := testutil.CreateTestUser(t, db, otherOrg.ID)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

		testutil.CreateTestBudget(t, db, user1.ID, cat.ID, "100000", janFirst(2025))
		testutil.CreateTestBudget(t, db, user2.ID, cat.ID, "50000", janFirst(2025))
		testutil.CreateTestBudget(t, db, outsider.ID, cat.ID, "75000", janFirst(2025))

		page := pagination.PageRequest{Page: 1, PageSize: 20}
		result, err := svc.GetBudgets(BudgetScope{OrganizationID: &org.ID}, page, BudgetFilter{})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 2 {
			t.Errorf("expected 2 budgets, got %d", result.TotalItems)
		}
	})

	t.Run("month_filter_selects_intersecting_periods", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		org := testutil.CreateTestOrganization(t, db)
		user := testutil.CreateTestUser(t, db, org.ID)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

		// January-only budget
		jan := testutil.CreateTestBudget(t, db, user.ID, cat.ID, "100000", janFirst(2025))
		end := time.Date(2025, time.January, 31, 23, 59, 59, 0, dates.Location())
		if err := db.Model(jan).Update("end_date", end).Error; err != nil {
			t.Fatalf("failed to bound budget: %v", err)
		}
		// Open-ended budget starting in June
		june := time.Date(2025, time.June, 1, 0, 0, 0, 0, dates.Location())
		testutil.CreateTestBudget(t, db, user.ID, cat.ID, "50000", june)

		year := 2025
		march := time.March
		page := pagination.PageRequest{Page: 1, PageSize: 20}
		result, err := svc.GetBudgets(BudgetScope{UserID: &user.ID}, page, BudgetFilter{Year: &year, Month: &march})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 0 {
			t.Errorf("expected no budgets covering March, got %d", result.TotalItems)
		}

		july := time.July
		result, err = svc.GetBudgets(BudgetScope{UserID: &user.ID}, page, BudgetFilter{Year: &year, Month: &july})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 1 {
			t.Errorf("expected 1 budget covering July, got %d", result.TotalItems)
		}
	})
}
