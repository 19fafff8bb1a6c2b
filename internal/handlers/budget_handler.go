package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"plata/internal/dates"
	apperrors "plata/internal/errors"
	"plata/internal/models"
	"plata/internal/pagination"
	"plata/internal/services"
)

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService    services.BudgetServicer
	recurringService services.RecurringBudgetServicer
	auditService     services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, recurringService services.RecurringBudgetServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{
		budgetService:    budgetService,
		recurringService: recurringService,
		auditService:     auditService,
	}
}

// CreateBudgetRequest represents the request payload for creating a budget.
type CreateBudgetRequest struct {
	Name            string                   `json:"name" binding:"required,min=1,max=100"`
	Description     string                   `json:"description" binding:"omitempty,max=500"`
	CategoryID      uint                     `json:"category_id" binding:"required"`
	MonthlyAmount   decimal.Decimal          `json:"monthly_amount" binding:"required"`
	AlertThreshold  *decimal.Decimal         `json:"alert_threshold"`
	StartDate       time.Time                `json:"start_date" binding:"required"`
	EndDate         *time.Time               `json:"end_date"`
	IsRecurring     bool                     `json:"is_recurring"`
	RecurringMonths *int                     `json:"recurring_months" binding:"omitempty,min=1,max=60"`
	AutoAdjust      models.AutoAdjustPolicy  `json:"auto_adjust" binding:"omitempty,auto_adjust"`
}

// UpdateBudgetRequest represents the request payload for updating a budget.
// Absent fields are left untouched.
type UpdateBudgetRequest struct {
	Name            string                   `json:"name" binding:"omitempty,min=1,max=100"`
	Description     *string                  `json:"description" binding:"omitempty,max=500"`
	CategoryID      *uint                    `json:"category_id"`
	MonthlyAmount   *decimal.Decimal         `json:"monthly_amount"`
	AlertThreshold  *decimal.Decimal         `json:"alert_threshold"`
	StartDate       *time.Time               `json:"start_date"`
	EndDate         *time.Time               `json:"end_date"`
	IsActive        *bool                    `json:"is_active"`
	IsRecurring     *bool                    `json:"is_recurring"`
	RecurringMonths *int                     `json:"recurring_months" binding:"omitempty,min=1,max=60"`
	AutoAdjust      *models.AutoAdjustPolicy `json:"auto_adjust" binding:"omitempty,auto_adjust"`
}

// resolveScope builds the query scope for list and report endpoints. The
// default is the requester's own budgets; ?scope=organization widens it to
// the whole organization, which only admins and collaborators may do.
func resolveScope(c *gin.Context) (services.BudgetScope, error) {
	userID, err := getUserID(c)
	if err != nil {
		return services.BudgetScope{}, err
	}

	if c.Query("scope") != "organization" {
		return services.BudgetScope{UserID: &userID}, nil
	}

	role, err := getRole(c)
	if err != nil {
		return services.BudgetScope{}, err
	}
	if role != models.RoleAdmin && role != models.RoleCollaborator {
		return services.BudgetScope{}, apperrors.ErrForbidden
	}

	organizationID, err := getOrganizationID(c)
	if err != nil {
		return services.BudgetScope{}, err
	}
	return services.BudgetScope{OrganizationID: &organizationID}, nil
}

// authorizeBudgetAccess verifies that the requester may see a budget: its
// owner always, anyone else only within the same organization with an
// admin or collaborator role.
func authorizeBudgetAccess(c *gin.Context, budget *models.Budget) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}
	if budget.UserID == userID {
		return nil
	}

	role, err := getRole(c)
	if err != nil {
		return err
	}
	organizationID, err := getOrganizationID(c)
	if err != nil {
		return err
	}
	if (role == models.RoleAdmin || role == models.RoleCollaborator) && budget.User.OrganizationID == organizationID {
		return nil
	}
	return apperrors.ErrForbidden
}

// parseYearMonth parses optional year and month query parameters.
func parseYearMonth(c *gin.Context) (*int, *time.Month, error) {
	var year *int
	var month *time.Month

	if v := c.Query("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1970 || y > 9999 {
			return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "year must be a four-digit year")
		}
		year = &y
	}
	if v := c.Query("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be between 1 and 12")
		}
		mo := time.Month(m)
		month = &mo
	}
	return year, month, nil
}

// CreateBudget handles the creation of a new budget. When the budget is
// recurring, the monthly children are generated in the same request.
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	budget, err := h.budgetService.CreateBudget(userID, services.BudgetInput{
		Name:            req.Name,
		Description:     req.Description,
		CategoryID:      req.CategoryID,
		MonthlyAmount:   req.MonthlyAmount,
		AlertThreshold:  req.AlertThreshold,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		IsRecurring:     req.IsRecurring,
		RecurringMonths: req.RecurringMonths,
		AutoAdjust:      req.AutoAdjust,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	generated := 0
	if budget.IsRecurring {
		generated, err = h.recurringService.Generate(budget.ID)
		if err != nil {
			respondWithError(c, err)
			return
		}
	}

	h.auditService.Log(userID, "CREATE_BUDGET", "budget", budget.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name, "monthly_amount": req.MonthlyAmount.String()})

	c.JSON(http.StatusCreated, gin.H{"budget": budget, "generated_children": generated})
}

// GetBudgets handles listing budgets for the requester's scope.
func (h *BudgetHandler) GetBudgets(c *gin.Context) {
	scope, err := resolveScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var filter services.BudgetFilter
	if v := c.Query("category_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid category_id"))
			return
		}
		categoryID := uint(id)
		filter.CategoryID = &categoryID
	}
	filter.IsActive, err = parseBoolQuery(c, "is_active")
	if err != nil {
		respondWithError(c, err)
		return
	}
	filter.Search = c.Query("search")
	filter.Year, filter.Month, err = parseYearMonth(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.budgetService.GetBudgets(scope, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetBudget handles retrieving a specific budget.
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetBudgetByID(budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := authorizeBudgetAccess(c, budget); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// UpdateBudget handles updating an existing budget.
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	budget, err := h.budgetService.GetBudgetByID(budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := authorizeBudgetAccess(c, budget); err != nil {
		respondWithError(c, err)
		return
	}

	budget, err = h.budgetService.UpdateBudget(budgetID, services.BudgetUpdate{
		Name:            req.Name,
		Description:     req.Description,
		CategoryID:      req.CategoryID,
		MonthlyAmount:   req.MonthlyAmount,
		AlertThreshold:  req.AlertThreshold,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		IsActive:        req.IsActive,
		IsRecurring:     req.IsRecurring,
		RecurringMonths: req.RecurringMonths,
		AutoAdjust:      req.AutoAdjust,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	// Changing a recurring parent's amount leaves already-generated future
	// children stale, so they are deactivated and can be regenerated.
	if budget.IsRecurring && req.MonthlyAmount != nil {
		if err := h.recurringService.DeactivateFutureChildren(budgetID); err != nil {
			respondWithError(c, err)
			return
		}
	}

	h.auditService.Log(userID, "UPDATE_BUDGET", "budget", budgetID, c.ClientIP(),
		map[string]interface{}{"name": req.Name})

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// DeleteBudget handles soft-deleting a budget.
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetBudgetByID(budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := authorizeBudgetAccess(c, budget); err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.DeleteBudget(budgetID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_BUDGET", "budget", budgetID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Budget deleted successfully"})
}

// GetBudgetStatus handles retrieving the live status of a budget for a
// month, defaulting to the current one.
func (h *BudgetHandler) GetBudgetStatus(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetBudgetByID(budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := authorizeBudgetAccess(c, budget); err != nil {
		respondWithError(c, err)
		return
	}

	year, month, err := parseYearMonth(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	status, err := h.budgetService.CalculateBudgetStatus(budgetID, year, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": status})
}

// CheckBudgetAlerts handles an on-demand alert evaluation for a budget.
func (h *BudgetHandler) CheckBudgetAlerts(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetBudgetByID(budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := authorizeBudgetAccess(c, budget); err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.CheckBudgetAlerts(budgetID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Alerts checked"})
}

// GenerateRecurring handles generating the monthly children of a recurring
// budget.
func (h *BudgetHandler) GenerateRecurring(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetBudgetByID(budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := authorizeBudgetAccess(c, budget); err != nil {
		respondWithError(c, err)
		return
	}

	created, err := h.recurringService.Generate(budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "GENERATE_RECURRING", "budget", budgetID, c.ClientIP(),
		map[string]interface{}{"created": created})

	c.JSON(http.StatusOK, gin.H{"created": created})
}

// GetRecurringPreview handles previewing the children a recurring budget
// would generate, without persisting anything.
func (h *BudgetHandler) GetRecurringPreview(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetBudgetByID(budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := authorizeBudgetAccess(c, budget); err != nil {
		respondWithError(c, err)
		return
	}

	preview, err := h.recurringService.Preview(budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"preview": preview})
}

// CleanupDuplicates handles deactivating redundant budgets of one of the
// requester's categories.
func (h *BudgetHandler) CleanupDuplicates(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	v := c.Query("category_id")
	id, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid category_id"))
		return
	}

	deactivated, err := h.recurringService.CleanupDuplicates(userID, uint(id))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CLEANUP_BUDGETS", "category", uint(id), c.ClientIP(),
		map[string]interface{}{"deactivated": deactivated})

	c.JSON(http.StatusOK, gin.H{"deactivated": deactivated})
}

// GetBudgetReport handles the consolidated budget report for a month.
func (h *BudgetHandler) GetBudgetReport(c *gin.Context) {
	scope, err := resolveScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	year, month, err := parseYearMonth(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	y, m := dates.CurrentYearMonth()
	if year != nil {
		y = *year
	}
	if month != nil {
		m = *month
	}

	report, err := h.budgetService.GenerateBudgetReport(scope, y, m)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}
