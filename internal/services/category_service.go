package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "plata/internal/errors"
	"plata/internal/models"
	"plata/internal/pagination"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a new shared category.
func (s *categoryService) CreateCategory(name string, categoryType models.CategoryType, description, icon, colorHex string) (*models.Category, error) {
	category := &models.Category{
		Name:        name,
		Type:        categoryType,
		Description: description,
		Icon:        icon,
		ColorHex:    colorHex,
		IsActive:    true,
	}
	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// GetCategories returns a paginated list of active categories, optionally
// filtered by type.
func (s *categoryService) GetCategories(page pagination.PageRequest, categoryType *models.CategoryType) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	buildQuery := func() *gorm.DB {
		q := s.db.Model(&models.Category{}).Where("is_active = ?", true)
		if categoryType != nil {
			q = q.Where("type = ?", *categoryType)
		}
		return q
	}

	var totalItems int64
	if err := buildQuery().Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := buildQuery().
		Order("name ASC").
		Scopes(pagination.Paginate(page)).
		Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetCategoryByID returns a category by ID.
func (s *categoryService) GetCategoryByID(categoryID uint) (*models.Category, error) {
	var category models.Category
	if err := s.db.First(&category, categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// UpdateCategory updates a category's descriptive fields. The type is
// immutable because budgets and transactions depend on it.
func (s *categoryService) UpdateCategory(categoryID uint, name, description, icon, colorHex string) (*models.Category, error) {
	category, err := s.GetCategoryByID(categoryID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name != "" {
		updates["name"] = name
	}
	if description != "" {
		updates["description"] = description
	}
	if icon != "" {
		updates["icon"] = icon
	}
	if colorHex != "" {
		updates["color_hex"] = colorHex
	}

	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return category, nil
}

// DeleteCategory deactivates a category. Categories referenced by
// transactions or budgets cannot be removed.
func (s *categoryService) DeleteCategory(categoryID uint) error {
	category, err := s.GetCategoryByID(categoryID)
	if err != nil {
		return err
	}

	var count int64
	if err := s.db.Model(&models.Transaction{}).Where("category_id = ?", categoryID).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrCategoryInUse
	}
	if err := s.db.Model(&models.Budget{}).Where("category_id = ? AND is_active = ?", categoryID, true).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrCategoryInUse
	}

	if err := s.db.Model(category).Update("is_active", false).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
