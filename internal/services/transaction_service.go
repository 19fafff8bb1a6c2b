package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "plata/internal/errors"
	"plata/internal/models"
	"plata/internal/money"
	"plata/internal/pagination"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db}
}

// CreateTransaction records an income or expense against a category.
func (s *transactionService) CreateTransaction(userID, categoryID uint, transactionType models.TransactionType, amount decimal.Decimal, description string, date time.Time) (*models.Transaction, error) {
	if err := money.ValidateAmount(amount); err != nil {
		return nil, err
	}

	var category models.Category
	if err := s.db.Where("id = ? AND is_active = ?", categoryID, true).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	transaction := &models.Transaction{
		UserID:          userID,
		CategoryID:      categoryID,
		Type:            transactionType,
		Amount:          amount,
		Description:     description,
		TransactionDate: date,
	}
	if err := s.db.Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transaction, nil
}

// GetUserTransactions returns a paginated list of a user's transactions with
// optional filters, newest first.
func (s *transactionService) GetUserTransactions(userID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	buildQuery := func() *gorm.DB {
		q := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
		if filter.FromDate != nil {
			q = q.Where("transaction_date >= ?", *filter.FromDate)
		}
		if filter.ToDate != nil {
			q = q.Where("transaction_date <= ?", *filter.ToDate)
		}
		if filter.Type != nil {
			q = q.Where("type = ?", *filter.Type)
		}
		if filter.CategoryID != nil {
			q = q.Where("category_id = ?", *filter.CategoryID)
		}
		return q
	}

	var totalItems int64
	if err := buildQuery().Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := buildQuery().
		Preload("Category").
		Order("transaction_date DESC").
		Scopes(pagination.Paginate(page)).
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetTransactionByID returns one of the user's transactions by ID.
func (s *transactionService) GetTransactionByID(userID, transactionID uint) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Preload("Category").
		Where("id = ? AND user_id = ?", transactionID, userID).
		First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}
