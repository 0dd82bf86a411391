// internal/services/product_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradebridge/tradebridge-backend/internal/apperrors"
	"github.com/tradebridge/tradebridge-backend/internal/models"
	"github.com/tradebridge/tradebridge-backend/internal/utils"
)

type ProductService struct {
	db *gorm.DB
}

type CreateProductRequest struct {
	Name           string            `json:"name" validate:"required,max=255"`
	Category       string            `json:"category,omitempty" validate:"omitempty,max=100"`
	Description    string            `json:"description,omitempty"`
	ImageURL       string            `json:"image_url,omitempty" validate:"omitempty,url"`
	Specifications map[string]string `json:"specifications,omitempty"`
	MinOrderQty    int               `json:"min_order_qty" validate:"required,gt=0"`
	LeadTimeDays   int               `json:"lead_time_days" validate:"required,gt=0"`
}

type UpdateProductRequest struct {
	Name           *string           `json:"name,omitempty" validate:"omitempty,max=255"`
	Category       *string           `json:"category,omitempty" validate:"omitempty,max=100"`
	Description    *string           `json:"description,omitempty"`
	ImageURL       *string           `json:"image_url,omitempty" validate:"omitempty,url"`
	Specifications map[string]string `json:"specifications,omitempty"`
	MinOrderQty    *int              `json:"min_order_qty,omitempty" validate:"omitempty,gt=0"`
	LeadTimeDays   *int              `json:"lead_time_days,omitempty" validate:"omitempty,gt=0"`
}

type ProductSearchParams struct {
	utils.PaginationParams
	SupplierID *uuid.UUID `json:"supplier_id,omitempty"`
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

func (s *ProductService) CreateProduct(supplierID uuid.UUID, req *CreateProductRequest) (*models.Product, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "validation failed")
	}

	// Verify the supplier exists and may own products
	var supplier models.User
	if err := s.db.First(&supplier, supplierID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("supplier")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if supplier.Role != models.UserRoleSupplier {
		return nil, apperrors.New(apperrors.KindForbidden, "only suppliers can create products")
	}

	product := &models.Product{
		Name:           req.Name,
		Category:       req.Category,
		Description:    req.Description,
		ImageURL:       req.ImageURL,
		Specifications: models.StringMap(req.Specifications),
		MinOrderQty:    req.MinOrderQty,
		LeadTimeDays:   req.LeadTimeDays,
		SupplierID:     supplierID,
	}

	if err := s.db.Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

func (s *ProductService) UpdateProduct(productID, actorID uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "validation failed")
	}

	var product models.Product
	if err := s.db.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("product")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if product.SupplierID != actorID {
		var actor models.User
		if err := s.db.First(&actor, actorID).Error; err != nil {
			return nil, apperrors.New(apperrors.KindForbidden, "unauthorized to update product")
		}
		if actor.Role != models.UserRoleAdmin {
			return nil, apperrors.New(apperrors.KindForbidden, "unauthorized to update product")
		}
	}

	// Partial field merge
	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.ImageURL != nil {
		product.ImageURL = *req.ImageURL
	}
	if req.Specifications != nil {
		product.Specifications = models.StringMap(req.Specifications)
	}
	if req.MinOrderQty != nil {
		product.MinOrderQty = *req.MinOrderQty
	}
	if req.LeadTimeDays != nil {
		product.LeadTimeDays = *req.LeadTimeDays
	}

	if err := s.db.Save(&product).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return &product, nil
}

func (s *ProductService) GetProduct(productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.Preload("Supplier").First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("product")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

func (s *ProductService) SearchProducts(params ProductSearchParams) ([]models.Product, int64, error) {
	query := s.db.Model(&models.Product{}).Preload("Supplier")

	if params.SupplierID != nil {
		query = query.Where("supplier_id = ?", *params.SupplierID)
	}

	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}

	if params.Search != "" {
		search := "%" + params.Search + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", search, search)
	}

	// Get total count
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	// Apply sorting and pagination
	allowedSortFields := []string{"created_at", "name", "category", "min_order_qty", "lead_time_days"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	// Execute query
	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	return products, total, nil
}
