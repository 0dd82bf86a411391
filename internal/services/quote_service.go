// internal/services/quote_service.go
package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tradebridge/tradebridge-backend/internal/apperrors"
	"github.com/tradebridge/tradebridge-backend/internal/database"
	"github.com/tradebridge/tradebridge-backend/internal/models"
	"github.com/tradebridge/tradebridge-backend/internal/utils"
)

type QuoteService struct {
	db                  *gorm.DB
	orderService        *OrderService
	notificationService *NotificationService
}

type CreateQuoteRequest struct {
	ProductID   uuid.UUID  `json:"product_id" validate:"required"`
	MiddlemanID *uuid.UUID `json:"middleman_id,omitempty"`
	CustomerID  *uuid.UUID `json:"customer_id,omitempty"`
	Quantity    int        `json:"quantity" validate:"required,gt=0"`
	CostPrice   float64    `json:"cost_price" validate:"gte=0"`
	Currency    string     `json:"currency" validate:"required,currency"`
	TradeTerm   string     `json:"trade_term" validate:"required"`
	ValidUntil  time.Time  `json:"valid_until" validate:"required"`
	Notes       string     `json:"notes,omitempty"`
}

type UpdateQuoteRequest struct {
	MiddlemanID *uuid.UUID `json:"middleman_id,omitempty"`
	CustomerID  *uuid.UUID `json:"customer_id,omitempty"`
	Quantity    *int       `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	CostPrice   *float64   `json:"cost_price,omitempty" validate:"omitempty,gte=0"`
	TradeTerm   *string    `json:"trade_term,omitempty"`
	ValidUntil  *time.Time `json:"valid_until,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
}

type QuoteSearchParams struct {
	utils.PaginationParams
	Status    string     `json:"status,omitempty"`
	ProductID *uuid.UUID `json:"product_id,omitempty"`
}

func NewQuoteService(db *gorm.DB, orderService *OrderService, notificationService *NotificationService) *QuoteService {
	return &QuoteService{
		db:                  db,
		orderService:        orderService,
		notificationService: notificationService,
	}
}

// roundMoney keeps monetary values at two decimal places.
func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// SellingPriceForMargin derives the selling price that yields the given
// margin as a percentage of the selling price: selling = cost / (1 - m/100).
func SellingPriceForMargin(costPrice, marginPercent float64) (float64, error) {
	if marginPercent >= 100 {
		return 0, apperrors.New(apperrors.KindInvalidMargin, "margin percentage must be below 100")
	}
	if marginPercent == 0 {
		return costPrice, nil
	}
	return costPrice / (1 - marginPercent/100), nil
}

// MarginForSellingPrice is the inverse derivation: the margin as a
// percentage of the selling price. A zero selling price yields zero margin.
func MarginForSellingPrice(costPrice, sellingPrice float64) float64 {
	if sellingPrice == 0 {
		return 0
	}
	return (sellingPrice - costPrice) / sellingPrice * 100
}

func (s *QuoteService) CreateQuote(supplierID uuid.UUID, req *CreateQuoteRequest) (*models.Quote, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "validation failed")
	}

	tradeTerm := models.TradeTerm(req.TradeTerm)
	if !tradeTerm.Valid() {
		return nil, apperrors.Newf(apperrors.KindValidation, "invalid trade term: %s", req.TradeTerm)
	}

	// The product must belong to the quoting supplier
	var product models.Product
	if err := s.db.First(&product, req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("product")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if product.SupplierID != supplierID {
		return nil, apperrors.New(apperrors.KindForbidden, "product belongs to another supplier")
	}

	if req.MiddlemanID != nil {
		if err := s.requireRole(*req.MiddlemanID, models.UserRoleMiddleman, "middleman"); err != nil {
			return nil, err
		}
	}
	if req.CustomerID != nil {
		if err := s.requireRole(*req.CustomerID, models.UserRoleCustomer, "customer"); err != nil {
			return nil, err
		}
	}

	quote := &models.Quote{
		ProductID:   req.ProductID,
		SupplierID:  supplierID,
		MiddlemanID: req.MiddlemanID,
		CustomerID:  req.CustomerID,
		Quantity:    req.Quantity,
		CostPrice:   req.CostPrice,
		Currency:    req.Currency,
		TradeTerm:   tradeTerm,
		ValidUntil:  req.ValidUntil,
		Status:      models.QuoteStatusDraft,
		Notes:       req.Notes,
	}

	if err := s.db.Create(quote).Error; err != nil {
		return nil, fmt.Errorf("failed to create quote: %w", err)
	}

	return quote, nil
}

func (s *QuoteService) UpdateQuote(quoteID, actorID uuid.UUID, req *UpdateQuoteRequest) (*models.Quote, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "validation failed")
	}

	quote, err := s.loadEditableQuote(quoteID, actorID)
	if err != nil {
		return nil, err
	}

	if req.MiddlemanID != nil {
		if err := s.requireRole(*req.MiddlemanID, models.UserRoleMiddleman, "middleman"); err != nil {
			return nil, err
		}
		quote.MiddlemanID = req.MiddlemanID
	}
	if req.CustomerID != nil {
		if err := s.requireRole(*req.CustomerID, models.UserRoleCustomer, "customer"); err != nil {
			return nil, err
		}
		quote.CustomerID = req.CustomerID
	}
	if req.Quantity != nil {
		quote.Quantity = *req.Quantity
	}
	if req.CostPrice != nil {
		quote.CostPrice = *req.CostPrice
		// Re-derive the selling price so a previously chosen margin keeps
		// holding against the new cost.
		if quote.MarginPercent != nil {
			selling, err := SellingPriceForMargin(quote.CostPrice, *quote.MarginPercent)
			if err != nil {
				return nil, err
			}
			quote.SellingPrice = &selling
		}
	}
	if req.TradeTerm != nil {
		tradeTerm := models.TradeTerm(*req.TradeTerm)
		if !tradeTerm.Valid() {
			return nil, apperrors.Newf(apperrors.KindValidation, "invalid trade term: %s", *req.TradeTerm)
		}
		quote.TradeTerm = tradeTerm
	}
	if req.ValidUntil != nil {
		quote.ValidUntil = *req.ValidUntil
	}
	if req.Notes != nil {
		quote.Notes = *req.Notes
	}

	if err := s.db.Save(quote).Error; err != nil {
		return nil, fmt.Errorf("failed to update quote: %w", err)
	}

	return quote, nil
}

// SetMarginFromPercentage derives the selling price from the margin
// percentage and stores both on the quote.
func (s *QuoteService) SetMarginFromPercentage(quoteID, actorID uuid.UUID, marginPercent float64) (*models.Quote, error) {
	quote, err := s.loadEditableQuote(quoteID, actorID)
	if err != nil {
		return nil, err
	}

	// Full precision is kept on the quote; rounding happens when the
	// order total is frozen.
	selling, err := SellingPriceForMargin(quote.CostPrice, marginPercent)
	if err != nil {
		return nil, err
	}
	quote.SellingPrice = &selling
	quote.MarginPercent = &marginPercent

	if err := s.db.Save(quote).Error; err != nil {
		return nil, fmt.Errorf("failed to update quote margin: %w", err)
	}

	return quote, nil
}

// SetSellingPrice stores a direct selling price and back-derives the
// resulting margin percentage.
func (s *QuoteService) SetSellingPrice(quoteID, actorID uuid.UUID, sellingPrice float64) (*models.Quote, error) {
	if sellingPrice < 0 {
		return nil, apperrors.New(apperrors.KindValidation, "selling price must not be negative")
	}

	quote, err := s.loadEditableQuote(quoteID, actorID)
	if err != nil {
		return nil, err
	}

	margin := MarginForSellingPrice(quote.CostPrice, sellingPrice)
	quote.SellingPrice = &sellingPrice
	quote.MarginPercent = &margin

	if err := s.db.Save(quote).Error; err != nil {
		return nil, fmt.Errorf("failed to update quote price: %w", err)
	}

	return quote, nil
}

// SendQuote moves a draft quote to sent and notifies the customer. Sending
// designates the recipient: a customer passed here is attached to the quote,
// and a quote without any customer cannot be sent.
func (s *QuoteService) SendQuote(quoteID, actorID uuid.UUID, customerID *uuid.UUID) (*models.Quote, error) {
	var quote models.Quote
	if err := s.db.Preload("Product").Preload("Supplier").
		First(&quote, quoteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("quote")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if quote.SupplierID != actorID && (quote.MiddlemanID == nil || *quote.MiddlemanID != actorID) {
		return nil, apperrors.New(apperrors.KindForbidden, "unauthorized to send quote")
	}

	now := time.Now()
	if quote.IsExpired(now) {
		return nil, apperrors.New(apperrors.KindInvalidState, "quote validity window has passed")
	}
	if quote.Status != models.QuoteStatusDraft {
		return nil, apperrors.Newf(apperrors.KindInvalidState, "quote cannot be sent from status %s", quote.Status)
	}

	if customerID != nil {
		if err := s.requireRole(*customerID, models.UserRoleCustomer, "customer"); err != nil {
			return nil, err
		}
		quote.CustomerID = customerID
	}
	if quote.CustomerID == nil {
		return nil, apperrors.New(apperrors.KindMissingParty, "quote requires a customer recipient before it can be sent")
	}

	quote.Status = models.QuoteStatusSent
	if err := s.db.Save(&quote).Error; err != nil {
		return nil, fmt.Errorf("failed to send quote: %w", err)
	}
	if err := s.db.Preload("Customer").First(&quote, quote.ID).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	// Notify customer asynchronously
	go func() {
		if err := s.notificationService.SendQuoteSentNotification(&quote); err != nil {
			logrus.WithError(err).Warn("Failed to send quote notification")
		}
	}()

	return &quote, nil
}

// AcceptQuote transitions a sent quote to accepted and spawns its order
// in the same transaction. A quote spawns at most one order.
func (s *QuoteService) AcceptQuote(quoteID, actorID uuid.UUID, shippingAddress string) (*models.Quote, *models.Order, error) {
	var quote models.Quote
	var order *models.Order

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := database.LockForUpdate(tx).
			Preload("Product").Preload("Supplier").Preload("Customer").
			First(&quote, quoteID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("quote")
			}
			return fmt.Errorf("database error: %w", err)
		}

		if quote.CustomerID == nil || quote.MiddlemanID == nil {
			return apperrors.New(apperrors.KindMissingParty, "quote requires both a customer and a middleman before acceptance")
		}

		if actorID != *quote.CustomerID && actorID != *quote.MiddlemanID {
			return apperrors.New(apperrors.KindForbidden, "unauthorized to accept quote")
		}

		now := time.Now()
		if quote.IsExpired(now) {
			return apperrors.New(apperrors.KindInvalidState, "quote validity window has passed")
		}
		if quote.Status != models.QuoteStatusSent {
			return apperrors.Newf(apperrors.KindInvalidState, "quote cannot be accepted from status %s", quote.Status)
		}
		if quote.OrderID != nil {
			return apperrors.New(apperrors.KindConflict, "quote has already spawned an order")
		}

		created, err := s.orderService.CreateOrderFromQuote(tx, &quote, actorID, shippingAddress)
		if err != nil {
			return err
		}

		quote.Status = models.QuoteStatusAccepted
		quote.OrderID = &created.ID
		if err := tx.Save(&quote).Error; err != nil {
			return fmt.Errorf("failed to accept quote: %w", err)
		}

		order = created
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	// Notify supplier asynchronously
	go func() {
		if err := s.notificationService.SendQuoteAcceptedNotification(&quote, order); err != nil {
			logrus.WithError(err).Warn("Failed to send quote accepted notification")
		}
	}()

	return &quote, order, nil
}

// RejectQuote transitions a sent quote to its rejected terminal state.
func (s *QuoteService) RejectQuote(quoteID, actorID uuid.UUID) (*models.Quote, error) {
	var quote models.Quote
	if err := s.db.First(&quote, quoteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("quote")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if (quote.CustomerID == nil || *quote.CustomerID != actorID) &&
		(quote.MiddlemanID == nil || *quote.MiddlemanID != actorID) {
		return nil, apperrors.New(apperrors.KindForbidden, "unauthorized to reject quote")
	}

	if quote.IsExpired(time.Now()) {
		return nil, apperrors.New(apperrors.KindInvalidState, "quote validity window has passed")
	}
	if quote.Status != models.QuoteStatusSent {
		return nil, apperrors.Newf(apperrors.KindInvalidState, "quote cannot be rejected from status %s", quote.Status)
	}

	quote.Status = models.QuoteStatusRejected
	if err := s.db.Save(&quote).Error; err != nil {
		return nil, fmt.Errorf("failed to reject quote: %w", err)
	}

	return &quote, nil
}

func (s *QuoteService) GetQuote(quoteID, actorID uuid.UUID, actorRole models.UserRole) (*models.Quote, error) {
	var quote models.Quote
	if err := s.db.Preload("Product").Preload("Supplier").Preload("Middleman").Preload("Customer").
		First(&quote, quoteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("quote")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !s.isParty(&quote, actorID) && actorRole != models.UserRoleAdmin {
		return nil, apperrors.New(apperrors.KindForbidden, "unauthorized to view quote")
	}

	return &quote, nil
}

// ListQuotes returns the quotes the actor participates in, admin sees all.
func (s *QuoteService) ListQuotes(actorID uuid.UUID, actorRole models.UserRole, params QuoteSearchParams) ([]models.Quote, int64, error) {
	query := s.db.Model(&models.Quote{}).
		Preload("Product").Preload("Supplier").Preload("Middleman").Preload("Customer")

	if actorRole != models.UserRoleAdmin {
		query = query.Where("supplier_id = ? OR middleman_id = ? OR customer_id = ?", actorID, actorID, actorID)
	}

	if params.Status != "" {
		now := time.Now()
		switch models.QuoteStatus(params.Status) {
		case models.QuoteStatusExpired:
			// Expiry is derived, not stored
			query = query.Where("status NOT IN ? AND valid_until < ?",
				[]models.QuoteStatus{models.QuoteStatusAccepted, models.QuoteStatusRejected}, now)
		case models.QuoteStatusDraft, models.QuoteStatusSent:
			query = query.Where("status = ? AND valid_until >= ?", params.Status, now)
		default:
			query = query.Where("status = ?", params.Status)
		}
	}

	if params.ProductID != nil {
		query = query.Where("product_id = ?", *params.ProductID)
	}

	// Get total count
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count quotes: %w", err)
	}

	// Apply sorting and pagination
	allowedSortFields := []string{"created_at", "valid_until", "cost_price", "quantity", "status"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var quotes []models.Quote
	if err := query.Find(&quotes).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch quotes: %w", err)
	}

	return quotes, total, nil
}

// loadEditableQuote fetches a quote that may still change: not accepted,
// not rejected, edited only by its supplier or middleman.
func (s *QuoteService) loadEditableQuote(quoteID, actorID uuid.UUID) (*models.Quote, error) {
	var quote models.Quote
	if err := s.db.First(&quote, quoteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("quote")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if quote.SupplierID != actorID && (quote.MiddlemanID == nil || *quote.MiddlemanID != actorID) {
		return nil, apperrors.New(apperrors.KindForbidden, "unauthorized to modify quote")
	}

	if quote.Status == models.QuoteStatusAccepted || quote.Status == models.QuoteStatusRejected {
		return nil, apperrors.Newf(apperrors.KindInvalidState, "quote in status %s can no longer change", quote.Status)
	}

	return &quote, nil
}

func (s *QuoteService) isParty(quote *models.Quote, userID uuid.UUID) bool {
	if quote.SupplierID == userID {
		return true
	}
	if quote.MiddlemanID != nil && *quote.MiddlemanID == userID {
		return true
	}
	if quote.CustomerID != nil && *quote.CustomerID == userID {
		return true
	}
	return false
}

func (s *QuoteService) requireRole(userID uuid.UUID, role models.UserRole, label string) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound(label)
		}
		return fmt.Errorf("database error: %w", err)
	}
	if user.Role != role {
		return apperrors.Newf(apperrors.KindValidation, "user %s is not a %s", userID, label)
	}
	return nil
}
