// internal/services/order_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tradebridge/tradebridge-backend/internal/apperrors"
	"github.com/tradebridge/tradebridge-backend/internal/database"
	"github.com/tradebridge/tradebridge-backend/internal/models"
	"github.com/tradebridge/tradebridge-backend/internal/utils"
)

type OrderService struct {
	db                  *gorm.DB
	notificationService *NotificationService
}

type OrderSearchParams struct {
	utils.PaginationParams
	Status        string `json:"status,omitempty"`
	PaymentStatus string `json:"payment_status,omitempty"`
}

// advanceTransitions fixes the single next step from each status. The
// paid status is only entered through payment settlement, so advancing a
// confirmed order skips directly to shipped.
var advanceTransitions = map[models.OrderStatus]models.OrderStatus{
	models.OrderStatusPending:   models.OrderStatusConfirmed,
	models.OrderStatusConfirmed: models.OrderStatusShipped,
	models.OrderStatusPaid:      models.OrderStatusShipped,
	models.OrderStatusShipped:   models.OrderStatusDelivered,
	models.OrderStatusDelivered: models.OrderStatusCompleted,
}

func NewOrderService(db *gorm.DB, notificationService *NotificationService) *OrderService {
	return &OrderService{
		db:                  db,
		notificationService: notificationService,
	}
}

// CreateOrderFromQuote materializes the accepted quote as an order inside
// the caller's transaction. The total amount is frozen at creation time
// from the quote's unit price and quantity.
func (s *OrderService) CreateOrderFromQuote(tx *gorm.DB, quote *models.Quote, actorID uuid.UUID, shippingAddress string) (*models.Order, error) {
	if quote.CustomerID == nil || quote.MiddlemanID == nil {
		return nil, apperrors.New(apperrors.KindMissingParty, "quote requires both a customer and a middleman before acceptance")
	}

	order := &models.Order{
		QuoteID:         quote.ID,
		CustomerID:      *quote.CustomerID,
		MiddlemanID:     *quote.MiddlemanID,
		SupplierID:      quote.SupplierID,
		Status:          models.OrderStatusPending,
		TotalAmount:     roundMoney(quote.UnitPrice() * float64(quote.Quantity)),
		Currency:        quote.Currency,
		PaymentStatus:   models.OrderPaymentStatusPending,
		ShippingAddress: shippingAddress,
	}

	if err := tx.Create(order).Error; err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err := s.AppendEvent(tx, order.ID, models.OrderEventCreated,
		fmt.Sprintf("Order created from quote %s", quote.ID), actorID); err != nil {
		return nil, err
	}

	return order, nil
}

// AdvanceStatus moves the order one step along its lifecycle.
func (s *OrderService) AdvanceStatus(orderID, actorID uuid.UUID) (*models.Order, error) {
	var order models.Order

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := database.LockForUpdate(tx).First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("order")
			}
			return fmt.Errorf("database error: %w", err)
		}

		next, ok := advanceTransitions[order.Status]
		if !ok {
			return apperrors.Newf(apperrors.KindTerminalState, "order in status %s cannot advance", order.Status)
		}

		return s.applyStatus(tx, &order, next, actorID)
	})
	if err != nil {
		return nil, err
	}

	s.notifyStatusChange(&order)
	return &order, nil
}

// SetStatus moves the order to an explicit target status. Only forward
// movement is allowed; the sequence never runs backwards.
func (s *OrderService) SetStatus(orderID, actorID uuid.UUID, target models.OrderStatus) (*models.Order, error) {
	targetRank, ok := target.Rank()
	if !ok {
		return nil, apperrors.Newf(apperrors.KindValidation, "invalid order status: %s", target)
	}

	var order models.Order
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := database.LockForUpdate(tx).First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("order")
			}
			return fmt.Errorf("database error: %w", err)
		}

		currentRank, _ := order.Status.Rank()
		if order.Status == models.OrderStatusCompleted {
			return apperrors.New(apperrors.KindTerminalState, "order is already completed")
		}
		if targetRank <= currentRank {
			return apperrors.Newf(apperrors.KindInvalidState,
				"order status cannot move from %s to %s", order.Status, target)
		}

		return s.applyStatus(tx, &order, target, actorID)
	})
	if err != nil {
		return nil, err
	}

	s.notifyStatusChange(&order)
	return &order, nil
}

func (s *OrderService) applyStatus(tx *gorm.DB, order *models.Order, next models.OrderStatus, actorID uuid.UUID) error {
	previous := order.Status
	order.Status = next
	if err := tx.Save(order).Error; err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	eventType := models.OrderEventStatusChanged
	switch next {
	case models.OrderStatusShipped:
		eventType = models.OrderEventShipped
	case models.OrderStatusDelivered:
		eventType = models.OrderEventDelivered
	}

	return s.AppendEvent(tx, order.ID, eventType,
		fmt.Sprintf("Order status changed from %s to %s", previous, next), actorID)
}

// AppendEvent adds a row to the order's append-only event trail.
func (s *OrderService) AppendEvent(tx *gorm.DB, orderID uuid.UUID, eventType models.OrderEventType, description string, actorID uuid.UUID) error {
	event := &models.OrderEvent{
		OrderID:     orderID,
		Type:        eventType,
		Description: description,
		ActorID:     actorID,
	}
	if err := tx.Create(event).Error; err != nil {
		return fmt.Errorf("failed to append order event: %w", err)
	}
	return nil
}

// RecordEvent appends a caller-supplied event to the order trail.
func (s *OrderService) RecordEvent(orderID, actorID uuid.UUID, actorRole models.UserRole, eventType models.OrderEventType, description string) (*models.OrderEvent, error) {
	if !eventType.Valid() {
		return nil, apperrors.Newf(apperrors.KindValidation, "invalid event type: %s", eventType)
	}
	if description == "" {
		return nil, apperrors.New(apperrors.KindValidation, "event description is required")
	}

	var order models.Order
	if err := s.db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("order")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !s.isParty(&order, actorID) && actorRole != models.UserRoleAdmin {
		return nil, apperrors.New(apperrors.KindForbidden, "unauthorized to record events for order")
	}

	event := &models.OrderEvent{
		OrderID:     orderID,
		Type:        eventType,
		Description: description,
		ActorID:     actorID,
	}
	if err := s.db.Create(event).Error; err != nil {
		return nil, fmt.Errorf("failed to append order event: %w", err)
	}

	return event, nil
}

func (s *OrderService) GetOrder(orderID, actorID uuid.UUID, actorRole models.UserRole) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("Quote").Preload("Quote.Product").
		Preload("Customer").Preload("Middleman").Preload("Supplier").
		Preload("Documents").Preload("Payments").
		Preload("Events", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("order")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !s.isParty(&order, actorID) && actorRole != models.UserRoleAdmin {
		return nil, apperrors.New(apperrors.KindForbidden, "unauthorized to view order")
	}

	return &order, nil
}

// GetOrderEvents returns the event trail in append order.
func (s *OrderService) GetOrderEvents(orderID, actorID uuid.UUID, actorRole models.UserRole) ([]models.OrderEvent, error) {
	if _, err := s.GetOrder(orderID, actorID, actorRole); err != nil {
		return nil, err
	}

	var events []models.OrderEvent
	if err := s.db.Where("order_id = ?", orderID).
		Order("created_at ASC").
		Preload("Actor").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch order events: %w", err)
	}

	return events, nil
}

// ListOrders returns the orders the actor participates in, admin sees all.
func (s *OrderService) ListOrders(actorID uuid.UUID, actorRole models.UserRole, params OrderSearchParams) ([]models.Order, int64, error) {
	query := s.db.Model(&models.Order{}).
		Preload("Quote").Preload("Quote.Product").
		Preload("Customer").Preload("Middleman").Preload("Supplier")

	if actorRole != models.UserRoleAdmin {
		query = query.Where("supplier_id = ? OR middleman_id = ? OR customer_id = ?", actorID, actorID, actorID)
	}

	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.PaymentStatus != "" {
		query = query.Where("payment_status = ?", params.PaymentStatus)
	}

	// Get total count
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	// Apply sorting and pagination
	allowedSortFields := []string{"created_at", "total_amount", "status", "payment_status"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}

	return orders, total, nil
}

func (s *OrderService) isParty(order *models.Order, userID uuid.UUID) bool {
	return order.SupplierID == userID || order.MiddlemanID == userID || order.CustomerID == userID
}

func (s *OrderService) notifyStatusChange(order *models.Order) {
	go func() {
		if err := s.notificationService.SendOrderStatusNotification(order, order.Status); err != nil {
			logrus.WithError(err).Warn("Failed to send order status notification")
		}
	}()
}
