// internal/services/payment_service.go
package services

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"gorm.io/gorm"

	"github.com/tradebridge/tradebridge-backend/internal/apperrors"
	"github.com/tradebridge/tradebridge-backend/internal/config"
	"github.com/tradebridge/tradebridge-backend/internal/database"
	"github.com/tradebridge/tradebridge-backend/internal/models"
	"github.com/tradebridge/tradebridge-backend/internal/utils"
)

type PaymentService struct {
	db                  *gorm.DB
	config              *config.Config
	orderService        *OrderService
	notificationService *NotificationService
}

type ProcessPaymentRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Method string  `json:"method" validate:"required"`
}

type ConfirmPaymentRequest struct {
	PaymentIntentID string    `json:"payment_intent_id" validate:"required"`
	PaymentID       uuid.UUID `json:"payment_id" validate:"required"`
}

type PaymentIntentResponse struct {
	Payment      *models.Payment `json:"payment"`
	ClientSecret string          `json:"client_secret,omitempty"`
}

// amountToMinorUnits converts a major-unit amount to the integer minor
// units Stripe expects. Rounding avoids float truncation of cents.
func amountToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func NewPaymentService(db *gorm.DB, cfg *config.Config, orderService *OrderService, notificationService *NotificationService) *PaymentService {
	// Initialize Stripe
	stripe.Key = cfg.Payment.StripeSecretKey

	return &PaymentService{
		db:                  db,
		config:              cfg,
		orderService:        orderService,
		notificationService: notificationService,
	}
}

// ProcessPayment records a settlement attempt against the order. Bank
// transfers go through Stripe when a key is configured and stay pending
// until the intent confirms; other methods settle synchronously. The
// amount is recorded as sent and is not reconciled against the order
// total.
func (s *PaymentService) ProcessPayment(orderID, payerID uuid.UUID, req *ProcessPaymentRequest) (*PaymentIntentResponse, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "validation failed")
	}

	method := models.PaymentMethod(req.Method)
	if !method.Valid() {
		return nil, apperrors.Newf(apperrors.KindValidation, "invalid payment method: %s", req.Method)
	}

	var order models.Order
	if err := s.db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("order")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if payerID != order.CustomerID && payerID != order.MiddlemanID {
		return nil, apperrors.New(apperrors.KindForbidden, "unauthorized to pay for order")
	}

	if order.Status == models.OrderStatusCompleted {
		return nil, apperrors.New(apperrors.KindTerminalState, "order is already completed")
	}
	if order.PaymentStatus == models.OrderPaymentStatusPaid {
		return nil, apperrors.New(apperrors.KindInvalidState, "order is already paid")
	}

	payment := &models.Payment{
		OrderID:  order.ID,
		PayerID:  payerID,
		PayeeID:  order.SupplierID,
		Amount:   req.Amount,
		Currency: order.Currency,
		Status:   models.PaymentStatusPending,
		Method:   method,
	}

	if method == models.PaymentMethodBankTransfer && s.config.Payment.StripeSecretKey != "" {
		params := &stripe.PaymentIntentParams{
			Amount:   stripe.Int64(amountToMinorUnits(req.Amount)),
			Currency: stripe.String(strings.ToLower(order.Currency)),
		}
		params.AddMetadata("order_id", order.ID.String())
		params.AddMetadata("payer_id", payerID.String())

		pi, err := paymentintent.New(params)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindInternal, err, "failed to create payment intent")
		}

		payment.ProviderReference = pi.ID
		if err := s.db.Create(payment).Error; err != nil {
			return nil, fmt.Errorf("failed to create payment: %w", err)
		}

		return &PaymentIntentResponse{
			Payment:      payment,
			ClientSecret: pi.ClientSecret,
		}, nil
	}

	// Synchronous settlement path
	if err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Create(payment).Error; err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}
		return s.settlePayment(tx, payment, &order)
	}); err != nil {
		return nil, err
	}

	s.notifyPaymentReceived(payment)
	return &PaymentIntentResponse{Payment: payment}, nil
}

// ConfirmPayment resolves a Stripe-backed payment against its intent.
func (s *PaymentService) ConfirmPayment(actorID uuid.UUID, req *ConfirmPaymentRequest) (*models.Payment, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "validation failed")
	}

	// Get payment intent from Stripe
	pi, err := paymentintent.Get(req.PaymentIntentID, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "failed to get payment intent")
	}

	var payment models.Payment
	if err := s.db.First(&payment, req.PaymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("payment")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if payment.PayerID != actorID {
		return nil, apperrors.New(apperrors.KindForbidden, "unauthorized to confirm payment")
	}
	if payment.Status != models.PaymentStatusPending {
		return nil, apperrors.Newf(apperrors.KindInvalidState, "payment in status %s cannot be confirmed", payment.Status)
	}
	if payment.ProviderReference != pi.ID {
		return nil, apperrors.New(apperrors.KindValidation, "payment intent does not match payment")
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		var order models.Order
		if err := s.db.First(&order, payment.OrderID).Error; err != nil {
			return nil, fmt.Errorf("database error: %w", err)
		}

		if err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
			return s.settlePayment(tx, &payment, &order)
		}); err != nil {
			return nil, err
		}

		s.notifyPaymentReceived(&payment)

	case stripe.PaymentIntentStatusRequiresAction, stripe.PaymentIntentStatusRequiresConfirmation,
		stripe.PaymentIntentStatusRequiresPaymentMethod, stripe.PaymentIntentStatusProcessing:
		// Still in flight, leave the payment pending

	default:
		payment.Status = models.PaymentStatusFailed
		payment.FailureReason = fmt.Sprintf("payment intent ended in status %s", pi.Status)
		if err := s.db.Save(&payment).Error; err != nil {
			return nil, fmt.Errorf("failed to update payment: %w", err)
		}
	}

	return &payment, nil
}

// settlePayment marks the payment completed and flips the order's payment
// state inside the caller's transaction.
func (s *PaymentService) settlePayment(tx *gorm.DB, payment *models.Payment, order *models.Order) error {
	now := time.Now()
	payment.Status = models.PaymentStatusCompleted
	payment.ProcessedAt = &now
	if err := tx.Save(payment).Error; err != nil {
		return fmt.Errorf("failed to settle payment: %w", err)
	}

	order.PaymentStatus = models.OrderPaymentStatusPaid
	if err := tx.Save(order).Error; err != nil {
		return fmt.Errorf("failed to update order payment status: %w", err)
	}

	return s.orderService.AppendEvent(tx, order.ID, models.OrderEventPaymentReceived,
		fmt.Sprintf("Payment of %.2f %s received via %s", payment.Amount, payment.Currency, payment.Method),
		payment.PayerID)
}

// GetPaymentHistory lists an order's payments, newest first.
func (s *PaymentService) GetPaymentHistory(orderID, actorID uuid.UUID, actorRole models.UserRole) ([]models.Payment, error) {
	var order models.Order
	if err := s.db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("order")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !s.orderService.isParty(&order, actorID) && actorRole != models.UserRoleAdmin {
		return nil, apperrors.New(apperrors.KindForbidden, "unauthorized to view payments")
	}

	var payments []models.Payment
	if err := s.db.Where("order_id = ?", orderID).
		Order("created_at DESC").
		Preload("Payer").Preload("Payee").
		Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch payments: %w", err)
	}

	return payments, nil
}

func (s *PaymentService) notifyPaymentReceived(payment *models.Payment) {
	go func() {
		if err := s.notificationService.SendPaymentReceivedNotification(payment); err != nil {
			logrus.WithError(err).Warn("Failed to send payment notification")
		}
	}()
}
