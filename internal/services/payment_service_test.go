// internal/services/payment_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/tradebridge/tradebridge-backend/internal/apperrors"
	"github.com/tradebridge/tradebridge-backend/internal/models"
)

type PaymentServiceTestSuite struct {
	suite.Suite
	db             *gorm.DB
	paymentService *PaymentService

	supplier  *models.User
	middleman *models.User
	customer  *models.User
	order     *models.Order
}

func (suite *PaymentServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())

	// No Stripe key configured: every method settles synchronously
	cfg := testConfig()
	notificationService := NewNotificationService(suite.db, cfg)
	orderService := NewOrderService(suite.db, notificationService)
	quoteService := NewQuoteService(suite.db, orderService, notificationService)
	suite.paymentService = NewPaymentService(suite.db, cfg, orderService, notificationService)

	suite.supplier = createTestUser(suite.T(), suite.db, models.UserRoleSupplier)
	suite.middleman = createTestUser(suite.T(), suite.db, models.UserRoleMiddleman)
	suite.customer = createTestUser(suite.T(), suite.db, models.UserRoleCustomer)

	product := createTestProduct(suite.T(), suite.db, suite.supplier.ID)
	quote := createTestQuote(suite.T(), suite.db, product, &suite.middleman.ID, &suite.customer.ID)
	suite.NoError(suite.db.Model(quote).Update("status", models.QuoteStatusSent).Error)

	_, order, err := quoteService.AcceptQuote(quote.ID, suite.customer.ID, "5 Pier Lane")
	suite.NoError(err)
	suite.order = order
}

func (suite *PaymentServiceTestSuite) TestLetterOfCreditSettlesSynchronously() {
	resp, err := suite.paymentService.ProcessPayment(suite.order.ID, suite.customer.ID, &ProcessPaymentRequest{
		Amount: suite.order.TotalAmount,
		Method: "letter_credit",
	})
	suite.NoError(err)
	suite.Empty(resp.ClientSecret)

	payment := resp.Payment
	suite.Equal(models.PaymentStatusCompleted, payment.Status)
	suite.NotNil(payment.ProcessedAt)
	suite.Equal(suite.supplier.ID, payment.PayeeID)

	var order models.Order
	suite.NoError(suite.db.First(&order, suite.order.ID).Error)
	suite.Equal(models.OrderPaymentStatusPaid, order.PaymentStatus)

	// payment_received joined the event trail
	var events []models.OrderEvent
	suite.NoError(suite.db.Where("order_id = ? AND type = ?",
		order.ID, models.OrderEventPaymentReceived).Find(&events).Error)
	suite.Len(events, 1)
}

func (suite *PaymentServiceTestSuite) TestBankTransferWithoutStripeSettlesSynchronously() {
	resp, err := suite.paymentService.ProcessPayment(suite.order.ID, suite.middleman.ID, &ProcessPaymentRequest{
		Amount: suite.order.TotalAmount,
		Method: "bank_transfer",
	})
	suite.NoError(err)
	suite.Equal(models.PaymentStatusCompleted, resp.Payment.Status)
}

func (suite *PaymentServiceTestSuite) TestAmountIsRecordedAsSent() {
	// Partial or excess amounts are accepted as-is; reconciliation is a
	// bookkeeping concern outside the engine.
	resp, err := suite.paymentService.ProcessPayment(suite.order.ID, suite.customer.ID, &ProcessPaymentRequest{
		Amount: 1.50,
		Method: "crypto",
	})
	suite.NoError(err)
	suite.Equal(1.50, resp.Payment.Amount)
}

func (suite *PaymentServiceTestSuite) TestPayingPaidOrderFails() {
	_, err := suite.paymentService.ProcessPayment(suite.order.ID, suite.customer.ID, &ProcessPaymentRequest{
		Amount: suite.order.TotalAmount,
		Method: "crypto",
	})
	suite.NoError(err)

	_, err = suite.paymentService.ProcessPayment(suite.order.ID, suite.customer.ID, &ProcessPaymentRequest{
		Amount: 10,
		Method: "crypto",
	})
	suite.True(apperrors.IsKind(err, apperrors.KindInvalidState))
}

func (suite *PaymentServiceTestSuite) TestPayingCompletedOrderFails() {
	suite.NoError(suite.db.Model(suite.order).Update("status", models.OrderStatusCompleted).Error)

	_, err := suite.paymentService.ProcessPayment(suite.order.ID, suite.customer.ID, &ProcessPaymentRequest{
		Amount: 10,
		Method: "crypto",
	})
	suite.True(apperrors.IsKind(err, apperrors.KindTerminalState))
}

func (suite *PaymentServiceTestSuite) TestSupplierCannotPayOwnOrder() {
	_, err := suite.paymentService.ProcessPayment(suite.order.ID, suite.supplier.ID, &ProcessPaymentRequest{
		Amount: 10,
		Method: "crypto",
	})
	suite.True(apperrors.IsKind(err, apperrors.KindForbidden))
}

func (suite *PaymentServiceTestSuite) TestInvalidMethodFails() {
	_, err := suite.paymentService.ProcessPayment(suite.order.ID, suite.customer.ID, &ProcessPaymentRequest{
		Amount: 10,
		Method: "cash",
	})
	suite.True(apperrors.IsKind(err, apperrors.KindValidation))
}

func (suite *PaymentServiceTestSuite) TestPaymentHistory() {
	_, err := suite.paymentService.ProcessPayment(suite.order.ID, suite.customer.ID, &ProcessPaymentRequest{
		Amount: suite.order.TotalAmount,
		Method: "letter_credit",
	})
	suite.NoError(err)

	payments, err := suite.paymentService.GetPaymentHistory(suite.order.ID, suite.customer.ID, models.UserRoleCustomer)
	suite.NoError(err)
	suite.Len(payments, 1)

	stranger := createTestUser(suite.T(), suite.db, models.UserRoleCustomer)
	_, err = suite.paymentService.GetPaymentHistory(suite.order.ID, stranger.ID, models.UserRoleCustomer)
	suite.True(apperrors.IsKind(err, apperrors.KindForbidden))
}

func TestAmountToMinorUnits(t *testing.T) {
	assert.EqualValues(t, 2083333, amountToMinorUnits(20833.33))
	assert.EqualValues(t, 1999, amountToMinorUnits(19.99))
	assert.EqualValues(t, 150, amountToMinorUnits(1.50))
	assert.EqualValues(t, 0, amountToMinorUnits(0))
}

func TestPaymentServiceSuite(t *testing.T) {
	suite.Run(t, new(PaymentServiceTestSuite))
}
