// internal/services/order_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/tradebridge/tradebridge-backend/internal/apperrors"
	"github.com/tradebridge/tradebridge-backend/internal/models"
)

type OrderServiceTestSuite struct {
	suite.Suite
	db           *gorm.DB
	orderService *OrderService
	quoteService *QuoteService

	supplier  *models.User
	middleman *models.User
	customer  *models.User
	order     *models.Order
}

func (suite *OrderServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())

	cfg := testConfig()
	notificationService := NewNotificationService(suite.db, cfg)
	suite.orderService = NewOrderService(suite.db, notificationService)
	suite.quoteService = NewQuoteService(suite.db, suite.orderService, notificationService)

	suite.supplier = createTestUser(suite.T(), suite.db, models.UserRoleSupplier)
	suite.middleman = createTestUser(suite.T(), suite.db, models.UserRoleMiddleman)
	suite.customer = createTestUser(suite.T(), suite.db, models.UserRoleCustomer)

	product := createTestProduct(suite.T(), suite.db, suite.supplier.ID)
	quote := createTestQuote(suite.T(), suite.db, product, &suite.middleman.ID, &suite.customer.ID)
	suite.NoError(suite.db.Model(quote).Update("status", models.QuoteStatusSent).Error)

	_, order, err := suite.quoteService.AcceptQuote(quote.ID, suite.customer.ID, "12 Dockside Ave")
	suite.NoError(err)
	suite.order = order
}

func (suite *OrderServiceTestSuite) TestAdvanceWalksTheLifecycle() {
	expected := []models.OrderStatus{
		models.OrderStatusConfirmed,
		models.OrderStatusShipped,
		models.OrderStatusDelivered,
		models.OrderStatusCompleted,
	}

	for _, want := range expected {
		order, err := suite.orderService.AdvanceStatus(suite.order.ID, suite.middleman.ID)
		suite.NoError(err)
		suite.Equal(want, order.Status)
	}

	// Completed is terminal
	_, err := suite.orderService.AdvanceStatus(suite.order.ID, suite.middleman.ID)
	suite.True(apperrors.IsKind(err, apperrors.KindTerminalState))
}

func (suite *OrderServiceTestSuite) TestAdvanceFromPaidSkipsToShipped() {
	suite.NoError(suite.db.Model(suite.order).Update("status", models.OrderStatusPaid).Error)

	order, err := suite.orderService.AdvanceStatus(suite.order.ID, suite.middleman.ID)
	suite.NoError(err)
	suite.Equal(models.OrderStatusShipped, order.Status)
}

func (suite *OrderServiceTestSuite) TestSetStatusForwardOnly() {
	order, err := suite.orderService.SetStatus(suite.order.ID, suite.middleman.ID, models.OrderStatusShipped)
	suite.NoError(err)
	suite.Equal(models.OrderStatusShipped, order.Status)

	// Regression is refused
	_, err = suite.orderService.SetStatus(suite.order.ID, suite.middleman.ID, models.OrderStatusConfirmed)
	suite.True(apperrors.IsKind(err, apperrors.KindInvalidState))

	// Same status is refused
	_, err = suite.orderService.SetStatus(suite.order.ID, suite.middleman.ID, models.OrderStatusShipped)
	suite.True(apperrors.IsKind(err, apperrors.KindInvalidState))
}

func (suite *OrderServiceTestSuite) TestSetStatusRejectsUnknownStatus() {
	_, err := suite.orderService.SetStatus(suite.order.ID, suite.middleman.ID, "cancelled")
	suite.True(apperrors.IsKind(err, apperrors.KindValidation))
}

func (suite *OrderServiceTestSuite) TestSetStatusOnCompletedOrderFails() {
	suite.NoError(suite.db.Model(suite.order).Update("status", models.OrderStatusCompleted).Error)

	_, err := suite.orderService.SetStatus(suite.order.ID, suite.middleman.ID, models.OrderStatusDelivered)
	suite.True(apperrors.IsKind(err, apperrors.KindTerminalState))
}

func (suite *OrderServiceTestSuite) TestEventTrailPreservesOrder() {
	_, err := suite.orderService.AdvanceStatus(suite.order.ID, suite.middleman.ID)
	suite.NoError(err)
	_, err = suite.orderService.SetStatus(suite.order.ID, suite.middleman.ID, models.OrderStatusShipped)
	suite.NoError(err)

	events, err := suite.orderService.GetOrderEvents(suite.order.ID, suite.customer.ID, models.UserRoleCustomer)
	suite.NoError(err)
	suite.Len(events, 3)
	suite.Equal(models.OrderEventCreated, events[0].Type)
	suite.Equal(models.OrderEventStatusChanged, events[1].Type)
	suite.Equal(models.OrderEventShipped, events[2].Type)
}

func (suite *OrderServiceTestSuite) TestRecordEventRequiresParty() {
	stranger := createTestUser(suite.T(), suite.db, models.UserRoleCustomer)

	_, err := suite.orderService.RecordEvent(suite.order.ID, stranger.ID, models.UserRoleCustomer,
		models.OrderEventStatusChanged, "note")
	suite.True(apperrors.IsKind(err, apperrors.KindForbidden))

	event, err := suite.orderService.RecordEvent(suite.order.ID, suite.supplier.ID, models.UserRoleSupplier,
		models.OrderEventStatusChanged, "packaging confirmed with freight forwarder")
	suite.NoError(err)
	suite.Equal(suite.supplier.ID, event.ActorID)
}

func (suite *OrderServiceTestSuite) TestGetOrderVisibility() {
	stranger := createTestUser(suite.T(), suite.db, models.UserRoleSupplier)

	_, err := suite.orderService.GetOrder(suite.order.ID, stranger.ID, models.UserRoleSupplier)
	suite.True(apperrors.IsKind(err, apperrors.KindForbidden))

	admin := createTestUser(suite.T(), suite.db, models.UserRoleAdmin)
	order, err := suite.orderService.GetOrder(suite.order.ID, admin.ID, models.UserRoleAdmin)
	suite.NoError(err)
	suite.Equal(suite.order.ID, order.ID)
}

func TestOrderServiceSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceTestSuite))
}
