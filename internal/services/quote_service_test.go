// internal/services/quote_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/tradebridge/tradebridge-backend/internal/apperrors"
	"github.com/tradebridge/tradebridge-backend/internal/models"
)

type QuoteServiceTestSuite struct {
	suite.Suite
	db           *gorm.DB
	quoteService *QuoteService
	orderService *OrderService

	supplier  *models.User
	middleman *models.User
	customer  *models.User
	product   *models.Product
}

func (suite *QuoteServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())

	cfg := testConfig()
	notificationService := NewNotificationService(suite.db, cfg)
	suite.orderService = NewOrderService(suite.db, notificationService)
	suite.quoteService = NewQuoteService(suite.db, suite.orderService, notificationService)

	suite.supplier = createTestUser(suite.T(), suite.db, models.UserRoleSupplier)
	suite.middleman = createTestUser(suite.T(), suite.db, models.UserRoleMiddleman)
	suite.customer = createTestUser(suite.T(), suite.db, models.UserRoleCustomer)
	suite.product = createTestProduct(suite.T(), suite.db, suite.supplier.ID)
}

func (suite *QuoteServiceTestSuite) TestCreateQuote() {
	req := &CreateQuoteRequest{
		ProductID:  suite.product.ID,
		Quantity:   500,
		CostPrice:  25,
		Currency:   "USD",
		TradeTerm:  "FOB",
		ValidUntil: time.Now().Add(72 * time.Hour),
	}

	quote, err := suite.quoteService.CreateQuote(suite.supplier.ID, req)
	suite.NoError(err)
	suite.Equal(models.QuoteStatusDraft, quote.Status)
	suite.Equal(25.0, quote.CostPrice)
	suite.Nil(quote.SellingPrice)
	suite.Nil(quote.OrderID)
}

func (suite *QuoteServiceTestSuite) TestCreateQuoteAcceptsZeroCost() {
	req := &CreateQuoteRequest{
		ProductID:  suite.product.ID,
		Quantity:   100,
		CostPrice:  0,
		Currency:   "USD",
		TradeTerm:  "FOB",
		ValidUntil: time.Now().Add(72 * time.Hour),
	}

	quote, err := suite.quoteService.CreateQuote(suite.supplier.ID, req)
	suite.NoError(err)
	suite.Equal(0.0, quote.CostPrice)

	// A zero cost still carries the margin rules: any margin below 100
	// keeps the selling price at zero
	updated, err := suite.quoteService.SetMarginFromPercentage(quote.ID, suite.supplier.ID, 40)
	suite.NoError(err)
	suite.Equal(0.0, *updated.SellingPrice)
}

func (suite *QuoteServiceTestSuite) TestCreateQuoteRejectsNegativeCost() {
	req := &CreateQuoteRequest{
		ProductID:  suite.product.ID,
		Quantity:   100,
		CostPrice:  -1,
		Currency:   "USD",
		TradeTerm:  "FOB",
		ValidUntil: time.Now().Add(72 * time.Hour),
	}

	_, err := suite.quoteService.CreateQuote(suite.supplier.ID, req)
	suite.True(apperrors.IsKind(err, apperrors.KindValidation))
}

func (suite *QuoteServiceTestSuite) TestCreateQuoteRejectsForeignProduct() {
	otherSupplier := createTestUser(suite.T(), suite.db, models.UserRoleSupplier)

	req := &CreateQuoteRequest{
		ProductID:  suite.product.ID,
		Quantity:   10,
		CostPrice:  5,
		Currency:   "USD",
		TradeTerm:  "EXW",
		ValidUntil: time.Now().Add(time.Hour),
	}

	_, err := suite.quoteService.CreateQuote(otherSupplier.ID, req)
	suite.True(apperrors.IsKind(err, apperrors.KindForbidden))
}

func (suite *QuoteServiceTestSuite) TestSetMarginDerivesSellingPrice() {
	quote := createTestQuote(suite.T(), suite.db, suite.product, &suite.middleman.ID, &suite.customer.ID)

	updated, err := suite.quoteService.SetMarginFromPercentage(quote.ID, suite.middleman.ID, 40)
	suite.NoError(err)
	suite.NotNil(updated.SellingPrice)
	suite.InDelta(41.6667, *updated.SellingPrice, 0.001)
	suite.Equal(40.0, *updated.MarginPercent)
}

func (suite *QuoteServiceTestSuite) TestSetMarginAtOrAbove100Fails() {
	quote := createTestQuote(suite.T(), suite.db, suite.product, &suite.middleman.ID, &suite.customer.ID)

	_, err := suite.quoteService.SetMarginFromPercentage(quote.ID, suite.middleman.ID, 100)
	suite.True(apperrors.IsKind(err, apperrors.KindInvalidMargin))

	_, err = suite.quoteService.SetMarginFromPercentage(quote.ID, suite.middleman.ID, 150)
	suite.True(apperrors.IsKind(err, apperrors.KindInvalidMargin))
}

func (suite *QuoteServiceTestSuite) TestZeroMarginSellsAtCost() {
	quote := createTestQuote(suite.T(), suite.db, suite.product, &suite.middleman.ID, &suite.customer.ID)

	updated, err := suite.quoteService.SetMarginFromPercentage(quote.ID, suite.middleman.ID, 0)
	suite.NoError(err)
	suite.Equal(quote.CostPrice, *updated.SellingPrice)
}

func (suite *QuoteServiceTestSuite) TestSetSellingPriceDerivesMargin() {
	quote := createTestQuote(suite.T(), suite.db, suite.product, &suite.middleman.ID, &suite.customer.ID)

	updated, err := suite.quoteService.SetSellingPrice(quote.ID, suite.middleman.ID, 50)
	suite.NoError(err)
	// (50 - 25) / 50 * 100
	suite.InDelta(50.0, *updated.MarginPercent, 0.0001)
}

func (suite *QuoteServiceTestSuite) TestZeroSellingPriceYieldsZeroMargin() {
	quote := createTestQuote(suite.T(), suite.db, suite.product, &suite.middleman.ID, &suite.customer.ID)

	updated, err := suite.quoteService.SetSellingPrice(quote.ID, suite.middleman.ID, 0)
	suite.NoError(err)
	suite.Equal(0.0, *updated.MarginPercent)
}

func (suite *QuoteServiceTestSuite) TestMarginRoundTrip() {
	quote := createTestQuote(suite.T(), suite.db, suite.product, &suite.middleman.ID, &suite.customer.ID)

	updated, err := suite.quoteService.SetMarginFromPercentage(quote.ID, suite.middleman.ID, 40)
	suite.NoError(err)

	derived := MarginForSellingPrice(updated.CostPrice, *updated.SellingPrice)
	suite.InDelta(40.0, derived, 0.0001)
}

func (suite *QuoteServiceTestSuite) TestSendQuote() {
	quote := createTestQuote(suite.T(), suite.db, suite.product, &suite.middleman.ID, &suite.customer.ID)

	sent, err := suite.quoteService.SendQuote(quote.ID, suite.supplier.ID, nil)
	suite.NoError(err)
	suite.Equal(models.QuoteStatusSent, sent.Status)

	// A sent quote cannot be sent again
	_, err = suite.quoteService.SendQuote(quote.ID, suite.supplier.ID, nil)
	suite.True(apperrors.IsKind(err, apperrors.KindInvalidState))
}

func (suite *QuoteServiceTestSuite) TestSendQuoteDesignatesRecipient() {
	quote := createTestQuote(suite.T(), suite.db, suite.product, &suite.middleman.ID, nil)

	sent, err := suite.quoteService.SendQuote(quote.ID, suite.supplier.ID, &suite.customer.ID)
	suite.NoError(err)
	suite.Equal(models.QuoteStatusSent, sent.Status)
	suite.NotNil(sent.CustomerID)
	suite.Equal(suite.customer.ID, *sent.CustomerID)
}

func (suite *QuoteServiceTestSuite) TestSendQuoteWithoutCustomerFails() {
	quote := createTestQuote(suite.T(), suite.db, suite.product, &suite.middleman.ID, nil)

	_, err := suite.quoteService.SendQuote(quote.ID, suite.supplier.ID, nil)
	suite.True(apperrors.IsKind(err, apperrors.KindMissingParty))

	var reloaded models.Quote
	suite.NoError(suite.db.First(&reloaded, quote.ID).Error)
	suite.Equal(models.QuoteStatusDraft, reloaded.Status)
}

func (suite *QuoteServiceTestSuite) TestSendQuoteRejectsNonCustomerRecipient() {
	quote := createTestQuote(suite.T(), suite.db, suite.product, &suite.middleman.ID, nil)

	_, err := suite.quoteService.SendQuote(quote.ID, suite.supplier.ID, &suite.middleman.ID)
	suite.True(apperrors.IsKind(err, apperrors.KindValidation))
}

func (suite *QuoteServiceTestSuite) TestSendExpiredQuoteFails() {
	quote := createTestQuote(suite.T(), suite.db, suite.product, &suite.middleman.ID, &suite.customer.ID)
	suite.NoError(suite.db.Model(quote).Update("valid_until", time.Now().Add(-time.Hour)).Error)

	_, err := suite.quoteService.SendQuote(quote.ID, suite.supplier.ID, nil)
	suite.True(apperrors.IsKind(err, apperrors.KindInvalidState))
}

func (suite *QuoteServiceTestSuite) TestAcceptQuoteCreatesOrderWithFrozenTotal() {
	quote := createTestQuote(suite.T(), suite.db, suite.product, &suite.middleman.ID, &suite.customer.ID)

	_, err := suite.quoteService.SetMarginFromPercentage(quote.ID, suite.middleman.ID, 40)
	suite.NoError(err)
	_, err = suite.quoteService.SendQuote(quote.ID, suite.supplier.ID, nil)
	suite.NoError(err)

	accepted, order, err := suite.quoteService.AcceptQuote(quote.ID, suite.customer.ID, "1 Harbour Rd, Hamburg")
	suite.NoError(err)
	suite.Equal(models.QuoteStatusAccepted, accepted.Status)
	suite.NotNil(accepted.OrderID)
	suite.Equal(*accepted.OrderID, order.ID)

	// 25 / 0.6 * 500
	suite.InDelta(20833.33, order.TotalAmount, 0.01)
	suite.Equal(models.OrderStatusPending, order.Status)
	suite.Equal(models.OrderPaymentStatusPending, order.PaymentStatus)

	// Creation event is on the trail
	var events []models.OrderEvent
	suite.NoError(suite.db.Where("order_id = ?", order.ID).Find(&events).Error)
	suite.Len(events, 1)
	suite.Equal(models.OrderEventCreated, events[0].Type)

	// The frozen total survives later quote edits
	_, err = suite.quoteService.SetSellingPrice(quote.ID, suite.middleman.ID, 99)
	suite.Error(err)

	var reloaded models.Order
	suite.NoError(suite.db.First(&reloaded, order.ID).Error)
	suite.InDelta(20833.33, reloaded.TotalAmount, 0.01)
}

func (suite *QuoteServiceTestSuite) TestAcceptWithoutCustomerFails() {
	quote := createTestQuote(suite.T(), suite.db, suite.product, &suite.middleman.ID, nil)
	suite.NoError(suite.db.Model(quote).Update("status", models.QuoteStatusSent).Error)

	_, _, err := suite.quoteService.AcceptQuote(quote.ID, suite.middleman.ID, "")
	suite.True(apperrors.IsKind(err, apperrors.KindMissingParty))

	// No order was created
	var count int64
	suite.NoError(suite.db.Model(&models.Order{}).Count(&count).Error)
	suite.Zero(count)
}

func (suite *QuoteServiceTestSuite) TestAcceptWithoutMiddlemanFails() {
	quote := createTestQuote(suite.T(), suite.db, suite.product, nil, &suite.customer.ID)
	suite.NoError(suite.db.Model(quote).Update("status", models.QuoteStatusSent).Error)

	_, _, err := suite.quoteService.AcceptQuote(quote.ID, suite.customer.ID, "")
	suite.True(apperrors.IsKind(err, apperrors.KindMissingParty))
}

func (suite *QuoteServiceTestSuite) TestAcceptExpiredQuoteFails() {
	quote := createTestQuote(suite.T(), suite.db, suite.product, &suite.middleman.ID, &suite.customer.ID)
	suite.NoError(suite.db.Model(quote).Updates(map[string]interface{}{
		"status":      models.QuoteStatusSent,
		"valid_until": time.Now().Add(-time.Minute),
	}).Error)

	_, _, err := suite.quoteService.AcceptQuote(quote.ID, suite.customer.ID, "")
	suite.True(apperrors.IsKind(err, apperrors.KindInvalidState))
}

func (suite *QuoteServiceTestSuite) TestAcceptTwiceFails() {
	quote := createTestQuote(suite.T(), suite.db, suite.product, &suite.middleman.ID, &suite.customer.ID)
	suite.NoError(suite.db.Model(quote).Update("status", models.QuoteStatusSent).Error)

	_, _, err := suite.quoteService.AcceptQuote(quote.ID, suite.customer.ID, "")
	suite.NoError(err)

	_, _, err = suite.quoteService.AcceptQuote(quote.ID, suite.customer.ID, "")
	suite.True(apperrors.IsKind(err, apperrors.KindInvalidState))
}

func (suite *QuoteServiceTestSuite) TestRejectQuote() {
	quote := createTestQuote(suite.T(), suite.db, suite.product, &suite.middleman.ID, &suite.customer.ID)
	suite.NoError(suite.db.Model(quote).Update("status", models.QuoteStatusSent).Error)

	rejected, err := suite.quoteService.RejectQuote(quote.ID, suite.customer.ID)
	suite.NoError(err)
	suite.Equal(models.QuoteStatusRejected, rejected.Status)

	// Terminal: no further edits
	price := 30.0
	_, err = suite.quoteService.SetSellingPrice(quote.ID, suite.middleman.ID, price)
	suite.True(apperrors.IsKind(err, apperrors.KindInvalidState))
}

func (suite *QuoteServiceTestSuite) TestEffectiveStatusDerivesExpiry() {
	quote := createTestQuote(suite.T(), suite.db, suite.product, &suite.middleman.ID, &suite.customer.ID)
	suite.NoError(suite.db.Model(quote).Updates(map[string]interface{}{
		"status":      models.QuoteStatusSent,
		"valid_until": time.Now().Add(-time.Minute),
	}).Error)

	var reloaded models.Quote
	suite.NoError(suite.db.First(&reloaded, quote.ID).Error)

	// The stored status stays sent; only the derived view reports expired
	suite.Equal(models.QuoteStatusSent, reloaded.Status)
	suite.Equal(models.QuoteStatusExpired, reloaded.EffectiveStatus(time.Now()))
}

func (suite *QuoteServiceTestSuite) TestUpdateCostReappliesMargin() {
	quote := createTestQuote(suite.T(), suite.db, suite.product, &suite.middleman.ID, &suite.customer.ID)

	_, err := suite.quoteService.SetMarginFromPercentage(quote.ID, suite.middleman.ID, 20)
	suite.NoError(err)

	newCost := 40.0
	updated, err := suite.quoteService.UpdateQuote(quote.ID, suite.supplier.ID, &UpdateQuoteRequest{CostPrice: &newCost})
	suite.NoError(err)
	suite.InDelta(50.0, *updated.SellingPrice, 0.0001)
}

func TestQuoteServiceSuite(t *testing.T) {
	suite.Run(t, new(QuoteServiceTestSuite))
}
