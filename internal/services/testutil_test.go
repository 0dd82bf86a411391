// internal/services/testutil_test.go
package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tradebridge/tradebridge-backend/internal/config"
	"github.com/tradebridge/tradebridge-backend/internal/models"
)

var testUserSeq int

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A named in-memory database keeps each test isolated while sharing
	// the connection pool within one test.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Quote{},
		&models.Order{},
		&models.OrderEvent{},
		&models.Document{},
		&models.Payment{},
		&models.AuditLog{},
	))

	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Port: "8080",
		},
		JWT: config.JWTConfig{
			SecretKey:       "test-secret",
			AccessTokenTTL:  1,
			RefreshTokenTTL: 24,
		},
	}
}

func createTestUser(t *testing.T, db *gorm.DB, role models.UserRole) *models.User {
	t.Helper()
	testUserSeq++

	user := &models.User{
		Username:    fmt.Sprintf("%s%d", role, testUserSeq),
		Email:       fmt.Sprintf("%s%d@example.com", role, testUserSeq),
		Role:        role,
		CompanyName: fmt.Sprintf("%s Co %d", role, testUserSeq),
		Country:     "DE",
		Status:      models.UserStatusActive,
	}
	require.NoError(t, user.SetPassword("TestPass123!"))
	require.NoError(t, db.Create(user).Error)

	return user
}

func createTestProduct(t *testing.T, db *gorm.DB, supplierID uuid.UUID) *models.Product {
	t.Helper()

	product := &models.Product{
		Name:         "Industrial Pump",
		Category:     "machinery",
		Description:  "Centrifugal pump for chemical transfer",
		MinOrderQty:  10,
		LeadTimeDays: 30,
		SupplierID:   supplierID,
	}
	require.NoError(t, db.Create(product).Error)

	return product
}

func createTestQuote(t *testing.T, db *gorm.DB, product *models.Product, middlemanID, customerID *uuid.UUID) *models.Quote {
	t.Helper()

	quote := &models.Quote{
		ProductID:   product.ID,
		SupplierID:  product.SupplierID,
		MiddlemanID: middlemanID,
		CustomerID:  customerID,
		Quantity:    500,
		CostPrice:   25,
		Currency:    "USD",
		TradeTerm:   models.TradeTermFOB,
		ValidUntil:  time.Now().Add(72 * time.Hour),
		Status:      models.QuoteStatusDraft,
	}
	require.NoError(t, db.Create(quote).Error)

	return quote
}
