// internal/handlers/auth_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tradebridge/tradebridge-backend/internal/config"
	"github.com/tradebridge/tradebridge-backend/internal/middleware"
	"github.com/tradebridge/tradebridge-backend/internal/models"
	"github.com/tradebridge/tradebridge-backend/internal/services"
	"github.com/tradebridge/tradebridge-backend/internal/utils"
)

type AuthHandlerTestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
}

func (suite *AuthHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	suite.Require().NoError(err)
	suite.Require().NoError(db.AutoMigrate(&models.User{}))
	suite.db = db

	cfg := &config.Config{
		Environment: "test",
		JWT: config.JWTConfig{
			SecretKey:       "test-secret",
			AccessTokenTTL:  1,
			RefreshTokenTTL: 24,
		},
	}
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	authHandler := NewAuthHandler(services.NewAuthService(db, cfg))

	suite.router = gin.New()
	auth := suite.router.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
	}
}

func (suite *AuthHandlerTestSuite) postJSON(path string, body map[string]interface{}) *httptest.ResponseRecorder {
	jsonData, _ := json.Marshal(body)
	req, _ := http.NewRequest("POST", path, bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *AuthHandlerTestSuite) TestRegistrationAndProtectedProfile() {
	w := suite.postJSON("/auth/register", map[string]interface{}{
		"username":     "nordic_imports",
		"email":        "buyer@nordic.example.com",
		"password":     "TradeSafe1!",
		"role":         "customer",
		"company_name": "Nordic Imports AS",
		"country":      "NO",
	})
	suite.Equal(http.StatusCreated, w.Code)

	var response struct {
		Success bool `json:"success"`
		Data    struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.True(response.Success)
	suite.NotEmpty(response.Data.AccessToken)

	// Token opens the protected profile route
	req, _ := http.NewRequest("GET", "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+response.Data.AccessToken)
	me := httptest.NewRecorder()
	suite.router.ServeHTTP(me, req)
	suite.Equal(http.StatusOK, me.Code)

	// Missing token is refused
	bare, _ := http.NewRequest("GET", "/auth/me", nil)
	anon := httptest.NewRecorder()
	suite.router.ServeHTTP(anon, bare)
	suite.Equal(http.StatusUnauthorized, anon.Code)
}

func (suite *AuthHandlerTestSuite) TestErrorEnvelope() {
	w := suite.postJSON("/auth/login", map[string]interface{}{
		"email":    "ghost@nordic.example.com",
		"password": "TradeSafe1!",
	})
	suite.Equal(http.StatusUnauthorized, w.Code)

	var response struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.False(response.Success)
	suite.Equal("UNAUTHORIZED", response.Error.Code)
}

func (suite *AuthHandlerTestSuite) TestWeakPasswordRejected() {
	w := suite.postJSON("/auth/register", map[string]interface{}{
		"username": "weak_pass",
		"email":    "weak@nordic.example.com",
		"password": "short",
		"role":     "customer",
	})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func TestAuthHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerTestSuite))
}
