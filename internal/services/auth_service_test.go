// internal/services/auth_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/tradebridge/tradebridge-backend/internal/apperrors"
	"github.com/tradebridge/tradebridge-backend/internal/models"
	"github.com/tradebridge/tradebridge-backend/internal/utils"
)

type AuthServiceTestSuite struct {
	suite.Suite
	db          *gorm.DB
	authService *AuthService
}

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())

	cfg := testConfig()
	utils.SetJWTSecret(cfg.JWT.SecretKey)
	suite.authService = NewAuthService(suite.db, cfg)
}

func (suite *AuthServiceTestSuite) TestRegisterAndLogin() {
	resp, err := suite.authService.Register(&RegisterRequest{
		Username:    "hansa_trading",
		Email:       "ops@hansa.example.com",
		Password:    "TradeSafe1!",
		Role:        models.UserRoleMiddleman,
		CompanyName: "Hansa Trading GmbH",
		Country:     "DE",
	})
	suite.NoError(err)
	suite.NotEmpty(resp.AccessToken)
	suite.NotEmpty(resp.RefreshToken)
	suite.Equal(models.UserRoleMiddleman, resp.User.Role)
	suite.False(resp.User.Verified)

	login, err := suite.authService.Login(&LoginRequest{
		Email:    "ops@hansa.example.com",
		Password: "TradeSafe1!",
	})
	suite.NoError(err)
	suite.Equal(resp.User.ID, login.User.ID)
}

func (suite *AuthServiceTestSuite) TestRegisterRejectsAdminRole() {
	_, err := suite.authService.Register(&RegisterRequest{
		Username: "wannabe_admin",
		Email:    "admin@hansa.example.com",
		Password: "TradeSafe1!",
		Role:     models.UserRoleAdmin,
	})
	suite.True(apperrors.IsKind(err, apperrors.KindValidation))
}

func (suite *AuthServiceTestSuite) TestRegisterDuplicateEmail() {
	req := &RegisterRequest{
		Username: "first_account",
		Email:    "dup@hansa.example.com",
		Password: "TradeSafe1!",
		Role:     models.UserRoleCustomer,
	}
	_, err := suite.authService.Register(req)
	suite.NoError(err)

	req.Username = "second_account"
	_, err = suite.authService.Register(req)
	suite.True(apperrors.IsKind(err, apperrors.KindConflict))
}

func (suite *AuthServiceTestSuite) TestLoginWrongPassword() {
	user := createTestUser(suite.T(), suite.db, models.UserRoleCustomer)

	_, err := suite.authService.Login(&LoginRequest{
		Email:    user.Email,
		Password: "WrongPass1!",
	})
	suite.True(apperrors.IsKind(err, apperrors.KindUnauthorized))
}

func (suite *AuthServiceTestSuite) TestLoginSuspendedAccount() {
	user := createTestUser(suite.T(), suite.db, models.UserRoleSupplier)
	suite.NoError(suite.db.Model(user).Update("status", models.UserStatusSuspended).Error)

	_, err := suite.authService.Login(&LoginRequest{
		Email:    user.Email,
		Password: "TestPass123!",
	})
	suite.True(apperrors.IsKind(err, apperrors.KindForbidden))
}

func (suite *AuthServiceTestSuite) TestRefreshToken() {
	resp, err := suite.authService.Register(&RegisterRequest{
		Username: "refresh_user",
		Email:    "refresh@hansa.example.com",
		Password: "TradeSafe1!",
		Role:     models.UserRoleCustomer,
	})
	suite.NoError(err)

	refreshed, err := suite.authService.RefreshToken(resp.RefreshToken)
	suite.NoError(err)
	suite.NotEmpty(refreshed.AccessToken)

	_, err = suite.authService.RefreshToken("not-a-token")
	suite.True(apperrors.IsKind(err, apperrors.KindUnauthorized))
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
