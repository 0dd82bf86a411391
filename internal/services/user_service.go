// internal/services/user_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradebridge/tradebridge-backend/internal/apperrors"
	"github.com/tradebridge/tradebridge-backend/internal/models"
	"github.com/tradebridge/tradebridge-backend/internal/utils"
)

type UserService struct {
	db *gorm.DB
}

type UpdateProfileRequest struct {
	CompanyName *string                `json:"company_name,omitempty" validate:"omitempty,max=255"`
	Country     *string                `json:"country,omitempty" validate:"omitempty,max=100"`
	ProfileData map[string]interface{} `json:"profile_data,omitempty"`
}

type UserSearchParams struct {
	utils.PaginationParams
	Role     string `json:"role,omitempty"`
	Status   string `json:"status,omitempty"`
	Verified *bool  `json:"verified,omitempty"`
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) GetUser(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

func (s *UserService) UpdateProfile(userID uuid.UUID, req *UpdateProfileRequest) (*models.User, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "validation failed")
	}

	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}

	if req.CompanyName != nil {
		user.CompanyName = *req.CompanyName
	}
	if req.Country != nil {
		user.Country = *req.Country
	}
	if req.ProfileData != nil {
		user.ProfileData = models.JSONB(req.ProfileData)
	}

	if err := s.db.Save(user).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return user, nil
}

// ListUsers is the admin user directory.
func (s *UserService) ListUsers(params UserSearchParams) ([]models.User, int64, error) {
	query := s.db.Model(&models.User{})

	if params.Role != "" {
		query = query.Where("role = ?", params.Role)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Verified != nil {
		query = query.Where("verified = ?", *params.Verified)
	}
	if params.Search != "" {
		search := "%" + params.Search + "%"
		query = query.Where("username LIKE ? OR email LIKE ? OR company_name LIKE ?", search, search, search)
	}

	// Get total count
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	// Apply sorting and pagination
	allowedSortFields := []string{"created_at", "username", "email", "role", "status"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}

	return users, total, nil
}

// SetUserStatus is the admin moderation switch.
func (s *UserService) SetUserStatus(userID uuid.UUID, status models.UserStatus) (*models.User, error) {
	switch status {
	case models.UserStatusActive, models.UserStatusSuspended, models.UserStatusBanned:
	default:
		return nil, apperrors.Newf(apperrors.KindValidation, "invalid user status: %s", status)
	}

	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}

	if user.Role == models.UserRoleAdmin && status != models.UserStatusActive {
		return nil, apperrors.New(apperrors.KindForbidden, "admin accounts cannot be suspended")
	}

	user.Status = status
	if err := s.db.Save(user).Error; err != nil {
		return nil, fmt.Errorf("failed to update user status: %w", err)
	}

	return user, nil
}

// VerifyUser marks the account as a vetted trading party.
func (s *UserService) VerifyUser(userID uuid.UUID) (*models.User, error) {
	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}

	if user.Verified {
		return user, nil
	}

	now := time.Now()
	user.Verified = true
	user.VerifiedAt = &now
	if err := s.db.Save(user).Error; err != nil {
		return nil, fmt.Errorf("failed to verify user: %w", err)
	}

	return user, nil
}
