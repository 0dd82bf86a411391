// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tradebridge/tradebridge-backend/internal/models"
	"github.com/tradebridge/tradebridge-backend/internal/services"
	"github.com/tradebridge/tradebridge-backend/internal/utils"
)

type AdminHandler struct {
	userService      *services.UserService
	analyticsService *services.AnalyticsService
}

func NewAdminHandler(userService *services.UserService, analyticsService *services.AnalyticsService) *AdminHandler {
	return &AdminHandler{
		userService:      userService,
		analyticsService: analyticsService,
	}
}

// GET /admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	searchParams := services.UserSearchParams{
		PaginationParams: params,
		Role:             c.Query("role"),
		Status:           c.Query("status"),
	}

	if verifiedStr := c.Query("verified"); verifiedStr != "" {
		verified := verifiedStr == "true"
		searchParams.Verified = &verified
	}

	users, total, err := h.userService.ListUsers(searchParams)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(users, total, params)
	utils.PaginatedResponse(c, result)
}

// PUT /admin/users/:id/status
func (h *AdminHandler) SetUserStatus(c *gin.Context) {
	userID, ok := parseIDParam(c, "id", "user")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	user, err := h.userService.SetUserStatus(userID, models.UserStatus(req.Status))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"user": user,
	})
}

// PUT /admin/users/:id/verify
func (h *AdminHandler) VerifyUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id", "user")
	if !ok {
		return
	}

	user, err := h.userService.VerifyUser(userID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"user": user,
	})
}

// GET /admin/dashboard
func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.analyticsService.GetDashboardStats()
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"stats": stats,
	})
}
