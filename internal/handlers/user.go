// internal/handlers/user.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tradebridge/tradebridge-backend/internal/services"
	"github.com/tradebridge/tradebridge-backend/internal/utils"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// GET /users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id", "user")
	if !ok {
		return
	}

	user, err := h.userService.GetUser(userID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"user": user,
	})
}

// PATCH /users/me
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, _, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req services.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	user, err := h.userService.UpdateProfile(userID, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"user": user,
	})
}
