// internal/handlers/context.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tradebridge/tradebridge-backend/internal/models"
	"github.com/tradebridge/tradebridge-backend/internal/utils"
)

// actorFromContext resolves the authenticated caller set by the auth
// middleware. It writes the error response itself when the context is
// missing or malformed.
func actorFromContext(c *gin.Context) (uuid.UUID, models.UserRole, bool) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, "", false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return uuid.Nil, "", false
	}

	roleStr, _ := utils.GetUserRoleFromContext(c)
	return userID, models.UserRole(roleStr), true
}

// parseIDParam parses a uuid path parameter, writing the error response
// on failure.
func parseIDParam(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+label+" ID", nil)
		return uuid.Nil, false
	}
	return id, true
}
