// internal/handlers/analytics.go
package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tradebridge/tradebridge-backend/internal/models"
	"github.com/tradebridge/tradebridge-backend/internal/services"
	"github.com/tradebridge/tradebridge-backend/internal/utils"
)

type AnalyticsHandler struct {
	analyticsService *services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
	}
}

// GET /analytics/profit
func (h *AnalyticsHandler) GetProfitAnalysis(c *gin.Context) {
	actorID, actorRole, ok := actorFromContext(c)
	if !ok {
		return
	}

	// Admin may inspect any middleman's book
	if middlemanIDStr := c.Query("middleman_id"); middlemanIDStr != "" && actorRole == models.UserRoleAdmin {
		middlemanID, err := uuid.Parse(middlemanIDStr)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid middleman ID", nil)
			return
		}
		actorID = middlemanID
		actorRole = models.UserRoleMiddleman
	}

	var from, to *time.Time
	if fromStr := c.Query("from"); fromStr != "" {
		if t, err := time.Parse("2006-01-02", fromStr); err == nil {
			from = &t
		}
	}
	if toStr := c.Query("to"); toStr != "" {
		if t, err := time.Parse("2006-01-02", toStr); err == nil {
			to = &t
		}
	}

	analysis, err := h.analyticsService.GetProfitAnalysis(actorID, actorRole, from, to)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"analysis": analysis,
	})
}

// GET /notifications
func (h *AnalyticsHandler) GetNotifications(c *gin.Context) {
	actorID, _, ok := actorFromContext(c)
	if !ok {
		return
	}

	notifications, err := h.analyticsService.GetNotifications(actorID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"notifications": notifications,
	})
}
