// internal/handlers/order.go
package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tradebridge/tradebridge-backend/internal/models"
	"github.com/tradebridge/tradebridge-backend/internal/services"
	"github.com/tradebridge/tradebridge-backend/internal/utils"
)

type OrderHandler struct {
	orderService    *services.OrderService
	documentService *services.DocumentService
}

func NewOrderHandler(orderService *services.OrderService, documentService *services.DocumentService) *OrderHandler {
	return &OrderHandler{
		orderService:    orderService,
		documentService: documentService,
	}
}

// GET /orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	actorID, actorRole, ok := actorFromContext(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)

	searchParams := services.OrderSearchParams{
		PaginationParams: params,
		Status:           c.Query("status"),
		PaymentStatus:    c.Query("payment_status"),
	}

	orders, total, err := h.orderService.ListOrders(actorID, actorRole, searchParams)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(orders, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id", "order")
	if !ok {
		return
	}

	actorID, actorRole, ok := actorFromContext(c)
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(orderID, actorID, actorRole)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"order": order,
	})
}

// POST /orders/:id/advance
func (h *OrderHandler) AdvanceStatus(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id", "order")
	if !ok {
		return
	}

	actorID, _, ok := actorFromContext(c)
	if !ok {
		return
	}

	order, err := h.orderService.AdvanceStatus(orderID, actorID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"order": order,
	})
}

// PUT /orders/:id/status
func (h *OrderHandler) SetStatus(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id", "order")
	if !ok {
		return
	}

	actorID, _, ok := actorFromContext(c)
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

	order, err := h.orderService.SetStatus(orderID, actorID, models.OrderStatus(req.Status))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"order": order,
	})
}

// GET /orders/:id/events
func (h *OrderHandler) GetOrderEvents(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id", "order")
	if !ok {
		return
	}

	actorID, actorRole, ok := actorFromContext(c)
	if !ok {
		return
	}

	events, err := h.orderService.GetOrderEvents(orderID, actorID, actorRole)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"events": events,
	})
}

// POST /orders/:id/events
func (h *OrderHandler) RecordEvent(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id", "order")
	if !ok {
		return
	}

	actorID, actorRole, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Type        string `json:"type" binding:"required"`
		Description string `json:"description" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	event, err := h.orderService.RecordEvent(orderID, actorID, actorRole, models.OrderEventType(req.Type), req.Description)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"event": event,
	})
}

// GET /orders/:id/documents
func (h *OrderHandler) ListDocuments(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id", "order")
	if !ok {
		return
	}

	actorID, actorRole, ok := actorFromContext(c)
	if !ok {
		return
	}

	documents, err := h.documentService.ListDocuments(orderID, actorID, actorRole)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"documents": documents,
	})
}

// POST /orders/:id/documents
func (h *OrderHandler) GenerateDocument(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id", "order")
	if !ok {
		return
	}

	actorID, _, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req services.GenerateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	document, err := h.documentService.GenerateDocument(orderID, actorID, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"document": document,
	})
}

// GET /orders/:id/documents/:docID/download
func (h *OrderHandler) DownloadDocument(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id", "order")
	if !ok {
		return
	}

	documentID, ok := parseIDParam(c, "docID", "document")
	if !ok {
		return
	}

	actorID, actorRole, ok := actorFromContext(c)
	if !ok {
		return
	}

	url, err := h.documentService.GetDownloadURL(orderID, documentID, actorID, actorRole)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"download_url": url,
		"expires_in":   int((15 * time.Minute).Seconds()),
	})
}
