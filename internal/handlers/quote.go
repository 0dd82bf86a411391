// internal/handlers/quote.go
package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tradebridge/tradebridge-backend/internal/services"
	"github.com/tradebridge/tradebridge-backend/internal/utils"
)

type QuoteHandler struct {
	quoteService *services.QuoteService
}

func NewQuoteHandler(quoteService *services.QuoteService) *QuoteHandler {
	return &QuoteHandler{
		quoteService: quoteService,
	}
}

// POST /quotes
func (h *QuoteHandler) CreateQuote(c *gin.Context) {
	supplierID, _, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req services.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	quote, err := h.quoteService.CreateQuote(supplierID, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"quote": quote,
	})
}

// PATCH /quotes/:id
func (h *QuoteHandler) UpdateQuote(c *gin.Context) {
	quoteID, ok := parseIDParam(c, "id", "quote")
	if !ok {
		return
	}

	actorID, _, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req services.UpdateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	quote, err := h.quoteService.UpdateQuote(quoteID, actorID, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"quote": quote,
	})
}

// PUT /quotes/:id/margin
func (h *QuoteHandler) SetMargin(c *gin.Context) {
	quoteID, ok := parseIDParam(c, "id", "quote")
	if !ok {
		return
	}

	actorID, _, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req struct {
		MarginPercent float64 `json:"margin_percent"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	quote, err := h.quoteService.SetMarginFromPercentage(quoteID, actorID, req.MarginPercent)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"quote": quote,
	})
}

// PUT /quotes/:id/price
func (h *QuoteHandler) SetSellingPrice(c *gin.Context) {
	quoteID, ok := parseIDParam(c, "id", "quote")
	if !ok {
		return
	}

	actorID, _, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req struct {
		SellingPrice float64 `json:"selling_price"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	quote, err := h.quoteService.SetSellingPrice(quoteID, actorID, req.SellingPrice)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"quote": quote,
	})
}

// POST /quotes/:id/send
func (h *QuoteHandler) SendQuote(c *gin.Context) {
	quoteID, ok := parseIDParam(c, "id", "quote")
	if !ok {
		return
	}

	actorID, _, ok := actorFromContext(c)
	if !ok {
		return
	}

	// Recipient is optional in the body when the quote already names one
	var req struct {
		CustomerID *uuid.UUID `json:"customer_id"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request body", err.Error())
			return
		}
	}

	quote, err := h.quoteService.SendQuote(quoteID, actorID, req.CustomerID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"quote": quote,
	})
}

// POST /quotes/:id/accept
func (h *QuoteHandler) AcceptQuote(c *gin.Context) {
	quoteID, ok := parseIDParam(c, "id", "quote")
	if !ok {
		return
	}

	actorID, _, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req struct {
		ShippingAddress string `json:"shipping_address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	quote, order, err := h.quoteService.AcceptQuote(quoteID, actorID, req.ShippingAddress)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"quote": quote,
		"order": order,
	})
}

// POST /quotes/:id/reject
func (h *QuoteHandler) RejectQuote(c *gin.Context) {
	quoteID, ok := parseIDParam(c, "id", "quote")
	if !ok {
		return
	}

	actorID, _, ok := actorFromContext(c)
	if !ok {
		return
	}

	quote, err := h.quoteService.RejectQuote(quoteID, actorID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"quote": quote,
	})
}

// GET /quotes/:id
func (h *QuoteHandler) GetQuote(c *gin.Context) {
	quoteID, ok := parseIDParam(c, "id", "quote")
	if !ok {
		return
	}

	actorID, actorRole, ok := actorFromContext(c)
	if !ok {
		return
	}

	quote, err := h.quoteService.GetQuote(quoteID, actorID, actorRole)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"quote":            quote,
		"effective_status": quote.EffectiveStatus(time.Now()),
	})
}

// GET /quotes
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	actorID, actorRole, ok := actorFromContext(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)

	searchParams := services.QuoteSearchParams{
		PaginationParams: params,
		Status:           c.Query("status"),
	}

	if productIDStr := c.Query("product_id"); productIDStr != "" {
		if productID, err := uuid.Parse(productIDStr); err == nil {
			searchParams.ProductID = &productID
		}
	}

	quotes, total, err := h.quoteService.ListQuotes(actorID, actorRole, searchParams)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(quotes, total, params)
	utils.PaginatedResponse(c, result)
}
