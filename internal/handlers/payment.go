// internal/handlers/payment.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tradebridge/tradebridge-backend/internal/services"
	"github.com/tradebridge/tradebridge-backend/internal/utils"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// POST /orders/:id/payments
func (h *PaymentHandler) ProcessPayment(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id", "order")
	if !ok {
		return
	}

	payerID, _, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req services.ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	resp, err := h.paymentService.ProcessPayment(orderID, payerID, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, resp)
}

// POST /payments
func (h *PaymentHandler) ProcessPaymentByBody(c *gin.Context) {
	payerID, _, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req struct {
		OrderID uuid.UUID `json:"order_id" binding:"required"`
		services.ProcessPaymentRequest
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	resp, err := h.paymentService.ProcessPayment(req.OrderID, payerID, &req.ProcessPaymentRequest)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, resp)
}

// POST /payments/confirm
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	actorID, _, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req services.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	payment, err := h.paymentService.ConfirmPayment(actorID, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"payment": payment,
	})
}

// GET /orders/:id/payments
func (h *PaymentHandler) GetPaymentHistory(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id", "order")
	if !ok {
		return
	}

	actorID, actorRole, ok := actorFromContext(c)
	if !ok {
		return
	}

	payments, err := h.paymentService.GetPaymentHistory(orderID, actorID, actorRole)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"payments": payments,
	})
}

// GET /payments/history?order_id=
func (h *PaymentHandler) GetPaymentHistoryByQuery(c *gin.Context) {
	orderID, err := uuid.Parse(c.Query("order_id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid order ID", nil)
		return
	}

	actorID, actorRole, ok := actorFromContext(c)
	if !ok {
		return
	}

	payments, svcErr := h.paymentService.GetPaymentHistory(orderID, actorID, actorRole)
	if svcErr != nil {
		utils.AppErrorResponse(c, svcErr)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"payments": payments,
	})
}
