package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"locomotion/internal/domain"
	"locomotion/internal/service"
)

// PaymentHandler handles HTTP requests for gateway payment orders.
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// RideOrderRequest is the HTTP request body for paying a ride fare.
type RideOrderRequest struct {
	RideID  string `json:"ride_id"`
	RiderID string `json:"rider_id"`
}

// RechargeOrderRequest is the HTTP request body for a wallet top-up.
type RechargeOrderRequest struct {
	DriverID string  `json:"driver_id"`
	Amount   float64 `json:"amount"`
}

// VerifiedRequest is the HTTP request body the gateway callback posts
// after it has verified a payment.
type VerifiedRequest struct {
	OrderID          string `json:"order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
}

// OrderResponse is the HTTP representation of a payment order.
type OrderResponse struct {
	OrderID string  `json:"order_id"`
	Purpose string  `json:"purpose"`
	Amount  float64 `json:"amount"`
}

func toOrderResponse(order *domain.PaymentOrder) OrderResponse {
	return OrderResponse{
		OrderID: order.ID,
		Purpose: string(order.Purpose),
		Amount:  order.Amount,
	}
}

// CreateRideOrder handles POST /v1/payments/ride-orders
func (h *PaymentHandler) CreateRideOrder(c *gin.Context) {
	var req RideOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	order, err := h.paymentService.CreateRideOrder(c.Request.Context(), req.RideID, req.RiderID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toOrderResponse(order))
}

// CreateRechargeOrder handles POST /v1/payments/recharge-orders
func (h *PaymentHandler) CreateRechargeOrder(c *gin.Context) {
	var req RechargeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	order, err := h.paymentService.CreateRechargeOrder(c.Request.Context(), req.DriverID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toOrderResponse(order))
}

// HandleVerified handles POST /v1/payments/verified
func (h *PaymentHandler) HandleVerified(c *gin.Context) {
	var req VerifiedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.paymentService.HandleVerified(c.Request.Context(), req.OrderID, req.GatewayPaymentID); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"order_id": req.OrderID, "status": "processed"})
}
