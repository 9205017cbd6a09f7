package api

import (
	"errors"
	"net/http"
	"time"

	"concert-booking/internal/service"
	"concert-booking/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PaymentHandler contains the payment service's HTTP handlers
type PaymentHandler struct {
	payments *service.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// SetupRoutes sets up the payment service's routes
func (h *PaymentHandler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())
	router.Use(cors.Default())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/payments", h.submitPayment)
	router.GET("/payments", h.listPayments)
	router.GET("/payments/:paymentId", h.getPayment)
}

func (h *PaymentHandler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

func (h *PaymentHandler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// SubmitPaymentRequest is the body of POST /payments
type SubmitPaymentRequest struct {
	BookingID string `json:"bookingId" binding:"required"`
	Amount    int64  `json:"amount" binding:"required"`
}

func (h *PaymentHandler) submitPayment(c *gin.Context) {
	var req SubmitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "bookingId and amount are required",
		})
		return
	}

	payment, err := h.payments.Submit(c.Request.Context(), req.BookingID, req.Amount)
	if err != nil {
		var mismatch *service.AmountMismatchError
		switch {
		case errors.Is(err, service.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "amount must be a positive integer",
			})
		case errors.Is(err, service.ErrBookingNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "Booking not found",
			})
		case errors.Is(err, service.ErrAlreadyPaid):
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "Booking is already paid",
			})
		case errors.As(err, &mismatch):
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": mismatch.Error(),
			})
		case errors.Is(err, service.ErrUpstreamUnavailable):
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Failed to validate booking",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Failed to process payment",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"paymentId": payment.PaymentID,
		"status":    payment.Status,
		"message":   "Payment is being processed",
	})
}

func (h *PaymentHandler) listPayments(c *gin.Context) {
	payments, err := h.payments.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to list payments",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"total":    len(payments),
		"payments": payments,
	})
}

func (h *PaymentHandler) getPayment(c *gin.Context) {
	payment, err := h.payments.Get(c.Request.Context(), c.Param("paymentId"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "Payment not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to get payment",
		})
		return
	}

	c.JSON(http.StatusOK, payment)
}
