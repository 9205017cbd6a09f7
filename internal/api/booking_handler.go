package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"concert-booking/internal/service"
	"concert-booking/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// BookingHandler contains the booking service's HTTP handlers
type BookingHandler struct {
	bookings *service.BookingService
	catalog  *service.CatalogService
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookings *service.BookingService, catalog *service.CatalogService) *BookingHandler {
	return &BookingHandler{
		bookings: bookings,
		catalog:  catalog,
	}
}

// SetupRoutes sets up the booking service's routes
func (h *BookingHandler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())
	router.Use(cors.Default())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/bookings", h.createBooking)
	router.GET("/bookings", h.listBookings)
	router.GET("/bookings/:bookingId", h.getBooking)
	router.PATCH("/bookings/:bookingId", h.updateBooking)

	router.GET("/products/popular", h.popularProducts)
}

func (h *BookingHandler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

func (h *BookingHandler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// CreateBookingRequest is the body of POST /bookings
type CreateBookingRequest struct {
	EventID   int64  `json:"eventId" binding:"required"`
	SeatCount int    `json:"seatCount" binding:"required"`
	UserID    string `json:"userId"`
}

func (h *BookingHandler) createBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "eventId and seatCount are required",
		})
		return
	}

	booking, err := h.bookings.Create(c.Request.Context(), req.EventID, req.SeatCount, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSeatCount):
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "seatCount must be a positive integer",
			})
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "Event not found",
			})
		case errors.Is(err, service.ErrEventLocked):
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"message": "Another booking for this event is in progress. Please try again.",
			})
		case errors.Is(err, store.ErrInsufficientSeats):
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "Insufficient seats available",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Failed to create booking",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Booking created successfully",
		"booking": booking,
	})
}

func (h *BookingHandler) listBookings(c *gin.Context) {
	bookings, err := h.bookings.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to list bookings",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"total":    len(bookings),
		"bookings": bookings,
	})
}

func (h *BookingHandler) getBooking(c *gin.Context) {
	booking, err := h.bookings.Get(c.Request.Context(), c.Param("bookingId"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "Booking not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to get booking",
		})
		return
	}

	c.JSON(http.StatusOK, booking)
}

// UpdateBookingRequest is the body of PATCH /bookings/:bookingId
type UpdateBookingRequest struct {
	Status    string `json:"status"`
	PaymentID string `json:"paymentId"`
}

func (h *BookingHandler) updateBooking(c *gin.Context) {
	var req UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request body",
		})
		return
	}

	booking, err := h.bookings.UpdateStatus(c.Request.Context(), c.Param("bookingId"), req.Status, req.PaymentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "Booking not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to update booking",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"booking": booking,
	})
}

func (h *BookingHandler) popularProducts(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil {
		limit = 10
	}

	listing, err := h.catalog.PopularConcerts(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to load popular products",
		})
		return
	}

	c.Header("X-Cache-Status", listing.Meta.CacheStatus)
	c.JSON(http.StatusOK, listing)
}
