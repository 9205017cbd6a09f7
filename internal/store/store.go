package store

import (
	"context"
	"errors"

	"concert-booking/internal/models"
)

// Sentinel errors shared by all store backends.
var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientSeats = errors.New("insufficient seats")
)

// ConcertStore holds the seat inventory. DecrementSeats does not lock the
// event itself: callers must hold the per-event advisory lock before
// invoking it. The store only guarantees its own structural consistency.
type ConcertStore interface {
	GetConcert(ctx context.Context, id int64) (*models.Concert, error)
	ListConcerts(ctx context.Context) ([]models.Concert, error)
	// DecrementSeats atomically applies seats -= n and returns the updated
	// concert, or ErrInsufficientSeats leaving the count unchanged.
	DecrementSeats(ctx context.Context, id int64, n int) (*models.Concert, error)
	SetPrice(ctx context.Context, id int64, price int64) error
	SeedConcerts(ctx context.Context, concerts []models.Concert) error
}

// BookingStore is the booking ledger. Bookings are appended and updated,
// never deleted.
type BookingStore interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	ListBookings(ctx context.Context) ([]models.Booking, error)
	// UpdateBookingStatus sets status (and paymentID when non-empty) and
	// stamps UpdatedAt. It does not validate the transition.
	UpdateBookingStatus(ctx context.Context, bookingID, status, paymentID string) (*models.Booking, error)
}

// PaymentStore is the payment ledger, owned exclusively by the payment
// service.
type PaymentStore interface {
	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPayment(ctx context.Context, paymentID string) (*models.Payment, error)
	ListPayments(ctx context.Context) ([]models.Payment, error)
	// SettlePayment moves a payment to a terminal status and stamps
	// CompletedAt or FailedAt.
	SettlePayment(ctx context.Context, paymentID, status, errorMessage string) (*models.Payment, error)
}
