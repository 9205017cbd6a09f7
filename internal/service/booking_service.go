package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"concert-booking/internal/broker"
	"concert-booking/internal/lock"
	"concert-booking/internal/models"
	"concert-booking/internal/store"
	"concert-booking/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrInvalidSeatCount is returned when seatCount is not positive.
	ErrInvalidSeatCount = errors.New("seat count must be positive")
	// ErrEventLocked is returned when another booking for the same event
	// is in flight. Callers should retry, not wait.
	ErrEventLocked = errors.New("event is locked by another booking")
)

// BookingService is the only mutator of the inventory and the booking
// ledger. Seat decrements happen exclusively under the per-event lock.
type BookingService struct {
	concerts  store.ConcertStore
	bookings  store.BookingStore
	locks     lock.Manager
	publisher *broker.EventPublisher
	logger    *zap.Logger
}

// NewBookingService creates a new booking service
func NewBookingService(
	concerts store.ConcertStore,
	bookings store.BookingStore,
	locks lock.Manager,
	publisher *broker.EventPublisher,
) *BookingService {
	return &BookingService{
		concerts:  concerts,
		bookings:  bookings,
		locks:     locks,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// Create reserves seatCount seats on the event and appends a pending
// booking. TotalPrice is snapshotted here and never recomputed.
func (s *BookingService) Create(ctx context.Context, eventID int64, seatCount int, userID string) (*models.Booking, error) {
	ctx, span := util.StartSpan(ctx, "BookingService.Create")
	defer span.End()

	if seatCount <= 0 {
		util.BookingsFailedTotal.WithLabelValues("invalid_seat_count").Inc()
		return nil, ErrInvalidSeatCount
	}
	if userID == "" {
		userID = models.AnonymousUserID
	}

	concert, err := s.concerts.GetConcert(ctx, eventID)
	if err != nil {
		util.BookingsFailedTotal.WithLabelValues("event_not_found").Inc()
		return nil, err
	}

	var booking *models.Booking
	acquired, err := lock.With(ctx, s.locks, eventID, func() error {
		updated, err := s.concerts.DecrementSeats(ctx, eventID, seatCount)
		if err != nil {
			return err
		}

		booking = &models.Booking{
			BookingID:  uuid.New().String(),
			EventID:    eventID,
			EventName:  concert.Name,
			SeatCount:  seatCount,
			TotalPrice: concert.Price * int64(seatCount),
			UserID:     userID,
			Status:     models.BookingStatusPending,
		}
		if err := s.bookings.CreateBooking(ctx, booking); err != nil {
			return fmt.Errorf("failed to persist booking: %w", err)
		}

		s.logger.Info("Booking created",
			zap.String("booking_id", booking.BookingID),
			zap.Int64("event_id", eventID),
			zap.Int("seat_count", seatCount),
			zap.Int("seats_left", updated.Seats))
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrInsufficientSeats) {
			util.BookingsFailedTotal.WithLabelValues("insufficient_seats").Inc()
		}
		return nil, err
	}
	if !acquired {
		util.EventLockConflictsTotal.Inc()
		return nil, fmt.Errorf("event %d: %w", eventID, ErrEventLocked)
	}

	util.BookingsCreatedTotal.Inc()
	util.SeatsReservedTotal.Add(float64(seatCount))

	s.publisher.BookingCreated(ctx, &models.BookingCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeBookingCreated,
			Timestamp: time.Now(),
		},
		BookingID:  booking.BookingID,
		EventRefID: eventID,
		SeatCount:  seatCount,
		TotalPrice: booking.TotalPrice,
		UserID:     userID,
	})

	return booking, nil
}

// Get returns a booking by ID. Any caller may read any booking; there is
// no authorization layer at this boundary.
func (s *BookingService) Get(ctx context.Context, bookingID string) (*models.Booking, error) {
	return s.bookings.GetBooking(ctx, bookingID)
}

// List returns all bookings, unpaginated.
func (s *BookingService) List(ctx context.Context) ([]models.Booking, error) {
	return s.bookings.ListBookings(ctx)
}

// UpdateStatus sets the booking's status and, when provided, its payment
// ID. The transition itself is not validated; the settlement saga is
// expected to call this at most once per successful settlement.
func (s *BookingService) UpdateStatus(ctx context.Context, bookingID, status, paymentID string) (*models.Booking, error) {
	ctx, span := util.StartSpan(ctx, "BookingService.UpdateStatus")
	defer span.End()

	booking, err := s.bookings.UpdateBookingStatus(ctx, bookingID, status, paymentID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Booking status updated",
		zap.String("booking_id", bookingID),
		zap.String("status", booking.Status),
		zap.String("payment_id", booking.PaymentID))

	if booking.Status == models.BookingStatusPaid {
		s.publisher.BookingPaid(ctx, &models.BookingPaidEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeBookingPaid,
				Timestamp: time.Now(),
			},
			BookingID: booking.BookingID,
			PaymentID: booking.PaymentID,
		})
	}

	return booking, nil
}
