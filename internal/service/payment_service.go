package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"concert-booking/internal/broker"
	"concert-booking/internal/models"
	"concert-booking/internal/store"
	"concert-booking/internal/util"
	"concert-booking/internal/worker"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrInvalidAmount is returned when the payment amount is not positive.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrAlreadyPaid is returned when the referenced booking is already paid.
	ErrAlreadyPaid = errors.New("booking is already paid")
)

// AmountMismatchError reports a payment amount that does not equal the
// booking's frozen total price.
type AmountMismatchError struct {
	Expected int64
	Got      int64
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("Amount mismatch. Expected: %d, Got: %d", e.Expected, e.Got)
}

// BookingReader is the slice of the booking service the payment path needs.
type BookingReader interface {
	GetBooking(ctx context.Context, bookingID string) (*models.Booking, error)
}

// SettlementScheduler dispatches settlement jobs after the HTTP response
// has been sent.
type SettlementScheduler interface {
	Schedule(job worker.SettlementJob) bool
}

// PaymentService accepts payments and hands them to the settlement saga.
// Submit never blocks on the settlement outcome: the caller always gets
// a processing payment back, and a background task resolves it later.
type PaymentService struct {
	payments  store.PaymentStore
	bookings  BookingReader
	settler   SettlementScheduler
	publisher *broker.EventPublisher
	logger    *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	payments store.PaymentStore,
	bookings BookingReader,
	settler SettlementScheduler,
	publisher *broker.EventPublisher,
) *PaymentService {
	return &PaymentService{
		payments:  payments,
		bookings:  bookings,
		settler:   settler,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// Submit validates the payment against the upstream booking, persists a
// processing record and schedules its settlement.
func (s *PaymentService) Submit(ctx context.Context, bookingID string, amount int64) (*models.Payment, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.Submit")
	defer span.End()

	util.PaymentAttemptsTotal.Inc()

	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == models.BookingStatusPaid {
		return nil, fmt.Errorf("booking %s: %w", bookingID, ErrAlreadyPaid)
	}
	if amount != booking.TotalPrice {
		return nil, &AmountMismatchError{Expected: booking.TotalPrice, Got: amount}
	}

	payment := &models.Payment{
		PaymentID: uuid.New().String(),
		BookingID: bookingID,
		Amount:    amount,
		Status:    models.PaymentStatusProcessing,
	}
	if err := s.payments.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to persist payment: %w", err)
	}

	s.logger.Info("Payment accepted",
		zap.String("payment_id", payment.PaymentID),
		zap.String("booking_id", bookingID),
		zap.Int64("amount", amount))

	s.publisher.PaymentAccepted(ctx, &models.PaymentAcceptedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePaymentAccepted,
			Timestamp: time.Now(),
		},
		PaymentID: payment.PaymentID,
		BookingID: bookingID,
		Amount:    amount,
	})

	job := worker.SettlementJob{
		PaymentID:  payment.PaymentID,
		BookingID:  bookingID,
		Amount:     amount,
		AcceptedAt: time.Now(),
	}
	if !s.settler.Schedule(job) {
		// The payment stays processing until an operator intervenes;
		// there is no retry path.
		s.logger.Error("Settlement queue full, payment left processing",
			zap.String("payment_id", payment.PaymentID))
	}

	return payment, nil
}

// Get returns a payment by ID
func (s *PaymentService) Get(ctx context.Context, paymentID string) (*models.Payment, error) {
	return s.payments.GetPayment(ctx, paymentID)
}

// List returns all payments
func (s *PaymentService) List(ctx context.Context) ([]models.Payment, error) {
	return s.payments.ListPayments(ctx)
}
