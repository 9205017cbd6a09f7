package worker

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"concert-booking/internal/broker"
	"concert-booking/internal/models"
	"concert-booking/internal/store"
	"concert-booking/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SettlementJob is one scheduled settlement of an accepted payment.
type SettlementJob struct {
	PaymentID  string
	BookingID  string
	Amount     int64
	AcceptedAt time.Time
}

// BookingUpdater propagates a successful settlement back to the booking
// service.
type BookingUpdater interface {
	MarkPaid(ctx context.Context, bookingID, paymentID string) error
}

// SettlementWorker resolves payments in the background. Each job waits
// out the configured gateway delay, then flips its payment from
// processing to exactly one terminal status. On success it calls back
// into the booking service; if that call fails the discrepancy is logged
// and left as-is. No retry, no rollback.
type SettlementWorker struct {
	payments  store.PaymentStore
	bookings  BookingUpdater
	publisher *broker.EventPublisher
	logger    *zap.Logger

	delay       time.Duration
	successRate float64

	jobs   chan SettlementJob
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewSettlementWorker creates a settlement worker with a bounded queue
func NewSettlementWorker(
	payments store.PaymentStore,
	bookings BookingUpdater,
	publisher *broker.EventPublisher,
	delay time.Duration,
	successRate float64,
	queueSize int,
) *SettlementWorker {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &SettlementWorker{
		payments:    payments,
		bookings:    bookings,
		publisher:   publisher,
		logger:      util.GetLogger(),
		delay:       delay,
		successRate: successRate,
		jobs:        make(chan SettlementJob, queueSize),
	}
}

// Schedule enqueues a job without blocking. It returns false when the
// queue is full; the payment then stays processing.
func (w *SettlementWorker) Schedule(job SettlementJob) bool {
	select {
	case w.jobs <- job:
		return true
	default:
		return false
	}
}

// Start begins dispatching settlement jobs until the context is
// cancelled or Stop is called.
func (w *SettlementWorker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case job := <-w.jobs:
				w.wg.Add(1)
				go func(job SettlementJob) {
					defer w.wg.Done()
					w.settle(ctx, job)
				}(job)
			}
		}
	}()
	w.logger.Info("Settlement worker started",
		zap.Duration("delay", w.delay),
		zap.Float64("success_rate", w.successRate))
}

// Stop cancels in-flight waits and blocks until all goroutines exit.
// Payments whose delay had not elapsed remain processing.
func (w *SettlementWorker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.logger.Info("Settlement worker stopped")
}

func (w *SettlementWorker) settle(ctx context.Context, job SettlementJob) {
	select {
	case <-ctx.Done():
		w.logger.Warn("Shutdown before settlement, payment left processing",
			zap.String("payment_id", job.PaymentID))
		return
	case <-time.After(w.delay):
	}

	defer util.SettlementLatency.Observe(time.Since(job.AcceptedAt).Seconds())

	if rand.Float64() < w.successRate {
		w.settleSuccess(ctx, job)
	} else {
		w.settleFailure(ctx, job)
	}
}

func (w *SettlementWorker) settleSuccess(ctx context.Context, job SettlementJob) {
	if _, err := w.payments.SettlePayment(ctx, job.PaymentID, models.PaymentStatusSuccess, ""); err != nil {
		w.logger.Error("Failed to mark payment success",
			zap.String("payment_id", job.PaymentID),
			zap.Error(err))
		return
	}
	util.PaymentSuccessTotal.Inc()

	w.logger.Info("Payment settled",
		zap.String("payment_id", job.PaymentID),
		zap.String("booking_id", job.BookingID))

	// The one cross-service write of the saga. Its failure leaves the
	// payment success and the booking pending permanently; operators
	// only learn about it from this log line and the counter.
	if err := w.bookings.MarkPaid(ctx, job.BookingID, job.PaymentID); err != nil {
		util.PaymentInconsistenciesTotal.Inc()
		w.logger.Error("Payment succeeded but booking could not be marked paid",
			zap.String("payment_id", job.PaymentID),
			zap.String("booking_id", job.BookingID),
			zap.Error(err))
	}

	w.publishSettled(ctx, job, models.PaymentStatusSuccess, "")
}

func (w *SettlementWorker) settleFailure(ctx context.Context, job SettlementJob) {
	const reason = "Payment declined by gateway"

	if _, err := w.payments.SettlePayment(ctx, job.PaymentID, models.PaymentStatusFailed, reason); err != nil {
		w.logger.Error("Failed to mark payment failed",
			zap.String("payment_id", job.PaymentID),
			zap.Error(err))
		return
	}
	util.PaymentFailedTotal.WithLabelValues("gateway_declined").Inc()

	// Seats reserved at booking time are not restored and the booking
	// stays pending.
	w.logger.Warn("Payment declined",
		zap.String("payment_id", job.PaymentID),
		zap.String("booking_id", job.BookingID))

	w.publishSettled(ctx, job, models.PaymentStatusFailed, reason)
}

func (w *SettlementWorker) publishSettled(ctx context.Context, job SettlementJob, status, reason string) {
	w.publisher.PaymentSettled(ctx, &models.PaymentSettledEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePaymentSettled,
			Timestamp: time.Now(),
		},
		PaymentID: job.PaymentID,
		BookingID: job.BookingID,
		Status:    status,
		Reason:    reason,
	})
}
