package broker

import (
	"context"

	"concert-booking/internal/models"
	"concert-booking/internal/util"

	"go.uber.org/zap"
)

// EventPublisher emits domain events to the audit stream. Publishing is
// best-effort: a broker failure is logged and never fails the request
// that produced the event. A nil EventPublisher drops everything, so
// services without a broker configured can skip the wiring entirely.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{
		producer: producer,
		logger:   util.GetLogger(),
	}
}

func (ep *EventPublisher) publish(ctx context.Context, key string, event interface{}) {
	if ep == nil || ep.producer == nil {
		return
	}
	if err := ep.producer.PublishEvent(ctx, key, event); err != nil {
		ep.logger.Error("Failed to publish audit event",
			zap.String("key", key),
			zap.Error(err))
	}
}

// BookingCreated publishes a BookingCreated event
func (ep *EventPublisher) BookingCreated(ctx context.Context, event *models.BookingCreatedEvent) {
	ep.publish(ctx, "booking-"+event.BookingID, event)
}

// BookingPaid publishes a BookingPaid event
func (ep *EventPublisher) BookingPaid(ctx context.Context, event *models.BookingPaidEvent) {
	ep.publish(ctx, "booking-"+event.BookingID, event)
}

// PaymentAccepted publishes a PaymentAccepted event
func (ep *EventPublisher) PaymentAccepted(ctx context.Context, event *models.PaymentAcceptedEvent) {
	ep.publish(ctx, "payment-"+event.PaymentID, event)
}

// PaymentSettled publishes a PaymentSettled event
func (ep *EventPublisher) PaymentSettled(ctx context.Context, event *models.PaymentSettledEvent) {
	ep.publish(ctx, "payment-"+event.PaymentID, event)
}
