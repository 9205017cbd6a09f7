package models

import "time"

// Event types published to the audit stream
const (
	EventTypeBookingCreated  = "BOOKING_CREATED"
	EventTypeBookingPaid     = "BOOKING_PAID"
	EventTypePaymentAccepted = "PAYMENT_ACCEPTED"
	EventTypePaymentSettled  = "PAYMENT_SETTLED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// BookingCreatedEvent published when a booking is created and seats are reserved
type BookingCreatedEvent struct {
	BaseEvent
	BookingID  string `json:"booking_id"`
	EventRefID int64  `json:"event_ref_id"`
	SeatCount  int    `json:"seat_count"`
	TotalPrice int64  `json:"total_price"`
	UserID     string `json:"user_id"`
}

// BookingPaidEvent published when a booking transitions to paid
type BookingPaidEvent struct {
	BaseEvent
	BookingID string `json:"booking_id"`
	PaymentID string `json:"payment_id"`
}

// PaymentAcceptedEvent published when a payment enters processing
type PaymentAcceptedEvent struct {
	BaseEvent
	PaymentID string `json:"payment_id"`
	BookingID string `json:"booking_id"`
	Amount    int64  `json:"amount"`
}

// PaymentSettledEvent published when the settlement task resolves
type PaymentSettledEvent struct {
	BaseEvent
	PaymentID string `json:"payment_id"`
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
}
