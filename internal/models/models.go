package models

import "time"

// Concert represents a sellable event in the catalog
type Concert struct {
	ID         int64  `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	Price      int64  `db:"price" json:"price"`
	Seats      int    `db:"seats" json:"seats"`
	Popularity int    `db:"popularity" json:"popularity"`
}

// Booking represents a seat reservation against one concert.
// TotalPrice is a snapshot taken at creation time and is never recomputed,
// so later price changes to the concert do not affect existing bookings.
type Booking struct {
	BookingID  string    `db:"booking_id" json:"bookingId"`
	EventID    int64     `db:"event_id" json:"eventId"`
	EventName  string    `db:"event_name" json:"eventName"`
	SeatCount  int       `db:"seat_count" json:"seatCount"`
	TotalPrice int64     `db:"total_price" json:"totalPrice"`
	UserID     string    `db:"user_id" json:"userId"`
	Status     string    `db:"status" json:"status"`
	PaymentID  string    `db:"payment_id" json:"paymentId,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// Payment represents one settlement attempt for a booking. Nothing
// constrains the number of attempts per booking; each attempt gets its
// own record and transitions exactly once to a terminal status.
type Payment struct {
	PaymentID    string     `db:"payment_id" json:"paymentId"`
	BookingID    string     `db:"booking_id" json:"bookingId"`
	Amount       int64      `db:"amount" json:"amount"`
	Status       string     `db:"status" json:"status"`
	ErrorMessage string     `db:"error_message" json:"errorMessage,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	CompletedAt  *time.Time `db:"completed_at" json:"completedAt,omitempty"`
	FailedAt     *time.Time `db:"failed_at" json:"failedAt,omitempty"`
}

// Booking statuses
const (
	BookingStatusPending = "pending"
	BookingStatusPaid    = "paid"
)

// Payment statuses
const (
	PaymentStatusProcessing = "processing"
	PaymentStatusSuccess    = "success"
	PaymentStatusFailed     = "failed"
)

// AnonymousUserID is assumed when the caller provides no identity.
const AnonymousUserID = "anonymous"
