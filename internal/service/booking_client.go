package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"concert-booking/internal/models"
	"concert-booking/internal/util"

	"go.uber.org/zap"
)

var (
	// ErrBookingNotFound is returned when the booking service reports 404.
	ErrBookingNotFound = errors.New("booking not found")
	// ErrUpstreamUnavailable is returned when the booking service cannot
	// be reached or answers with an unexpected status.
	ErrUpstreamUnavailable = errors.New("booking service unavailable")
)

// BookingClient is the payment service's only access to booking state.
// All reads and the paid-status callback go through the booking service's
// HTTP contract; the ledgers share no memory and no datastore.
type BookingClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewBookingClient creates a client for the booking service
func NewBookingClient(baseURL string) *BookingClient {
	return &BookingClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		logger:  util.GetLogger(),
	}
}

// GetBooking fetches a booking across the service boundary
func (c *BookingClient) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	ctx, span := util.StartSpan(ctx, "BookingClient.GetBooking")
	defer span.End()

	url := fmt.Sprintf("%s/bookings/%s", c.baseURL, bookingID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var booking models.Booking
		if err := json.NewDecoder(resp.Body).Decode(&booking); err != nil {
			return nil, fmt.Errorf("%w: decoding booking: %v", ErrUpstreamUnavailable, err)
		}
		return &booking, nil
	case http.StatusNotFound:
		return nil, fmt.Errorf("booking %s: %w", bookingID, ErrBookingNotFound)
	default:
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}
}

// MarkPaid asks the booking service to transition the booking to paid.
// There is no retry here: a failure leaves the payment marked success and
// the booking pending, which the caller must log for operators.
func (c *BookingClient) MarkPaid(ctx context.Context, bookingID, paymentID string) error {
	ctx, span := util.StartSpan(ctx, "BookingClient.MarkPaid")
	defer span.End()

	body, err := json.Marshal(map[string]string{
		"status":    models.BookingStatusPaid,
		"paymentId": paymentID,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	url := fmt.Sprintf("%s/bookings/%s", c.baseURL, bookingID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("booking %s: %w", bookingID, ErrBookingNotFound)
	default:
		c.logger.Error("Booking status callback rejected",
			zap.String("booking_id", bookingID),
			zap.Int("status_code", resp.StatusCode))
		return fmt.Errorf("%w: unexpected status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}
}
