package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"concert-booking/internal/cache"
	"concert-booking/internal/lock"
	"concert-booking/internal/models"
	"concert-booking/internal/service"
	"concert-booking/internal/store"
	"concert-booking/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReader struct {
	booking *models.Booking
	err     error
}

func (r *stubReader) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.booking, nil
}

type noopScheduler struct{}

func (noopScheduler) Schedule(job worker.SettlementJob) bool { return true }

func newPaymentRouter(t *testing.T, reader service.BookingReader) (*gin.Engine, *store.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mem := store.NewMemoryStore()
	payments := service.NewPaymentService(mem, reader, noopScheduler{}, nil)

	router := gin.New()
	NewPaymentHandler(payments).SetupRoutes(router)
	return router, mem
}

func TestSubmitPaymentAccepted(t *testing.T) {
	router, mem := newPaymentRouter(t, &stubReader{booking: &models.Booking{
		BookingID:  "b-1",
		TotalPrice: 1000000,
		Status:     models.BookingStatusPending,
	}})

	w := doJSON(t, router, http.MethodPost, "/payments", gin.H{"bookingId": "b-1", "amount": 1000000})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success   bool   `json:"success"`
		PaymentID string `json:"paymentId"`
		Status    string `json:"status"`
		Message   string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, models.PaymentStatusProcessing, resp.Status)
	assert.Equal(t, "Payment is being processed", resp.Message)

	// the record is queryable before settlement resolves it
	w = doJSON(t, router, http.MethodGet, "/payments/"+resp.PaymentID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var payment models.Payment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payment))
	assert.Equal(t, models.PaymentStatusProcessing, payment.Status)

	stored, err := mem.GetPayment(context.Background(), resp.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000000), stored.Amount)
}

func TestSubmitPaymentRejections(t *testing.T) {
	pending := &models.Booking{BookingID: "b-1", TotalPrice: 1000000, Status: models.BookingStatusPending}
	paid := &models.Booking{BookingID: "b-1", TotalPrice: 1000000, Status: models.BookingStatusPaid}

	cases := []struct {
		name    string
		reader  service.BookingReader
		body    gin.H
		code    int
		message string
	}{
		{
			name:   "missing bookingId",
			reader: &stubReader{booking: pending},
			body:   gin.H{"amount": 1000000},
			code:   http.StatusBadRequest,
		},
		{
			name:   "missing amount",
			reader: &stubReader{booking: pending},
			body:   gin.H{"bookingId": "b-1"},
			code:   http.StatusBadRequest,
		},
		{
			name:   "negative amount",
			reader: &stubReader{booking: pending},
			body:   gin.H{"bookingId": "b-1", "amount": -5},
			code:   http.StatusBadRequest,
		},
		{
			name:    "unknown booking",
			reader:  &stubReader{err: fmt.Errorf("booking b-1: %w", service.ErrBookingNotFound)},
			body:    gin.H{"bookingId": "b-1", "amount": 1000000},
			code:    http.StatusNotFound,
			message: "Booking not found",
		},
		{
			name:    "already paid",
			reader:  &stubReader{booking: paid},
			body:    gin.H{"bookingId": "b-1", "amount": 1000000},
			code:    http.StatusBadRequest,
			message: "Booking is already paid",
		},
		{
			name:    "amount mismatch",
			reader:  &stubReader{booking: pending},
			body:    gin.H{"bookingId": "b-1", "amount": 999999},
			code:    http.StatusBadRequest,
			message: "Amount mismatch. Expected: 1000000, Got: 999999",
		},
		{
			name:    "booking service down",
			reader:  &stubReader{err: fmt.Errorf("%w: connection refused", service.ErrUpstreamUnavailable)},
			body:    gin.H{"bookingId": "b-1", "amount": 1000000},
			code:    http.StatusInternalServerError,
			message: "Failed to validate booking",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router, mem := newPaymentRouter(t, tc.reader)

			w := doJSON(t, router, http.MethodPost, "/payments", tc.body)
			assert.Equal(t, tc.code, w.Code)

			var resp struct {
				Success bool   `json:"success"`
				Message string `json:"message"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			if tc.message != "" {
				assert.Equal(t, tc.message, resp.Message)
			}

			// rejected payments are never persisted
			all, err := mem.ListPayments(context.Background())
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestListPayments(t *testing.T) {
	router, _ := newPaymentRouter(t, &stubReader{booking: &models.Booking{
		BookingID:  "b-1",
		TotalPrice: 200000,
		Status:     models.BookingStatusPending,
	}})

	for i := 0; i < 3; i++ {
		w := doJSON(t, router, http.MethodPost, "/payments", gin.H{"bookingId": "b-1", "amount": 200000})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doJSON(t, router, http.MethodGet, "/payments", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success  bool             `json:"success"`
		Total    int              `json:"total"`
		Payments []models.Payment `json:"payments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Total)
	require.Len(t, resp.Payments, 3)
}

// sagaFixture wires both services the way production does, with the
// booking service behind a real HTTP listener and the payment service
// reaching it only through BookingClient.
type sagaFixture struct {
	bookingServer *httptest.Server
	bookingStore  *store.MemoryStore
	paymentRouter *gin.Engine
}

func newSagaFixture(t *testing.T, successRate float64) *sagaFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bookingStore := store.NewMemoryStore()
	require.NoError(t, bookingStore.SeedConcerts(context.Background(), []models.Concert{
		{ID: 5, Name: "Concert Event #5 - Jakarta", Price: 500000, Seats: 10},
	}))

	bookings := service.NewBookingService(bookingStore, bookingStore, lock.NewMemoryManager(), nil)
	catalog := service.NewCatalogService(bookingStore, cache.NewMemory(), time.Minute)
	bookingRouter := gin.New()
	NewBookingHandler(bookings, catalog).SetupRoutes(bookingRouter)

	bookingServer := httptest.NewServer(bookingRouter)
	t.Cleanup(bookingServer.Close)

	client := service.NewBookingClient(bookingServer.URL)
	paymentStore := store.NewMemoryStore()

	settler := worker.NewSettlementWorker(paymentStore, client, nil, 10*time.Millisecond, successRate, 16)
	settler.Start(context.Background())
	t.Cleanup(settler.Stop)

	payments := service.NewPaymentService(paymentStore, client, settler, nil)
	paymentRouter := gin.New()
	NewPaymentHandler(payments).SetupRoutes(paymentRouter)

	return &sagaFixture{
		bookingServer: bookingServer,
		bookingStore:  bookingStore,
		paymentRouter: paymentRouter,
	}
}

func (f *sagaFixture) createBooking(t *testing.T) models.Booking {
	t.Helper()
	payload, err := json.Marshal(gin.H{"eventId": 5, "seatCount": 2})
	require.NoError(t, err)

	resp, err := http.Post(f.bookingServer.URL+"/bookings", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Booking models.Booking `json:"booking"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	return created.Booking
}

func (f *sagaFixture) paymentStatus(t *testing.T, paymentID string) string {
	t.Helper()
	w := doJSON(t, f.paymentRouter, http.MethodGet, "/payments/"+paymentID, nil)
	if w.Code != http.StatusOK {
		return ""
	}
	var payment models.Payment
	if err := json.Unmarshal(w.Body.Bytes(), &payment); err != nil {
		return ""
	}
	return payment.Status
}

func TestPaymentSagaSuccess(t *testing.T) {
	f := newSagaFixture(t, 1.0)
	booking := f.createBooking(t)

	w := doJSON(t, f.paymentRouter, http.MethodPost, "/payments",
		gin.H{"bookingId": booking.BookingID, "amount": booking.TotalPrice})
	require.Equal(t, http.StatusOK, w.Code)

	var accepted struct {
		PaymentID string `json:"paymentId"`
		Status    string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accepted))
	require.Equal(t, models.PaymentStatusProcessing, accepted.Status)

	require.Eventually(t, func() bool {
		return f.paymentStatus(t, accepted.PaymentID) == models.PaymentStatusSuccess
	}, 2*time.Second, 10*time.Millisecond)

	// the settlement callback flipped the booking across the wire
	updated, err := f.bookingStore.GetBooking(context.Background(), booking.BookingID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPaid, updated.Status)
	assert.Equal(t, accepted.PaymentID, updated.PaymentID)
}

func TestPaymentSagaDecline(t *testing.T) {
	f := newSagaFixture(t, 0.0)
	booking := f.createBooking(t)

	w := doJSON(t, f.paymentRouter, http.MethodPost, "/payments",
		gin.H{"bookingId": booking.BookingID, "amount": booking.TotalPrice})
	require.Equal(t, http.StatusOK, w.Code)

	var accepted struct {
		PaymentID string `json:"paymentId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accepted))

	require.Eventually(t, func() bool {
		return f.paymentStatus(t, accepted.PaymentID) == models.PaymentStatusFailed
	}, 2*time.Second, 10*time.Millisecond)

	// the booking keeps its seats and stays pending after a decline
	updated, err := f.bookingStore.GetBooking(context.Background(), booking.BookingID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, updated.Status)
	assert.Empty(t, updated.PaymentID)

	concert, err := f.bookingStore.GetConcert(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 8, concert.Seats)
}

func TestPaymentSagaRejectsTamperedAmount(t *testing.T) {
	f := newSagaFixture(t, 1.0)
	booking := f.createBooking(t)

	w := doJSON(t, f.paymentRouter, http.MethodPost, "/payments",
		gin.H{"bookingId": booking.BookingID, "amount": booking.TotalPrice - 1})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t,
		fmt.Sprintf("Amount mismatch. Expected: %d, Got: %d", booking.TotalPrice, booking.TotalPrice-1),
		resp.Message)
}
