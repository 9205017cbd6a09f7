package store

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"concert-booking/internal/models"
)

// MemoryStore keeps all ledgers in process memory. The mutex guards map
// structure only; seat-mutation ordering is the event lock's job.
type MemoryStore struct {
	mu       sync.RWMutex
	concerts map[int64]*models.Concert
	bookings map[string]*models.Booking
	payments map[string]*models.Payment

	// insertion order, so listings are stable
	bookingOrder []string
	paymentOrder []string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		concerts: make(map[int64]*models.Concert),
		bookings: make(map[string]*models.Booking),
		payments: make(map[string]*models.Payment),
	}
}

var seedCities = []string{"Jakarta", "Bandung", "Bali", "Surabaya"}

// GenerateConcerts produces n seeded concerts matching the shape of the
// production catalog: price is a multiple of 100000, seats below 5000,
// popularity below 1000.
func GenerateConcerts(n int) []models.Concert {
	concerts := make([]models.Concert, n)
	for i := 0; i < n; i++ {
		concerts[i] = models.Concert{
			ID:         int64(i + 1),
			Name:       fmt.Sprintf("Concert Event #%d - %s", i+1, seedCities[i%len(seedCities)]),
			Price:      int64(rand.Intn(10)+1) * 100000,
			Seats:      rand.Intn(5000),
			Popularity: rand.Intn(1000),
		}
	}
	return concerts
}

func (s *MemoryStore) SeedConcerts(ctx context.Context, concerts []models.Concert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range concerts {
		c := concerts[i]
		s.concerts[c.ID] = &c
	}
	return nil
}

func (s *MemoryStore) GetConcert(ctx context.Context, id int64) (*models.Concert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	concert, ok := s.concerts[id]
	if !ok {
		return nil, fmt.Errorf("concert %d: %w", id, ErrNotFound)
	}
	copied := *concert
	return &copied, nil
}

func (s *MemoryStore) ListConcerts(ctx context.Context) ([]models.Concert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	concerts := make([]models.Concert, 0, len(s.concerts))
	for _, c := range s.concerts {
		concerts = append(concerts, *c)
	}
	sort.Slice(concerts, func(i, j int) bool { return concerts[i].ID < concerts[j].ID })
	return concerts, nil
}

func (s *MemoryStore) DecrementSeats(ctx context.Context, id int64, n int) (*models.Concert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	concert, ok := s.concerts[id]
	if !ok {
		return nil, fmt.Errorf("concert %d: %w", id, ErrNotFound)
	}
	if n > concert.Seats {
		return nil, fmt.Errorf("concert %d has %d seats, requested %d: %w",
			id, concert.Seats, n, ErrInsufficientSeats)
	}
	concert.Seats -= n
	copied := *concert
	return &copied, nil
}

func (s *MemoryStore) SetPrice(ctx context.Context, id int64, price int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	concert, ok := s.concerts[id]
	if !ok {
		return fmt.Errorf("concert %d: %w", id, ErrNotFound)
	}
	concert.Price = price
	return nil
}

func (s *MemoryStore) CreateBooking(ctx context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	copied := *booking
	s.bookings[booking.BookingID] = &copied
	s.bookingOrder = append(s.bookingOrder, booking.BookingID)
	return nil
}

func (s *MemoryStore) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	booking, ok := s.bookings[bookingID]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}
	copied := *booking
	return &copied, nil
}

func (s *MemoryStore) ListBookings(ctx context.Context) ([]models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bookings := make([]models.Booking, 0, len(s.bookingOrder))
	for _, id := range s.bookingOrder {
		bookings = append(bookings, *s.bookings[id])
	}
	return bookings, nil
}

func (s *MemoryStore) UpdateBookingStatus(ctx context.Context, bookingID, status, paymentID string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	booking, ok := s.bookings[bookingID]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}
	if status != "" {
		booking.Status = status
	}
	if paymentID != "" {
		booking.PaymentID = paymentID
	}
	booking.UpdatedAt = time.Now().UTC()
	copied := *booking
	return &copied, nil
}

func (s *MemoryStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payment.CreatedAt = time.Now().UTC()
	copied := *payment
	s.payments[payment.PaymentID] = &copied
	s.paymentOrder = append(s.paymentOrder, payment.PaymentID)
	return nil
}

func (s *MemoryStore) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payment, ok := s.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("payment %s: %w", paymentID, ErrNotFound)
	}
	copied := *payment
	return &copied, nil
}

func (s *MemoryStore) ListPayments(ctx context.Context) ([]models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payments := make([]models.Payment, 0, len(s.paymentOrder))
	for _, id := range s.paymentOrder {
		payments = append(payments, *s.payments[id])
	}
	return payments, nil
}

func (s *MemoryStore) SettlePayment(ctx context.Context, paymentID, status, errorMessage string) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payment, ok := s.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("payment %s: %w", paymentID, ErrNotFound)
	}
	now := time.Now().UTC()
	payment.Status = status
	payment.ErrorMessage = errorMessage
	switch status {
	case models.PaymentStatusSuccess:
		payment.CompletedAt = &now
	case models.PaymentStatusFailed:
		payment.FailedAt = &now
	}
	copied := *payment
	return &copied, nil
}
