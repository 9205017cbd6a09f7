package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"concert-booking/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// PostgresStore backs the ledgers with Postgres behind the same interfaces
// as MemoryStore. The per-event advisory lock still serializes seat
// mutation; the decrement query's WHERE guard is the last defense against
// oversell, not a replacement for the lock.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore connects and ensures the schema exists
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS concerts (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		price BIGINT NOT NULL,
		seats INT NOT NULL CHECK (seats >= 0),
		popularity INT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS bookings (
		booking_id TEXT PRIMARY KEY,
		event_id BIGINT NOT NULL,
		event_name TEXT NOT NULL,
		seat_count INT NOT NULL,
		total_price BIGINT NOT NULL,
		user_id TEXT NOT NULL,
		status TEXT NOT NULL,
		payment_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE TABLE IF NOT EXISTS payments (
		payment_id TEXT PRIMARY KEY,
		booking_id TEXT NOT NULL,
		amount BIGINT NOT NULL,
		status TEXT NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		completed_at TIMESTAMPTZ,
		failed_at TIMESTAMPTZ
	);`

	_, err := s.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) SeedConcerts(ctx context.Context, concerts []models.Concert) error {
	for _, c := range concerts {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO concerts (id, name, price, seats, popularity)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO NOTHING`,
			c.ID, c.Name, c.Price, c.Seats, c.Popularity)
		if err != nil {
			return fmt.Errorf("failed to seed concert %d: %w", c.ID, err)
		}
	}
	return nil
}

func (s *PostgresStore) GetConcert(ctx context.Context, id int64) (*models.Concert, error) {
	var concert models.Concert
	err := s.db.GetContext(ctx, &concert, "SELECT * FROM concerts WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("concert %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &concert, nil
}

func (s *PostgresStore) ListConcerts(ctx context.Context) ([]models.Concert, error) {
	var concerts []models.Concert
	err := s.db.SelectContext(ctx, &concerts, "SELECT * FROM concerts ORDER BY id")
	return concerts, err
}

func (s *PostgresStore) DecrementSeats(ctx context.Context, id int64, n int) (*models.Concert, error) {
	var concert models.Concert
	err := s.db.GetContext(ctx, &concert,
		`UPDATE concerts SET seats = seats - $1
		 WHERE id = $2 AND seats >= $1
		 RETURNING *`,
		n, id)
	if err == sql.ErrNoRows {
		// Either the concert does not exist or the guard rejected the
		// decrement; disambiguate for the caller.
		if _, getErr := s.GetConcert(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("concert %d, requested %d: %w", id, n, ErrInsufficientSeats)
	}
	if err != nil {
		return nil, err
	}
	return &concert, nil
}

func (s *PostgresStore) SetPrice(ctx context.Context, id int64, price int64) error {
	res, err := s.db.ExecContext(ctx, "UPDATE concerts SET price = $1 WHERE id = $2", price, id)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fmt.Errorf("concert %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `
		INSERT INTO bookings (booking_id, event_id, event_name, seat_count, total_price, user_id, status, payment_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	row := s.db.QueryRowxContext(ctx, query,
		booking.BookingID, booking.EventID, booking.EventName, booking.SeatCount,
		booking.TotalPrice, booking.UserID, booking.Status, booking.PaymentID)
	return row.Scan(&booking.CreatedAt, &booking.UpdatedAt)
}

func (s *PostgresStore) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.GetContext(ctx, &booking, "SELECT * FROM bookings WHERE booking_id = $1", bookingID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (s *PostgresStore) ListBookings(ctx context.Context) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.SelectContext(ctx, &bookings, "SELECT * FROM bookings ORDER BY created_at")
	return bookings, err
}

func (s *PostgresStore) UpdateBookingStatus(ctx context.Context, bookingID, status, paymentID string) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.GetContext(ctx, &booking,
		`UPDATE bookings
		 SET status = CASE WHEN $1 <> '' THEN $1 ELSE status END,
		     payment_id = CASE WHEN $2 <> '' THEN $2 ELSE payment_id END,
		     updated_at = NOW()
		 WHERE booking_id = $3
		 RETURNING *`,
		status, paymentID, bookingID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (s *PostgresStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (payment_id, booking_id, amount, status, error_message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	row := s.db.QueryRowxContext(ctx, query,
		payment.PaymentID, payment.BookingID, payment.Amount, payment.Status, payment.ErrorMessage)
	return row.Scan(&payment.CreatedAt)
}

func (s *PostgresStore) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.GetContext(ctx, &payment, "SELECT * FROM payments WHERE payment_id = $1", paymentID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("payment %s: %w", paymentID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (s *PostgresStore) ListPayments(ctx context.Context) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.SelectContext(ctx, &payments, "SELECT * FROM payments ORDER BY created_at")
	return payments, err
}

func (s *PostgresStore) SettlePayment(ctx context.Context, paymentID, status, errorMessage string) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.GetContext(ctx, &payment,
		`UPDATE payments
		 SET status = $1,
		     error_message = $2,
		     completed_at = CASE WHEN $1 = 'success' THEN NOW() ELSE completed_at END,
		     failed_at = CASE WHEN $1 = 'failed' THEN NOW() ELSE failed_at END
		 WHERE payment_id = $3
		 RETURNING *`,
		status, errorMessage, paymentID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("payment %s: %w", paymentID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}
