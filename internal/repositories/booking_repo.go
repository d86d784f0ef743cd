package repositories

import (
	"context"
	"errors"

	"tourbase/internal/common"
	"tourbase/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type BookingRepository interface {
	// CreateFromCheckout inserts a booking keyed by the checkout session id.
	// It reports false without error when a booking for that session already
	// exists, which makes webhook redeliveries harmless.
	CreateFromCheckout(ctx context.Context, booking *models.Booking) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	Update(ctx context.Context, booking *models.Booking) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Booking, error)
}

type bookingRepo struct {
	db DB
}

func NewBookingRepo(db DB) BookingRepository {
	return &bookingRepo{db: db}
}

func (r *bookingRepo) CreateFromCheckout(ctx context.Context, booking *models.Booking) (bool, error) {
	query := `
		INSERT INTO bookings (id, tour_id, user_id, price, session_id, paid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (session_id) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query, booking.ID, booking.TourID, booking.UserID,
		booking.Price, booking.SessionID, booking.Paid)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *bookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	booking := &models.Booking{}
	query := `SELECT id, tour_id, user_id, price, session_id, paid, created_at FROM bookings WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(&booking.ID, &booking.TourID, &booking.UserID,
		&booking.Price, &booking.SessionID, &booking.Paid, &booking.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return booking, nil
}

func (r *bookingRepo) Update(ctx context.Context, booking *models.Booking) error {
	query := `UPDATE bookings SET price = $1, paid = $2 WHERE id = $3`
	tag, err := r.db.Exec(ctx, query, booking.Price, booking.Paid, booking.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *bookingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *bookingRepo) List(ctx context.Context, limit, offset int) ([]*models.Booking, error) {
	query := `
		SELECT id, tour_id, user_id, price, session_id, paid, created_at
		FROM bookings
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	return r.queryBookings(ctx, query, limit, offset)
}

func (r *bookingRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Booking, error) {
	query := `
		SELECT id, tour_id, user_id, price, session_id, paid, created_at
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	return r.queryBookings(ctx, query, userID)
}

func (r *bookingRepo) queryBookings(ctx context.Context, query string, args ...any) ([]*models.Booking, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		booking := &models.Booking{}
		if err := rows.Scan(&booking.ID, &booking.TourID, &booking.UserID,
			&booking.Price, &booking.SessionID, &booking.Paid, &booking.CreatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}
