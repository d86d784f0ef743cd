package repositories

import (
	"context"
	"testing"
	"time"

	"tourbase/internal/common"
	"tourbase/internal/models"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBookingRepoWithMock(t *testing.T) (BookingRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return NewBookingRepo(mockPool), mockPool
}

func testBooking() *models.Booking {
	return &models.Booking{
		ID:        uuid.New(),
		TourID:    uuid.New(),
		UserID:    uuid.New(),
		Price:     199.00,
		SessionID: "cs_test_1",
		Paid:      true,
	}
}

func TestCreateFromCheckout_NewSession(t *testing.T) {
	repo, mockPool := newBookingRepoWithMock(t)
	booking := testBooking()

	mockPool.ExpectExec("INSERT INTO bookings").
		WithArgs(booking.ID, booking.TourID, booking.UserID, booking.Price, booking.SessionID, booking.Paid).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	created, err := repo.CreateFromCheckout(context.Background(), booking)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

// A conflicting session id affects zero rows; the repo reports it as a
// duplicate, not an error.
func TestCreateFromCheckout_DuplicateSession(t *testing.T) {
	repo, mockPool := newBookingRepoWithMock(t)
	booking := testBooking()

	mockPool.ExpectExec("INSERT INTO bookings").
		WithArgs(booking.ID, booking.TourID, booking.UserID, booking.Price, booking.SessionID, booking.Paid).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	created, err := repo.CreateFromCheckout(context.Background(), booking)
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestBookingGetByID(t *testing.T) {
	repo, mockPool := newBookingRepoWithMock(t)
	booking := testBooking()
	now := time.Now()

	rows := pgxmock.NewRows([]string{"id", "tour_id", "user_id", "price", "session_id", "paid", "created_at"}).
		AddRow(booking.ID, booking.TourID, booking.UserID, booking.Price, booking.SessionID, booking.Paid, now)
	mockPool.ExpectQuery("SELECT id, tour_id, user_id, price, session_id, paid, created_at FROM bookings").
		WithArgs(booking.ID).
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.SessionID, got.SessionID)
	assert.Equal(t, booking.Price, got.Price)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestBookingGetByID_NotFound(t *testing.T) {
	repo, mockPool := newBookingRepoWithMock(t)
	id := uuid.New()

	mockPool.ExpectQuery("SELECT id, tour_id, user_id, price, session_id, paid, created_at FROM bookings").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "tour_id", "user_id", "price", "session_id", "paid", "created_at"}))

	_, err := repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestBookingUpdate_NotFound(t *testing.T) {
	repo, mockPool := newBookingRepoWithMock(t)
	booking := testBooking()

	mockPool.ExpectExec("UPDATE bookings").
		WithArgs(booking.Price, booking.Paid, booking.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), booking)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
