package models

import (
	"time"

	"github.com/google/uuid"
)

// Booking records a paid checkout. SessionID is the payment provider's
// checkout-session id and is unique, so redelivered webhooks collapse into
// the same row.
type Booking struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TourID    uuid.UUID `json:"tour_id" db:"tour_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Price     float64   `json:"price" db:"price"`
	SessionID string    `json:"session_id" db:"session_id"`
	Paid      bool      `json:"paid" db:"paid"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
