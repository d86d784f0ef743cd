package models

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Review    string    `json:"review" db:"review"`
	Rating    int       `json:"rating" db:"rating"`
	TourID    uuid.UUID `json:"tour_id" db:"tour_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// RatingStats is the review aggregate rolled up onto a tour.
type RatingStats struct {
	Quantity int     `json:"quantity"`
	Average  float64 `json:"average"`
}
