package models

import (
	"time"

	"github.com/google/uuid"
)

// Tour difficulty levels.
const (
	DifficultyEasy      = "easy"
	DifficultyMedium    = "medium"
	DifficultyDifficult = "difficult"
)

// Location is a point of interest on a tour route. Stored as JSONB.
type Location struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Address     string  `json:"address,omitempty"`
	Description string  `json:"description,omitempty"`
	Day         int     `json:"day,omitempty"`
}

type Tour struct {
	ID              uuid.UUID   `json:"id" db:"id"`
	Name            string      `json:"name" db:"name"`
	Slug            string      `json:"slug" db:"slug"`
	Duration        int         `json:"duration" db:"duration"`
	MaxGroupSize    int         `json:"max_group_size" db:"max_group_size"`
	Difficulty      string      `json:"difficulty" db:"difficulty"`
	RatingsAverage  float64     `json:"ratings_average" db:"ratings_average"`
	RatingsQuantity int         `json:"ratings_quantity" db:"ratings_quantity"`
	Price           float64     `json:"price" db:"price"`
	PriceDiscount   *float64    `json:"price_discount,omitempty" db:"price_discount"`
	Summary         string      `json:"summary" db:"summary"`
	Description     string      `json:"description,omitempty" db:"description"`
	CoverImage      string      `json:"cover_image" db:"cover_image"`
	Images          []string    `json:"images,omitempty" db:"images"`
	StartDates      []time.Time `json:"start_dates,omitempty" db:"start_dates"`
	Secret          bool        `json:"-" db:"secret"` // Hidden from public listings
	StartLocation   *Location   `json:"start_location,omitempty" db:"start_location"`
	Locations       []Location  `json:"locations,omitempty" db:"locations"`
	GuideIDs        []uuid.UUID `json:"guide_ids,omitempty" db:"guide_ids"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
}

// TourStats is one aggregate row per difficulty level.
type TourStats struct {
	Difficulty string  `json:"difficulty"`
	NumTours   int     `json:"num_tours"`
	NumRatings int     `json:"num_ratings"`
	AvgRating  float64 `json:"avg_rating"`
	AvgPrice   float64 `json:"avg_price"`
	MinPrice   float64 `json:"min_price"`
	MaxPrice   float64 `json:"max_price"`
}

// MonthlyPlanEntry counts the tours starting in one month of a year.
type MonthlyPlanEntry struct {
	Month    int      `json:"month"`
	NumTours int      `json:"num_tours"`
	Tours    []string `json:"tours"`
}

// TourDistance pairs a tour with its distance from a reference point.
type TourDistance struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Distance float64   `json:"distance"`
}

// TourFilter narrows and orders tour listings.
type TourFilter struct {
	Difficulty *string
	MaxPrice   *float64
	MinRating  *float64
	SortBy     string
	Limit      int
	Offset     int
}
