package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"tourbase/internal/caching"
	"tourbase/internal/common"
	"tourbase/internal/models"
	"tourbase/internal/repositories"

	"github.com/google/uuid"
)

const tourCacheTTL = 10 * time.Minute

type TourService interface {
	CreateTour(ctx context.Context, tour *models.Tour) error
	GetTour(ctx context.Context, id uuid.UUID) (*models.Tour, error)
	GetTourBySlug(ctx context.Context, slug string) (*models.Tour, error)
	UpdateTour(ctx context.Context, tour *models.Tour) error
	DeleteTour(ctx context.Context, id uuid.UUID) error
	ListTours(ctx context.Context, filter *models.TourFilter) ([]*models.Tour, error)
	TopTours(ctx context.Context) ([]*models.Tour, error)
	Stats(ctx context.Context) ([]*models.TourStats, error)
	MonthlyPlan(ctx context.Context, year int) ([]*models.MonthlyPlanEntry, error)
	ToursWithin(ctx context.Context, lat, lng, distance float64, unit string) ([]*models.Tour, error)
	Distances(ctx context.Context, lat, lng float64, unit string) ([]*models.TourDistance, error)
	UploadCoverImage(ctx context.Context, tourID uuid.UUID, reader io.Reader, size int64) (string, error)
}

type tourService struct {
	tourRepo repositories.TourRepository
	cache    caching.CacheService
	storage  MinioService
	bucket   string
}

func NewTourService(tourRepo repositories.TourRepository, cache caching.CacheService, storage MinioService, bucket string) TourService {
	return &tourService{
		tourRepo: tourRepo,
		cache:    cache,
		storage:  storage,
		bucket:   bucket,
	}
}

// Slugify lowercases a name and collapses non-alphanumerics to hyphens.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

func validateTour(tour *models.Tour) error {
	if len(tour.Name) < 10 || len(tour.Name) > 40 {
		return common.ValidationFailed("tour name must be between 10 and 40 characters")
	}
	switch tour.Difficulty {
	case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyDifficult:
	default:
		return common.ValidationFailed("difficulty is either easy, medium or difficult")
	}
	if tour.Price <= 0 {
		return common.ValidationFailed("a tour must have a price")
	}
	if tour.PriceDiscount != nil && *tour.PriceDiscount >= tour.Price {
		return common.ValidationFailed("discount price should be below the regular price")
	}
	if tour.Duration <= 0 || tour.MaxGroupSize <= 0 {
		return common.ValidationFailed("a tour must have a duration and a group size")
	}
	if tour.Summary == "" {
		return common.ValidationFailed("a tour must have a summary")
	}
	return nil
}

func (s *tourService) CreateTour(ctx context.Context, tour *models.Tour) error {
	if err := validateTour(tour); err != nil {
		return err
	}
	if tour.ID == uuid.Nil {
		tour.ID = uuid.New()
	}
	tour.Slug = Slugify(tour.Name)
	if tour.RatingsAverage == 0 {
		tour.RatingsAverage = 4.5
	}
	if tour.CoverImage == "" {
		tour.CoverImage = "default-cover.jpg"
	}
	return s.tourRepo.Create(ctx, tour)
}

func (s *tourService) GetTour(ctx context.Context, id uuid.UUID) (*models.Tour, error) {
	if s.cache != nil {
		if tour, err := s.cache.GetTour(ctx, id); err == nil && tour != nil {
			return tour, nil
		}
	}

	tour, err := s.tourRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NotFound("tour")
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetTour(ctx, tour, tourCacheTTL); err != nil {
			log.Printf("failed to cache tour %s: %v", tour.ID, err)
		}
	}
	return tour, nil
}

func (s *tourService) GetTourBySlug(ctx context.Context, slug string) (*models.Tour, error) {
	tour, err := s.tourRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NotFound("tour")
		}
		return nil, err
	}
	return tour, nil
}

func (s *tourService) UpdateTour(ctx context.Context, tour *models.Tour) error {
	if err := validateTour(tour); err != nil {
		return err
	}
	tour.Slug = Slugify(tour.Name)
	if err := s.tourRepo.Update(ctx, tour); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.NotFound("tour")
		}
		return err
	}
	if s.cache != nil {
		if err := s.cache.DeleteTour(ctx, tour.ID); err != nil {
			log.Printf("failed to invalidate tour cache %s: %v", tour.ID, err)
		}
	}
	return nil
}

func (s *tourService) DeleteTour(ctx context.Context, id uuid.UUID) error {
	if err := s.tourRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.NotFound("tour")
		}
		return err
	}
	if s.cache != nil {
		if err := s.cache.DeleteTour(ctx, id); err != nil {
			log.Printf("failed to invalidate tour cache %s: %v", id, err)
		}
	}
	return nil
}

func (s *tourService) ListTours(ctx context.Context, filter *models.TourFilter) ([]*models.Tour, error) {
	if filter == nil {
		filter = &models.TourFilter{}
	}
	return s.tourRepo.List(ctx, filter)
}

// TopTours is the cheap-and-good preset: the five best-rated tours, cheapest
// first among equals.
func (s *tourService) TopTours(ctx context.Context) ([]*models.Tour, error) {
	return s.tourRepo.List(ctx, &models.TourFilter{
		SortBy: "-ratings_average,price",
		Limit:  5,
	})
}

func (s *tourService) Stats(ctx context.Context) ([]*models.TourStats, error) {
	return s.tourRepo.Stats(ctx, 4.5)
}

func (s *tourService) MonthlyPlan(ctx context.Context, year int) ([]*models.MonthlyPlanEntry, error) {
	if year < 2000 || year > 2100 {
		return nil, common.ValidationFailed("year out of range")
	}
	return s.tourRepo.MonthlyPlan(ctx, year)
}

func (s *tourService) ToursWithin(ctx context.Context, lat, lng, distance float64, unit string) ([]*models.Tour, error) {
	radiusKm := distance
	if unit == "mi" {
		radiusKm = distance * 1.609344
	}
	return s.tourRepo.Within(ctx, lat, lng, radiusKm)
}

func (s *tourService) Distances(ctx context.Context, lat, lng float64, unit string) ([]*models.TourDistance, error) {
	distances, err := s.tourRepo.DistancesFrom(ctx, lat, lng)
	if err != nil {
		return nil, err
	}
	if unit == "mi" {
		for _, d := range distances {
			d.Distance /= 1.609344
		}
	}
	return distances, nil
}

// UploadCoverImage stores the image object and records its name on the tour.
func (s *tourService) UploadCoverImage(ctx context.Context, tourID uuid.UUID, reader io.Reader, size int64) (string, error) {
	tour, err := s.GetTour(ctx, tourID)
	if err != nil {
		return "", err
	}

	objectName := fmt.Sprintf("tour-%s-%d-cover.jpeg", tourID, time.Now().Unix())
	if err := s.storage.UploadImage(ctx, s.bucket, objectName, reader, size); err != nil {
		return "", fmt.Errorf("failed to upload cover image: %w", err)
	}

	tour.CoverImage = objectName
	if err := s.UpdateTour(ctx, tour); err != nil {
		return "", err
	}
	return objectName, nil
}
