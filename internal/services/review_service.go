package services

import (
	"context"
	"errors"
	"log"

	"tourbase/internal/common"
	"tourbase/internal/models"
	"tourbase/internal/repositories"

	"github.com/google/uuid"
)

type ReviewService interface {
	CreateReview(ctx context.Context, review *models.Review) error
	GetReview(ctx context.Context, id uuid.UUID) (*models.Review, error)
	UpdateReview(ctx context.Context, id uuid.UUID, actor *models.User, text string, rating int) (*models.Review, error)
	DeleteReview(ctx context.Context, id uuid.UUID, actor *models.User) error
	ListReviews(ctx context.Context, limit, offset int) ([]*models.Review, error)
	ListTourReviews(ctx context.Context, tourID uuid.UUID, limit, offset int) ([]*models.Review, error)
}

type reviewService struct {
	reviewRepo repositories.ReviewRepository
	tourRepo   repositories.TourRepository
}

func NewReviewService(reviewRepo repositories.ReviewRepository, tourRepo repositories.TourRepository) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		tourRepo:   tourRepo,
	}
}

func validateReview(text string, rating int) error {
	if text == "" {
		return common.ValidationFailed("review can not be empty")
	}
	if rating < 1 || rating > 5 {
		return common.ValidationFailed("rating must be between 1 and 5")
	}
	return nil
}

func (s *reviewService) CreateReview(ctx context.Context, review *models.Review) error {
	if err := validateReview(review.Review, review.Rating); err != nil {
		return err
	}
	if _, err := s.tourRepo.GetByID(ctx, review.TourID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.NotFound("tour")
		}
		return err
	}

	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return err
	}

	s.recalcTourRatings(ctx, review.TourID)
	return nil
}

func (s *reviewService) GetReview(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NotFound("review")
		}
		return nil, err
	}
	return review, nil
}

// UpdateReview allows the author or an admin to edit.
func (s *reviewService) UpdateReview(ctx context.Context, id uuid.UUID, actor *models.User, text string, rating int) (*models.Review, error) {
	if err := validateReview(text, rating); err != nil {
		return nil, err
	}

	review, err := s.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.UserID != actor.ID && actor.Role != models.RoleAdmin {
		return nil, common.Forbidden("you can only edit your own reviews")
	}

	review.Review = text
	review.Rating = rating
	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, err
	}

	s.recalcTourRatings(ctx, review.TourID)
	return review, nil
}

func (s *reviewService) DeleteReview(ctx context.Context, id uuid.UUID, actor *models.User) error {
	review, err := s.GetReview(ctx, id)
	if err != nil {
		return err
	}
	if review.UserID != actor.ID && actor.Role != models.RoleAdmin {
		return common.Forbidden("you can only delete your own reviews")
	}

	if err := s.reviewRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.recalcTourRatings(ctx, review.TourID)
	return nil
}

func (s *reviewService) ListReviews(ctx context.Context, limit, offset int) ([]*models.Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.reviewRepo.List(ctx, limit, offset)
}

func (s *reviewService) ListTourReviews(ctx context.Context, tourID uuid.UUID, limit, offset int) ([]*models.Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.reviewRepo.ListByTour(ctx, tourID, limit, offset)
}

// recalcTourRatings writes the review aggregate back onto the tour. With no
// reviews left the tour falls back to the 4.5 default with zero quantity.
func (s *reviewService) recalcTourRatings(ctx context.Context, tourID uuid.UUID) {
	stats, err := s.reviewRepo.RatingStats(ctx, tourID)
	if err != nil {
		log.Printf("failed to compute rating stats for tour %s: %v", tourID, err)
		return
	}

	average := stats.Average
	if stats.Quantity == 0 {
		average = 4.5
	}
	if err := s.tourRepo.UpdateRatingStats(ctx, tourID, stats.Quantity, average); err != nil {
		log.Printf("failed to update rating stats for tour %s: %v", tourID, err)
	}
}
