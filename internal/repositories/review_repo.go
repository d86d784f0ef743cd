package repositories

import (
	"context"
	"errors"
	"fmt"

	"tourbase/internal/common"
	"tourbase/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByTour(ctx context.Context, tourID uuid.UUID, limit, offset int) ([]*models.Review, error)
	List(ctx context.Context, limit, offset int) ([]*models.Review, error)
	RatingStats(ctx context.Context, tourID uuid.UUID) (*models.RatingStats, error)
}

type reviewRepo struct {
	db DB
}

func NewReviewRepo(db DB) ReviewRepository {
	return &reviewRepo{db: db}
}

func (r *reviewRepo) Create(ctx context.Context, review *models.Review) error {
	query := `
		INSERT INTO reviews (id, review, rating, tour_id, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	_, err := r.db.Exec(ctx, query, review.ID, review.Review, review.Rating, review.TourID, review.UserID)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (r *reviewRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	review := &models.Review{}
	query := `SELECT id, review, rating, tour_id, user_id, created_at FROM reviews WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(&review.ID, &review.Review, &review.Rating,
		&review.TourID, &review.UserID, &review.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return review, nil
}

func (r *reviewRepo) Update(ctx context.Context, review *models.Review) error {
	query := `UPDATE reviews SET review = $1, rating = $2 WHERE id = $3`
	tag, err := r.db.Exec(ctx, query, review.Review, review.Rating, review.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *reviewRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *reviewRepo) ListByTour(ctx context.Context, tourID uuid.UUID, limit, offset int) ([]*models.Review, error) {
	query := `
		SELECT id, review, rating, tour_id, user_id, created_at
		FROM reviews
		WHERE tour_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	return r.queryReviews(ctx, query, tourID, limit, offset)
}

func (r *reviewRepo) List(ctx context.Context, limit, offset int) ([]*models.Review, error) {
	query := `
		SELECT id, review, rating, tour_id, user_id, created_at
		FROM reviews
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	return r.queryReviews(ctx, query, limit, offset)
}

func (r *reviewRepo) queryReviews(ctx context.Context, query string, args ...any) ([]*models.Review, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []*models.Review
	for rows.Next() {
		review := &models.Review{}
		if err := rows.Scan(&review.ID, &review.Review, &review.Rating,
			&review.TourID, &review.UserID, &review.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

func (r *reviewRepo) RatingStats(ctx context.Context, tourID uuid.UUID) (*models.RatingStats, error) {
	stats := &models.RatingStats{}
	query := `SELECT COUNT(*), COALESCE(AVG(rating), 0) FROM reviews WHERE tour_id = $1`
	err := r.db.QueryRow(ctx, query, tourID).Scan(&stats.Quantity, &stats.Average)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
