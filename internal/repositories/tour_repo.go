package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"tourbase/internal/common"
	"tourbase/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type TourRepository interface {
	Create(ctx context.Context, tour *models.Tour) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tour, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tour, error)
	Update(ctx context.Context, tour *models.Tour) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *models.TourFilter) ([]*models.Tour, error)
	Stats(ctx context.Context, minRating float64) ([]*models.TourStats, error)
	MonthlyPlan(ctx context.Context, year int) ([]*models.MonthlyPlanEntry, error)
	Within(ctx context.Context, lat, lng, radiusKm float64) ([]*models.Tour, error)
	DistancesFrom(ctx context.Context, lat, lng float64) ([]*models.TourDistance, error)
	UpdateRatingStats(ctx context.Context, id uuid.UUID, quantity int, average float64) error
}

type tourRepo struct {
	db DB
}

func NewTourRepo(db DB) TourRepository {
	return &tourRepo{db: db}
}

const tourColumns = `id, name, slug, duration, max_group_size, difficulty, ratings_average,
	ratings_quantity, price, price_discount, summary, description, cover_image, images,
	start_dates, secret, start_location, locations, guide_ids, created_at, updated_at`

func (r *tourRepo) Create(ctx context.Context, tour *models.Tour) error {
	startLocation, locations, err := marshalLocations(tour)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO tours (id, name, slug, duration, max_group_size, difficulty, ratings_average,
			ratings_quantity, price, price_discount, summary, description, cover_image, images,
			start_dates, secret, start_location, locations, guide_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, NOW(), NOW())
	`
	_, err = r.db.Exec(ctx, query, tour.ID, tour.Name, tour.Slug, tour.Duration, tour.MaxGroupSize,
		tour.Difficulty, tour.RatingsAverage, tour.RatingsQuantity, tour.Price, tour.PriceDiscount,
		tour.Summary, tour.Description, tour.CoverImage, tour.Images, tour.StartDates, tour.Secret,
		startLocation, locations, tour.GuideIDs)
	if err != nil {
		return fmt.Errorf("failed to create tour: %w", err)
	}
	return nil
}

func marshalLocations(tour *models.Tour) ([]byte, []byte, error) {
	var startLocation []byte
	if tour.StartLocation != nil {
		b, err := json.Marshal(tour.StartLocation)
		if err != nil {
			return nil, nil, err
		}
		startLocation = b
	}
	locations, err := json.Marshal(tour.Locations)
	if err != nil {
		return nil, nil, err
	}
	return startLocation, locations, nil
}

func scanTour(row pgx.Row) (*models.Tour, error) {
	tour := &models.Tour{}
	var startLocation, locations []byte
	err := row.Scan(&tour.ID, &tour.Name, &tour.Slug, &tour.Duration, &tour.MaxGroupSize,
		&tour.Difficulty, &tour.RatingsAverage, &tour.RatingsQuantity, &tour.Price, &tour.PriceDiscount,
		&tour.Summary, &tour.Description, &tour.CoverImage, &tour.Images, &tour.StartDates,
		&tour.Secret, &startLocation, &locations, &tour.GuideIDs, &tour.CreatedAt, &tour.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	if len(startLocation) > 0 {
		tour.StartLocation = &models.Location{}
		if err := json.Unmarshal(startLocation, tour.StartLocation); err != nil {
			return nil, err
		}
	}
	if len(locations) > 0 {
		if err := json.Unmarshal(locations, &tour.Locations); err != nil {
			return nil, err
		}
	}
	return tour, nil
}

func (r *tourRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tour, error) {
	query := `SELECT ` + tourColumns + ` FROM tours WHERE id = $1`
	return scanTour(r.db.QueryRow(ctx, query, id))
}

func (r *tourRepo) GetBySlug(ctx context.Context, slug string) (*models.Tour, error) {
	query := `SELECT ` + tourColumns + ` FROM tours WHERE slug = $1 AND NOT secret`
	return scanTour(r.db.QueryRow(ctx, query, slug))
}

func (r *tourRepo) Update(ctx context.Context, tour *models.Tour) error {
	startLocation, locations, err := marshalLocations(tour)
	if err != nil {
		return err
	}
	query := `
		UPDATE tours
		SET name = $1, slug = $2, duration = $3, max_group_size = $4, difficulty = $5,
			price = $6, price_discount = $7, summary = $8, description = $9, cover_image = $10,
			images = $11, start_dates = $12, secret = $13, start_location = $14, locations = $15,
			guide_ids = $16, updated_at = NOW()
		WHERE id = $17
	`
	tag, err := r.db.Exec(ctx, query, tour.Name, tour.Slug, tour.Duration, tour.MaxGroupSize,
		tour.Difficulty, tour.Price, tour.PriceDiscount, tour.Summary, tour.Description,
		tour.CoverImage, tour.Images, tour.StartDates, tour.Secret, startLocation, locations,
		tour.GuideIDs, tour.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *tourRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tours WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

// sortColumns whitelists client-supplied sort keys.
var sortColumns = map[string]string{
	"price":           "price",
	"ratings_average": "ratings_average",
	"duration":        "duration",
	"created_at":      "created_at",
	"name":            "name",
}

func (r *tourRepo) List(ctx context.Context, filter *models.TourFilter) ([]*models.Tour, error) {
	var conditions []string
	var args []any
	conditions = append(conditions, "NOT secret")

	if filter.Difficulty != nil {
		args = append(args, *filter.Difficulty)
		conditions = append(conditions, fmt.Sprintf("difficulty = $%d", len(args)))
	}
	if filter.MaxPrice != nil {
		args = append(args, *filter.MaxPrice)
		conditions = append(conditions, fmt.Sprintf("price <= $%d", len(args)))
	}
	if filter.MinRating != nil {
		args = append(args, *filter.MinRating)
		conditions = append(conditions, fmt.Sprintf("ratings_average >= $%d", len(args)))
	}

	orderBy := "created_at DESC"
	if filter.SortBy != "" {
		var clauses []string
		for _, key := range strings.Split(filter.SortBy, ",") {
			key = strings.TrimSpace(key)
			direction := "ASC"
			if strings.HasPrefix(key, "-") {
				key = key[1:]
				direction = "DESC"
			}
			if col, ok := sortColumns[key]; ok {
				clauses = append(clauses, col+" "+direction)
			}
		}
		if len(clauses) > 0 {
			orderBy = strings.Join(clauses, ", ")
		}
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	args = append(args, limit, filter.Offset)

	query := fmt.Sprintf(`SELECT %s FROM tours WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		tourColumns, strings.Join(conditions, " AND "), orderBy, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tours []*models.Tour
	for rows.Next() {
		tour, err := scanTour(rows)
		if err != nil {
			return nil, err
		}
		tours = append(tours, tour)
	}
	return tours, rows.Err()
}

func (r *tourRepo) Stats(ctx context.Context, minRating float64) ([]*models.TourStats, error) {
	query := `
		SELECT UPPER(difficulty), COUNT(*), COALESCE(SUM(ratings_quantity), 0),
			COALESCE(AVG(ratings_average), 0), COALESCE(AVG(price), 0),
			COALESCE(MIN(price), 0), COALESCE(MAX(price), 0)
		FROM tours
		WHERE ratings_average >= $1
		GROUP BY UPPER(difficulty)
		ORDER BY AVG(price)
	`
	rows, err := r.db.Query(ctx, query, minRating)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []*models.TourStats
	for rows.Next() {
		s := &models.TourStats{}
		if err := rows.Scan(&s.Difficulty, &s.NumTours, &s.NumRatings, &s.AvgRating,
			&s.AvgPrice, &s.MinPrice, &s.MaxPrice); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func (r *tourRepo) MonthlyPlan(ctx context.Context, year int) ([]*models.MonthlyPlanEntry, error) {
	query := `
		SELECT EXTRACT(MONTH FROM d)::int AS month, COUNT(*), ARRAY_AGG(name)
		FROM tours, UNNEST(start_dates) AS d
		WHERE EXTRACT(YEAR FROM d) = $1
		GROUP BY month
		ORDER BY COUNT(*) DESC
		LIMIT 12
	`
	rows, err := r.db.Query(ctx, query, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plan []*models.MonthlyPlanEntry
	for rows.Next() {
		entry := &models.MonthlyPlanEntry{}
		if err := rows.Scan(&entry.Month, &entry.NumTours, &entry.Tours); err != nil {
			return nil, err
		}
		plan = append(plan, entry)
	}
	return plan, rows.Err()
}

// Within finds tours whose start location falls inside a radius, using the
// haversine distance in kilometers.
func (r *tourRepo) Within(ctx context.Context, lat, lng, radiusKm float64) ([]*models.Tour, error) {
	query := `
		SELECT ` + tourColumns + `
		FROM tours
		WHERE NOT secret
		  AND start_location IS NOT NULL
		  AND 6371 * acos(least(1.0,
				cos(radians($1)) * cos(radians((start_location->>'lat')::float8)) *
				cos(radians((start_location->>'lng')::float8) - radians($2)) +
				sin(radians($1)) * sin(radians((start_location->>'lat')::float8))
			)) <= $3
	`
	rows, err := r.db.Query(ctx, query, lat, lng, radiusKm)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tours []*models.Tour
	for rows.Next() {
		tour, err := scanTour(rows)
		if err != nil {
			return nil, err
		}
		tours = append(tours, tour)
	}
	return tours, rows.Err()
}

// DistancesFrom returns every visible tour with its haversine distance in
// kilometers from the given point, nearest first.
func (r *tourRepo) DistancesFrom(ctx context.Context, lat, lng float64) ([]*models.TourDistance, error) {
	query := `
		SELECT id, name,
			6371 * acos(least(1.0,
				cos(radians($1)) * cos(radians((start_location->>'lat')::float8)) *
				cos(radians((start_location->>'lng')::float8) - radians($2)) +
				sin(radians($1)) * sin(radians((start_location->>'lat')::float8))
			)) AS distance
		FROM tours
		WHERE NOT secret AND start_location IS NOT NULL
		ORDER BY distance
	`
	rows, err := r.db.Query(ctx, query, lat, lng)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var distances []*models.TourDistance
	for rows.Next() {
		d := &models.TourDistance{}
		if err := rows.Scan(&d.ID, &d.Name, &d.Distance); err != nil {
			return nil, err
		}
		distances = append(distances, d)
	}
	return distances, rows.Err()
}

func (r *tourRepo) UpdateRatingStats(ctx context.Context, id uuid.UUID, quantity int, average float64) error {
	query := `
		UPDATE tours
		SET ratings_quantity = $1, ratings_average = ROUND($2::numeric, 1), updated_at = NOW()
		WHERE id = $3
	`
	tag, err := r.db.Exec(ctx, query, quantity, average, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}
