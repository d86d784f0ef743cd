package services

import (
	"context"
	"io"
	"time"

	"tourbase/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock repositories and collaborators shared by the service test suites.

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmailWithPassword(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByIDWithPassword(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	args := m.Called(ctx, tokenHash, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, changedAt time.Time) error {
	args := m.Called(ctx, id, passwordHash, changedAt)
	return args.Error(0)
}

func (m *MockUserRepository) SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expires time.Time) error {
	args := m.Called(ctx, id, tokenHash, expires)
	return args.Error(0)
}

func (m *MockUserRepository) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepository) PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type MockTourRepository struct {
	mock.Mock
}

func (m *MockTourRepository) Create(ctx context.Context, tour *models.Tour) error {
	args := m.Called(ctx, tour)
	return args.Error(0)
}

func (m *MockTourRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tour, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tour), args.Error(1)
}

func (m *MockTourRepository) GetBySlug(ctx context.Context, slug string) (*models.Tour, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tour), args.Error(1)
}

func (m *MockTourRepository) Update(ctx context.Context, tour *models.Tour) error {
	args := m.Called(ctx, tour)
	return args.Error(0)
}

func (m *MockTourRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTourRepository) List(ctx context.Context, filter *models.TourFilter) ([]*models.Tour, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*models.Tour), args.Error(1)
}

func (m *MockTourRepository) Stats(ctx context.Context, minRating float64) ([]*models.TourStats, error) {
	args := m.Called(ctx, minRating)
	return args.Get(0).([]*models.TourStats), args.Error(1)
}

func (m *MockTourRepository) MonthlyPlan(ctx context.Context, year int) ([]*models.MonthlyPlanEntry, error) {
	args := m.Called(ctx, year)
	return args.Get(0).([]*models.MonthlyPlanEntry), args.Error(1)
}

func (m *MockTourRepository) Within(ctx context.Context, lat, lng, radiusKm float64) ([]*models.Tour, error) {
	args := m.Called(ctx, lat, lng, radiusKm)
	return args.Get(0).([]*models.Tour), args.Error(1)
}

func (m *MockTourRepository) DistancesFrom(ctx context.Context, lat, lng float64) ([]*models.TourDistance, error) {
	args := m.Called(ctx, lat, lng)
	return args.Get(0).([]*models.TourDistance), args.Error(1)
}

func (m *MockTourRepository) UpdateRatingStats(ctx context.Context, id uuid.UUID, quantity int, average float64) error {
	args := m.Called(ctx, id, quantity, average)
	return args.Error(0)
}

type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Create(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewRepository) Update(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReviewRepository) ListByTour(ctx context.Context, tourID uuid.UUID, limit, offset int) ([]*models.Review, error) {
	args := m.Called(ctx, tourID, limit, offset)
	return args.Get(0).([]*models.Review), args.Error(1)
}

func (m *MockReviewRepository) List(ctx context.Context, limit, offset int) ([]*models.Review, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*models.Review), args.Error(1)
}

func (m *MockReviewRepository) RatingStats(ctx context.Context, tourID uuid.UUID) (*models.RatingStats, error) {
	args := m.Called(ctx, tourID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RatingStats), args.Error(1)
}

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) CreateFromCheckout(ctx context.Context, booking *models.Booking) (bool, error) {
	args := m.Called(ctx, booking)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingRepository) Update(ctx context.Context, booking *models.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBookingRepository) List(ctx context.Context, limit, offset int) ([]*models.Booking, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*models.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Booking, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*models.Booking), args.Error(1)
}

type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) IssueSessionToken(userID uuid.UUID) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) VerifySessionToken(token string) (*SessionClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SessionClaims), args.Error(1)
}

func (m *MockTokenService) NewPasswordResetSecret() (string, string, time.Time, error) {
	args := m.Called()
	return args.String(0), args.String(1), args.Get(2).(time.Time), args.Error(3)
}

func (m *MockTokenService) HashResetSecret(plain string) string {
	args := m.Called(plain)
	return args.String(0)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendWelcome(user *models.User, url string) error {
	args := m.Called(user, url)
	return args.Error(0)
}

func (m *MockMailer) SendPasswordReset(user *models.User, resetURL string) error {
	args := m.Called(user, resetURL)
	return args.Error(0)
}

type MockStripeService struct {
	mock.Mock
}

func (m *MockStripeService) CreateCheckoutSession(ctx context.Context, tour *models.Tour, user *models.User, host string) (*CheckoutSession, error) {
	args := m.Called(ctx, tour, user, host)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CheckoutSession), args.Error(1)
}

func (m *MockStripeService) VerifyWebhookSignature(payload []byte, signature string) bool {
	args := m.Called(payload, signature)
	return args.Bool(0)
}

func (m *MockStripeService) ParseWebhookEvent(payload []byte) (*WebhookEvent, error) {
	args := m.Called(payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*WebhookEvent), args.Error(1)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetTour(ctx context.Context, tourID uuid.UUID) (*models.Tour, error) {
	args := m.Called(ctx, tourID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tour), args.Error(1)
}

func (m *MockCacheService) SetTour(ctx context.Context, tour *models.Tour, ttl time.Duration) error {
	args := m.Called(ctx, tour, ttl)
	return args.Error(0)
}

func (m *MockCacheService) DeleteTour(ctx context.Context, tourID uuid.UUID) error {
	args := m.Called(ctx, tourID)
	return args.Error(0)
}

func (m *MockCacheService) InvalidateTours(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCacheService) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheService) GetString(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheService) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

type MockMinioService struct {
	mock.Mock
}

func (m *MockMinioService) UploadImage(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64) error {
	args := m.Called(ctx, bucketName, objectName, reader, objectSize)
	return args.Error(0)
}

func (m *MockMinioService) GetPresignedURL(ctx context.Context, bucketName, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, bucketName, objectName, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockMinioService) DeleteImage(ctx context.Context, bucketName, objectName string) error {
	args := m.Called(ctx, bucketName, objectName)
	return args.Error(0)
}

func (m *MockMinioService) EnsureBucketExists(ctx context.Context, bucketName string) error {
	args := m.Called(ctx, bucketName)
	return args.Error(0)
}
