package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tourbase/internal/caching"
	"tourbase/internal/common"
	"tourbase/internal/models"
	"tourbase/internal/repositories"

	"github.com/google/uuid"
)

// seenEventTTL bounds the Redis dedup window for webhook redeliveries. The
// database unique index on session_id is the real guarantee; this only spares
// a round trip for fast retries.
const seenEventTTL = 24 * time.Hour

// BookingService turns verified payment events into bookings and exposes the
// booking CRUD surface.
type BookingService interface {
	// HandleWebhookEvent authenticates and dispatches a raw webhook delivery.
	// The booking write is awaited; callers may only acknowledge after a nil
	// return. The returned string is the event type that was handled.
	HandleWebhookEvent(ctx context.Context, payload []byte, signature string) (string, error)
	CreateCheckoutSession(ctx context.Context, tourID uuid.UUID, user *models.User, host string) (*CheckoutSession, error)
	GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	ListBookings(ctx context.Context, limit, offset int) ([]*models.Booking, error)
	ListUserBookings(ctx context.Context, userID uuid.UUID) ([]*models.Booking, error)
	UpdateBooking(ctx context.Context, booking *models.Booking) error
	DeleteBooking(ctx context.Context, id uuid.UUID) error
}

type bookingService struct {
	bookingRepo repositories.BookingRepository
	tourRepo    repositories.TourRepository
	userRepo    repositories.UserRepository
	stripe      StripeService
	cache       caching.CacheService
}

func NewBookingService(
	bookingRepo repositories.BookingRepository,
	tourRepo repositories.TourRepository,
	userRepo repositories.UserRepository,
	stripe StripeService,
	cache caching.CacheService,
) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		tourRepo:    tourRepo,
		userRepo:    userRepo,
		stripe:      stripe,
		cache:       cache,
	}
}

func (s *bookingService) HandleWebhookEvent(ctx context.Context, payload []byte, signature string) (string, error) {
	if signature == "" {
		return "", common.UnauthenticatedEvent("missing webhook signature")
	}
	if !s.stripe.VerifyWebhookSignature(payload, signature) {
		return "", common.UnauthenticatedEvent("invalid webhook signature")
	}

	event, err := s.stripe.ParseWebhookEvent(payload)
	if err != nil {
		return "", common.UnauthenticatedEvent("malformed webhook payload").WithCause(err)
	}

	// Only completed checkouts create bookings; everything else is
	// acknowledged without action.
	if event.Type != EventCheckoutCompleted {
		return event.Type, nil
	}

	if err := s.createBookingFromCheckout(ctx, &event.Data.Object); err != nil {
		return event.Type, err
	}
	return event.Type, nil
}

func (s *bookingService) createBookingFromCheckout(ctx context.Context, session *CheckoutSession) error {
	dedupKey := "tourbase:webhook:session:" + session.ID

	// Fast path: skip sessions already reconciled. The marker is written only
	// after the booking row is durable, so a delivery that fails mid-flight
	// never blocks the provider's retries. Best effort only; the unique index
	// below is authoritative.
	if s.cache != nil {
		if val, err := s.cache.GetString(ctx, dedupKey); err == nil && val != "" {
			log.Printf("webhook: checkout session %s already processed, skipping", session.ID)
			return nil
		}
	}

	tourID, err := uuid.Parse(session.ClientReferenceID)
	if err != nil {
		return common.ValidationFailed("checkout session carries an invalid tour reference")
	}
	if _, err := s.tourRepo.GetByID(ctx, tourID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.NotFound("tour")
		}
		return err
	}

	user, err := s.userRepo.GetByEmail(ctx, session.CustomerEmail)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.NotFound("user")
		}
		return err
	}

	booking := &models.Booking{
		ID:        uuid.New(),
		TourID:    tourID,
		UserID:    user.ID,
		Price:     float64(session.AmountTotal) / 100, // minor units to major
		SessionID: session.ID,
		Paid:      true,
	}

	created, err := s.bookingRepo.CreateFromCheckout(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to persist booking for session %s: %w", session.ID, err)
	}
	if !created {
		log.Printf("webhook: booking for checkout session %s already exists", session.ID)
	}

	// The booking row exists either way, so redeliveries can short-circuit.
	if s.cache != nil {
		if err := s.cache.SetString(ctx, dedupKey, "done", seenEventTTL); err != nil {
			log.Printf("webhook: failed to mark session %s as reconciled: %v", session.ID, err)
		}
	}
	return nil
}

func (s *bookingService) CreateCheckoutSession(ctx context.Context, tourID uuid.UUID, user *models.User, host string) (*CheckoutSession, error) {
	tour, err := s.tourRepo.GetByID(ctx, tourID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NotFound("tour")
		}
		return nil, err
	}
	return s.stripe.CreateCheckoutSession(ctx, tour, user, host)
}

func (s *bookingService) GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NotFound("booking")
		}
		return nil, err
	}
	return booking, nil
}

func (s *bookingService) ListBookings(ctx context.Context, limit, offset int) ([]*models.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.bookingRepo.List(ctx, limit, offset)
}

func (s *bookingService) ListUserBookings(ctx context.Context, userID uuid.UUID) ([]*models.Booking, error) {
	return s.bookingRepo.ListByUser(ctx, userID)
}

func (s *bookingService) UpdateBooking(ctx context.Context, booking *models.Booking) error {
	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.NotFound("booking")
		}
		return err
	}
	return nil
}

func (s *bookingService) DeleteBooking(ctx context.Context, id uuid.UUID) error {
	if err := s.bookingRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.NotFound("booking")
		}
		return err
	}
	return nil
}
