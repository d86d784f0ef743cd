package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"tourbase/internal/common"
	"tourbase/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type BookingServiceTestSuite struct {
	suite.Suite
	mockBookingRepo *MockBookingRepository
	mockTourRepo    *MockTourRepository
	mockUserRepo    *MockUserRepository
	mockStripe      *MockStripeService
	mockCache       *MockCacheService
	service         BookingService
	ctx             context.Context
}

func (suite *BookingServiceTestSuite) SetupTest() {
	suite.mockBookingRepo = &MockBookingRepository{}
	suite.mockTourRepo = &MockTourRepository{}
	suite.mockUserRepo = &MockUserRepository{}
	suite.mockStripe = &MockStripeService{}
	suite.mockCache = &MockCacheService{}
	suite.service = NewBookingService(suite.mockBookingRepo, suite.mockTourRepo,
		suite.mockUserRepo, suite.mockStripe, suite.mockCache)
	suite.ctx = context.Background()
}

func (suite *BookingServiceTestSuite) TearDownTest() {
	suite.mockBookingRepo.AssertExpectations(suite.T())
	suite.mockTourRepo.AssertExpectations(suite.T())
	suite.mockUserRepo.AssertExpectations(suite.T())
	suite.mockStripe.AssertExpectations(suite.T())
	suite.mockCache.AssertExpectations(suite.T())
}

func TestBookingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(BookingServiceTestSuite))
}

func (suite *BookingServiceTestSuite) completedEvent(tourID uuid.UUID, email string, amountTotal int64) ([]byte, *WebhookEvent) {
	event := &WebhookEvent{
		ID:   "evt_1",
		Type: EventCheckoutCompleted,
	}
	event.Data.Object = CheckoutSession{
		ID:                "cs_test_1",
		ClientReferenceID: tourID.String(),
		CustomerEmail:     email,
		AmountTotal:       amountTotal,
	}
	payload, err := json.Marshal(event)
	suite.Require().NoError(err)
	return payload, event
}

func (suite *BookingServiceTestSuite) TestHandleWebhookEvent_MissingSignature() {
	_, err := suite.service.HandleWebhookEvent(suite.ctx, []byte(`{}`), "")
	suite.Require().Error(err)

	var appErr *common.AppError
	suite.Require().ErrorAs(err, &appErr)
	suite.Equal("UNAUTHENTICATED_EVENT", appErr.Code)

	// An unauthenticated delivery must never touch the store.
	suite.mockBookingRepo.AssertNotCalled(suite.T(), "CreateFromCheckout", mock.Anything, mock.Anything)
}

func (suite *BookingServiceTestSuite) TestHandleWebhookEvent_InvalidSignature() {
	payload := []byte(`{"type":"checkout.session.completed"}`)
	suite.mockStripe.On("VerifyWebhookSignature", payload, "bad-sig").Return(false)

	_, err := suite.service.HandleWebhookEvent(suite.ctx, payload, "bad-sig")
	suite.Require().Error(err)

	var appErr *common.AppError
	suite.Require().ErrorAs(err, &appErr)
	suite.Equal("UNAUTHENTICATED_EVENT", appErr.Code)
	suite.mockBookingRepo.AssertNotCalled(suite.T(), "CreateFromCheckout", mock.Anything, mock.Anything)
}

func (suite *BookingServiceTestSuite) TestHandleWebhookEvent_CompletedCheckoutCreatesBooking() {
	tourID := uuid.New()
	userID := uuid.New()
	payload, event := suite.completedEvent(tourID, "u@example.com", 19900)

	suite.mockStripe.On("VerifyWebhookSignature", payload, "good-sig").Return(true)
	suite.mockStripe.On("ParseWebhookEvent", payload).Return(event, nil)
	suite.mockCache.On("GetString", suite.ctx, "tourbase:webhook:session:cs_test_1").Return("", nil)
	suite.mockTourRepo.On("GetByID", suite.ctx, tourID).Return(&models.Tour{ID: tourID}, nil)
	suite.mockUserRepo.On("GetByEmail", suite.ctx, "u@example.com").
		Return(&models.User{ID: userID, Email: "u@example.com"}, nil)
	suite.mockBookingRepo.On("CreateFromCheckout", suite.ctx, mock.MatchedBy(func(b *models.Booking) bool {
		return b.TourID == tourID &&
			b.UserID == userID &&
			b.Price == 199.00 && // 19900 minor units
			b.SessionID == "cs_test_1" &&
			b.Paid
	})).Return(true, nil)
	suite.mockCache.On("SetString", suite.ctx, "tourbase:webhook:session:cs_test_1", "done",
		seenEventTTL).Return(nil)

	eventType, err := suite.service.HandleWebhookEvent(suite.ctx, payload, "good-sig")
	suite.Require().NoError(err)
	suite.Equal(EventCheckoutCompleted, eventType)
	suite.mockBookingRepo.AssertNumberOfCalls(suite.T(), "CreateFromCheckout", 1)
}

// Other event kinds are acknowledged without touching the store.
func (suite *BookingServiceTestSuite) TestHandleWebhookEvent_IgnoresOtherEventKinds() {
	event := &WebhookEvent{ID: "evt_2", Type: "payment_intent.created"}
	payload, err := json.Marshal(event)
	suite.Require().NoError(err)

	suite.mockStripe.On("VerifyWebhookSignature", payload, "good-sig").Return(true)
	suite.mockStripe.On("ParseWebhookEvent", payload).Return(event, nil)

	eventType, err := suite.service.HandleWebhookEvent(suite.ctx, payload, "good-sig")
	suite.Require().NoError(err)
	suite.Equal("payment_intent.created", eventType)
	suite.mockBookingRepo.AssertNotCalled(suite.T(), "CreateFromCheckout", mock.Anything, mock.Anything)
}

// A session already seen in the dedup cache is skipped before any lookups.
func (suite *BookingServiceTestSuite) TestHandleWebhookEvent_RedeliverySkippedByCache() {
	tourID := uuid.New()
	payload, event := suite.completedEvent(tourID, "u@example.com", 19900)

	suite.mockStripe.On("VerifyWebhookSignature", payload, "good-sig").Return(true)
	suite.mockStripe.On("ParseWebhookEvent", payload).Return(event, nil)
	suite.mockCache.On("GetString", suite.ctx, "tourbase:webhook:session:cs_test_1").Return("done", nil)

	_, err := suite.service.HandleWebhookEvent(suite.ctx, payload, "good-sig")
	suite.Require().NoError(err)
	suite.mockBookingRepo.AssertNotCalled(suite.T(), "CreateFromCheckout", mock.Anything, mock.Anything)
	suite.mockUserRepo.AssertNotCalled(suite.T(), "GetByEmail", mock.Anything, mock.Anything)
}

// When the cache misses the redelivery, the unique session index still
// collapses it; an already-existing row is not an error.
func (suite *BookingServiceTestSuite) TestHandleWebhookEvent_RedeliveryCollapsedByUniqueIndex() {
	tourID := uuid.New()
	userID := uuid.New()
	payload, event := suite.completedEvent(tourID, "u@example.com", 19900)

	suite.mockStripe.On("VerifyWebhookSignature", payload, "good-sig").Return(true)
	suite.mockStripe.On("ParseWebhookEvent", payload).Return(event, nil)
	suite.mockCache.On("GetString", suite.ctx, "tourbase:webhook:session:cs_test_1").Return("", nil)
	suite.mockTourRepo.On("GetByID", suite.ctx, tourID).Return(&models.Tour{ID: tourID}, nil)
	suite.mockUserRepo.On("GetByEmail", suite.ctx, "u@example.com").
		Return(&models.User{ID: userID}, nil)
	suite.mockBookingRepo.On("CreateFromCheckout", suite.ctx, mock.AnythingOfType("*models.Booking")).
		Return(false, nil)
	suite.mockCache.On("SetString", suite.ctx, "tourbase:webhook:session:cs_test_1", "done",
		seenEventTTL).Return(nil)

	_, err := suite.service.HandleWebhookEvent(suite.ctx, payload, "good-sig")
	suite.NoError(err)
}

// A delivery that fails at the booking write must leave no dedup marker
// behind, so the provider's retry can still create the booking.
func (suite *BookingServiceTestSuite) TestHandleWebhookEvent_FailedWriteLeavesRetryOpen() {
	tourID := uuid.New()
	userID := uuid.New()
	payload, event := suite.completedEvent(tourID, "u@example.com", 19900)

	suite.mockStripe.On("VerifyWebhookSignature", payload, "good-sig").Return(true)
	suite.mockStripe.On("ParseWebhookEvent", payload).Return(event, nil)
	suite.mockCache.On("GetString", suite.ctx, "tourbase:webhook:session:cs_test_1").Return("", nil)
	suite.mockTourRepo.On("GetByID", suite.ctx, tourID).Return(&models.Tour{ID: tourID}, nil)
	suite.mockUserRepo.On("GetByEmail", suite.ctx, "u@example.com").
		Return(&models.User{ID: userID}, nil)
	suite.mockBookingRepo.On("CreateFromCheckout", suite.ctx, mock.AnythingOfType("*models.Booking")).
		Return(false, errors.New("db connection reset")).Once()
	suite.mockBookingRepo.On("CreateFromCheckout", suite.ctx, mock.AnythingOfType("*models.Booking")).
		Return(true, nil).Once()
	suite.mockCache.On("SetString", suite.ctx, "tourbase:webhook:session:cs_test_1", "done",
		seenEventTTL).Return(nil).Once()

	// First delivery fails at the write and must not be marked as seen.
	_, err := suite.service.HandleWebhookEvent(suite.ctx, payload, "good-sig")
	suite.Require().Error(err)
	suite.mockCache.AssertNotCalled(suite.T(), "SetString",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	// The retry goes all the way through and commits the booking.
	_, err = suite.service.HandleWebhookEvent(suite.ctx, payload, "good-sig")
	suite.Require().NoError(err)
	suite.mockBookingRepo.AssertNumberOfCalls(suite.T(), "CreateFromCheckout", 2)
	suite.mockCache.AssertNumberOfCalls(suite.T(), "SetString", 1)
}

func (suite *BookingServiceTestSuite) TestHandleWebhookEvent_UnknownTour() {
	tourID := uuid.New()
	payload, event := suite.completedEvent(tourID, "u@example.com", 19900)

	suite.mockStripe.On("VerifyWebhookSignature", payload, "good-sig").Return(true)
	suite.mockStripe.On("ParseWebhookEvent", payload).Return(event, nil)
	suite.mockCache.On("GetString", suite.ctx, "tourbase:webhook:session:cs_test_1").Return("", nil)
	suite.mockTourRepo.On("GetByID", suite.ctx, tourID).Return(nil, common.ErrNotFound)

	_, err := suite.service.HandleWebhookEvent(suite.ctx, payload, "good-sig")
	suite.ErrorIs(err, common.ErrNotFound)
	suite.mockBookingRepo.AssertNotCalled(suite.T(), "CreateFromCheckout", mock.Anything, mock.Anything)
}

func (suite *BookingServiceTestSuite) TestCreateCheckoutSession() {
	tourID := uuid.New()
	tour := &models.Tour{ID: tourID, Name: "The Forest Hiker", Price: 199}
	user := &models.User{ID: uuid.New(), Email: "u@example.com"}
	session := &CheckoutSession{ID: "cs_test_1", URL: "https://checkout.example.com/cs_test_1"}

	suite.mockTourRepo.On("GetByID", suite.ctx, tourID).Return(tour, nil)
	suite.mockStripe.On("CreateCheckoutSession", suite.ctx, tour, user, "example.com").Return(session, nil)

	got, err := suite.service.CreateCheckoutSession(suite.ctx, tourID, user, "example.com")
	suite.Require().NoError(err)
	suite.Equal("cs_test_1", got.ID)
}
