package services

import (
	"context"
	"testing"

	"tourbase/internal/common"
	"tourbase/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type ReviewServiceTestSuite struct {
	suite.Suite
	mockReviewRepo *MockReviewRepository
	mockTourRepo   *MockTourRepository
	service        ReviewService
	ctx            context.Context
}

func (suite *ReviewServiceTestSuite) SetupTest() {
	suite.mockReviewRepo = &MockReviewRepository{}
	suite.mockTourRepo = &MockTourRepository{}
	suite.service = NewReviewService(suite.mockReviewRepo, suite.mockTourRepo)
	suite.ctx = context.Background()
}

func (suite *ReviewServiceTestSuite) TearDownTest() {
	suite.mockReviewRepo.AssertExpectations(suite.T())
	suite.mockTourRepo.AssertExpectations(suite.T())
}

func TestReviewServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReviewServiceTestSuite))
}

func (suite *ReviewServiceTestSuite) TestCreateReview_RecalculatesTourRatings() {
	tourID := uuid.New()
	review := &models.Review{
		Review: "Loved it",
		Rating: 5,
		TourID: tourID,
		UserID: uuid.New(),
	}

	suite.mockTourRepo.On("GetByID", suite.ctx, tourID).Return(&models.Tour{ID: tourID}, nil)
	suite.mockReviewRepo.On("Create", suite.ctx, review).Return(nil)
	suite.mockReviewRepo.On("RatingStats", suite.ctx, tourID).
		Return(&models.RatingStats{Quantity: 3, Average: 4.3333}, nil)
	suite.mockTourRepo.On("UpdateRatingStats", suite.ctx, tourID, 3, 4.3333).Return(nil)

	err := suite.service.CreateReview(suite.ctx, review)
	suite.Require().NoError(err)
	suite.NotEqual(uuid.Nil, review.ID)
}

func (suite *ReviewServiceTestSuite) TestCreateReview_UnknownTour() {
	review := &models.Review{Review: "Loved it", Rating: 5, TourID: uuid.New(), UserID: uuid.New()}
	suite.mockTourRepo.On("GetByID", suite.ctx, review.TourID).Return(nil, common.ErrNotFound)

	err := suite.service.CreateReview(suite.ctx, review)
	suite.ErrorIs(err, common.ErrNotFound)
	suite.mockReviewRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *ReviewServiceTestSuite) TestCreateReview_RatingOutOfRange() {
	for _, rating := range []int{0, 6, -1} {
		review := &models.Review{Review: "text", Rating: rating, TourID: uuid.New()}
		err := suite.service.CreateReview(suite.ctx, review)
		suite.Error(err)
	}
}

// Deleting the last review resets the tour to the 4.5 default with zero count.
func (suite *ReviewServiceTestSuite) TestDeleteReview_LastReviewRestoresDefaultRating() {
	tourID := uuid.New()
	userID := uuid.New()
	reviewID := uuid.New()
	actor := &models.User{ID: userID, Role: models.RoleUser}

	suite.mockReviewRepo.On("GetByID", suite.ctx, reviewID).
		Return(&models.Review{ID: reviewID, TourID: tourID, UserID: userID}, nil)
	suite.mockReviewRepo.On("Delete", suite.ctx, reviewID).Return(nil)
	suite.mockReviewRepo.On("RatingStats", suite.ctx, tourID).
		Return(&models.RatingStats{Quantity: 0, Average: 0}, nil)
	suite.mockTourRepo.On("UpdateRatingStats", suite.ctx, tourID, 0, 4.5).Return(nil)

	err := suite.service.DeleteReview(suite.ctx, reviewID, actor)
	suite.NoError(err)
}

func (suite *ReviewServiceTestSuite) TestUpdateReview_OnlyAuthorOrAdmin() {
	reviewID := uuid.New()
	authorID := uuid.New()
	stranger := &models.User{ID: uuid.New(), Role: models.RoleUser}

	suite.mockReviewRepo.On("GetByID", suite.ctx, reviewID).
		Return(&models.Review{ID: reviewID, UserID: authorID, TourID: uuid.New()}, nil)

	_, err := suite.service.UpdateReview(suite.ctx, reviewID, stranger, "edited", 4)
	suite.Require().Error(err)

	var appErr *common.AppError
	suite.Require().ErrorAs(err, &appErr)
	suite.Equal("FORBIDDEN", appErr.Code)
	suite.mockReviewRepo.AssertNotCalled(suite.T(), "Update", mock.Anything, mock.Anything)
}

func (suite *ReviewServiceTestSuite) TestUpdateReview_AdminMayEditAnyReview() {
	reviewID := uuid.New()
	tourID := uuid.New()
	admin := &models.User{ID: uuid.New(), Role: models.RoleAdmin}

	suite.mockReviewRepo.On("GetByID", suite.ctx, reviewID).
		Return(&models.Review{ID: reviewID, UserID: uuid.New(), TourID: tourID, Rating: 2}, nil)
	suite.mockReviewRepo.On("Update", suite.ctx, mock.AnythingOfType("*models.Review")).Return(nil)
	suite.mockReviewRepo.On("RatingStats", suite.ctx, tourID).
		Return(&models.RatingStats{Quantity: 1, Average: 4}, nil)
	suite.mockTourRepo.On("UpdateRatingStats", suite.ctx, tourID, 1, 4.0).Return(nil)

	review, err := suite.service.UpdateReview(suite.ctx, reviewID, admin, "edited", 4)
	suite.Require().NoError(err)
	suite.Equal(4, review.Rating)
	suite.Equal("edited", review.Review)
}
