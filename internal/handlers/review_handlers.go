package handlers

import (
	"net/http"

	"tourbase/internal/common"
	"tourbase/internal/middleware"
	"tourbase/internal/models"
	"tourbase/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type ReviewHandlers struct {
	reviewService services.ReviewService
}

func NewReviewHandlers(reviewService services.ReviewService) *ReviewHandlers {
	return &ReviewHandlers{reviewService: reviewService}
}

type ReviewRequest struct {
	Review string `json:"review"`
	Rating int    `json:"rating"`
	TourID string `json:"tour_id"`
}

// ListReviews handles GET /api/v1/reviews and GET /api/v1/tours/:tourID/reviews.
func (h *ReviewHandlers) ListReviews(c echo.Context) error {
	limit, offset := pagination(c)

	var reviews []*models.Review
	var err error
	if tourParam := c.Param("tourID"); tourParam != "" {
		tourID, parseErr := uuid.Parse(tourParam)
		if parseErr != nil {
			return common.ValidationFailed("invalid tour id")
		}
		reviews, err = h.reviewService.ListTourReviews(c.Request().Context(), tourID, limit, offset)
	} else {
		reviews, err = h.reviewService.ListReviews(c.Request().Context(), limit, offset)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "success",
		"results": len(reviews),
		"reviews": reviews,
	})
}

// GetReview handles GET /api/v1/reviews/:id.
func (h *ReviewHandlers) GetReview(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return common.ValidationFailed("invalid review id")
	}
	review, err := h.reviewService.GetReview(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "success", "review": review})
}

// CreateReview handles POST /api/v1/reviews and the nested tour route. The
// tour id comes from the path when nested, otherwise from the body.
func (h *ReviewHandlers) CreateReview(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return common.Unauthenticated("not authenticated")
	}

	var req ReviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	tourParam := c.Param("tourID")
	if tourParam == "" {
		tourParam = req.TourID
	}
	tourID, err := uuid.Parse(tourParam)
	if err != nil {
		return common.ValidationFailed("invalid tour id")
	}

	review := &models.Review{
		Review: req.Review,
		Rating: req.Rating,
		TourID: tourID,
		UserID: user.ID,
	}
	if err := h.reviewService.CreateReview(c.Request().Context(), review); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]any{"status": "success", "review": review})
}

// UpdateReview handles PATCH /api/v1/reviews/:id.
func (h *ReviewHandlers) UpdateReview(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return common.Unauthenticated("not authenticated")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return common.ValidationFailed("invalid review id")
	}

	var req ReviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	review, err := h.reviewService.UpdateReview(c.Request().Context(), id, user, req.Review, req.Rating)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "success", "review": review})
}

// DeleteReview handles DELETE /api/v1/reviews/:id.
func (h *ReviewHandlers) DeleteReview(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return common.Unauthenticated("not authenticated")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return common.ValidationFailed("invalid review id")
	}
	if err := h.reviewService.DeleteReview(c.Request().Context(), id, user); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
