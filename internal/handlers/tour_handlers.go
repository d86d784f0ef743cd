package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"tourbase/internal/common"
	"tourbase/internal/models"
	"tourbase/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type TourHandlers struct {
	tourService services.TourService
}

func NewTourHandlers(tourService services.TourService) *TourHandlers {
	return &TourHandlers{tourService: tourService}
}

// ListTours handles GET /api/v1/tours with filter/sort/paging query params.
func (h *TourHandlers) ListTours(c echo.Context) error {
	limit, offset := pagination(c)
	filter := &models.TourFilter{
		SortBy: c.QueryParam("sort"),
		Limit:  limit,
		Offset: offset,
	}
	if v := c.QueryParam("difficulty"); v != "" {
		filter.Difficulty = &v
	}
	if v := c.QueryParam("max_price"); v != "" {
		if price, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MaxPrice = &price
		}
	}
	if v := c.QueryParam("min_rating"); v != "" {
		if rating, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MinRating = &rating
		}
	}

	tours, err := h.tourService.ListTours(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "success",
		"results": len(tours),
		"tours":   tours,
	})
}

// TopTours handles GET /api/v1/tours/top-5-cheap.
func (h *TourHandlers) TopTours(c echo.Context) error {
	tours, err := h.tourService.TopTours(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "success",
		"results": len(tours),
		"tours":   tours,
	})
}

// GetTour handles GET /api/v1/tours/:id.
func (h *TourHandlers) GetTour(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return common.ValidationFailed("invalid tour id")
	}
	tour, err := h.tourService.GetTour(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "success", "tour": tour})
}

// CreateTour handles POST /api/v1/tours (admin, lead-guide).
func (h *TourHandlers) CreateTour(c echo.Context) error {
	var tour models.Tour
	if err := c.Bind(&tour); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}
	if err := h.tourService.CreateTour(c.Request().Context(), &tour); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]any{"status": "success", "tour": tour})
}

// UpdateTour handles PATCH /api/v1/tours/:id (admin, lead-guide).
func (h *TourHandlers) UpdateTour(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return common.ValidationFailed("invalid tour id")
	}

	tour, err := h.tourService.GetTour(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if err := c.Bind(tour); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}
	tour.ID = id

	if err := h.tourService.UpdateTour(c.Request().Context(), tour); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "success", "tour": tour})
}

// DeleteTour handles DELETE /api/v1/tours/:id (admin, lead-guide).
func (h *TourHandlers) DeleteTour(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return common.ValidationFailed("invalid tour id")
	}
	if err := h.tourService.DeleteTour(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadCoverImage handles PATCH /api/v1/tours/:id/cover with a multipart image.
func (h *TourHandlers) UploadCoverImage(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return common.ValidationFailed("invalid tour id")
	}

	file, err := c.FormFile("image_cover")
	if err != nil {
		return common.ValidationFailed("an image file is required")
	}
	if !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
		return common.ValidationFailed("not an image, please upload only images")
	}
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	objectName, err := h.tourService.UploadCoverImage(c.Request().Context(), id, src, file.Size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "success", "cover_image": objectName})
}

// Stats handles GET /api/v1/tours/stats.
func (h *TourHandlers) Stats(c echo.Context) error {
	stats, err := h.tourService.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "success", "stats": stats})
}

// MonthlyPlan handles GET /api/v1/tours/monthly-plan/:year (admin, lead-guide, guide).
func (h *TourHandlers) MonthlyPlan(c echo.Context) error {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		return common.ValidationFailed("invalid year")
	}
	plan, err := h.tourService.MonthlyPlan(c.Request().Context(), year)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "success", "plan": plan})
}

// ToursWithin handles GET /api/v1/tours/tours-within/:distance/center/:latlng/unit/:unit.
func (h *TourHandlers) ToursWithin(c echo.Context) error {
	distance, err := strconv.ParseFloat(c.Param("distance"), 64)
	if err != nil {
		return common.ValidationFailed("invalid distance")
	}
	lat, lng, err := parseLatLng(c.Param("latlng"))
	if err != nil {
		return err
	}
	unit := c.Param("unit")

	tours, err := h.tourService.ToursWithin(c.Request().Context(), lat, lng, distance, unit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "success",
		"results": len(tours),
		"tours":   tours,
	})
}

// Distances handles GET /api/v1/tours/distances/:latlng/unit/:unit.
func (h *TourHandlers) Distances(c echo.Context) error {
	lat, lng, err := parseLatLng(c.Param("latlng"))
	if err != nil {
		return err
	}

	distances, err := h.tourService.Distances(c.Request().Context(), lat, lng, c.Param("unit"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":    "success",
		"results":   len(distances),
		"distances": distances,
	})
}

// GetTourBySlug handles GET /api/v1/tours/slug/:slug.
func (h *TourHandlers) GetTourBySlug(c echo.Context) error {
	tour, err := h.tourService.GetTourBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "success", "tour": tour})
}

func parseLatLng(param string) (float64, float64, error) {
	parts := strings.Split(param, ",")
	if len(parts) != 2 {
		return 0, 0, common.ValidationFailed("please provide latitude and longitude in the format lat,lng")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, common.ValidationFailed("invalid latitude")
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, common.ValidationFailed("invalid longitude")
	}
	return lat, lng, nil
}
