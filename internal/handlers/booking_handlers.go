package handlers

import (
	"net/http"

	"tourbase/internal/common"
	"tourbase/internal/middleware"
	"tourbase/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type BookingHandlers struct {
	bookingService services.BookingService
}

func NewBookingHandlers(bookingService services.BookingService) *BookingHandlers {
	return &BookingHandlers{bookingService: bookingService}
}

// CreateCheckoutSession handles GET /api/v1/bookings/checkout-session/:tourID.
func (h *BookingHandlers) CreateCheckoutSession(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return common.Unauthenticated("not authenticated")
	}

	tourID, err := uuid.Parse(c.Param("tourID"))
	if err != nil {
		return common.ValidationFailed("invalid tour id")
	}

	session, err := h.bookingService.CreateCheckoutSession(c.Request().Context(), tourID, user, c.Request().Host)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "success", "session": session})
}

// MyBookings handles GET /api/v1/bookings/my-bookings.
func (h *BookingHandlers) MyBookings(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return common.Unauthenticated("not authenticated")
	}

	bookings, err := h.bookingService.ListUserBookings(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":   "success",
		"results":  len(bookings),
		"bookings": bookings,
	})
}

// ListBookings handles GET /api/v1/bookings (admin, lead-guide).
func (h *BookingHandlers) ListBookings(c echo.Context) error {
	limit, offset := pagination(c)
	bookings, err := h.bookingService.ListBookings(c.Request().Context(), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":   "success",
		"results":  len(bookings),
		"bookings": bookings,
	})
}

// GetBooking handles GET /api/v1/bookings/:id (admin, lead-guide).
func (h *BookingHandlers) GetBooking(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return common.ValidationFailed("invalid booking id")
	}
	booking, err := h.bookingService.GetBooking(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "success", "booking": booking})
}

// UpdateBooking handles PATCH /api/v1/bookings/:id (admin, lead-guide).
func (h *BookingHandlers) UpdateBooking(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return common.ValidationFailed("invalid booking id")
	}
	booking, err := h.bookingService.GetBooking(c.Request().Context(), id)
	if err != nil {
		return err
	}

	var req struct {
		Price *float64 `json:"price"`
		Paid  *bool    `json:"paid"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}
	if req.Price != nil {
		booking.Price = *req.Price
	}
	if req.Paid != nil {
		booking.Paid = *req.Paid
	}

	if err := h.bookingService.UpdateBooking(c.Request().Context(), booking); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "success", "booking": booking})
}

// DeleteBooking handles DELETE /api/v1/bookings/:id (admin, lead-guide).
func (h *BookingHandlers) DeleteBooking(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return common.ValidationFailed("invalid booking id")
	}
	if err := h.bookingService.DeleteBooking(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
