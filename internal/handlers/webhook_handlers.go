package handlers

import (
	"errors"
	"io"
	"net/http"

	"tourbase/internal/services"

	"github.com/labstack/echo/v4"
)

// maxWebhookBody caps a webhook delivery; provider events are a few KiB.
const maxWebhookBody = 64 << 10

// WebhookHandlers receives payment provider callbacks.
type WebhookHandlers struct {
	bookingService services.BookingService
}

func NewWebhookHandlers(bookingService services.BookingService) *WebhookHandlers {
	return &WebhookHandlers{bookingService: bookingService}
}

// CheckoutWebhook handles POST /webhook-checkout. The body must stay raw for
// signature verification; this route is never behind the JSON binder. The 200
// acknowledgment is only sent after the booking write is durable — a non-2xx
// makes the provider redeliver, and redeliveries are deduplicated by session id.
func (h *WebhookHandlers) CheckoutWebhook(c echo.Context) error {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Response(), c.Request().Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "webhook payload too large")
		}
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body")
	}

	signature := c.Request().Header.Get("Stripe-Signature")
	eventType, err := h.bookingService.HandleWebhookEvent(c.Request().Context(), payload, signature)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"received": true,
		"event":    eventType,
	})
}
