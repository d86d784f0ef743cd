package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tourbase/internal/models"
)

// CheckoutSession mirrors the fields of the provider's checkout session the
// booking flow needs.
type CheckoutSession struct {
	ID                string `json:"id"`
	URL               string `json:"url"`
	ClientReferenceID string `json:"client_reference_id"`
	CustomerEmail     string `json:"customer_email"`
	AmountTotal       int64  `json:"amount_total"` // minor currency units
}

// WebhookEvent is the provider's signed event envelope.
type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object CheckoutSession `json:"object"`
	} `json:"data"`
	Created int64 `json:"created"`
}

// EventCheckoutCompleted is the only event kind that creates a booking.
const EventCheckoutCompleted = "checkout.session.completed"

// StripeService handles checkout session creation and webhook authentication.
type StripeService interface {
	CreateCheckoutSession(ctx context.Context, tour *models.Tour, user *models.User, host string) (*CheckoutSession, error)
	VerifyWebhookSignature(payload []byte, signature string) bool
	ParseWebhookEvent(payload []byte) (*WebhookEvent, error)
}

type stripeService struct {
	secretKey     string
	webhookSecret string
	baseURL       string
	http          *http.Client
}

func NewStripeService(secretKey, webhookSecret string) StripeService {
	return &stripeService{
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		baseURL:       "https://api.stripe.com/v1",
		http:          &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateCheckoutSession registers a checkout session with the provider. The
// tour id travels as client_reference_id and comes back on the completion
// event, which is all the webhook needs to reconcile the booking.
func (s *stripeService) CreateCheckoutSession(ctx context.Context, tour *models.Tour, user *models.User, host string) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", fmt.Sprintf("https://%s/?alert=booking", host))
	form.Set("cancel_url", fmt.Sprintf("https://%s/tour/%s", host, tour.Slug))
	form.Set("customer_email", user.Email)
	form.Set("client_reference_id", tour.ID.String())
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", "usd")
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(int64(tour.Price*100), 10))
	form.Set("line_items[0][price_data][product_data][name]", tour.Name+" Tour")
	form.Set("line_items[0][price_data][product_data][description]", tour.Summary)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(s.secretKey, "")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("checkout session request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("checkout session request failed: status %d: %s", resp.StatusCode, body)
	}

	var session CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("failed to parse checkout session response: %w", err)
	}
	return &session, nil
}

// VerifyWebhookSignature checks the HMAC-SHA256 of the raw payload against
// the provider-supplied signature header, in constant time.
func (s *stripeService) VerifyWebhookSignature(payload []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}

func (s *stripeService) ParseWebhookEvent(payload []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}
	return &event, nil
}
