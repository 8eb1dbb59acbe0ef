// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package booking

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taibuivan/trekora/internal/platform/apperr"
)

// # Payment Provider Contract

// CheckoutInput is what the provider needs to open a payment session.
type CheckoutInput struct {
	TourID   string
	TourName string
	UserID   string

	// Price in the platform currency; the provider owns conversion.
	Price float64
}

// CheckoutSession is the opaque handle the client completes payment with.
type CheckoutSession struct {
	Ref       string    `json:"ref"`
	Amount    float64   `json:"amount"`
	ExpiresAt time.Time `json:"expires_at"`
}

// WebhookEvent is a provider notification, already signature-verified.
type WebhookEvent struct {
	Type       string    `json:"type"`
	SessionRef string    `json:"session_ref"`
	TourID     string    `json:"tour_id"`
	UserID     string    `json:"user_id"`
	Price      float64   `json:"price"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventCheckoutCompleted is the only event type that creates a booking.
const EventCheckoutCompleted = "checkout.completed"

// Provider abstracts the external payment service. The provider's own
// protocol (API calls, redirects, retries) lives behind this boundary.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, input CheckoutInput) (*CheckoutSession, error)
	VerifyWebhookEvent(payload []byte, signature string) (*WebhookEvent, error)
}

// # Reference Provider

const sessionTTL = 30 * time.Minute

// HMACProvider is the reference implementation: it issues opaque session
// refs locally and authenticates webhooks with an HMAC-SHA256 signature
// over the raw payload, the scheme most hosted providers use.
type HMACProvider struct {
	secret []byte
}

func NewHMACProvider(signingSecret string) *HMACProvider {
	return &HMACProvider{secret: []byte(signingSecret)}
}

func (provider *HMACProvider) CreateCheckoutSession(_ context.Context, input CheckoutInput) (*CheckoutSession, error) {
	if input.Price <= 0 {
		return nil, fmt.Errorf("payment: non-positive amount for tour %s", input.TourID)
	}

	return &CheckoutSession{
		Ref:       uuid.NewString(),
		Amount:    input.Price,
		ExpiresAt: time.Now().Add(sessionTTL),
	}, nil
}

// VerifyWebhookEvent checks the signature before a single byte of the
// payload is trusted. Comparison is constant-time.
func (provider *HMACProvider) VerifyWebhookEvent(payload []byte, signature string) (*WebhookEvent, error) {
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return nil, apperr.NotAuthenticated("Invalid webhook signature")
	}

	mac := hmac.New(sha256.New, provider.secret)
	mac.Write(payload)
	if !hmac.Equal(mac.Sum(nil), expected) {
		return nil, apperr.NotAuthenticated("Invalid webhook signature")
	}

	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, apperr.ValidationError("Malformed webhook payload")
	}
	return &event, nil
}

// SignPayload produces the signature a well-formed webhook must carry.
// Exported for tests and the local provider simulator.
func (provider *HMACProvider) SignPayload(payload []byte) string {
	mac := hmac.New(sha256.New, provider.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
