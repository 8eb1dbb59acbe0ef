// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package booking

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/trekora/internal/platform/apperr"
	"github.com/taibuivan/trekora/internal/platform/listing"
	"github.com/taibuivan/trekora/internal/platform/queue"
	"github.com/taibuivan/trekora/internal/tour"
)

type fakeBookings struct {
	created []*Booking
}

func (f *fakeBookings) FindMany(context.Context, listing.Spec) ([]*Booking, int, error) {
	return nil, 0, nil
}

func (f *fakeBookings) FindByID(_ context.Context, id string) (*Booking, error) {
	for _, booking := range f.created {
		if booking.ID == id {
			return booking, nil
		}
	}
	return nil, apperr.NotFound("booking")
}

func (f *fakeBookings) Create(_ context.Context, booking *Booking) error {
	f.created = append(f.created, booking)
	return nil
}

func (f *fakeBookings) UpdateByID(context.Context, string, map[string]any) (*Booking, error) {
	return nil, apperr.NotFound("booking")
}

func (f *fakeBookings) DeleteByID(context.Context, string) error {
	return apperr.NotFound("booking")
}

type fakeTours struct {
	tours map[string]*tour.Tour
}

func (f *fakeTours) FindByID(_ context.Context, id string) (*tour.Tour, error) {
	if t, ok := f.tours[id]; ok {
		return t, nil
	}
	return nil, apperr.NotFound("tour")
}

type fakePublisher struct {
	events   []any
	failNext bool
}

func (f *fakePublisher) Publish(_ context.Context, _ string, event any) error {
	if f.failNext {
		f.failNext = false
		return errors.New("broker unavailable")
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func fixture() (*Service, *fakeBookings, *fakePublisher, *HMACProvider) {
	bookings := &fakeBookings{}
	publisher := &fakePublisher{}
	provider := NewHMACProvider("webhook-signing-secret")
	tours := &fakeTours{tours: map[string]*tour.Tour{
		"t1": {ID: "t1", Name: "The Forest Hiker", Price: 397},
		"t2": {ID: "t2", Name: "The Sea Explorer", Price: 497, PriceDiscount: 450},
	}}
	return NewService(bookings, tours, provider, publisher), bookings, publisher, provider
}

func signedPayload(t *testing.T, provider *HMACProvider, event WebhookEvent) ([]byte, string) {
	t.Helper()
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	return payload, provider.SignPayload(payload)
}

/*
TestService_CreateCheckoutSession verifies the session amount always comes
from the catalogue, with the discount price winning when present.
*/
func TestService_CreateCheckoutSession(t *testing.T) {
	service, _, _, _ := fixture()

	t.Run("regular price", func(t *testing.T) {
		session, err := service.CreateCheckoutSession(context.Background(), "t1", "u1")

		require.NoError(t, err)
		assert.NotEmpty(t, session.Ref)
		assert.Equal(t, 397.0, session.Amount)
		assert.True(t, session.ExpiresAt.After(time.Now()))
	})

	t.Run("discount price wins", func(t *testing.T) {
		session, err := service.CreateCheckoutSession(context.Background(), "t2", "u1")

		require.NoError(t, err)
		assert.Equal(t, 450.0, session.Amount)
	})

	t.Run("unknown tour", func(t *testing.T) {
		_, err := service.CreateCheckoutSession(context.Background(), "missing", "u1")

		require.Error(t, err)
		assert.Equal(t, apperr.CodeNotFound, apperr.As(err).Code)
	})
}

/*
TestService_HandleWebhook covers the full webhook lifecycle: signature
rejection, non-completion events, booking creation, and best-effort event
publication.
*/
func TestService_HandleWebhook(t *testing.T) {
	completed := WebhookEvent{
		Type:       EventCheckoutCompleted,
		SessionRef: "sess-1",
		TourID:     "t1",
		UserID:     "u1",
		Price:      397,
		OccurredAt: time.Now(),
	}

	t.Run("bad signature is rejected before parsing", func(t *testing.T) {
		service, bookings, _, provider := fixture()
		payload, _ := signedPayload(t, provider, completed)

		err := service.HandleWebhook(context.Background(), payload, "deadbeef")

		require.Error(t, err)
		assert.Equal(t, apperr.CodeNotAuthenticated, apperr.As(err).Code)
		assert.Empty(t, bookings.created)
	})

	t.Run("tampered payload is rejected", func(t *testing.T) {
		service, bookings, _, provider := fixture()
		payload, signature := signedPayload(t, provider, completed)
		payload[0] ^= 0xff

		err := service.HandleWebhook(context.Background(), payload, signature)

		require.Error(t, err)
		assert.Empty(t, bookings.created)
	})

	t.Run("non-completion event is acknowledged and ignored", func(t *testing.T) {
		service, bookings, publisher, provider := fixture()
		expired := completed
		expired.Type = "checkout.expired"
		payload, signature := signedPayload(t, provider, expired)

		err := service.HandleWebhook(context.Background(), payload, signature)

		require.NoError(t, err)
		assert.Empty(t, bookings.created)
		assert.Empty(t, publisher.events)
	})

	t.Run("completion records a paid booking and publishes", func(t *testing.T) {
		service, bookings, publisher, provider := fixture()
		payload, signature := signedPayload(t, provider, completed)

		err := service.HandleWebhook(context.Background(), payload, signature)

		require.NoError(t, err)
		require.Len(t, bookings.created, 1)
		booking := bookings.created[0]
		assert.NotEmpty(t, booking.ID)
		assert.Equal(t, "t1", booking.TourID)
		assert.Equal(t, "u1", booking.UserID)
		assert.Equal(t, 397.0, booking.Price)
		assert.True(t, booking.Paid)
		require.NotNil(t, booking.PaidAt)

		require.Len(t, publisher.events, 1)
		event, ok := publisher.events[0].(queue.BookingCompleted)
		require.True(t, ok)
		assert.Equal(t, booking.ID, event.BookingID)
	})

	t.Run("publish failure does not fail the webhook", func(t *testing.T) {
		service, bookings, publisher, provider := fixture()
		publisher.failNext = true
		payload, signature := signedPayload(t, provider, completed)

		err := service.HandleWebhook(context.Background(), payload, signature)

		require.NoError(t, err)
		assert.Len(t, bookings.created, 1)
		assert.Empty(t, publisher.events)
	})
}
