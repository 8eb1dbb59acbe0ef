// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package booking

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/trekora/internal/platform/apperr"
	"github.com/taibuivan/trekora/internal/platform/crud"
	"github.com/taibuivan/trekora/internal/platform/ctxutil"
	"github.com/taibuivan/trekora/internal/platform/queue"
	"github.com/taibuivan/trekora/internal/tour"
	"github.com/taibuivan/trekora/pkg/pointer"
	"github.com/taibuivan/trekora/pkg/uuidv7"
)

// Repository is the booking storage surface.
type Repository interface {
	crud.Accessor[Booking]
}

// TourCatalog is the slice of the tour store the checkout flow needs.
type TourCatalog interface {
	FindByID(ctx context.Context, id string) (*tour.Tour, error)
}

// Service owns the payment choreography: opening checkout sessions and
// turning completed-checkout webhooks into booking rows.
type Service struct {
	bookings Repository
	tours    TourCatalog
	payments Provider
	events   queue.Publisher
}

func NewService(bookings Repository, tours TourCatalog, payments Provider, events queue.Publisher) *Service {
	return &Service{bookings: bookings, tours: tours, payments: payments, events: events}
}

/*
CreateCheckoutSession opens a payment session for one seat on a tour.

The price is read from the catalogue at session time; the client never
supplies an amount. Discounted tours charge the discount price.

Parameters:
  - ctx: Request context.
  - tourID: The tour being booked.
  - userID: The authenticated buyer.

Returns:
  - *CheckoutSession: The opaque session the client completes payment with.
  - error: NotFound if the tour does not exist, or a provider error.
*/
func (service *Service) CreateCheckoutSession(ctx context.Context, tourID, userID string) (*CheckoutSession, error) {
	bookedTour, err := service.tours.FindByID(ctx, tourID)
	if err != nil {
		return nil, err
	}

	price := bookedTour.Price
	if bookedTour.PriceDiscount > 0 {
		price = bookedTour.PriceDiscount
	}

	session, err := service.payments.CreateCheckoutSession(ctx, CheckoutInput{
		TourID:   bookedTour.ID,
		TourName: bookedTour.Name,
		UserID:   userID,
		Price:    price,
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return session, nil
}

/*
HandleWebhook verifies a provider notification and records the booking
when the checkout completed.

Event types other than checkout.completed are acknowledged and ignored so
the provider does not retry them forever.

Parameters:
  - ctx: Request context.
  - payload: Raw webhook body, exactly as received.
  - signature: The provider's signature header.

Returns:
  - error: NotAuthenticated on a bad signature, storage errors otherwise.
*/
func (service *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := service.payments.VerifyWebhookEvent(payload, signature)
	if err != nil {
		return err
	}

	if event.Type != EventCheckoutCompleted {
		return nil
	}

	paidAt := event.OccurredAt
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	booking := &Booking{
		ID:     uuidv7.New(),
		TourID: event.TourID,
		UserID: event.UserID,
		Price:  event.Price,
		Paid:   true,
		PaidAt: pointer.To(paidAt),
	}
	if err := service.bookings.Create(ctx, booking); err != nil {
		return err
	}

	// The confirmation email is best-effort; the booking already exists.
	if err := service.events.Publish(ctx, queue.KeyBookingCompleted, queue.BookingCompleted{
		BookingID: booking.ID,
		UserID:    booking.UserID,
		TourID:    booking.TourID,
		Price:     booking.Price,
		PaidAt:    paidAt,
	}); err != nil {
		ctxutil.GetLogger(ctx).ErrorContext(ctx, "booking_completed_publish_failed",
			slog.String("booking_id", booking.ID),
			slog.String("error", err.Error()),
		)
	}

	return nil
}
