// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package booking implements paid tour bookings.

A booking is created by the payment provider's webhook once a checkout
completes, never directly by the client that paid. Staff can additionally
manage bookings by hand (phone sales, adjustments) through the regular
CRUD routes.
*/
package booking

import (
	"context"
	"time"

	"github.com/taibuivan/trekora/internal/platform/apperr"
	"github.com/taibuivan/trekora/internal/platform/listing"
	"github.com/taibuivan/trekora/pkg/uuidv7"
)

// Booking records one purchased tour seat.
type Booking struct {
	ID     string  `json:"id"`
	TourID string  `json:"tour_id"`
	UserID string  `json:"user_id"`
	Price  float64 `json:"price"`
	Paid   bool    `json:"paid"`

	// PaidAt is nil for staff-entered bookings awaiting payment.
	PaidAt *time.Time `json:"paid_at,omitempty"`

	// TourName is joined from the catalogue for display.
	TourName string `json:"tour_name,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PatchFields limits staff updates to the payment state. Re-parenting a
// booking is never allowed.
var PatchFields = []string{"price", "paid"}

// Schema declares the list-query surface. user_id is declared but not
// filterable: the handler scope decides whose bookings a caller may see.
func Schema() listing.Schema {
	return listing.Schema{
		Columns: map[string]listing.Column{
			"price":      {Name: "b.price", Kind: listing.Float, Filterable: true},
			"paid":       {Name: "b.paid", Kind: listing.Bool, Filterable: true},
			"tour_id":    {Name: "b.tourid", Kind: listing.Text},
			"user_id":    {Name: "b.userid", Kind: listing.Text},
			"created_at": {Name: "b.createdat", Kind: listing.Text},
		},
		DefaultSort:    listing.Sort{Field: "created_at", Desc: true},
		TiebreakColumn: "b.id",
	}
}

// PrepareManual validates and stamps a staff-entered booking. Webhook
// bookings never pass through here; the service stamps those itself.
func PrepareManual(_ context.Context, booking *Booking) error {
	switch {
	case booking.TourID == "":
		return apperr.ValidationError("A booking must belong to a tour")
	case booking.UserID == "":
		return apperr.ValidationError("A booking must belong to a user")
	case booking.Price <= 0:
		return apperr.ValidationError("A booking must have a price")
	}
	booking.ID = uuidv7.New()
	return nil
}
