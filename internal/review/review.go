// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package review implements tour reviews and the derived rating aggregates.

A review belongs to exactly one tour and one user, and each user can review
a tour once. Every write triggers a recomputation of the parent tour's
ratings_average and ratings_quantity, so the catalogue never serves a stale
aggregate.
*/
package review

import (
	"context"
	"time"

	"github.com/taibuivan/trekora/internal/platform/apperr"
	"github.com/taibuivan/trekora/internal/platform/listing"
	"github.com/taibuivan/trekora/pkg/uuidv7"
)

// Review is one user's rating of a tour.
type Review struct {
	ID     string `json:"id"`
	Review string `json:"review"`
	Rating int    `json:"rating"`
	TourID string `json:"tour_id"`
	UserID string `json:"user_id"`

	// AuthorName is joined from the account table for display; it is not a
	// column of core.review.
	AuthorName string `json:"author_name,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PatchFields limits updates to the review content. Re-parenting a review
// onto another tour or user is never allowed.
var PatchFields = []string{"review", "rating"}

// Schema declares the list-query surface. tour_id is declared but not
// filterable: only the nested route scope may constrain it.
func Schema() listing.Schema {
	return listing.Schema{
		Columns: map[string]listing.Column{
			"rating":     {Name: "r.rating", Kind: listing.Int, Filterable: true},
			"tour_id":    {Name: "r.tourid", Kind: listing.Text},
			"user_id":    {Name: "r.userid", Kind: listing.Text},
			"created_at": {Name: "r.createdat", Kind: listing.Text},
		},
		DefaultSort:    listing.Sort{Field: "created_at", Desc: true},
		TiebreakColumn: "r.id",
	}
}

// PrepareCreate validates and stamps a new review before insert.
func PrepareCreate(_ context.Context, review *Review) error {
	if err := validateReview(review); err != nil {
		return err
	}
	review.ID = uuidv7.New()
	return nil
}

// ValidatePatch checks the content invariants a partial update can break.
func ValidatePatch(patch map[string]any) error {
	if raw, ok := patch["rating"]; ok {
		// JSON numbers decode as float64.
		rating, _ := raw.(float64)
		if rating < 1 || rating > 5 {
			return apperr.ValidationError("Rating must be between 1 and 5")
		}
	}
	if raw, ok := patch["review"]; ok {
		text, _ := raw.(string)
		if text == "" {
			return apperr.ValidationError("A review cannot be empty")
		}
	}
	return nil
}

func validateReview(review *Review) error {
	switch {
	case review.Review == "":
		return apperr.ValidationError("A review cannot be empty")
	case review.Rating < 1 || review.Rating > 5:
		return apperr.ValidationError("Rating must be between 1 and 5")
	case review.TourID == "":
		return apperr.ValidationError("A review must belong to a tour")
	case review.UserID == "":
		return apperr.ValidationError("A review must have an author")
	}
	return nil
}
