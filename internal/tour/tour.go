// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package tour implements the tour catalogue.

Tours are the platform's primary product: guided multi-day trips with a
price, difficulty, schedule, and aggregated review ratings. The package
wires the generic CRUD pipeline to the core.tour table and adds the
catalogue-specific pieces on top: slug derivation, the top-5-cheap alias,
and the difficulty statistics endpoint.
*/
package tour

import (
	"context"
	"time"

	"github.com/taibuivan/trekora/internal/platform/apperr"
	"github.com/taibuivan/trekora/internal/platform/listing"
	"github.com/taibuivan/trekora/pkg/slug"
	"github.com/taibuivan/trekora/pkg/uuidv7"
)

// # Domain Entities

// Tour represents one bookable trip in the catalogue.
type Tour struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Slug            string      `json:"slug"`
	Duration        int         `json:"duration"`
	MaxGroupSize    int         `json:"max_group_size"`
	Difficulty      string      `json:"difficulty"`
	RatingsAverage  float64     `json:"ratings_average"`
	RatingsQuantity int         `json:"ratings_quantity"`
	Price           float64     `json:"price"`
	PriceDiscount   float64     `json:"price_discount,omitempty"`
	Summary         string      `json:"summary"`
	Description     string      `json:"description,omitempty"`
	ImageCover      string      `json:"image_cover,omitempty"`
	Images          []string    `json:"images,omitempty"`
	StartDates      []time.Time `json:"start_dates,omitempty"`
	SecretTour      bool        `json:"-"` // Hidden from all public listings.
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Difficulty levels form a closed set.
const (
	DifficultyEasy      = "easy"
	DifficultyMedium    = "medium"
	DifficultyDifficult = "difficult"
)

// PatchFields is the allowlist of fields a PATCH may touch. Ratings are
// derived from reviews and the slug from the name; neither is patchable.
var PatchFields = []string{
	"name", "duration", "max_group_size", "difficulty", "price",
	"price_discount", "summary", "description", "image_cover",
	"images", "start_dates",
}

// Schema declares the fields exposed to list queries.
func Schema() listing.Schema {
	return listing.Schema{
		Columns: map[string]listing.Column{
			"name":             {Name: "t.name", Kind: listing.Text, Filterable: true},
			"duration":         {Name: "t.duration", Kind: listing.Int, Filterable: true},
			"max_group_size":   {Name: "t.maxgroupsize", Kind: listing.Int, Filterable: true},
			"difficulty":       {Name: "t.difficulty", Kind: listing.Text, Filterable: true},
			"ratings_average":  {Name: "t.ratingsaverage", Kind: listing.Float, Filterable: true},
			"ratings_quantity": {Name: "t.ratingsquantity", Kind: listing.Int, Filterable: true},
			"price":            {Name: "t.price", Kind: listing.Float, Filterable: true},
			"summary":          {Name: "t.summary", Kind: listing.Text},
			"created_at":       {Name: "t.createdat", Kind: listing.Text},
		},
		DefaultSort:    listing.Sort{Field: "created_at", Desc: true},
		TiebreakColumn: "t.id",
	}
}

// # Lifecycle Stages

// PrepareCreate is the creation stage: it validates the catalogue
// invariants, assigns the ID, and derives the slug from the name. Run
// before the insert; an error aborts the write.
func PrepareCreate(_ context.Context, tour *Tour) error {
	if err := validateTour(tour); err != nil {
		return err
	}

	tour.ID = uuidv7.New()
	tour.Slug = slug.From(tour.Name)
	tour.RatingsAverage = 4.5 // Seed rating until the first review lands.
	tour.RatingsQuantity = 0
	return nil
}

// ValidatePatch checks the subset of invariants a partial update can break.
func ValidatePatch(patch map[string]any) error {
	if raw, ok := patch["difficulty"]; ok {
		difficulty, _ := raw.(string)
		if !validDifficulty(difficulty) {
			return apperr.ValidationError("Difficulty must be easy, medium, or difficult")
		}
	}
	if raw, ok := patch["price"]; ok {
		price, _ := raw.(float64)
		if price <= 0 {
			return apperr.ValidationError("Price must be above zero")
		}
	}
	if raw, ok := patch["name"]; ok {
		name, _ := raw.(string)
		if name == "" {
			return apperr.ValidationError("A tour must have a name")
		}
	}
	return nil
}

func validateTour(tour *Tour) error {
	switch {
	case tour.Name == "":
		return apperr.ValidationError("A tour must have a name")
	case tour.Duration <= 0:
		return apperr.ValidationError("A tour must have a duration")
	case tour.MaxGroupSize <= 0:
		return apperr.ValidationError("A tour must have a group size")
	case !validDifficulty(tour.Difficulty):
		return apperr.ValidationError("Difficulty must be easy, medium, or difficult")
	case tour.Price <= 0:
		return apperr.ValidationError("A tour must have a price")
	case tour.PriceDiscount < 0 || tour.PriceDiscount >= tour.Price:
		return apperr.ValidationError("Discount price should be below the regular price")
	case tour.Summary == "":
		return apperr.ValidationError("A tour must have a summary")
	}
	return nil
}

func validDifficulty(difficulty string) bool {
	switch difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyDifficult:
		return true
	}
	return false
}
