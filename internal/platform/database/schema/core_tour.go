package schema

// TourTable represents the 'core.tour' table
type TourTable struct {
	Table           string
	ID              string
	Name            string
	Slug            string
	Duration        string
	MaxGroupSize    string
	Difficulty      string
	RatingsAverage  string
	RatingsQuantity string
	Price           string
	PriceDiscount   string
	Summary         string
	Description     string
	ImageCover      string
	Images          string
	StartDates      string
	SecretTour      string
	CreatedAt       string
	UpdatedAt       string
}

// Tour is the schema definition for core.tour
var Tour = TourTable{
	Table:           "core.tour",
	ID:              "id",
	Name:            "name",
	Slug:            "slug",
	Duration:        "duration",
	MaxGroupSize:    "maxgroupsize",
	Difficulty:      "difficulty",
	RatingsAverage:  "ratingsaverage",
	RatingsQuantity: "ratingsquantity",
	Price:           "price",
	PriceDiscount:   "pricediscount",
	Summary:         "summary",
	Description:     "description",
	ImageCover:      "imagecover",
	Images:          "images",
	StartDates:      "startdates",
	SecretTour:      "secrettour",
	CreatedAt:       "createdat",
	UpdatedAt:       "updatedat",
}

// Columns returns all standard column names
func (t TourTable) Columns() []string {
	return []string{
		t.ID, t.Name, t.Slug, t.Duration, t.MaxGroupSize, t.Difficulty,
		t.RatingsAverage, t.RatingsQuantity, t.Price, t.PriceDiscount,
		t.Summary, t.Description, t.ImageCover, t.Images, t.StartDates,
		t.SecretTour, t.CreatedAt, t.UpdatedAt,
	}
}
