package schema

// ReviewTable represents the 'core.review' table
type ReviewTable struct {
	Table     string
	ID        string
	Review    string
	Rating    string
	TourID    string
	UserID    string
	CreatedAt string
	UpdatedAt string
}

// Review is the schema definition for core.review
var Review = ReviewTable{
	Table:     "core.review",
	ID:        "id",
	Review:    "review",
	Rating:    "rating",
	TourID:    "tourid",
	UserID:    "userid",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
}

// Columns returns all standard column names
func (t ReviewTable) Columns() []string {
	return []string{t.ID, t.Review, t.Rating, t.TourID, t.UserID, t.CreatedAt, t.UpdatedAt}
}
