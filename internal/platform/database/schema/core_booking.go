package schema

// BookingTable represents the 'core.booking' table
type BookingTable struct {
	Table     string
	ID        string
	TourID    string
	UserID    string
	Price     string
	Paid      string
	PaidAt    string
	CreatedAt string
	UpdatedAt string
}

// Booking is the schema definition for core.booking
var Booking = BookingTable{
	Table:     "core.booking",
	ID:        "id",
	TourID:    "tourid",
	UserID:    "userid",
	Price:     "price",
	Paid:      "paid",
	PaidAt:    "paidat",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
}

// Columns returns all standard column names
func (t BookingTable) Columns() []string {
	return []string{t.ID, t.TourID, t.UserID, t.Price, t.Paid, t.PaidAt, t.CreatedAt, t.UpdatedAt}
}
