package schema

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table             string
	ID                string
	Name              string
	Email             string
	Photo             string
	Role              string
	Password          string
	PasswordChangedAt string
	Active            string
	CreatedAt         string
	UpdatedAt         string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:             "users.account",
	ID:                "id",
	Name:              "name",
	Email:             "email",
	Photo:             "photo",
	Role:              "role",
	Password:          "passwordhash",
	PasswordChangedAt: "passwordchangedat",
	Active:            "active",
	CreatedAt:         "createdat",
	UpdatedAt:         "updatedat",
}

// Columns returns all standard column names
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.Name, t.Email, t.Photo, t.Role, t.Password,
		t.PasswordChangedAt, t.Active, t.CreatedAt, t.UpdatedAt,
	}
}
