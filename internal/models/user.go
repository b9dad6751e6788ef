package models

// Address is the postal address on a user profile.
type Address struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
}

// Company is the employer on a user profile.
type Company struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// User represents an upstream user. Profile fields are only populated by a detail lookup.
type User struct {
	ID        uint     `json:"id"`
	Username  string   `json:"username"`
	Image     string   `json:"image"`
	FirstName string   `json:"firstName,omitempty"`
	LastName  string   `json:"lastName,omitempty"`
	Age       int      `json:"age,omitempty"`
	Email     string   `json:"email,omitempty"`
	Phone     string   `json:"phone,omitempty"`
	Address   *Address `json:"address,omitempty"`
	Company   *Company `json:"company,omitempty"`
}

// UsersPage is the envelope returned by GET /users.
type UsersPage struct {
	Users []*User `json:"users"`
	Total int     `json:"total"`
}

// Tag is a post label.
type Tag struct {
	Slug string `json:"slug"`
	Name string `json:"name,omitempty"`
	URL  string `json:"url"`
}
