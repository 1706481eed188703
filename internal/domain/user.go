package domain

import "time"

// User is an identity synced from the external provider. The ID is the
// provider's opaque user id; users are never created through the API itself.
type User struct {
	ID        string
	Email     string
	FirstName *string
	LastName  *string
	ImageURL  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserRef is the summary shape embedded in listings (creator info on
// tasks and references).
type UserRef struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	ImageURL  *string `json:"imageUrl,omitempty"`
}

// Ref returns the summary shape for this user.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName, ImageURL: u.ImageURL}
}
