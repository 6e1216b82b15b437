package models

import "hearth/pkg/domain"

// Role mirrors the access roles handed out by the external auth service.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User is the membership-relevant slice of a user account. Credentials and
// profile details beyond this live with the auth collaborator.
//
// Latitude and Longitude are the last known position as reported by the
// client, kept as strings because position is optional and the upstream
// format is free-form. The geo resolver parses and skips unparsable values.
type User struct {
	ID          domain.UserID       `json:"id"`
	Email       string              `json:"email"`
	FullName    string              `json:"fullName"`
	Role        Role                `json:"role"`
	HouseholdID *domain.HouseholdID `json:"householdId,omitempty"`
	Latitude    string              `json:"latitude,omitempty"`
	Longitude   string              `json:"longitude,omitempty"`
}

// InHousehold reports whether the user currently belongs to the household.
func (u *User) InHousehold(id domain.HouseholdID) bool {
	return u.HouseholdID != nil && *u.HouseholdID == id
}
