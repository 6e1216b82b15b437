package models

import (
	"time"

	"hearth/pkg/domain"
)

// Household is a named group preparing for emergencies together. MemberCount
// is denormalized: it must always equal registered plus unregistered members,
// owner included. The store owns keeping increments atomic.
type Household struct {
	ID          domain.HouseholdID `json:"id"`
	Name        string             `json:"name"`
	Address     string             `json:"address"`
	OwnerID     domain.UserID      `json:"ownerId"`
	MemberCount int                `json:"numberOfMembers"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// UnregisteredMember is a household member without an account, tracked only
// by name. Its lifecycle is tied to the household.
type UnregisteredMember struct {
	ID          domain.MemberID    `json:"id"`
	FullName    string             `json:"fullName"`
	HouseholdID domain.HouseholdID `json:"householdId"`
}
