package models

import (
	"time"

	"hearth/pkg/domain"
)

// Type classifies what a notification is about.
type Type string

const (
	TypeHousehold         Type = "HOUSEHOLD"
	TypeMembershipRequest Type = "MEMBERSHIP_REQUEST"
	TypeInvitation        Type = "INVITATION"
	TypeIncident          Type = "INCIDENT"
	TypeInfo              Type = "INFO"
)

// Notification is the durable per-user record of an event. The read flag is
// monotonic: false to true, never back. Records are never deleted by normal
// flow.
type Notification struct {
	ID          domain.NotificationID `json:"id"`
	RecipientID domain.UserID         `json:"recipientId"`
	Type        Type                  `json:"type"`
	Message     string                `json:"message"`
	Timestamp   time.Time             `json:"timestamp"`
	Read        bool                  `json:"isRead"`
}
