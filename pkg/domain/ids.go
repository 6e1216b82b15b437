// Package domain holds the typed identifiers shared across services.
//
// IDs are distinct types so the compiler rejects cross-assignment between,
// say, a user ID and a membership-request ID. Parse functions enforce the
// invariant that IDs are valid, non-nil values at trust boundaries.
package domain

import (
	"crypto/rand"

	"github.com/google/uuid"

	dErrors "hearth/pkg/domain-errors"
)

type (
	// UserID identifies a registered user.
	UserID uuid.UUID
	// RequestID identifies a membership request (invitation or join request).
	RequestID uuid.UUID
	// NotificationID identifies a persisted notification.
	NotificationID uuid.UUID
	// MemberID identifies an unregistered household member.
	MemberID uuid.UUID
)

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id RequestID) String() string      { return uuid.UUID(id).String() }
func (id NotificationID) String() string { return uuid.UUID(id).String() }
func (id MemberID) String() string       { return uuid.UUID(id).String() }

func (id UserID) IsZero() bool         { return uuid.UUID(id) == uuid.Nil }
func (id RequestID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }
func (id NotificationID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id MemberID) IsZero() bool       { return uuid.UUID(id) == uuid.Nil }

func NewUserID() UserID                 { return UserID(uuid.New()) }
func NewRequestID() RequestID           { return RequestID(uuid.New()) }
func NewNotificationID() NotificationID { return NotificationID(uuid.New()) }
func NewMemberID() MemberID             { return MemberID(uuid.New()) }

func parseUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "id must not be empty")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "id is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "id must not be the nil UUID")
	}
	return parsed, nil
}

func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw)
	return UserID(parsed), err
}

func ParseRequestID(raw string) (RequestID, error) {
	parsed, err := parseUUID(raw)
	return RequestID(parsed), err
}

func ParseNotificationID(raw string) (NotificationID, error) {
	parsed, err := parseUUID(raw)
	return NotificationID(parsed), err
}

func ParseMemberID(raw string) (MemberID, error) {
	parsed, err := parseUUID(raw)
	return MemberID(parsed), err
}

// HouseholdID is an 8-character opaque code handed out to users so they can
// share it verbally. It is deliberately not a UUID.
type HouseholdID string

const (
	householdIDLength   = 8
	householdIDAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

func (id HouseholdID) String() string { return string(id) }
func (id HouseholdID) IsZero() bool   { return id == "" }

// NewHouseholdID generates a random 8-character household code. Collisions are
// the store's problem; creation retries on conflict.
func NewHouseholdID() HouseholdID {
	buf := make([]byte, householdIDLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	for i, b := range buf {
		buf[i] = householdIDAlphabet[int(b)%len(householdIDAlphabet)]
	}
	return HouseholdID(buf)
}

// ParseHouseholdID validates the 8-character code shape.
func ParseHouseholdID(raw string) (HouseholdID, error) {
	if len(raw) != householdIDLength {
		return "", dErrors.New(dErrors.CodeBadRequest, "household id must be 8 characters")
	}
	for _, r := range raw {
		if (r < 'A' || r > 'Z') && (r < '2' || r > '9') {
			return "", dErrors.New(dErrors.CodeBadRequest, "household id contains invalid characters")
		}
	}
	return HouseholdID(raw), nil
}
