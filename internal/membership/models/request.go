package models

import (
	"time"

	"hearth/pkg/domain"
)

// RequestType distinguishes who initiated the membership proposal.
type RequestType string

const (
	// TypeInvitation: sender is the household owner, receiver the invitee.
	TypeInvitation RequestType = "INVITATION"
	// TypeJoinRequest: sender is the requester, receiver the household owner.
	TypeJoinRequest RequestType = "JOIN_REQUEST"
)

// RequestStatus is the state of a membership request. PENDING is initial;
// the rest are terminal. Accept transitions are guarded (PENDING only);
// decline and cancel are deliberately not — callers can overwrite a terminal
// state, matching long-standing observable behavior.
type RequestStatus string

const (
	StatusPending  RequestStatus = "PENDING"
	StatusAccepted RequestStatus = "ACCEPTED"
	StatusRejected RequestStatus = "REJECTED"
	StatusCanceled RequestStatus = "CANCELED"
)

// Terminal reports whether the status is an end state.
func (s RequestStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusCanceled
}

// Request is a proposal to join or invite into a household.
type Request struct {
	ID          domain.RequestID   `json:"id"`
	HouseholdID domain.HouseholdID `json:"householdId"`
	SenderID    domain.UserID      `json:"senderId"`
	ReceiverID  domain.UserID      `json:"receiverId"`
	Type        RequestType        `json:"type"`
	Status      RequestStatus      `json:"status"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// JoiningUserID is the user who becomes a member when the request is
// accepted: the sender for join requests, the receiver for invitations.
func (r *Request) JoiningUserID() domain.UserID {
	if r.Type == TypeJoinRequest {
		return r.SenderID
	}
	return r.ReceiverID
}
