package realtime

import (
	"time"

	"hearth/pkg/domain"
)

// Channel selects how a message fans out.
type Channel string

const (
	// ChannelPrivate targets one user's live connections.
	ChannelPrivate Channel = "private"
	// ChannelBroadcast reaches every connected client.
	ChannelBroadcast Channel = "broadcast"
)

// Message is the envelope pushed to websocket clients and relayed over the
// Redis bridge so every instance delivers it locally.
type Message struct {
	Channel Channel   `json:"channel"`
	UserID  string    `json:"userId,omitempty"`
	Type    string    `json:"type"`
	Body    string    `json:"body"`
	SentAt  time.Time `json:"sentAt"`
}

// NewPrivate builds a message addressed to a single user.
func NewPrivate(userID domain.UserID, msgType, body string) Message {
	return Message{
		Channel: ChannelPrivate,
		UserID:  userID.String(),
		Type:    msgType,
		Body:    body,
		SentAt:  time.Now(),
	}
}

// NewBroadcast builds a message for all connected clients.
func NewBroadcast(msgType, body string) Message {
	return Message{
		Channel: ChannelBroadcast,
		Type:    msgType,
		Body:    body,
		SentAt:  time.Now(),
	}
}
