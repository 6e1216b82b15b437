package realtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hearth/pkg/domain"
)

func testHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data := <-c.send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	default:
		t.Fatal("expected a queued message")
		return Message{}
	}
}

func TestHub_SendToUser(t *testing.T) {
	hub := testHub()
	userID := domain.NewUserID()

	phone := NewClient(hub, nil, userID)
	laptop := NewClient(hub, nil, userID)
	stranger := NewClient(hub, nil, domain.NewUserID())
	hub.Register(phone)
	hub.Register(laptop)
	hub.Register(stranger)

	hub.SendToUser(userID, NewPrivate(userID, "INFO", "hello"))

	assert.Equal(t, "hello", receive(t, phone).Body, "every connection of the user gets it")
	assert.Equal(t, "hello", receive(t, laptop).Body)
	assert.Empty(t, stranger.send, "other users get nothing")
}

func TestHub_Broadcast(t *testing.T) {
	hub := testHub()
	a := NewClient(hub, nil, domain.NewUserID())
	b := NewClient(hub, nil, domain.NewUserID())
	hub.Register(a)
	hub.Register(b)

	hub.Broadcast(NewBroadcast("INFO", "everyone"))

	assert.Equal(t, "everyone", receive(t, a).Body)
	assert.Equal(t, "everyone", receive(t, b).Body)
}

func TestHub_DropsWhenBufferFull(t *testing.T) {
	hub := testHub()
	userID := domain.NewUserID()
	client := NewClient(hub, nil, userID)
	hub.Register(client)

	// Fill the buffer past capacity; the overflow must be dropped without
	// blocking the sender.
	for i := 0; i < sendBufferSize+5; i++ {
		hub.SendToUser(userID, NewPrivate(userID, "INFO", "flood"))
	}

	assert.Len(t, client.send, sendBufferSize)
}

func TestHub_Unregister(t *testing.T) {
	hub := testHub()
	userID := domain.NewUserID()
	client := NewClient(hub, nil, userID)
	hub.Register(client)
	require.Equal(t, 1, hub.ClientCount())
	require.Equal(t, 1, hub.UserConnectionCount(userID))

	hub.Unregister(client)

	assert.Zero(t, hub.ClientCount())
	assert.Zero(t, hub.UserConnectionCount(userID))

	// Double unregister must not panic or close the channel twice.
	hub.Unregister(client)
}

func TestHub_PublishRoutes(t *testing.T) {
	hub := testHub()
	userID := domain.NewUserID()
	client := NewClient(hub, nil, userID)
	hub.Register(client)

	require.NoError(t, hub.Publish(context.Background(), NewPrivate(userID, "INFO", "direct")))
	assert.Equal(t, "direct", receive(t, client).Body)

	require.NoError(t, hub.Publish(context.Background(), NewBroadcast("INFO", "to all")))
	assert.Equal(t, "to all", receive(t, client).Body)
}
