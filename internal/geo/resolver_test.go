package geo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hearth/internal/user/models"
	"hearth/pkg/domain"
)

type stubUserSource struct {
	users []*models.User
	err   error
}

func (s *stubUserSource) ListWithPosition(context.Context) ([]*models.User, error) {
	return s.users, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func positionedUser(latKM float64) *models.User {
	return &models.User{
		ID:       domain.NewUserID(),
		Latitude: fmt.Sprintf("%f", kmToLatDegrees(latKM)),
		// Longitude zero keeps the distance purely north-south.
		Longitude: "0",
	}
}

func TestUsersWithinIncidentRadius(t *testing.T) {
	incident := Incident{Latitude: 0, Longitude: 0, ImpactRadius: 5.0}

	t.Run("selects users inside the widened radius only", func(t *testing.T) {
		inside := positionedUser(6.0)
		outside := positionedUser(8.0)
		resolver := NewResolver(&stubUserSource{users: []*models.User{inside, outside}}, discardLogger())

		within, err := resolver.UsersWithinIncidentRadius(context.Background(), incident)
		require.NoError(t, err)
		require.Len(t, within, 1)
		assert.Equal(t, inside.ID, within[0].ID)
	})

	t.Run("skips users with unparsable coordinates", func(t *testing.T) {
		garbled := &models.User{ID: domain.NewUserID(), Latitude: "somewhere", Longitude: "0"}
		valid := positionedUser(1.0)
		resolver := NewResolver(&stubUserSource{users: []*models.User{garbled, valid}}, discardLogger())

		within, err := resolver.UsersWithinIncidentRadius(context.Background(), incident)
		require.NoError(t, err)
		require.Len(t, within, 1)
		assert.Equal(t, valid.ID, within[0].ID)
	})

	t.Run("propagates listing failure", func(t *testing.T) {
		resolver := NewResolver(&stubUserSource{err: assert.AnError}, discardLogger())
		_, err := resolver.UsersWithinIncidentRadius(context.Background(), incident)
		assert.ErrorIs(t, err, assert.AnError)
	})
}
