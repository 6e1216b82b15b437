package geo

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"hearth/internal/user/models"
)

// UserSource lists users that have reported a last known position.
type UserSource interface {
	ListWithPosition(ctx context.Context) ([]*models.User, error)
}

// Resolver selects users inside an incident's alert radius.
type Resolver struct {
	users  UserSource
	logger *slog.Logger
}

func NewResolver(users UserSource, logger *slog.Logger) *Resolver {
	return &Resolver{users: users, logger: logger}
}

// UsersWithinIncidentRadius returns users whose last known position lies
// within the widened alert radius of the point. The result is unsorted.
// Positions are free-form strings from clients; unparsable values are
// logged and skipped, never fatal.
func (r *Resolver) UsersWithinIncidentRadius(ctx context.Context, incident Incident) ([]*models.User, error) {
	candidates, err := r.users.ListWithPosition(ctx)
	if err != nil {
		return nil, fmt.Errorf("list positioned users: %w", err)
	}

	alertRadius := incident.AlertRadius()
	var within []*models.User
	for _, user := range candidates {
		lat, err := strconv.ParseFloat(user.Latitude, 64)
		if err != nil {
			r.logger.WarnContext(ctx, "skipping user with unparsable latitude",
				"user_id", user.ID.String(), "latitude", user.Latitude)
			continue
		}
		lon, err := strconv.ParseFloat(user.Longitude, 64)
		if err != nil {
			r.logger.WarnContext(ctx, "skipping user with unparsable longitude",
				"user_id", user.ID.String(), "longitude", user.Longitude)
			continue
		}
		if Haversine(incident.Latitude, incident.Longitude, lat, lon) <= alertRadius {
			within = append(within, user)
		}
	}
	return within, nil
}
