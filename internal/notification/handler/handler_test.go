package handler_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hearth/internal/cache"
	"hearth/internal/geo"
	"hearth/internal/notification/dispatch"
	"hearth/internal/notification/handler"
	"hearth/internal/notification/models"
	"hearth/internal/notification/service"
	notifstore "hearth/internal/notification/store"
	"hearth/internal/platform/metrics"
	"hearth/internal/realtime"
	usermodels "hearth/internal/user/models"
	userstore "hearth/internal/user/store"
	"hearth/pkg/domain"
	"hearth/pkg/testutil"
)

type fixture struct {
	users   *userstore.MemoryStore
	service *service.Service
	router  chi.Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New(prometheus.NewRegistry())

	users := userstore.NewMemory()
	notifications := notifstore.NewMemory()
	hub := realtime.NewHub(log)
	dispatcher := dispatch.New(hub, users, nil, m, log)
	resolver := geo.NewResolver(users, log)
	svc := service.New(notifications, users, resolver, dispatcher, cache.NewMemory(), m, log)

	router := chi.NewRouter()
	handler.New(svc, log).Register(router)
	return &fixture{users: users, service: svc, router: router}
}

func (f *fixture) addUser(t *testing.T, user *usermodels.User) *usermodels.User {
	t.Helper()
	if user.ID.IsZero() {
		user.ID = domain.NewUserID()
	}
	require.NoError(t, f.users.Save(context.Background(), user))
	return user
}

func TestListNotifications(t *testing.T) {
	f := newFixture(t)
	caller := f.addUser(t, &usermodels.User{Email: "anna@example.com"})
	_, err := f.service.Save(context.Background(), caller.ID, models.TypeInfo, "hello")
	require.NoError(t, err)

	req := testutil.WithUserID(testutil.NewRequest(t, http.MethodPost, "/notifications/get"), caller.ID)
	rr := testutil.DoRequest(f.router, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	listed := testutil.UnmarshalResponse[[]models.Notification](t, rr)
	require.Len(t, *listed, 1)
	assert.Equal(t, "hello", (*listed)[0].Message)
}

func TestListNotifications_EmptyIsAnArray(t *testing.T) {
	f := newFixture(t)
	caller := f.addUser(t, &usermodels.User{Email: "anna@example.com"})

	req := testutil.WithUserID(testutil.NewRequest(t, http.MethodPost, "/notifications/get"), caller.ID)
	rr := testutil.DoRequest(f.router, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.JSONEq(t, "[]", rr.Body.String())
}

func TestMarkRead(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		f := newFixture(t)
		caller := f.addUser(t, &usermodels.User{Email: "anna@example.com"})
		notification, err := f.service.Save(context.Background(), caller.ID, models.TypeInfo, "hello")
		require.NoError(t, err)

		req := testutil.WithUserID(testutil.NewRequest(t, http.MethodPut,
			"/notifications/"+notification.ID.String()+"/read"), caller.ID)
		rr := testutil.DoRequest(f.router, req)

		testutil.AssertStatus(t, rr, http.StatusNoContent)
	})

	t.Run("someone else's notification", func(t *testing.T) {
		f := newFixture(t)
		owner := f.addUser(t, &usermodels.User{Email: "anna@example.com"})
		stranger := f.addUser(t, &usermodels.User{Email: "sam@example.com"})
		notification, err := f.service.Save(context.Background(), owner.ID, models.TypeInfo, "hello")
		require.NoError(t, err)

		req := testutil.WithUserID(testutil.NewRequest(t, http.MethodPut,
			"/notifications/"+notification.ID.String()+"/read"), stranger.ID)
		rr := testutil.DoRequest(f.router, req)

		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
	})

	t.Run("malformed id", func(t *testing.T) {
		f := newFixture(t)
		caller := f.addUser(t, &usermodels.User{Email: "anna@example.com"})

		req := testutil.WithUserID(testutil.NewRequest(t, http.MethodPut, "/notifications/nope/read"), caller.ID)
		rr := testutil.DoRequest(f.router, req)

		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})

	t.Run("unknown id", func(t *testing.T) {
		f := newFixture(t)
		caller := f.addUser(t, &usermodels.User{Email: "anna@example.com"})

		req := testutil.WithUserID(testutil.NewRequest(t, http.MethodPut,
			"/notifications/"+domain.NewNotificationID().String()+"/read"), caller.ID)
		rr := testutil.DoRequest(f.router, req)

		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})
}

func TestIncidentAlert(t *testing.T) {
	latDegrees := func(km float64) string {
		return fmt.Sprintf("%f", km/(6371.0*math.Pi/180))
	}

	t.Run("alerts users inside the widened radius", func(t *testing.T) {
		f := newFixture(t)
		caller := f.addUser(t, &usermodels.User{Email: "dispatcher@example.com"})
		f.addUser(t, &usermodels.User{Email: "near@example.com", Latitude: latDegrees(6.0), Longitude: "0"})
		f.addUser(t, &usermodels.User{Email: "far@example.com", Latitude: latDegrees(8.0), Longitude: "0"})

		req := testutil.WithUserID(testutil.NewJSONRequest(t, http.MethodPost, "/incidents/alert",
			geo.Incident{Latitude: 0, Longitude: 0, ImpactRadius: 5.0, Severity: "HIGH"}), caller.ID)
		rr := testutil.DoRequest(f.router, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[map[string]int](t, rr)
		assert.Equal(t, 1, (*resp)["alertedUsers"])
	})

	t.Run("rejects a non-positive radius", func(t *testing.T) {
		f := newFixture(t)
		caller := f.addUser(t, &usermodels.User{Email: "dispatcher@example.com"})

		req := testutil.WithUserID(testutil.NewJSONRequest(t, http.MethodPost, "/incidents/alert",
			geo.Incident{ImpactRadius: 0}), caller.ID)
		rr := testutil.DoRequest(f.router, req)

		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})
}
