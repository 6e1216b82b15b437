package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"hearth/internal/cache"
	"hearth/internal/events"
	"hearth/internal/geo"
	householdhandler "hearth/internal/household/handler"
	householdservice "hearth/internal/household/service"
	householdstore "hearth/internal/household/store"
	hearthhttp "hearth/internal/http"
	membershiphandler "hearth/internal/membership/handler"
	membershipservice "hearth/internal/membership/service"
	membershipstore "hearth/internal/membership/store"
	"hearth/internal/notification/dispatch"
	notificationhandler "hearth/internal/notification/handler"
	notificationservice "hearth/internal/notification/service"
	notificationstore "hearth/internal/notification/store"
	"hearth/internal/platform/config"
	"hearth/internal/platform/httpserver"
	"hearth/internal/platform/logger"
	"hearth/internal/platform/metrics"
	"hearth/internal/platform/middleware"
	"hearth/internal/platform/postgres"
	platformredis "hearth/internal/platform/redis"
	"hearth/internal/realtime"
	userstore "hearth/internal/user/store"
	"hearth/pkg/email"
	"hearth/pkg/platform/tx"
)

func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg := config.FromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)

	var (
		users         userstore.Store
		households    householdstore.Store
		requests      membershipstore.Store
		notifications notificationstore.Store
		runner        tx.Runner = tx.NopRunner{}
	)
	if cfg.PostgresDSN != "" {
		db, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		users = userstore.NewPostgres(db)
		households = householdstore.NewPostgres(db)
		requests = membershipstore.NewPostgres(db)
		notifications = notificationstore.NewPostgres(db)
		runner = tx.SQLRunner{DB: db}
		log.Info("using postgres stores")
	} else {
		users = userstore.NewMemory()
		households = householdstore.NewMemory()
		requests = membershipstore.NewMemory()
		notifications = notificationstore.NewMemory()
		log.Info("using in-memory stores")
	}

	hub := realtime.NewHub(log)

	rdb, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	var publisher dispatch.Publisher = hub
	if rdb != nil {
		defer rdb.Close()
		publisher = realtime.NewRedisPublisher(rdb.Client, realtime.DefaultChannel)
		log.Info("redis bridge enabled")
	}

	var recent cache.Store = cache.NewMemory()
	if rdb != nil {
		recent = cache.NewRedis(rdb.Client)
	}

	var sink events.Sink
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			return err
		}
		defer kafka.Close()
		sink = kafka
		log.Info("kafka event mirror enabled", "topic", cfg.KafkaTopic)
	}

	dispatcher := dispatch.New(publisher, users, sink, m, log)
	resolver := geo.NewResolver(users, log)
	notificationSvc := notificationservice.New(notifications, users, resolver, dispatcher, recent, m, log)
	householdSvc := householdservice.New(households, users, requests, notificationSvc, runner, m, log)
	membershipSvc := membershipservice.New(requests, users, households, householdSvc, notificationSvc, email.NopSender{}, log)

	router := hearthhttp.NewRouter(hearthhttp.Deps{
		Households:    householdhandler.New(householdSvc, log),
		Memberships:   membershiphandler.New(membershipSvc, log),
		Notifications: notificationhandler.New(notificationSvc, log),
		Websocket:     realtime.NewHandler(hub, log),
		Validator:     middleware.NewHS256Validator(cfg.JWTSigningKey),
		Metrics:       m,
		Logger:        log,
	})

	server := httpserver.New(cfg.Addr, router)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if rdb != nil {
		group.Go(func() error {
			return realtime.Listen(ctx, rdb.Client, realtime.DefaultChannel, hub, log)
		})
	}
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("shutdown complete")
	return nil
}
