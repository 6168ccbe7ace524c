package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/cardano-foundation/veridian-wallet-sub003/internal/host"
	jwttoken "github.com/cardano-foundation/veridian-wallet-sub003/internal/jwt_token"
	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/feed"
	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/handler"
	notificationmetrics "github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/metrics"
	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/notifier"
	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/ports"
	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/service"
	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/store/record"
	"github.com/cardano-foundation/veridian-wallet-sub003/internal/platform/config"
	"github.com/cardano-foundation/veridian-wallet-sub003/internal/platform/httpserver"
	"github.com/cardano-foundation/veridian-wallet-sub003/internal/platform/logger"
	"github.com/cardano-foundation/veridian-wallet-sub003/internal/platform/metrics"
	"github.com/cardano-foundation/veridian-wallet-sub003/internal/platform/redis"
)

const shutdownTimeout = 10 * time.Second

// main wires config, storage, the notification engine, the Kafka feed and the
// control API, then runs until SIGINT or SIGTERM.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := logger.New(cfg.Log.Format, cfg.Log.Level)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("notifyd stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	store, health, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	session := host.NewSession(log)
	toasts := host.NewToasts(log)
	tray := notifier.NewMemory(notifier.WithLogger(log))

	engine, err := service.New(store, tray, session,
		service.WithLogger(log),
		service.WithConfig(cfg.Notification),
		service.WithMetrics(notificationmetrics.New(reg)),
		service.WithErrorReporter(toasts),
		service.WithFallbackNavigator(session.FallbackNavigate),
	)
	if err != nil {
		return fmt.Errorf("build notification service: %w", err)
	}
	engine.Start(ctx)
	defer engine.Stop()

	engine.RequestPermissions(ctx)
	if target := engine.GetTargetProfileIDForColdStart(); target != "" {
		session.SwitchProfile(target)
	}
	engine.SetProfileSwitcher(session.SwitchProfile)
	engine.SetNavigator(session.Navigate)
	engine.CompleteColdStart()

	inbox := host.NewInbox(session, engine)
	jwtService := jwttoken.NewJWTService(cfg.Server.APISigningKey, "notifyd", "notifyd-control")

	r := chi.NewRouter()
	handler.New(engine, session, inbox, tray, log, metrics.New(reg), jwttoken.NewJWTServiceAdapter(jwtService)).Register(r)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := health(r.Context()); err != nil {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httpserver.New(cfg.Server.Addr, r)

	var consumer *feed.Consumer
	if len(cfg.Kafka.Brokers) > 0 {
		consumer, err = feed.New(feed.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			Group:   cfg.Kafka.Group,
		}, inbox.Deliver, feed.WithLogger(log))
		if err != nil {
			return err
		}
		defer consumer.Close()
		if cfg.Kafka.CreateTopic {
			if err := consumer.EnsureTopic(ctx, 1, 1); err != nil {
				return err
			}
		}
	} else {
		log.Info("kafka feed disabled, records arrive through the control API only")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting notifyd", "addr", cfg.Server.Addr, "store", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("control api: %w", err)
		}
		return nil
	})

	if consumer != nil {
		g.Go(func() error {
			return consumer.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		log.Info("notifyd stopped")
		return nil
	})

	return g.Wait()
}

// openStore returns the ledger backend selected by STORE_BACKEND, a health
// probe for it and a cleanup func.
func openStore(ctx context.Context, cfg config.Config) (ports.RecordStore, func(context.Context) error, func(), error) {
	noop := func(context.Context) error { return nil }

	switch cfg.Store.Backend {
	case config.StoreRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, nil, err
		}
		return record.NewRedis(client.Client), client.Health, func() { _ = client.Close() }, nil

	case config.StorePostgres:
		db, err := sql.Open("postgres", cfg.Store.DatabaseURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		store := record.NewPostgres(db)
		if err := store.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
		return store, db.PingContext, func() { _ = db.Close() }, nil

	default:
		return record.NewInMemory(), noop, func() {}, nil
	}
}
