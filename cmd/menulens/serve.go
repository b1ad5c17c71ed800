package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	corecfg "github.com/menulens/menulens/internal/core/config"
	"github.com/menulens/menulens/internal/core/storage/postgres"
	"github.com/menulens/menulens/internal/dashboard"
	"github.com/menulens/menulens/internal/ingestion"
	"github.com/menulens/menulens/internal/live"
	"github.com/menulens/menulens/internal/migrations"
	"github.com/menulens/menulens/internal/observability"
	"github.com/menulens/menulens/internal/server"
	"github.com/menulens/menulens/internal/settings"
	"github.com/menulens/menulens/internal/snapshot"
	"github.com/menulens/menulens/internal/trend"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(loadConfig func() (*corecfg.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server and the live dashboard sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *corecfg.Config) error {
	windows, err := cfg.Analytics.WindowDays()
	if err != nil {
		return err
	}

	// 1. Storage (PostgreSQL)
	db, err := postgres.Open(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := migrations.RunMigrations(db, cfg.Database.AutoMigrate); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	store, err := postgres.NewAdapter(db)
	if err != nil {
		return fmt.Errorf("failed to initialize event store: %w", err)
	}
	defer store.Close()

	// 2. Live feed (Redis Pub/Sub)
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	feed := live.NewRedisFeed(rdb, cfg.Redis.Channel)
	publisher := live.NewRedisPublisher(rdb, cfg.Redis.Channel)

	// 3. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	// 4. Restaurant settings
	settingsCache := settings.NewCache(settings.NewFileLoader(cfg.Settings.Path), cfg.Settings.TTL)
	if _, err := settingsCache.Get(ctx); err != nil {
		return fmt.Errorf("failed to load restaurant settings: %w", err)
	}

	// 5. Trends
	refresher := trend.NewRefresher(
		trend.NewProvider(store),
		windows,
		cfg.Trend.RefreshInterval,
		cfg.Trend.Debounce,
		trend.WithResultCounter(metrics.TrendRefreshTotal),
	)

	// 6. One live session per window
	snapshots := snapshot.NewProvider(store, cfg.Analytics.SnapshotTimeout,
		snapshot.WithDurationObserver(metrics.SnapshotFetchSeconds))

	sessionOpts := []live.SessionOption{
		live.WithSettings(settingsCache),
		live.WithMetrics(metrics),
	}
	if cfg.Trend.Enabled {
		sessionOpts = append(sessionOpts, live.WithNotifier(refresher))
	}

	sessions := make([]*live.Session, 0, len(windows))
	for _, days := range windows {
		sessions = append(sessions, live.NewSession(live.SessionConfig{
			WindowDays:          days,
			ResyncInterval:      cfg.Analytics.ResyncInterval,
			ReconnectDelay:      cfg.Analytics.ReconnectDelay,
			MaxReconnectDelay:   cfg.Analytics.MaxReconnectDelay,
			RecentActivityBound: cfg.Analytics.RecentActivityBound,
		}, feed, snapshots, sessionOpts...))
	}
	manager, err := live.NewManager(sessions...)
	if err != nil {
		return err
	}

	slog.Info("Live sessions initialized",
		"windows", windows,
		"channel", cfg.Redis.Channel,
		"resync_interval", cfg.Analytics.ResyncInterval,
		"trends_enabled", cfg.Trend.Enabled,
	)

	// 7. HTTP
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), cfg.Server.Mode,
		server.WithHealthCheck("database", store),
		server.WithHealthCheck("redis", feed),
		server.WithSessions(manager),
		server.WithMetrics(registry),
	)
	ingestion.NewService(store, cfg.Server.MaxBodySizeMB,
		ingestion.WithPublisher(publisher),
		ingestion.WithMetrics(metrics),
	).RegisterRoutes(srv.Engine)
	dashboard.NewService(manager, refresher, settingsCache).RegisterRoutes(srv.Engine)

	// 8. Run until a signal arrives or a component fails
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return manager.Run(gctx)
	})
	if cfg.Trend.Enabled {
		g.Go(func() error {
			return refresher.Start(gctx)
		})
	} else {
		slog.Info("Trend refresher disabled by config")
	}
	g.Go(func() error {
		return srv.Run(gctx)
	})

	err = g.Wait()
	slog.Info("Shutdown complete")
	return err
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
