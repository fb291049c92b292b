package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sifan077/LinkPulse/config"
	"github.com/sifan077/LinkPulse/internal/app/auth"
	appmodel "github.com/sifan077/LinkPulse/internal/app/model"
	apprepository "github.com/sifan077/LinkPulse/internal/app/repository"
	appserver "github.com/sifan077/LinkPulse/internal/app/server"
	"github.com/sifan077/LinkPulse/internal/app/service"
	"github.com/sifan077/LinkPulse/internal/infra/geoip"
	"github.com/sifan077/LinkPulse/internal/infra/logger"
	infraNATS "github.com/sifan077/LinkPulse/internal/infra/nats"
	infraPostgres "github.com/sifan077/LinkPulse/internal/infra/postgres"
	infraPrometheus "github.com/sifan077/LinkPulse/internal/infra/prometheus"
	infraRedis "github.com/sifan077/LinkPulse/internal/infra/redis"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.L().Fatal("Failed to load config", zap.Error(err))
	}

	log := logger.MustInit(logger.FromApp(cfg.App, "linkpulse-api"))
	defer func() { _ = logger.Sync() }()

	log.Info("Configuration loaded successfully",
		zap.String("env", cfg.App.Env),
		zap.String("http_addr", cfg.HTTP.Addr),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("postgres_db", cfg.Postgres.Database),
		zap.String("redis_host", cfg.Redis.Host),
		zap.Int("redis_port", cfg.Redis.Port),
		zap.Bool("nats_enabled", cfg.NATS.Enabled),
		zap.Bool("geo_enabled", cfg.Geo.Enabled),
		zap.String("analytics_tz", cfg.Analytics.Timezone),
	)

	gormDB, err := infraPostgres.NewGorm(cfg.Postgres, log)
	if err != nil {
		log.Fatal("Failed to open GORM connection", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := infraPostgres.AutoMigrate(ctx, gormDB, &appmodel.User{}, &appmodel.ShortLink{}, &appmodel.ClickEvent{}); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer pool.Close()
	log.Info("Connected to Postgres successfully")

	redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Connected to Redis successfully")

	var notifier service.ClickNotifier
	if cfg.NATS.Enabled {
		natsConn, js, err := infraNATS.Connect(cfg.NATS, "linkpulse-api")
		if err != nil {
			log.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer natsConn.Drain()
		if err := infraNATS.EnsureClickStream(js); err != nil {
			log.Fatal("Failed to prepare click stream", zap.Error(err))
		}
		notifier = service.NewClickPublisher(js)
		log.Info("Connected to NATS successfully")
	} else {
		log.Info("NATS disabled, click events will not be published")
	}

	if !cfg.App.IsDevelopment() {
		promServer := infraPrometheus.NewServer(cfg.Prometheus)
		go func() {
			log.Info("Starting Prometheus metrics server",
				zap.String("addr", promServer.Addr))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	} else {
		log.Info("Skipping Prometheus metrics server in development mode")
	}

	loc, err := cfg.Analytics.Location()
	if err != nil {
		log.Fatal("Invalid analytics timezone", zap.Error(err))
	}

	var geo service.GeoLocator
	if cfg.Geo.Enabled {
		geo = geoip.NewCachedLocator(geoip.NewHTTPLocator(cfg.Geo), redisClient, cfg.Geo.CacheTTL)
	}

	linkRepo := apprepository.NewLinkRepository(gormDB)
	clickRepo := apprepository.NewClickEventRepository(gormDB)
	userRepo := apprepository.NewUserRepository(gormDB)

	codeFilter := service.NewCodeFilter(cfg.ShortCode.FilterCapacity, cfg.ShortCode.FilterFPRate)
	refresher := service.NewCodeFilterRefresher(linkRepo, codeFilter, log, cfg.ShortCode.RefreshInterval)
	if err := refresher.Reload(ctx); err != nil {
		log.Warn("Failed to warm code filter", zap.Error(err))
	}
	go refresher.Start(ctx)

	linkService := service.NewLinkService(linkRepo, service.NewCodeGenerator(appmodel.ShortCodeLength), service.LinkServiceOptions{
		Filter:     codeFilter,
		Geo:        geo,
		GeoTimeout: cfg.Geo.Timeout,
		Notifier:   notifier,
		MaxRetries: cfg.ShortCode.MaxRetries,
		Logger:     log,
	})
	analyticsService := service.NewAnalyticsService(linkRepo, clickRepo, loc)
	authService := service.NewAuthService(
		userRepo,
		auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		auth.NewRevocationStore(redisClient),
		log,
	)

	server := appserver.New(appserver.Dependencies{
		Logger:    log,
		Config:    cfg,
		Postgres:  pool,
		Redis:     redisClient,
		Links:     linkService,
		Analytics: analyticsService,
		Auth:      authService,
	})

	go func() {
		<-ctx.Done()
		log.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("Graceful shutdown failed", zap.Error(err))
		}
	}()

	log.Info("Starting HTTP server", zap.String("addr", cfg.HTTP.Addr))
	if err := server.Listen(cfg.HTTP.Addr); err != nil {
		log.Error("Fiber server exited", zap.Error(err))
	}
}
