package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/parking-reservation/internal/config"
	"github.com/iliyamo/parking-reservation/internal/database"
	"github.com/iliyamo/parking-reservation/internal/handler"
	"github.com/iliyamo/parking-reservation/internal/ledger"
	"github.com/iliyamo/parking-reservation/internal/live"
	"github.com/iliyamo/parking-reservation/internal/logger"
	"github.com/iliyamo/parking-reservation/internal/middleware"
	"github.com/iliyamo/parking-reservation/internal/queue"
	"github.com/iliyamo/parking-reservation/internal/repository"
	"github.com/iliyamo/parking-reservation/internal/router"
	"github.com/iliyamo/parking-reservation/internal/service"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	db, err := database.Open(ctx, cfg.MySQLDSN())
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.AutoMigrate {
		n, err := database.Up(db)
		if err != nil {
			return err
		}
		log.Info("migrations applied", zap.Int("count", n))
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Warn("redis unreachable; rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}

	workers := newWorkerGroup(ctx)
	defer workers.Stop()
	hub := live.NewHub(log)
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb, log)
	notifiers := ledger.Notifiers{cache, hub}
	if cfg.AMQPURL != "" {
		pub := service.NewEventPublisher(cfg.AMQPURL, cfg.EventQueue, log)
		notifiers = append(notifiers, pub)
		consumer := queue.NewConsumer(cfg.AMQPURL, cfg.EventQueue, cfg.EventLogPath, log)
		workers.Go(pub.Run)
		workers.Go(func(ctx context.Context) {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("event consumer stopped", zap.Error(err))
			}
		})
	} else {
		log.Info("AMQP_URL not set; parking events are not published")
	}

	l := ledger.New(repository.NewLedgerStore(db), ledger.WithNotifier(notifiers), ledger.WithLogger(log))

	vehicles := repository.NewVehicleRepo(db)
	rl := config.LoadRateLimitConfig()
	writeRL := rl
	writeRL.Capacity = rl.WriteCapacity
	writeRL.Prefix = rl.Prefix + ":w"

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))

	router.Register(e, router.Deps{
		Health:     handler.NewHealthHandler(db),
		Auth:       handler.NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db), vehicles, log),
		Browse:     handler.NewBrowseHandler(l, repository.NewBuildingRepo(db), log),
		Parking:    handler.NewParkingHandler(l, vehicles, log),
		Owner:      handler.NewOwnerHandler(l, hub, log),
		JWTSecret:  cfg.JWTSecret,
		Cache:      cache.Middleware(),
		ReadLimit:  middleware.NewTokenBucket(rl, rdb, log),
		WriteLimit: middleware.NewTokenBucket(writeRL, rdb, log),
	})

	addr := ":" + cfg.Port
	log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	return serve(ctx, func() error { return e.Start(addr) }, e.Shutdown, workers, log)
}
