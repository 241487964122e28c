package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"order-dashboard/internal/config"
	httpctl "order-dashboard/internal/controllers/http"
	"order-dashboard/internal/infra"
	"order-dashboard/internal/infra/cache"
	mmysql "order-dashboard/internal/infra/mysql"
	"order-dashboard/internal/infra/natsbus"
	"order-dashboard/internal/infra/rabbitmq"
	"order-dashboard/internal/normalizer"
	"order-dashboard/internal/push"
	mysqlrepo "order-dashboard/internal/repository/mysql"
	"order-dashboard/internal/services"
	"order-dashboard/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := infra.NewOrderClient(cfg.APIBaseURL, cfg.APITimeout)
	svc := services.NewDashboardService(client, store.New(),
		normalizer.New(normalizer.WithLocation(cfg.Location)), logger)
	svc.SetLoadTimeout(cfg.APITimeout)

	if cfg.RedisAddr != "" {
		rdb := cache.NewClient(cfg.RedisAddr)
		defer rdb.Close()
		probes := cache.NewStatusCache(rdb, cfg.ProbeTTL)
		if err := probes.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, status probes not cached", "addr", cfg.RedisAddr, "error", err)
		} else {
			svc.SetStatusCache(probes)
		}
	}

	if cfg.MySQL.Enabled() {
		db, err := mmysql.NewMySQL(cfg.MySQL)
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		defer sqlDB.Close()
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
		svc.SetJournal(mysqlrepo.NewJournalRepository(db))
	}

	var manager *push.Manager
	if transport := newTransport(cfg, logger); transport != nil {
		manager = push.NewManager(transport, svc, logger)
		svc.SetConnectivity(manager.Connected)
		if err := manager.StartRetrying(ctx); err != nil {
			logger.Warn("push subscription unavailable, retrying", "driver", cfg.PushDriver, "error", err)
		}
		defer func() {
			if err := manager.Stop(); err != nil {
				logger.Warn("push shutdown", "error", err)
			}
		}()
	}

	if err := svc.LoadAll(ctx); err != nil {
		logger.Warn("initial load failed", "error", err)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), httpctl.RequestLogger(logger))
	httpctl.NewHandler(svc).RegisterRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting order dashboard", "port", cfg.Port, "push", cfg.PushDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newTransport(cfg *config.Config, logger *slog.Logger) push.Transport {
	switch cfg.PushDriver {
	case config.PushAMQP:
		return rabbitmq.NewSubscriber(cfg.AMQPURL, logger)
	case config.PushNATS:
		return natsbus.NewSubscriber(cfg.NATSURL, logger)
	default:
		return nil
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
