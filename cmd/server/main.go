package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/stayfinder/internal/config"
	"github.com/Skotchmaster/stayfinder/internal/db"
	"github.com/Skotchmaster/stayfinder/internal/events"
	"github.com/Skotchmaster/stayfinder/internal/httpserver"
	"github.com/Skotchmaster/stayfinder/internal/jobs"
	"github.com/Skotchmaster/stayfinder/internal/logging"
	authmw "github.com/Skotchmaster/stayfinder/internal/middleware/auth"
	"github.com/Skotchmaster/stayfinder/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/stayfinder/internal/middleware/logging"
	"github.com/Skotchmaster/stayfinder/internal/notify"
	"github.com/Skotchmaster/stayfinder/internal/repo"
	"github.com/Skotchmaster/stayfinder/internal/search"
	"github.com/Skotchmaster/stayfinder/internal/service"
)

type publisher interface {
	service.EventPublisher
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	config.MustNonEmpty(cfg.SessionSecret, "SESSION_SECRET")

	logger := logging.New(cfg.Log.Level, cfg.Log.Format).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx := context.Background()

	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db_init_error", "error", err)
		os.Exit(1)
	}
	if err := db.Migrate(gdb); err != nil {
		logger.Error("db_migrate_error", "error", err)
		os.Exit(1)
	}
	store := &repo.GormRepo{DB: gdb}

	var prod publisher = events.Noop{}
	if len(cfg.Kafka.Brokers) > 0 {
		if err := events.EnsureTopics(cfg.Kafka.Brokers[0], service.Topics(), 1); err != nil {
			logger.Warn("kafka_topics_error", "error", err)
		}
		prod = events.NewProducer(cfg.Kafka.Brokers)
	} else {
		logger.Info("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	var index service.ListingIndex
	if cfg.Search.URL != "" {
		config.MustNonEmpty(cfg.Search.Index, "ES_INDEX")
		es, err := search.NewClient(ctx, cfg.Search)
		if err != nil {
			logger.Warn("search_disabled", "reason", "elasticsearch unavailable", "error", err)
		} else {
			index = &search.ListingIndex{ES: es, Index: cfg.Search.Index}
		}
	}

	var mailer service.Mailer = notify.LogMailer{}
	if cfg.Mail.SendGridAPIKey != "" {
		mailer = notify.NewSendGridMailer(cfg.Mail, "")
	}

	secret := []byte(cfg.SessionSecret)
	authSvc := &service.AuthService{Repo: store, Secret: secret, Events: prod}
	listingSvc := &service.ListingService{Repo: store, Index: index, Events: prod}
	bookingSvc := &service.BookingService{Repo: store, Listings: listingSvc, Events: prod, Mailer: mailer}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	if len(cfg.HTTP.CORSOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.HTTP.CORSOrigins,
			AllowCredentials: true,
			AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, "X-CSRF-Token"},
		}))
	}
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(csrf.Middleware(csrf.Config{
		Secure:    cfg.HTTP.CookieSecure,
		SkipPaths: []string{"/health/live", "/health/ready"},
	}))

	httpserver.Register(e, &httpserver.Deps{
		Repo:           store,
		Session:        &authmw.SessionAuth{Svc: authSvc, CookieSecure: cfg.HTTP.CookieSecure},
		AuthHandler:    &httpserver.AuthHTTP{Svc: authSvc, CookieSecure: cfg.HTTP.CookieSecure},
		ListingHandler: &httpserver.ListingHTTP{Svc: listingSvc, Bookings: bookingSvc},
		BookingHandler: &httpserver.BookingHTTP{Svc: bookingSvc},
		LedgerHandler:  &httpserver.LedgerHTTP{Svc: &service.LedgerService{Repo: store, Events: prod}},
		ProfileHandler: &httpserver.ProfileHTTP{Svc: &service.ProfileService{Repo: store}},
		AdminHandler: &httpserver.AdminHTTP{Svc: &service.AdminService{
			Repo: store, Listings: listingSvc, Events: prod,
		}},
	})

	sched, err := jobs.NewScheduler(cfg.Scheduler, jobs.NewJobRunner(store, listingSvc, logger, nil), logger)
	if err != nil {
		logger.Error("scheduler_init_error", "error", err)
		os.Exit(1)
	}
	sched.Start()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		logger.Info("http_server_started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	go func() {
		<-quit
		logger.Warn("force_exit")
		os.Exit(1)
	}()

	logger.Info("shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	sched.Stop()

	if sqlDB, err := gdb.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db_close_error", "error", err)
		}
	}
	if err := prod.Close(); err != nil {
		logger.Error("kafka_close_error", "error", err)
	}

	logger.Info("shutdown_complete")
}
