// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/trust-admin/internal/apiclient"
	"github.com/olegiv/trust-admin/internal/auth"
	"github.com/olegiv/trust-admin/internal/config"
	"github.com/olegiv/trust-admin/internal/handler"
	"github.com/olegiv/trust-admin/internal/live"
	"github.com/olegiv/trust-admin/internal/logging"
	"github.com/olegiv/trust-admin/internal/middleware"
	"github.com/olegiv/trust-admin/internal/render"
	"github.com/olegiv/trust-admin/internal/resource"
	"github.com/olegiv/trust-admin/internal/session"
	"github.com/olegiv/trust-admin/internal/storage"
	"github.com/olegiv/trust-admin/internal/store"
	"github.com/olegiv/trust-admin/internal/upload"
	"github.com/olegiv/trust-admin/internal/version"
	"github.com/olegiv/trust-admin/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "trustadmin - memorial trust admin dashboard\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRUSTADMIN_API_BASE_URL              Backend API base URL (required)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRUSTADMIN_SESSION_SECRET            Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRUSTADMIN_DB_PATH                   SQLite database path (default: ./data/trustadmin.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRUSTADMIN_SERVER_PORT               Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRUSTADMIN_ENV                       Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRUSTADMIN_REDIS_URL                 Redis URL for session storage (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRUSTADMIN_EXPIRY_CHECK_INTERVAL     Session expiry poll interval (default: 15s)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRUSTADMIN_LOGOUT_REDIRECT_DELAY_MS  Delay before the login redirect on 401 (default: 1500)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRUSTADMIN_EVENT_RETENTION           Event log retention (default: 720h, 0 keeps all)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("trustadmin %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	startTime := time.Now()

	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	versionInfo := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// WARN and ERROR records also land in the event log.
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	retention := logging.NewRetention(db, cfg.EventRetention, logging.DefaultRetentionSchedule, logger)
	if err := retention.Start(ctx); err != nil {
		return fmt.Errorf("starting event log retention: %w", err)
	}
	defer retention.Stop()

	// Process session over durable local storage
	st := storage.New(storage.Config{RedisURL: cfg.RedisURL, Prefix: cfg.StoragePrefix, DB: db}, logger)
	defer func() { _ = st.Close() }()

	adminSession, err := auth.NewSession(ctx, st, logger)
	if err != nil {
		return fmt.Errorf("restoring session: %w", err)
	}

	hub := live.NewHub(logger, handler.RouteLogin)
	detach := hub.Attach(adminSession)
	defer func() {
		detach()
		hub.Close()
	}()

	watcher := auth.NewWatcher(adminSession, hub, logger, cfg.ExpiryCheckInterval)
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("starting session watcher: %w", err)
	}
	defer watcher.Stop()

	client := apiclient.New(apiclient.Options{
		BaseURL:       cfg.APIBaseURL,
		Timeout:       cfg.APITimeout,
		Session:       adminSession,
		Navigator:     hub,
		RedirectDelay: cfg.LogoutRedirectDelay(),
		UserAgent:     versionInfo.UserAgent(),
		Logger:        logger,
	})
	registry := resource.NewRegistry(client, logger)

	sessionManager := session.New(db, cfg.IsDevelopment())

	var nav []render.NavItem
	for _, d := range registry.All() {
		def := d.Definition()
		nav = append(nav, render.NavItem{Name: def.Name, Title: def.Title, Path: handler.DomainURL(def.Name)})
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    web.Templates(),
		SessionManager: sessionManager,
		Session:        adminSession,
		Nav:            nav,
		Version:        versionInfo.Version,
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig(), logger)
	go loginProtection.Run(ctx)

	processor := upload.NewProcessor(cfg.UploadMaxDimension, cfg.MaxUploadBytes())

	authHandler := handler.NewAuthHandler(client, adminSession, renderer, loginProtection, logger)
	dashboardHandler := handler.NewDashboardHandler(registry, renderer, logger)
	contentHandler := handler.NewContentHandler(registry, renderer, processor, cfg.MaxUploadBytes(), logger)
	eventsHandler := handler.NewEventsHandler(db, renderer, logger)
	helpHandler := handler.NewHelpHandler(renderer, web.Docs(), versionInfo, cfg.APIBaseURL, startTime, logger)
	healthHandler := handler.NewHealthHandler(db, adminSession, versionInfo.Version)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))

	// Health probes carry no session or CSRF state.
	r.Get(handler.RouteHealth, healthHandler.Health)
	r.Get(handler.RouteHealthLive, healthHandler.Liveness)
	r.Get(handler.RouteHealthReady, healthHandler.Readiness)

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(web.Static()))))

	r.Group(func(r chi.Router) {
		r.Use(chimw.Compress(5))
		r.Use(middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment(), cfg.ServerAddr())))
		r.Use(sessionManager.LoadAndSave)

		r.Get(handler.RouteRoot, func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, handler.RouteAdmin, http.StatusSeeOther)
		})

		r.With(middleware.RedirectIfAuthenticated(adminSession, handler.RouteAdmin)).
			Get(handler.RouteLogin, authHandler.LoginForm)
		r.With(loginProtection.Middleware()).Post(handler.RouteLogin, authHandler.Login)
		r.Post(handler.RouteLogout, authHandler.Logout)

		r.Route(handler.RouteAdmin, func(r chi.Router) {
			r.Use(middleware.RequireAdmin(adminSession, logger))

			r.Get(handler.RouteRoot, dashboardHandler.Dashboard)
			r.Get(handler.RouteEventLog, eventsHandler.List)
			r.Get(handler.RouteHelp, helpHandler.Overview)
			r.Get(handler.RouteHelpSlug, helpHandler.Guide)
			r.Handle(handler.RouteLive, hub)

			contentHandler.Register(r)
		})
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.APITimeout + 30*time.Second, // a save may wait on the backend for the full API timeout
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "api", cfg.APIBaseURL, "version", versionInfo.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")

	// Close live streams first so Shutdown does not wait on them.
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
