package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/feeledger/feeledger/internal/account"
	"github.com/feeledger/feeledger/internal/api"
	"github.com/feeledger/feeledger/internal/config"
	"github.com/feeledger/feeledger/internal/database"
	"github.com/feeledger/feeledger/internal/ledger"
	"github.com/feeledger/feeledger/internal/licensing"
	"github.com/feeledger/feeledger/internal/report"
	"github.com/feeledger/feeledger/internal/school"
	"github.com/feeledger/feeledger/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		slog.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	pool := db.Pool()
	calendar := licensing.NewCalendar(cfg.Location())

	licenses := licensing.NewService(licensing.NewRepository(pool), calendar)
	accountRepo := account.NewRepository(pool)
	accounts := account.NewService(accountRepo, licenses, cfg.BcryptCost)
	sessions := session.NewService(session.NewRepository(pool), accounts, accountRepo, calendar, cfg.SessionTTL())
	schoolRepo := school.NewRepository(pool)
	ledgerRepo := ledger.NewRepository(pool)
	reports := report.NewService(ledgerRepo, schoolRepo, accountRepo, calendar, cfg.Currency)

	if cfg.SeedUsersPath != "" {
		if err := accounts.SeedFromFile(ctx, cfg.SeedUsersPath); err != nil {
			slog.Error("failed to seed users", "error", err, "path", cfg.SeedUsersPath)
			os.Exit(1)
		}
	}

	go sessions.RunCleanup(ctx, cfg.SessionCleanupInterval)

	router := api.NewRouter(api.RouterDeps{
		DBPinger:  db,
		Version:   cfg.Version,
		Sessions:  sessions,
		Cookies:   session.NewCookieJar([]byte(cfg.SessionSecret), cfg.SessionTTL(), cfg.SecureCookie),
		Accounts:  accounts,
		Licensing: licenses,
		School:    schoolRepo,
		Ledger:    ledgerRepo,
		Reports:   reports,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting feeledger server", "port", cfg.Port, "version", cfg.Version, "timezone", cfg.Timezone)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
