package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/splitledger/internal/api"
	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/mail"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/storage/redis"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
)

const shutdownTimeout = 10 * time.Second

func runServe(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		return err
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	resetTokens, closeResetTokens, err := newResetTokenStore(ctx, cfg, store)
	if err != nil {
		return err
	}
	defer closeResetTokens()

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authenticator := auth.NewPasswordAuthenticator(store)
	mailer := newMailer(cfg)

	var google auth.GoogleVerifier
	if cfg.Google.ClientID != "" {
		google = auth.NewOAuthGoogleVerifier(cfg.Google.ClientID, cfg.Google.ClientSecret)
		slog.Info("Google sign-in enabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(registry)

	// Logging runs innermost so it sees the principal set by auth.
	interceptors := connect.WithInterceptors(
		metrics.Interceptor(),
		middleware.RequireAuth(jwtManager, api.PublicAuthProcedures...),
		middleware.LoggingInterceptor(),
	)

	authSvc := service.NewAuthService(authenticator, jwtManager, store, service.AuthServiceOptions{
		ResetTokens:   resetTokens,
		ResetTokenTTL: cfg.Auth.ResetTokenTTL,
		ClientURL:     cfg.ClientURL,
		Mailer:        mailer,
		Google:        google,
	}, slog.Default())

	mux := http.NewServeMux()
	mux.Handle(api.NewAuthServiceHandler(authSvc, interceptors))
	mux.Handle(api.NewGroupServiceHandler(service.NewGroupService(store), interceptors))
	mux.Handle(api.NewExpenseServiceHandler(service.NewExpenseService(store), interceptors))
	mux.Handle(api.NewUserServiceHandler(service.NewUserService(store, authenticator, mailer), interceptors))
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := loggingMiddleware(corsMiddleware(cfg.ClientURL, mux))

	server := &http.Server{
		Addr: cfg.Addr,
		// h2c serves HTTP/2 without TLS for Connect and gRPC clients.
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", cfg.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newResetTokenStore uses Redis when an address is configured and the users
// table otherwise.
func newResetTokenStore(ctx context.Context, cfg *config.Config, store *sqlite.SQLiteStore) (storage.ResetTokenStore, func(), error) {
	if cfg.Redis.Addr == "" {
		return store.ResetTokens(), func() {}, nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
	}
	slog.Info("Reset tokens stored in Redis", "address", cfg.Redis.Addr)

	return redis.NewResetTokenStore(rdb, "splitledger:reset"), func() { rdb.Close() }, nil
}

func newMailer(cfg *config.Config) mail.Sender {
	if cfg.SMTP.Host == "" {
		slog.Warn("SMTP host not set, emails will only be logged")
		return mail.LogSender{}
	}
	return mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
}
