package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/nail-studio-api/cmd/mainconfig"
	"github.com/wolfman30/nail-studio-api/internal/api/router"
	"github.com/wolfman30/nail-studio-api/internal/app/bootstrap"
	"github.com/wolfman30/nail-studio-api/internal/booking"
	"github.com/wolfman30/nail-studio-api/internal/catalog"
	"github.com/wolfman30/nail-studio-api/internal/chat"
	appconfig "github.com/wolfman30/nail-studio-api/internal/config"
	"github.com/wolfman30/nail-studio-api/internal/contact"
	httpmiddleware "github.com/wolfman30/nail-studio-api/internal/http/middleware"
	"github.com/wolfman30/nail-studio-api/internal/notify"
	"github.com/wolfman30/nail-studio-api/internal/observability/metrics"
	"github.com/wolfman30/nail-studio-api/pkg/logging"
)

const rateLimiterEvictInterval = time.Minute

func main() {
	// Load .env file
	envErr := godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	if envErr != nil {
		logger.Debug("no .env file found, using environment variables")
	}
	logger.Info("starting nail-studio API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler, cleanup, err := buildServer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build server", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ChatUpstreamTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// buildServer wires every service behind the router. Background workers stop
// when ctx is done; cleanup waits for pending notifications and releases
// upstream clients.
func buildServer(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (http.Handler, func(), error) {
	reg, metricsHandler := setupMetrics()

	var ses notify.SESAPI
	if cfg.EmailProvider == "ses" {
		client, err := mainconfig.NewSESClient(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("load aws config: %w", err)
		}
		ses = client
	}
	email, provider := bootstrap.BuildEmailSender(cfg, ses, logger)
	logger.Info("email delivery configured", "provider", provider)
	notifier := notify.NewService(email, cfg.SalonInboxEmail, logger)

	cat := catalog.Default()
	bookingSvc := booking.NewService(booking.Options{
		Store:        bootstrap.BuildSessionStore(ctx, cfg, logger),
		Catalog:      cat,
		Availability: booking.NewRandomAvailability(nil),
		Confirmer:    booking.NewSimulatedConfirmer(cfg.BookingConfirmDelay),
		Notifier:     notifier,
		Metrics:      metrics.NewBookingMetrics(reg),
		Logger:       logger,
	})

	var bedrock chat.BedrockConverseAPI
	if cfg.ChatProvider == "bedrock" {
		client, err := mainconfig.NewBedrockClient(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("load aws config: %w", err)
		}
		bedrock = client
	}
	upstream, err := bootstrap.BuildChatUpstream(cfg, bedrock)
	if err != nil {
		return nil, nil, err
	}
	if err := upstream.Validate(); err != nil {
		logger.Warn("chat upstream is not configured; /api/chat will return errors", "provider", upstream.Provider(), "error", err)
	}

	contactSvc := contact.NewService(cfg.ContactSubmitDelay, notifier, metrics.NewFormMetrics(reg), logger)

	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.RunEviction(ctx, rateLimiterEvictInterval)

	handler := router.New(&router.Config{
		Logger:             logger,
		CatalogHandler:     catalog.NewHandler(cat, logger),
		BookingHandler:     booking.NewHandler(bookingSvc, logger),
		ChatHandler:        chat.NewHandler(upstream, metrics.NewChatMetrics(reg), logger),
		ContactHandler:     contact.NewHandler(contactSvc, logger),
		MetricsHandler:     metricsHandler,
		RateLimiter:        limiter,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	cleanup := func() {
		bookingSvc.Wait()
		contactSvc.Wait()
		if closer, ok := upstream.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				logger.Warn("failed to close chat upstream", "error", err)
			}
		}
	}
	return handler, cleanup, nil
}

func setupMetrics() (*prometheus.Registry, http.Handler) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
