package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Dulateaad/TrustChecker/internal/analysis"
	"github.com/Dulateaad/TrustChecker/internal/app"
	"github.com/Dulateaad/TrustChecker/internal/config"
	"github.com/Dulateaad/TrustChecker/internal/events"
	"github.com/Dulateaad/TrustChecker/internal/observability"
	"github.com/Dulateaad/TrustChecker/internal/upload"
	"github.com/Dulateaad/TrustChecker/internal/web"
)

func main() {
	cfg := config.Load()

	application := app.New(cfg)
	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("Application startup failed")
	}
	defer application.Shutdown()

	// Audit publisher; runs in log-only mode unless Kafka is configured
	publisher := events.New(&events.Config{
		Enabled:      cfg.Kafka.Enabled,
		Brokers:      cfg.Kafka.Brokers,
		TopicPartial: cfg.Kafka.TopicPartial,
		TopicFinal:   cfg.Kafka.TopicFinal,
		TopicReports: cfg.Kafka.TopicReports,
		Principal:    cfg.Kafka.Principal,
	})
	defer publisher.Close()

	obsServer := observability.NewServer(":" + cfg.Observability.MetricsPort)
	obsServer.Start()

	router := web.NewRouter(&web.Handlers{
		Analysis:   analysis.NewClient(cfg.Analysis.BaseURL, cfg.Analysis.LiveTextPath, cfg.Analysis.Timeout),
		Upload:     upload.NewClient(cfg.Upload.IssuerURL, cfg.Upload.Timeout),
		GatewayURL: cfg.Gateway.URL,
	})

	webServer := &http.Server{
		Addr:         ":" + cfg.Service.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Service.HTTPPort).Msg("TrustChecker web server started")
		if err := webServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Web server failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := webServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Web server shutdown failed")
	}
	if err := obsServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Observability server shutdown failed")
	}
}
