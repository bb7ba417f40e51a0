package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Cyvadra/tv-bots/broker"
	_ "github.com/Cyvadra/tv-bots/broker/binance"
	_ "github.com/Cyvadra/tv-bots/broker/bybit"
	"github.com/Cyvadra/tv-bots/internal/config"
	"github.com/Cyvadra/tv-bots/internal/database"
	"github.com/Cyvadra/tv-bots/internal/handlers"
	"github.com/Cyvadra/tv-bots/internal/logging"
	"github.com/Cyvadra/tv-bots/internal/repository"
	"github.com/Cyvadra/tv-bots/internal/routes"
	"github.com/Cyvadra/tv-bots/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	// Parse command line flags
	configFile := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		logrus.Fatalf("Failed to load config from %s: %v", *configFile, err)
	}

	if err := logging.Setup(cfg.Log); err != nil {
		logrus.Fatalf("Failed to set up logging: %v", err)
	}
	log := logging.Component("main")

	// Initialize database
	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Set up exchanges
	manager := broker.NewManager()
	manager.SetLogger(logging.Component("broker"))
	if err := manager.InitializeExchanges(cfg.ExchangeSettings()); err != nil {
		log.Fatalf("Failed to initialize exchanges: %v", err)
	}

	// Set up services
	tokens := repository.NewTokenStore(db)
	webhookService := services.NewWebhookService(cfg, tokens)
	alertService := services.NewAlertService(
		tokens,
		repository.NewBotStore(db),
		repository.NewAPIKeyStore(db),
		repository.NewTradeStore(db),
		manager,
	)
	notifier := services.NewNotifyService(cfg.ActiveEndpoints())
	alertService.SetNotifier(notifier)

	var janitor *services.Janitor
	if cfg.Janitor.Enabled {
		janitor = services.NewJanitor(cfg.Janitor, tokens)
		if err := janitor.Start(); err != nil {
			log.Fatalf("Failed to start janitor: %v", err)
		}
	}

	// Set up Gin
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := routes.NewRouter(routes.Handlers{
		Webhook: handlers.NewWebhookHandler(webhookService),
		Alert:   handlers.NewAlertHandler(alertService),
	}, cfg.Webhook.PathPrefix)
	if err != nil {
		log.Fatalf("Failed to set up routes: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-stop
		log.Info("Shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.WithError(err).Error("Server shutdown failed")
		}
		if janitor != nil {
			janitor.Stop()
		}
		notifier.Wait()
	}()

	log.WithFields(logrus.Fields{
		"addr":      srv.Addr,
		"exchanges": manager.Names(),
	}).Info("Starting server")
	log.Infof("Webhook issuer: %s/generateWebhook", cfg.Server.PublicURL)
	log.Infof("Alert endpoint: %s%s/<token>", cfg.Server.PublicURL, cfg.Webhook.PathPrefix)
	log.Infof("Health check: http://%s/health", srv.Addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
	<-done
	log.Info("Server stopped")
}
