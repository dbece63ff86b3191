package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/gorilla/handlers"
	"github.com/joho/godotenv"

	"safetube-pipeline/internal/api"
	"safetube-pipeline/internal/config"
	"safetube-pipeline/internal/download"
	"safetube-pipeline/internal/ledger"
	"safetube-pipeline/internal/logger"
	"safetube-pipeline/internal/queuemsg"
)

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "safetube-api").Info("starting service")

	cfg := config.Load()

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.Region))
	if err != nil {
		log.WithError(err).Fatal("failed to load aws config")
	}

	led := ledger.New(dynamodb.NewFromConfig(awsCfg), cfg.VideosTable)
	queue := queuemsg.New(sqs.NewFromConfig(awsCfg), cfg.QueueURL, cfg.DLQURL)
	prober := download.New(cfg.YtdlpPath)

	handler := api.NewHandler(cfg, led, queue, prober)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{cfg.AllowedOrigins}),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      cors(handler.Router()),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.WithField("addr", srv.Addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server terminated")
		}
	}()

	<-quit
	log.Info("shutdown signal received, draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("forced shutdown")
	}
	log.Info("server stopped cleanly")
}
