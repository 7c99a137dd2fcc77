package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TRY-X-CARE/Shaastrayog/config"
	"github.com/TRY-X-CARE/Shaastrayog/internal/api"
	"github.com/TRY-X-CARE/Shaastrayog/internal/broker"
	"github.com/TRY-X-CARE/Shaastrayog/internal/gateway"
	"github.com/TRY-X-CARE/Shaastrayog/internal/mailer"
	"github.com/TRY-X-CARE/Shaastrayog/internal/redisclient"
	"github.com/TRY-X-CARE/Shaastrayog/internal/service"
	"github.com/TRY-X-CARE/Shaastrayog/internal/shipping"
	"github.com/TRY-X-CARE/Shaastrayog/internal/store"
	"github.com/TRY-X-CARE/Shaastrayog/internal/util"
	"github.com/TRY-X-CARE/Shaastrayog/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting checkout service")

	tp, err := util.InitTracer("checkout-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicFulfillment)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	razorpay := gateway.NewRazorpay(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)
	nimbus := shipping.NewNimbus(cfg.Nimbus.APIKey, cfg.Nimbus.BaseURL, cfg.Business.CallTimeout)
	mail := mailer.New(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.From)

	checkoutService := service.NewCheckoutService(razorpay, db, eventPublisher, mail, cfg.Razorpay.Currency)
	fulfillmentService := service.NewFulfillmentService(nimbus, mail, redisClient,
		cfg.Business.FulfillmentMaxAttempts, cfg.Business.FulfillmentRetryDelay, cfg.Business.CallTimeout)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicFulfillment, cfg.Kafka.ConsumerGroup)
	fulfillmentWorker := worker.NewFulfillmentWorker(consumer, fulfillmentService)
	go func() {
		if err := fulfillmentWorker.Start(workerCtx); err != nil {
			log.Printf("Fulfillment worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(checkoutService, nimbus, mail)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	fulfillmentWorker.Stop()

	log.Println("Server exited")
}
