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

	"concert-booking/config"
	"concert-booking/internal/api"
	"concert-booking/internal/broker"
	"concert-booking/internal/service"
	"concert-booking/internal/store"
	"concert-booking/internal/util"
	"concert-booking/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting payment service")

	if cfg.Observ.TracingEnabled {
		tp, err := util.InitTracer("payment-service", cfg.Observ.JaegerEndpoint)
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
	}

	var payments store.PaymentStore
	switch cfg.Store.Backend {
	case "postgres":
		pg, err := store.NewPostgresStore(cfg.Store.URL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pg.Close()
		payments = pg
		log.Println("Postgres store connected")
	default:
		payments = store.NewMemoryStore()
	}

	var publisher *broker.EventPublisher
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicAudit)
		defer producer.Close()
		publisher = broker.NewEventPublisher(producer)
		log.Println("Kafka producer initialized")
	}

	bookingClient := service.NewBookingClient(cfg.Booking.BaseURL)

	settler := worker.NewSettlementWorker(
		payments,
		bookingClient,
		publisher,
		cfg.Settlement.Delay,
		cfg.Settlement.SuccessRate,
		cfg.Settlement.QueueSize,
	)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	settler.Start(workerCtx)

	paymentService := service.NewPaymentService(payments, bookingClient, settler, publisher)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewPaymentHandler(paymentService)
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
	settler.Stop()

	log.Println("Server exited")
}
