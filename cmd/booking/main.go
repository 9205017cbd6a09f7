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
	"concert-booking/internal/cache"
	"concert-booking/internal/lock"
	"concert-booking/internal/service"
	"concert-booking/internal/store"
	"concert-booking/internal/util"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting booking service")

	if cfg.Observ.TracingEnabled {
		tp, err := util.InitTracer("booking-service", cfg.Observ.JaegerEndpoint)
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

	var concerts store.ConcertStore
	var bookings store.BookingStore
	switch cfg.Store.Backend {
	case "postgres":
		pg, err := store.NewPostgresStore(cfg.Store.URL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pg.Close()
		concerts, bookings = pg, pg
		log.Println("Postgres store connected")
	default:
		mem := store.NewMemoryStore()
		concerts, bookings = mem, mem
	}

	seedCtx, seedCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := concerts.SeedConcerts(seedCtx, store.GenerateConcerts(cfg.Booking.SeedEvents)); err != nil {
		log.Fatalf("Failed to seed concerts: %v", err)
	}
	seedCancel()
	log.Printf("Seeded %d concerts", cfg.Booking.SeedEvents)

	var listingCache cache.Cache
	var locks lock.Manager
	if cfg.Cache.Backend == "redis" || cfg.Booking.LockBackend == "redis" {
		rdb, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rdb.Close()
		log.Println("Redis connected")

		if cfg.Cache.Backend == "redis" {
			listingCache = cache.NewRedis(rdb)
		}
		if cfg.Booking.LockBackend == "redis" {
			locks = lock.NewRedisManager(rdb, 10*time.Second)
		}
	}
	if listingCache == nil {
		listingCache = cache.NewMemory()
	}
	if locks == nil {
		locks = lock.NewMemoryManager()
	}

	var publisher *broker.EventPublisher
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicAudit)
		defer producer.Close()
		publisher = broker.NewEventPublisher(producer)
		log.Println("Kafka producer initialized")
	}

	bookingService := service.NewBookingService(concerts, bookings, locks, publisher)
	catalogService := service.NewCatalogService(concerts, listingCache, cfg.Cache.TTL)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewBookingHandler(bookingService, catalogService)
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

	log.Println("Server exited")
}
