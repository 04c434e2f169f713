package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"weyfar-booking/internal/auth"
	"weyfar-booking/internal/booking"
	"weyfar-booking/internal/booking/booking_api"
	bookingdb "weyfar-booking/internal/booking/db"
	bookingredis "weyfar-booking/internal/booking/redis"
	"weyfar-booking/internal/config"
	"weyfar-booking/internal/database/migrations"
	"weyfar-booking/internal/kafka"
	"weyfar-booking/internal/logger"
	"weyfar-booking/internal/models"
	"weyfar-booking/internal/notification"
	"weyfar-booking/internal/payment"
	promodb "weyfar-booking/internal/promo/db"
	"weyfar-booking/internal/search"
	"weyfar-booking/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

func verifyConnections(ctx context.Context, cfg *config.Config, log *logger.Logger) (*bun.DB, *redis.Client) {
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.Database.Username, cfg.Database.Password,
			cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	}

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", dsn)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	log.Info("DATABASE", "✅ PostgreSQL connection successful")

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)
	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("✅ Redis connection successful to %s", cfg.Redis.Addr))

	return bunDB, redisClient
}

func searchOffersHandler(provider *search.Provider, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := search.Query{
			Type:   models.BookingType(r.URL.Query().Get("type")),
			Origin: r.URL.Query().Get("origin"),
			Dest:   r.URL.Query().Get("destination"),
		}
		if !q.Type.Valid() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(utils.ErrorResponse("Invalid request", "type must be one of: flight hotel car cruise"))
			return
		}
		if date := r.URL.Query().Get("date"); date != "" {
			if parsed, err := time.Parse("2006-01-02", date); err == nil {
				q.Date = parsed
			}
		}

		offers, err := provider.SearchOffers(r.Context(), q)
		if err != nil {
			log.Error("SEARCH", fmt.Sprintf("Offer lookup failed: %v", err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			json.NewEncoder(w).Encode(utils.ErrorResponse("Offer lookup failed", err.Error()))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(utils.SuccessResponse("Offers retrieved", offers))
	}
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Booking Service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	log.Info("APP", "Verifying database connections")
	bunDB, redisClient := verifyConnections(ctx, cfg, log)
	defer bunDB.Close()
	defer redisClient.Close()

	if autoMigrate, _ := strconv.ParseBool(os.Getenv("AUTO_MIGRATE")); autoMigrate {
		opts := migrations.DefaultOptions()
		opts.SeedData, _ = strconv.ParseBool(os.Getenv("SEED_DATA"))
		runner := migrations.NewRunner(bunDB, opts, log)
		if err := runner.Run(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
		}
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers, kafka.Topics{
		BookingCreated:   cfg.Kafka.Topics.BookingCreated,
		BookingConfirmed: cfg.Kafka.Topics.BookingConfirmed,
		BookingCancelled: cfg.Kafka.Topics.BookingCancelled,
	}, log)
	defer producer.Close()
	log.Info("KAFKA", "Kafka producer initialized successfully")

	requiredTopics := []string{
		cfg.Kafka.Topics.BookingCreated,
		cfg.Kafka.Topics.BookingConfirmed,
		cfg.Kafka.Topics.BookingCancelled,
	}
	if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	} else {
		log.Info("KAFKA", "Required topics ensured successfully")
	}

	gateway, err := payment.NewStripeGateway(cfg.Payment, log)
	if err != nil {
		log.Fatal("STRIPE", fmt.Sprintf("Payment gateway initialization failed: %v", err))
	}

	notifier := notification.NewEmailNotifier(cfg.Email, log)
	provider := search.NewProvider(&http.Client{Timeout: 10 * time.Second}, cfg.Search)

	bookingService := booking.NewService(
		&bookingdb.DB{Bun: bunDB},
		&promodb.DB{Bun: bunDB},
		bookingredis.NewGuard(redisClient),
		gateway,
		producer,
		notifier,
		log,
	)

	handler := booking_api.NewHandler(bookingService)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	// --- Public Routes ---
	r.Get("/api/search/offers", searchOffersHandler(provider, log))
	log.Info("ROUTER", "Offer search endpoint registered at /api/search/offers")

	if auth.Enabled() {
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware())
			handler.RegisterRoutes(r)
		})
		log.Info("AUTH", "JWT middleware applied to booking routes")
	} else {
		handler.RegisterRoutes(r)
		log.Warn("AUTH", "Auth disabled, booking routes are public")
	}
	log.Info("ROUTER", "Booking routes registered under /api/booking")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Booking Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Booking Service shutdown complete")
	}
}
