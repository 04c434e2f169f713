package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"weyfar-booking/internal/booking"
	bookingdb "weyfar-booking/internal/booking/db"
	bookingredis "weyfar-booking/internal/booking/redis"
	"weyfar-booking/internal/config"
	"weyfar-booking/internal/kafka"
	"weyfar-booking/internal/logger"
	"weyfar-booking/internal/notification"
	"weyfar-booking/internal/payment"
	"weyfar-booking/internal/payment/handler"
	promodb "weyfar-booking/internal/promo/db"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Payment Service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}

	cfg := config.Load()
	ctx := context.Background()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.Database.Username, cfg.Database.Password,
			cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	}
	connector := pgdriver.NewConnector(pgdriver.WithDSN(dsn))
	sqldb := sql.OpenDB(connector)
	defer sqldb.Close()

	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to Postgres: %v", err))
	}
	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to Redis: %v", err))
	}
	defer redisClient.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, kafka.Topics{
		BookingCreated:   cfg.Kafka.Topics.BookingCreated,
		BookingConfirmed: cfg.Kafka.Topics.BookingConfirmed,
		BookingCancelled: cfg.Kafka.Topics.BookingCancelled,
	}, log)
	defer producer.Close()

	gateway, err := payment.NewStripeGateway(cfg.Payment, log)
	if err != nil {
		log.Fatal("STRIPE", fmt.Sprintf("Payment gateway initialization failed: %v", err))
	}

	bookingService := booking.NewService(
		&bookingdb.DB{Bun: bunDB},
		&promodb.DB{Bun: bunDB},
		bookingredis.NewGuard(redisClient),
		gateway,
		producer,
		notification.NewEmailNotifier(cfg.Email, log),
		log,
	)

	paymentHandler := handler.NewPaymentHandler(bookingService, log)

	r := gin.Default()
	paymentHandler.RegisterRoutes(r)

	port := os.Getenv("PAYMENT_SERVICE_PORT")
	if port == "" {
		port = ":8087"
	}

	server := &http.Server{
		Addr:    port,
		Handler: r,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Payment Service running on %s", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Payment Service shutdown complete")
	}
}
