package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"weyfar-booking/internal/config"
	"weyfar-booking/internal/models"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Development reset tool: drops, recreates and seeds the booking tables.
// Production schema changes go through the SQL migrations instead.

func main() {
	ctx := context.Background()

	_ = godotenv.Load()
	cfg := config.Load()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.Database.Username, cfg.Database.Password,
			cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	}
	connector := pgdriver.NewConnector(pgdriver.WithDSN(dsn))
	sqldb := sql.OpenDB(connector)
	defer sqldb.Close()

	if err := sqldb.PingContext(ctx); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())

	log.Println("Dropping tables...")
	_ = dropTables(ctx, db)

	log.Println("Creating tables...")
	_ = createTables(ctx, db)

	log.Println("Seeding sample data...")
	_ = seedData(ctx, db)

	log.Println("✅ Done.")
}

func dropTables(ctx context.Context, db *bun.DB) error {
	tables := []interface{}{(*models.Booking)(nil), (*models.PromoCode)(nil)}
	for _, m := range tables {
		_, _ = db.NewDropTable().Model(m).IfExists().Cascade().Exec(ctx)
	}
	return nil
}

func createTables(ctx context.Context, db *bun.DB) error {
	tables := []interface{}{(*models.PromoCode)(nil), (*models.Booking)(nil)}
	for _, m := range tables {
		_, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx)
		if err != nil {
			log.Fatalf("❌ Failed to create table for %T: %v", m, err)
		}
	}
	return nil
}

func seedData(ctx context.Context, db *bun.DB) error {
	promos := []models.PromoCode{
		{
			ID:            "promo-save10",
			Code:          "SAVE10",
			DiscountType:  models.DiscountTypePercentage,
			DiscountValue: 10,
			IsActive:      true,
		},
		{
			ID:            "promo-flat25",
			Code:          "FLAT25",
			DiscountType:  models.DiscountTypeFixed,
			DiscountValue: 25,
			MinOrderValue: 100,
			UsageLimit:    500,
			IsActive:      true,
		},
		{
			ID:                 "promo-cruise15",
			Code:               "CRUISE15",
			DiscountType:       models.DiscountTypePercentage,
			DiscountValue:      15,
			MaxDiscount:        200,
			IsActive:           true,
			ApplicableServices: []string{"cruise"},
		},
		{
			ID:            "promo-expired50",
			Code:          "EXPIRED50",
			DiscountType:  models.DiscountTypePercentage,
			DiscountValue: 50,
			ValidUntil:    time.Now().AddDate(0, 0, -1),
			IsActive:      true,
		},
	}
	_, _ = db.NewInsert().Model(&promos).Exec(ctx)

	booking := models.Booking{
		ID:        "booking-demo-001",
		Reference: "WYF-DEMO01",
		Type:      models.BookingTypeFlight,
		Details: models.BookingDetails{
			Flight: &models.FlightDetails{
				Airline:       "Emirates",
				FlightNumber:  "EK501",
				Origin:        "BOM",
				Destination:   "DXB",
				DepartureTime: time.Now().AddDate(0, 1, 0),
				ArrivalTime:   time.Now().AddDate(0, 1, 0).Add(4 * time.Hour),
				BasePrice:     500,
				Currency:      "USD",
			},
		},
		Passengers: []models.Passenger{
			{
				FirstName:   "Aarav",
				LastName:    "Sharma",
				DateOfBirth: time.Date(1990, 5, 12, 0, 0, 0, 0, time.UTC),
				Gender:      models.GenderMale,
				Nationality: "IN",
			},
		},
		ContactInfo: models.ContactInfo{
			Email: "aarav@example.com",
			Phone: "9876543210",
			Address: models.Address{
				Street:  "12 Marine Drive",
				City:    "Mumbai",
				State:   "MH",
				ZipCode: "400001",
				Country: "IN",
			},
		},
		Pricing:   models.PricingBreakdown{BasePrice: 500, Discount: 50, FinalPrice: 450, Currency: "USD"},
		PromoCode: "SAVE10",
		Status:    models.BookingStatusPending,
		CreatedAt: time.Now(),
	}
	_, _ = db.NewInsert().Model(&booking).Exec(ctx)

	return nil
}
