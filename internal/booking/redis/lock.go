package redis

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

type Guard struct {
	Client *redis.Client
	Logger *log.Logger
}

func NewGuard(client *redis.Client) *Guard {
	return &Guard{
		Client: client,
		Logger: log.Default(),
	}
}

// getGuardTTL returns the payment guard TTL from environment variables or the
// default value.
func (g *Guard) getGuardTTL() time.Duration {
	defaultDuration := 10 * time.Minute

	ttlStr := os.Getenv("PAYMENT_GUARD_TTL_MINUTES")
	if ttlStr == "" {
		return defaultDuration
	}

	ttlMin, err := strconv.Atoi(ttlStr)
	if err != nil {
		g.Logger.Println("REDIS: Invalid PAYMENT_GUARD_TTL_MINUTES value '" + ttlStr + "', using default 10 minutes")
		return defaultDuration
	}
	return time.Duration(ttlMin) * time.Minute
}

// AcquirePayment claims a payment id for a booking. Returns false when the
// same payment is already being (or has been) processed, which is how a
// client retry of a lost response gets collapsed into a single transition.
func (g *Guard) AcquirePayment(ctx context.Context, paymentID, bookingID string) (bool, error) {
	key := "payment_guard:" + paymentID
	ok, err := g.Client.SetNX(ctx, key, bookingID, g.getGuardTTL()).Result()
	if err != nil {
		return false, err
	}
	if !ok {
		val, err := g.Client.Get(ctx, key).Result()
		if err == redis.Nil {
			return g.Client.SetNX(ctx, key, bookingID, g.getGuardTTL()).Result()
		}
		if err != nil {
			return false, err
		}
		if val == bookingID {
			return false, nil
		}
		return false, fmt.Errorf("payment %s already claimed by another booking", paymentID)
	}
	return true, nil
}

// ReleasePayment drops the guard, but only if this booking owns it.
func (g *Guard) ReleasePayment(ctx context.Context, paymentID, bookingID string) error {
	key := "payment_guard:" + paymentID
	val, err := g.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already released or expired
	}
	if err != nil {
		return err
	}
	if val == bookingID {
		_, err := g.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}
