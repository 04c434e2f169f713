package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

func GeneratePaymentID() string {
	timestamp := time.Now().Unix()
	randomNum, _ := rand.Int(rand.Reader, big.NewInt(999999))
	return fmt.Sprintf("pay_%d_%06d", timestamp, randomNum.Int64())
}

func GenerateOrderID() string {
	timestamp := time.Now().Unix()
	randomNum, _ := rand.Int(rand.Reader, big.NewInt(999999999))
	return fmt.Sprintf("ord_%d_%09d", timestamp, randomNum.Int64())
}

// GenerateBookingReference creates a short human-readable reference for
// confirmation emails and vouchers, e.g. "WYF-8F3K2Q".
func GenerateBookingReference() string {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	ref := make([]byte, 6)
	for i := range ref {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return fmt.Sprintf("WYF-%06d", time.Now().Unix()%1000000)
		}
		ref[i] = alphabet[n.Int64()]
	}
	return "WYF-" + string(ref)
}
