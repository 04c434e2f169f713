package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign produces the hex HMAC-SHA256 of "paymentID|orderID" under the webhook
// secret. The booking service requires this signature before it will confirm
// a booking.
func Sign(paymentID, orderID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(paymentID + "|" + orderID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a signature in constant time.
func VerifySignature(paymentID, orderID, signature, secret string) bool {
	expected := Sign(paymentID, orderID, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
