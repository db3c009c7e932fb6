package auth

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"
)

// OTPValidity is the window in which a one-time code can be redeemed.
const OTPValidity = 5 * time.Minute

// GenerateOTP returns a 6-digit numeric code drawn from crypto/rand.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}
