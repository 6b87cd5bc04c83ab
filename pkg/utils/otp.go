package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const OTPTTL = 5 * time.Minute

var otpSpan = big.NewInt(900000)

// GenerateOTP returns a 6 digit code in [100000, 999999] and its expiry.
func GenerateOTP(now time.Time) (string, time.Time, error) {
	n, err := rand.Int(rand.Reader, otpSpan)
	if err != nil {
		return "", time.Time{}, err
	}

	return fmt.Sprintf("%d", n.Int64()+100000), now.Add(OTPTTL), nil
}
