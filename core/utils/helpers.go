package utils

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

func NowUTC() time.Time {
	return time.Now().UTC()
}

// RandString returns n bytes of randomness hex-encoded (2n characters).
func RandString(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
