package model

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// GenerateUUIDWithSuffix generates a UUID with a given module name as a prefix.
// This is useful for creating unique identifiers with context-specific prefixes.
func GenerateUUIDWithSuffix(module string) string {
	id := uuid.New()
	uuidStr := id.String()
	idWithSuffix := fmt.Sprintf("%s_%s", module, uuidStr)
	return idWithSuffix
}

const trackingAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateTrackingCode generates a short human-readable code for out-of-band
// status lookup, e.g. "WDR-4K9Q2Z". The prefix identifies the transaction type.
func GenerateTrackingCode(prefix string) string {
	code := make([]byte, 6)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(trackingAlphabet))))
		if err != nil {
			// crypto/rand only fails when the platform entropy source is broken
			panic(err)
		}
		code[i] = trackingAlphabet[n.Int64()]
	}
	return fmt.Sprintf("%s-%s", prefix, code)
}

// GenerateLoanRefCode generates a loan reference code in the "LN-12345" format.
func GenerateLoanRefCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(90000))
	if err != nil {
		panic(err)
	}
	return fmt.Sprintf("LN-%d", 10000+n.Int64())
}
