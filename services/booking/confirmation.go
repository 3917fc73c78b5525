package booking

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"time"
)

const confirmationSuffixLength = 4

// GenerateConfirmationCode builds a human-presentable confirmation code for
// an appointment starting at the given time, e.g. "APT20251223H7QK". The date
// prefix lets front-desk staff eyeball the appointment day; the random suffix
// keeps codes unique without a counter.
func GenerateConfirmationCode(start time.Time) (string, error) {
	numBytes := (confirmationSuffixLength*5 + 7) / 8
	randomBytes := make([]byte, numBytes)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	suffix := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes)
	if len(suffix) > confirmationSuffixLength {
		suffix = suffix[:confirmationSuffixLength]
	}
	return fmt.Sprintf("APT%s%s", start.Format("20060102"), suffix), nil
}
