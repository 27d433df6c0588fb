/*
Package randx provides server-side identity generation for issued credentials.

Identities are never taken from client input under the strict policy, so this
package is the only source of the numeric RTC uid and the opaque RTM account id.
All randomness comes from crypto/rand.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

const (
	// MinRTCUid is the smallest uid ever issued. The platform models the RTC
	// identity as a 32-bit integer and reserves 0 as invalid.
	MinRTCUid uint32 = 1

	// MaxRTCUid is the largest uid ever issued, one below the signed 32-bit
	// boundary (2^31 - 2) to stay clear of implementations that sign-extend.
	MaxRTCUid uint32 = 1<<31 - 2
)

// RTCUid generates a cryptographically random uid in [MinRTCUid, MaxRTCUid].
func RTCUid() (uint32, error) {
	span := big.NewInt(int64(MaxRTCUid-MinRTCUid) + 1)

	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return 0, fmt.Errorf("failed to generate random rtc uid: %w", err)
	}

	return MinRTCUid + uint32(n.Int64()), nil
}

// RTMAccount generates an opaque account identifier for messaging credentials.
// A UUID v4 string keeps consecutive issuances distinct without any shared state.
func RTMAccount() string {
	return uuid.New().String()
}
