// utils/credentials.go
package utils

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

const (
	// Fixed federation suffix + salt token appended to every derived password.
	// Deliberately reproducible: a union's password can always be re-derived
	// from its state name, so there is no reset workflow for this tier.
	passwordSuffix = "@itka"
	passwordSalt   = "2020"

	playerCodePrefix = "ITKA"
)

// DerivePassword derives a union's login password from its state name.
// Pure: the same state always yields the same password.
func DerivePassword(state string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(state), ""))
	return normalized + passwordSuffix + passwordSalt
}

// NewPlayerCode mints a candidate membership code: fixed prefix, low-order
// digits of the current time, and a random 4-digit suffix. Callers must check
// the candidate against the players uniqueness index and retry on collision.
func NewPlayerCode() string {
	return fmt.Sprintf("%s%06d%04d", playerCodePrefix, time.Now().Unix()%1000000, rand.Intn(10000))
}
