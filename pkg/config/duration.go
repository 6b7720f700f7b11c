package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoCredentials means every source configured for a capability is missing
// its API key. This surfaces once at startup rather than per call.
var ErrNoCredentials = errors.New("no credentials for any source")

// ValidateDurationRange validates that a duration lies in [min, max].
func ValidateDurationRange(d, min, max time.Duration) error {
	if min > max {
		return fmt.Errorf("invalid range: min %v greater than max %v", min, max)
	}
	if d < min || d > max {
		return fmt.Errorf("duration %v outside allowed range [%v, %v]", d, min, max)
	}
	return nil
}
