package support

import (
	"time"

	"github.com/google/uuid"
)

// Clock returns now in UTC, or the injected time in tests.
type Clock func() time.Time

func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

// NewID returns a random identifier with the given prefix.
func NewID(prefix string) string {
	return prefix + uuid.NewString()
}
