package transport

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const sessionIDPrefix = "session"

// NewSessionID mints an identifier unique per connection attempt: a fixed
// prefix, the creation timestamp in unix milliseconds, and a random suffix.
// Collisions are not otherwise guarded against.
func NewSessionID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%d_%s", sessionIDPrefix, time.Now().UnixMilli(), suffix)
}
