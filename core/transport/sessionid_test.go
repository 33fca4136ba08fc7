package transport

import (
	"strconv"
	"strings"
	"testing"
)

func TestNewSessionIDShape(t *testing.T) {
	id := NewSessionID()

	parts := strings.Split(id, "_")
	if len(parts) != 3 {
		t.Fatalf("expected prefix_timestamp_suffix, got %q", id)
	}
	if parts[0] != "session" {
		t.Fatalf("expected session prefix, got %q", parts[0])
	}
	if _, err := strconv.ParseInt(parts[1], 10, 64); err != nil {
		t.Fatalf("expected numeric timestamp, got %q", parts[1])
	}
	if len(parts[2]) != 8 {
		t.Fatalf("expected 8 character random suffix, got %q", parts[2])
	}
}

func TestNewSessionIDIsUniquePerAttempt(t *testing.T) {
	seen := map[string]bool{}
	for range 100 {
		id := NewSessionID()
		if seen[id] {
			t.Fatalf("expected unique session ids, got duplicate %q", id)
		}
		seen[id] = true
	}
}
