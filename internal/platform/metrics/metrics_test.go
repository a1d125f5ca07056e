package metrics

import (
	"testing"
	"time"
)

func TestCollectorCounts(t *testing.T) {
	c := New()
	c.Record(200, 10*time.Millisecond)
	c.Record(403, 5*time.Millisecond)
	c.Record(429, 1*time.Millisecond)
	c.Record(500, 20*time.Millisecond)

	snap := c.Snapshot()
	if snap["requestsTotal"].(uint64) != 4 {
		t.Fatalf("expected 4 requests, got %v", snap["requestsTotal"])
	}
	if snap["errorsTotal"].(uint64) != 1 {
		t.Fatalf("expected 1 error, got %v", snap["errorsTotal"])
	}
	if snap["forbiddenTotal"].(uint64) != 1 {
		t.Fatalf("expected 1 forbidden, got %v", snap["forbiddenTotal"])
	}
	if snap["rateLimitedTotal"].(uint64) != 1 {
		t.Fatalf("expected 1 rate limited, got %v", snap["rateLimitedTotal"])
	}
	if snap["totalDurationMs"].(uint64) != 36 {
		t.Fatalf("expected 36ms total, got %v", snap["totalDurationMs"])
	}
}

func TestCollectorEmptySnapshot(t *testing.T) {
	snap := New().Snapshot()
	if snap["requestsTotal"].(uint64) != 0 {
		t.Fatalf("expected zero requests, got %v", snap["requestsTotal"])
	}
	if snap["avgDurationMs"].(float64) != 0 {
		t.Fatalf("expected zero average, got %v", snap["avgDurationMs"])
	}
}
