package analytics

import "time"

type EventType string

const (
	EventSearch     EventType = "search"
	EventZeroResult EventType = "zero_result"
	EventError      EventType = "search_error"
)

// SearchEvent is published once per search request, whether it was served
// from the cache, computed, or rejected.
type SearchEvent struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query"`
	Model     string    `json:"model"`
	Mode      string    `json:"mode"`
	Terms     []string  `json:"terms"`
	TotalHits int       `json:"total_hits"`
	Returned  int       `json:"returned"`
	LatencyMs float64   `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// TypeOf classifies an event by its outcome.
func TypeOf(totalHits int, err error) EventType {
	switch {
	case err != nil:
		return EventError
	case totalHits == 0:
		return EventZeroResult
	default:
		return EventSearch
	}
}
