package analytics

import "time"

type EventType string

const (
	EventSearch        EventType = "search"
	EventCacheHit      EventType = "cache_hit"
	EventCacheMiss     EventType = "cache_miss"
	EventZeroResult    EventType = "zero_result"
	EventIndexBuilt    EventType = "index_built"
	EventIndexRestored EventType = "index_restored"
)

type SearchEvent struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query"`
	Terms     []string  `json:"terms"`
	TotalHits int       `json:"total_hits"`
	Returned  int       `json:"returned"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// IndexEvent records a build or restore of the index.
type IndexEvent struct {
	Type        EventType `json:"type"`
	Fingerprint string    `json:"fingerprint"`
	Documents   int       `json:"documents"`
	Terms       int       `json:"terms"`
	AvgDL       float64   `json:"avgdl"`
	LatencyMs   int64     `json:"latency_ms"`
	Timestamp   time.Time `json:"timestamp"`
}

// envelope tags an event on the wire so consumers can tell kinds apart.
type envelope struct {
	Kind   string       `json:"kind"`
	Search *SearchEvent `json:"search,omitempty"`
	Index  *IndexEvent  `json:"index,omitempty"`
}
