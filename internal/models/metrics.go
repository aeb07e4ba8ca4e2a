package models

import "time"

// SystemMetrics is a lightweight view of runtime instrumentation for staff dashboards.
type SystemMetrics struct {
	CacheHitRatio            float64           `json:"cache_hit_ratio"`
	CacheHits                uint64            `json:"cache_hits"`
	CacheMisses              uint64            `json:"cache_misses"`
	RequestsTotal            uint64            `json:"requests_total"`
	AverageRequestDurationMs float64           `json:"average_request_duration_ms"`
	Computations             map[string]uint64 `json:"computations"`
	WarmerJobsFailed         uint64            `json:"warmer_jobs_failed"`
	RateLimited              uint64            `json:"rate_limited"`
	Goroutines               int               `json:"goroutines"`
	GeneratedAt              time.Time         `json:"generated_at"`
}
