package pool

import "time"

// Metrics is a point-in-time snapshot of a pool's counters and derived
// rates, shaped for a caller-owned telemetry sink.
type Metrics struct {
	Acquisitions    int64         `json:"acquisitions"`
	Releases        int64         `json:"releases"`
	Hits            int64         `json:"hits"`
	Misses          int64         `json:"misses"`
	GrowthEvents    int64         `json:"growth_events"`
	ShrinkEvents    int64         `json:"shrink_events"`
	PeakActive      int64         `json:"peak_active"`
	AverageLifetime time.Duration `json:"average_lifetime"`
	HitRate         float64       `json:"hit_rate"`
	Utilization     float64       `json:"utilization"`
	IdleCount       int           `json:"idle_count"`
	ActiveCount     int           `json:"active_count"`
}
