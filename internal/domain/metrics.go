package domain

// SyncMetrics is the aggregate view of optimistic-sync health exposed on the
// metrics snapshot endpoint.
type SyncMetrics struct {
	MutationsTotal int64   `json:"mutations_total"`
	Committed      int64   `json:"committed"`
	RolledBack     int64   `json:"rolled_back"`
	StaleFailures  int64   `json:"stale_failures"`
	RollbackRate   float64 `json:"rollback_rate"`
	CacheHitRate   float64 `json:"cache_hit_rate"`
	Period         string  `json:"period"`
}
