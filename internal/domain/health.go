package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual service.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// LedgerMetrics is returned by GET /v1/metrics/ledger.
type LedgerMetrics struct {
	TotalBuilds           int64   `json:"totalBuilds"`
	DegradedBuilds        int64   `json:"degradedBuilds"`
	DegradedRate          float64 `json:"degradedRate"`
	ContributionsEmitted  int64   `json:"contributionsEmitted"`
	DisbursementsEmitted  int64   `json:"disbursementsEmitted"`
	DisbursementsDetected int64   `json:"disbursementsDetected"`
	BaselineResets        int64   `json:"baselineResets"`
	CacheHitRate          float64 `json:"cacheHitRate"`
	Period                string  `json:"period"`
}
