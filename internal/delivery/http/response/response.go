package response

import "time"

// TargetResponse is a DTO for a monitored search page, mirroring entity.MonitoredTarget
type TargetResponse struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
}

type ProxiesResponse struct {
	Live    int      `json:"live"`
	Proxies []string `json:"proxies"`
}

type HealthResponse struct {
	Status      string `json:"status"` // "ok" or "unhealthy"
	Store       string `json:"store"`
	ProxiesLive int    `json:"proxies_live"`
}
