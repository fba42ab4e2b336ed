package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemMetrics is the response for GET /metrics.
type SystemMetrics struct {
	Timestamp     time.Time        `json:"timestamp"`
	Version       string           `json:"version"`
	UptimeSeconds float64          `json:"uptime_seconds"`
	Components    ComponentMetrics `json:"components"`
	Runtime       RuntimeMetrics   `json:"runtime"`
	WebSocket     WSMetrics        `json:"websocket"`
	MQTT          MQTTMetrics      `json:"mqtt"`
	Database      DatabaseMetrics  `json:"database"`
}

// ComponentMetrics summarises the lifecycle registry.
type ComponentMetrics struct {
	Total           int    `json:"total"`
	Initialized     int    `json:"initialized"`
	Failed          int    `json:"failed"`
	Reinitializable int    `json:"reinitializable"`
	Phase           string `json:"phase"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines int    `json:"goroutines"`
	MemAllocMB uint64 `json:"mem_alloc_mb"`
	MemSysMB   uint64 `json:"mem_sys_mb"`
	NumGC      uint32 `json:"num_gc"`
	GoVersion  string `json:"go_version"`
	NumCPU     int    `json:"num_cpu"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// MQTTMetrics contains MQTT connection status.
type MQTTMetrics struct {
	Enabled   bool `json:"enabled"`
	Connected bool `json:"connected"`
}

// DatabaseMetrics contains SQLite connection pool statistics.
type DatabaseMetrics struct {
	Enabled         bool `json:"enabled"`
	OpenConnections int  `json:"open_connections"`
	InUse           int  `json:"in_use"`
}

const bytesPerMB = 1024 * 1024

// handleMetrics returns system health metrics for monitoring.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC(),
		Version:       s.version,
		UptimeSeconds: time.Since(s.startTime).Seconds(),
		Runtime: RuntimeMetrics{
			Goroutines: runtime.NumGoroutine(),
			MemAllocMB: memStats.Alloc / bytesPerMB,
			MemSysMB:   memStats.Sys / bytesPerMB,
			NumGC:      memStats.NumGC,
			GoVersion:  runtime.Version(),
			NumCPU:     runtime.NumCPU(),
		},
	}

	metrics.Components.Phase = string(s.registry.Phase())
	for _, st := range s.registry.Status() {
		metrics.Components.Total++
		if st.Initialized {
			metrics.Components.Initialized++
		}
		if st.LastError != "" {
			metrics.Components.Failed++
		}
		if st.Reinitializable {
			metrics.Components.Reinitializable++
		}
	}

	if s.hub != nil {
		metrics.WebSocket.ConnectedClients = s.hub.ClientCount()
	}

	if s.mqtt != nil {
		metrics.MQTT.Enabled = true
		metrics.MQTT.Connected = s.mqtt.IsConnected()
	}

	if s.db != nil {
		stats := s.db.Stats()
		metrics.Database.Enabled = true
		metrics.Database.OpenConnections = stats.OpenConnections
		metrics.Database.InUse = stats.InUse
	}

	writeJSON(w, http.StatusOK, metrics)
}
