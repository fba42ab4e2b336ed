package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteComponentTiming records how long one component's callback took.
//
// This is the primary telemetry write: one point per settled invocation,
// tagged so dashboards can break down bootstrap time per component and
// compare initial runs with refreshes. Non-blocking; points are batched
// and sent asynchronously.
//
// Parameters:
//   - component: The component name (e.g. "schedule-board")
//   - kind: The pass that produced the timing ("init" or "reinit")
//   - outcome: "ok" or "error"
//   - duration: Wall time of the callback
func (c *Client) WriteComponentTiming(component, kind, outcome string, duration time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"component_init",
		map[string]string{
			"component": component,
			"kind":      kind,
			"outcome":   outcome,
		},
		map[string]interface{}{
			"duration_ms": float64(duration.Microseconds()) / 1000.0,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteBootstrapSummary records one point per full initial run.
//
// Parameters:
//   - siteID: The portal instance identifier
//   - components: Number of components that ran
//   - failures: Number of components that failed
//   - duration: Wall time of the whole pass
func (c *Client) WriteBootstrapSummary(siteID string, components, failures int, duration time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"bootstrap",
		map[string]string{
			"site_id": siteID,
		},
		map[string]interface{}{
			"components":  components,
			"failures":    failures,
			"duration_ms": float64(duration.Microseconds()) / 1000.0,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing (keep cardinality low)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp, for
// data that did not arrive in real time.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
