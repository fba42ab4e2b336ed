// Package influxdb records component initialisation timings in InfluxDB.
//
// Writes are non-blocking: points are batched by the client library and
// flushed on an interval, so recording a timing never delays the component
// that produced it. Async write failures surface through an error callback
// rather than the write path.
//
// The package is optional; when disabled in configuration, Connect returns
// ErrDisabled and the application runs without telemetry.
package influxdb
