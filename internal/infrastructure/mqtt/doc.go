// Package mqtt wraps paho.mqtt.golang with the connection management
// Pitchside Core needs.
//
// The client handles auto-reconnect with exponential backoff, restores
// subscriptions after a reconnect, publishes online/offline status with a
// Last Will and Testament for crash detection, and recovers panics in
// message handlers so one bad payload cannot take the process down.
//
// # Topic hierarchy
//
// All topics live under the pitchside/ prefix:
//
//	pitchside/refresh/<region>        inbound refresh triggers per content region
//	pitchside/lifecycle/<component>   outbound component lifecycle events
//	pitchside/system/status           retained online/offline status
//
// Use the Topics builders rather than hand-assembling topic strings.
package mqtt
