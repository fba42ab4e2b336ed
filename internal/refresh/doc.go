// Package refresh bridges MQTT refresh topics to the lifecycle action
// dispatcher.
//
// Inbound messages on pitchside/refresh/<region> trigger component
// re-initialisation for that region, so venue-side publishers (CMS hooks,
// fixture feeds, ops tooling) can replay client components without touching
// the HTTP API. Outbound, the bridge publishes every component run event to
// pitchside/lifecycle/<component> for downstream consumers.
package refresh
