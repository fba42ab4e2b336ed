package mqtt

import "fmt"

// Topic prefixes for the Pitchside MQTT hierarchy.
const (
	// TopicPrefix is the base for all Pitchside topics.
	TopicPrefix = "pitchside"

	// TopicPrefixRefresh is the base for inbound refresh triggers.
	TopicPrefixRefresh = "pitchside/refresh"

	// TopicPrefixLifecycle is the base for component lifecycle events.
	TopicPrefixLifecycle = "pitchside/lifecycle"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "pitchside/system"
)

// Topics provides builders for Pitchside MQTT topics. Using these helpers
// keeps topic naming consistent across publishers and subscribers.
//
//	topics := mqtt.Topics{}
//	trigger := topics.Refresh("standings")
//	// Returns: "pitchside/refresh/standings"
type Topics struct{}

// Refresh returns the refresh trigger topic for a content region.
//
// Example: pitchside/refresh/standings
func (Topics) Refresh(region string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixRefresh, region)
}

// AllRefresh returns a pattern matching refresh triggers for every region.
//
// Pattern: pitchside/refresh/+
func (Topics) AllRefresh() string {
	return fmt.Sprintf("%s/+", TopicPrefixRefresh)
}

// Lifecycle returns the lifecycle event topic for a component.
//
// Example: pitchside/lifecycle/schedule-board
func (Topics) Lifecycle(component string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixLifecycle, component)
}

// AllLifecycle returns a pattern matching lifecycle events for every
// component.
//
// Pattern: pitchside/lifecycle/+
func (Topics) AllLifecycle() string {
	return fmt.Sprintf("%s/+", TopicPrefixLifecycle)
}

// SystemStatus returns the retained system status topic.
//
// Example: pitchside/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllTopics returns a pattern matching every Pitchside topic. Use with
// caution, this receives all traffic.
//
// Pattern: pitchside/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}
