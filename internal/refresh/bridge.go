package refresh

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pitchside/pitchside-core/internal/action"
	"github.com/pitchside/pitchside-core/internal/infrastructure/mqtt"
	"github.com/pitchside/pitchside-core/internal/lifecycle"
)

// dispatchTimeout bounds one inbound trigger's dispatch.
const dispatchTimeout = 30 * time.Second

// Broker is the subset of the MQTT client the bridge needs. Satisfied by
// *mqtt.Client; tests substitute a fake.
type Broker interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Logger is the minimal logging interface the bridge needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// TriggerMessage is the JSON payload accepted on refresh topics. An empty
// components list replays every reinitialisable component. Scope overrides
// the region taken from the topic when set.
type TriggerMessage struct {
	Action     string   `json:"action"`
	Components []string `json:"components"`
	Scope      string   `json:"scope,omitempty"`
}

// Bridge connects MQTT refresh topics to the action dispatcher and relays
// component run events back onto the bus.
type Bridge struct {
	broker     Broker
	dispatcher *action.Dispatcher
	topics     mqtt.Topics
	qos        byte
	logger     Logger
}

// New creates a refresh bridge. Call Start to begin consuming triggers.
func New(broker Broker, dispatcher *action.Dispatcher, qos byte, logger Logger) (*Bridge, error) {
	if broker == nil {
		return nil, fmt.Errorf("mqtt broker is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("action dispatcher is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Bridge{
		broker:     broker,
		dispatcher: dispatcher,
		qos:        qos,
		logger:     logger,
	}, nil
}

// Start subscribes to the refresh topic family. Subscriptions survive
// broker reconnects via the client's resubscribe handling.
func (b *Bridge) Start() error {
	topic := b.topics.AllRefresh()
	b.logger.Info("subscribing to refresh triggers", "topic", topic)

	if err := b.broker.Subscribe(topic, b.qos, b.handleTrigger); err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	return nil
}

// handleTrigger processes one inbound refresh message. Malformed payloads
// are logged and dropped; a bad publisher must not take the bridge down.
func (b *Bridge) handleTrigger(topic string, payload []byte) error {
	var msg TriggerMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		b.logger.Warn("dropping malformed refresh trigger",
			"topic", topic,
			"error", err,
		)
		return nil
	}

	region := b.regionFromTopic(topic)
	if msg.Scope != "" {
		region = msg.Scope
	}

	kind := action.Kind(msg.Action)
	if msg.Action == "" {
		kind = action.KindReinitAll
		if len(msg.Components) > 0 {
			kind = action.KindReinit
		}
	}

	b.logger.Debug("refresh trigger received",
		"topic", topic,
		"action", string(kind),
		"components", len(msg.Components),
		"region", region,
	)

	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	err := b.dispatcher.Dispatch(ctx, action.Request{
		Kind:       kind,
		Components: msg.Components,
		Scope:      lifecycle.Scope{Region: region},
		Source:     "mqtt",
	})
	if err != nil {
		b.logger.Error("refresh trigger dispatch failed",
			"topic", topic,
			"action", string(kind),
			"error", err,
		)
	}
	return nil
}

// regionFromTopic extracts the region segment from a refresh topic. The
// "all" region and an empty segment both mean the root scope.
func (b *Bridge) regionFromTopic(topic string) string {
	prefix := b.topics.Refresh("")
	region := strings.TrimPrefix(topic, prefix)
	if region == "all" {
		return ""
	}
	return region
}

// lifecycleEvent is the JSON payload published for a component run.
type lifecycleEvent struct {
	RunID      string `json:"run_id"`
	Component  string `json:"component"`
	Kind       string `json:"kind"`
	Scope      string `json:"scope"`
	DurationMs int64  `json:"duration_ms"`
	Outcome    string `json:"outcome"`
	Error      string `json:"error,omitempty"`
	Timestamp  string `json:"timestamp"`
}

// LifecycleObserver returns an observer that publishes component run events
// to the lifecycle topic family. Publish failures are logged and dropped;
// the bus is telemetry here, not a ledger.
func (b *Bridge) LifecycleObserver() lifecycle.Observer {
	return func(event lifecycle.Event) {
		evt := lifecycleEvent{
			RunID:      event.RunID,
			Component:  event.Component,
			Kind:       string(event.Kind),
			Scope:      event.Scope.String(),
			DurationMs: event.Duration.Milliseconds(),
			Outcome:    "ok",
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
		}
		if event.Err != nil {
			evt.Outcome = "error"
			evt.Error = event.Err.Error()
		}

		payload, err := json.Marshal(evt)
		if err != nil {
			b.logger.Error("marshalling lifecycle event", "error", err)
			return
		}

		topic := b.topics.Lifecycle(event.Component)
		if err := b.broker.Publish(topic, payload, b.qos, false); err != nil {
			b.logger.Warn("publishing lifecycle event failed",
				"topic", topic,
				"error", err,
			)
		}
	}
}
