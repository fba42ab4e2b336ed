package influxdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pitchside/pitchside-core/internal/infrastructure/config"
)

func TestConnectDisabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("got %v, want ErrDisabled", err)
	}
}

func TestDisconnectedClientIsSafe(t *testing.T) {
	c := &Client{}

	if c.IsConnected() {
		t.Error("zero client reports connected")
	}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck = %v, want ErrNotConnected", err)
	}

	// Writes and flushes on a disconnected client must be no-ops, not
	// panics.
	c.WriteComponentTiming("schedule-board", "init", "ok", 10*time.Millisecond)
	c.WriteBootstrapSummary("portal-001", 5, 0, 120*time.Millisecond)
	c.WritePoint("custom", nil, map[string]interface{}{"v": 1})
	c.WritePointWithTime("custom", nil, map[string]interface{}{"v": 1}, time.Now())
	c.Flush()

	if err := c.Close(); err != nil {
		t.Errorf("Close on zero client returned %v", err)
	}
}

func TestSetOnError(t *testing.T) {
	c := &Client{}
	called := false
	c.SetOnError(func(err error) { called = true })

	errCh := make(chan error, 1)
	errCh <- errors.New("write rejected")
	close(errCh)

	c.handleWriteErrors(errCh)
	if !called {
		t.Error("error callback not invoked")
	}
}
