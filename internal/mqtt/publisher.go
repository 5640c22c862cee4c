package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThatOneShortGuy/thermostat/internal/config"
	"github.com/ThatOneShortGuy/thermostat/internal/telemetry"
)

// ErrNotConnected is returned by Send while the broker is unreachable. The reading is not queued.
var ErrNotConnected = errors.New("mqtt: not connected")

// Publisher sends readings at QoS 0, matching the HTTP transport's at-most-once delivery.
type Publisher struct {
	*conn
}

func NewPublisher(cfg config.MQTT, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{conn: newConn(cfg, logger.With("component", "mqtt-publisher"), nil)}
}

func (p *Publisher) Connect(ctx context.Context) error {
	return p.connect(ctx)
}

func (p *Publisher) Send(ctx context.Context, r telemetry.Reading) error {
	if !p.isConnected() {
		return ErrNotConnected
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal reading: %w", err)
	}

	token := p.client.Publish(p.cfg.Topic, 0, false, data)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return fmt.Errorf("publish timeout for topic %s", p.cfg.Topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish reading: %w", err)
	}

	p.logger.Debug("published reading", "topic", p.cfg.Topic, "sensor_id", r.SensorID)
	return nil
}

func (p *Publisher) Disconnect() {
	p.disconnect(nil)
}
