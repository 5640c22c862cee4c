package service

import (
	"context"

	"github.com/ThatOneShortGuy/thermostat/internal/telemetry"
)

// MQTTSubscriber interface for attaching message handlers
type MQTTSubscriber interface {
	SetMessageHandler(handler func(topic string, payload []byte) error)
}

// RegisterMQTT feeds readings published on the broker through Ingest.
// Malformed payloads are logged and dropped.
func (s *Service) RegisterMQTT(subscriber MQTTSubscriber) {
	subscriber.SetMessageHandler(func(topic string, payload []byte) error {
		reading, err := telemetry.DecodeBytes(payload)
		if err != nil {
			s.logger.Warn("dropping malformed mqtt reading",
				"topic", topic,
				"error", err,
				"size", len(payload),
			)
			return nil
		}

		if err := s.Ingest(context.Background(), reading); err != nil {
			s.logger.Error("failed to store mqtt reading",
				"topic", topic,
				"sensor_id", reading.SensorID,
				"error", err,
			)
			return err
		}
		return nil
	})
}

