package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ThatOneShortGuy/thermostat/internal/config"
)

type Subscriber struct {
	*conn

	handlerMu sync.RWMutex
	handler   func(topic string, payload []byte) error
}

// NewSubscriber subscribes on every (re)connect, so set the handler before Connect.
func NewSubscriber(cfg config.MQTT, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Subscriber{}
	s.conn = newConn(cfg, logger.With("component", "mqtt-subscriber"), func() {
		// paho runs this on its own goroutine; don't block it on the SUBACK.
		go func() {
			if err := s.subscribe(); err != nil {
				s.logger.Error("mqtt subscribe failed", "topic", cfg.Topic, "error", err)
			}
		}()
	})
	return s
}

func (s *Subscriber) SetMessageHandler(handler func(topic string, payload []byte) error) {
	s.handlerMu.Lock()
	s.handler = handler
	s.handlerMu.Unlock()
}

func (s *Subscriber) Connect(ctx context.Context) error {
	return s.connect(ctx)
}

func (s *Subscriber) subscribe() error {
	// QoS 1: at-least-once while connected. The session is clean, so messages
	// published during a disconnect are not queued for us.
	const qos = byte(1)
	token := s.client.Subscribe(s.cfg.Topic, qos, func(_ mqtt.Client, msg mqtt.Message) {
		s.handleMessage(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe timeout for topic %s", s.cfg.Topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe to %s: %w", s.cfg.Topic, err)
	}
	s.logger.Info("subscribed to mqtt topic", "topic", s.cfg.Topic, "qos", qos)
	return nil
}

func (s *Subscriber) handleMessage(topic string, payload []byte) {
	s.logger.Debug("received mqtt message", "topic", topic, "size", len(payload))

	s.handlerMu.RLock()
	handler := s.handler
	s.handlerMu.RUnlock()
	if handler == nil {
		s.logger.Warn("no handler for mqtt message", "topic", topic)
		return
	}
	if err := handler(topic, payload); err != nil {
		s.logger.Error("message handler failed", "topic", topic, "error", err)
	}
}

func (s *Subscriber) Disconnect() {
	s.disconnect(func() {
		s.client.Unsubscribe(s.cfg.Topic).WaitTimeout(2 * time.Second)
	})
}
