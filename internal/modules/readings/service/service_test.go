package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ThatOneShortGuy/thermostat/internal/modules/readings/types"
	"github.com/ThatOneShortGuy/thermostat/internal/telemetry"
	"github.com/ThatOneShortGuy/thermostat/internal/units"
)

type fakeRepository struct {
	mu     sync.Mutex
	stored []telemetry.Reading
	err    error
}

func (f *fakeRepository) StoreReading(_ context.Context, r telemetry.Reading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, r)
	return nil
}

func (f *fakeRepository) ListSensors(context.Context) ([]types.Sensor, error) { return nil, nil }

func (f *fakeRepository) LatestReadings(context.Context, int64, int) ([]types.StoredReading, error) {
	return nil, nil
}

type countingObserver struct {
	mu   sync.Mutex
	seen []telemetry.Reading
}

func (o *countingObserver) Observe(_ context.Context, r telemetry.Reading) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, r)
}

type fakeSubscriber struct {
	handler func(topic string, payload []byte) error
}

func (s *fakeSubscriber) SetMessageHandler(h func(topic string, payload []byte) error) {
	s.handler = h
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sample() telemetry.Reading {
	return telemetry.Reading{
		Temperature: units.NewTemperature(295, units.Kelvin),
		Pressure:    101325,
		Humidity:    45.2,
		CapturedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestIngest_StoresAndNotifies(t *testing.T) {
	repo := &fakeRepository{}
	obs := &countingObserver{}
	svc := NewService(repo, quietLogger(), obs)

	if err := svc.Ingest(context.Background(), sample()); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(repo.stored) != 1 {
		t.Errorf("stored = %d; want 1", len(repo.stored))
	}
	if len(obs.seen) != 1 {
		t.Errorf("observed = %d; want 1", len(obs.seen))
	}
}

func TestIngest_StoreFailureSkipsObservers(t *testing.T) {
	repo := &fakeRepository{err: errors.New("FOREIGN KEY constraint failed")}
	obs := &countingObserver{}
	svc := NewService(repo, quietLogger(), obs)

	err := svc.Ingest(context.Background(), sample())
	if err == nil || !strings.Contains(err.Error(), "FOREIGN KEY") {
		t.Fatalf("Ingest error = %v; want wrapped store error", err)
	}
	if len(obs.seen) != 0 {
		t.Errorf("observed = %d; want 0", len(obs.seen))
	}
}

func TestRegisterMQTT(t *testing.T) {
	repo := &fakeRepository{}
	svc := NewService(repo, quietLogger())
	sub := &fakeSubscriber{}
	svc.RegisterMQTT(sub)

	if sub.handler == nil {
		t.Fatal("handler not registered")
	}

	payload := `{"temperature": 295.0, "pressure": 101325.0, "humidity": 45.2, "date_time": "2024-01-01T00:00:00Z", "sensor_id": 0}`
	if err := sub.handler("house/telemetry", []byte(payload)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if err := sub.handler("house/telemetry", []byte(`{"temperature": 1}`)); err != nil {
		t.Errorf("malformed payload error = %v; want nil (dropped)", err)
	}
	if len(repo.stored) != 1 {
		t.Errorf("stored = %d; want 1", len(repo.stored))
	}

	repo.err = errors.New("disk I/O error")
	if err := sub.handler("house/telemetry", []byte(payload)); err == nil {
		t.Error("handler error = nil; want store error")
	}
}
