package sensor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ThatOneShortGuy/thermostat/internal/telemetry"
	"github.com/ThatOneShortGuy/thermostat/internal/units"
)

// scriptedDriver returns the queued results in order, then repeats the last one.
type scriptedDriver struct {
	mu      sync.Mutex
	results []error
	calls   int
}

func (d *scriptedDriver) Measure() (Measurement, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.calls
	if i >= len(d.results) {
		i = len(d.results) - 1
	}
	d.calls++
	if err := d.results[i]; err != nil {
		return Measurement{}, err
	}
	return Measurement{
		Temperature: units.NewTemperature(22.5, units.Celsius),
		Pressure:    101325,
		Humidity:    45.2,
	}, nil
}

func (d *scriptedDriver) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// recordingPublisher cancels the loop once it has seen stopAfter readings.
type recordingPublisher struct {
	mu        sync.Mutex
	got       []telemetry.Reading
	err       error
	stopAfter int
	cancel    context.CancelFunc
}

func (p *recordingPublisher) Send(_ context.Context, r telemetry.Reading) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, r)
	if len(p.got) >= p.stopAfter {
		p.cancel()
	}
	return p.err
}

func (p *recordingPublisher) readings() []telemetry.Reading {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]telemetry.Reading(nil), p.got...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runLoop(t *testing.T, d Driver, p *recordingPublisher, opts Options) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p.cancel = cancel

	loop := NewLoop(d, p, opts, discardLogger())
	loop.now = func() time.Time { return time.Date(2024, 1, 1, 1, 0, 0, 0, time.FixedZone("CET", 3600)) }
	return loop.Run(ctx)
}

func TestLoop_PublishesEachCycle(t *testing.T) {
	d := &scriptedDriver{results: []error{nil}}
	p := &recordingPublisher{stopAfter: 3}

	err := runLoop(t, d, p, Options{SensorID: 7, PollInterval: time.Millisecond, RetryDelay: time.Microsecond})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v; want context.Canceled", err)
	}

	got := p.readings()
	if len(got) != 3 {
		t.Fatalf("published %d readings; want 3", len(got))
	}
	for _, r := range got {
		if r.SensorID != 7 {
			t.Errorf("SensorID = %d; want 7", r.SensorID)
		}
		if r.CapturedAt.Location() != time.UTC || !r.CapturedAt.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("CapturedAt = %v; want 2024-01-01T00:00:00Z", r.CapturedAt)
		}
		if got := r.Temperature.In(units.Fahrenheit); got < 72.49 || got > 72.51 {
			t.Errorf("temperature = %v °F; want 72.5", got)
		}
	}
}

func TestLoop_RetriesReadFailuresWithoutEmitting(t *testing.T) {
	busErr := errors.New("i2c: remote I/O error")
	d := &scriptedDriver{results: []error{busErr, busErr, busErr, nil}}
	p := &recordingPublisher{stopAfter: 1}

	err := runLoop(t, d, p, Options{PollInterval: time.Hour, RetryDelay: time.Millisecond})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v; want context.Canceled", err)
	}
	if calls := d.callCount(); calls != 4 {
		t.Errorf("Measure called %d times; want 4", calls)
	}
	if n := len(p.readings()); n != 1 {
		t.Errorf("published %d readings; want 1", n)
	}
}

func TestLoop_PublishErrorDoesNotStopLoop(t *testing.T) {
	d := &scriptedDriver{results: []error{nil}}
	p := &recordingPublisher{stopAfter: 2, err: errors.New("connection refused")}

	err := runLoop(t, d, p, Options{PollInterval: time.Millisecond, RetryDelay: time.Microsecond})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v; want context.Canceled", err)
	}
	if n := len(p.readings()); n != 2 {
		t.Errorf("published %d readings; want 2 (one attempt per cycle)", n)
	}
}

func TestLoop_StopsOnCancelDuringWait(t *testing.T) {
	d := &scriptedDriver{results: []error{nil}}
	p := &recordingPublisher{stopAfter: 1000}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	loop := NewLoop(d, p, Options{PollInterval: time.Hour, RetryDelay: time.Minute}, discardLogger())

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for d.callCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run error = %v; want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if calls := d.callCount(); calls != 1 {
		t.Errorf("Measure called %d times; want 1", calls)
	}
}
