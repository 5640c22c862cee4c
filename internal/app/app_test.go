package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThatOneShortGuy/thermostat/internal/config"
	"github.com/ThatOneShortGuy/thermostat/internal/telemetry"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitForOK(t *testing.T, url string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("%s never returned 200", url)
}

func TestServe_IngestsAndShutsDown(t *testing.T) {
	cfg := config.Server{
		Common:         config.Common{AppEnv: "dev", LogLevel: slog.LevelInfo},
		SQLitePath:     filepath.Join(t.TempDir(), "data", "db.sqlite"),
		BusyTimeout:    5 * time.Second,
		SeedSensorID:   0,
		SeedSensorName: "Main Thermostat BME280",
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, ln, quietLogger()) }()

	waitForOK(t, base+"/healthz")

	payload := `{"temperature": 295.0, "pressure": 101325.0, "humidity": 45.2, "date_time": "2024-01-01T00:00:00Z", "sensor_id": 0}`
	resp, err := http.Post(base+"/data", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("POST /data status = %d; want 200", resp.StatusCode)
	}

	resp, err = http.Get(base + "/api/v1/sensors/0/latest")
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if !strings.Contains(string(body), `"date_time":"2024-01-01T00:00:00Z"`) {
		t.Errorf("latest = %s; want the posted reading", body)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("serve error = %v; want context.Canceled", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func TestServe_RestartKeepsSingleSeed(t *testing.T) {
	cfg := config.Server{
		SQLitePath:     filepath.Join(t.TempDir(), "db.sqlite"),
		BusyTimeout:    5 * time.Second,
		SeedSensorName: "Main Thermostat BME280",
	}
	for i := 0; i < 2; i++ {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("listen: %v", err)
		}
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- serve(ctx, cfg, ln, quietLogger()) }()
		waitForOK(t, "http://"+ln.Addr().String()+"/healthz")

		resp, err := http.Get("http://" + ln.Addr().String() + "/api/v1/sensors")
		if err != nil {
			t.Fatalf("get sensors: %v", err)
		}
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if n := strings.Count(string(body), `"name":"Main Thermostat BME280"`); n != 1 {
			t.Errorf("start %d: sensors = %s; want exactly one seed", i+1, body)
		}

		cancel()
		<-done
	}
}

func TestRunSensor_SimulatedPostsReadings(t *testing.T) {
	var posts atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := telemetry.Decode(r.Body); err != nil {
			t.Errorf("server decode: %v", err)
		}
		if posts.Add(1) == 2 {
			cancel()
		}
	}))
	defer ts.Close()

	cfg := config.Sensor{
		Transport:    "http",
		IngestURL:    ts.URL + "/data",
		HTTPTimeout:  time.Second,
		Driver:       "simulated",
		PollInterval: 10 * time.Millisecond,
		RetryDelay:   5 * time.Millisecond,
	}
	err := RunSensor(ctx, cfg, quietLogger())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("RunSensor error = %v; want context.Canceled", err)
	}
	if n := posts.Load(); n < 2 {
		t.Errorf("posts = %d; want at least 2", n)
	}
}

func TestRunSensor_NoDeviceIsFatal(t *testing.T) {
	cfg := config.Sensor{
		Transport:     "http",
		IngestURL:     "http://127.0.0.1:1/data",
		HTTPTimeout:   time.Second,
		Driver:        "bme280",
		I2CBus:        "/dev/i2c-does-not-exist",
		BME280Address: 0x77,
		PollInterval:  time.Second,
		RetryDelay:    time.Millisecond,
	}
	if err := RunSensor(context.Background(), cfg, quietLogger()); err == nil {
		t.Fatal("RunSensor error = nil; want open sensor error")
	}
}
