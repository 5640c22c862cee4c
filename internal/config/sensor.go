package config

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

type Sensor struct {
	Common

	// Transport is "http" (default) or "mqtt".
	Transport   string
	IngestURL   string
	HTTPTimeout time.Duration
	MQTT        MQTT

	// Driver is "bme280" (default) or "simulated".
	Driver        string
	I2CBus        string
	BME280Address uint16
	SensorID      int64

	PollInterval time.Duration
	RetryDelay   time.Duration
}

func LoadSensorFromEnv() (Sensor, error) {
	if err := loadDotEnv(); err != nil {
		return Sensor{}, err
	}
	common, err := loadCommon()
	if err != nil {
		return Sensor{}, err
	}

	transport := envString("TRANSPORT", "http")
	switch transport {
	case "http", "mqtt":
	default:
		return Sensor{}, fmt.Errorf("invalid TRANSPORT %q (allowed: http, mqtt)", transport)
	}

	ingestURL := envString("INGEST_URL", "http://192.168.0.191:23564/data")
	if u, err := url.Parse(ingestURL); err != nil || u.Scheme == "" || u.Host == "" {
		return Sensor{}, fmt.Errorf("invalid INGEST_URL %q", ingestURL)
	}

	httpTimeout, err := envDuration("HTTP_TIMEOUT", 10*time.Second)
	if err != nil {
		return Sensor{}, err
	}
	if httpTimeout <= 0 {
		return Sensor{}, fmt.Errorf("HTTP_TIMEOUT must be positive, got %v", httpTimeout)
	}

	mqttCfg, err := loadMQTT("thermostat-sensor")
	if err != nil {
		return Sensor{}, err
	}

	driver := envString("SENSOR_DRIVER", "bme280")
	switch driver {
	case "bme280", "simulated":
	default:
		return Sensor{}, fmt.Errorf("invalid SENSOR_DRIVER %q (allowed: bme280, simulated)", driver)
	}

	addrStr := envString("BME280_ADDRESS", "0x77")
	addr, err := strconv.ParseUint(addrStr, 0, 16)
	if err != nil {
		return Sensor{}, fmt.Errorf("invalid BME280_ADDRESS %q: %w", addrStr, err)
	}

	sensorID, err := envInt64("SENSOR_ID", 0)
	if err != nil {
		return Sensor{}, err
	}

	poll, err := envDuration("SENSOR_POLL_INTERVAL", 30*time.Second)
	if err != nil {
		return Sensor{}, err
	}
	if poll <= 0 {
		return Sensor{}, fmt.Errorf("SENSOR_POLL_INTERVAL must be positive, got %v", poll)
	}

	retry, err := envDuration("SENSOR_RETRY_DELAY", 5*time.Second)
	if err != nil {
		return Sensor{}, err
	}
	if retry <= 0 || retry >= poll {
		return Sensor{}, fmt.Errorf("SENSOR_RETRY_DELAY must be positive and shorter than SENSOR_POLL_INTERVAL (%v), got %v", poll, retry)
	}

	return Sensor{
		Common:        common,
		Transport:     transport,
		IngestURL:     ingestURL,
		HTTPTimeout:   httpTimeout,
		MQTT:          mqttCfg,
		Driver:        driver,
		I2CBus:        envString("I2C_BUS", ""),
		BME280Address: uint16(addr),
		SensorID:      sensorID,
		PollInterval:  poll,
		RetryDelay:    retry,
	}, nil
}
