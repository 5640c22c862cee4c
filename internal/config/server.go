package config

import (
	"fmt"
	"time"
)

type Server struct {
	Common
	HTTPAddr string

	SQLitePath  string
	BusyTimeout time.Duration

	SeedSensorID   int64
	SeedSensorName string

	MQTTEnabled bool
	MQTT        MQTT

	Influx Influx
}

// Influx configures the optional InfluxDB mirror of ingested readings.
type Influx struct {
	Enabled bool
	URL     string
	Token   string
	Org     string
	Bucket  string
}

func LoadServerFromEnv() (Server, error) {
	if err := loadDotEnv(); err != nil {
		return Server{}, err
	}
	common, err := loadCommon()
	if err != nil {
		return Server{}, err
	}

	busyTimeout, err := envDuration("DB_BUSY_TIMEOUT", 5*time.Second)
	if err != nil {
		return Server{}, err
	}
	if busyTimeout < 0 {
		return Server{}, fmt.Errorf("DB_BUSY_TIMEOUT must not be negative, got %v", busyTimeout)
	}

	seedID, err := envInt64("SEED_SENSOR_ID", 0)
	if err != nil {
		return Server{}, err
	}

	mqttEnabled, err := envBool("MQTT_ENABLED", false)
	if err != nil {
		return Server{}, err
	}
	mqttCfg, err := loadMQTT("thermostat-server")
	if err != nil {
		return Server{}, err
	}

	influxEnabled, err := envBool("INFLUX_ENABLED", false)
	if err != nil {
		return Server{}, err
	}
	influx := Influx{
		Enabled: influxEnabled,
		URL:     envString("INFLUX_URL", "http://localhost:8086"),
		Token:   envString("INFLUX_TOKEN", ""),
		Org:     envString("INFLUX_ORG", ""),
		Bucket:  envString("INFLUX_BUCKET", "house"),
	}
	if influx.Enabled && influx.Org == "" {
		return Server{}, fmt.Errorf("INFLUX_ORG is required when INFLUX_ENABLED is set")
	}

	return Server{
		Common:         common,
		HTTPAddr:       envString("HTTP_ADDR", "0.0.0.0:23564"),
		SQLitePath:     envString("SQLITE_PATH", "db.sqlite"),
		BusyTimeout:    busyTimeout,
		SeedSensorID:   seedID,
		SeedSensorName: envString("SEED_SENSOR_NAME", "Main Thermostat BME280"),
		MQTTEnabled:    mqttEnabled,
		MQTT:           mqttCfg,
		Influx:         influx,
	}, nil
}
