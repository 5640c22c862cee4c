package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ThatOneShortGuy/thermostat/internal/units"
)

// ErrMalformedReading wraps every decode failure so transports can map it to a client error.
var ErrMalformedReading = errors.New("malformed reading")

// Reading is one measurement cycle from one sensor.
// Pressure is in Pa, humidity in %RH (not clamped).
type Reading struct {
	Temperature units.Temperature `json:"temperature"`
	Pressure    float64           `json:"pressure"`
	Humidity    float64           `json:"humidity"`
	CapturedAt  time.Time         `json:"date_time"`
	SensorID    int64             `json:"sensor_id"`
}

func (r Reading) String() string {
	return fmt.Sprintf("sensor %d at %s: %s, %.0f Pa, %.2f%%",
		r.SensorID,
		r.CapturedAt.Format(time.RFC3339),
		r.Temperature,
		r.Pressure,
		r.Humidity)
}

// wireReading mirrors Reading with pointers so absent fields can be told apart from zeros.
type wireReading struct {
	Temperature *units.Temperature `json:"temperature"`
	Pressure    *float64           `json:"pressure"`
	Humidity    *float64           `json:"humidity"`
	DateTime    *string            `json:"date_time"`
	SensorID    *int64             `json:"sensor_id"`
}

// Decode parses one wire-format reading. All five fields are required, date_time must be
// RFC 3339 and anything after the JSON object is rejected.
func Decode(r io.Reader) (Reading, error) {
	dec := json.NewDecoder(r)
	var w wireReading
	if err := dec.Decode(&w); err != nil {
		return Reading{}, fmt.Errorf("%w: %w", ErrMalformedReading, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Reading{}, fmt.Errorf("%w: unexpected data after object", ErrMalformedReading)
	}

	switch {
	case w.Temperature == nil:
		return Reading{}, missing("temperature")
	case w.Pressure == nil:
		return Reading{}, missing("pressure")
	case w.Humidity == nil:
		return Reading{}, missing("humidity")
	case w.DateTime == nil:
		return Reading{}, missing("date_time")
	case w.SensorID == nil:
		return Reading{}, missing("sensor_id")
	}

	ts, err := time.Parse(time.RFC3339Nano, *w.DateTime)
	if err != nil {
		return Reading{}, fmt.Errorf("%w: date_time: expected RFC 3339", ErrMalformedReading)
	}

	return Reading{
		Temperature: *w.Temperature,
		Pressure:    *w.Pressure,
		Humidity:    *w.Humidity,
		CapturedAt:  ts.UTC(),
		SensorID:    *w.SensorID,
	}, nil
}

// DecodeBytes is Decode for payloads that arrive whole, such as MQTT messages.
func DecodeBytes(b []byte) (Reading, error) {
	return Decode(bytes.NewReader(b))
}

func missing(field string) error {
	return fmt.Errorf("%w: missing field %q", ErrMalformedReading, field)
}
