package types

import (
	"time"

	"github.com/ThatOneShortGuy/thermostat/internal/units"
)

type Sensor struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Active      bool   `json:"active"`
	CreatedDate string `json:"created_date"`
}

// StoredReading is one reading reassembled from the three measurement tables.
type StoredReading struct {
	SensorID    int64             `json:"sensor_id"`
	DateTime    time.Time         `json:"date_time"`
	Temperature units.Temperature `json:"temperature"`
	Fahrenheit  float64           `json:"temperature_f"`
	Pressure    float64           `json:"pressure"`
	Humidity    float64           `json:"humidity"`
}
