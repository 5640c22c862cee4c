// Package units holds unit-typed physical quantities used on the wire and in storage.
//
// A Temperature always carries its magnitude in Kelvin. Callers pick the unit only at the
// edges: when constructing a value from a sensor or a user, and when displaying it.
package units

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"periph.io/x/conn/v3/physic"
)

// Unit is a temperature scale. The set is closed.
type Unit int

const (
	Kelvin Unit = iota
	Celsius
	Fahrenheit
)

const (
	celsiusOffset    = 273.15
	fahrenheitOffset = 459.67
	fahrenheitRatio  = 9.0 / 5.0
)

func (u Unit) String() string {
	switch u {
	case Celsius:
		return "°C"
	case Fahrenheit:
		return "°F"
	default:
		return "K"
	}
}

// ParseUnit accepts "K", "C", "F" or the full scale name, case-insensitively.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "k", "kelvin":
		return Kelvin, nil
	case "c", "celsius", "°c":
		return Celsius, nil
	case "f", "fahrenheit", "°f":
		return Fahrenheit, nil
	default:
		return Kelvin, fmt.Errorf("unknown temperature unit %q (allowed: K, C, F)", s)
	}
}

// Temperature is an immutable temperature value normalized to Kelvin.
// The zero value is absolute zero.
type Temperature struct {
	kelvin float64
}

// NewTemperature builds a Temperature from a magnitude expressed in u.
// No validation is done: NaN and negative absolute values pass through.
func NewTemperature(magnitude float64, u Unit) Temperature {
	return Temperature{kelvin: toKelvin(magnitude, u)}
}

// FromPhysic adapts a periph.io nano-Kelvin reading.
func FromPhysic(t physic.Temperature) Temperature {
	return Temperature{kelvin: float64(t) / float64(physic.Kelvin)}
}

// In returns the magnitude of t in the requested unit.
func (t Temperature) In(u Unit) float64 {
	return fromKelvin(t.kelvin, u)
}

// Kelvin is shorthand for t.In(Kelvin).
func (t Temperature) Kelvin() float64 {
	return t.kelvin
}

// Compare orders temperatures by their canonical magnitude.
func (t Temperature) Compare(o Temperature) int {
	switch {
	case t.kelvin < o.kelvin:
		return -1
	case t.kelvin > o.kelvin:
		return 1
	default:
		return 0
	}
}

func (t Temperature) Equal(o Temperature) bool {
	return t.kelvin == o.kelvin
}

func (t Temperature) String() string {
	return strconv.FormatFloat(t.kelvin, 'f', 2, 64) + " K"
}

// MarshalJSON writes the Kelvin magnitude as a bare number. The wire carries no unit tag.
func (t Temperature) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.kelvin)
}

func (t *Temperature) UnmarshalJSON(b []byte) error {
	var k float64
	if err := json.Unmarshal(b, &k); err != nil {
		return fmt.Errorf("temperature: %w", err)
	}
	t.kelvin = k
	return nil
}

// Value stores the Kelvin magnitude as a REAL column.
func (t Temperature) Value() (driver.Value, error) {
	return t.kelvin, nil
}

func (t *Temperature) Scan(src any) error {
	switch v := src.(type) {
	case float64:
		t.kelvin = v
	case int64:
		t.kelvin = float64(v)
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	default:
		return fmt.Errorf("temperature: cannot scan %T", src)
	}
	return nil
}

func (t *Temperature) parse(s string) error {
	k, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("temperature: %w", err)
	}
	t.kelvin = k
	return nil
}

func toKelvin(m float64, u Unit) float64 {
	switch u {
	case Celsius:
		return m + celsiusOffset
	case Fahrenheit:
		return (m + fahrenheitOffset) / fahrenheitRatio
	default:
		return m
	}
}

func fromKelvin(k float64, u Unit) float64 {
	switch u {
	case Celsius:
		return k - celsiusOffset
	case Fahrenheit:
		return k*fahrenheitRatio - fahrenheitOffset
	default:
		return k
	}
}
