// Package units converts raw OpenWeatherMap units into display units.
package units

import (
	"fmt"
	"math"
)

const absoluteZeroCelsius = 273.15

// KelvinToCelsius returns the temperature rounded to the nearest degree.
func KelvinToCelsius(kelvin float64) int {
	return int(math.Round(kelvin - absoluteZeroCelsius))
}

func MetersPerSecondToKmh(speed float64) float64 {
	return speed * 3.6
}

func MetersToKilometers(meters float64) float64 {
	return meters / 1000
}

// FormatWindSpeed renders a m/s speed as whole km/h, e.g. "6km/h".
func FormatWindSpeed(speed float64) string {
	return fmt.Sprintf("%.0fkm/h", MetersPerSecondToKmh(speed))
}

// FormatVisibility renders a distance in meters as whole kilometers, e.g. "10km".
func FormatVisibility(meters float64) string {
	return fmt.Sprintf("%.0fkm", MetersToKilometers(meters))
}
