// Package icon picks the day or night variant of an OpenWeatherMap icon code.
package icon

import (
	"fmt"
	"time"
)

// The daytime window is [DayStartHour, NightStartHour) in the place's zone.
const (
	DayStartHour   = 6
	NightStartHour = 18
)

// Fallback is used when a sample carries no condition.
const Fallback = "01d"

// IsDaytime reports whether t falls within the daytime window.
func IsDaytime(t time.Time) bool {
	h := t.Hour()
	return h >= DayStartHour && h < NightStartHour
}

// ForTime returns code with its trailing day/night marker replaced to match t.
// The caller decides the zone of t.
func ForTime(code string, t time.Time) string {
	if code == "" {
		code = Fallback
	}
	suffix := "n"
	if IsDaytime(t) {
		suffix = "d"
	}
	return code[:len(code)-1] + suffix
}

// URL returns the openweathermap.org image for an icon code.
func URL(code string) string {
	return fmt.Sprintf("https://openweathermap.org/img/wn/%s@4x.png", code)
}
