// Package synthetic fabricates stable mock telemetry. Every value is derived
// from Seeded, so the same logical coordinate (hour, plant, parameter) yields
// the same number for as long as the inputs do not change.
package synthetic

import (
	"math"
	"time"
)

// Seeded maps seed to a deterministic value in [0,1) as the fractional part
// of sin(seed)*10000.
func Seeded(seed int) float64 {
	x := math.Sin(float64(seed)) * 10000
	return x - math.Floor(x)
}

// Spread maps seed to [-1,1).
func Spread(seed int) float64 {
	return Seeded(seed)*2 - 1
}

// HourStart truncates t to the start of its hour in t's location.
func HourStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

func round(value float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(value*scale) / scale
}
