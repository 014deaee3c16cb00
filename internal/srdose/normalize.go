package srdose

import (
	"fmt"
	"math"
)

// GyToMilliGy converts a dose in gray to milligray.
func GyToMilliGy(gy float64) float64 {
	return gy * 1000
}

// GySquareMetersToMicroGy converts a dose-area product in Gy·m² to µGy·m².
func GySquareMetersToMicroGy(v float64) float64 {
	return v * 1e6
}

// FormatDuration renders a duration in seconds as zero-padded HH:MM:SS.
// Fractional seconds are truncated.
func FormatDuration(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := total % 3600 / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Round2 rounds to two decimal places. Applied only when a record is built,
// never during accumulation.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
