// Package models holds the domain types shared by the parser, the record
// store and the reporting engine.
package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Sex is the patient sex as recorded in the store.
type Sex string

const (
	SexFemale Sex = "F"
	SexMale   Sex = "M"
	// SexUnknown covers every value that is not F or M.
	SexUnknown Sex = "NI"
)

// ParseSex normalizes a raw PatientSex value. Anything other than F or M
// (case-insensitive) becomes SexUnknown.
func ParseSex(raw string) Sex {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "F":
		return SexFemale
	case "M":
		return SexMale
	default:
		return SexUnknown
	}
}

// ExamRecord is one radiological procedure's dose exposure.
type ExamRecord struct {
	ID          int64
	Date        string // YYYY-MM-DD
	PhysicianID string // badge number or raw name fallback
	ExamLabel   string
	DoseMGy     float64
	Duration    string // HH:MM:SS, zero padded
	DAP         float64 // µGy·m²
	PatientID   string
	Sex         Sex
	Room        string // manufacturer-serial composite
}

// ParseDecimal parses a numeric string, accepting a locale decimal comma in
// place of the decimal point.
func ParseDecimal(raw string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse decimal %q: %w", raw, err)
	}
	return v, nil
}

// FormatDecimal renders a value the way the store keeps it: two decimal
// places, dot separator.
func FormatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
