package store

import (
	"fmt"
	"strings"

	"github.com/gabrielamaroufrj/OpenZoe/internal/models"
)

// Dose and DAP are kept as text in the store (decimal-comma input is
// tolerated), so comparisons cast through REPLACE before going numeric.
const (
	doseColumnExpr = "CAST(REPLACE(dose_mgy, ',', '.') AS DOUBLE PRECISION)"
	dapColumnExpr  = "CAST(REPLACE(dap, ',', '.') AS DOUBLE PRECISION)"
)

// BuildWhere compiles a filter into a conjunctive WHERE clause with
// positional parameters. The clause starts at " FROM exams WHERE 1=1" so
// callers prepend their SELECT list. Absent fields add no constraint.
func BuildWhere(f models.Filter) (string, []any) {
	var (
		b      strings.Builder
		params []any
	)
	ph := func(v any) string {
		params = append(params, v)
		return fmt.Sprintf("$%d", len(params))
	}

	b.WriteString(" FROM exams WHERE 1=1")

	if f.DateFrom != "" && f.DateTo != "" {
		fmt.Fprintf(&b, " AND date BETWEEN %s AND %s", ph(f.DateFrom), ph(f.DateTo))
	} else if f.DateFrom != "" {
		fmt.Fprintf(&b, " AND date >= %s", ph(f.DateFrom))
	}
	// An end date without a start date is ignored. That asymmetry is the
	// observed contract and is pinned by tests.

	if v, ok := decimalBound(f.MinDose); ok {
		fmt.Fprintf(&b, " AND %s >= %s", doseColumnExpr, ph(v))
	}
	if v, ok := decimalBound(f.MaxDose); ok {
		fmt.Fprintf(&b, " AND %s <= %s", doseColumnExpr, ph(v))
	}

	if f.Physician.IsMulti() {
		marks := make([]string, len(f.Physician.Many))
		for i, m := range f.Physician.Many {
			marks[i] = ph(m)
		}
		fmt.Fprintf(&b, " AND physician_id IN (%s)", strings.Join(marks, ","))
	} else if f.Physician.Single != "" {
		fmt.Fprintf(&b, " AND physician_id = %s", ph(f.Physician.Single))
	}

	if exam := strings.TrimSpace(f.Exam); exam != "" {
		fmt.Fprintf(&b, " AND exam_label = %s", ph(exam))
	}

	// Duration bounds compare lexicographically; valid because the format
	// is fixed-width zero-padded HH:MM:SS.
	if d := strings.TrimSpace(f.MinDuration); d != "" {
		fmt.Fprintf(&b, " AND duration >= %s", ph(d))
	}
	if d := strings.TrimSpace(f.MaxDuration); d != "" {
		fmt.Fprintf(&b, " AND duration <= %s", ph(d))
	}

	if v, ok := decimalBound(f.MinDAP); ok {
		fmt.Fprintf(&b, " AND %s >= %s", dapColumnExpr, ph(v))
	}
	if v, ok := decimalBound(f.MaxDAP); ok {
		fmt.Fprintf(&b, " AND %s <= %s", dapColumnExpr, ph(v))
	}

	if room := strings.TrimSpace(f.Room); room != "" {
		fmt.Fprintf(&b, " AND room = %s", ph(room))
	}
	if sex := strings.TrimSpace(f.Sex); sex != "" {
		fmt.Fprintf(&b, " AND sex = %s", ph(sex))
	}
	if pid := strings.TrimSpace(f.PatientID); pid != "" {
		fmt.Fprintf(&b, " AND patient_id = %s", ph(pid))
	}

	return b.String(), params
}

// decimalBound parses an optional numeric bound, tolerating a decimal comma.
// Blank or unparsable input means no constraint.
func decimalBound(raw string) (float64, bool) {
	if strings.TrimSpace(raw) == "" {
		return 0, false
	}
	v, err := models.ParseDecimal(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
