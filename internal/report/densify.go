package report

import (
	"sort"
	"time"

	"github.com/gabrielamaroufrj/OpenZoe/internal/models"
)

const dayLayout = "2006-01-02"

// Densify expands grouped daily counts into a contiguous series: every
// calendar day between the earliest and latest observed date appears exactly
// once, with zero for days that had no exams. Empty input yields empty
// output; the span is never invented.
func Densify(points []models.TimeSeriesPoint) []models.TimeSeriesPoint {
	counts := make(map[string]int, len(points))
	first, last, ok := dateSpan(points)
	if !ok {
		return nil
	}
	for _, p := range points {
		counts[p.Date] = p.Count
	}

	var out []models.TimeSeriesPoint
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		day := d.Format(dayLayout)
		out = append(out, models.TimeSeriesPoint{Date: day, Count: counts[day]})
	}
	return out
}

// DensifyByPhysician fills the full cartesian product of observed dates and
// observed physicians. A physician appearing anywhere in the input gets a
// point for every day of the span, zero when absent. Output is date-major
// with physicians in ascending order.
func DensifyByPhysician(points []models.TimeSeriesPoint) []models.TimeSeriesPoint {
	first, last, ok := dateSpan(points)
	if !ok {
		return nil
	}

	counts := make(map[string]map[string]int)
	var physicians []string
	for _, p := range points {
		if _, seen := counts[p.Physician]; !seen {
			counts[p.Physician] = make(map[string]int)
			physicians = append(physicians, p.Physician)
		}
		counts[p.Physician][p.Date] = p.Count
	}
	sort.Strings(physicians)

	var out []models.TimeSeriesPoint
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		day := d.Format(dayLayout)
		for _, phys := range physicians {
			out = append(out, models.TimeSeriesPoint{Date: day, Physician: phys, Count: counts[phys][day]})
		}
	}
	return out
}

// dateSpan finds the inclusive min/max of the parsable dates in points.
func dateSpan(points []models.TimeSeriesPoint) (first, last time.Time, ok bool) {
	for _, p := range points {
		d, err := time.Parse(dayLayout, p.Date)
		if err != nil {
			continue
		}
		if !ok || d.Before(first) {
			first = d
		}
		if !ok || d.After(last) {
			last = d
		}
		ok = true
	}
	return first, last, ok
}
