package models

// AggregationRow is one group's statistics. Key is the grouping value
// (physician or exam label). SubKey carries the physician when grouping by
// exam and physician together, and is empty otherwise. Rows with a zero
// count are never produced.
type AggregationRow struct {
	Key    string
	SubKey string
	Mean   float64
	Min    float64
	Max    float64
	Count  int
}

// TimeSeriesPoint is one day's exam count. Physician is empty in
// single-group series.
type TimeSeriesPoint struct {
	Date      string // YYYY-MM-DD
	Physician string
	Count     int
}
