// Package srdose extracts dose metrics from DICOM Structured Report
// documents and imports them into the exam store.
package srdose

// Metric identifies one canonical dose metric extracted from an SR tree.
type Metric int

const (
	// MetricDAPTotal is the accumulated dose-area product of the whole
	// procedure, in Gy·m².
	MetricDAPTotal Metric = iota
	// MetricDoseRPTotal is the total dose at the reference point, in Gy.
	MetricDoseRPTotal
	// MetricFluoroTime is the total fluoroscopy time, in seconds.
	MetricFluoroTime
	// MetricAcquisitionTime is the total acquisition time, in seconds.
	MetricAcquisitionTime
	// MetricEventDAP is the per-irradiation-event dose-area product, in Gy·m².
	MetricEventDAP
	// MetricEventDoseRP is the per-irradiation-event reference-point dose, in Gy.
	MetricEventDoseRP
)

// CombineRule says how repeated occurrences of the same code combine within
// one document.
type CombineRule int

const (
	// RuleOverwrite keeps the last value seen.
	RuleOverwrite CombineRule = iota
	// RuleAccumulate sums every occurrence, independent of nesting depth.
	RuleAccumulate
)

// CodeInfo describes one coded concept the walker recognizes.
type CodeInfo struct {
	Name   string
	Metric Metric
	Rule   CombineRule
	Unit   string
}

// codeRegistry maps DCM code values to the metric they feed. Codes come
// from the DICOM radiation dose SR templates.
var codeRegistry = map[string]CodeInfo{
	"113722": {Name: "Dose Area Product Total", Metric: MetricDAPTotal, Rule: RuleOverwrite, Unit: "Gy.m2"},
	"113725": {Name: "Dose (RP) Total", Metric: MetricDoseRPTotal, Rule: RuleOverwrite, Unit: "Gy"},
	"113730": {Name: "Total Fluoro Time", Metric: MetricFluoroTime, Rule: RuleAccumulate, Unit: "s"},
	"113855": {Name: "Total Acquisition Time", Metric: MetricAcquisitionTime, Rule: RuleAccumulate, Unit: "s"},
	"122130": {Name: "Dose Area Product", Metric: MetricEventDAP, Rule: RuleAccumulate, Unit: "Gy.m2"},
	"113738": {Name: "Dose (RP)", Metric: MetricEventDoseRP, Rule: RuleAccumulate, Unit: "Gy"},
}

// LookupCode returns the CodeInfo for a DCM code value.
func LookupCode(code string) (CodeInfo, bool) {
	info, ok := codeRegistry[code]
	return info, ok
}

// metricAccumulator collects the matched metrics of a single document. It is
// scoped to one file and discarded afterwards.
type metricAccumulator map[Metric]float64

func (a metricAccumulator) apply(info CodeInfo, value float64) {
	if info.Rule == RuleAccumulate {
		a[info.Metric] += value
		return
	}
	a[info.Metric] = value
}

// totalOrEvents prefers the procedure-total metric and falls back to the
// summed per-event values, so documents carrying both never double-count.
func (a metricAccumulator) totalOrEvents(total, events Metric) float64 {
	if v, ok := a[total]; ok {
		return v
	}
	return a[events]
}
