package srdose

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/gabrielamaroufrj/OpenZoe/internal/models"
)

// ErrNotApplicable marks a readable DICOM file whose modality is not
// Structured Report. Such files are skipped, not counted as errors.
var ErrNotApplicable = errors.New("not a structured report")

// ParseFile reads one DICOM file and builds an exam record from its dose
// metrics. Pixel data is never read.
func ParseFile(path string) (*models.ExamRecord, error) {
	ds, err := dicom.ParseFile(path, nil, dicom.SkipPixelData())
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if datasetString(&ds, tag.Modality) != "SR" {
		return nil, ErrNotApplicable
	}

	acc := metricAccumulator{}
	if seq, ferr := ds.FindElementByTag(tag.ContentSequence); ferr == nil {
		walkContent(seq, acc)
	}

	manufacturer := datasetString(&ds, tag.Manufacturer)
	if manufacturer == "" {
		manufacturer = "Unknown"
	}
	patientID := datasetString(&ds, tag.PatientID)
	if patientID == "" {
		patientID = "0"
	}
	examLabel := datasetString(&ds, tag.AdmittingDiagnosesDescription)
	if examLabel == "" {
		examLabel = datasetString(&ds, tag.StudyDescription)
	}
	if examLabel == "" {
		examLabel = "NI"
	}
	physicianRaw := datasetString(&ds, tag.PerformingPhysicianName)

	rec := &models.ExamRecord{
		Date:        formatStudyDate(datasetString(&ds, tag.StudyDate), time.Now()),
		PhysicianID: IdentifyPhysician(physicianRaw),
		ExamLabel:   examLabel,
		DoseMGy:     Round2(GyToMilliGy(acc.totalOrEvents(MetricDoseRPTotal, MetricEventDoseRP))),
		Duration:    FormatDuration(acc[MetricFluoroTime]),
		DAP:         Round2(GySquareMetersToMicroGy(acc.totalOrEvents(MetricDAPTotal, MetricEventDAP))),
		PatientID:   patientID,
		Sex:         models.ParseSex(datasetString(&ds, tag.PatientSex)),
		Room:        manufacturer + "-" + datasetString(&ds, tag.DeviceSerialNumber),
	}
	return rec, nil
}

// walkContent visits every nested content item with an explicit worklist so
// that document depth never grows the call stack. Items are pushed back to
// front so the LIFO pops follow document order; overwrite-rule codes depend
// on the last occurrence winning. The accumulator is shared across the whole
// document: a code found twice at different depths combines by its rule,
// independent of nesting.
func walkContent(root *dicom.Element, acc metricAccumulator) {
	work := pushReversed(nil, sequenceItems(root))
	for len(work) > 0 {
		item := work[len(work)-1]
		work = work[:len(work)-1]

		elems, ok := item.GetValue().([]*dicom.Element)
		if !ok {
			continue
		}
		if code, found := nestedString(elems, tag.ConceptNameCodeSequence, tag.CodeValue); found {
			if info, known := LookupCode(code); known {
				if raw, has := nestedString(elems, tag.MeasuredValueSequence, tag.NumericValue); has {
					if v, perr := models.ParseDecimal(raw); perr == nil {
						acc.apply(info, v)
					}
				}
			}
		}
		var children []*dicom.SequenceItemValue
		for _, el := range elems {
			if el.Tag == tag.ContentSequence {
				children = append(children, sequenceItems(el)...)
			}
		}
		work = pushReversed(work, children)
	}
}

// pushReversed appends items in reverse index order, so popping from the end
// of work yields them in their original order.
func pushReversed(work, items []*dicom.SequenceItemValue) []*dicom.SequenceItemValue {
	for i := len(items) - 1; i >= 0; i-- {
		work = append(work, items[i])
	}
	return work
}

func sequenceItems(el *dicom.Element) []*dicom.SequenceItemValue {
	items, ok := el.Value.GetValue().([]*dicom.SequenceItemValue)
	if !ok {
		return nil
	}
	return items
}

// nestedString returns the first valueTag string found inside the first item
// of the seqTag sequence among elems.
func nestedString(elems []*dicom.Element, seqTag, valueTag tag.Tag) (string, bool) {
	for _, el := range elems {
		if el.Tag != seqTag {
			continue
		}
		for _, item := range sequenceItems(el) {
			inner, ok := item.GetValue().([]*dicom.Element)
			if !ok {
				continue
			}
			for _, ie := range inner {
				if ie.Tag == valueTag {
					return firstString(ie), true
				}
			}
		}
	}
	return "", false
}

func datasetString(ds *dicom.Dataset, t tag.Tag) string {
	el, err := ds.FindElementByTag(t)
	if err != nil {
		return ""
	}
	return firstString(el)
}

func firstString(el *dicom.Element) string {
	vals, ok := el.Value.GetValue().([]string)
	if !ok || len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0])
}

// formatStudyDate reformats an 8-digit DICOM DA value as YYYY-MM-DD. Any
// other shape falls back to the processing day; that fallback is deliberate,
// not a parse error.
func formatStudyDate(raw string, now time.Time) string {
	if len(raw) == 8 && isDigits(raw) {
		return raw[0:4] + "-" + raw[4:6] + "-" + raw[6:8]
	}
	return now.Format("2006-01-02")
}
