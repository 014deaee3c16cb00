package srdose

import (
	"fmt"
	"os"
	"testing"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Test-side builder for synthetic Structured Report files.

const (
	xrayDoseSRClassUID  = "1.2.840.10008.5.1.4.1.1.88.67"
	explicitVRLittleUID = "1.2.840.10008.1.2.1"
)

// mustNewElement creates a new DICOM element, panicking on error.
func mustNewElement(t tag.Tag, value interface{}) *dicom.Element {
	elem, err := dicom.NewElement(t, value)
	if err != nil {
		panic(fmt.Sprintf("failed to create element %v: %v", t, err))
	}
	return elem
}

// contentItem builds the elements of one content-sequence item: a coded
// concept, an optional measured value and optional nested children.
func contentItem(code, numeric string, children ...[]*dicom.Element) []*dicom.Element {
	var elems []*dicom.Element
	if code != "" {
		elems = append(elems, mustNewElement(tag.ConceptNameCodeSequence, [][]*dicom.Element{{
			mustNewElement(tag.CodeValue, []string{code}),
			mustNewElement(tag.CodingSchemeDesignator, []string{"DCM"}),
			mustNewElement(tag.CodeMeaning, []string{"Test Concept"}),
		}}))
	}
	if numeric != "" {
		elems = append(elems, mustNewElement(tag.MeasuredValueSequence, [][]*dicom.Element{{
			mustNewElement(tag.NumericValue, []string{numeric}),
		}}))
	}
	if len(children) > 0 {
		elems = append(elems, mustNewElement(tag.ContentSequence, children))
	}
	return elems
}

// srDataset assembles a minimal dose SR dataset around the given content
// items and extra header elements.
func srDataset(modality string, extra []*dicom.Element, content [][]*dicom.Element) dicom.Dataset {
	ds := dicom.Dataset{Elements: []*dicom.Element{
		mustNewElement(tag.MediaStorageSOPClassUID, []string{xrayDoseSRClassUID}),
		mustNewElement(tag.MediaStorageSOPInstanceUID, []string{"1.2.826.0.1.3680043.8.498.101"}),
		mustNewElement(tag.TransferSyntaxUID, []string{explicitVRLittleUID}),
		mustNewElement(tag.SOPClassUID, []string{xrayDoseSRClassUID}),
		mustNewElement(tag.SOPInstanceUID, []string{"1.2.826.0.1.3680043.8.498.101"}),
		mustNewElement(tag.Modality, []string{modality}),
	}}
	ds.Elements = append(ds.Elements, extra...)
	if len(content) > 0 {
		ds.Elements = append(ds.Elements, mustNewElement(tag.ContentSequence, content))
	}
	return ds
}

// writeDatasetToFile writes a DICOM dataset to a file.
func writeDatasetToFile(t *testing.T, path string, ds dicom.Dataset) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer func() { _ = f.Close() }()

	if err := dicom.Write(f, ds); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
