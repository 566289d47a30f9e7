// Package report formats batch results for people and downstream tools.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ssargent/pqctscrub/pkg/batch"
	"github.com/ssargent/pqctscrub/pkg/stratec"
)

// Format selects the dump output format
type Format string

const (
	FormatTSV  Format = "tsv"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want tsv or json)", s)
	}
}

// FormatRow returns the dump columns of one file in their fixed order:
// path, patient number, date of birth, measurement date, measurement number.
func FormatRow(path string, h *stratec.HeaderFields) []string {
	return []string{
		path,
		strconv.FormatUint(uint64(h.PatientNumber), 10),
		h.DateOfBirth.String(),
		h.MeasurementDate.String(),
		strconv.FormatUint(uint64(h.MeasurementNumber), 10),
	}
}

// WriteTSV writes one tab-delimited dump line
func WriteTSV(w io.Writer, path string, h *stratec.HeaderFields) error {
	_, err := fmt.Fprintln(w, strings.Join(FormatRow(path, h), "\t"))
	return err
}

// Header is the JSON form of a dump, including the identifying fields the
// TSV form leaves out.
type Header struct {
	Path              string `json:"path"`
	PatientNumber     uint32 `json:"patient_no"`
	DateOfBirth       string `json:"dob"`
	MeasurementDate   string `json:"meas_date"`
	MeasurementNumber uint16 `json:"meas_no"`
	PatientName       string `json:"patient_name"`
	PatientID         string `json:"patient_id"`
}

// NewHeader converts decoded fields to their JSON form
func NewHeader(path string, h *stratec.HeaderFields) Header {
	return Header{
		Path:              path,
		PatientNumber:     h.PatientNumber,
		DateOfBirth:       h.DateOfBirth.String(),
		MeasurementDate:   h.MeasurementDate.String(),
		MeasurementNumber: h.MeasurementNumber,
		PatientName:       h.PatientNameText(),
		PatientID:         h.PatientIDText(),
	}
}

// WriteJSON writes one dump record as a JSON line
func WriteJSON(w io.Writer, path string, h *stratec.HeaderFields) error {
	return json.NewEncoder(w).Encode(NewHeader(path, h))
}

// WriteDump writes a dumped result in format f. Results without a header
// are skipped.
func WriteDump(w io.Writer, f Format, r batch.Result) error {
	if r.Header == nil {
		return nil
	}
	if f == FormatJSON {
		return WriteJSON(w, r.Source, r.Header)
	}
	return WriteTSV(w, r.Source, r.Header)
}

// WriteOutcome writes the "<path>: <outcome>." progress line of a result.
func WriteOutcome(w io.Writer, r batch.Result) error {
	var err error
	if r.Err != nil {
		_, err = fmt.Fprintf(w, "%s: %s. %s\n", r.Source, r.Outcome, r.Message())
	} else {
		_, err = fmt.Fprintf(w, "%s: %s.\n", r.Source, r.Outcome)
	}
	return err
}

// WriteSummary writes one line of outcome counts.
func WriteSummary(w io.Writer, s batch.Summary) error {
	_, err := fmt.Fprintf(w, "%d scrubbed, %d dumped, %d ignored, %d failed\n", s.Scrubbed, s.Dumped, s.Ignored, s.Failed)
	return err
}
