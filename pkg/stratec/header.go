package stratec

import (
	"os"

	"golang.org/x/text/encoding/charmap"
)

// HeaderFields holds the header values reported by a dump.
type HeaderFields struct {
	MeasurementDate   Date
	MeasurementNumber uint16
	PatientNumber     uint32
	DateOfBirth       Date
	PatientName       []byte
	PatientID         []byte
}

// DecodeHeader extracts the dump fields from a raw header. The returned
// value does not share memory with buf.
func DecodeHeader(buf []byte) (*HeaderFields, error) {
	if err := checkHeader(buf, ""); err != nil {
		return nil, err
	}

	var (
		h   HeaderFields
		err error
	)
	if h.MeasurementDate, err = ReadDate(buf, OffsetMeasurementDate); err != nil {
		return nil, err
	}
	if h.MeasurementNumber, err = ReadUint16(buf, OffsetMeasurementNumber); err != nil {
		return nil, err
	}
	if h.PatientNumber, err = ReadUint32(buf, OffsetPatientNumber); err != nil {
		return nil, err
	}
	if h.DateOfBirth, err = ReadDate(buf, OffsetDateOfBirth); err != nil {
		return nil, err
	}
	if h.PatientName, err = ReadPascalString(buf, OffsetPatientName, PatientNameWidth); err != nil {
		return nil, err
	}
	if h.PatientID, err = ReadPascalString(buf, OffsetPatientID, 0); err != nil {
		return nil, err
	}
	return &h, nil
}

// ReadHeader reads and decodes the header of the file at path. It returns a
// nil header and nil error for files rejected by IsRecognized.
func ReadHeader(path string) (*HeaderFields, error) {
	ok, err := IsRecognized(path)
	if err != nil || !ok {
		return nil, err
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Op: "open/read", Path: path, Err: err}
	}
	if err := checkHeader(buf, path); err != nil {
		return nil, err
	}
	h, err := DecodeHeader(buf)
	if err != nil {
		return nil, withPath(err, path)
	}
	return h, nil
}

// PatientNameText decodes the patient name. Header strings are stored in the
// Windows code page of the scanner software.
func (h *HeaderFields) PatientNameText() string {
	return decodeText(h.PatientName)
}

// PatientIDText decodes the patient ID.
func (h *HeaderFields) PatientIDText() string {
	return decodeText(h.PatientID)
}

func decodeText(b []byte) string {
	s, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}
