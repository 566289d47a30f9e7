package stratec

import (
	"encoding/binary"
	"fmt"
)

// Header layout.
const (
	MinFileSize = 1610

	OffsetMeasurementDate   = 986
	OffsetFormatMarker      = 1050
	OffsetMeasurementNumber = 1085
	OffsetPatientNumber     = 1087
	OffsetDateOfBirth       = 1091
	OffsetPatientName       = 1099
	OffsetPatientID         = 1282

	// PatientNameWidth covers the length byte and 40 data bytes.
	PatientNameWidth = 41

	// pascalMaxWidth is the widest a Pascal string can be: one length byte
	// and up to 255 data bytes.
	pascalMaxWidth = 256
)

func checkBounds(buf []byte, offset, width int) error {
	if offset < 0 || width < 0 || offset+width > len(buf) {
		return &FormatError{Reason: fmt.Sprintf("is too short for a %d byte field at offset %d", width, offset)}
	}
	return nil
}

// ReadUint16 decodes a little-endian uint16 at offset.
func ReadUint16(buf []byte, offset int) (uint16, error) {
	if err := checkBounds(buf, offset, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[offset:]), nil
}

// ReadUint32 decodes a little-endian uint32 at offset.
func ReadUint32(buf []byte, offset int) (uint32, error) {
	if err := checkBounds(buf, offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[offset:]), nil
}

// ReadDate decodes a packed date at offset.
func ReadDate(buf []byte, offset int) (Date, error) {
	v, err := ReadUint32(buf, offset)
	if err != nil {
		return Date{}, err
	}
	return ParseDate(v)
}

// ReadPascalString returns a copy of the length-prefixed string at offset.
// Width is the space reserved for the field including its length byte; pass
// 0 for fields without a reserved width.
func ReadPascalString(buf []byte, offset, width int) ([]byte, error) {
	if width == 0 {
		width = pascalMaxWidth
	}
	if err := checkBounds(buf, offset, 1); err != nil {
		return nil, err
	}
	n := int(buf[offset])
	if n > width-1 {
		return nil, &FormatError{Reason: fmt.Sprintf("has a %d byte string in a %d byte field at offset %d", n, width, offset)}
	}
	if err := checkBounds(buf, offset+1, n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, buf[offset+1:offset+1+n])
	return out, nil
}

// WriteUint32 overwrites 4 bytes at offset with v, little-endian.
func WriteUint32(buf []byte, offset int, v uint32) error {
	if err := checkBounds(buf, offset, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(buf[offset:], v)
	return nil
}

// WriteFixedString overwrites a Pascal string field of the given width. The
// bytes after value are zeroed, so an empty value leaves width zero bytes and
// nothing of the previous contents.
func WriteFixedString(buf []byte, offset int, value []byte, width int) error {
	if width < 1 || width > pascalMaxWidth {
		return fmt.Errorf("invalid pascal string width %d", width)
	}
	if len(value) > width-1 {
		return fmt.Errorf("string of %d bytes does not fit a %d byte field", len(value), width)
	}
	if err := checkBounds(buf, offset, width); err != nil {
		return err
	}
	field := buf[offset : offset+width]
	field[0] = byte(len(value))
	n := copy(field[1:], value)
	clear(field[1+n:])
	return nil
}
