package stratec

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
)

var namePattern = regexp.MustCompile(`(?i)^i[0-9]+\.m[0-9]{2}$`)

var markerSuffix = []byte(".typ")

// MatchesName reports whether the base name of path follows the
// I<digits>.M<2 digits> naming convention.
func MatchesName(path string) bool {
	return namePattern.MatchString(filepath.Base(path))
}

// IsRecognized is the pre-filter applied before a file is opened. It checks
// the name, that path is a regular file and that it is at least MinFileSize
// bytes. A missing file is simply not recognized; any other stat failure is
// returned as an *IOError.
func IsRecognized(path string) (bool, error) {
	if !MatchesName(path) {
		return false, nil
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, &IOError{Op: "stat", Path: path, Err: err}
	}
	if !info.Mode().IsRegular() {
		return false, nil
	}
	return info.Size() >= MinFileSize, nil
}

// IsFormatHeader reports whether the marker string at OffsetFormatMarker
// ends in ".typ", ignoring case.
func IsFormatHeader(buf []byte) bool {
	marker, err := ReadPascalString(buf, OffsetFormatMarker, 0)
	if err != nil {
		return false
	}
	return bytes.HasSuffix(bytes.ToLower(marker), markerSuffix)
}

func checkHeader(buf []byte, path string) error {
	if len(buf) < MinFileSize || !IsFormatHeader(buf) {
		return &FormatError{Path: path, Reason: "does not appear to be a stratec file"}
	}
	return nil
}
