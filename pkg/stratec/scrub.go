package stratec

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Outcome is the result of processing one file.
type Outcome int

const (
	// Ignored files were rejected by the pre-filter and left alone.
	Ignored Outcome = iota
	// Scrubbed files were de-identified and written to their destination.
	Scrubbed
	// Failed files looked like Stratec files but could not be processed.
	Failed
	// Dumped files had their header read by a dump. Scrub never returns it.
	Dumped
)

func (o Outcome) String() string {
	switch o {
	case Scrubbed:
		return "scrubbed"
	case Ignored:
		return "ignored"
	case Failed:
		return "failed"
	case Dumped:
		return "dumped"
	default:
		return "unknown"
	}
}

// ScrubHeader de-identifies a raw header in place: the date of birth is
// rounded to the nearest first of the month and the patient name field is
// zeroed. No other byte is touched. On error buf is unchanged.
func ScrubHeader(buf []byte) error {
	if err := checkHeader(buf, ""); err != nil {
		return err
	}
	dob, err := ReadUint32(buf, OffsetDateOfBirth)
	if err != nil {
		return err
	}
	rounded, err := RoundToNearestMonth(dob)
	if err != nil {
		return err
	}
	if err := WriteUint32(buf, OffsetDateOfBirth, rounded.Packed()); err != nil {
		return err
	}
	return WriteFixedString(buf, OffsetPatientName, nil, PatientNameWidth)
}

// Scrub de-identifies the file at inPath and writes the result to outPath.
// The two paths may be the same. Files rejected by IsRecognized are Ignored
// with a nil error; otherwise the error is a *FormatError or *IOError and
// outPath is left as it was.
func Scrub(inPath, outPath string) (Outcome, error) {
	ok, err := IsRecognized(inPath)
	if err != nil {
		return Failed, err
	}
	if !ok {
		return Ignored, nil
	}

	// The whole input is in memory before outPath is opened, which keeps
	// in-place scrubbing from reading its own output.
	buf, err := os.ReadFile(inPath)
	if err != nil {
		return Failed, &IOError{Op: "open/read", Path: inPath, Err: err}
	}
	if err := ScrubHeader(buf); err != nil {
		return Failed, withPath(err, inPath)
	}
	if err := writeFile(outPath, buf); err != nil {
		return Failed, err
	}
	return Scrubbed, nil
}

// writeFile replaces the file at path with data. Symbolic links are
// followed so the data lands in the file they name. A new file or one with a
// single link is replaced through a temporary file in the same directory,
// synced and closed before the rename and removed on any failure. A file
// with more than one hard link is rewritten in place so every name sees the
// new contents.
func writeFile(path string, data []byte) (err error) {
	target, err := resolveDestination(path)
	if err != nil {
		return &IOError{Op: "write modified", Path: path, Err: err}
	}

	perm := fs.FileMode(0644)
	if info, statErr := os.Stat(target); statErr == nil {
		if !info.Mode().IsRegular() {
			return &IOError{Op: "write modified", Path: path, Err: errors.New("destination is not a regular file")}
		}
		if linkCount(info) > 1 {
			return writeThrough(path, target, data)
		}
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return &IOError{Op: "write modified", Path: path, Err: err}
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return &IOError{Op: "write modified", Path: path, Err: err}
	}
	if err = tmp.Chmod(perm); err != nil {
		return &IOError{Op: "write modified", Path: path, Err: err}
	}
	if err = tmp.Sync(); err != nil {
		return &IOError{Op: "write modified", Path: path, Err: err}
	}
	if err = tmp.Close(); err != nil {
		return &IOError{Op: "write modified", Path: path, Err: err}
	}
	if err = os.Rename(tmp.Name(), target); err != nil {
		return &IOError{Op: "write modified", Path: path, Err: err}
	}
	return nil
}

// resolveDestination returns the file path names once symbolic links are
// followed. A path that does not exist yet is returned unchanged; a link
// whose target is missing is an error.
func resolveDestination(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if _, lerr := os.Lstat(path); errors.Is(lerr, fs.ErrNotExist) {
		return path, nil
	}
	return "", err
}

// writeThrough truncates and rewrites target without replacing its inode.
func writeThrough(path, target string, data []byte) error {
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return &IOError{Op: "write modified", Path: path, Err: err}
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return &IOError{Op: "write modified", Path: path, Err: err}
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return &IOError{Op: "write modified", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &IOError{Op: "write modified", Path: path, Err: err}
	}
	return nil
}
