package stratec

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// newHeader returns a MinFileSize buffer filled with a byte pattern and the
// fields of patient "DOE^JANE".
func newHeader(t testing.TB) []byte {
	t.Helper()

	buf := make([]byte, MinFileSize)
	for i := range buf {
		buf[i] = byte(i%251 + 1)
	}
	binary.LittleEndian.PutUint32(buf[OffsetMeasurementDate:], 20130415)
	binary.LittleEndian.PutUint16(buf[OffsetMeasurementNumber:], 7)
	binary.LittleEndian.PutUint32(buf[OffsetPatientNumber:], 1234567)
	binary.LittleEndian.PutUint32(buf[OffsetDateOfBirth:], 19561217)
	putPascal(t, buf, OffsetFormatMarker, "C:\\PQCT\\TIBIA.TYP")
	putPascal(t, buf, OffsetPatientName, "DOE^JANE")
	putPascal(t, buf, OffsetPatientID, "STUDY-042")
	return buf
}

func putPascal(t testing.TB, buf []byte, offset int, s string) {
	t.Helper()
	require.Less(t, len(s), 256)
	buf[offset] = byte(len(s))
	copy(buf[offset+1:], s)
}

// writeFixture stores data under dir with the given name and returns its path.
func writeFixture(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}
