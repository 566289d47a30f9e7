//go:build fuzz
// +build fuzz

package stratec

import (
	"bytes"
	"testing"
)

// FuzzRoundToNearestMonth checks that rounding lands on a first of the month
// no more than half a month away and that rounding twice changes nothing.
func FuzzRoundToNearestMonth(f *testing.F) {
	f.Add(uint32(19561217))
	f.Add(uint32(19561216))
	f.Add(uint32(20000229))
	f.Add(uint32(0))

	f.Fuzz(func(t *testing.T, packed uint32) {
		rounded, err := RoundToNearestMonth(packed)
		if err != nil {
			return
		}
		if rounded.Day != 1 {
			t.Fatalf("rounded %d to %s", packed, rounded)
		}
		d, _ := ParseDate(packed)
		if diff := rounded.Time().Sub(d.Time()).Hours() / 24; diff > 16 || diff < -16 {
			t.Fatalf("rounded %d by %.0f days", packed, diff)
		}
		again, err := RoundToNearestMonth(rounded.Packed())
		if err != nil || again != rounded {
			t.Fatalf("rounding %s again gave %s, %v", rounded, again, err)
		}
	})
}

// FuzzScrubHeader checks that scrubbing arbitrary buffers never changes bytes
// outside the date of birth and name fields.
func FuzzScrubHeader(f *testing.F) {
	f.Add(newHeader(f))
	f.Add(make([]byte, MinFileSize))

	f.Fuzz(func(t *testing.T, buf []byte) {
		in := bytes.Clone(buf)
		if err := ScrubHeader(buf); err != nil {
			if !bytes.Equal(in, buf) {
				t.Fatal("failed scrub modified the buffer")
			}
			return
		}
		if !bytes.Equal(in[:OffsetDateOfBirth], buf[:OffsetDateOfBirth]) ||
			!bytes.Equal(in[OffsetDateOfBirth+4:OffsetPatientName], buf[OffsetDateOfBirth+4:OffsetPatientName]) ||
			!bytes.Equal(in[OffsetPatientName+PatientNameWidth:], buf[OffsetPatientName+PatientNameWidth:]) {
			t.Fatal("scrub modified bytes outside the scrubbed fields")
		}
		if !bytes.Equal(buf[OffsetPatientName:OffsetPatientName+PatientNameWidth], make([]byte, PatientNameWidth)) {
			t.Fatal("name field not zeroed")
		}
	})
}
