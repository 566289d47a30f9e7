package batch

import (
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/pqctscrub/pkg/journal"
	"github.com/ssargent/pqctscrub/pkg/metrics"
	"github.com/ssargent/pqctscrub/pkg/stratec"
)

func scanFile(t *testing.T, dir, name string) string {
	t.Helper()
	buf := make([]byte, stratec.MinFileSize)
	binary.LittleEndian.PutUint32(buf[stratec.OffsetMeasurementDate:], 20200102)
	binary.LittleEndian.PutUint32(buf[stratec.OffsetPatientNumber:], 99)
	binary.LittleEndian.PutUint32(buf[stratec.OffsetDateOfBirth:], 19700520)
	buf[stratec.OffsetFormatMarker] = 5
	copy(buf[stratec.OffsetFormatMarker+1:], "x.typ")
	buf[stratec.OffsetPatientName] = 3
	copy(buf[stratec.OffsetPatientName+1:], "BOB")

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf, 0644))
	return path
}

type memoryJournal struct {
	entries []journal.Entry
	err     error
}

func (m *memoryJournal) Record(e journal.Entry) (ksuid.KSUID, error) {
	if m.err != nil {
		return ksuid.Nil, m.err
	}
	m.entries = append(m.entries, e)
	return ksuid.New(), nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBatch_CountThenResults(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	pairs := []Pair{
		{Source: scanFile(t, in, "I0000001.M01"), Destination: filepath.Join(out, "I0000001.M01")},
		{Source: scanFile(t, in, "readme.txt"), Destination: filepath.Join(out, "readme.txt")},
		{Source: scanFile(t, in, "I0000002.M01"), Destination: filepath.Join(out, "I0000002.M01")},
	}

	p := &Processor{Logger: quietLogger()}
	b := p.Process(pairs)
	assert.Equal(t, 3, b.Total())

	var outcomes []stratec.Outcome
	for b.Next() {
		r := b.Result()
		assert.Equal(t, len(outcomes), r.Index)
		assert.Equal(t, pairs[r.Index].Source, r.Source)
		outcomes = append(outcomes, r.Outcome)
	}
	assert.Equal(t, []stratec.Outcome{stratec.Scrubbed, stratec.Ignored, stratec.Scrubbed}, outcomes)
	assert.Equal(t, Summary{Scrubbed: 2, Ignored: 1}, b.Summary())

	// The sentinel is sticky.
	assert.False(t, b.Next())

	assert.FileExists(t, filepath.Join(out, "I0000001.M01"))
	assert.NoFileExists(t, filepath.Join(out, "readme.txt"))
}

func TestBatch_FailureDoesNotStopBatch(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	pairs := []Pair{
		{Source: scanFile(t, in, "I0000001.M01"), Destination: filepath.Join(out, "I0000001.M01")},
		{Source: scanFile(t, in, "I0000002.M01"), Destination: filepath.Join(out, "no", "such", "dir", "I0000002.M01")},
		{Source: scanFile(t, in, "I0000003.M01"), Destination: filepath.Join(out, "I0000003.M01")},
	}

	results := (&Processor{Logger: quietLogger()}).Process(pairs).Run()
	require.Len(t, results, 3)

	assert.Equal(t, stratec.Scrubbed, results[0].Outcome)
	assert.Equal(t, stratec.Failed, results[1].Outcome)
	var ioe *stratec.IOError
	assert.True(t, errors.As(results[1].Err, &ioe))
	assert.Contains(t, results[1].Message(), "I0000002.M01")
	assert.Equal(t, stratec.Scrubbed, results[2].Outcome)
	assert.Empty(t, results[2].Message())
}

func TestBatch_FormatErrorBecomesFailed(t *testing.T) {
	dir := t.TempDir()
	bad := scanFile(t, dir, "I0000001.M01")
	data, err := os.ReadFile(bad)
	require.NoError(t, err)
	copy(data[stratec.OffsetFormatMarker+1:], "x.doc")
	require.NoError(t, os.WriteFile(bad, data, 0644))

	results := (&Processor{Logger: quietLogger()}).Process([]Pair{{Source: bad, Destination: bad}}).Run()
	require.Len(t, results, 1)
	assert.Equal(t, stratec.Failed, results[0].Outcome)
	assert.ErrorIs(t, results[0].Err, stratec.ErrFormat)

	after, err := os.ReadFile(bad)
	require.NoError(t, err)
	assert.Equal(t, data, after)
}

func TestBatch_Dump(t *testing.T) {
	dir := t.TempDir()
	pairs := []Pair{
		{Source: scanFile(t, dir, "I0000001.M01")},
		{Source: filepath.Join(dir, "I0000404.M01")},
	}

	results := (&Processor{Mode: ModeDump, Logger: quietLogger()}).Process(pairs).Run()
	require.Len(t, results, 2)

	assert.Equal(t, stratec.Dumped, results[0].Outcome)
	require.NotNil(t, results[0].Header)
	assert.Equal(t, uint32(99), results[0].Header.PatientNumber)
	assert.Equal(t, stratec.Date{Year: 1970, Month: 5, Day: 20}, results[0].Header.DateOfBirth)

	assert.Equal(t, stratec.Ignored, results[1].Outcome)
	assert.Nil(t, results[1].Header)
}

func TestBatch_StopEarlyLeavesRestUntouched(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	var pairs []Pair
	for _, name := range []string{"I0000001.M01", "I0000002.M01", "I0000003.M01"} {
		pairs = append(pairs, Pair{Source: scanFile(t, in, name), Destination: filepath.Join(out, name)})
	}

	b := (&Processor{Logger: quietLogger()}).Process(pairs)
	require.True(t, b.Next())

	assert.FileExists(t, pairs[0].Destination)
	assert.NoFileExists(t, pairs[1].Destination)
	assert.NoFileExists(t, pairs[2].Destination)
}

func TestBatch_JournalAndMetrics(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	src := scanFile(t, in, "I0000001.M01")
	pairs := []Pair{
		{Source: src, Destination: filepath.Join(out, "I0000001.M01")},
		{Source: filepath.Join(in, "notes.txt"), Destination: filepath.Join(out, "notes.txt")},
	}

	j := &memoryJournal{}
	m := metrics.NewMetrics()
	results := (&Processor{Logger: quietLogger(), Journal: j, Metrics: m}).Process(pairs).Run()
	require.Len(t, results, 2)

	require.Len(t, j.entries, 2)
	first := j.entries[0]
	assert.Equal(t, "scrub", first.Mode)
	assert.Equal(t, "scrubbed", first.Outcome)
	assert.Equal(t, pairs[0].Destination, first.Destination)
	assert.Equal(t, int64(stratec.MinFileSize), first.Size)
	assert.Len(t, first.Digest, 64)

	assert.Equal(t, "ignored", j.entries[1].Outcome)
	assert.Empty(t, j.entries[1].Digest)

	path := filepath.Join(t.TempDir(), "m.prom")
	require.NoError(t, m.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `pqctscrub_batches_total{mode="scrub"} 1`)
	assert.Contains(t, string(data), "pqctscrub_bytes_written_total 1610")
}

func TestBatch_JournalFailureKeepsOutcome(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	pairs := []Pair{{Source: scanFile(t, in, "I0000001.M01"), Destination: filepath.Join(out, "I0000001.M01")}}

	j := &memoryJournal{err: errors.New("disk full")}
	results := (&Processor{Logger: quietLogger(), Journal: j}).Process(pairs).Run()
	require.Len(t, results, 1)
	assert.Equal(t, stratec.Scrubbed, results[0].Outcome)
}

func TestProcess_CopiesPairs(t *testing.T) {
	pairs := []Pair{{Source: "a"}}
	b := (&Processor{Logger: quietLogger()}).Process(pairs)
	pairs[0].Source = "b"
	require.True(t, b.Next())
	assert.Equal(t, "a", b.Result().Source)
}
