// Package batch runs the scrub or dump operation over a list of files.
//
// A Batch reports its size before any file is touched and then processes
// one file per call to Next, so a caller can drive a progress display and
// stop at any point. Failures are reported per file and never end the
// batch early.
package batch

import (
	"log/slog"
	"os"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/ssargent/pqctscrub/pkg/journal"
	"github.com/ssargent/pqctscrub/pkg/metrics"
	"github.com/ssargent/pqctscrub/pkg/stratec"
)

// Mode selects the operation applied to every file of a batch
type Mode string

const (
	ModeScrub Mode = "scrub"
	ModeDump  Mode = "dump"
)

// Pair is a source file and the destination its scrubbed copy goes to. The
// two are equal for in-place scrubbing; dumps ignore Destination.
type Pair struct {
	Source      string `json:"source"`
	Destination string `json:"destination,omitempty"`
}

// Result is the outcome of one file
type Result struct {
	Pair
	Index    int
	Outcome  stratec.Outcome
	Err      error
	Header   *stratec.HeaderFields // set for dumped files
	Duration time.Duration
}

// Message returns the error text of a failed file, or "".
func (r Result) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Summary counts the outcomes of the files processed so far
type Summary struct {
	Scrubbed int `json:"scrubbed"`
	Dumped   int `json:"dumped"`
	Ignored  int `json:"ignored"`
	Failed   int `json:"failed"`
}

func (s *Summary) add(o stratec.Outcome) {
	switch o {
	case stratec.Scrubbed:
		s.Scrubbed++
	case stratec.Dumped:
		s.Dumped++
	case stratec.Ignored:
		s.Ignored++
	case stratec.Failed:
		s.Failed++
	}
}

// Recorder persists per-file results
type Recorder interface {
	Record(e journal.Entry) (ksuid.KSUID, error)
}

// Processor builds batches. Logger, Metrics and Journal are optional.
type Processor struct {
	Mode    Mode
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Journal Recorder
}

// Process returns a batch over pairs. Nothing is read until Next is called.
func (p *Processor) Process(pairs []Pair) *Batch {
	b := &Batch{
		proc:  p,
		pairs: append([]Pair(nil), pairs...),
	}
	if p.Metrics != nil {
		p.Metrics.StartBatch(len(b.pairs))
	}
	return b
}

// Batch iterates over the files of one run
type Batch struct {
	proc    *Processor
	pairs   []Pair
	pos     int
	current Result
	summary Summary
	done    bool
}

// Total returns the number of files in the batch
func (b *Batch) Total() int {
	return len(b.pairs)
}

// Next processes the next file. It returns false once every file has been
// processed.
func (b *Batch) Next() bool {
	if b.pos >= len(b.pairs) {
		if !b.done {
			b.done = true
			if b.proc.Metrics != nil {
				b.proc.Metrics.FinishBatch(string(b.proc.mode()))
			}
			b.proc.logger().Debug("batch complete",
				"files", len(b.pairs),
				"scrubbed", b.summary.Scrubbed,
				"dumped", b.summary.Dumped,
				"ignored", b.summary.Ignored,
				"failed", b.summary.Failed)
		}
		return false
	}

	b.current = b.proc.processOne(b.pos, b.pairs[b.pos])
	b.summary.add(b.current.Outcome)
	b.pos++
	return true
}

// Result returns the result of the file processed by the last call to Next
func (b *Batch) Result() Result {
	return b.current
}

// Summary returns the outcome counts so far
func (b *Batch) Summary() Summary {
	return b.summary
}

// Run drains the batch and returns every result in order.
func (b *Batch) Run() []Result {
	results := make([]Result, 0, b.Total()-b.pos)
	for b.Next() {
		results = append(results, b.Result())
	}
	return results
}

func (p *Processor) mode() Mode {
	if p.Mode == "" {
		return ModeScrub
	}
	return p.Mode
}

func (p *Processor) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

func (p *Processor) processOne(index int, pair Pair) Result {
	start := time.Now()
	r := Result{Pair: pair, Index: index}

	switch p.mode() {
	case ModeDump:
		h, err := stratec.ReadHeader(pair.Source)
		switch {
		case err != nil:
			r.Outcome, r.Err = stratec.Failed, err
		case h == nil:
			r.Outcome = stratec.Ignored
		default:
			r.Outcome, r.Header = stratec.Dumped, h
		}
	default:
		r.Outcome, r.Err = stratec.Scrub(pair.Source, pair.Destination)
		if r.Err != nil {
			r.Outcome = stratec.Failed
		}
	}
	r.Duration = time.Since(start)

	entry := journal.Entry{
		Time:    start.UTC(),
		Mode:    string(p.mode()),
		Source:  pair.Source,
		Outcome: r.Outcome.String(),
		Message: r.Message(),
	}
	if r.Outcome == stratec.Scrubbed {
		entry.Destination = pair.Destination
		p.describeOutput(&entry)
	}

	log := p.logger().With("path", pair.Source, "outcome", r.Outcome.String(), "duration", r.Duration)
	if r.Err != nil {
		log.Warn("file not processed", "err", r.Err)
	} else {
		log.Debug("file processed", "dest", entry.Destination)
	}

	if p.Metrics != nil {
		p.Metrics.RecordFile(string(p.mode()), r.Outcome.String(), entry.Size, r.Duration)
		p.Metrics.FileDone()
	}
	if p.Journal != nil {
		if _, err := p.Journal.Record(entry); err != nil {
			log.Error("failed to journal result", "err", err)
		}
	}
	return r
}

// describeOutput fills in the size and, when a journal is kept, the digest
// of a scrubbed file.
func (p *Processor) describeOutput(e *journal.Entry) {
	if p.Journal == nil {
		if info, err := os.Stat(e.Destination); err == nil {
			e.Size = info.Size()
		}
		return
	}
	size, digest, err := journal.Digest(e.Destination)
	if err != nil {
		p.logger().Warn("failed to digest output", "dest", e.Destination, "err", err)
		return
	}
	e.Size, e.Digest = size, digest
}
