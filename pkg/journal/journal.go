// Package journal keeps a persistent record of every file a batch touched.
//
// Entries are stored in a pebble database keyed by KSUID. KSUIDs sort by
// their one-second timestamp; List orders entries within a second by their
// recorded time.
package journal

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"
	"golang.org/x/crypto/sha3"
)

// ErrEntryNotFound is returned by Get for unknown ids
var ErrEntryNotFound = errors.New("journal entry not found")

// Entry is one processed file
type Entry struct {
	ID          ksuid.KSUID `json:"id"`
	Time        time.Time   `json:"time"`
	Mode        string      `json:"mode"`
	Source      string      `json:"source"`
	Destination string      `json:"destination,omitempty"`
	Outcome     string      `json:"outcome"`
	Message     string      `json:"message,omitempty"`
	Size        int64       `json:"size,omitempty"`
	Digest      string      `json:"sha3_256,omitempty"` // digest of the written output
}

// Line renders e as a log line in the "<path>: <outcome>." style.
func (e Entry) Line() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s. %s", e.Source, e.Outcome, e.Message)
	}
	return fmt.Sprintf("%s: %s.", e.Source, e.Outcome)
}

// Journal is an append-only list of entries
type Journal struct {
	db *pebble.DB
}

// Open opens or creates the journal database in dir
func Open(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create journal dir: %w", err)
	}
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return &Journal{db: db}, nil
}

// Record stores e under a new id and returns the id. A zero Time is set to
// now.
func (j *Journal) Record(e Entry) (ksuid.KSUID, error) {
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	id, err := ksuid.NewRandomWithTime(e.Time)
	if err != nil {
		return ksuid.Nil, fmt.Errorf("failed to generate entry id: %w", err)
	}
	e.ID = id

	data, err := json.Marshal(e)
	if err != nil {
		return ksuid.Nil, fmt.Errorf("failed to marshal entry: %w", err)
	}
	if err := j.db.Set(id.Bytes(), data, pebble.Sync); err != nil {
		return ksuid.Nil, fmt.Errorf("failed to write entry: %w", err)
	}
	return id, nil
}

// Get returns the entry stored under id
func (j *Journal) Get(id ksuid.KSUID) (*Entry, error) {
	data, closer, err := j.db.Get(id.Bytes())
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("corrupt journal entry %s: %w", id, err)
	}
	return &e, nil
}

// List returns entries recorded at or after since, oldest first. A zero
// since lists everything.
func (j *Journal) List(since time.Time) ([]Entry, error) {
	opts := &pebble.IterOptions{}
	if !since.IsZero() {
		lower, err := ksuid.FromParts(since, make([]byte, 16))
		if err != nil {
			return nil, err
		}
		opts.LowerBound = lower.Bytes()
	}

	iter, err := j.db.NewIter(opts)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var entries []Entry
	for iter.First(); iter.Valid(); iter.Next() {
		var e Entry
		if err := json.Unmarshal(iter.Value(), &e); err != nil {
			return nil, fmt.Errorf("corrupt journal entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].Time.Before(entries[b].Time)
	})
	return entries, nil
}

// Export writes the log line of every entry since the given time to w.
func (j *Journal) Export(w io.Writer, since time.Time) error {
	entries, err := j.List(since)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := fmt.Fprintln(w, e.Line()); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying database
func (j *Journal) Close() error {
	return j.db.Close()
}

// Digest returns the size and hex SHA3-256 digest of the file at path.
func Digest(path string) (int64, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, "", err
	}
	defer f.Close()

	h := sha3.New256()
	n, err := io.Copy(h, f)
	if err != nil {
		return 0, "", err
	}
	return n, hex.EncodeToString(h.Sum(nil)), nil
}
