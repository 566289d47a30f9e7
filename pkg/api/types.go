package api

import (
	"time"

	"github.com/ssargent/pqctscrub/pkg/batch"
	"github.com/ssargent/pqctscrub/pkg/journal"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ScrubRequest lists the files to scrub. Paths are relative to the server
// root; an empty destination scrubs the source in place.
type ScrubRequest struct {
	Pairs []batch.Pair `json:"pairs"`
}

// FileResult is the outcome of one file of a scrub request
type FileResult struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Outcome     string `json:"outcome"`
	Error       string `json:"error,omitempty"`
}

// ScrubResponse is returned by the scrub endpoint
type ScrubResponse struct {
	Total   int           `json:"total"`
	Summary batch.Summary `json:"summary"`
	Results []FileResult  `json:"results"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind   string
	Port   int
	APIKey string
	Root   string // all request paths must resolve inside Root
}

// JournalLister is the read side of the outcome journal
type JournalLister interface {
	List(since time.Time) ([]journal.Entry, error)
}
