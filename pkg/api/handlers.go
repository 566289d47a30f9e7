package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ssargent/pqctscrub/pkg/batch"
	"github.com/ssargent/pqctscrub/pkg/metrics"
	"github.com/ssargent/pqctscrub/pkg/report"
	"github.com/ssargent/pqctscrub/pkg/stratec"
)

// maxScrubRequest bounds the size of a scrub request body
const maxScrubRequest = 1 << 20

// Server holds the API server state
type Server struct {
	config    ServerConfig
	processor batch.Processor
	journal   JournalLister
	metrics   *metrics.Metrics
	logger    *slog.Logger

	// batches share destination directories, so run one at a time
	mu sync.Mutex
}

// NewServer creates a new API server. Scrub requests run through a copy of
// processor; journal may be nil.
func NewServer(config ServerConfig, processor batch.Processor, journal JournalLister, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:    config,
		processor: processor,
		journal:   journal,
		metrics:   processor.Metrics,
		logger:    logger,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleHeader dumps the header of ?path=
func (s *Server) handleHeader(w http.ResponseWriter, r *http.Request) {
	rel := r.URL.Query().Get("path")
	if rel == "" {
		sendError(w, "path is required", http.StatusBadRequest)
		return
	}
	path, err := s.resolve(rel)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	h, err := stratec.ReadHeader(path)
	if err != nil {
		sendError(w, s.scrubPaths(err.Error()), statusFor(err))
		return
	}
	if h == nil {
		sendError(w, fmt.Sprintf("%s is not a stratec file", rel), http.StatusNotFound)
		return
	}
	sendSuccess(w, report.NewHeader(rel, h))
}

// handleScrub runs a scrub batch over the requested pairs
func (s *Server) handleScrub(w http.ResponseWriter, r *http.Request) {
	var req ScrubRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxScrubRequest)).Decode(&req); err != nil {
		sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if len(req.Pairs) == 0 {
		sendError(w, "pairs is required", http.StatusBadRequest)
		return
	}

	pairs := make([]batch.Pair, 0, len(req.Pairs))
	for _, p := range req.Pairs {
		if p.Destination == "" {
			p.Destination = p.Source
		}
		src, err := s.resolve(p.Source)
		if err != nil {
			sendError(w, err.Error(), http.StatusBadRequest)
			return
		}
		dst, err := s.resolve(p.Destination)
		if err != nil {
			sendError(w, err.Error(), http.StatusBadRequest)
			return
		}
		pairs = append(pairs, batch.Pair{Source: src, Destination: dst})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	proc := s.processor
	proc.Mode = batch.ModeScrub
	b := proc.Process(pairs)

	resp := ScrubResponse{Total: b.Total(), Results: make([]FileResult, 0, b.Total())}
	for b.Next() {
		res := b.Result()
		resp.Results = append(resp.Results, FileResult{
			Source:      req.Pairs[res.Index].Source,
			Destination: s.relative(res.Destination),
			Outcome:     res.Outcome.String(),
			Error:       s.scrubPaths(res.Message()),
		})
	}
	resp.Summary = b.Summary()
	s.logger.Info("scrub request complete", "files", resp.Total, "failed", resp.Summary.Failed)
	sendSuccess(w, resp)
}

// handleJournal lists journal entries, optionally ?since=RFC3339
func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		sendError(w, "journal is disabled", http.StatusNotFound)
		return
	}
	var since time.Time
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			sendError(w, "since must be an RFC 3339 time", http.StatusBadRequest)
			return
		}
		since = t
	}
	entries, err := s.journal.List(since)
	if err != nil {
		sendError(w, "Failed to read journal", http.StatusInternalServerError)
		return
	}
	for i := range entries {
		entries[i].Source = s.relative(entries[i].Source)
		entries[i].Destination = s.relative(entries[i].Destination)
		entries[i].Message = s.scrubPaths(entries[i].Message)
	}
	sendSuccess(w, entries)
}

// resolve maps a request path to a file system path inside the root. The
// check is repeated on the nearest existing ancestor once symbolic links are
// followed, so a link under the root cannot lead outside it.
func (s *Server) resolve(rel string) (string, error) {
	root, err := filepath.Abs(s.config.Root)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("path %q must be relative", rel)
	}
	path := filepath.Join(root, rel)
	if !within(root, path) {
		return "", fmt.Errorf("path %q escapes the server root", rel)
	}

	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", fmt.Errorf("server root unavailable: %w", err)
	}
	for p := path; ; p = filepath.Dir(p) {
		resolved, err := filepath.EvalSymlinks(p)
		if err == nil {
			if !within(realRoot, resolved) {
				return "", fmt.Errorf("path %q escapes the server root", rel)
			}
			break
		}
		if !errors.Is(err, fs.ErrNotExist) || p == root {
			return "", fmt.Errorf("path %q cannot be resolved", rel)
		}
	}
	return path, nil
}

func within(root, path string) bool {
	r, err := filepath.Rel(root, path)
	return err == nil && r != ".." && !strings.HasPrefix(r, ".."+string(filepath.Separator))
}

// relative strips the root from a path reported back to the client
func (s *Server) relative(path string) string {
	if path == "" {
		return ""
	}
	root, err := filepath.Abs(s.config.Root)
	if err != nil {
		return path
	}
	if r, err := filepath.Rel(root, path); err == nil {
		return r
	}
	return path
}

// scrubPaths removes the root prefix from error messages
func (s *Server) scrubPaths(msg string) string {
	root, err := filepath.Abs(s.config.Root)
	if err != nil || msg == "" {
		return msg
	}
	return strings.ReplaceAll(msg, root+string(filepath.Separator), "")
}

func statusFor(err error) int {
	if errors.Is(err, stratec.ErrFormat) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
