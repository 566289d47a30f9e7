// Package di provides dependency injection container
package di

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ssargent/pqctscrub/pkg/api"
	"github.com/ssargent/pqctscrub/pkg/batch"
	"github.com/ssargent/pqctscrub/pkg/config"
	"github.com/ssargent/pqctscrub/pkg/journal"
	"github.com/ssargent/pqctscrub/pkg/metrics"
)

// Container holds all the dependencies for the application
type Container struct {
	config  *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	journal *journal.Journal
}

// NewContainer creates a new dependency injection container. Diagnostic
// logs go to logOut; the journal is opened when the configuration enables it
// and left out with a warning when it cannot be opened.
func NewContainer(cfg *config.Config, logOut io.Writer) (*Container, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logOut == nil {
		logOut = os.Stderr
	}

	level, err := config.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	c := &Container{
		config:  cfg,
		logger:  slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level})),
		metrics: metrics.NewMetrics(),
	}

	// Another process (a running server) may hold the journal. Files are
	// still processed, just not journaled.
	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.Journal.Dir)
		if err != nil {
			c.logger.Warn("journal unavailable, outcomes will not be recorded", "dir", cfg.Journal.Dir, "err", err)
		} else {
			c.journal = j
		}
	}
	return c, nil
}

// Config returns the configuration the container was built from
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the application logger
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// Metrics returns the metrics registry
func (c *Container) Metrics() *metrics.Metrics {
	return c.metrics
}

// Journal returns the outcome journal, or nil when it is disabled
func (c *Container) Journal() *journal.Journal {
	return c.journal
}

// Processor returns a batch processor for mode wired to the logger,
// metrics and journal.
func (c *Container) Processor(mode batch.Mode) *batch.Processor {
	p := &batch.Processor{
		Mode:    mode,
		Logger:  c.logger,
		Metrics: c.metrics,
	}
	if c.journal != nil {
		p.Journal = c.journal
	}
	return p
}

// Server builds the API server from the server section of the config
func (c *Container) Server(apiKey string) *api.Server {
	sc := api.ServerConfig{
		Bind:   c.config.Server.Bind,
		Port:   c.config.Server.Port,
		APIKey: apiKey,
		Root:   c.config.Server.Root,
	}
	var lister api.JournalLister
	if c.journal != nil {
		lister = c.journal
	}
	return api.NewServer(sc, *c.Processor(batch.ModeScrub), lister, c.logger)
}

// WriteMetrics writes the textfile named in the config, if any
func (c *Container) WriteMetrics() error {
	if c.config.Metrics.Textfile == "" {
		return nil
	}
	if err := c.metrics.WriteTextfile(c.config.Metrics.Textfile); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// Close releases the journal
func (c *Container) Close() error {
	if c.journal == nil {
		return nil
	}
	err := c.journal.Close()
	c.journal = nil
	return err
}
