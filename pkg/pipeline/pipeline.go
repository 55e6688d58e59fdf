// Package pipeline runs an update check over a recipe tree.
//
// A run walks the tree, parses every manifest, queries each recipe's
// upstream on a bounded worker pool, and assembles the outcomes into a
// [report.Report]. The same entry point serves the CLI and the HTTP API.
//
// # Usage
//
//	runner := pipeline.NewRunner(registry, cache, nil, logger)
//	defer runner.Close()
//
//	rep, err := runner.Run(ctx, "./recipes", pipeline.Options{Concurrency: 16})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, e := range rep.Updates() {
//	    fmt.Println(e.Name, e.Outcome.From, "->", e.Outcome.To)
//	}
//
// Upstreams shared by several recipes are queried once per run. With a
// persistent cache, observations younger than Options.Freshness are reused
// across runs.
package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/serpent-os/ent/pkg/cache"
	"github.com/serpent-os/ent/pkg/errors"
	"github.com/serpent-os/ent/pkg/report"
	"github.com/serpent-os/ent/pkg/source"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultConcurrency bounds the number of upstream queries in flight.
	DefaultConcurrency = 8

	// DefaultRunDeadline is the wall-clock budget for the checking phase.
	DefaultRunDeadline = 5 * time.Minute

	// DefaultFreshness is how long cached observations are reused.
	DefaultFreshness = 6 * time.Hour
)

// =============================================================================
// Options - Run Configuration
// =============================================================================

// Options configures one update-check run. It is JSON-serializable so the
// API can accept it in requests.
type Options struct {
	Concurrency int           `json:"concurrency,omitempty"`
	RunDeadline time.Duration `json:"run_deadline,omitempty"`
	Freshness   time.Duration `json:"freshness,omitempty"`

	// Ignore overrides the walker's ignore globs. Nil keeps the defaults.
	Ignore []string `json:"ignore,omitempty"`

	// Refresh skips cache reads. Fresh observations are still written.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger   *log.Logger      `json:"-"`
	Cache    cache.Cache      `json:"-"`
	Registry *source.Registry `json:"-"`
	Sources  source.Options   `json:"-"`

	validated bool
}

// ValidateAndSetDefaults rejects invalid values and fills in defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Concurrency < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "concurrency must be positive, got %d", o.Concurrency)
	}
	if o.RunDeadline < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "run deadline must not be negative")
	}
	if o.Freshness < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache freshness must not be negative")
	}

	if o.Concurrency == 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.RunDeadline == 0 {
		o.RunDeadline = DefaultRunDeadline
	}
	if o.Freshness == 0 {
		o.Freshness = DefaultFreshness
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// RunUpdateCheck checks every recipe under root. It builds a runner from
// opts, using the built-in upstream registry unless opts.Registry is set.
//
// The returned error is non-nil only for run-level failures: an invalid
// root (INVALID_PATH), invalid options (INVALID_CONFIG), or cancellation of
// ctx before the tree was walked. Per-recipe problems are part of the report.
func RunUpdateCheck(ctx context.Context, root string, opts Options) (*report.Report, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	reg := opts.Registry
	if reg == nil {
		reg = source.NewDefaultRegistry(source.NewClients(opts.Sources))
	}
	r := NewRunner(reg, opts.Cache, nil, opts.Logger)
	return r.Run(ctx, root, opts)
}
