package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/serpent-os/ent/pkg/cache"
	"github.com/serpent-os/ent/pkg/errors"
	"github.com/serpent-os/ent/pkg/observability"
	"github.com/serpent-os/ent/pkg/recipe"
	"github.com/serpent-os/ent/pkg/report"
	"github.com/serpent-os/ent/pkg/source"
	"github.com/serpent-os/ent/pkg/walker"
)

// Runner executes update checks against a registry and a cache.
//
// The Runner holds no per-run state; the memo and deadline live in the
// scheduler created by each Run. Multiple goroutines can safely use the
// same Runner.
type Runner struct {
	Registry *source.Registry
	Cache    cache.Cache
	Keyer    cache.Keyer
	Logger   *log.Logger

	// Now returns the current time. Tests replace it to age cache entries.
	Now func() time.Time
}

// NewRunner creates a runner. A nil cache disables persistence, a nil keyer
// uses cache.NewDefaultKeyer and a nil registry has no checkers.
func NewRunner(reg *source.Registry, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if reg == nil {
		reg = source.NewRegistry()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Registry: reg,
		Cache:    c,
		Keyer:    keyer,
		Logger:   logger,
		Now:      time.Now,
	}
}

// Run checks every recipe under root.
func (r *Runner) Run(ctx context.Context, root string, opts Options) (rep *report.Report, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger

	start := r.Now()
	hooks := observability.Check()
	defer func() {
		hooks.OnRunComplete(ctx, time.Since(start), err)
	}()

	w, err := walker.New(root, walker.Options{Ignore: opts.Ignore, Workers: opts.Concurrency})
	if err != nil {
		return nil, err
	}
	paths, err := w.Walk(ctx)
	if err != nil {
		return nil, err
	}
	logger.Debug("walked recipe tree", "root", w.Root(), "manifests", len(paths))

	manifests, diags := loadAll(paths)

	var entries []report.Entry
	var jobs []*job
	for _, m := range manifests {
		e := newEntry(m)
		switch {
		case m.Version == "":
			e.Outcome = report.Skipped(errors.ErrCodeNoCurrentVersion)
		case m.Source.IsUnknown():
			e.Outcome = report.Skipped(errors.ErrCodeNoUpstream)
		default:
			jobs = append(jobs, &job{manifest: m, entry: len(entries)})
		}
		entries = append(entries, e)
	}

	hooks.OnRunStart(ctx, len(jobs))
	s := &scheduler{runner: r, opts: opts, logger: logger}
	s.run(ctx, jobs)
	for _, j := range jobs {
		entries[j.entry].Outcome = j.outcome
		entries[j.entry].Latest = j.latest
		entries[j.entry].Cached = j.cached
	}

	rep = report.Build(entries, diags)
	rep.Root = w.Root()

	logger.Info("update check complete",
		"recipes", rep.Summary.Total,
		"updates", rep.Summary.Updates,
		"errors", rep.Summary.Errors,
		"skipped", rep.Summary.Skipped,
		"diagnostics", rep.Summary.Diagnostics,
		"duration", r.Now().Sub(start))
	return rep, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// loadAll parses every path in order. Manifests with fatal diagnostics are
// dropped; a name seen before is a DUPLICATE_NAME diagnostic for the later
// path. paths is sorted, so the lexically first path keeps the name.
func loadAll(paths []string) ([]*recipe.Manifest, []recipe.Diagnostic) {
	var (
		manifests []*recipe.Manifest
		diags     []recipe.Diagnostic
		owner     = make(map[string]string)
	)
	for _, p := range paths {
		m, ds := recipe.Load(p)
		if m == nil || recipe.HasFatal(ds) {
			diags = append(diags, firstFatal(p, ds))
			continue
		}
		if first, dup := owner[m.Name]; dup {
			diags = append(diags, recipe.Diagnostic{
				Path:    p,
				Code:    errors.ErrCodeDuplicateName,
				Message: "recipe " + m.Name + " is already defined by " + first,
				Fatal:   true,
			})
			continue
		}
		owner[m.Name] = p
		manifests = append(manifests, m)
	}
	return manifests, diags
}

func firstFatal(path string, ds []recipe.Diagnostic) recipe.Diagnostic {
	for _, d := range ds {
		if d.Fatal {
			return d
		}
	}
	return recipe.Diagnostic{Path: path, Code: errors.ErrCodeUnreadable, Message: "manifest could not be loaded", Fatal: true}
}

func newEntry(m *recipe.Manifest) report.Entry {
	return report.Entry{
		Name:     m.Name,
		Path:     m.Path,
		Format:   m.Format,
		Source:   m.Source.String(),
		Current:  m.Version,
		Warnings: m.Warnings,
	}
}
