package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/serpent-os/ent/pkg/errors"
	"github.com/serpent-os/ent/pkg/observability"
	"github.com/serpent-os/ent/pkg/recipe"
	"github.com/serpent-os/ent/pkg/report"
	"github.com/serpent-os/ent/pkg/source"
	"github.com/serpent-os/ent/pkg/version"
)

const keyTypeObservations = "observations"

// job is one scheduled recipe. Only the worker that owns a job writes its
// result fields.
type job struct {
	manifest *recipe.Manifest
	entry    int

	outcome report.Outcome
	latest  string
	cached  bool
}

// fetchResult is what the memo stores per upstream key.
type fetchResult struct {
	observations []string
	cached       bool
	err          error
}

// scheduler holds the state of one run.
type scheduler struct {
	runner *Runner
	opts   Options
	logger *log.Logger

	memo  sync.Map // source key -> *fetchResult
	group singleflight.Group
}

// run evaluates jobs on a pool of opts.Concurrency workers. Jobs still
// pending when the run deadline passes end as TIMEOUT.
func (s *scheduler) run(ctx context.Context, jobs []*job) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.RunDeadline)
	defer cancel()

	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for _, j := range jobs {
		g.Go(func() error {
			s.check(ctx, j)
			return nil
		})
	}
	_ = g.Wait()
}

// check evaluates one job in its own goroutine and waits for either its
// result or the end of the run.
func (s *scheduler) check(ctx context.Context, j *job) {
	m := j.manifest
	hooks := observability.Check()
	start := time.Now()
	hooks.OnCheckStart(ctx, m.Name, string(m.Source.Kind))

	done := make(chan checkResult, 1)

	if ctx.Err() == nil {
		go func() {
			defer func() {
				if p := recover(); p != nil {
					err := errors.New(errors.ErrCodeInternal, "check of %s panicked: %v", m.Name, p)
					done <- checkResult{outcome: report.Failed(err)}
				}
			}()
			o, latest, cached := s.evaluate(ctx, m)
			done <- checkResult{outcome: o, latest: latest, cached: cached}
		}()
	}

	res := await(ctx, done, checkResult{outcome: report.Failed(errors.New(errors.ErrCodeTimeout, "run deadline exceeded"))})
	j.outcome, j.latest, j.cached = res.outcome, res.latest, res.cached

	var err error
	if res.outcome.Kind == report.KindError {
		err = errors.New(res.outcome.Reason, "%s", res.outcome.Message)
		s.logger.Debug("check failed", "recipe", m.Name, "source", m.Source.String(), "reason", res.outcome.Reason, "error", res.outcome.Message)
	}
	hooks.OnCheckComplete(ctx, m.Name, string(res.outcome.Kind), time.Since(start), err)
}

type checkResult struct {
	outcome report.Outcome
	latest  string
	cached  bool
}

// await returns the value from done, or timedOut once ctx ends. A value
// that is already waiting when ctx ends is still returned.
func await[T any](ctx context.Context, done <-chan T, timedOut T) T {
	select {
	case v := <-done:
		return v
	case <-ctx.Done():
		select {
		case v := <-done:
			return v
		default:
			return timedOut
		}
	}
}

// evaluate queries m's upstream and classifies the best candidate against
// the packaged version.
func (s *scheduler) evaluate(ctx context.Context, m *recipe.Manifest) (report.Outcome, string, bool) {
	d := m.Source
	fr := s.observations(ctx, d)
	if fr.err != nil {
		if ctx.Err() != nil && errors.GetCode(fr.err) != errors.ErrCodeTimeout {
			return report.Failed(errors.Wrap(errors.ErrCodeTimeout, fr.err, "run deadline exceeded")), "", fr.cached
		}
		return report.Failed(fr.err), "", fr.cached
	}

	re, err := d.CompilePattern()
	if err != nil {
		return report.Failed(err), "", fr.cached
	}
	scheme := d.EffectiveScheme()
	best, err := version.Best(version.Candidates(source.Extract(fr.observations, re), scheme), d.Prerelease)
	if err != nil {
		return report.Failed(err), "", fr.cached
	}

	switch version.Compare(m.Version, best.Raw, scheme) {
	case version.Less:
		return report.UpdateAvailable(m.Version, best.Raw), best.Raw, fr.cached
	case version.Equal, version.Greater:
		return report.UpToDate(), best.Raw, fr.cached
	default:
		err := errors.New(errors.ErrCodeUnparseableVersion,
			"packaged version %q and upstream %q are not comparable as %s", m.Version, best.Raw, scheme)
		return report.Failed(err), best.Raw, fr.cached
	}
}

// observations returns d's upstream observations, querying each key at
// most once per run. Concurrent callers for the same key share one fetch.
func (s *scheduler) observations(ctx context.Context, d source.Descriptor) *fetchResult {
	key := d.Key()
	if v, ok := s.memo.Load(key); ok {
		observability.Cache().OnMemoShared(ctx, key)
		return v.(*fetchResult)
	}
	v, _, shared := s.group.Do(key, func() (any, error) {
		if v, ok := s.memo.Load(key); ok {
			return v, nil
		}
		fr := s.fetch(ctx, d)
		s.memo.Store(key, fr)
		return fr, nil
	})
	if shared {
		observability.Cache().OnMemoShared(ctx, key)
	}
	return v.(*fetchResult)
}

// fetch consults the persistent cache, then the registry. Only successful
// queries are written back.
func (s *scheduler) fetch(ctx context.Context, d source.Descriptor) *fetchResult {
	r := s.runner
	hooks := observability.Cache()
	cacheKey := r.Keyer.ObservationsKey(string(d.Kind), d.CanonicalLocator())

	if !s.opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if e, err := UnmarshalCacheEntry(data); err == nil && e.Fresh(r.Now(), s.opts.Freshness) {
				hooks.OnCacheHit(ctx, keyTypeObservations)
				return &fetchResult{observations: e.Observations, cached: true}
			}
		}
		hooks.OnCacheMiss(ctx, keyTypeObservations)
	}

	obs, err := r.Registry.Check(ctx, d)
	if err != nil {
		return &fetchResult{err: err}
	}

	data, err := MarshalCacheEntry(CacheEntry{
		Kind:         string(d.Kind),
		Locator:      d.CanonicalLocator(),
		Observations: obs,
		FetchedAt:    r.Now().UTC(),
	})
	if err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, s.opts.Freshness); err != nil {
			s.logger.Warn("cache write failed", "source", d.Key(), "error", err)
		} else {
			hooks.OnCacheSet(ctx, keyTypeObservations, len(data))
		}
	}
	return &fetchResult{observations: obs}
}
