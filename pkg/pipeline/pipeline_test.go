package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/serpent-os/ent/pkg/cache"
	"github.com/serpent-os/ent/pkg/errors"
	"github.com/serpent-os/ent/pkg/report"
	"github.com/serpent-os/ent/pkg/source"
)

// fakeUpstream serves tags from a map and counts queries. Names in block
// hang until the context ends.
type fakeUpstream struct {
	tags  map[string][]string
	block map[string]bool
	calls atomic.Int64
}

func (f *fakeUpstream) Check(ctx context.Context, locator string) ([]string, error) {
	f.calls.Add(1)
	_, name, _ := source.SplitLocator(locator)
	if f.block[name] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	switch name {
	case "broken":
		return nil, errors.New(errors.ErrCodeUnreachable, "connection refused")
	case "panics":
		panic("boom")
	}
	tags, ok := f.tags[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "%s not found", locator)
	}
	return tags, nil
}

func newRegistry(f *fakeUpstream) *source.Registry {
	reg := source.NewRegistry()
	reg.Register(source.Tags, f)
	return reg
}

func writeRecipe(t *testing.T, root, dir, name, ver, locator string) {
	t.Helper()
	d := filepath.Join(root, dir)
	if err := os.MkdirAll(d, 0o755); err != nil {
		t.Fatal(err)
	}
	manifest := ""
	if name != "" {
		manifest += "name: " + name + "\n"
	}
	if ver != "" {
		manifest += "version: " + ver + "\n"
	}
	if err := os.WriteFile(filepath.Join(d, "package.yml"), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	if locator == "" {
		return
	}
	monitoring := fmt.Sprintf("releases:\n  kind: tags\n  locator: %s\n", locator)
	if err := os.WriteFile(filepath.Join(d, "monitoring.yaml"), []byte(monitoring), 0o644); err != nil {
		t.Fatal(err)
	}
}

func runCheck(t *testing.T, r *Runner, root string, opts Options) *report.Report {
	t.Helper()
	rep, err := r.Run(context.Background(), root, opts)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	return rep
}

func mustEntry(t *testing.T, rep *report.Report, name string) report.Entry {
	t.Helper()
	e, ok := rep.Entry(name)
	if !ok {
		t.Fatalf("no entry for %q in %+v", name, rep.Entries)
	}
	return e
}

func TestRunUpdateAndCurrent(t *testing.T) {
	root := t.TempDir()
	writeRecipe(t, root, "a", "alpha", "1.2", "fake:alpha")
	writeRecipe(t, root, "b", "beta", "2.0", "fake:beta")

	f := &fakeUpstream{tags: map[string][]string{
		"alpha": {"v1.1", "v1.3", "v1.2"},
		"beta":  {"2.0", "1.9"},
	}}
	rep := runCheck(t, NewRunner(newRegistry(f), nil, nil, nil), root, Options{})

	a := mustEntry(t, rep, "alpha")
	if a.Outcome != report.UpdateAvailable("1.2", "1.3") {
		t.Errorf("alpha outcome = %v, want update-available 1.2 -> 1.3", a.Outcome)
	}
	b := mustEntry(t, rep, "beta")
	if b.Outcome.Kind != report.KindUpToDate || b.Latest != "2.0" {
		t.Errorf("beta = %+v, want up-to-date at 2.0", b)
	}
	if rep.Summary.Updates != 1 || rep.Summary.UpToDate != 1 || rep.Summary.Total != 2 {
		t.Errorf("summary = %+v", rep.Summary)
	}
}

func TestRunMissingNameDiagnostic(t *testing.T) {
	root := t.TempDir()
	writeRecipe(t, root, "good", "good", "1.0", "fake:good")
	writeRecipe(t, root, "nameless", "", "1.0", "fake:good")

	f := &fakeUpstream{tags: map[string][]string{"good": {"1.0"}}}
	rep := runCheck(t, NewRunner(newRegistry(f), nil, nil, nil), root, Options{})

	if len(rep.Entries) != 1 || rep.Entries[0].Name != "good" {
		t.Errorf("entries = %+v, want only good", rep.Entries)
	}
	if len(rep.Diagnostics) != 1 {
		t.Fatalf("diagnostics = %v, want one", rep.Diagnostics)
	}
	d := rep.Diagnostics[0]
	if d.Code != errors.ErrCodeMissingName || d.Path != filepath.Join(root, "nameless", "package.yml") {
		t.Errorf("diagnostic = %v", d)
	}
}

func TestRunSkips(t *testing.T) {
	root := t.TempDir()
	writeRecipe(t, root, "nover", "nover", "", "fake:nover")
	writeRecipe(t, root, "noup", "noup", "1.0", "")

	f := &fakeUpstream{}
	rep := runCheck(t, NewRunner(newRegistry(f), nil, nil, nil), root, Options{})

	if got := mustEntry(t, rep, "nover").Outcome; got != report.Skipped(errors.ErrCodeNoCurrentVersion) {
		t.Errorf("nover outcome = %v", got)
	}
	if got := mustEntry(t, rep, "noup").Outcome; got != report.Skipped(errors.ErrCodeNoUpstream) {
		t.Errorf("noup outcome = %v", got)
	}
	if n := f.calls.Load(); n != 0 {
		t.Errorf("upstream queried %d times for skipped recipes", n)
	}
}

func TestRunDuplicateName(t *testing.T) {
	root := t.TempDir()
	writeRecipe(t, root, "a", "same", "1.0", "fake:same")
	writeRecipe(t, root, "b", "same", "1.0", "fake:same")

	f := &fakeUpstream{tags: map[string][]string{"same": {"1.0"}}}
	rep := runCheck(t, NewRunner(newRegistry(f), nil, nil, nil), root, Options{})

	if e := mustEntry(t, rep, "same"); e.Path != filepath.Join(root, "a", "package.yml") {
		t.Errorf("kept %s, want the lexically first path", e.Path)
	}
	if len(rep.Diagnostics) != 1 || rep.Diagnostics[0].Code != errors.ErrCodeDuplicateName {
		t.Errorf("diagnostics = %v, want one DUPLICATE_NAME", rep.Diagnostics)
	}
}

func TestRunSharedLocatorFetchedOnce(t *testing.T) {
	root := t.TempDir()
	for i := range 12 {
		writeRecipe(t, root, fmt.Sprintf("r%02d", i), fmt.Sprintf("r%02d", i), "1.0", "fake:shared")
	}

	f := &fakeUpstream{tags: map[string][]string{"shared": {"1.1"}}}
	rep := runCheck(t, NewRunner(newRegistry(f), nil, nil, nil), root, Options{Concurrency: 4})

	if n := f.calls.Load(); n != 1 {
		t.Errorf("shared locator queried %d times, want 1", n)
	}
	if rep.Summary.Updates != 12 {
		t.Errorf("updates = %d, want 12", rep.Summary.Updates)
	}
}

func TestRunLocatorSpellingsShareFetch(t *testing.T) {
	root := t.TempDir()
	writeRecipe(t, root, "a", "alpha", "1.0", "github:acme/shared")
	writeRecipe(t, root, "b", "beta", "1.0", "https://github.com/acme/shared")

	f := &fakeUpstream{tags: map[string][]string{"acme/shared": {"1.2"}}}
	rep := runCheck(t, NewRunner(newRegistry(f), nil, nil, nil), root, Options{Concurrency: 2})

	if n := f.calls.Load(); n != 1 {
		t.Errorf("upstream queried %d times for one repository, want 1", n)
	}
	if rep.Summary.Updates != 2 {
		t.Errorf("updates = %d, want 2", rep.Summary.Updates)
	}
}

func TestRunIsolation(t *testing.T) {
	root := t.TempDir()
	writeRecipe(t, root, "ok", "ok", "1.0", "fake:ok")
	writeRecipe(t, root, "broken", "broken", "1.0", "fake:broken")
	writeRecipe(t, root, "panics", "panics", "1.0", "fake:panics")
	writeRecipe(t, root, "missing", "missing", "1.0", "fake:missing")
	writeRecipe(t, root, "garbage", "garbage", "1.0", "fake:garbage")

	f := &fakeUpstream{tags: map[string][]string{
		"ok":      {"1.0"},
		"garbage": {"latest", "nightly"},
	}}
	rep := runCheck(t, NewRunner(newRegistry(f), nil, nil, nil), root, Options{})

	tests := []struct {
		name string
		want errors.Code
	}{
		{"broken", errors.ErrCodeUnreachable},
		{"panics", errors.ErrCodeInternal},
		{"missing", errors.ErrCodeNotFound},
		{"garbage", errors.ErrCodeNoCandidates},
	}
	for _, tt := range tests {
		e := mustEntry(t, rep, tt.name)
		if e.Outcome.Kind != report.KindError || e.Outcome.Reason != tt.want {
			t.Errorf("%s outcome = %v, want error %s", tt.name, e.Outcome, tt.want)
		}
	}
	if got := mustEntry(t, rep, "ok").Outcome.Kind; got != report.KindUpToDate {
		t.Errorf("ok outcome = %v, want up-to-date", got)
	}
}

func TestRunDeadline(t *testing.T) {
	root := t.TempDir()
	f := &fakeUpstream{
		tags:  map[string][]string{"fast": {"1.0", "1.1"}},
		block: map[string]bool{},
	}
	for i := range 5 {
		name := fmt.Sprintf("slow%d", i)
		writeRecipe(t, root, fmt.Sprintf("s%d", i), name, "1.0", "fake:"+name)
		f.block[name] = true
	}
	writeRecipe(t, root, "fast", "fast", "1.0", "fake:fast")
	writeRecipe(t, root, "skip", "skip", "", "fake:skip")

	start := time.Now()
	rep := runCheck(t, NewRunner(newRegistry(f), nil, nil, nil), root, Options{
		Concurrency: 8,
		RunDeadline: 50 * time.Millisecond,
	})
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("run took %v after a 50ms deadline", elapsed)
	}

	for i := range 5 {
		e := mustEntry(t, rep, fmt.Sprintf("slow%d", i))
		if e.Outcome.Kind != report.KindError || e.Outcome.Reason != errors.ErrCodeTimeout {
			t.Errorf("%s outcome = %v, want TIMEOUT", e.Name, e.Outcome)
		}
	}
	if got := mustEntry(t, rep, "fast").Outcome; got != report.UpdateAvailable("1.0", "1.1") {
		t.Errorf("fast outcome = %v, want update-available 1.0 -> 1.1", got)
	}
	if got := mustEntry(t, rep, "skip").Outcome.Kind; got != report.KindSkipped {
		t.Errorf("skip outcome = %v, want skipped", got)
	}
}

func TestAwaitPrefersReadyResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for range 200 {
		done := make(chan string, 1)
		done <- "finished"
		if got := await(ctx, done, "timeout"); got != "finished" {
			t.Fatalf("await() = %q with a result ready, want finished", got)
		}
	}

	if got := await(ctx, make(chan string), "timeout"); got != "timeout" {
		t.Errorf("await() = %q with nothing ready, want timeout", got)
	}
}

func TestRunWarmCacheIdempotent(t *testing.T) {
	root := t.TempDir()
	writeRecipe(t, root, "a", "alpha", "1.2", "fake:alpha")
	writeRecipe(t, root, "b", "beta", "2.0", "fake:beta")

	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	f := &fakeUpstream{tags: map[string][]string{"alpha": {"1.3"}, "beta": {"2.0"}}}
	r := NewRunner(newRegistry(f), c, nil, nil)
	defer r.Close()

	first := runCheck(t, r, root, Options{})
	calls := f.calls.Load()
	second := runCheck(t, r, root, Options{})

	if n := f.calls.Load(); n != calls {
		t.Errorf("warm run queried upstream %d more times", n-calls)
	}
	for i := range first.Entries {
		a, b := first.Entries[i], second.Entries[i]
		if a.Cached || !b.Cached {
			t.Errorf("%s cached = %v then %v, want false then true", a.Name, a.Cached, b.Cached)
		}
		a.Cached, b.Cached = false, false
		if !reflect.DeepEqual(a, b) {
			t.Errorf("entry changed between runs:\n%+v\n%+v", a, b)
		}
	}

	third := runCheck(t, r, root, Options{})
	var want, got bytes.Buffer
	if err := second.WriteJSON(&want); err != nil {
		t.Fatal(err)
	}
	if err := third.WriteJSON(&got); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(want.Bytes(), got.Bytes()) {
		t.Errorf("warm runs encode differently:\n%s\n%s", want.String(), got.String())
	}
}

func TestRunStaleCacheAndRefresh(t *testing.T) {
	root := t.TempDir()
	writeRecipe(t, root, "a", "alpha", "1.2", "fake:alpha")

	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	f := &fakeUpstream{tags: map[string][]string{"alpha": {"1.3"}}}
	r := NewRunner(newRegistry(f), c, nil, nil)
	defer r.Close()

	runCheck(t, r, root, Options{})
	runCheck(t, r, root, Options{Refresh: true})
	if n := f.calls.Load(); n != 2 {
		t.Errorf("refresh run: %d upstream queries, want 2", n)
	}

	now := time.Now()
	r.Now = func() time.Time { return now.Add(time.Hour) }
	runCheck(t, r, root, Options{Freshness: time.Minute})
	if n := f.calls.Load(); n != 3 {
		t.Errorf("stale entry: %d upstream queries, want 3", n)
	}
}

func TestRunInvalidRoot(t *testing.T) {
	r := NewRunner(nil, nil, nil, nil)
	_, err := r.Run(context.Background(), filepath.Join(t.TempDir(), "missing"), Options{})
	if !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("Run() error = %v, want INVALID_PATH", err)
	}
}

func TestRunUpdateCheckUsesInjectedRegistry(t *testing.T) {
	root := t.TempDir()
	writeRecipe(t, root, "a", "alpha", "1.0", "fake:alpha")

	f := &fakeUpstream{tags: map[string][]string{"alpha": {"1.0"}}}
	rep, err := RunUpdateCheck(context.Background(), root, Options{Registry: newRegistry(f)})
	if err != nil {
		t.Fatal(err)
	}
	if rep.Summary.UpToDate != 1 {
		t.Errorf("summary = %+v", rep.Summary)
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	var o Options
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if o.Concurrency != DefaultConcurrency || o.RunDeadline != DefaultRunDeadline || o.Freshness != DefaultFreshness {
		t.Errorf("defaults not applied: %+v", o)
	}
	if o.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}

	bad := []Options{
		{Concurrency: -1},
		{RunDeadline: -time.Second},
		{Freshness: -time.Second},
	}
	for _, o := range bad {
		if err := o.ValidateAndSetDefaults(); !errors.Is(err, errors.ErrCodeInvalidConfig) {
			t.Errorf("ValidateAndSetDefaults(%+v) = %v, want INVALID_CONFIG", o, err)
		}
	}
}

func TestCacheEntryRoundTrip(t *testing.T) {
	in := CacheEntry{
		Kind:         "tags",
		Locator:      "github:owner/repo",
		Observations: []string{"v1.0", "v1.1"},
		FetchedAt:    time.Date(2024, 3, 1, 12, 30, 0, 123456789, time.UTC),
	}
	data, err := MarshalCacheEntry(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := UnmarshalCacheEntry(data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
	if !in.Fresh(in.FetchedAt.Add(time.Minute), time.Hour) || in.Fresh(in.FetchedAt.Add(2*time.Hour), time.Hour) {
		t.Error("Fresh() boundaries wrong")
	}
}
