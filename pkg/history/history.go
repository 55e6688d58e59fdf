// Package history records completed update-check runs.
//
// Each run is stored under a random UUID. The MongoDB store is used when a
// URI is configured; MemoryStore serves tests and single-process servers.
package history

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/serpent-os/ent/pkg/errors"
	"github.com/serpent-os/ent/pkg/report"
)

// DefaultListLimit caps List when the caller passes a non-positive limit.
const DefaultListLimit = 20

// Run is one stored report plus the wall-clock facts of the run that
// produced it. The report itself carries no timing.
type Run struct {
	ID        string         `json:"id" bson:"_id"`
	Root      string         `json:"root" bson:"root"`
	StartedAt time.Time      `json:"started_at" bson:"started_at"`
	Duration  time.Duration  `json:"duration_ns" bson:"duration_ns"`
	Summary   report.Summary `json:"summary" bson:"summary"`
	Report    *report.Report `json:"report,omitempty" bson:"report,omitempty"`
}

// Store persists runs.
type Store interface {
	// Save stores run, assigning an ID when it has none.
	Save(ctx context.Context, run Run) (Run, error)

	// Get returns the run with the full report. Unknown IDs are NOT_FOUND.
	Get(ctx context.Context, id string) (Run, error)

	// List returns the most recent runs first, without their reports.
	List(ctx context.Context, limit int) ([]Run, error)

	Close(ctx context.Context) error
}

// NewRun wraps rep with a fresh ID and the time the run started and took.
func NewRun(rep *report.Report, startedAt time.Time, took time.Duration) Run {
	return Run{
		ID:        uuid.NewString(),
		Root:      rep.Root,
		StartedAt: startedAt,
		Duration:  took,
		Summary:   rep.Summary,
		Report:    rep,
	}
}

func withID(run Run) Run {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	return run
}

// ValidateID rejects strings that are not UUIDs.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.Wrap(errors.ErrCodeNotFound, err, "run %q", id)
	}
	return nil
}

// MemoryStore keeps runs in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	runs []Run
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(_ context.Context, run Run) (Run, error) {
	run = withID(run)
	s.mu.Lock()
	s.runs = append(s.runs, run)
	s.mu.Unlock()
	return run, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Run, error) {
	if err := ValidateID(id); err != nil {
		return Run{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.runs {
		if r.ID == id {
			return r, nil
		}
	}
	return Run{}, errors.New(errors.ErrCodeNotFound, "run %s not found", id)
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	s.mu.RLock()
	runs := slices.Clone(s.runs)
	s.mu.RUnlock()

	slices.SortStableFunc(runs, func(a, b Run) int { return b.StartedAt.Compare(a.StartedAt) })
	if len(runs) > limit {
		runs = runs[:limit]
	}
	for i := range runs {
		runs[i].Report = nil
	}
	return runs, nil
}

func (s *MemoryStore) Close(context.Context) error { return nil }
