// Package report assembles per-recipe outcomes into a deterministic report.
//
// Entries are ordered by recipe name, diagnostics by path. Workers may
// finish in any order; Build is where the order is fixed.
package report

import (
	"cmp"
	"encoding/json"
	"io"
	"slices"

	"github.com/serpent-os/ent/pkg/recipe"
)

// Entry is one checked (or skipped) recipe.
type Entry struct {
	Name    string        `json:"name"`
	Path    string        `json:"path"`
	Format  recipe.Format `json:"format,omitempty"`
	Source  string        `json:"source"`
	Current string        `json:"current,omitempty"`
	Latest  string        `json:"latest,omitempty"`
	Outcome Outcome       `json:"outcome"`

	// Cached is set when the upstream observations came from the
	// persistent cache rather than the network.
	Cached   bool                `json:"cached,omitempty"`
	Warnings []recipe.Diagnostic `json:"warnings,omitempty"`
}

// Summary counts entries by outcome.
type Summary struct {
	Total       int `json:"total"`
	Updates     int `json:"updates"`
	UpToDate    int `json:"up_to_date"`
	Errors      int `json:"errors"`
	Skipped     int `json:"skipped"`
	Diagnostics int `json:"diagnostics"`
}

// Report is the result of one run. It holds no wall-clock data, so two runs
// over the same tree and cache encode to the same bytes.
type Report struct {
	Root        string              `json:"root,omitempty"`
	Summary     Summary             `json:"summary"`
	Entries     []Entry             `json:"entries"`
	Diagnostics []recipe.Diagnostic `json:"diagnostics"`
}

// Build sorts entries and diagnostics and computes the summary. The input
// slices are copied.
func Build(entries []Entry, diagnostics []recipe.Diagnostic) *Report {
	r := &Report{
		Entries:     slices.Clone(entries),
		Diagnostics: slices.Clone(diagnostics),
	}
	if r.Entries == nil {
		r.Entries = []Entry{}
	}
	if r.Diagnostics == nil {
		r.Diagnostics = []recipe.Diagnostic{}
	}

	slices.SortStableFunc(r.Entries, func(a, b Entry) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Path, b.Path))
	})
	slices.SortStableFunc(r.Diagnostics, func(a, b recipe.Diagnostic) int {
		return cmp.Or(cmp.Compare(a.Path, b.Path), cmp.Compare(a.Code, b.Code))
	})

	r.Summary = Summary{Total: len(r.Entries) + len(r.Diagnostics), Diagnostics: len(r.Diagnostics)}
	for _, e := range r.Entries {
		switch e.Outcome.Kind {
		case KindUpdateAvailable:
			r.Summary.Updates++
		case KindUpToDate:
			r.Summary.UpToDate++
		case KindError:
			r.Summary.Errors++
		case KindSkipped:
			r.Summary.Skipped++
		}
	}
	return r
}

func (r *Report) filter(k Kind) []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Outcome.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// Updates returns the entries with a newer upstream version.
func (r *Report) Updates() []Entry { return r.filter(KindUpdateAvailable) }

// Current returns the up-to-date entries.
func (r *Report) Current() []Entry { return r.filter(KindUpToDate) }

// Errors returns the entries whose check failed.
func (r *Report) Errors() []Entry { return r.filter(KindError) }

// Skipped returns the entries that were not checked.
func (r *Report) Skipped() []Entry { return r.filter(KindSkipped) }

// Entry looks up an entry by recipe name.
func (r *Report) Entry(name string) (Entry, bool) {
	i, ok := slices.BinarySearchFunc(r.Entries, name, func(e Entry, n string) int {
		return cmp.Compare(e.Name, n)
	})
	if !ok {
		return Entry{}, false
	}
	return r.Entries[i], true
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
