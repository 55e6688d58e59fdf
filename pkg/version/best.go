package version

import (
	"github.com/serpent-os/ent/pkg/errors"
)

// Candidate is an upstream version string and the scheme it is ordered by.
type Candidate struct {
	Raw    string `json:"raw"`
	Scheme Scheme `json:"scheme"`
}

// Candidates wraps raw strings with a shared scheme.
func Candidates(raws []string, scheme Scheme) []Candidate {
	out := make([]Candidate, len(raws))
	for i, r := range raws {
		out[i] = Candidate{Raw: r, Scheme: scheme}
	}
	return out
}

// Best returns the highest-ordered parseable candidate.
//
// Pre-releases are only considered when includePrerelease is set or when no
// stable candidate parses at all. Ties keep the earliest candidate.
//
// Errors carry ErrCodeNoCandidates for an empty input and
// ErrCodeUnparseableVersion when nothing parses.
func Best(candidates []Candidate, includePrerelease bool) (Candidate, error) {
	if len(candidates) == 0 {
		return Candidate{}, errors.New(errors.ErrCodeNoCandidates, "upstream returned no version candidates")
	}

	var stable, pre []Version
	for _, c := range candidates {
		v, err := Parse(c.Raw, c.Scheme)
		if err != nil {
			continue
		}
		if v.IsPrerelease() {
			pre = append(pre, v)
		} else {
			stable = append(stable, v)
		}
	}

	pool := stable
	if includePrerelease || len(stable) == 0 {
		pool = append(pool, pre...)
	}
	if len(pool) == 0 {
		return Candidate{}, errors.New(errors.ErrCodeUnparseableVersion,
			"none of %d upstream candidates parse", len(candidates))
	}

	best := pool[0]
	for _, v := range pool[1:] {
		if v.Compare(best) == Greater {
			best = v
		}
	}
	return Candidate{Raw: best.Raw, Scheme: best.Scheme}, nil
}
