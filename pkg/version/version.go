// Package version orders upstream version strings under a declared scheme.
//
// Four schemes are supported:
//
//   - [Numeric]: digit runs separated by '.', '-', '_', '+' or '~'. Shorter
//     sequences are padded with zeros, so "1.2" equals "1.2.0". Any letter
//     makes the string unparseable.
//   - [Semantic]: a numeric core with an optional "v" prefix, an optional
//     "-prerelease" suffix ordered by semver precedence, and an ignored
//     "+build" suffix. A pre-release sorts below its release.
//   - [Date]: YYYYMMDD, YYYY-MM-DD, YYYY.MM.DD, YYYY_MM_DD or YYYY.MM,
//     validated against the calendar.
//   - [Epoch]: "N:rest" where the integer epoch dominates and rest is
//     compared as [Numeric]. A missing epoch is 0.
//
// Versions that fail to parse compare as [Incomparable]. Callers must treat
// that as an error rather than as "no update".
package version

import (
	"fmt"
	"strings"
)

// Scheme selects the ordering rules for a version string.
type Scheme string

const (
	Numeric  Scheme = "numeric"
	Semantic Scheme = "semantic"
	Date     Scheme = "date"
	Epoch    Scheme = "epoch"
)

// DefaultScheme is used when a recipe does not declare one.
const DefaultScheme = Numeric

// Schemes lists every supported scheme.
var Schemes = []Scheme{Numeric, Semantic, Date, Epoch}

// ParseScheme maps a declared scheme name to a Scheme.
// The empty string maps to DefaultScheme.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultScheme, nil
	case Numeric:
		return Numeric, nil
	case Semantic, "semver":
		return Semantic, nil
	case Date, "calver":
		return Date, nil
	case Epoch:
		return Epoch, nil
	}
	return "", fmt.Errorf("unknown version scheme %q", s)
}

// Ordering is the result of comparing two versions.
type Ordering int

const (
	Less Ordering = iota - 1
	Equal
	Greater
	Incomparable
)

func (o Ordering) String() string {
	switch o {
	case Less:
		return "less"
	case Equal:
		return "equal"
	case Greater:
		return "greater"
	default:
		return "incomparable"
	}
}

// Version is a parsed version string.
type Version struct {
	Raw    string
	Scheme Scheme

	epoch string
	parts []string
	pre   []string
}

// IsPrerelease reports whether v carries a semantic pre-release suffix.
func (v Version) IsPrerelease() bool {
	return len(v.pre) > 0
}

func (v Version) String() string {
	return v.Raw
}

// Parse parses raw under scheme.
func Parse(raw string, scheme Scheme) (Version, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Version{}, fmt.Errorf("empty version string")
	}

	v := Version{Raw: raw, Scheme: scheme, epoch: "0"}
	var err error
	switch scheme {
	case Numeric, "":
		v.Scheme = Numeric
		v.parts, err = parseNumeric(s)
	case Semantic:
		v.parts, v.pre, err = parseSemantic(s)
	case Date:
		v.parts, err = parseDate(s)
	case Epoch:
		v.epoch, v.parts, err = parseEpoch(s)
	default:
		err = fmt.Errorf("unknown version scheme %q", scheme)
	}
	if err != nil {
		return Version{}, err
	}
	return v, nil
}

// Compare orders a against b under scheme. Either side failing to parse
// yields Incomparable.
func Compare(a, b string, scheme Scheme) Ordering {
	va, err := Parse(a, scheme)
	if err != nil {
		return Incomparable
	}
	vb, err := Parse(b, scheme)
	if err != nil {
		return Incomparable
	}
	return va.Compare(vb)
}

// Compare orders v against other. Versions parsed under different schemes
// are Incomparable.
func (v Version) Compare(other Version) Ordering {
	if v.Scheme != other.Scheme {
		return Incomparable
	}
	if c := compareDigits(v.epoch, other.epoch); c != 0 {
		return ordering(c)
	}
	if c := compareParts(v.parts, other.parts); c != 0 {
		return ordering(c)
	}
	return ordering(comparePrerelease(v.pre, other.pre))
}

func ordering(c int) Ordering {
	switch {
	case c < 0:
		return Less
	case c > 0:
		return Greater
	}
	return Equal
}

// compareParts compares digit sequences component-wise, padding the shorter
// one with zeros.
func compareParts(a, b []string) int {
	n := max(len(a), len(b))
	for i := range n {
		x, y := "0", "0"
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		if c := compareDigits(x, y); c != 0 {
			return c
		}
	}
	return 0
}

// compareDigits compares two non-empty ASCII digit strings numerically
// without converting them, so arbitrarily long components are safe.
func compareDigits(a, b string) int {
	a = trimZeros(a)
	b = trimZeros(b)
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func trimZeros(s string) string {
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return "0"
	}
	return s
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
