package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

func isNumericSeparator(r rune) bool {
	switch r {
	case '.', '-', '_', '+', '~':
		return true
	}
	return false
}

func parseNumeric(s string) ([]string, error) {
	parts := strings.FieldsFunc(s, isNumericSeparator)
	if len(parts) == 0 {
		return nil, fmt.Errorf("no numeric components in %q", s)
	}
	for _, p := range parts {
		if !isDigits(p) {
			return nil, fmt.Errorf("non-numeric component %q in %q", p, s)
		}
	}
	return parts, nil
}

var prereleaseIdent = regexp.MustCompile(`^[0-9A-Za-z-]+$`)

func parseSemantic(s string) (core, pre []string, err error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "v"), "V")
	if i := strings.IndexByte(s, '+'); i >= 0 {
		s = s[:i]
	}

	coreText := s
	if i := strings.IndexByte(s, '-'); i >= 0 {
		coreText = s[:i]
		preText := s[i+1:]
		if preText == "" {
			return nil, nil, fmt.Errorf("empty pre-release in %q", s)
		}
		pre = strings.Split(preText, ".")
		for _, id := range pre {
			if !prereleaseIdent.MatchString(id) {
				return nil, nil, fmt.Errorf("invalid pre-release identifier %q", id)
			}
		}
	}

	core = strings.Split(coreText, ".")
	for _, p := range core {
		if !isDigits(p) {
			return nil, nil, fmt.Errorf("invalid version core %q", coreText)
		}
	}
	return core, pre, nil
}

// comparePrerelease applies semver precedence: no pre-release ranks above any
// pre-release, numeric identifiers rank below alphanumeric ones, and a longer
// identifier list wins when all shared identifiers are equal.
func comparePrerelease(a, b []string) int {
	switch {
	case len(a) == 0 && len(b) == 0:
		return 0
	case len(a) == 0:
		return 1
	case len(b) == 0:
		return -1
	}

	for i := 0; i < len(a) && i < len(b); i++ {
		x, y := a[i], b[i]
		xn, yn := isDigits(x), isDigits(y)
		var c int
		switch {
		case xn && yn:
			c = compareDigits(x, y)
		case xn:
			c = -1
		case yn:
			c = 1
		default:
			c = strings.Compare(x, y)
		}
		if c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

var dateLayouts = []struct {
	re      *regexp.Regexp
	hasDay  bool
	sep     string
	compact bool
}{
	{re: regexp.MustCompile(`^\d{8}$`), hasDay: true, compact: true},
	{re: regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`), hasDay: true, sep: "-"},
	{re: regexp.MustCompile(`^\d{4}\.\d{2}\.\d{2}$`), hasDay: true, sep: "."},
	{re: regexp.MustCompile(`^\d{4}_\d{2}_\d{2}$`), hasDay: true, sep: "_"},
	{re: regexp.MustCompile(`^\d{4}\.\d{2}$`), sep: "."},
}

// parseDate returns [year, month, day] with day 0 for month-only stamps.
func parseDate(s string) ([]string, error) {
	for _, l := range dateLayouts {
		if !l.re.MatchString(s) {
			continue
		}
		var y, m, d string
		switch {
		case l.compact:
			y, m, d = s[:4], s[4:6], s[6:8]
		case l.hasDay:
			f := strings.Split(s, l.sep)
			y, m, d = f[0], f[1], f[2]
		default:
			f := strings.Split(s, l.sep)
			y, m, d = f[0], f[1], "0"
		}
		if err := validateDate(y, m, d, l.hasDay); err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", s, err)
		}
		return []string{y, m, d}, nil
	}
	return nil, fmt.Errorf("unrecognised date format %q", s)
}

func validateDate(ys, ms, ds string, hasDay bool) error {
	y, _ := strconv.Atoi(ys)
	m, _ := strconv.Atoi(ms)
	if m < 1 || m > 12 {
		return fmt.Errorf("month %d out of range", m)
	}
	if !hasDay {
		return nil
	}
	d, _ := strconv.Atoi(ds)
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if d < 1 || t.Day() != d || int(t.Month()) != m {
		return fmt.Errorf("day %d does not exist in %04d-%02d", d, y, m)
	}
	return nil
}

func parseEpoch(s string) (string, []string, error) {
	epoch := "0"
	rest := s
	if i := strings.IndexByte(s, ':'); i >= 0 {
		epoch, rest = s[:i], s[i+1:]
		if !isDigits(epoch) {
			return "", nil, fmt.Errorf("invalid epoch %q in %q", epoch, s)
		}
	}
	parts, err := parseNumeric(rest)
	if err != nil {
		return "", nil, err
	}
	return epoch, parts, nil
}
