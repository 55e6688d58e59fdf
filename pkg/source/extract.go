package source

import (
	"regexp"
	"slices"
	"strings"
)

var archiveSuffixes = []string{
	".tar.gz", ".tar.xz", ".tar.bz2", ".tar.zst", ".tar.lz", ".tar.lzma",
	".tgz", ".txz", ".tbz2", ".tar", ".zip", ".7z", ".gem", ".crate",
}

// Extract turns raw observations into version candidates.
//
// With a pattern, the first capture group is the candidate (or the whole
// match when the pattern has no group); non-matching observations are
// dropped. Without a pattern, archive suffixes are stripped and the leading
// non-numeric prefix is removed; observations with no digit are dropped.
//
// The result is de-duplicated and sorted.
func Extract(observations []string, pattern *regexp.Regexp) []string {
	seen := make(map[string]bool, len(observations))
	var out []string
	for _, obs := range observations {
		c, ok := extractOne(strings.TrimSpace(obs), pattern)
		if !ok || c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

func extractOne(obs string, pattern *regexp.Regexp) (string, bool) {
	if pattern != nil {
		m := pattern.FindStringSubmatch(obs)
		switch {
		case m == nil:
			return "", false
		case len(m) > 1:
			return m[1], true
		default:
			return m[0], true
		}
	}

	s := StripArchiveSuffix(obs)
	if s == "" {
		return "", false
	}
	if i := versionStart(s); i >= 0 {
		return s[i:], true
	}
	return "", false
}

// versionStart finds the first digit that begins a version, skipping a
// prefix such as "v", "release-", "nano-" or "REL_". A digit glued to a
// letter ("gtk4") does not start a version.
func versionStart(s string) int {
	isSep := func(b byte) bool { return b == '-' || b == '_' || b == '.' }
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			continue
		}
		switch {
		case i == 0, isSep(s[i-1]):
			return i
		case s[i-1] == 'v' || s[i-1] == 'V':
			if i == 1 || isSep(s[i-2]) {
				return i
			}
		}
	}
	return -1
}

// StripArchiveSuffix removes a known archive extension from name.
func StripArchiveSuffix(name string) string {
	lower := strings.ToLower(name)
	for _, suf := range archiveSuffixes {
		if strings.HasSuffix(lower, suf) {
			return name[:len(name)-len(suf)]
		}
	}
	return name
}
