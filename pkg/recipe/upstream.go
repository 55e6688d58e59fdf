package recipe

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/serpent-os/ent/pkg/errors"
	"github.com/serpent-os/ent/pkg/source"
	"github.com/serpent-os/ent/pkg/version"
)

// MonitoringFiles are the adjacent files consulted for YAML recipes, in
// order of preference.
var MonitoringFiles = []string{"monitoring.yaml", "monitoring.yml"}

// upstream is the declared upstream as written in monitoring.yaml's
// releases block or recipe.toml's [upstream] table.
type upstream struct {
	ID         int64  `yaml:"id" toml:"id"`
	Kind       string `yaml:"kind" toml:"kind"`
	Locator    string `yaml:"locator" toml:"locator"`
	Pattern    string `yaml:"pattern" toml:"pattern"`
	Scheme     string `yaml:"scheme" toml:"scheme"`
	Prerelease bool   `yaml:"prerelease" toml:"prerelease"`
}

type monitoringFile struct {
	Releases *upstream `yaml:"releases"`
	Security *struct {
		CPE []CPE `yaml:"cpe"`
	} `yaml:"security"`
}

// descriptor validates u. Any problem downgrades the result to an unknown
// descriptor and returns a MALFORMED_SOURCE warning.
func (u *upstream) descriptor() (source.Descriptor, *Diagnostic) {
	if u == nil {
		return source.Descriptor{}, nil
	}
	malformed := func(format string, args ...any) (source.Descriptor, *Diagnostic) {
		d := warning(errors.ErrCodeMalformedSource, format, args...)
		return source.Descriptor{}, &d
	}

	var scheme version.Scheme
	if u.Scheme != "" {
		s, err := version.ParseScheme(u.Scheme)
		if err != nil {
			return malformed("%v", err)
		}
		scheme = s
	}

	d := source.Descriptor{
		Pattern:    u.Pattern,
		Scheme:     scheme,
		Prerelease: u.Prerelease,
		Locator:    strings.TrimSpace(u.Locator),
	}

	switch {
	case u.Kind != "":
		kind, err := source.ParseKind(strings.ToLower(strings.TrimSpace(u.Kind)))
		if err != nil {
			return malformed("%v", err)
		}
		d.Kind = kind
		if d.Locator == "" && u.ID > 0 && kind == source.Releases {
			d.Locator = releaseMonitoringLocator(u.ID)
		}
		if d.Locator == "" {
			return malformed("source kind %q declared without a locator", kind)
		}
	case u.ID < 0:
		return malformed("release-monitoring id must not be negative, got %d", u.ID)
	case u.ID > 0:
		d.Kind = source.Releases
		d.Locator = releaseMonitoringLocator(u.ID)
	case d.Locator != "":
		return malformed("locator %q declared without a source kind", d.Locator)
	default:
		// id: 0 opts the recipe out of update checks.
		return source.Descriptor{}, nil
	}

	if err := errors.ValidateLocator(d.Locator); err != nil {
		return malformed("%v", err)
	}
	if _, err := d.CompilePattern(); err != nil {
		return malformed("%v", err)
	}
	return d, nil
}

func releaseMonitoringLocator(id int64) string {
	return "release-monitoring:" + strconv.FormatInt(id, 10)
}

// ParseMonitoring reads a monitoring.yaml document. Syntax and validation
// problems yield an unknown descriptor and a non-fatal diagnostic.
func ParseMonitoring(data []byte) (source.Descriptor, []CPE, []Diagnostic) {
	var m monitoringFile
	if err := yaml.Unmarshal(data, &m); err != nil {
		return source.Descriptor{}, nil, []Diagnostic{
			warning(errors.ErrCodeMalformedSource, "invalid monitoring data: %v", err),
		}
	}
	var cpes []CPE
	if m.Security != nil {
		cpes = m.Security.CPE
	}
	d, diag := m.Releases.descriptor()
	if diag != nil {
		return d, cpes, []Diagnostic{*diag}
	}
	return d, cpes, nil
}
