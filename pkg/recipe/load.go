package recipe

import (
	"os"
	"path/filepath"

	"github.com/serpent-os/ent/pkg/errors"
)

// Load reads the manifest at path and, for formats without an inline
// upstream, the adjacent monitoring file. Diagnostics carry path.
func Load(path string) (*Manifest, []Diagnostic) {
	m, diags := load(path)
	for i := range diags {
		diags[i].Path = path
	}
	if m != nil {
		m.Path = path
		for i := range m.Warnings {
			m.Warnings[i].Path = path
		}
	}
	return m, diags
}

func load(path string) (*Manifest, []Diagnostic) {
	p, ok := Detect(path)
	if !ok {
		return nil, []Diagnostic{fatal(errors.ErrCodeUnreadable, "unsupported manifest: %s", filepath.Base(path))}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []Diagnostic{fatal(errors.ErrCodeUnreadable, "%v", err)}
	}

	m, diags := p.Parse(data)
	if m == nil || p.Inline() {
		return m, diags
	}

	mon, ok := findMonitoring(filepath.Dir(path))
	if !ok {
		return m, diags
	}
	raw, err := os.ReadFile(mon)
	if err != nil {
		w := warning(errors.ErrCodeMalformedSource, "read %s: %v", filepath.Base(mon), err)
		m.Warnings = append(m.Warnings, w)
		return m, append(diags, w)
	}
	d, cpes, warns := ParseMonitoring(raw)
	m.Source = d
	m.CPEs = cpes
	m.Warnings = append(m.Warnings, warns...)
	return m, append(diags, warns...)
}

func findMonitoring(dir string) (string, bool) {
	for _, name := range MonitoringFiles {
		p := filepath.Join(dir, name)
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p, true
		}
	}
	return "", false
}
