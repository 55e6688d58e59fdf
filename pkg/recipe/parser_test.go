package recipe

import (
	"testing"

	"github.com/serpent-os/ent/pkg/errors"
	"github.com/serpent-os/ent/pkg/source"
	"github.com/serpent-os/ent/pkg/version"
)

func TestParsers_Supports(t *testing.T) {
	tests := []struct {
		filename string
		want     Format
		ok       bool
	}{
		{"package.yml", FormatYpkg, true},
		{"stone.yaml", FormatStone, true},
		{"recipe.toml", FormatTOML, true},
		{"monitoring.yaml", "", false},
		{"package.yaml", "", false},
		{"Package.yml", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			p, ok := Detect("/tree/x/" + tt.filename)
			if ok != tt.ok {
				t.Fatalf("Detect(%q) ok = %v, want %v", tt.filename, ok, tt.ok)
			}
			if ok && p.Format() != tt.want {
				t.Errorf("Detect(%q) = %s, want %s", tt.filename, p.Format(), tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		content     string
		wantName    string
		wantVersion string
		wantFatal   errors.Code
	}{
		{
			name:        "ypkg",
			filename:    "package.yml",
			content:     "name: nano\nversion: 8.0\nrelease: 12\nsource:\n  - https://nano-editor.org/dist/v8/nano-8.0.tar.xz : abc\n",
			wantName:    "nano",
			wantVersion: "8.0",
		},
		{
			name:        "ypkg keeps trailing zero",
			filename:    "package.yml",
			content:     "name: foo\nversion: 1.10\n",
			wantName:    "foo",
			wantVersion: "1.10",
		},
		{
			name:     "stone",
			filename: "stone.yaml",
			content: "name        : nano\n" +
				"version     : 8.0\n" +
				"release     : 1\n" +
				"homepage    : https://nano-editor.org\n" +
				"upstreams   :\n" +
				"    - https://nano-editor.org/dist/v8/nano-8.0.tar.xz : abc123\n" +
				"summary     : GNU Text Editor\n" +
				"license     : GPL-3.0-or-later\n" +
				"builddeps   :\n" +
				"    - pkgconfig(ncursesw)\n",
			wantName:    "nano",
			wantVersion: "8.0",
		},
		{
			name:        "stone nested source",
			filename:    "stone.yaml",
			content:     "source:\n  name: zlib-ng\n  version: 2.2.1\n  release: 3\nbuilddeps: [cmake]\n",
			wantName:    "zlib-ng",
			wantVersion: "2.2.1",
		},
		{
			name:        "stone top level wins",
			filename:    "stone.yaml",
			content:     "name: zstd\nversion: 1.5.6\nsource:\n  name: other\n  version: 0.1\n",
			wantName:    "zstd",
			wantVersion: "1.5.6",
		},
		{
			name:        "toml",
			filename:    "recipe.toml",
			content:     "name = \"curl\"\nversion = \"8.5.0\"\n",
			wantName:    "curl",
			wantVersion: "8.5.0",
		},
		{
			name:        "vcs suffix",
			filename:    "package.yml",
			content:     "name: mesa\nversion: 24.1.0+git20240501\n",
			wantName:    "mesa",
			wantVersion: "24.1.0",
		},
		{
			name:        "missing version",
			filename:    "package.yml",
			content:     "name: nover\n",
			wantName:    "nover",
			wantVersion: "",
		},
		{name: "missing name", filename: "package.yml", content: "version: 1.0\n", wantFatal: errors.ErrCodeMissingName},
		{name: "empty file", filename: "stone.yaml", content: "", wantFatal: errors.ErrCodeMissingName},
		{name: "yaml syntax", filename: "package.yml", content: "name: [unclosed\n", wantFatal: errors.ErrCodeInvalidSyntax},
		{name: "toml syntax", filename: "recipe.toml", content: "name = \n", wantFatal: errors.ErrCodeInvalidSyntax},
		{name: "invalid utf-8", filename: "package.yml", content: "name: \xff\xfe\n", wantFatal: errors.ErrCodeEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, diags := Parse(tt.filename, []byte(tt.content))
			if tt.wantFatal != "" {
				if m != nil {
					t.Errorf("Parse() manifest = %+v, want nil", m)
				}
				if len(diags) != 1 || !diags[0].Fatal || diags[0].Code != tt.wantFatal {
					t.Errorf("Parse() diagnostics = %v, want fatal %s", diags, tt.wantFatal)
				}
				return
			}
			if HasFatal(diags) {
				t.Fatalf("Parse() fatal diagnostics: %v", diags)
			}
			if m.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", m.Name, tt.wantName)
			}
			if m.Version != tt.wantVersion {
				t.Errorf("Version = %q, want %q", m.Version, tt.wantVersion)
			}
			if !m.Source.IsUnknown() {
				t.Errorf("Source = %v, want unknown", m.Source)
			}
		})
	}
}

func TestParseTOMLUpstream(t *testing.T) {
	content := `name = "ripgrep"
version = "14.0.3"

[upstream]
kind = "tags"
locator = "github:BurntSushi/ripgrep"
pattern = '^(\d+\.\d+\.\d+)$'
scheme = "semver"
prerelease = true
`
	m, diags := Parse("recipe.toml", []byte(content))
	if len(diags) != 0 {
		t.Fatalf("Parse() diagnostics: %v", diags)
	}
	want := source.Descriptor{
		Kind:       source.Tags,
		Locator:    "github:BurntSushi/ripgrep",
		Pattern:    `^(\d+\.\d+\.\d+)$`,
		Scheme:     version.Semantic,
		Prerelease: true,
	}
	if m.Source != want {
		t.Errorf("Source = %+v, want %+v", m.Source, want)
	}
}

func TestParseTOMLMalformedUpstream(t *testing.T) {
	content := "name = \"x\"\nversion = \"1.0\"\n[upstream]\nkind = \"svn\"\nlocator = \"svn://x\"\n"
	m, diags := Parse("recipe.toml", []byte(content))
	if m == nil {
		t.Fatalf("Parse() manifest is nil: %v", diags)
	}
	if !m.Source.IsUnknown() {
		t.Errorf("Source = %v, want unknown", m.Source)
	}
	if len(m.Warnings) != 1 || m.Warnings[0].Code != errors.ErrCodeMalformedSource || m.Warnings[0].Fatal {
		t.Errorf("Warnings = %v", m.Warnings)
	}
}

func TestSanitizeVersion(t *testing.T) {
	tests := map[string]string{
		"1.2.3":             "1.2.3",
		"1.2.3+git20240101": "1.2.3",
		"0.9+vcs.abc":       "0.9",
		"5.0+mur1+git2":     "5.0",
		"  2.0  ":           "2.0",
		"1.0+build":         "1.0+build",
		"":                  "",
	}
	for in, want := range tests {
		if got := SanitizeVersion(in); got != want {
			t.Errorf("SanitizeVersion(%q) = %q, want %q", in, got, want)
		}
	}
}
