package recipe

import (
	"bytes"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/serpent-os/ent/pkg/errors"
)

// Parser reads one manifest format.
type Parser interface {
	// Format returns the dialect this parser reads.
	Format() Format
	// Supports reports whether this parser handles the given filename.
	Supports(filename string) bool
	// Parse extracts a manifest from the file contents. When a fatal
	// diagnostic is returned the manifest is nil.
	Parse(data []byte) (*Manifest, []Diagnostic)
	// Inline reports whether the format declares its upstream itself
	// rather than in an adjacent monitoring file.
	Inline() bool
}

// Parsers are the registered manifest parsers.
var Parsers = []Parser{Ypkg{}, Stone{}, TOML{}}

// Detect finds a parser that supports the given file path.
func Detect(path string) (Parser, bool) {
	name := filepath.Base(path)
	for _, p := range Parsers {
		if p.Supports(name) {
			return p, true
		}
	}
	return nil, false
}

// IsManifest reports whether name is a recipe manifest filename.
func IsManifest(name string) bool {
	_, ok := Detect(name)
	return ok
}

// Parse reads manifest text, choosing the parser from the filename.
func Parse(filename string, data []byte) (*Manifest, []Diagnostic) {
	p, ok := Detect(filename)
	if !ok {
		return nil, []Diagnostic{fatal(errors.ErrCodeInvalidSyntax, "unsupported manifest: %s", filepath.Base(filename))}
	}
	return p.Parse(data)
}

// Ypkg parses package.yml recipes.
type Ypkg struct{}

func (Ypkg) Format() Format            { return FormatYpkg }
func (Ypkg) Inline() bool              { return false }
func (Ypkg) Supports(name string) bool { return name == "package.yml" }

func (p Ypkg) Parse(data []byte) (*Manifest, []Diagnostic) {
	var doc struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	}
	if d := decodeYAML(data, &doc); d != nil {
		return nil, []Diagnostic{*d}
	}
	return build(p.Format(), doc.Name, doc.Version)
}

// Stone parses stone.yaml recipes.
type Stone struct{}

func (Stone) Format() Format            { return FormatStone }
func (Stone) Inline() bool              { return false }
func (Stone) Supports(name string) bool { return name == "stone.yaml" }

func (p Stone) Parse(data []byte) (*Manifest, []Diagnostic) {
	var doc struct {
		Name    string    `yaml:"name"`
		Version string    `yaml:"version"`
		Source  yaml.Node `yaml:"source"`
	}
	if d := decodeYAML(data, &doc); d != nil {
		return nil, []Diagnostic{*d}
	}
	name, ver := doc.Name, doc.Version
	// Older stone recipes nest the metadata under a source mapping.
	if doc.Source.Kind == yaml.MappingNode {
		var nested struct {
			Name    string `yaml:"name"`
			Version string `yaml:"version"`
		}
		if err := doc.Source.Decode(&nested); err != nil {
			return nil, []Diagnostic{fatal(errors.ErrCodeInvalidSyntax, "%v", err)}
		}
		if name == "" {
			name = nested.Name
		}
		if ver == "" {
			ver = nested.Version
		}
	}
	return build(p.Format(), name, ver)
}

// TOML parses recipe.toml recipes, which carry their upstream inline.
type TOML struct{}

func (TOML) Format() Format            { return FormatTOML }
func (TOML) Inline() bool              { return true }
func (TOML) Supports(name string) bool { return name == "recipe.toml" }

func (p TOML) Parse(data []byte) (*Manifest, []Diagnostic) {
	if d := checkEncoding(data); d != nil {
		return nil, []Diagnostic{*d}
	}
	var doc struct {
		Name     string    `toml:"name"`
		Version  string    `toml:"version"`
		Upstream *upstream `toml:"upstream"`
	}
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, []Diagnostic{fatal(errors.ErrCodeInvalidSyntax, "%v", err)}
	}
	m, diags := build(p.Format(), doc.Name, doc.Version)
	if m == nil {
		return nil, diags
	}
	d, warn := doc.Upstream.descriptor()
	m.Source = d
	if warn != nil {
		m.Warnings = append(m.Warnings, *warn)
		diags = append(diags, *warn)
	}
	return m, diags
}

func checkEncoding(data []byte) *Diagnostic {
	if !utf8.Valid(data) {
		d := fatal(errors.ErrCodeEncoding, "manifest is not valid UTF-8")
		return &d
	}
	return nil
}

func decodeYAML(data []byte, v any) *Diagnostic {
	if d := checkEncoding(data); d != nil {
		return d
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		d := fatal(errors.ErrCodeInvalidSyntax, "%v", err)
		return &d
	}
	return nil
}

func build(format Format, name, rawVersion string) (*Manifest, []Diagnostic) {
	name = strings.TrimSpace(name)
	if err := errors.ValidateName(name); err != nil {
		return nil, []Diagnostic{fatal(errors.ErrCodeMissingName, "%s", errors.UserMessage(err))}
	}
	rawVersion = strings.TrimSpace(rawVersion)
	return &Manifest{
		Name:       name,
		Version:    SanitizeVersion(rawVersion),
		RawVersion: rawVersion,
		Format:     format,
	}, nil
}
