package recipe

import (
	"fmt"
	"strings"

	"github.com/serpent-os/ent/pkg/errors"
	"github.com/serpent-os/ent/pkg/source"
)

// Format identifies the manifest dialect a recipe was read from.
type Format string

const (
	FormatYpkg  Format = "ypkg"
	FormatStone Format = "stone"
	FormatTOML  Format = "toml"
)

// Manifest is the parsed view of one recipe. It is not modified after
// Parse or Load returns it.
type Manifest struct {
	Name string `json:"name"`
	Path string `json:"path"`

	// Version is the declared version with packaging suffixes removed.
	// Empty means the packaged version is unknown.
	Version    string `json:"version,omitempty"`
	RawVersion string `json:"raw_version,omitempty"`

	Format   Format            `json:"format"`
	Source   source.Descriptor `json:"source"`
	CPEs     []CPE             `json:"cpes,omitempty"`
	Warnings []Diagnostic      `json:"warnings,omitempty"`
}

// CPE names a product in the NVD. Recipes declare these for security
// tracking; they are carried along but not used by the update check.
type CPE struct {
	Vendor  string `json:"vendor" yaml:"vendor"`
	Product string `json:"product" yaml:"product"`
}

// Diagnostic reports a problem found while reading a recipe.
type Diagnostic struct {
	Path    string      `json:"path"`
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
	Fatal   bool        `json:"fatal"`
}

func (d Diagnostic) String() string {
	if d.Path == "" {
		return fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Path, d.Code, d.Message)
}

func fatal(code errors.Code, format string, args ...any) Diagnostic {
	return Diagnostic{Code: code, Message: fmt.Sprintf(format, args...), Fatal: true}
}

func warning(code errors.Code, format string, args ...any) Diagnostic {
	return Diagnostic{Code: code, Message: fmt.Sprintf(format, args...)}
}

// HasFatal reports whether any diagnostic in diags is fatal.
func HasFatal(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Fatal {
			return true
		}
	}
	return false
}

// vcsSuffixes mark versions built from a VCS snapshot ("1.2+git20240101").
var vcsSuffixes = []string{"+git", "+vcs", "+mur"}

// SanitizeVersion cuts v at the first VCS snapshot suffix.
func SanitizeVersion(v string) string {
	v = strings.TrimSpace(v)
	cut := len(v)
	for _, s := range vcsSuffixes {
		if i := strings.Index(v, s); i >= 0 && i < cut {
			cut = i
		}
	}
	return v[:cut]
}
