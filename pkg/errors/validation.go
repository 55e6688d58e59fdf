package errors

import (
	"net/url"
	"strings"
	"unicode"
)

const (
	maxNameLength    = 256
	maxLocatorLength = 2048
)

// ValidateName validates a recipe name taken from a manifest.
//
// Names end up in reports, cache keys and history documents, so they must be
// printable single-line strings:
//   - No empty names
//   - No control characters
//   - Maximum length of 256 characters
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeMissingName, "recipe name cannot be empty")
	}
	if len(name) > maxNameLength {
		return New(ErrCodeMissingName, "recipe name too long (max %d characters)", maxNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeMissingName, "recipe name contains control characters")
		}
	}
	return nil
}

// ValidateLocator validates an upstream locator before any network use.
// Locators are single tokens: no whitespace, no control characters.
func ValidateLocator(locator string) error {
	if locator == "" {
		return New(ErrCodeInvalidLocator, "locator cannot be empty")
	}
	if len(locator) > maxLocatorLength {
		return New(ErrCodeInvalidLocator, "locator too long (max %d characters)", maxLocatorLength)
	}
	for _, r := range locator {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidLocator, "locator contains whitespace or control characters: %q", locator)
		}
	}
	return nil
}

// ValidateURL checks that rawURL is an absolute http or https URL.
func ValidateURL(rawURL string) error {
	if err := ValidateLocator(rawURL); err != nil {
		return err
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidLocator, err, "invalid URL %q", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidLocator, "URL must use http or https scheme: %q", rawURL)
	}
	if u.Host == "" {
		return New(ErrCodeInvalidLocator, "URL has no host: %q", rawURL)
	}
	return nil
}
