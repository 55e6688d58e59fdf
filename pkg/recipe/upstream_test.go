package recipe

import (
	"reflect"
	"testing"

	"github.com/serpent-os/ent/pkg/errors"
	"github.com/serpent-os/ent/pkg/source"
	"github.com/serpent-os/ent/pkg/version"
)

func TestParseMonitoring(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		want     source.Descriptor
		wantWarn bool
		wantCPEs []CPE
	}{
		{
			name:     "release-monitoring id",
			content:  "releases:\n  id: 2046\n  rss: https://example.com/feed\nsecurity:\n  cpe:\n    - vendor: gnu\n      product: nano\n",
			want:     source.Descriptor{Kind: source.Releases, Locator: "release-monitoring:2046"},
			wantCPEs: []CPE{{Vendor: "gnu", Product: "nano"}},
		},
		{
			name:    "explicit kind overrides id",
			content: "releases:\n  id: 2046\n  kind: tags\n  locator: https://github.com/owner/repo\n  scheme: semantic\n",
			want:    source.Descriptor{Kind: source.Tags, Locator: "https://github.com/owner/repo", Scheme: version.Semantic},
		},
		{
			name:    "releases kind falls back to id",
			content: "releases:\n  id: 7\n  kind: releases\n  pattern: '^v(.*)'\n",
			want:    source.Descriptor{Kind: source.Releases, Locator: "release-monitoring:7", Pattern: "^v(.*)"},
		},
		{name: "id zero opts out", content: "releases:\n  id: 0\n"},
		{name: "no releases block", content: "security: {}\n"},
		{name: "empty document", content: ""},
		{name: "unknown kind", content: "releases:\n  kind: cvs\n  locator: x:y\n", wantWarn: true},
		{name: "kind without locator", content: "releases:\n  kind: redirect\n", wantWarn: true},
		{name: "locator without kind", content: "releases:\n  locator: github:a/b\n", wantWarn: true},
		{name: "negative id", content: "releases:\n  id: -3\n", wantWarn: true},
		{name: "bad scheme", content: "releases:\n  id: 3\n  scheme: roman\n", wantWarn: true},
		{name: "bad pattern", content: "releases:\n  id: 3\n  pattern: '(['\n", wantWarn: true},
		{name: "whitespace locator", content: "releases:\n  kind: tags\n  locator: github:a b\n", wantWarn: true},
		{name: "syntax error", content: "releases: [\n", wantWarn: true},
		{name: "non-numeric id", content: "releases:\n  id: abc\n", wantWarn: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, cpes, diags := ParseMonitoring([]byte(tt.content))
			if tt.wantWarn {
				if len(diags) != 1 || diags[0].Code != errors.ErrCodeMalformedSource || diags[0].Fatal {
					t.Errorf("diagnostics = %v, want one MALFORMED_SOURCE warning", diags)
				}
				if !d.IsUnknown() {
					t.Errorf("descriptor = %v, want unknown", d)
				}
				return
			}
			if len(diags) != 0 {
				t.Fatalf("unexpected diagnostics: %v", diags)
			}
			if d != tt.want {
				t.Errorf("descriptor = %+v, want %+v", d, tt.want)
			}
			if !reflect.DeepEqual(cpes, tt.wantCPEs) {
				t.Errorf("cpes = %v, want %v", cpes, tt.wantCPEs)
			}
		})
	}
}
