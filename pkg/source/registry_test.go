package source

import (
	"context"
	stderrors "errors"
	"reflect"
	"testing"

	"github.com/serpent-os/ent/pkg/errors"
)

func TestRegistryCheck(t *testing.T) {
	calls := 0
	r := NewRegistry()
	r.Register(Tags, CheckerFunc(func(ctx context.Context, loc string) ([]string, error) {
		calls++
		return []string{"v1.0", "v1.1"}, nil
	}))

	got, err := r.Check(context.Background(), Descriptor{Kind: Tags, Locator: "github:a/b"})
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"v1.0", "v1.1"}) {
		t.Errorf("Check() = %v", got)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRegistryUnknownKindMakesNoCall(t *testing.T) {
	called := false
	r := NewRegistry()
	r.Register(Tags, CheckerFunc(func(context.Context, string) ([]string, error) {
		called = true
		return nil, nil
	}))

	for _, d := range []Descriptor{{}, {Kind: Tags}, {Locator: "github:a/b"}} {
		_, err := r.Check(context.Background(), d)
		if !stderrors.Is(err, ErrNoUpstream) {
			t.Errorf("Check(%+v) error = %v, want ErrNoUpstream", d, err)
		}
		if !errors.Is(err, errors.ErrCodeNoUpstream) {
			t.Errorf("Check(%+v) code = %s", d, errors.GetCode(err))
		}
	}
	if called {
		t.Error("checker called for unknown descriptor")
	}
}

func TestRegistryErrors(t *testing.T) {
	r := NewRegistry()
	r.Register(Tags, CheckerFunc(func(context.Context, string) ([]string, error) {
		panic("boom")
	}))
	r.Register(Releases, CheckerFunc(func(context.Context, string) ([]string, error) {
		return nil, stderrors.New("connection reset")
	}))

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		d    Descriptor
		want errors.Code
	}{
		{"unregistered kind", context.Background(), Descriptor{Kind: Directory, Locator: "https://example.com/"}, errors.ErrCodeUnsupported},
		{"panic recovered", context.Background(), Descriptor{Kind: Tags, Locator: "github:a/b"}, errors.ErrCodeInternal},
		{"uncoded error", context.Background(), Descriptor{Kind: Releases, Locator: "pypi:x"}, errors.ErrCodeUnreachable},
		{"uncoded error after cancel", canceled, Descriptor{Kind: Releases, Locator: "pypi:x"}, errors.ErrCodeTimeout},
		{"whitespace locator", context.Background(), Descriptor{Kind: Tags, Locator: "github:a b"}, errors.ErrCodeInvalidLocator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Check(tt.ctx, tt.d)
			if !errors.Is(err, tt.want) {
				t.Errorf("Check() error = %v, want code %s", err, tt.want)
			}
		})
	}
}

func TestRegistryRegisterUnknownPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Register(Unknown) did not panic")
		}
	}()
	NewRegistry().Register(Unknown, CheckerFunc(nil))
}

func TestRegistryKinds(t *testing.T) {
	r := NewRegistry()
	r.Register(Releases, CheckerFunc(nil))
	r.Register(Directory, CheckerFunc(nil))
	if got := r.Kinds(); !reflect.DeepEqual(got, []Kind{Directory, Releases}) {
		t.Errorf("Kinds() = %v", got)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"tags", Tags, false},
		{"tag", Tags, false},
		{"releases", Releases, false},
		{"feed", Releases, false},
		{"redirect", Redirect, false},
		{"directory", Directory, false},
		{"svn", Unknown, true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseKind(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestDescriptorCompilePattern(t *testing.T) {
	if re, err := (Descriptor{}).CompilePattern(); re != nil || err != nil {
		t.Errorf("empty pattern = %v, %v", re, err)
	}
	_, err := Descriptor{Pattern: "v(["}.CompilePattern()
	if !errors.Is(err, errors.ErrCodeMalformedSource) {
		t.Errorf("bad pattern error = %v", err)
	}
}

func TestDescriptorKey(t *testing.T) {
	tests := []struct {
		name string
		a, b Descriptor
		same bool
	}{
		{
			name: "github url and short form",
			a:    Descriptor{Kind: Tags, Locator: "github:owner/repo"},
			b:    Descriptor{Kind: Tags, Locator: "https://github.com/owner/repo"},
			same: true,
		},
		{
			name: "surrounding space",
			a:    Descriptor{Kind: Releases, Locator: "pypi:requests"},
			b:    Descriptor{Kind: Releases, Locator: " pypi:requests "},
			same: true,
		},
		{
			name: "scheme case",
			a:    Descriptor{Kind: Releases, Locator: "crates:serde"},
			b:    Descriptor{Kind: Releases, Locator: "CRATES:serde"},
			same: true,
		},
		{
			name: "pattern does not matter",
			a:    Descriptor{Kind: Tags, Locator: "github:owner/repo"},
			b:    Descriptor{Kind: Tags, Locator: "github:owner/repo", Pattern: "^v(.*)$"},
			same: true,
		},
		{
			name: "different kinds",
			a:    Descriptor{Kind: Tags, Locator: "github:owner/repo"},
			b:    Descriptor{Kind: Releases, Locator: "github:owner/repo"},
		},
		{
			name: "plain urls kept",
			a:    Descriptor{Kind: Directory, Locator: "https://ftp.gnu.org/gnu/nano/"},
			b:    Descriptor{Kind: Directory, Locator: "https://ftp.gnu.org/gnu/bash/"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Key() == tt.b.Key(); got != tt.same {
				t.Errorf("Key() %q vs %q: same = %v, want %v", tt.a.Key(), tt.b.Key(), got, tt.same)
			}
		})
	}

	d := Descriptor{Kind: Tags, Locator: "https://github.com/owner/repo"}
	if got := d.String(); got != "tags:https://github.com/owner/repo" {
		t.Errorf("String() = %q, want the locator as written", got)
	}
}
