// Package walker enumerates recipe manifests under a tree root.
//
// Directories are read in parallel with fastwalk, but the resulting
// sequence is always in lexical path order. Symbolic links to directories
// are followed once per real path, which guarantees termination on link
// cycles.
package walker

import (
	"cmp"
	"context"
	stderrors "errors"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"

	"github.com/serpent-os/ent/pkg/errors"
	"github.com/serpent-os/ent/pkg/recipe"
)

// DefaultIgnore lists directory names that never hold recipes.
var DefaultIgnore = []string{"node_modules", "vendor", "build", "_build", "target", "pkgs"}

// Options configures a Walker.
type Options struct {
	// Ignore holds glob patterns matched against directory base names and
	// root-relative paths. Nil means DefaultIgnore.
	Ignore []string

	// Match reports whether a file name is a manifest. Nil means
	// recipe.IsManifest.
	Match func(name string) bool

	// Workers bounds fastwalk's parallelism. Zero uses fastwalk's default.
	Workers int
}

// Walker enumerates manifests below a root directory.
type Walker struct {
	root string
	opts Options
}

// New validates root and returns a Walker for it. A missing or unreadable
// root is an INVALID_PATH error.
func New(root string, opts Options) (*Walker, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", root)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "recipe tree %s", root)
	}
	if !fi.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidPath, "recipe tree %s is not a directory", root)
	}
	if _, err := os.ReadDir(abs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read recipe tree %s", root)
	}

	if opts.Ignore == nil {
		opts.Ignore = DefaultIgnore
	}
	if opts.Match == nil {
		opts.Match = recipe.IsManifest
	}
	return &Walker{root: abs, opts: opts}, nil
}

// Root returns the absolute root path.
func (w *Walker) Root() string { return w.root }

// Paths returns the manifest paths in lexical order. The tree is walked
// when the sequence is ranged over, and again on every new range.
func (w *Walker) Paths() iter.Seq[string] {
	return func(yield func(string) bool) {
		paths, err := w.Walk(context.Background())
		if err != nil {
			return
		}
		for _, p := range paths {
			if !yield(p) {
				return
			}
		}
	}
}

// Walk collects every manifest path below the root, sorted lexically.
// Unreadable subdirectories are skipped.
func (w *Walker) Walk(ctx context.Context) ([]string, error) {
	s := &walkState{
		w:       w,
		visited: make(map[string]bool),
	}

	pending := []string{w.root}
	for len(pending) > 0 {
		var links []string
		for _, dir := range pending {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			real, err := filepath.EvalSymlinks(dir)
			if err != nil || s.seen(real) {
				continue
			}
			found, err := s.walk(ctx, dir, real)
			if err != nil {
				return nil, err
			}
			links = append(links, found...)
		}
		slices.Sort(links)
		pending = links
	}

	return dedupe(s.manifests), nil
}

// manifest is a discovered manifest path. linked is set when the path
// crosses a symbolic link, either a linked directory or the file itself.
type manifest struct {
	path   string
	linked bool
}

// dedupe keeps one path per real file: a direct path over a linked one,
// then the lexically first. The result is sorted.
func dedupe(found []manifest) []string {
	slices.SortFunc(found, func(a, b manifest) int {
		if a.linked != b.linked {
			if a.linked {
				return 1
			}
			return -1
		}
		return cmp.Compare(a.path, b.path)
	})
	seen := make(map[string]bool, len(found))
	out := make([]string, 0, len(found))
	for _, m := range found {
		real, err := filepath.EvalSymlinks(m.path)
		if err != nil {
			real = m.path
		}
		if seen[real] {
			continue
		}
		seen[real] = true
		out = append(out, m.path)
	}
	slices.Sort(out)
	return out
}

type walkState struct {
	w *Walker

	mu        sync.Mutex
	visited   map[string]bool
	manifests []manifest
	links     []string
}

func (s *walkState) seen(real string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visited[real]
}

// walk runs one fastwalk pass rooted at dir, whose resolved path is real.
// It returns the symbolic links to directories found along the way.
func (s *walkState) walk(ctx context.Context, dir, real string) ([]string, error) {
	s.links = nil
	viaLink := dir != s.w.root
	conf := fastwalk.Config{Follow: false, NumWorkers: s.w.opts.Workers}

	err := fastwalk.Walk(&conf, dir, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return fastwalk.SkipDir
		}
		if err != nil {
			if d != nil && d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		switch {
		case d.IsDir():
			return s.enterDir(dir, real, path, d.Name())
		case d.Type()&fs.ModeSymlink != 0:
			if s.ignored(path, d.Name()) {
				return nil
			}
			if fi, err := fastwalk.StatDirEntry(path, d); err == nil {
				if fi.IsDir() {
					s.addLink(path)
				} else if fi.Mode().IsRegular() && s.w.opts.Match(d.Name()) {
					s.addManifest(path, true)
				}
			}
		case d.Type().IsRegular():
			if s.w.opts.Match(d.Name()) {
				s.addManifest(path, viaLink)
			}
		}
		return nil
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err != nil && !stderrors.Is(err, fastwalk.ErrSkipFiles) {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "walk %s", dir)
	}
	return s.links, nil
}

func (s *walkState) enterDir(base, baseReal, path, name string) error {
	if path != base && s.ignored(path, name) {
		return fastwalk.SkipDir
	}
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return fastwalk.SkipDir
	}
	real := filepath.Join(baseReal, rel)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.visited[real] {
		return fastwalk.SkipDir
	}
	s.visited[real] = true
	return nil
}

func (s *walkState) ignored(path, name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	rel, _ := filepath.Rel(s.w.root, path)
	for _, pattern := range s.w.opts.Ignore {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, filepath.ToSlash(rel)); ok {
			return true
		}
	}
	return false
}

func (s *walkState) addManifest(path string, linked bool) {
	s.mu.Lock()
	s.manifests = append(s.manifests, manifest{path: path, linked: linked})
	s.mu.Unlock()
}

func (s *walkState) addLink(path string) {
	s.mu.Lock()
	s.links = append(s.links, path)
	s.mu.Unlock()
}
