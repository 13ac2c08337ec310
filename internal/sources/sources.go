// Package sources locates the compilation units handed to the annotation
// processing tool.
//
// Missing or empty source trees are common (a module without Java sources)
// and are reported as ErrSkipped rather than as failures.
package sources

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultInclude matches every Java source file
const DefaultInclude = "**/*.java"

// ErrSkipped marks a benign condition where there is nothing to process
var ErrSkipped = errors.New("processing skipped")

// DefaultExcludes are always excluded: VCS metadata and editor leftovers
var DefaultExcludes = []string{
	"**/*~",
	"**/#*#",
	"**/.#*",
	"**/%*%",
	"**/._*",
	"**/CVS/**",
	"**/.cvsignore",
	"**/.svn/**",
	"**/.git/**",
	"**/.gitignore",
	"**/.gitattributes",
	"**/.hg/**",
	"**/.DS_Store",
}

// Validate checks that dir exists, is a directory and can be read.
// Any violation is returned wrapped in ErrSkipped.
func Validate(dir string) error {
	if dir == "" {
		return fmt.Errorf("%w: source directory is not set", ErrSkipped)
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: source directory %s doesn't exist", ErrSkipped, dir)
		}

		return fmt.Errorf("%w: source directory %s cannot be read: %v", ErrSkipped, dir, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: source directory %s is not a directory", ErrSkipped, dir)
	}

	f, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("%w: source directory %s cannot be read: %v", ErrSkipped, dir, err)
	}
	defer f.Close()

	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: source directory %s cannot be read: %v", ErrSkipped, dir, err)
	}

	return nil
}

// Resolve validates dir and returns the files below it matching includes
// and not matching excludes. An empty result is reported as ErrSkipped.
func Resolve(dir string, includes, excludes []string) ([]string, error) {
	if err := Validate(dir); err != nil {
		return nil, err
	}

	files, err := Scan(dir, includes, excludes)
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no source files found in %s", ErrSkipped, dir)
	}

	return files, nil
}

// Scan walks dir and returns the absolute paths of matching files in
// lexical order. Patterns are relative to dir and use '/' as separator.
func Scan(dir string, includes, excludes []string) ([]string, error) {
	if len(splitPatterns(includes)) == 0 {
		includes = []string{DefaultInclude}
	}

	inc, err := NewMatcher(includes)
	if err != nil {
		return nil, fmt.Errorf("invalid include pattern: %w", err)
	}

	exc, err := NewMatcher(append(append([]string{}, excludes...), DefaultExcludes...))
	if err != nil {
		return nil, fmt.Errorf("invalid exclude pattern: %w", err)
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source directory: %w", err)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		rel = filepath.ToSlash(rel)
		if inc.Match(rel) && !exc.Match(rel) {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan source directory: %w", err)
	}

	return files, nil
}

// Matcher matches slash-separated relative paths against Ant-style patterns
type Matcher struct {
	globs []glob.Glob
}

// NewMatcher compiles patterns. Each entry may hold several comma-separated
// patterns. A "**/" segment also matches zero directories and a trailing
// "/" stands for "/**".
func NewMatcher(patterns []string) (*Matcher, error) {
	m := &Matcher{}

	for _, p := range splitPatterns(patterns) {
		p = filepath.ToSlash(p)
		if strings.HasSuffix(p, "/") {
			p += "**"
		}

		for _, variant := range expandDoubleStar(p) {
			g, err := glob.Compile(variant, '/')
			if err != nil {
				return nil, fmt.Errorf("%s: %w", p, err)
			}

			m.globs = append(m.globs, g)
		}
	}

	return m, nil
}

// Match reports whether path matches any pattern
func (m *Matcher) Match(path string) bool {
	for _, g := range m.globs {
		if g.Match(path) {
			return true
		}
	}

	return false
}

// splitPatterns splits entries on commas that are not inside braces and
// drops blanks
func splitPatterns(entries []string) []string {
	var out []string

	for _, entry := range entries {
		depth, start := 0, 0
		for i, r := range entry {
			switch r {
			case '{':
				depth++
			case '}':
				if depth > 0 {
					depth--
				}
			case ',':
				if depth == 0 {
					out = appendPattern(out, entry[start:i])
					start = i + 1
				}
			}
		}

		out = appendPattern(out, entry[start:])
	}

	return out
}

func appendPattern(out []string, p string) []string {
	if p = strings.TrimSpace(p); p != "" {
		out = append(out, p)
	}

	return out
}

// expandDoubleStar returns every variant of p where each "**/" segment is
// either kept or removed
func expandDoubleStar(p string) []string {
	idx := -1
	for i := 0; i+3 <= len(p); i++ {
		if p[i:i+3] == "**/" && (i == 0 || p[i-1] == '/') {
			idx = i
			break
		}
	}

	if idx < 0 {
		return []string{p}
	}

	head := p[:idx]
	var out []string
	for _, tail := range expandDoubleStar(p[idx+3:]) {
		out = append(out, head+"**/"+tail, head+tail)
	}

	return out
}
