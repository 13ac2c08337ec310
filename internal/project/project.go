// Package project models the parts of the host build project that
// annotation processing reads from or writes to.
package project

import (
	"path/filepath"
	"strings"
	"sync"
)

// Dependency scopes, as understood by the host build
const (
	ScopeCompile  = "compile"
	ScopeProvided = "provided"
	ScopeSystem   = "system"
	ScopeRuntime  = "runtime"
	ScopeTest     = "test"
)

// PackagingPom marks an aggregator project with no code of its own
const PackagingPom = "pom"

// Artifact is a resolved dependency of the project
type Artifact struct {
	Path  string `mapstructure:"path" json:"path"`
	Scope string `mapstructure:"scope" json:"scope"`
}

// Project is the host project descriptor. Source roots may be added
// concurrently.
type Project struct {
	Dir       string
	Packaging string
	Artifacts []Artifact

	mu              sync.Mutex
	compileRoots    []string
	testCompileRoot []string
}

// New creates a project rooted at dir
func New(dir, packaging string, artifacts []Artifact) *Project {
	return &Project{
		Dir:       dir,
		Packaging: packaging,
		Artifacts: artifacts,
	}
}

// HasCode reports whether the packaging kind can contain compilable sources
func (p *Project) HasCode() bool {
	return !strings.EqualFold(p.Packaging, PackagingPom)
}

// ArtifactPaths returns the absolute paths of artifacts in any of the given
// scopes, or of all artifacts when no scope is given. An artifact without a
// scope counts as compile scope.
func (p *Project) ArtifactPaths(scopes ...string) []string {
	paths := make([]string, 0, len(p.Artifacts))

	for _, a := range p.Artifacts {
		if a.Path == "" {
			continue
		}

		if len(scopes) > 0 && !hasScope(a, scopes) {
			continue
		}

		path := a.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(p.Dir, path)
		}

		paths = append(paths, path)
	}

	return paths
}

func hasScope(a Artifact, scopes []string) bool {
	scope := a.Scope
	if scope == "" {
		scope = ScopeCompile
	}

	for _, s := range scopes {
		if strings.EqualFold(s, scope) {
			return true
		}
	}

	return false
}

// AddCompileSourceRoot registers dir as a main source root. Duplicates are ignored.
func (p *Project) AddCompileSourceRoot(dir string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.compileRoots = appendUnique(p.compileRoots, dir)
}

// AddTestCompileSourceRoot registers dir as a test source root. Duplicates are ignored.
func (p *Project) AddTestCompileSourceRoot(dir string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.testCompileRoot = appendUnique(p.testCompileRoot, dir)
}

// CompileSourceRoots returns a copy of the main source roots
func (p *Project) CompileSourceRoots() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.compileRoots...)
}

// TestCompileSourceRoots returns a copy of the test source roots
func (p *Project) TestCompileSourceRoots() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.testCompileRoot...)
}

func appendUnique(roots []string, dir string) []string {
	dir = filepath.Clean(dir)
	for _, r := range roots {
		if r == dir {
			return roots
		}
	}

	return append(roots, dir)
}
