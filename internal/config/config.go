package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Norgate-AV/aptrun/internal/project"
	"github.com/Norgate-AV/aptrun/internal/utils"
)

// Default configuration values
const (
	DefaultPackaging          = "jar"
	DefaultFailOnError        = true
	DefaultOutputDiagnostics  = true
	DefaultAddOutputToSources = true
	DefaultIncremental        = false
	DefaultVerbose            = false
)

// Scope selects which half of the project is processed
type Scope string

const (
	ScopeMain Scope = "main"
	ScopeTest Scope = "test"
)

type scopeLayout struct {
	sourceDir      string
	classOutputDir string
	generatedDir   string
}

var layouts = map[Scope]scopeLayout{
	ScopeMain: {
		sourceDir:      filepath.Join("src", "main", "java"),
		classOutputDir: filepath.Join("target", "classes"),
		generatedDir:   filepath.Join("target", "generated-sources", "apt"),
	},
	ScopeTest: {
		sourceDir:      filepath.Join("src", "test", "java"),
		classOutputDir: filepath.Join("target", "test-classes"),
		generatedDir:   filepath.Join("target", "generated-test-sources", "apt"),
	},
}

// ParseScope parses a scope name
func ParseScope(s string) (Scope, error) {
	scope := Scope(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := layouts[scope]; !ok {
		return "", fmt.Errorf("invalid scope: %q", s)
	}

	return scope, nil
}

// DefaultSourceDir is the source directory, relative to the project
func (s Scope) DefaultSourceDir() string { return layouts[s].sourceDir }

// DefaultClassOutputDir is the class output directory, relative to the project
func (s Scope) DefaultClassOutputDir() string { return layouts[s].classOutputDir }

// DefaultGeneratedDir is the generated sources directory, relative to the project
func (s Scope) DefaultGeneratedDir() string { return layouts[s].generatedDir }

// Holds the configuration of one processing run
type Config struct {
	// Root directory of the project; relative paths resolve against it
	ProjectDir string

	// Which sources are processed
	Scope Scope

	// Project packaging kind; "pom" has no code
	Packaging string

	// Resolved dependency artifacts of the project
	Dependencies []project.Artifact

	// Path to javac; looked up on PATH when empty
	JavacPath string

	// Directory scanned for compilation units
	SourceDir string

	// Directory for generated sources (-s); empty means the scope default
	OutputDir string

	// Directory for class files (-d)
	ClassOutputDir string

	// Processor class names; empty uses javac service discovery
	Processors []string

	// Extra javac arguments, whitespace separated
	CompilerArgs string

	// Include and exclude patterns, relative to SourceDir
	Includes []string
	Excludes []string

	// Extra classpath elements, appended after the dependencies
	Classpath []string

	// Sourcepath elements, used as given
	Sourcepath []string

	// Properties passed to the compiler process
	SystemProperties map[string]string

	// Register the generated sources directory as a source root
	AddOutputToSources bool

	// Fail the build when processing fails
	FailOnError bool

	// Log compiler diagnostics
	OutputDiagnostics bool

	// Skip unchanged runs using the cache
	Incremental bool
	CacheDir    string

	// Enable verbose output
	Verbose bool
}

// Load builds a Config for projectDir and scope from v
func Load(v *viper.Viper, projectDir string, scope Scope) (*Config, error) {
	cfg := &Config{
		ProjectDir:         projectDir,
		Scope:              scope,
		Packaging:          v.GetString("packaging"),
		JavacPath:          v.GetString("javac_path"),
		SourceDir:          v.GetString("source_dir"),
		OutputDir:          v.GetString("output_dir"),
		ClassOutputDir:     v.GetString("class_output_dir"),
		Processors:         v.GetStringSlice("processors"),
		CompilerArgs:       v.GetString("compiler_args"),
		Includes:           v.GetStringSlice("includes"),
		Excludes:           v.GetStringSlice("excludes"),
		Classpath:          v.GetStringSlice("classpath"),
		Sourcepath:         v.GetStringSlice("sourcepath"),
		AddOutputToSources: v.GetBool("add_output_to_sources"),
		FailOnError:        v.GetBool("fail_on_error"),
		OutputDiagnostics:  v.GetBool("output_diagnostics"),
		Incremental:        v.GetBool("incremental"),
		CacheDir:           v.GetString("cache_dir"),
		Verbose:            v.GetBool("verbose"),
	}

	if err := v.UnmarshalKey("dependencies", &cfg.Dependencies); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}

	props, err := utils.ParseProperties(v.GetStringSlice("system_properties"))
	if err != nil {
		return nil, err
	}
	cfg.SystemProperties = props

	// Apply defaults if not set
	if cfg.Packaging == "" {
		cfg.Packaging = DefaultPackaging
	}

	if cfg.SourceDir == "" {
		cfg.SourceDir = scope.DefaultSourceDir()
	}

	if cfg.ClassOutputDir == "" {
		cfg.ClassOutputDir = scope.DefaultClassOutputDir()
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the scope and resolves every path against ProjectDir
func (c *Config) Validate() error {
	if _, ok := layouts[c.Scope]; !ok {
		return fmt.Errorf("invalid scope: %q", c.Scope)
	}

	abs, err := filepath.Abs(c.ProjectDir)
	if err != nil {
		return fmt.Errorf("invalid project directory: %v", err)
	}
	c.ProjectDir = abs

	c.SourceDir = c.resolve(c.SourceDir)
	c.OutputDir = c.resolve(c.OutputDir)
	c.ClassOutputDir = c.resolve(c.ClassOutputDir)
	c.CacheDir = c.resolve(c.CacheDir)

	// javac on PATH stays a bare name
	if strings.ContainsAny(c.JavacPath, `/\`) {
		c.JavacPath = c.resolve(c.JavacPath)
	}

	for i, p := range c.Classpath {
		c.Classpath[i] = c.resolve(p)
	}

	for i, p := range c.Sourcepath {
		c.Sourcepath[i] = c.resolve(p)
	}

	for i, a := range c.Dependencies {
		c.Dependencies[i].Path = c.resolve(a.Path)
	}

	processors := make([]string, 0, len(c.Processors))
	for _, p := range c.Processors {
		if p = strings.TrimSpace(p); p != "" {
			processors = append(processors, p)
		}
	}
	c.Processors = processors

	return nil
}

// GeneratedDir returns OutputDir, or the scope default when it is unset
func (c *Config) GeneratedDir() string {
	if c.OutputDir != "" {
		return c.OutputDir
	}

	return filepath.Join(c.ProjectDir, c.Scope.DefaultGeneratedDir())
}

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}

	return filepath.Join(c.ProjectDir, p)
}
