// Package apt runs annotation processing for one project scope.
//
// A run validates the source directory, collects the compilation units,
// assembles the javac options and hands one processing-only task to the
// shared compiler invoker. The generated sources directory is registered
// with the project so that later build phases compile it.
package apt

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Norgate-AV/aptrun/internal/cache"
	"github.com/Norgate-AV/aptrun/internal/compiler"
	"github.com/Norgate-AV/aptrun/internal/config"
	"github.com/Norgate-AV/aptrun/internal/project"
	"github.com/Norgate-AV/aptrun/internal/sources"
	"github.com/Norgate-AV/aptrun/internal/utils"
)

// Dependency scopes visible to main sources
var mainScopes = []string{project.ScopeCompile, project.ScopeProvided, project.ScopeSystem}

// Result describes a finished run
type Result struct {
	State State

	// Number of compilation units handed to the compiler
	Units int

	GeneratedDir string

	// Why the run was skipped
	Reason string

	// Outputs restored from the cache, relative to GeneratedDir
	Restored []string

	// Failure that was logged instead of failing the build
	Err error
}

// Orchestrator runs annotation processing for a project
type Orchestrator struct {
	cfg       *config.Config
	project   *project.Project
	log       logrus.FieldLogger
	invoker   *compiler.Invoker
	toolchain compiler.Toolchain
	cache     *cache.Cache
	builder   *compiler.CommandBuilder
	state     State
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithLogger sets the logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// WithInvoker sets the invoker tasks are submitted to
func WithInvoker(inv *compiler.Invoker) Option {
	return func(o *Orchestrator) { o.invoker = inv }
}

// WithToolchain sets the compiler tool-chain
func WithToolchain(tc compiler.Toolchain) Option {
	return func(o *Orchestrator) { o.toolchain = tc }
}

// WithCache enables incremental runs backed by c
func WithCache(c *cache.Cache) Option {
	return func(o *Orchestrator) { o.cache = c }
}

// New creates an orchestrator for cfg. When proj is nil a project is
// built from the configuration.
func New(cfg *config.Config, proj *project.Project, opts ...Option) *Orchestrator {
	if proj == nil {
		proj = project.New(cfg.ProjectDir, cfg.Packaging, cfg.Dependencies)
	}

	o := &Orchestrator{
		cfg:     cfg,
		project: proj,
		state:   StateNotStarted,
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.log == nil {
		o.log = logrus.StandardLogger()
	}
	o.log = o.log.WithFields(logrus.Fields{
		"project": cfg.ProjectDir,
		"scope":   string(cfg.Scope),
	})

	if o.invoker == nil {
		o.invoker = compiler.Default()
	}

	if o.toolchain == nil {
		o.toolchain = compiler.NewJavac(cfg.JavacPath)
	}

	o.builder = compiler.NewCommandBuilder(o.log)

	return o
}

// State returns the current state of the run
func (o *Orchestrator) State() State {
	return o.state
}

// Project returns the project source roots are registered on
func (o *Orchestrator) Project() *project.Project {
	return o.project
}

// Execute runs annotation processing. Skips are not failures. Any other
// failure is returned as a *BuildError when FailOnError is set, and is
// otherwise logged and reported in the Result.
func (o *Orchestrator) Execute() (*Result, error) {
	if !o.project.HasCode() {
		o.log.Warnf("packaging is %s, nothing to process", o.project.Packaging)
		o.state = StateSkipped
		return &Result{State: StateSkipped, Reason: "no code"}, nil
	}

	res, err := o.run()
	if err == nil {
		return res, nil
	}

	if errors.Is(err, sources.ErrSkipped) {
		o.log.Warn(err.Error())
		o.state = StateSkipped
		return &Result{State: StateSkipped, Reason: err.Error(), GeneratedDir: o.cfg.GeneratedDir()}, nil
	}

	o.state = StateFailed
	res = &Result{State: StateFailed, GeneratedDir: o.cfg.GeneratedDir(), Err: err}
	if o.cfg.FailOnError {
		return res, &BuildError{Err: err}
	}

	o.log.WithError(err).Error("annotation processing failed")
	return res, nil
}

func (o *Orchestrator) run() (*Result, error) {
	o.state = StatePreparing
	generatedDir, err := o.Prepare()
	if err != nil {
		return nil, err
	}

	o.state = StateResolvingInputs
	units, err := o.ResolveInputs()
	if err != nil {
		return nil, err
	}

	o.state = StateBuildingOptions
	options := o.BuildOptions(units)

	res := &Result{Units: len(units), GeneratedDir: generatedDir}

	var hash string
	if o.cache != nil {
		hash, err = cache.HashInputs(cache.Inputs{
			Scope:      string(o.cfg.Scope),
			Units:      units,
			Options:    options,
			Properties: o.cfg.SystemProperties,
			Classpath:  o.classpath().Elements(),
		})
		if err != nil {
			o.log.WithError(err).Warn("failed to hash inputs, cache disabled for this run")
		} else if restored, ok := o.checkCache(hash, generatedDir); ok {
			o.state = StateSkipped
			res.State = StateSkipped
			res.Reason = "up to date"
			res.Restored = restored
			return res, nil
		}
	}

	o.state = StateInvoking
	started := time.Now()
	if err := o.Invoke(options, units); err != nil {
		return nil, err
	}

	if o.cache != nil && hash != "" {
		entry := cache.Entry{
			Scope:     string(o.cfg.Scope),
			SourceDir: o.cfg.SourceDir,
			Units:     len(units),
			Options:   options,
			Started:   started,
			Success:   true,
		}
		if _, err := o.cache.Store(hash, entry, generatedDir); err != nil {
			o.log.WithError(err).Warn("failed to store cache entry")
		}
	}

	o.state = StateSucceeded
	res.State = StateSucceeded
	return res, nil
}

// checkCache restores the outputs of a previous successful run with the
// same inputs. It reports false when the compiler has to run.
func (o *Orchestrator) checkCache(hash, generatedDir string) ([]string, bool) {
	entry, err := o.cache.Get(hash)
	if err != nil {
		o.log.WithError(err).Warn("failed to read cache entry")
		return nil, false
	}

	if entry == nil || !entry.Success {
		return nil, false
	}

	restored, err := o.cache.Restore(entry, generatedDir)
	if err != nil {
		o.log.WithError(err).Warn("failed to restore cached outputs")
		return nil, false
	}

	for _, f := range restored {
		o.log.Debugf("restored %s", f)
	}

	o.log.Infof("annotation processing is up to date (%d units)", entry.Units)
	return restored, true
}

// Prepare creates the output directories and registers the generated
// sources directory with the project. It returns the generated sources
// directory.
func (o *Orchestrator) Prepare() (string, error) {
	generatedDir := o.cfg.GeneratedDir()
	if err := os.MkdirAll(generatedDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create generated sources directory: %w", err)
	}

	if o.cfg.ClassOutputDir != "" {
		if err := os.MkdirAll(o.cfg.ClassOutputDir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create class output directory: %w", err)
		}
	}

	if o.cfg.AddOutputToSources {
		if o.cfg.Scope == config.ScopeTest {
			o.project.AddTestCompileSourceRoot(generatedDir)
		} else {
			o.project.AddCompileSourceRoot(generatedDir)
		}

		o.log.Infof("source directory: %s added", generatedDir)
	}

	return generatedDir, nil
}

// ResolveInputs returns the compilation units. A source directory that
// cannot be used or holds no matching files yields an error wrapping
// sources.ErrSkipped.
func (o *Orchestrator) ResolveInputs() ([]string, error) {
	return sources.Resolve(o.cfg.SourceDir, o.cfg.Includes, o.cfg.Excludes)
}

// BuildOptions assembles the javac options for units
func (o *Orchestrator) BuildOptions(units []string) []string {
	classpath := o.classpath()
	for _, e := range classpath.Elements() {
		o.log.Debugf("classpath element: %s", e)
	}

	sourcepath := o.cfg.Sourcepath
	if len(sourcepath) == 0 {
		sourcepath = []string{o.cfg.SourceDir}
	}

	o.log.Debugf("building options for %d compilation units", len(units))

	return o.builder.BuildOptions(compiler.Options{
		Classpath:          classpath,
		Sourcepath:         sourcepath,
		CompilerArguments:  o.cfg.CompilerArgs,
		Processors:         o.cfg.Processors,
		ClassOutputDir:     o.cfg.ClassOutputDir,
		GeneratedSourceDir: o.cfg.GeneratedDir(),
	})
}

// classpath returns the classpath of the configured scope
func (o *Orchestrator) classpath() *compiler.PathSet {
	classpath := compiler.NewPathSet()
	if o.cfg.Scope == config.ScopeTest {
		classpath.Add(filepath.Join(o.cfg.ProjectDir, config.ScopeMain.DefaultClassOutputDir()))
		classpath.Add(o.project.ArtifactPaths()...)
	} else {
		classpath.Add(o.project.ArtifactPaths(mainScopes...)...)
	}
	classpath.Add(o.cfg.Classpath...)

	return classpath
}

// Invoke submits one processing-only task and waits for it
func (o *Orchestrator) Invoke(options, units []string) error {
	sink := compiler.DiscardSink()
	if o.cfg.OutputDiagnostics {
		sink = compiler.LogSink(o.log)
	}

	if len(o.cfg.SystemProperties) > 0 {
		o.log.Infof("system properties: %v", utils.SortedKeys(o.cfg.SystemProperties))
	}

	ok, err := o.invoker.Invoke(o.toolchain, compiler.Task{
		Options:    options,
		Units:      units,
		Properties: o.cfg.SystemProperties,
		Sink:       sink,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProcessingFailed, err)
	}

	if !ok {
		return ErrProcessingFailed
	}

	return nil
}
