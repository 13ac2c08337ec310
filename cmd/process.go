package cmd

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Norgate-AV/aptrun/internal/apt"
	"github.com/Norgate-AV/aptrun/internal/cache"
	"github.com/Norgate-AV/aptrun/internal/compiler"
	"github.com/Norgate-AV/aptrun/internal/config"
	"github.com/Norgate-AV/aptrun/internal/project"
)

type processKind struct {
	use   string
	short string
	long  string
	scope config.Scope
}

var (
	processMain = processKind{
		use:   "process [project-dir...]",
		short: "Run annotation processors on main sources",
		long: `Run annotation processing over src/main/java of each project directory
(default: the current directory) and write generated sources to
target/generated-sources/apt.`,
		scope: config.ScopeMain,
	}

	processTest = processKind{
		use:   "process-test [project-dir...]",
		short: "Run annotation processors on test sources",
		long: `Run annotation processing over src/test/java of each project directory
(default: the current directory) and write generated sources to
target/generated-test-sources/apt.`,
		scope: config.ScopeTest,
	}
)

// newToolchain creates the compiler tool-chain for a project
var newToolchain = func(javacPath string) compiler.Toolchain {
	return compiler.NewJavac(javacPath)
}

func newProcessCmd(kind processKind) *cobra.Command {
	cmd := &cobra.Command{
		Use:          kind.use,
		Short:        kind.short,
		Long:         kind.long,
		SilenceUsage: true,
		Args:         cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, args, kind.scope)
		},
	}

	f := cmd.Flags()
	f.String("packaging", "", "Project packaging; pom projects are skipped")
	f.String("javac", "", "Path to javac (default: javac on PATH)")
	f.String("source-dir", "", "Source directory (default: src/<scope>/java)")
	f.StringP("output-dir", "o", "", "Generated sources directory")
	f.String("class-output-dir", "", "Class output directory")
	f.StringSliceP("processor", "p", nil, "Annotation processor class names (default: service discovery)")
	f.String("compiler-args", "", "Extra javac arguments, whitespace separated")
	f.StringSlice("include", nil, "Include patterns, relative to the source directory")
	f.StringSlice("exclude", nil, "Exclude patterns, relative to the source directory")
	f.StringSlice("classpath", nil, "Extra classpath elements")
	f.StringSlice("sourcepath", nil, "Sourcepath elements (default: the source directory)")
	f.StringSliceP("define", "D", nil, "Property key=value passed to the compiler")
	f.Bool("add-source-root", config.DefaultAddOutputToSources, "Register the generated sources directory as a source root")
	f.Bool("fail-on-error", config.DefaultFailOnError, "Fail when annotation processing fails")
	f.Bool("output-diagnostics", config.DefaultOutputDiagnostics, "Log compiler diagnostics")
	f.Bool("incremental", config.DefaultIncremental, "Skip runs whose inputs are unchanged")
	f.String("cache-dir", "", "Cache directory (default: <project>/"+cache.DefaultCacheDir+")")
	f.IntP("jobs", "j", runtime.NumCPU(), "Number of projects processed at once")

	return cmd
}

type projectRun struct {
	cfg     *config.Config
	project *project.Project
	result  *apt.Result
}

func runProcess(cmd *cobra.Command, args []string, scope config.Scope) error {
	dirs := args
	if len(dirs) == 0 {
		dirs = []string{"."}
	}

	logger := loggerFor(cmd)

	jobs, _ := cmd.Flags().GetInt("jobs")
	if jobs < 1 {
		jobs = 1
	}

	caches := newCacheSet()
	defer caches.Close()

	runs := make([]*projectRun, len(dirs))

	g := new(errgroup.Group)
	g.SetLimit(jobs)

	for i, dir := range dirs {
		i, dir := i, dir
		g.Go(func() error {
			run, err := processProject(cmd, dir, scope, logger, caches)
			runs[i] = run
			return err
		})
	}

	err := g.Wait()

	out := cmd.OutOrStdout()
	for _, run := range runs {
		if run == nil || run.result == nil {
			continue
		}

		fmt.Fprintf(out, "%s [%s]: %s\n", run.cfg.ProjectDir, scope, run.result.State)

		roots := run.project.CompileSourceRoots()
		if scope == config.ScopeTest {
			roots = run.project.TestCompileSourceRoots()
		}

		for _, root := range roots {
			fmt.Fprintf(out, "  source root: %s\n", root)
		}
	}

	return err
}

func processProject(cmd *cobra.Command, dir string, scope config.Scope, logger *logrus.Logger, caches *cacheSet) (*projectRun, error) {
	cfg, err := config.NewLoader().LoadForProcess(cmd, dir, scope)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to load config: %w", dir, err)
	}

	log := logger
	if cfg.Verbose && !logger.IsLevelEnabled(logrus.DebugLevel) {
		log = setupLogger("debug", logger.Out)
	}

	opts := []apt.Option{
		apt.WithLogger(log),
		apt.WithInvoker(compiler.Default()),
		apt.WithToolchain(newToolchain(cfg.JavacPath)),
	}

	if cfg.Incremental {
		c, err := caches.Open(cacheDir(cfg))
		if err != nil {
			log.WithError(err).Warn("incremental processing disabled")
		} else {
			opts = append(opts, apt.WithCache(c))
		}
	}

	proj := project.New(cfg.ProjectDir, cfg.Packaging, cfg.Dependencies)
	res, err := apt.New(cfg, proj, opts...).Execute()

	run := &projectRun{cfg: cfg, project: proj, result: res}
	if err != nil {
		return run, fmt.Errorf("%s: %w", cfg.ProjectDir, err)
	}

	return run, nil
}

// cacheDir returns the cache directory for cfg
func cacheDir(cfg *config.Config) string {
	if cfg.CacheDir != "" {
		return cfg.CacheDir
	}

	return filepath.Join(cfg.ProjectDir, cache.DefaultCacheDir)
}

// cacheSet shares one open cache per directory between concurrent
// projects; BoltDB allows a single writer process per file.
type cacheSet struct {
	mu   sync.Mutex
	open map[string]*cache.Cache
}

func newCacheSet() *cacheSet {
	return &cacheSet{open: make(map[string]*cache.Cache)}
}

func (s *cacheSet) Open(dir string) (*cache.Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.open[dir]; ok {
		return c, nil
	}

	c, err := cache.New(dir)
	if err != nil {
		return nil, err
	}

	s.open[dir] = c
	return c, nil
}

func (s *cacheSet) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for dir, c := range s.open {
		_ = c.Close()
		delete(s.open, dir)
	}
}
