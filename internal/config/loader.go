package config

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// flagKeys maps config keys to the command flags that override them
var flagKeys = map[string]string{
	"packaging":             "packaging",
	"javac_path":            "javac",
	"source_dir":            "source-dir",
	"output_dir":            "output-dir",
	"class_output_dir":      "class-output-dir",
	"processors":            "processor",
	"compiler_args":         "compiler-args",
	"includes":              "include",
	"excludes":              "exclude",
	"classpath":             "classpath",
	"sourcepath":            "sourcepath",
	"system_properties":     "define",
	"add_output_to_sources": "add-source-root",
	"fail_on_error":         "fail-on-error",
	"output_diagnostics":    "output-diagnostics",
	"incremental":           "incremental",
	"cache_dir":             "cache-dir",
	"verbose":               "verbose",
}

// Loader handles configuration loading from various sources. Each Loader
// owns its own viper instance so projects can be loaded side by side.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// Viper exposes the underlying viper instance
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// LoadForProcess loads configuration for processing projectDir in scope.
// Precedence: flags > local .aptrun file > global config > defaults.
func (l *Loader) LoadForProcess(cmd *cobra.Command, projectDir string, scope Scope) (*Config, error) {
	l.setupViperDefaults()
	l.loadGlobalConfig()
	l.loadLocalConfig(projectDir)
	l.bindCommandFlags(cmd)

	return Load(l.v, projectDir, scope)
}

// setupViperDefaults sets up default values for viper
func (l *Loader) setupViperDefaults() {
	l.v.SetDefault("packaging", DefaultPackaging)
	l.v.SetDefault("add_output_to_sources", DefaultAddOutputToSources)
	l.v.SetDefault("fail_on_error", DefaultFailOnError)
	l.v.SetDefault("output_diagnostics", DefaultOutputDiagnostics)
	l.v.SetDefault("incremental", DefaultIncremental)
	l.v.SetDefault("verbose", DefaultVerbose)
}

// loadGlobalConfig loads the user-wide configuration
func (l *Loader) loadGlobalConfig() {
	globalDir := GlobalConfigDir()
	if globalDir == "" {
		return
	}

	for _, ext := range ConfigExtensions {
		globalPath := filepath.Join(globalDir, "config."+ext)

		l.v.SetConfigFile(globalPath)
		if err := l.v.MergeInConfig(); err == nil {
			break
		}
	}
}

// loadLocalConfig loads local configuration from the project directory or
// one of its parents
func (l *Loader) loadLocalConfig(projectDir string) {
	absDir, err := filepath.Abs(projectDir)
	if err != nil {
		return // silently ignore, config.Load() will handle validation
	}

	localPath := FindLocalConfig(absDir)
	if localPath != "" {
		l.v.SetConfigFile(localPath)
		_ = l.v.MergeInConfig()
	}
}

// bindCommandFlags binds command flags to viper
func (l *Loader) bindCommandFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	for key, name := range flagKeys {
		if flag := cmd.Flags().Lookup(name); flag != nil {
			_ = l.v.BindPFlag(key, flag)
		}
	}
}
