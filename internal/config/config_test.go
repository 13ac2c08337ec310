package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Norgate-AV/aptrun/internal/project"
)

func TestLoad(t *testing.T) {
	projectDir := t.TempDir()

	tests := []struct {
		name        string
		scope       Scope
		setupViper  func(v *viper.Viper)
		check       func(t *testing.T, cfg *Config)
		wantErr     bool
		errContains string
	}{
		{
			name:  "main scope defaults",
			scope: ScopeMain,
			setupViper: func(v *viper.Viper) {
				v.SetDefault("fail_on_error", DefaultFailOnError)
				v.SetDefault("output_diagnostics", DefaultOutputDiagnostics)
				v.SetDefault("add_output_to_sources", DefaultAddOutputToSources)
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultPackaging, cfg.Packaging)
				assert.Equal(t, filepath.Join(projectDir, "src", "main", "java"), cfg.SourceDir)
				assert.Equal(t, filepath.Join(projectDir, "target", "classes"), cfg.ClassOutputDir)
				assert.Empty(t, cfg.OutputDir)
				assert.Equal(t, filepath.Join(projectDir, "target", "generated-sources", "apt"), cfg.GeneratedDir())
				assert.True(t, cfg.FailOnError)
				assert.True(t, cfg.OutputDiagnostics)
				assert.True(t, cfg.AddOutputToSources)
				assert.False(t, cfg.Incremental)
				assert.Empty(t, cfg.Processors)
				assert.Empty(t, cfg.SystemProperties)
			},
		},
		{
			name:       "test scope defaults",
			scope:      ScopeTest,
			setupViper: func(v *viper.Viper) {},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, filepath.Join(projectDir, "src", "test", "java"), cfg.SourceDir)
				assert.Equal(t, filepath.Join(projectDir, "target", "test-classes"), cfg.ClassOutputDir)
				assert.Equal(t, filepath.Join(projectDir, "target", "generated-test-sources", "apt"), cfg.GeneratedDir())
			},
		},
		{
			name:  "custom values",
			scope: ScopeMain,
			setupViper: func(v *viper.Viper) {
				v.Set("packaging", "war")
				v.Set("source_dir", "java")
				v.Set("output_dir", "/abs/gen")
				v.Set("processors", []string{"com.example.A", " ", "com.example.B"})
				v.Set("compiler_args", "-Xlint:all")
				v.Set("classpath", []string{"lib/x.jar", "/abs/y.jar"})
				v.Set("system_properties", []string{"my.Prop=1", "other=a=b"})
				v.Set("dependencies", []map[string]interface{}{
					{"path": "libs/dep.jar", "scope": "compile"},
					{"path": "/abs/junit.jar", "scope": "test"},
				})
				v.Set("fail_on_error", false)
				v.Set("incremental", true)
				v.Set("cache_dir", ".cache")
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "war", cfg.Packaging)
				assert.Equal(t, filepath.Join(projectDir, "java"), cfg.SourceDir)
				assert.Equal(t, "/abs/gen", cfg.GeneratedDir())
				assert.Equal(t, []string{"com.example.A", "com.example.B"}, cfg.Processors)
				assert.Equal(t, "-Xlint:all", cfg.CompilerArgs)
				assert.Equal(t, []string{filepath.Join(projectDir, "lib", "x.jar"), "/abs/y.jar"}, cfg.Classpath)
				assert.Equal(t, map[string]string{"my.Prop": "1", "other": "a=b"}, cfg.SystemProperties)
				assert.Equal(t, []project.Artifact{
					{Path: filepath.Join(projectDir, "libs", "dep.jar"), Scope: "compile"},
					{Path: "/abs/junit.jar", Scope: "test"},
				}, cfg.Dependencies)
				assert.False(t, cfg.FailOnError)
				assert.True(t, cfg.Incremental)
				assert.Equal(t, filepath.Join(projectDir, ".cache"), cfg.CacheDir)
			},
		},
		{
			name:  "javac on PATH stays bare",
			scope: ScopeMain,
			setupViper: func(v *viper.Viper) {
				v.Set("javac_path", "javac")
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "javac", cfg.JavacPath)
			},
		},
		{
			name:  "relative javac path is resolved",
			scope: ScopeMain,
			setupViper: func(v *viper.Viper) {
				v.Set("javac_path", "jdk/bin/javac")
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, filepath.Join(projectDir, "jdk", "bin", "javac"), cfg.JavacPath)
			},
		},
		{
			name:  "invalid property",
			scope: ScopeMain,
			setupViper: func(v *viper.Viper) {
				v.Set("system_properties", []string{"broken"})
			},
			wantErr:     true,
			errContains: "invalid property",
		},
		{
			name:        "invalid scope",
			scope:       Scope("integration"),
			setupViper:  func(v *viper.Viper) {},
			wantErr:     true,
			errContains: "invalid scope",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			tt.setupViper(v)

			cfg, err := Load(v, projectDir, tt.scope)

			if tt.wantErr {
				require.Error(t, err)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, projectDir, cfg.ProjectDir)
			assert.Equal(t, tt.scope, cfg.Scope)
			tt.check(t, cfg)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Run("relative paths are resolved against the project", func(t *testing.T) {
		dir := t.TempDir()
		cfg := &Config{
			ProjectDir:     dir,
			Scope:          ScopeMain,
			SourceDir:      "src",
			OutputDir:      "gen",
			ClassOutputDir: "classes",
			Sourcepath:     []string{"src", "/abs/other"},
		}

		require.NoError(t, cfg.Validate())
		assert.Equal(t, filepath.Join(dir, "src"), cfg.SourceDir)
		assert.Equal(t, filepath.Join(dir, "gen"), cfg.OutputDir)
		assert.Equal(t, filepath.Join(dir, "classes"), cfg.ClassOutputDir)
		assert.Equal(t, []string{filepath.Join(dir, "src"), "/abs/other"}, cfg.Sourcepath)
	})

	t.Run("relative project dir becomes absolute", func(t *testing.T) {
		cfg := &Config{ProjectDir: ".", Scope: ScopeTest}
		require.NoError(t, cfg.Validate())
		assert.True(t, filepath.IsAbs(cfg.ProjectDir))
	})

	t.Run("empty scope is rejected", func(t *testing.T) {
		cfg := &Config{ProjectDir: t.TempDir()}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid scope")
	})
}

func TestParseScope(t *testing.T) {
	tests := []struct {
		input   string
		want    Scope
		wantErr bool
	}{
		{"main", ScopeMain, false},
		{"TEST", ScopeTest, false},
		{" test ", ScopeTest, false},
		{"", "", true},
		{"it", "", true},
	}

	for _, tt := range tests {
		got, err := ParseScope(tt.input)
		if tt.wantErr {
			assert.Error(t, err, "ParseScope(%q)", tt.input)
			continue
		}

		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
