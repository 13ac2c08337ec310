package config

import (
	"os"
	"path/filepath"
)

// ConfigExtensions are the config file formats understood by viper, in lookup order
var ConfigExtensions = []string{"yml", "yaml", "json", "toml"}

// FindLocalConfig finds local config file by walking up directories
func FindLocalConfig(dir string) string {
	for {
		for _, ext := range ConfigExtensions {
			path := filepath.Join(dir, ".aptrun."+ext)

			if _, err := os.Stat(path); err == nil {
				return path
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}

		dir = parent
	}

	return ""
}

// GlobalConfigDir returns the directory holding the user-wide config file.
// APTRUN_CONFIG_HOME overrides the platform user config directory.
func GlobalConfigDir() string {
	if dir := os.Getenv("APTRUN_CONFIG_HOME"); dir != "" {
		return dir
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}

	return filepath.Join(base, "aptrun")
}
