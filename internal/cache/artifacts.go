package cache

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// CopyArtifacts copies generated outputs from source to cache
func CopyArtifacts(sourceDir, destDir string, outputs []string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	for _, output := range outputs {
		src := filepath.Join(sourceDir, output)
		dst := filepath.Join(destDir, output)

		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("failed to copy %s: %w", output, err)
		}
	}

	return nil
}

// RestoreArtifacts copies cached outputs back to the generated sources directory
func RestoreArtifacts(cacheDir, destDir string, outputs []string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, output := range outputs {
		src := filepath.Join(cacheDir, output)
		dst := filepath.Join(destDir, output)

		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("failed to restore %s: %w", output, err)
		}
	}

	return nil
}

// CollectOutputs walks a directory and returns every file in it, relative to dir
func CollectOutputs(dir string) ([]string, error) {
	return CollectOutputsSince(dir, time.Time{})
}

// CollectOutputsSince is CollectOutputs restricted to files modified at or
// after since. The bound is truncated to whole seconds for filesystems with
// coarse timestamps.
func CollectOutputsSince(dir string, since time.Time) ([]string, error) {
	var outputs []string
	since = since.Truncate(time.Second)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		if !since.IsZero() {
			info, err := d.Info()
			if err != nil {
				return err
			}

			if info.ModTime().Before(since) {
				return nil
			}
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		outputs = append(outputs, rel)
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // No outputs yet
		}

		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	return outputs, nil
}

// MissingOutputs returns the outputs of entry that no longer exist in dir
func MissingOutputs(entry *Entry, dir string) []string {
	var missing []string

	for _, output := range entry.Outputs {
		if _, err := os.Stat(filepath.Join(dir, output)); os.IsNotExist(err) {
			missing = append(missing, output)
		}
	}

	return missing
}

// copyFile copies a file from src to dst
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	// Create parent directory if needed
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return err
	}

	// Preserve file permissions
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}

	return os.Chmod(dst, srcInfo.Mode())
}
