// Package cache records annotation processing runs so that an unchanged
// run can be skipped.
//
// Generated sources live in a directory that other build phases read from
// and may clean. The cache therefore keeps, per run:
//
//  1. A SHA256 key over the compilation units, javac options and properties
//  2. Metadata (scope, options, generated outputs) in BoltDB
//  3. A copy of the generated files, so a cleaned output directory can be
//     restored without invoking the compiler again
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	// DefaultCacheDir is the default cache directory name
	DefaultCacheDir = ".aptrun-cache"

	// bucketName is the BoltDB bucket name for cache entries
	bucketName = "runs"
)

// Cache manages processing run metadata and generated artifacts using BoltDB
type Cache struct {
	db   *bbolt.DB
	root string // Root directory for cache (.aptrun-cache/)
}

// New creates a new cache instance
// If cacheDir is empty, uses DefaultCacheDir in current working directory
func New(cacheDir string) (*Cache, error) {
	if cacheDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}

		cacheDir = filepath.Join(cwd, DefaultCacheDir)
	}

	// Ensure cache directory exists
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	// Open BoltDB
	dbPath := filepath.Join(cacheDir, "cache.db")
	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// Create bucket if it doesn't exist
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %w", err)
	}

	return &Cache{
		db:   db,
		root: cacheDir,
	}, nil
}

// Close closes the cache database
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}

	return nil
}

// Root returns the cache directory
func (c *Cache) Root() string {
	return c.root
}

// Get retrieves a cache entry by hash
// Returns nil if cache miss
func (c *Cache) Get(hash string) (*Entry, error) {
	var entry Entry
	err := c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))

		data := b.Get([]byte(hash))
		if data == nil {
			return nil // Cache miss
		}

		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return nil, err
	}

	if entry.Hash == "" {
		return nil, nil // Cache miss
	}

	return &entry, nil
}

// Store saves a cache entry for hash. The generated files in generatedDir
// are recorded as the run's outputs and, for a successful run, copied into
// the cache. With entry.Started set, files left over from earlier runs are
// not recorded.
func (c *Cache) Store(hash string, entry Entry, generatedDir string) (*Entry, error) {
	outputs, err := CollectOutputsSince(generatedDir, entry.Started)
	if err != nil {
		return nil, fmt.Errorf("failed to collect outputs: %w", err)
	}

	entry.Hash = hash
	entry.Outputs = outputs
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	// Copy artifacts first so an entry never points at a partial snapshot
	if entry.Success && len(outputs) > 0 {
		if err := CopyArtifacts(generatedDir, c.artifactDir(hash), outputs); err != nil {
			return nil, fmt.Errorf("failed to copy artifacts: %w", err)
		}
	}

	// Store metadata in BoltDB
	err = c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))

		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}

		return b.Put([]byte(hash), data)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store cache entry: %w", err)
	}

	return &entry, nil
}

// Restore copies the cached outputs of entry that are missing from
// generatedDir back into it, and returns what was restored
func (c *Cache) Restore(entry *Entry, generatedDir string) ([]string, error) {
	if !entry.Success {
		return nil, fmt.Errorf("cannot restore failed run")
	}

	missing := MissingOutputs(entry, generatedDir)
	if len(missing) == 0 {
		return nil, nil
	}

	if err := RestoreArtifacts(c.artifactDir(entry.Hash), generatedDir, missing); err != nil {
		return nil, err
	}

	return missing, nil
}

// Clear drops every recorded run and the artifact snapshots
func (c *Cache) Clear() error {
	err := c.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketName)); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}

		_, err := tx.CreateBucket([]byte(bucketName))
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to clear cache database: %w", err)
	}

	if err := os.RemoveAll(filepath.Join(c.root, "artifacts")); err != nil {
		return fmt.Errorf("failed to remove artifacts: %w", err)
	}

	return nil
}

// Stats returns the number of recorded runs and the size in bytes of the
// artifact snapshots
func (c *Cache) Stats() (int, int64, error) {
	var runs int
	err := c.db.View(func(tx *bbolt.Tx) error {
		runs = tx.Bucket([]byte(bucketName)).Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	var size int64
	_ = filepath.WalkDir(filepath.Join(c.root, "artifacts"), func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}

		if info, err := d.Info(); err == nil {
			size += info.Size()
		}

		return nil
	})

	return runs, size, nil
}

// artifactDir returns the directory path for a given cache hash
func (c *Cache) artifactDir(hash string) string {
	return filepath.Join(c.root, "artifacts", hash)
}
