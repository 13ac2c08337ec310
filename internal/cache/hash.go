package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Inputs are the values that decide whether a processing run is up to date
type Inputs struct {
	Scope      string
	Units      []string
	Options    []string
	Properties map[string]string

	// Classpath elements; jar contents and class trees are part of the key
	Classpath []string
}

// HashInputs creates a unique hash for a processing run
// The hash is based on:
// - Scope
// - Each compilation unit's path and content (sorted by path)
// - The javac option list, in order
// - Properties (sorted by key)
// - Each classpath element's content, in classpath order
func HashInputs(in Inputs) (string, error) {
	h := sha256.New()

	h.Write([]byte(in.Scope))
	h.Write([]byte{0})

	units := make([]string, len(in.Units))
	copy(units, in.Units)
	sort.Strings(units)

	for _, unit := range units {
		sum, err := HashFile(unit)
		if err != nil {
			return "", fmt.Errorf("failed to hash source file %s: %w", unit, err)
		}

		h.Write([]byte(unit))
		h.Write([]byte{0})
		h.Write([]byte(sum))
		h.Write([]byte{0})
	}

	h.Write([]byte(strings.Join(in.Options, "\x00")))
	h.Write([]byte{0})

	keys := make([]string, 0, len(in.Properties))
	for k := range in.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		h.Write([]byte(k + "=" + in.Properties[k]))
		h.Write([]byte{0})
	}

	for _, element := range in.Classpath {
		sum, err := hashClasspathElement(element)
		if err != nil {
			return "", fmt.Errorf("failed to hash classpath element %s: %w", element, err)
		}

		h.Write([]byte(element))
		h.Write([]byte{0})
		h.Write([]byte(sum))
		h.Write([]byte{0})
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashFile creates a hash of a file's content
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// hashClasspathElement hashes a jar by content and a directory by the
// path, size and modification time of every file below it. A missing
// element hashes to a fixed marker.
func hashClasspathElement(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "missing", nil
		}

		return "", err
	}

	if !info.IsDir() {
		return HashFile(path)
	}

	h := sha256.New()
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(path, p)
		if err != nil {
			return err
		}

		fmt.Fprintf(h, "%s\x00%d\x00%d\x00", filepath.ToSlash(rel), fi.Size(), fi.ModTime().UnixNano())
		return nil
	})
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
