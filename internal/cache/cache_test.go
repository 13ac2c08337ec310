package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestHashInputs(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "A.java")
	b := filepath.Join(dir, "B.java")
	writeFile(t, a, "interface A {}")
	writeFile(t, b, "interface B {}")

	base := Inputs{
		Scope:      "main",
		Units:      []string{a, b},
		Options:    []string{"-proc:only", "-d", "/c"},
		Properties: map[string]string{"x": "1", "y": "2"},
	}

	hash1, err := HashInputs(base)
	require.NoError(t, err)
	assert.NotEmpty(t, hash1)

	// Hash should be consistent
	hash2, err := HashInputs(base)
	require.NoError(t, err)
	assert.Equal(t, hash1, hash2, "Hash should be consistent")

	// Unit order shouldn't matter (sorted internally)
	reordered := base
	reordered.Units = []string{b, a}
	hash3, err := HashInputs(reordered)
	require.NoError(t, err)
	assert.Equal(t, hash1, hash3, "Units should be sorted, order shouldn't matter")

	// Different options = different hash
	other := base
	other.Options = []string{"-proc:only", "-d", "/other"}
	hash4, err := HashInputs(other)
	require.NoError(t, err)
	assert.NotEqual(t, hash1, hash4, "Different options should produce different hash")

	// Different scope = different hash
	test := base
	test.Scope = "test"
	hash5, err := HashInputs(test)
	require.NoError(t, err)
	assert.NotEqual(t, hash1, hash5)

	// Different properties = different hash
	props := base
	props.Properties = map[string]string{"x": "1"}
	hash6, err := HashInputs(props)
	require.NoError(t, err)
	assert.NotEqual(t, hash1, hash6)

	// Different content = different hash
	writeFile(t, a, "interface A { void m(); }")
	hash7, err := HashInputs(base)
	require.NoError(t, err)
	assert.NotEqual(t, hash1, hash7, "Different content should produce different hash")
}

func TestHashInputs_Classpath(t *testing.T) {
	dir := t.TempDir()
	unit := filepath.Join(dir, "A.java")
	jar := filepath.Join(dir, "lib", "processor.jar")
	classes := filepath.Join(dir, "classes")
	writeFile(t, unit, "interface A {}")
	writeFile(t, jar, "v1")
	writeFile(t, filepath.Join(classes, "A.class"), "v1")

	in := Inputs{
		Scope:     "main",
		Units:     []string{unit},
		Classpath: []string{jar, classes, filepath.Join(dir, "missing.jar")},
	}

	hash1, err := HashInputs(in)
	require.NoError(t, err)

	hash2, err := HashInputs(in)
	require.NoError(t, err)
	assert.Equal(t, hash1, hash2)

	// Same path, different jar content
	writeFile(t, jar, "v2")
	hash3, err := HashInputs(in)
	require.NoError(t, err)
	assert.NotEqual(t, hash2, hash3, "Jar content should be part of the hash")

	// New file in a classpath directory
	writeFile(t, filepath.Join(classes, "B.class"), "v1")
	hash4, err := HashInputs(in)
	require.NoError(t, err)
	assert.NotEqual(t, hash3, hash4, "Directory contents should be part of the hash")

	// Classpath order matters
	reordered := in
	reordered.Classpath = []string{classes, jar, filepath.Join(dir, "missing.jar")}
	hash5, err := HashInputs(reordered)
	require.NoError(t, err)
	assert.NotEqual(t, hash4, hash5)
}

func TestHashInputs_MissingUnit(t *testing.T) {
	_, err := HashInputs(Inputs{Units: []string{filepath.Join(t.TempDir(), "missing.java")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to hash source file")
}

func TestCache_StoreAndGet(t *testing.T) {
	cacheDir := t.TempDir()
	genDir := t.TempDir()

	writeFile(t, filepath.Join(genDir, "MyFileFoo.java"), "public class MyFileFoo {}\n")
	writeFile(t, filepath.Join(genDir, "com", "example", "Gen.java"), "package com.example;")

	cache, err := New(cacheDir)
	require.NoError(t, err)
	defer cache.Close()

	// Cache miss initially
	entry, err := cache.Get("abc")
	require.NoError(t, err)
	assert.Nil(t, entry, "Should be cache miss initially")

	stored, err := cache.Store("abc", Entry{Scope: "main", Units: 1, Success: true}, genDir)
	require.NoError(t, err)
	assert.Equal(t, "abc", stored.Hash)
	assert.False(t, stored.Timestamp.IsZero())

	// Cache hit now
	entry, err = cache.Get("abc")
	require.NoError(t, err)
	require.NotNil(t, entry, "Should be cache hit after store")
	assert.Equal(t, "main", entry.Scope)
	assert.True(t, entry.Success)
	assert.ElementsMatch(t, []string{"MyFileFoo.java", filepath.Join("com", "example", "Gen.java")}, entry.Outputs)

	// Artifacts are copied
	_, err = os.Stat(filepath.Join(cacheDir, "artifacts", "abc", "MyFileFoo.java"))
	assert.NoError(t, err)
}

func TestCache_StoreFailedRunKeepsNoArtifacts(t *testing.T) {
	cacheDir := t.TempDir()
	genDir := t.TempDir()
	writeFile(t, filepath.Join(genDir, "Partial.java"), "class Partial {}")

	cache, err := New(cacheDir)
	require.NoError(t, err)
	defer cache.Close()

	_, err = cache.Store("failed", Entry{Success: false}, genDir)
	require.NoError(t, err)

	entry, err := cache.Get("failed")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.False(t, entry.Success)

	_, err = os.Stat(filepath.Join(cacheDir, "artifacts", "failed"))
	assert.True(t, os.IsNotExist(err))

	_, err = cache.Restore(entry, genDir)
	assert.Error(t, err)
}

func TestCache_Restore(t *testing.T) {
	cacheDir := t.TempDir()
	genDir := t.TempDir()
	genFile := filepath.Join(genDir, "pkg", "MyFileFoo.java")
	writeFile(t, genFile, "public class MyFileFoo {}\n")

	cache, err := New(cacheDir)
	require.NoError(t, err)
	defer cache.Close()

	entry, err := cache.Store("h1", Entry{Success: true}, genDir)
	require.NoError(t, err)

	// Nothing missing, nothing restored
	restored, err := cache.Restore(entry, genDir)
	require.NoError(t, err)
	assert.Empty(t, restored)

	// Simulate a clean of the generated sources
	require.NoError(t, os.RemoveAll(genDir))

	restored, err = cache.Restore(entry, genDir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("pkg", "MyFileFoo.java")}, restored)

	content, err := os.ReadFile(genFile)
	require.NoError(t, err)
	assert.Equal(t, "public class MyFileFoo {}\n", string(content))
}

func TestCache_StoreSkipsLeftovers(t *testing.T) {
	genDir := t.TempDir()
	leftover := filepath.Join(genDir, "MyFileOld.java")
	writeFile(t, leftover, "public class MyFileOld {}\n")
	lastHour := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(leftover, lastHour, lastHour))

	started := time.Now()
	writeFile(t, filepath.Join(genDir, "MyFileFoo.java"), "public class MyFileFoo {}\n")

	cache, err := New(t.TempDir())
	require.NoError(t, err)
	defer cache.Close()

	entry, err := cache.Store("h1", Entry{Success: true, Started: started}, genDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"MyFileFoo.java"}, entry.Outputs)

	require.NoError(t, os.Remove(leftover))
	restored, err := cache.Restore(entry, genDir)
	require.NoError(t, err)
	assert.Empty(t, restored)
	assert.NoFileExists(t, leftover)
}

func TestCache_Clear(t *testing.T) {
	cacheDir := t.TempDir()
	genDir := t.TempDir()
	writeFile(t, filepath.Join(genDir, "A.java"), "class A {}")

	cache, err := New(cacheDir)
	require.NoError(t, err)
	defer cache.Close()

	_, err = cache.Store("h1", Entry{Success: true}, genDir)
	require.NoError(t, err)

	require.NoError(t, cache.Clear())

	entry, err := cache.Get("h1")
	require.NoError(t, err)
	assert.Nil(t, entry, "Should be cache miss after clear")

	_, err = os.Stat(filepath.Join(cacheDir, "artifacts"))
	assert.True(t, os.IsNotExist(err), "Artifacts directory should be removed")
}

func TestCache_Stats(t *testing.T) {
	cacheDir := t.TempDir()
	genDir := t.TempDir()
	writeFile(t, filepath.Join(genDir, "A.java"), "0123456789")

	cache, err := New(cacheDir)
	require.NoError(t, err)
	defer cache.Close()

	count, size, err := cache.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, int64(0), size)

	_, err = cache.Store("h1", Entry{Success: true}, genDir)
	require.NoError(t, err)
	_, err = cache.Store("h2", Entry{Success: true}, genDir)
	require.NoError(t, err)

	count, size, err = cache.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, int64(20), size)
}

func TestNew_DefaultDir(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	cache, err := New("")
	require.NoError(t, err)
	defer cache.Close()

	assert.Equal(t, DefaultCacheDir, filepath.Base(cache.Root()))
	_, err = os.Stat(filepath.Join(cache.Root(), "cache.db"))
	assert.NoError(t, err)
}
