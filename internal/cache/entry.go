package cache

import "time"

// Entry represents a recorded processing run
type Entry struct {
	// Hash is the unique identifier for this cache entry
	// Computed from: scope + compilation units (path and content) + options + properties
	Hash string `json:"hash"`

	// Scope is the processing scope ("main" or "test")
	Scope string `json:"scope"`

	// SourceDir is the absolute path of the scanned source directory
	SourceDir string `json:"source_dir"`

	// Units is the number of compilation units processed
	Units int `json:"units"`

	// Options is the javac option list of the run
	Options []string `json:"options"`

	// Timestamp when this entry was created
	Timestamp time.Time `json:"timestamp"`

	// Started is when the compiler was invoked. When set, only files
	// modified since then are recorded as outputs.
	Started time.Time `json:"started"`

	// Outputs lists the generated files, relative to the generated sources directory
	Outputs []string `json:"outputs"`

	// Success indicates if the run was successful
	Success bool `json:"success"`
}
