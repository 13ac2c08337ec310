package compiler

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/Norgate-AV/aptrun/internal/codes"
	"github.com/Norgate-AV/aptrun/internal/utils"
)

// DefaultJavac is looked up on PATH when no compiler path is configured
const DefaultJavac = "javac"

// DefaultArgFileThreshold is the combined length of compilation unit paths
// above which units are passed through an @argfile
const DefaultArgFileThreshold = 8000

// Task is one processing-only compiler run
type Task struct {
	Options []string
	Units   []string

	// Properties are passed to this invocation only
	Properties map[string]string

	Sink DiagnosticSink
}

// Toolchain runs a compiler task. It reports false when the compiler
// completed but was unsuccessful, and an error when it could not run.
type Toolchain interface {
	Compile(task Task) (bool, error)
}

// Commander interface for testing
type Commander interface {
	Run() error
}

// Javac runs the javac executable
type Javac struct {
	Path             string
	ArgFileThreshold int

	execCommand func(name string, args []string, out io.Writer) Commander
}

// NewJavac creates a javac tool-chain for the executable at path
func NewJavac(path string) *Javac {
	if path == "" {
		path = DefaultJavac
	}

	return &Javac{
		Path:             path,
		ArgFileThreshold: DefaultArgFileThreshold,
		execCommand: func(name string, args []string, out io.Writer) Commander {
			cmd := exec.Command(name, args...)
			cmd.Stdout = out
			cmd.Stderr = out
			return cmd
		},
	}
}

// Compile implements Toolchain
func (j *Javac) Compile(task Task) (bool, error) {
	args, cleanup, err := j.Args(task)
	if err != nil {
		return false, err
	}
	defer cleanup()

	out := NewDiagnosticWriter(task.Sink)
	err = j.execCommand(j.Path, args, out).Run()
	out.Flush()

	code := codes.OK
	if err != nil {
		var exitErr interface{ ExitCode() int }
		if !errors.As(err, &exitErr) {
			return false, fmt.Errorf("failed to run %s: %w", j.Path, err)
		}

		code = exitErr.ExitCode()
	}

	switch {
	case codes.IsSuccess(code):
		return true, nil
	case codes.IsCompileFailure(code):
		return false, nil
	default:
		return false, fmt.Errorf("javac failed (exit code %d): %s", code, codes.GetErrorMessage(code))
	}
}

// Args returns the full javac argument list for task: launcher properties,
// options, then units. The returned cleanup removes any argfile.
func (j *Javac) Args(task Task) ([]string, func(), error) {
	var args []string

	for _, key := range utils.SortedKeys(task.Properties) {
		args = append(args, fmt.Sprintf("-J-D%s=%s", key, task.Properties[key]))
	}

	args = append(args, task.Options...)

	total := 0
	for _, u := range task.Units {
		total += len(u) + 1
	}

	if j.ArgFileThreshold <= 0 || total <= j.ArgFileThreshold {
		return append(args, task.Units...), func() {}, nil
	}

	path, err := writeArgFile(task.Units)
	if err != nil {
		return nil, nil, err
	}

	return append(args, "@"+path), func() { _ = os.Remove(path) }, nil
}

func writeArgFile(units []string) (string, error) {
	f, err := os.CreateTemp("", "aptrun-*.args")
	if err != nil {
		return "", fmt.Errorf("failed to create argument file: %w", err)
	}
	defer f.Close()

	for _, u := range units {
		if _, err := fmt.Fprintln(f, quoteArg(u)); err != nil {
			_ = os.Remove(f.Name())
			return "", fmt.Errorf("failed to write argument file: %w", err)
		}
	}

	return f.Name(), nil
}

// quoteArg quotes a path for a javac @argfile, where backslash escapes
// inside double quotes
func quoteArg(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
