package compiler

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Kind is the severity of a diagnostic
type Kind int

const (
	KindOther Kind = iota
	KindNote
	KindWarning
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindNote:
		return "note"
	case KindWarning:
		return "warning"
	case KindError:
		return "error"
	default:
		return "other"
	}
}

// Diagnostic is one report from the tool-chain. Source and Line are empty
// when javac did not attach a location.
type Diagnostic struct {
	Kind    Kind
	Source  string
	Line    int
	Message string
}

// String renders the diagnostic the way javac prints it
func (d Diagnostic) String() string {
	switch {
	case d.Source != "" && d.Line > 0:
		return fmt.Sprintf("%s:%d: %s: %s", d.Source, d.Line, d.Kind, d.Message)
	case d.Source != "":
		return fmt.Sprintf("%s: %s: %s", d.Source, d.Kind, d.Message)
	case d.Kind == KindNote:
		return "Note: " + d.Message
	case d.Kind == KindOther:
		return d.Message
	default:
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
}

// DiagnosticSink receives diagnostics as they are reported
type DiagnosticSink func(Diagnostic)

// LogSink logs every diagnostic at warning level with its full text
func LogSink(log logrus.FieldLogger) DiagnosticSink {
	return func(d Diagnostic) {
		log.Warn(d.String())
	}
}

// DiscardSink drops every diagnostic
func DiscardSink() DiagnosticSink {
	return func(Diagnostic) {}
}

var (
	locatedPattern = regexp.MustCompile(`^(.+?):(\d+): (error|warning): (.*)$`)
	barePattern    = regexp.MustCompile(`^(error|warning): (.*)$`)
	notePattern    = regexp.MustCompile(`^Note: (.*)$`)
	summaryPattern = regexp.MustCompile(`^\d+ (errors?|warnings?)$`)
)

// DiagnosticWriter parses javac console output into diagnostics. Lines
// that do not start a new diagnostic (source excerpts, carets, symbol
// details) are appended to the current one.
type DiagnosticWriter struct {
	sink    DiagnosticSink
	mu      sync.Mutex
	buf     []byte
	current *Diagnostic
}

// NewDiagnosticWriter creates a writer reporting to sink
func NewDiagnosticWriter(sink DiagnosticSink) *DiagnosticWriter {
	if sink == nil {
		sink = DiscardSink()
	}

	return &DiagnosticWriter{sink: sink}
}

// Write implements io.Writer
func (w *DiagnosticWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}

		w.line(string(w.buf[:i]))
		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}

// Flush reports any buffered output. It must be called once the tool exits.
func (w *DiagnosticWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.buf) > 0 {
		w.line(string(w.buf))
		w.buf = nil
	}

	w.emit()
}

func (w *DiagnosticWriter) line(raw string) {
	line := strings.TrimRight(raw, "\r")

	if m := locatedPattern.FindStringSubmatch(line); m != nil {
		n, _ := strconv.Atoi(m[2])
		w.start(Diagnostic{Kind: parseKind(m[3]), Source: m[1], Line: n, Message: m[4]})
		return
	}

	if m := barePattern.FindStringSubmatch(line); m != nil {
		w.start(Diagnostic{Kind: parseKind(m[1]), Message: m[2]})
		return
	}

	if m := notePattern.FindStringSubmatch(line); m != nil {
		w.start(Diagnostic{Kind: KindNote, Message: m[1]})
		return
	}

	if summaryPattern.MatchString(strings.TrimSpace(line)) {
		w.emit()
		return
	}

	if w.current != nil && w.current.Kind != KindOther {
		w.current.Message += "\n" + line
		return
	}

	if strings.TrimSpace(line) != "" {
		w.start(Diagnostic{Kind: KindOther, Message: line})
	}
}

func (w *DiagnosticWriter) start(d Diagnostic) {
	w.emit()
	w.current = &d
}

func (w *DiagnosticWriter) emit() {
	if w.current == nil {
		return
	}

	d := *w.current
	d.Message = strings.TrimRight(d.Message, "\n")
	w.current = nil
	w.sink(d)
}

func parseKind(s string) Kind {
	switch s {
	case "error":
		return KindError
	case "warning":
		return KindWarning
	default:
		return KindOther
	}
}
