package compiler

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Norgate-AV/aptrun/internal/utils"
)

// javac flags, in the order they are emitted
const (
	FlagClasspath   = "-cp"
	FlagSourcepath  = "-sourcepath"
	FlagProcOnly    = "-proc:only"
	FlagProcessor   = "-processor"
	FlagClassOutput = "-d"
	FlagSourceOut   = "-s"
)

// Options holds everything that ends up on the javac command line apart
// from the compilation units
type Options struct {
	Classpath          *PathSet
	Sourcepath         []string
	CompilerArguments  string
	Processors         []string
	ClassOutputDir     string
	GeneratedSourceDir string
}

// CommandBuilder handles building compiler options
type CommandBuilder struct {
	log logrus.FieldLogger
}

// NewCommandBuilder creates a new command builder
func NewCommandBuilder(log logrus.FieldLogger) *CommandBuilder {
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &CommandBuilder{log: log}
}

// BuildOptions builds the javac option list. The order is fixed:
// classpath, sourcepath, -proc:only, extra arguments, processors, class
// output and generated source output. The processor flag is left out when
// no processor is named so that javac falls back to service discovery.
func (cb *CommandBuilder) BuildOptions(opts Options) []string {
	classpath := ""
	if opts.Classpath != nil {
		classpath = opts.Classpath.Join()
	}

	var cmdArgs []string
	cmdArgs = append(cmdArgs, FlagClasspath, classpath)
	cmdArgs = append(cmdArgs, FlagSourcepath, JoinPath(opts.Sourcepath))
	cmdArgs = append(cmdArgs, FlagProcOnly)

	for _, arg := range utils.SplitArguments(opts.CompilerArguments) {
		cb.log.Debugf("adding compiler argument: %s", arg)
		cmdArgs = append(cmdArgs, arg)
	}

	if processors := ProcessorList(opts.Processors); processors != "" {
		cmdArgs = append(cmdArgs, FlagProcessor, processors)
	} else {
		cb.log.Info("no processors specified, using default discovery mechanism")
	}

	cmdArgs = append(cmdArgs, FlagClassOutput, opts.ClassOutputDir)
	cmdArgs = append(cmdArgs, FlagSourceOut, opts.GeneratedSourceDir)

	for _, arg := range cmdArgs {
		cb.log.Debugf("javac option: %s", arg)
	}

	return cmdArgs
}

// ProcessorList joins processor identifiers with commas, skipping blanks.
// It returns "" when there is nothing to join.
func ProcessorList(processors []string) string {
	names := make([]string, 0, len(processors))
	for _, p := range processors {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}

	return strings.Join(names, ",")
}
