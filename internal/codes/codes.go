package codes

// ErrorCodes maps javac exit codes to their descriptions
var ErrorCodes = map[int]string{
	0: "Success",
	1: "Compilation errors",
	2: "Bad command-line arguments",
	3: "System error or resource exhaustion",
	4: "Abnormal termination of the compiler",
}

const (
	// OK is the exit code of a clean run, warnings included
	OK = 0

	// CompileErrors is returned when javac or a processor reported errors
	CompileErrors = 1
)

// IsSuccess returns true if the exit code indicates a successful run
func IsSuccess(code int) bool {
	return code == OK
}

// IsCompileFailure reports whether the exit code means the sources (or the
// processors) produced errors, as opposed to the tool itself failing
func IsCompileFailure(code int) bool {
	return code == CompileErrors
}

// GetErrorMessage returns the error message for a given exit code, or a generic message if unknown
func GetErrorMessage(code int) string {
	if msg, ok := ErrorCodes[code]; ok {
		return msg
	}

	return "Unknown error"
}
