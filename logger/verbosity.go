package logger

import "go.uber.org/zap/zapcore"

// Verbosity is the count of -v flags. It selects the zap level and which
// categories of diagnostic output a command prints.
const (
	VerbosityUser  = 0 // results and errors
	VerbosityInfo  = 1 // -v: analysis steps
	VerbosityDebug = 2 // -vv: SPARQL text, timing, retries
)

// VerbosityToLevel maps a -v count to a zap level. zap has nothing finer than
// Debug, so every count from 2 up logs at Debug.
func VerbosityToLevel(verbosity int) zapcore.Level {
	switch {
	case verbosity <= VerbosityUser:
		return zapcore.WarnLevel
	case verbosity == VerbosityInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// OutputCategory is a kind of diagnostic output, shown from a minimum
// verbosity regardless of log level.
type OutputCategory int

const (
	OutputResults  OutputCategory = iota // command output
	OutputProgress                       // analysis steps
	OutputQueries                        // SPARQL text sent to the endpoint
	OutputTiming                         // elapsed time per request
)

var categoryLevels = map[OutputCategory]int{
	OutputResults:  VerbosityUser,
	OutputProgress: VerbosityInfo,
	OutputQueries:  VerbosityDebug,
	OutputTiming:   VerbosityDebug,
}

// ShouldOutput reports whether category is shown at verbosity. Unknown
// categories are never shown.
func ShouldOutput(verbosity int, category OutputCategory) bool {
	minLevel, ok := categoryLevels[category]
	return ok && verbosity >= minLevel
}
