package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
		verbosity  int
		wantLevel  zapcore.Level
	}{
		{name: "JSON output mode", jsonOutput: true, verbosity: 0, wantLevel: zapcore.WarnLevel},
		{name: "Console output mode", jsonOutput: false, verbosity: 1, wantLevel: zapcore.InfoLevel},
		{name: "Console debug", jsonOutput: false, verbosity: 2, wantLevel: zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Logger = nil
			JSONOutput = false

			if err := Initialize(tt.jsonOutput, tt.verbosity); err != nil {
				t.Fatalf("Initialize() error = %v", err)
			}
			if Logger == nil {
				t.Fatal("Initialize() did not set global Logger")
			}
			if JSONOutput != tt.jsonOutput {
				t.Errorf("Initialize() JSONOutput = %v, want %v", JSONOutput, tt.jsonOutput)
			}
			if !Logger.Desugar().Core().Enabled(tt.wantLevel) {
				t.Errorf("Expected level %v to be enabled", tt.wantLevel)
			}
			if tt.wantLevel > zapcore.DebugLevel && Logger.Desugar().Core().Enabled(tt.wantLevel-1) {
				t.Errorf("Expected level below %v to be disabled", tt.wantLevel)
			}

			Cleanup()
			Logger = zap.NewNop().Sugar()
		})
	}
}

func TestCleanupWithNilLogger(t *testing.T) {
	Logger = nil
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Cleanup() panicked unexpectedly: %v", r)
		}
		Logger = zap.NewNop().Sugar()
	}()
	Cleanup()
	Infow("no logger", "key", "value")
}

func TestComponentLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Logger = zap.New(core).Sugar()
	defer func() { Logger = zap.NewNop().Sugar() }()

	ComponentLogger("sparql").Infow("done", FieldEndpoint, "https://vocabs.example.org/sparql")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].LoggerName != "sparql" {
		t.Errorf("LoggerName = %q, want %q", entries[0].LoggerName, "sparql")
	}
	if got := entries[0].ContextMap()[FieldEndpoint]; got != "https://vocabs.example.org/sparql" {
		t.Errorf("endpoint field = %v", got)
	}
}

func TestVerbosityToLevel(t *testing.T) {
	tests := []struct {
		verbosity int
		want      zapcore.Level
	}{
		{0, zapcore.WarnLevel},
		{1, zapcore.InfoLevel},
		{2, zapcore.DebugLevel},
		{3, zapcore.DebugLevel},
		{9, zapcore.DebugLevel},
	}
	for _, tt := range tests {
		if got := VerbosityToLevel(tt.verbosity); got != tt.want {
			t.Errorf("VerbosityToLevel(%d) = %v, want %v", tt.verbosity, got, tt.want)
		}
	}
}

func TestShouldOutput(t *testing.T) {
	tests := []struct {
		verbosity int
		category  OutputCategory
		want      bool
	}{
		{0, OutputResults, true},
		{0, OutputProgress, false},
		{1, OutputProgress, true},
		{1, OutputQueries, false},
		{2, OutputQueries, true},
		{1, OutputTiming, false},
		{5, OutputTiming, true},
		{3, OutputCategory(999), false},
	}
	for _, tt := range tests {
		if got := ShouldOutput(tt.verbosity, tt.category); got != tt.want {
			t.Errorf("ShouldOutput(%d, %d) = %v, want %v", tt.verbosity, tt.category, got, tt.want)
		}
	}
}
