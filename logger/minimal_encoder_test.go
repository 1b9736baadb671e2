package logger

import (
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// stripANSI removes ANSI color codes from a string for testing
func stripANSI(str string) string {
	ansiRegex := regexp.MustCompile(`\x1b\[[0-9;]*m`)
	return ansiRegex.ReplaceAllString(str, "")
}

func encode(t *testing.T, enc zapcore.Encoder, entry zapcore.Entry, fields ...zapcore.Field) string {
	t.Helper()
	buf, err := enc.EncodeEntry(entry, fields)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	defer buf.Free()
	return stripANSI(buf.String())
}

// TestMinimalEncoderNeverDiscardsFields ensures the console encoder never
// silently drops a structured field.
func TestMinimalEncoderNeverDiscardsFields(t *testing.T) {
	encoder := newMinimalEncoder(true)
	entry := zapcore.Entry{
		Level:      zapcore.WarnLevel,
		Time:       time.Date(2026, 1, 2, 13, 4, 35, 0, time.UTC),
		LoggerName: "sparql",
		Message:    "SPARQL request failed, retrying",
	}

	testFields := []struct {
		field    zapcore.Field
		mustFind string
	}{
		{zap.String(FieldEndpoint, "https://vocabs.example.org/sparql"), "endpoint=https://vocabs.example.org/sparql"},
		{zap.Int(FieldAttempt, 2), "attempt=2"},
		{zap.Int64(FieldDelayMS, 2000), "delay_ms=2000"},
		{zap.String(FieldErrorCode, "SERVER_ERROR"), "error_code=SERVER_ERROR"},
		{zap.Error(errors.New("HTTP 503")), "error=HTTP 503"},
		{zap.Bool("limited", true), "limited=true"},
		{zap.Float64("ratio", 0.8), "ratio=0.8"},
		{zap.Strings("graphs", []string{"g1", "g2"}), "graphs=[g1 g2]"},
		{zap.Duration("elapsed", 1500*time.Millisecond), "elapsed=1.5s"},
		{zap.String("field.with.dots", "x"), "field.with.dots=x"},
	}

	fields := make([]zapcore.Field, len(testFields))
	for i, tf := range testFields {
		fields[i] = tf.field
	}

	output := encode(t, encoder, entry, fields...)

	if !strings.HasPrefix(output, "13:04:35  WARN  sparql  SPARQL request failed, retrying  ") {
		t.Errorf("Unexpected line prefix: %q", output)
	}
	for _, tf := range testFields {
		if !strings.Contains(output, tf.mustFind) {
			t.Errorf("Field missing from output: %s\nOutput: %s", tf.mustFind, output)
		}
	}
	if !strings.HasSuffix(output, "\n") {
		t.Error("Expected a trailing newline")
	}
}

func TestMinimalEncoderHidesInfoLevel(t *testing.T) {
	output := encode(t, newMinimalEncoder(false), zapcore.Entry{
		Level:   zapcore.InfoLevel,
		Time:    time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC),
		Message: "Analysis complete",
	})
	if output != "09:00:00  Analysis complete\n" {
		t.Errorf("Unexpected output: %q", output)
	}
}

func TestMinimalEncoderKeepsContextFields(t *testing.T) {
	base := newMinimalEncoder(false)
	child := base.Clone()
	zap.String(FieldProbe, "schemes").AddTo(child)
	zap.Int(FieldBatchSize, 10).AddTo(child)

	output := encode(t, child, zapcore.Entry{Level: zapcore.DebugLevel, Time: time.Now(), Message: "probe"},
		zap.Int(FieldCount, 3))

	for _, want := range []string{"DEBUG", "batch_size=10", "probe=schemes", "count=3"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in %q", want, output)
		}
	}
	if strings.Index(output, "batch_size=10") > strings.Index(output, "probe=schemes") {
		t.Error("Context fields should render in sorted order")
	}

	if strings.Contains(encode(t, base, zapcore.Entry{Time: time.Now(), Message: "x"}), "probe=") {
		t.Error("Clone must not leak fields back into the parent encoder")
	}
}

func TestMinimalEncoderWithZapCore(t *testing.T) {
	var sb strings.Builder
	core := zapcore.NewCore(newMinimalEncoder(false), zapcore.AddSync(&sb), zapcore.DebugLevel)
	log := zap.New(core).Sugar().Named("analyze").With(FieldEndpoint, "http://x/sparql")

	log.Infow("Step finished", FieldStep, "schemes", FieldDurationMS, 42)

	out := sb.String()
	for _, want := range []string{"analyze", "Step finished", "endpoint=http://x/sparql", "step=schemes", "duration_ms=42"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in %q", want, out)
		}
	}
}
