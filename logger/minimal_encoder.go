package logger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset = "\x1b[0m"
	colorBold  = "\x1b[1m"

	colorTime      = "\x1b[38;5;107m"
	colorComponent = "\x1b[38;5;108m"
	colorKey       = "\x1b[38;5;245m"
	colorWarn      = "\x1b[38;5;179m"
	colorError     = "\x1b[38;5;167m"
	colorDebug     = "\x1b[38;5;109m"
)

var bufferPool = buffer.NewPool()

// minimalEncoder implements a calm, compact console encoder.
// Format: "13:04:35  WARN  sparql  SPARQL request failed, retrying  attempt=1 delay_ms=1000"
type minimalEncoder struct {
	*zapcore.MapObjectEncoder // context fields added through With()
	color                     bool
}

func newMinimalEncoder(color bool) *minimalEncoder {
	return &minimalEncoder{
		MapObjectEncoder: zapcore.NewMapObjectEncoder(),
		color:            color,
	}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	clone := zapcore.NewMapObjectEncoder()
	for k, v := range enc.Fields {
		clone.Fields[k] = v
	}
	return &minimalEncoder{MapObjectEncoder: clone, color: enc.color}
}

func (enc *minimalEncoder) paint(color, s string) string {
	if !enc.color || s == "" {
		return s
	}
	return color + s + colorReset
}

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	final := bufferPool.Get()

	final.AppendString(enc.paint(colorTime, ent.Time.Format("15:04:05")))

	// Level: hidden for INFO to keep the common case quiet
	if label := enc.levelLabel(ent.Level); label != "" {
		final.AppendString("  ")
		final.AppendString(label)
	}

	if ent.LoggerName != "" {
		final.AppendString("  ")
		final.AppendString(enc.paint(colorComponent, ent.LoggerName))
	}

	final.AppendString("  ")
	final.AppendString(ent.Message)

	if rendered := enc.renderFields(fields); rendered != "" {
		final.AppendString("  ")
		final.AppendString(rendered)
	}

	final.AppendString("\n")
	return final, nil
}

func (enc *minimalEncoder) levelLabel(level zapcore.Level) string {
	switch level {
	case zapcore.InfoLevel:
		return ""
	case zapcore.DebugLevel:
		return enc.paint(colorDebug, "DEBUG")
	case zapcore.WarnLevel:
		return enc.paint(colorBold+colorWarn, "WARN")
	default:
		return enc.paint(colorBold+colorError, level.CapitalString())
	}
}

// renderFields renders context fields (sorted) then entry fields (call order)
// as key=value. No field is ever dropped.
func (enc *minimalEncoder) renderFields(fields []zapcore.Field) string {
	parts := make([]string, 0, len(enc.Fields)+len(fields))

	contextKeys := make([]string, 0, len(enc.Fields))
	for k := range enc.Fields {
		contextKeys = append(contextKeys, k)
	}
	sort.Strings(contextKeys)
	for _, k := range contextKeys {
		parts = append(parts, enc.pair(k, enc.Fields[k]))
	}

	entry := zapcore.NewMapObjectEncoder()
	seen := make(map[string]bool, len(fields))
	var order []string
	for _, f := range fields {
		f.AddTo(entry)
		if !seen[f.Key] {
			seen[f.Key] = true
			order = append(order, f.Key)
		}
	}
	for _, k := range order {
		if v, ok := entry.Fields[k]; ok {
			parts = append(parts, enc.pair(k, v))
		}
	}
	return strings.Join(parts, " ")
}

func (enc *minimalEncoder) pair(key string, value interface{}) string {
	return enc.paint(colorKey, key+"=") + formatValue(value)
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case time.Duration:
		return val.String()
	case []interface{}:
		items := make([]string, len(val))
		for i, item := range val {
			items[i] = formatValue(item)
		}
		return "[" + strings.Join(items, " ") + "]"
	default:
		return fmt.Sprintf("%v", val)
	}
}
