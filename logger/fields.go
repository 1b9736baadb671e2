package logger

import "go.uber.org/zap"

// Field names shared by every component, so JSON logs can be filtered by key.
const (
	FieldOperation = "operation"
	FieldEndpoint  = "endpoint"
	FieldQuery     = "query"
	FieldProbe     = "probe"
	FieldStep      = "step"
	FieldResult    = "result"

	FieldDurationMS = "duration_ms"
	FieldDelayMS    = "delay_ms"
	FieldAttempt    = "attempt"

	FieldError     = "error"
	FieldErrorCode = "error_code"

	FieldCount      = "count"
	FieldBatchSize  = "batch_size"
	FieldTotalCount = "total_count"

	FieldSnapshotID = "snapshot_id"
	FieldPath       = "path"
)

// ComponentLogger returns a named child of the global logger, for injection
// into executors, analyzers and stores.
//
//	exec := sparql.NewExecutor(sparql.WithLogger(logger.ComponentLogger("sparql")))
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
