package logging

import (
	"log/slog"
)

// WithComponent creates a logger with component/subsystem context.
//
// Example:
//
//	log := logging.WithComponent("optimizer")
//	log.Debug("pass applied", "pass", "predicate_pushdown")
func WithComponent(component string) *slog.Logger {
	return GetLogger().With("component", component)
}

// WithOperator creates a logger for a physical operator.
//
// Example:
//
//	log := logging.WithOperator("ExternalSort")
//	log.Debug("run spilled", "run", id, "rows", n)
func WithOperator(operator string) *slog.Logger {
	return GetLogger().With("component", "execution", "operator", operator)
}

// WithQuery creates a logger carrying a query identifier.
func WithQuery(queryID string) *slog.Logger {
	return GetLogger().With("query_id", queryID)
}

// WithTable creates a logger with table context.
func WithTable(tableName string) *slog.Logger {
	return GetLogger().With("table", tableName)
}

// WithError creates a logger with error context.
//
// Example:
//
//	log := logging.WithError(err)
//	log.Error("spill failed", "dir", workDir)
func WithError(err error) *slog.Logger {
	return GetLogger().With("error", err.Error())
}
