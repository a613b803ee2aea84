// Package logging provides the process-wide structured logger used by the
// planner, the optimizer and the execution operators.
//
// The package wraps [log/slog] and keeps a single global logger that is
// configured once from config.Logging and then retrieved through GetLogger.
//
//	if err := logging.Init(logging.Config{Level: logging.LevelDebug, Format: "json"}); err != nil {
//	    log.Fatal(err)
//	}
//
// If GetLogger is called before Init, a default stderr logger is created
// lazily so that packages logging during init are safe.
//
// Context helpers return child loggers pre-populated with structured fields:
//
//	log := logging.WithOperator("ExternalSort") // adds operator field
//	log := logging.WithQuery(queryID)           // adds query_id field
package logging
