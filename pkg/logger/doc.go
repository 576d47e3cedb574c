// Package logger provides structured logging for barchive.
//
// It wraps zerolog behind a small Logger interface so components can be
// handed a logger with fields already attached, and tests can swap in a
// capturing TestLogger or a no-op logger.
//
// Basic usage:
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	log := logger.GetLogger().WithField("feed_id", "12345")
//	log.Info("Discovering archive range")
//
// Console output is colorized and written to stderr. Setting Format to
// "json" emits one JSON object per line instead, and File additionally
// appends JSON lines to a log file.
package logger
