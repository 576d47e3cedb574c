package logger

import (
	"time"
)

// LogRequest logs a completed HTTP request against the provider
func LogRequest(l Logger, method, url string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		l.DebugWithFields("HTTP request completed", fields)
	case statusCode >= 400 && statusCode < 500:
		l.WarnWithFields("HTTP request client error", fields)
	default:
		l.ErrorWithFields("HTTP request failed", fields)
	}
}

// LogNavigation logs a calendar navigation step
func LogNavigation(l Logger, action string, from, to time.Time) {
	l.DebugWithFields("Calendar navigation", map[string]interface{}{
		"action": action,
		"from":   from.Format(time.DateOnly),
		"to":     to.Format(time.DateOnly),
	})
}

// LogThrottle logs a pacing wait. Zero waits are not logged.
func LogThrottle(l Logger, class string, wait time.Duration) {
	if wait <= 0 {
		return
	}
	l.DebugWithFields("Throttling request", map[string]interface{}{
		"class": class,
		"wait":  wait,
	})
}

// LogEntryOutcome logs the result of retrieving one archive entry
func LogEntryOutcome(l Logger, uri, file, outcome string, err error) {
	entryLog := l.WithFields(map[string]interface{}{
		"uri":     uri,
		"file":    file,
		"outcome": outcome,
	})

	switch {
	case err != nil:
		entryLog.WithError(err).Warn("Archive entry skipped")
	case outcome == "downloaded":
		entryLog.Info("Archive entry downloaded")
	default:
		entryLog.Debug("Archive entry already on disk")
	}
}

// LogBuildProgress logs how far a build pass has come
func LogBuildProgress(l Logger, feedID string, date time.Time, visited, total, entries int) {
	l.InfoWithFields("Build progress", map[string]interface{}{
		"feed_id": feedID,
		"date":    date.Format(time.DateOnly),
		"visited": visited,
		"total":   total,
		"entries": entries,
	})
}
