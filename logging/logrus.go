package logging

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// LogrusAdapter implements Logger on top of a logrus FieldLogger.
type LogrusAdapter struct {
	logger logrus.FieldLogger
}

// NewLogrusAdapter creates a Logger from a logrus logger or entry. A nil
// logger uses logrus.StandardLogger().
func NewLogrusAdapter(logger logrus.FieldLogger) Logger {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogrusAdapter{logger: logger}
}

func (l *LogrusAdapter) entry(args []any) logrus.FieldLogger {
	if len(args) == 0 {
		return l.logger
	}
	fields := make(logrus.Fields, len(args)/2+1)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		if i+1 < len(args) {
			fields[key] = args[i+1]
		} else {
			fields["!BADKEY"] = args[i]
		}
	}
	return l.logger.WithFields(fields)
}

// Debug logs a debug message.
func (l *LogrusAdapter) Debug(msg string, args ...any) { l.entry(args).Debug(msg) }

// Info logs an informational message.
func (l *LogrusAdapter) Info(msg string, args ...any) { l.entry(args).Info(msg) }

// Warn logs a warning message.
func (l *LogrusAdapter) Warn(msg string, args ...any) { l.entry(args).Warn(msg) }

// Error logs an error message.
func (l *LogrusAdapter) Error(msg string, args ...any) { l.entry(args).Error(msg) }
